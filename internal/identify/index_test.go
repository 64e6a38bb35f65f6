package identify

import (
	"math/rand"
	"testing"

	"github.com/ostafen/pronomid/internal/signature"
	"github.com/stretchr/testify/require"
)

func mustSequence(t *testing.T, loc signature.Location, pattern string, minOff, maxOff int) signature.Sequence {
	t.Helper()

	s, err := signature.NewSequence(loc, pattern, minOff, maxOff)
	require.NoError(t, err)
	return s
}

func TestPrefixIndexAnchoredOnly(t *testing.T) {
	sigs := []*signature.Signature{
		signature.New("a", mustSequence(t, signature.BOF, "4142", 0, 0)),
		signature.New("b", mustSequence(t, signature.BOF, "4142", 0, 4)),
		signature.New("c", mustSequence(t, signature.EOF, "4142", 0, 0)),
		signature.New("d", mustSequence(t, signature.BOF, "41", 0, 0), mustSequence(t, signature.ANY, "43", 0, 0)),
	}

	ix := buildPrefixIndex(sigs)
	require.Equal(t, []bool{true, false, false, true}, ix.anchored)
	require.Equal(t, 2, ix.size())

	require.Equal(t, []bool{false, true, true, false}, ix.candidates([]byte("ZZAB")))
	require.Equal(t, []bool{true, true, true, true}, ix.candidates([]byte("ABC")))
	require.Equal(t, []bool{false, true, true, true}, ix.candidates([]byte("AC")))
}

func TestPrefixIndexNeverChangesResult(t *testing.T) {
	sigs := []*signature.Signature{
		signature.New("s0", mustSequence(t, signature.BOF, "0102", 0, 0)),
		signature.New("s1", mustSequence(t, signature.BOF, "01", 0, 0), mustSequence(t, signature.EOF, "03", 0, 1)),
		signature.New("s2", mustSequence(t, signature.BOF, "0203", 1, 3)),
		signature.New("s3", mustSequence(t, signature.ANY, "0303", 0, 0)),
		signature.New("s4", mustSequence(t, signature.BOF, "01", 0, 0)),
		signature.New("s5", mustSequence(t, signature.EOF, "02", 0, 0)),
	}

	id := New(Database{Signatures: sigs}, nil, DefaultOptions())

	bruteForce := func(w signature.Window) *signature.Signature {
		for _, sig := range sigs {
			if sig.Match(w) {
				return sig
			}
		}
		return nil
	}

	rnd := rand.New(rand.NewSource(42))
	for range 5000 {
		buf := make([]byte, 1+rnd.Intn(8))
		for i := range buf {
			buf[i] = byte(rnd.Intn(4))
		}
		w := signature.Window{Head: buf, Tail: buf}
		require.Same(t, bruteForce(w), id.MatchSignature(w), "input %x", buf)
	}
}
