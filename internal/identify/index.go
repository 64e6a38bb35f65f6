package identify

import (
	"github.com/ostafen/pronomid/internal/signature"
	"github.com/ostafen/pronomid/pkg/table"
)

// prefixIndex maps the fixed beginning-of-file literal of a signature to its
// position in the scan order. Signatures with such a literal can only match
// when the head starts with it; all the others are always tried.
type prefixIndex struct {
	table    *table.PrefixTable[int]
	anchored []bool
}

func buildPrefixIndex(sigs []*signature.Signature) *prefixIndex {
	ix := &prefixIndex{
		table:    table.New[int](),
		anchored: make([]bool, len(sigs)),
	}

	for i, sig := range sigs {
		if key := anchoredPrefix(sig); key != nil {
			ix.table.Add(key, i)
			ix.anchored[i] = true
		}
	}
	return ix
}

// anchoredPrefix returns the literal a signature requires at offset zero, or
// nil if it has none.
func anchoredPrefix(sig *signature.Signature) []byte {
	for i := range sig.Sequences {
		seq := &sig.Sequences[i]
		if seq.Location != signature.BOF || seq.MaxOffset != 0 || seq.Err() != nil {
			continue
		}
		if len(seq.Bytes()) > 0 {
			return seq.Bytes()
		}
	}
	return nil
}

// candidates returns, for each signature, whether it may match head.
func (ix *prefixIndex) candidates(head []byte) []bool {
	ok := make([]bool, len(ix.anchored))
	for i, anchored := range ix.anchored {
		ok[i] = !anchored
	}

	ix.table.Walk(head, func(_ []byte, sigs []int) bool {
		for _, i := range sigs {
			ok[i] = true
		}
		return false
	})
	return ok
}

func (ix *prefixIndex) size() int {
	return ix.table.Size()
}
