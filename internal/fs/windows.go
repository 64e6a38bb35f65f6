//go:build windows
// +build windows

// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	devicePrefix = `\\.\`
	sectorSize   = 512

	ioctlDiskGetLengthInfo = 0x7405c
)

// deviceFile reads a raw volume or physical drive, so that images can be
// identified without copying them out first. The driver only accepts sector
// aligned reads.
type deviceFile struct {
	name   string
	handle windows.Handle
	offset int64
}

type deviceInfo struct {
	name string
	size int64
}

func (fi *deviceInfo) Name() string       { return fi.name }
func (fi *deviceInfo) Size() int64        { return fi.size }
func (fi *deviceInfo) Mode() os.FileMode  { return os.ModeDevice }
func (fi *deviceInfo) ModTime() time.Time { return time.Time{} }
func (fi *deviceInfo) IsDir() bool        { return false }
func (fi *deviceInfo) Sys() any           { return nil }

// Open opens a regular file, or a raw device when path starts with \\.\.
func Open(path string) (File, error) {
	if !strings.HasPrefix(path, devicePrefix) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %q: %w", path, err)
		}
		return f, nil
	}

	handle, err := windows.CreateFile(
		windows.StringToUTF16Ptr(path),
		windows.GENERIC_READ,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		0,
		0,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %q: %w", path, err)
	}
	return &deviceFile{name: path, handle: handle}, nil
}

func (d *deviceFile) Read(p []byte) (int, error) {
	n, err := d.ReadAt(p, d.offset)
	d.offset += int64(n)
	return n, err
}

func (d *deviceFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("negative offset")
	}

	start := off / sectorSize * sectorSize
	skip := int(off - start)
	buf := make([]byte, (len(p)+skip+sectorSize-1)/sectorSize*sectorSize)

	var read uint32
	ov := &windows.Overlapped{
		Offset:     uint32(start),
		OffsetHigh: uint32(start >> 32),
	}
	err := windows.ReadFile(d.handle, buf, &read, ov)
	if errors.Is(err, windows.ERROR_IO_PENDING) {
		err = windows.GetOverlappedResult(d.handle, ov, &read, true)
	}
	if errors.Is(err, windows.ERROR_HANDLE_EOF) {
		return 0, io.EOF
	}
	if err != nil {
		return 0, fmt.Errorf("device read at %d: %w", off, err)
	}

	if int(read) <= skip {
		return 0, io.EOF
	}
	n := copy(p, buf[skip:read])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Stat reports the device length. Geometry based sizes round down to whole
// cylinders and would hide the tail of the volume.
func (d *deviceFile) Stat() (os.FileInfo, error) {
	var length int64
	var returned uint32

	err := windows.DeviceIoControl(
		d.handle,
		ioctlDiskGetLengthInfo,
		nil,
		0,
		(*byte)(unsafe.Pointer(&length)),
		uint32(unsafe.Sizeof(length)),
		&returned,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("IOCTL_DISK_GET_LENGTH_INFO: %w", err)
	}
	return &deviceInfo{name: d.name, size: length}, nil
}

func (d *deviceFile) Close() error {
	return windows.CloseHandle(d.handle)
}
