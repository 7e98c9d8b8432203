// Package binrec extracts fields from fixed-offset binary records.
//
// Windows are half-open byte ranges [start, end). Passing End as the end
// offset selects everything up to the end of the buffer. A window that does
// not fit the buffer, or an integer window whose length is not a multiple of
// four, is a programming error and panics.
package binrec

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// End selects the remainder of the buffer as a window end.
const End = -1

// Window returns buf[start:end], resolving End.
func Window(buf []byte, start, end int) []byte {
	if end == End {
		end = len(buf)
	}
	if start < 0 || end < start || end > len(buf) {
		panic(fmt.Sprintf("binrec: window [%d,%d) outside buffer of %d bytes", start, end, len(buf)))
	}
	return buf[start:end]
}

// Text decodes the window as single-byte (ISO-8859-1) characters up to, but
// not including, the first zero byte. Without a zero byte the whole window is
// decoded.
func Text(buf []byte, start, end int) string {
	w := Window(buf, start, end)
	var sb strings.Builder
	sb.Grow(len(w))
	for _, c := range w {
		if c == 0 {
			break
		}
		sb.WriteRune(charmap.ISO8859_1.DecodeByte(c))
	}
	return sb.String()
}

// Int32s decodes the window as consecutive little-endian signed 32-bit
// integers.
func Int32s(buf []byte, start, end int) []int32 {
	w := Window(buf, start, end)
	if len(w)%4 != 0 {
		panic(fmt.Sprintf("binrec: int32 window [%d,%d) is %d bytes, not a multiple of 4", start, end, len(w)))
	}
	out := make([]int32, len(w)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(w[i*4:]))
	}
	return out
}

// Uint16BE reads a big-endian uint16 at off.
func Uint16BE(buf []byte, off int) uint16 {
	return binary.BigEndian.Uint16(Window(buf, off, off+2))
}

// Uint32BE reads a big-endian uint32 at off.
func Uint32BE(buf []byte, off int) uint32 {
	return binary.BigEndian.Uint32(Window(buf, off, off+4))
}

// Uint64BE reads a big-endian uint64 at off.
func Uint64BE(buf []byte, off int) uint64 {
	return binary.BigEndian.Uint64(Window(buf, off, off+8))
}
