package core

import (
	"strings"
	"unicode/utf8"
)

const utf8BOM = "\uFEFF"

// utf8Decoder turns a sequence of byte chunks into text.
//
// A multi-byte sequence split across two chunks is held back in pending and
// prepended to the next chunk, so a chunk boundary never produces a
// replacement character. Bytes that are invalid on their own are replaced
// with U+FFFD.
type utf8Decoder struct {
	pending []byte
}

// decode returns the text for every complete rune in chunk. When final is
// true any held-back bytes are flushed as well.
func (d *utf8Decoder) decode(chunk []byte, final bool) string {
	data := chunk
	if len(d.pending) > 0 {
		data = make([]byte, 0, len(d.pending)+len(chunk))
		data = append(data, d.pending...)
		data = append(data, chunk...)
		d.pending = d.pending[:0]
	}

	if !final {
		if k := incompleteTrailingBytes(data); k > 0 {
			d.pending = append(d.pending, data[len(data)-k:]...)
			data = data[:len(data)-k]
		}
	}

	if isAllASCII(data) || utf8.Valid(data) {
		return string(data)
	}
	return sanitizeUTF8(data)
}

// isAllASCII returns true if all bytes are ASCII (< 128).
func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces every invalid byte with U+FFFD.
func sanitizeUTF8(data []byte) string {
	var b strings.Builder
	b.Grow(len(data) + 8)

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.Write(data[:size])
		}
		data = data[size:]
	}
	return b.String()
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that start a multi-byte sequence still missing continuation bytes.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// Anything but a continuation byte ends the search.
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// stripBOM removes a leading byte order mark, as written by Excel on Windows.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, utf8BOM)
}
