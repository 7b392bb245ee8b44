package dataset

// Readers that clean a CSV byte stream before it reaches encoding/csv:
//
//   - SkipBOM drops a leading UTF-8 byte order mark written by Excel on Windows.
//   - Sanitizer replaces bytes that are not valid UTF-8 with '?'.
//   - CountingReader records how many bytes were consumed.
//
// Wrap applies all three in the right order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a reader positioned after a leading UTF-8 BOM, if any.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}
	return br
}

// Sanitizer replaces invalid UTF-8 with '?' while streaming. A multi-byte rune
// split across two reads of the underlying reader is carried to the next read
// rather than being treated as invalid.
type Sanitizer struct {
	r     io.Reader
	buf   []byte
	carry []byte
	out   []byte
	err   error
}

// NewSanitizer wraps r.
func NewSanitizer(r io.Reader) *Sanitizer {
	return &Sanitizer{r: r, buf: make([]byte, 32*1024)}
}

func (s *Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if len(s.out) > 0 {
			n := copy(p, s.out)
			s.out = s.out[n:]
			return n, nil
		}
		if s.err != nil {
			return 0, s.err
		}

		n, err := s.r.Read(s.buf)
		s.err = err
		if n == 0 && len(s.carry) == 0 {
			continue
		}

		data := make([]byte, 0, len(s.carry)+n)
		data = append(data, s.carry...)
		data = append(data, s.buf[:n]...)
		s.carry = nil
		s.out = s.sanitize(data, err != nil)
	}
}

func (s *Sanitizer) sanitize(data []byte, atEOF bool) []byte {
	if utf8.Valid(data) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if data[i] < utf8.RuneSelf {
			out = append(out, data[i])
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			s.carry = append(s.carry, data[i:]...)
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
		} else {
			out = append(out, data[i:i+size]...)
		}
		i += size
	}
	return out
}

// CountingReader tracks bytes read through it.
type CountingReader struct {
	r     io.Reader
	Bytes int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{r: r}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.Bytes += int64(n)
	return n, err
}

// Wrap strips the BOM, then sanitizes, then counts what the CSV parser sees.
func Wrap(r io.Reader) *CountingReader {
	return NewCountingReader(NewSanitizer(SkipBOM(r)))
}
