package core

// input.go prepares raw file bytes for the CSV reader.
//
//   - bomSkippingReader drops a leading UTF-8 BOM written by Excel and Notepad
//   - utf8Sanitizer replaces invalid UTF-8 bytes with U+FFFD
//   - sizeLimitedReader fails with ErrFileTooLarge past a byte limit
//
// WrapInput applies them in that order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type bomSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{r: bufio.NewReader(r)}
}

func (b *bomSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer decodes rune by rune so multi-byte sequences split across
// reads are handled by bufio.
type utf8Sanitizer struct {
	r       *bufio.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: bufio.NewReader(r)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(s.pending) > 0 {
			c := copy(p[n:], s.pending)
			s.pending = s.pending[c:]
			n += c
			continue
		}

		r, _, err := s.r.ReadRune()
		if err != nil {
			if n > 0 && err == io.EOF {
				return n, nil
			}
			return n, err
		}

		// Invalid bytes decode as RuneError and are written as U+FFFD.
		var buf [utf8.UTFMax]byte
		w := utf8.EncodeRune(buf[:], r)
		c := copy(p[n:], buf[:w])
		n += c
		if c < w {
			s.pending = append(s.pending[:0], buf[c:w]...)
		}
		if s.r.Buffered() == 0 && n > 0 {
			return n, nil
		}
	}
	return n, nil
}

type sizeLimitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *sizeLimitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}
	return n, err
}

// WrapInput strips a BOM, sanitizes UTF-8 and, when maxBytes > 0, fails
// reads past maxBytes with ErrFileTooLarge.
func WrapInput(r io.Reader, maxBytes int64) io.Reader {
	if maxBytes > 0 {
		r = &sizeLimitedReader{r: r, remaining: maxBytes}
	}
	return newUTF8Sanitizer(newBOMSkippingReader(r))
}
