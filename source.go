package bencode

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Source is the sequential, peekable byte reader a decode pulls its input from. It
// is the only place where a decode touches raw input.
//
// A Source tracks the absolute offset of the next unread byte. All reads that can
// not be satisfied because the input is exhausted must fail with an error wrapping
// [ErrUnderrun], usually an [*UnderrunError].
//
// The package includes two implementations:
//
//  1. [BytesSource]: reads from an in-memory byte slice without copying. Offsets are
//     indices into that slice, which makes it the natural choice for decoration.
//
//  2. [ReaderSource]: reads from an [io.Reader] through a buffered lookahead.
//
// Slices returned by a Source are only valid until the next call and must not be
// modified. Decoders copy what they keep.
type Source interface {
	// Get consumes and returns exactly n bytes.
	Get(n int) ([]byte, error)

	// Peek returns the next n bytes without consuming them.
	Peek(n int) ([]byte, error)

	// Skip consumes n bytes.
	Skip(n int) error

	// Tell returns the absolute offset of the next unread byte.
	Tell() int64

	// ConsumeIfPossible consumes literal if the upcoming bytes match it exactly and
	// reports whether it did. Fewer remaining bytes than len(literal) is not an
	// error, it simply does not match.
	ConsumeIfPossible(literal []byte) (bool, error)

	// GetUntil returns all bytes up to but excluding the first occurrence of
	// terminator. The terminator itself is consumed.
	GetUntil(terminator byte) ([]byte, error)
}

// BytesSource is a [Source] over an in-memory byte slice.
type BytesSource struct {
	data []byte
	pos  int
}

var _ Source = (*BytesSource)(nil)

func NewBytesSource(data []byte) *BytesSource {
	return &BytesSource{data: data}
}

func (b *BytesSource) Get(n int) ([]byte, error) {
	chunk, err := b.Peek(n)
	if err != nil {
		return nil, err
	}

	b.pos += n
	return chunk, nil
}

func (b *BytesSource) Peek(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read of %d bytes", n)
	}

	if remaining := len(b.data) - b.pos; n > remaining {
		return nil, &UnderrunError{Offset: int64(b.pos), Want: n, Have: remaining}
	}

	return b.data[b.pos : b.pos+n : b.pos+n], nil
}

func (b *BytesSource) Skip(n int) error {
	_, err := b.Get(n)
	return err
}

func (b *BytesSource) Tell() int64 {
	return int64(b.pos)
}

func (b *BytesSource) ConsumeIfPossible(literal []byte) (bool, error) {
	if !bytes.HasPrefix(b.data[b.pos:], literal) {
		return false, nil
	}

	b.pos += len(literal)
	return true, nil
}

func (b *BytesSource) GetUntil(terminator byte) ([]byte, error) {
	rest := b.data[b.pos:]

	idx := bytes.IndexByte(rest, terminator)
	if idx == -1 {
		return nil, &UnderrunError{Offset: int64(b.pos), Want: len(rest) + 1, Have: len(rest)}
	}

	b.pos += idx + 1
	return rest[:idx:idx], nil
}

// Remaining returns the number of bytes not yet consumed.
func (b *BytesSource) Remaining() int {
	return len(b.data) - b.pos
}

// ReaderSource is a [Source] over an [io.Reader]. Lookahead is served from a
// [bufio.Reader], so a single Peek is limited to the size of its buffer.
type ReaderSource struct {
	r      *bufio.Reader
	offset int64
}

var _ Source = (*ReaderSource)(nil)

func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: bufio.NewReader(r)}
}

func (s *ReaderSource) Get(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read of %d bytes", n)
	}

	start := s.offset

	// grow the buffer while reading, a bogus length prefix must not
	// allocate more than the input actually holds.
	var buf bytes.Buffer
	read, err := buf.ReadFrom(io.LimitReader(s.r, int64(n)))
	s.offset += read

	if err != nil {
		return nil, s.underrun(err, start, n, int(read))
	}

	if int(read) < n {
		return nil, s.underrun(io.ErrUnexpectedEOF, start, n, int(read))
	}

	return buf.Bytes(), nil
}

func (s *ReaderSource) Peek(n int) ([]byte, error) {
	chunk, err := s.r.Peek(n)
	if err != nil {
		return nil, s.underrun(err, s.offset, n, len(chunk))
	}

	return chunk, nil
}

func (s *ReaderSource) Skip(n int) error {
	start := s.offset

	discarded, err := s.r.Discard(n)
	s.offset += int64(discarded)

	if err != nil {
		return s.underrun(err, start, n, discarded)
	}

	return nil
}

func (s *ReaderSource) Tell() int64 {
	return s.offset
}

func (s *ReaderSource) ConsumeIfPossible(literal []byte) (bool, error) {
	chunk, err := s.Peek(len(literal))
	switch {
	case errors.Is(err, ErrUnderrun):
		return false, nil
	case err != nil:
		return false, err
	}

	if !bytes.Equal(chunk, literal) {
		return false, nil
	}

	return true, s.Skip(len(literal))
}

func (s *ReaderSource) GetUntil(terminator byte) ([]byte, error) {
	start := s.offset

	chunk, err := s.r.ReadBytes(terminator)
	s.offset += int64(len(chunk))

	if err != nil {
		return nil, s.underrun(err, start, len(chunk)+1, len(chunk))
	}

	return chunk[:len(chunk)-1], nil
}

// underrun converts an end of input into an *UnderrunError reporting the offset
// the failed read started at.
func (s *ReaderSource) underrun(err error, start int64, want, have int) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &UnderrunError{Offset: start, Want: want, Have: have}
	}

	if errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("peek %d bytes: %w", want, err)
	}

	return fmt.Errorf("read at offset %d: %w", start, err)
}
