package bencode

import (
	"fmt"
	"strings"
)

// Span is a byte range [Start, End) of the input a value was decoded from.
type Span struct {
	Start int64
	End   int64
}

func (s Span) Len() int64 {
	return s.End - s.Start
}

// Slice returns the bytes of the span within data, the input the span was recorded
// on. The result shares memory with data.
func (s Span) Slice(data []byte) ([]byte, error) {
	if s.Start < 0 || s.Start > s.End || s.End > int64(len(data)) {
		return nil, fmt.Errorf("span [%d, %d) of %d bytes: %w", s.Start, s.End, len(data), ErrUnderrun)
	}

	return data[s.Start:s.End:s.End], nil
}

// Find walks a value tree along a path of dictionary keys and returns the value found
// at its end. Each path element matches a [Bytes] or [Text] key. Decorated trees are
// supported, in which case the result is a [Decorated] as well. Returns [ErrNoValue]
// if a key does not exist and [ErrNotSupported] if a path element does not address
// a dictionary.
func Find(root Value, path ...string) (Value, error) {
	current := root

	for idx, key := range path {
		dict, ok := unwrap(current).(*Dict)
		if !ok {
			return nil, fmt.Errorf("lookup %q in %s: %w", strings.Join(path[:idx+1], "."), kindOf(current), ErrNotSupported)
		}

		child, ok := dict.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("lookup %q: %w", strings.Join(path[:idx+1], "."), ErrNoValue)
		}

		current = child
	}

	return current, nil
}

// FindSpan is like [Find] but returns the span of the value found. The tree must have
// been decoded with decoration enabled.
func FindSpan(root Value, path ...string) (Span, error) {
	value, err := Find(root, path...)
	if err != nil {
		return Span{}, err
	}

	decorated, ok := value.(Decorated)
	if !ok {
		return Span{}, fmt.Errorf("span of undecorated %s: %w", kindOf(value), ErrNotSupported)
	}

	return decorated.Span(), nil
}

func kindOf(v Value) Kind {
	if v = unwrap(v); v == nil {
		return ""
	}

	return v.Kind()
}
