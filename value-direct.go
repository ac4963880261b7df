package bencode

import (
	"fmt"
)

// Direct holds raw bytes that are written into an encoding verbatim, without any
// framing. It is used to splice a previously extracted span back into a new encoding
// unchanged, e.g. to keep the exact bytes of a dictionary whose digest must not
// change.
//
// The encoder does not validate the content: splicing bytes that are not a single
// well-formed value produces an invalid document. Direct values never appear in a
// decoded tree.
type Direct []byte

var _ Value = Direct(nil)

func (d Direct) Kind() Kind {
	return KindDirect
}

func (d Direct) String() string {
	return fmt.Sprintf("Direct(%q)", []byte(d))
}

// Decorated is a decoded value together with the byte offsets it occupied in the
// source, [Start, End). Decorated values are produced by a codec created with
// [WithDecoration]. Every value of such a tree is decorated, including dictionary
// keys and scalar leaves.
type Decorated struct {
	Start int64
	End   int64
	Value Value
}

var _ Value = Decorated{}

func (d Decorated) Kind() Kind {
	return KindDecorated
}

// Span returns the byte range the value occupied in the source.
func (d Decorated) Span() Span {
	return Span{Start: d.Start, End: d.End}
}

func (d Decorated) String() string {
	return fmt.Sprintf("(%d, %d, %s)", d.Start, d.End, repr(d.Value))
}

// Undecorate returns v with all decoration removed, recursively. Values without
// decoration are returned as is.
func Undecorate(v Value) Value {
	switch v := v.(type) {
	case Decorated:
		return Undecorate(v.Value)

	case List:
		result := make(List, len(v))
		for idx, item := range v {
			result[idx] = Undecorate(item)
		}

		return result

	case *Dict:
		result := &Dict{}
		for key, value := range v.All() {
			result.set(Undecorate(key), Undecorate(value))
		}

		return result

	default:
		return v
	}
}

// unwrap strips the decoration of the outermost value only. Children stay
// decorated.
func unwrap(v Value) Value {
	for {
		decorated, ok := v.(Decorated)
		if !ok {
			return v
		}

		v = decorated.Value
	}
}
