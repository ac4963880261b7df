package bencode

import (
	"strings"
)

// List is an ordered sequence of values.
type List []Value

var _ Value = List(nil)

func (l List) Kind() Kind {
	return KindList
}

func (l List) String() string {
	var sb strings.Builder

	sb.WriteByte('[')
	for idx, item := range l {
		if idx > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(repr(item))
	}
	sb.WriteByte(']')

	return sb.String()
}
