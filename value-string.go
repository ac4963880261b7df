package bencode

import (
	"strconv"
)

// Bytes is a raw byte string. No character encoding is assumed.
type Bytes []byte

var _ Value = Bytes(nil)

func (b Bytes) Kind() Kind {
	return KindBytes
}

// String returns the byte string as a quoted Go string literal.
func (b Bytes) String() string {
	return strconv.Quote(string(b))
}

// Text is a unicode string. It is an extension to the bencode format and only
// available if the codec was created with [WithText]. On the wire the text is
// always encoded as UTF-8 and its length prefix counts encoded bytes.
type Text string

var _ Value = Text("")

func (t Text) Kind() Kind {
	return KindText
}

// String returns the text as a quoted Go string literal with a 'u' prefix to
// tell it apart from a [Bytes] value.
func (t Text) String() string {
	return "u" + strconv.Quote(string(t))
}
