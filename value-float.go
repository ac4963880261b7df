package bencode

import (
	"errors"
	"strconv"
)

// Float is a floating point value. It is an extension to the bencode format and
// only available if the codec was created with [WithFloat].
type Float float64

var _ Value = Float(0)

func (f Float) Kind() Kind {
	return KindFloat
}

// String returns the wire text of the float. The exponent is always written with an
// upper case 'E' so that it can not be confused with the terminating 'e'.
func (f Float) String() string {
	return string(f.appendText(nil))
}

func (f Float) appendText(buf []byte) []byte {
	return strconv.AppendFloat(buf, float64(f), 'G', -1, 64)
}

// parseFloat parses the text of a float token. Values out of range parse to an
// infinity or zero, they are not rejected.
func parseFloat(text string) (Float, error) {
	value, err := strconv.ParseFloat(trimSpace(text), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, &SyntaxError{Kind: KindFloat, Text: text, Err: err}
	}

	return Float(value), nil
}
