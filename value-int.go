package bencode

import (
	"math/big"
	"strconv"
	"strings"
)

// Int is an integer value of arbitrary precision. The zero value is 0.
//
// Values that fit into an int64 are stored inline, larger values are backed by a
// big.Int. An Int is immutable.
type Int struct {
	small int64

	// only set if the value does not fit into an int64
	big *big.Int
}

var _ Value = Int{}

// NewInt returns an Int holding v.
func NewInt(v int64) Int {
	return Int{small: v}
}

// NewUint returns an Int holding v.
func NewUint(v uint64) Int {
	if v <= 1<<63-1 {
		return Int{small: int64(v)}
	}

	return Int{big: new(big.Int).SetUint64(v)}
}

// NewBigInt returns an Int holding a copy of v.
func NewBigInt(v *big.Int) Int {
	if v.IsInt64() {
		return Int{small: v.Int64()}
	}

	return Int{big: new(big.Int).Set(v)}
}

// parseInt parses the decimal text of an integer token. The parser is permissive:
// leading zeros, a negative zero, an explicit plus sign and surrounding ASCII
// whitespace are accepted.
func parseInt(text string) (Int, error) {
	text = trimSpace(text)

	if small, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int{small: small}, nil
	}

	value, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return Int{}, &SyntaxError{Kind: KindInt, Text: text}
	}

	return NewBigInt(value), nil
}

// trimSpace removes surrounding ASCII whitespace from numeric text.
func trimSpace(text string) string {
	return strings.Trim(text, " \t\n\v\f\r")
}

func (i Int) Kind() Kind {
	return KindInt
}

// Int64 returns the value as an int64. The boolean is false if the value does not
// fit into an int64.
func (i Int) Int64() (int64, bool) {
	if i.big != nil {
		return 0, false
	}

	return i.small, true
}

// Uint64 returns the value as an uint64. The boolean is false if the value is
// negative or too large.
func (i Int) Uint64() (uint64, bool) {
	if i.big != nil {
		return i.big.Uint64(), i.big.IsUint64()
	}

	if i.small < 0 {
		return 0, false
	}

	return uint64(i.small), true
}

// Big returns the value as a newly allocated big.Int.
func (i Int) Big() *big.Int {
	if i.big != nil {
		return new(big.Int).Set(i.big)
	}

	return big.NewInt(i.small)
}

func (i Int) Sign() int {
	switch {
	case i.big != nil:
		return i.big.Sign()
	case i.small < 0:
		return -1
	case i.small > 0:
		return 1
	default:
		return 0
	}
}

// Cmp compares i and o and returns -1, 0 or +1.
func (i Int) Cmp(o Int) int {
	if i.big == nil && o.big == nil {
		switch {
		case i.small < o.small:
			return -1
		case i.small > o.small:
			return 1
		default:
			return 0
		}
	}

	return i.Big().Cmp(o.Big())
}

func (i Int) String() string {
	return string(i.appendText(nil))
}

func (i Int) appendText(buf []byte) []byte {
	if i.big != nil {
		return i.big.Append(buf, 10)
	}

	return strconv.AppendInt(buf, i.small, 10)
}
