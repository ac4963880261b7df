package bencode

import (
	"fmt"
	"strings"
)

// Kind identifies the runtime kind of a [Value]. The encode registry of a [Codec] is
// keyed by Kind and dictionary key validation compares kinds. Custom [CodableType]s
// may introduce their own kinds.
type Kind string

const (
	KindInt       Kind = "int"
	KindBytes     Kind = "bytes"
	KindText      Kind = "text"
	KindFloat     Kind = "float"
	KindNone      Kind = "none"
	KindList      Kind = "list"
	KindDict      Kind = "dict"
	KindDirect    Kind = "direct"
	KindDecorated Kind = "decorated"
)

// Value is a node in a bencode value tree.
//
// The package provides the following implementations:
//   - [Int]: an arbitrary precision integer.
//   - [Bytes]: a raw byte string.
//   - [Text]: a unicode string, encoded as UTF-8 on the wire (extension).
//   - [Float]: a float64 (extension).
//   - [None]: the null marker (extension).
//   - [List]: an ordered sequence of values.
//   - [*Dict]: a mapping of unique keys to values, encoded in canonical key order.
//   - [Direct]: raw bytes spliced into an encoding verbatim. Encode only.
//   - [Decorated]: a decoded value together with the byte span it occupied.
//     Decode only, produced when decoration is enabled.
//
// Value trees returned by a decode call are never modified by this package.
type Value interface {
	Kind() Kind
}

// Equal reports whether a and b are structurally equal. Dictionaries compare
// independent of their insertion order. Decorated values are equal if their spans
// and inner values are equal.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if a.Kind() != b.Kind() {
		return false
	}

	switch a := a.(type) {
	case Int:
		return a.Cmp(b.(Int)) == 0

	case Bytes:
		return string(a) == string(b.(Bytes))

	case Text:
		return a == b.(Text)

	case Float:
		bf := b.(Float)
		// NaN never equals itself, compare bitwise through the canonical text instead
		return a == bf || a.String() == bf.String()

	case None:
		return true

	case Direct:
		return string(a) == string(b.(Direct))

	case List:
		bl := b.(List)
		if len(a) != len(bl) {
			return false
		}

		for idx := range a {
			if !Equal(a[idx], bl[idx]) {
				return false
			}
		}

		return true

	case *Dict:
		bd := b.(*Dict)
		if a.Len() != bd.Len() {
			return false
		}

		for key, value := range a.All() {
			other, ok := bd.Get(key)
			if !ok || !Equal(value, other) {
				return false
			}
		}

		return true

	case Decorated:
		bd := b.(Decorated)
		return a.Start == bd.Start && a.End == bd.End && Equal(a.Value, bd.Value)

	default:
		// custom kinds, fall back to their textual representation
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
}

// repr returns a human readable representation of a value used in error messages
// and warnings.
func repr(v Value) string {
	if v == nil {
		return "<nil>"
	}

	if stringer, ok := v.(fmt.Stringer); ok {
		return stringer.String()
	}

	return fmt.Sprintf("%#v", v)
}

// keyRepr formats a dictionary key for the key order warning. Byte strings are
// single quoted ('abc'), text additionally carries a u prefix (u'abc'). Non
// printable bytes are written as \xNN escapes, non ASCII text as \uNNNN.
func keyRepr(v Value) string {
	switch v := v.(type) {
	case Bytes:
		return quoteKey(string(v), false)
	case Text:
		return "u" + quoteKey(string(v), true)
	default:
		return repr(v)
	}
}

func quoteKey(s string, text bool) string {
	quote := byte('\'')
	if strings.IndexByte(s, '\'') >= 0 && strings.IndexByte(s, '"') < 0 {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)

	write := func(r rune) {
		switch {
		case r == '\\' || r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\t':
			b.WriteString(`\t`)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r < 0x20 || r >= 0x7f && r <= 0xff:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r > 0xffff:
			fmt.Fprintf(&b, `\U%08x`, r)
		case r > 0xff:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}

	if text {
		for _, r := range s {
			write(r)
		}
	} else {
		for idx := 0; idx < len(s); idx++ {
			write(rune(s[idx]))
		}
	}

	b.WriteByte(quote)
	return b.String()
}
