package bencode

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"
)

var ErrInvalidUTF8 = errors.New("invalid UTF-8")

var terminator = []byte{'e'}

// TypeInt encodes integers as 'i' <decimal> 'e'.
var TypeInt = CodableType{
	Name:   "int",
	Kind:   KindInt,
	Encode: encodeInt,
	Decode: decodeInt,
	Tokens: "i",
}

// TypeBytes encodes byte strings as <decimal length> ':' <raw bytes>.
var TypeBytes = CodableType{
	Name:   "bytes",
	Kind:   KindBytes,
	Encode: encodeBytes,
	Decode: decodeBytes,
	Tokens: "0123456789",
}

// TypeList encodes lists as 'l' <values> 'e'.
var TypeList = CodableType{
	Name:   "list",
	Kind:   KindList,
	Encode: encodeList,
	Decode: decodeList,
	Tokens: "l",
}

// TypeDict encodes dictionaries as 'd' (<key> <value>)* 'e' with keys in
// canonical order.
var TypeDict = CodableType{
	Name:   "dict",
	Kind:   KindDict,
	Encode: encodeDict,
	Decode: decodeDict,
	Tokens: "d",
}

// TypeDirect writes [Direct] values verbatim. It can not be decoded.
var TypeDirect = CodableType{
	Name:   "direct",
	Kind:   KindDirect,
	Encode: encodeDirect,
}

// TypeText encodes text as 'u' <decimal UTF-8 length> ':' <UTF-8 bytes>.
var TypeText = CodableType{
	Name:   "text",
	Kind:   KindText,
	Encode: encodeText,
	Decode: decodeText,
	Tokens: "u",
}

// TypeFloat encodes floats as 'f' <decimal text> 'e'.
var TypeFloat = CodableType{
	Name:   "float",
	Kind:   KindFloat,
	Encode: encodeFloat,
	Decode: decodeFloat,
	Tokens: "f",
}

// TypeNone encodes the null marker as a single 'n'.
var TypeNone = CodableType{
	Name:   "none",
	Kind:   KindNone,
	Encode: encodeNone,
	Decode: decodeNone,
	Tokens: "n",
}

func encodeInt(s *Session, w *bytes.Buffer, v Value) error {
	value, err := valueAs[Int](v)
	if err != nil {
		return err
	}

	w.WriteByte('i')
	w.Write(value.appendText(w.AvailableBuffer()))
	w.WriteByte('e')
	return nil
}

func decodeInt(s *Session, src Source) (Value, error) {
	start := src.Tell()
	if err := src.Skip(1); err != nil {
		return nil, err
	}

	text, err := src.GetUntil('e')
	if err != nil {
		return nil, err
	}

	value, err := parseInt(string(text))
	if err != nil {
		return nil, atOffset(err, start)
	}

	return value, nil
}

func encodeBytes(s *Session, w *bytes.Buffer, v Value) error {
	value, err := valueAs[Bytes](v)
	if err != nil {
		return err
	}

	writeLength(w, len(value))
	w.Write(value)
	return nil
}

func decodeBytes(s *Session, src Source) (Value, error) {
	raw, err := readLengthPrefixed(src, KindBytes)
	if err != nil {
		return nil, err
	}

	return Bytes(bytes.Clone(raw)), nil
}

func encodeText(s *Session, w *bytes.Buffer, v Value) error {
	value, err := valueAs[Text](v)
	if err != nil {
		return err
	}

	if !utf8.ValidString(string(value)) {
		return fmt.Errorf("encode text %s: %w", value, ErrInvalidUTF8)
	}

	w.WriteByte('u')
	writeLength(w, len(value))
	w.WriteString(string(value))
	return nil
}

func decodeText(s *Session, src Source) (Value, error) {
	start := src.Tell()
	if err := src.Skip(1); err != nil {
		return nil, err
	}

	raw, err := readLengthPrefixed(src, KindText)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(raw) {
		return nil, &SyntaxError{Kind: KindText, Offset: start, Err: ErrInvalidUTF8}
	}

	return Text(raw), nil
}

func encodeFloat(s *Session, w *bytes.Buffer, v Value) error {
	value, err := valueAs[Float](v)
	if err != nil {
		return err
	}

	w.WriteByte('f')
	w.Write(value.appendText(w.AvailableBuffer()))
	w.WriteByte('e')
	return nil
}

func decodeFloat(s *Session, src Source) (Value, error) {
	start := src.Tell()
	if err := src.Skip(1); err != nil {
		return nil, err
	}

	text, err := src.GetUntil('e')
	if err != nil {
		return nil, err
	}

	value, err := parseFloat(string(text))
	if err != nil {
		return nil, atOffset(err, start)
	}

	return value, nil
}

func encodeNone(s *Session, w *bytes.Buffer, v Value) error {
	if _, err := valueAs[None](v); err != nil {
		return err
	}

	w.WriteByte('n')
	return nil
}

func decodeNone(s *Session, src Source) (Value, error) {
	if err := src.Skip(1); err != nil {
		return nil, err
	}

	return None{}, nil
}

func encodeList(s *Session, w *bytes.Buffer, v Value) error {
	value, err := valueAs[List](v)
	if err != nil {
		return err
	}

	w.WriteByte('l')
	for idx, item := range value {
		if err := s.Encode(item); err != nil {
			return fmt.Errorf("list element idx=%d: %w", idx, err)
		}
	}
	w.WriteByte('e')

	return nil
}

func decodeList(s *Session, src Source) (Value, error) {
	if err := src.Skip(1); err != nil {
		return nil, err
	}

	items := List{}
	for {
		done, err := src.ConsumeIfPossible(terminator)
		if err != nil {
			return nil, err
		}

		if done {
			return items, nil
		}

		item, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("list element idx=%d: %w", len(items), err)
		}

		items = append(items, item)
	}
}

func encodeDict(s *Session, w *bytes.Buffer, v Value) error {
	value, err := valueAs[*Dict](v)
	if err != nil {
		return err
	}

	if err := s.CheckDictKeys(value); err != nil {
		return err
	}

	w.WriteByte('d')
	for _, entry := range value.Sorted() {
		if err := s.Encode(entry.Key); err != nil {
			return fmt.Errorf("key %s: %w", repr(entry.Key), err)
		}

		if err := s.Encode(entry.Value); err != nil {
			return fmt.Errorf("value for key %s: %w", repr(entry.Key), err)
		}
	}
	w.WriteByte('e')

	return nil
}

func decodeDict(s *Session, src Source) (Value, error) {
	start := src.Tell()
	if err := src.Skip(1); err != nil {
		return nil, err
	}

	dict := &Dict{}

	var previous Value
	for idx := 0; ; idx++ {
		done, err := src.ConsumeIfPossible(terminator)
		if err != nil {
			return nil, err
		}

		if done {
			break
		}

		keyOffset := src.Tell()

		key, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("dict key idx=%d: %w", idx, err)
		}

		// keys must be sorted as raw strings, we tolerate producers that
		// do not follow that rule.
		if previous != nil && compareKeys(key, previous) <= 0 {
			s.warnAt(keyOffset, "Keys must be in order but %s (the last key) and %s (this key) are not.",
				keyRepr(unwrap(previous)), keyRepr(unwrap(key)))
		}

		value, err := s.Decode()
		if err != nil {
			return nil, fmt.Errorf("value for key %s: %w", repr(unwrap(key)), err)
		}

		dict.set(key, value)
		previous = key
	}

	if !s.Decorating() {
		if err := s.CheckDictKeys(dict); err != nil {
			return nil, fmt.Errorf("dict at offset %d: %w", start, err)
		}
	}

	return dict, nil
}

func encodeDirect(s *Session, w *bytes.Buffer, v Value) error {
	value, err := valueAs[Direct](v)
	if err != nil {
		return err
	}

	w.Write(value)
	return nil
}

func writeLength(w *bytes.Buffer, length int) {
	w.Write(strconv.AppendInt(w.AvailableBuffer(), int64(length), 10))
	w.WriteByte(':')
}

// readLengthPrefixed reads a decimal length terminated by ':' and then that many
// raw bytes.
func readLengthPrefixed(src Source, kind Kind) ([]byte, error) {
	start := src.Tell()

	digits, err := src.GetUntil(':')
	if err != nil {
		return nil, err
	}

	length, err := strconv.Atoi(trimSpace(string(digits)))
	if err != nil || length < 0 {
		return nil, &SyntaxError{Kind: kind, Text: string(digits), Offset: start, Err: err}
	}

	return src.Get(length)
}

// valueAs asserts the concrete type of a value handed to an encoder. A custom value
// that claims a builtin kind without being of the builtin type is reported as an
// unknown type.
func valueAs[T Value](v Value) (T, error) {
	value, ok := v.(T)
	if !ok {
		var zero T
		return zero, &UnknownTypeError{Kind: v.Kind(), Repr: repr(v)}
	}

	return value, nil
}

// atOffset sets the offset of a *SyntaxError.
func atOffset(err error, offset int64) error {
	var syntaxErr *SyntaxError
	if errors.As(err, &syntaxErr) {
		syntaxErr.Offset = offset
	}

	return err
}
