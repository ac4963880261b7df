package bencode

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

var ErrUnderrun = errors.New("source exhausted")
var ErrUnrecognizedToken = errors.New("unrecognized token")
var ErrUnknownType = errors.New("unknown type")
var ErrKeyKind = errors.New("invalid dictionary keys")
var ErrSyntax = errors.New("invalid syntax")
var ErrTooDeep = errors.New("nesting too deep")
var ErrNoValue = errors.New("no value")
var ErrNotSupported = errors.New("not supported")

// NotSupportedError is returned if a Go type can not be mapped to or from a value
// tree.
type NotSupportedError struct {
	Type reflect.Type
}

func (n NotSupportedError) Error() string {
	return fmt.Sprintf("type %q is not supported", n.Type)
}

func (n NotSupportedError) Unwrap() error {
	return ErrNotSupported
}

// UnderrunError is returned when a source is exhausted before the requested number
// of bytes could be read.
type UnderrunError struct {
	// Offset at which the read started
	Offset int64

	// Number of bytes requested
	Want int

	// Number of bytes that were still available
	Have int
}

func (u *UnderrunError) Error() string {
	return fmt.Sprintf("read %d bytes at offset %d, only %d available", u.Want, u.Offset, u.Have)
}

func (u *UnderrunError) Unwrap() error {
	return ErrUnderrun
}

// UnrecognizedTokenError is returned by a decode if no decoder is registered for
// the next leading byte.
type UnrecognizedTokenError struct {
	Token  byte
	Offset int64
}

func (u *UnrecognizedTokenError) Error() string {
	return fmt.Sprintf("unrecognized token %q at offset %d", u.Token, u.Offset)
}

func (u *UnrecognizedTokenError) Unwrap() error {
	return ErrUnrecognizedToken
}

// UnknownTypeError is returned by an encode if no encoder is registered for the kind
// of a value.
type UnknownTypeError struct {
	Kind Kind
	Repr string
}

func (u *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type %q: %s", u.Kind, u.Repr)
}

func (u *UnknownTypeError) Unwrap() error {
	return ErrUnknownType
}

// KeyKindError is returned if the keys of a dictionary do not share a single kind,
// or if that kind is not a permissible key kind of the codec.
type KeyKindError struct {
	// Distinct kinds of the keys found in the dictionary
	Kinds []Kind

	// Permissible key kinds of the codec
	Permitted []Kind
}

func (k *KeyKindError) Error() string {
	if len(k.Kinds) > 1 {
		return fmt.Sprintf("all keys must be of the same kind, got %s", joinKinds(k.Kinds))
	}

	return fmt.Sprintf("keys must be of kind %s, got %s", joinKinds(k.Permitted), joinKinds(k.Kinds))
}

func (k *KeyKindError) Unwrap() error {
	return ErrKeyKind
}

// SyntaxError is returned if the text of an integer, float or length token can not
// be parsed.
type SyntaxError struct {
	Kind   Kind
	Text   string
	Offset int64
	Err    error
}

func (s *SyntaxError) Error() string {
	msg := fmt.Sprintf("parse %s %q at offset %d", s.Kind, s.Text, s.Offset)
	if s.Err != nil {
		msg += ": " + s.Err.Error()
	}

	return msg
}

func (s *SyntaxError) Unwrap() []error {
	if s.Err != nil {
		return []error{ErrSyntax, s.Err}
	}

	return []error{ErrSyntax}
}

func joinKinds(kinds []Kind) string {
	names := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		names = append(names, string(kind))
	}

	slices.Sort(names)
	return "[" + strings.Join(names, ", ") + "]"
}
