package bencode

import (
	"bytes"
)

// EncodeFunc writes the framing and payload of v to w. Nested values are encoded by
// calling back into [Session.Encode].
type EncodeFunc func(s *Session, w *bytes.Buffer, v Value) error

// DecodeFunc reads a single value from src. The leading byte of the value has been
// peeked, but not consumed. Nested values are decoded by calling back into
// [Session.Decode].
type DecodeFunc func(s *Session, src Source) (Value, error)

// CodableType describes how one kind of value is encoded and decoded. A [Codec]
// builds its dispatch tables from a list of CodableTypes at construction. Optional
// variants are enabled purely by registering their CodableType, the traversal in
// [Session] never changes.
type CodableType struct {
	// Name of the type, for diagnostics
	Name string

	// The kind of value this type encodes
	Kind Kind

	Encode EncodeFunc

	// Decode is nil for encode-only types like Direct
	Decode DecodeFunc

	// Leading bytes this type decodes from. A single marker byte for most types,
	// all decimal digits for length prefixed byte strings.
	Tokens string
}

// registry holds the two dispatch tables of a codec. It is immutable after
// construction and can be shared between any number of sessions.
type registry struct {
	encoders map[Kind]EncodeFunc
	decoders [256]DecodeFunc
}

func newRegistry(types []CodableType) *registry {
	r := &registry{encoders: map[Kind]EncodeFunc{}}
	for _, ty := range types {
		r.register(ty)
	}

	return r
}

// register adds ty to the tables. Later registrations replace earlier ones for the
// same kind or leading byte.
func (r *registry) register(ty CodableType) {
	if ty.Encode != nil {
		r.encoders[ty.Kind] = ty.Encode
	}

	if ty.Decode == nil {
		return
	}

	for idx := 0; idx < len(ty.Tokens); idx++ {
		r.decoders[ty.Tokens[idx]] = ty.Decode
	}
}

func (r *registry) encoder(kind Kind) (EncodeFunc, bool) {
	encode, ok := r.encoders[kind]
	return encode, ok
}

func (r *registry) decoder(token byte) (DecodeFunc, bool) {
	decode := r.decoders[token]
	return decode, decode != nil
}
