package bencode

import (
	"bytes"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

// Session is a single encode or decode invocation of a [Codec]. It owns the source
// (decode) or output buffer (encode) of the call, collects warnings and tracks the
// nesting depth. A Session must not be shared between goroutines. [CodableType]
// implementations receive the session to recurse into nested values.
type Session struct {
	codec *Codec

	// input of a decode session
	src Source

	// output of an encode session
	out *bytes.Buffer

	warnings []string
	depth    int
}

// Decode reads the next value from the source. If the codec decorates, the value is
// wrapped into a [Decorated] holding the byte span it occupied.
func (s *Session) Decode() (Value, error) {
	start := s.src.Tell()

	if s.codec.maxDepth > 0 && s.depth >= s.codec.maxDepth {
		return nil, fmt.Errorf("decode at offset %d: %w", start, ErrTooDeep)
	}

	s.depth++
	defer func() { s.depth-- }()

	token, err := s.src.Peek(1)
	if err != nil {
		return nil, err
	}

	decode, ok := s.codec.registry.decoder(token[0])
	if !ok {
		return nil, &UnrecognizedTokenError{Token: token[0], Offset: start}
	}

	value, err := decode(s, s.src)
	if err != nil {
		return nil, err
	}

	if s.codec.decorate {
		return Decorated{Start: start, End: s.src.Tell(), Value: value}, nil
	}

	return value, nil
}

// Encode writes v to the output of the session.
func (s *Session) Encode(v Value) error {
	if v == nil {
		return &UnknownTypeError{Repr: repr(v)}
	}

	encode, ok := s.codec.registry.encoder(v.Kind())
	if !ok {
		return &UnknownTypeError{Kind: v.Kind(), Repr: repr(v)}
	}

	return encode(s, s.out, v)
}

// Decorating reports whether decoded values are wrapped into [Decorated].
func (s *Session) Decorating() bool {
	return s.codec.decorate
}

// Warnf records a non-fatal diagnostic. Warnings are returned together with the
// decoded value.
func (s *Session) Warnf(format string, args ...any) {
	var offset int64
	if s.src != nil {
		offset = s.src.Tell()
	}

	s.warnAt(offset, format, args...)
}

func (s *Session) warnAt(offset int64, format string, args ...any) {
	warning := fmt.Sprintf(format, args...)
	s.warnings = append(s.warnings, warning)

	s.codec.logger.Debug("decode warning",
		zap.Int64("offset", offset),
		zap.String("warning", warning),
	)
}

// Warnings returns the warnings recorded so far.
func (s *Session) Warnings() []string {
	return slices.Clone(s.warnings)
}

// CheckDictKeys verifies that all keys of d share a single kind and that this kind is
// one of the permissible key kinds of the codec. An empty dictionary is always valid.
func (s *Session) CheckDictKeys(d *Dict) error {
	var kinds []Kind
	for key := range d.Keys() {
		kind := Kind("")
		if key != nil {
			kind = key.Kind()
		}

		if !slices.Contains(kinds, kind) {
			kinds = append(kinds, kind)
		}
	}

	switch {
	case len(kinds) == 0:
		return nil

	case len(kinds) > 1, !s.codec.permitsKey(kinds[0]):
		return &KeyKindError{Kinds: kinds, Permitted: slices.Clone(s.codec.keyKinds)}

	default:
		return nil
	}
}
