package bencode

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"
)

// Codec is a configured bencode encoder and decoder. The configuration is captured at
// construction and never changes afterwards, so a Codec can be shared between
// goroutines. Every call to one of its methods runs in its own [Session].
type Codec struct {
	registry *registry

	// permissible dictionary key kinds
	keyKinds []Kind

	decorate bool
	maxDepth int

	logger *zap.Logger

	// maps Go values to and from value trees
	mapper *mapper
}

type options struct {
	text, float, none bool

	decorate bool
	maxDepth int

	keyKinds []Kind
	types     []CodableType
	logger    *zap.Logger
	structTag string
}

// Option configures a [Codec].
type Option func(*options)

// WithText enables the unicode text extension, see [Text].
func WithText() Option {
	return func(o *options) { o.text = true }
}

// WithFloat enables the float extension, see [Float].
func WithFloat() Option {
	return func(o *options) { o.float = true }
}

// WithNone enables the null extension, see [None].
func WithNone() Option {
	return func(o *options) { o.none = true }
}

// WithDecoration wraps every decoded value into a [Decorated] holding its byte span.
// Dictionary key kinds are not validated on decode in this mode, as the keys are
// decorated themselves. Encoding is not affected.
func WithDecoration() Option {
	return func(o *options) { o.decorate = true }
}

// WithKeyKinds sets the permissible kinds of dictionary keys. Defaults to
// [KindBytes] only.
func WithKeyKinds(kinds ...Kind) Option {
	return func(o *options) { o.keyKinds = slices.Clone(kinds) }
}

// WithMaxDepth limits the nesting depth of decoded values. Input nested deeper fails
// with [ErrTooDeep]. A limit of zero, the default, means no limit.
func WithMaxDepth(depth int) Option {
	return func(o *options) { o.maxDepth = depth }
}

// WithTypes registers additional codable types. They are registered after the
// builtin types and replace them for the same kind or leading byte.
func WithTypes(types ...CodableType) Option {
	return func(o *options) { o.types = append(o.types, types...) }
}

// WithLogger sets a logger that receives decode warnings at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStructTag sets the struct tag consulted by [Codec.Marshal] and
// [Codec.Unmarshal]. Defaults to "bencode".
func WithStructTag(tag string) Option {
	return func(o *options) { o.structTag = tag }
}

// New creates a codec. Without options it reproduces the strict form of the format:
// integers, byte strings, lists and dictionaries with byte string keys.
func New(opts ...Option) *Codec {
	o := options{keyKinds: []Kind{KindBytes}, structTag: defaultTag}
	for _, opt := range opts {
		opt(&o)
	}

	types := []CodableType{TypeDirect, TypeList, TypeBytes, TypeInt, TypeDict}

	if o.text {
		types = append(types, TypeText)
	}

	if o.float {
		types = append(types, TypeFloat)
	}

	if o.none {
		types = append(types, TypeNone)
	}

	types = append(types, o.types...)

	logger := o.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Codec{
		registry: newRegistry(types),
		keyKinds: o.keyKinds,
		decorate: o.decorate,
		maxDepth: o.maxDepth,
		logger:   logger,
		mapper:   mapperFor(o.structTag),
	}
}

// Strict returns a codec for the strict form of the format. Same as New().
func Strict() *Codec {
	return New()
}

// Extended returns a codec with all extensions enabled and integer, byte string and
// text dictionary keys permitted. Additional options are applied afterwards.
func Extended(opts ...Option) *Codec {
	defaults := []Option{
		WithText(),
		WithFloat(),
		WithNone(),
		WithKeyKinds(KindInt, KindBytes, KindText),
	}

	return New(append(defaults, opts...)...)
}

// Decorating reports whether the codec decorates decoded values.
func (c *Codec) Decorating() bool {
	return c.decorate
}

// KeyKinds returns the permissible kinds of dictionary keys.
func (c *Codec) KeyKinds() []Kind {
	return slices.Clone(c.keyKinds)
}

func (c *Codec) permitsKey(kind Kind) bool {
	return slices.Contains(c.keyKinds, kind)
}

// Encode returns the canonical encoding of v.
func (c *Codec) Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer

	session := &Session{codec: c, out: &buf}
	if err := session.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// EncodeTo writes the canonical encoding of v to w. Nothing is written if the
// encoding fails.
func (c *Codec) EncodeTo(w io.Writer, v Value) error {
	encoded, err := c.Encode(v)
	if err != nil {
		return err
	}

	if _, err := w.Write(encoded); err != nil {
		return fmt.Errorf("write encoded value: %w", err)
	}

	return nil
}

// Decode decodes a single value from data. Warnings are discarded.
func (c *Codec) Decode(data []byte) (Value, error) {
	value, _, err := c.DecodeWithWarnings(data)
	return value, err
}

// DecodeWithWarnings decodes a single value from data and returns it together with
// the warnings recorded while decoding, e.g. for dictionary keys out of order.
// Bytes following the value are reported as a warning too.
func (c *Codec) DecodeWithWarnings(data []byte) (Value, []string, error) {
	return c.DecodeSource(NewBytesSource(data))
}

// DecodeFrom decodes a single value from r. Offsets of decorated values count from
// the first byte read from r. One byte past the value is read to detect trailing
// data, use [Codec.NewSession] to decode consecutive values from a stream.
func (c *Codec) DecodeFrom(r io.Reader) (Value, []string, error) {
	return c.DecodeSource(NewReaderSource(r))
}

// NewSession starts a decode session on src. Unlike [Codec.DecodeSource], a session
// can decode any number of consecutive values from the same source.
func (c *Codec) NewSession(src Source) *Session {
	return &Session{codec: c, src: src}
}

// DecodeSource decodes a single value from src. Data left in src after the value is
// reported as a warning.
func (c *Codec) DecodeSource(src Source) (Value, []string, error) {
	session := c.NewSession(src)

	value, err := session.Decode()
	if err != nil {
		return nil, nil, err
	}

	if remaining, ok := src.(interface{ Remaining() int }); ok {
		if remaining.Remaining() > 0 {
			session.Warnf("%d bytes of trailing data after offset %d", remaining.Remaining(), src.Tell())
		}
	} else if _, err := src.Peek(1); err == nil {
		session.Warnf("trailing data after offset %d", src.Tell())
	}

	return value, session.warnings, nil
}
