package bencode

// None is the null marker. It is an extension to the bencode format and only
// available if the codec was created with [WithNone].
type None struct{}

var _ Value = None{}

func (None) Kind() Kind {
	return KindNone
}

func (None) String() string {
	return "None"
}
