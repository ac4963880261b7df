package bencode

import (
	"bytes"
	"cmp"
	"iter"
	"slices"
	"strings"
)

// DictEntry is a single key/value pair of a [Dict].
type DictEntry struct {
	Key   Value
	Value Value
}

// Dict is a mapping of unique keys to values. The order in which entries were added
// carries no meaning: a dictionary is always encoded in canonical key order.
//
// Keys are identified by their undecorated value, so a lookup with a plain key also
// finds the matching key of a decorated dictionary. Adding an entry for an existing
// key replaces its value. A nil *Dict is an empty dictionary.
type Dict struct {
	entries []DictEntry

	// index into entries by key identity
	index map[string]int
}

var _ Value = (*Dict)(nil)

// NewDict returns a dictionary holding the given entries. If a key appears more than
// once, the last entry wins.
func NewDict(entries ...DictEntry) *Dict {
	d := &Dict{}
	for _, entry := range entries {
		d.set(entry.Key, entry.Value)
	}

	return d
}

// DictOf returns a dictionary with [Bytes] keys built from a Go map.
func DictOf(values map[string]Value) *Dict {
	d := &Dict{}
	for key, value := range values {
		d.set(Bytes(key), value)
	}

	return d
}

func (d *Dict) Kind() Kind {
	return KindDict
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}

	return len(d.entries)
}

// Get returns the value stored for key.
func (d *Dict) Get(key Value) (Value, bool) {
	if d == nil {
		return nil, false
	}

	idx, ok := d.index[keyID(key)]
	if !ok {
		return nil, false
	}

	return d.entries[idx].Value, true
}

// Lookup returns the value stored for a [Bytes] or [Text] key equal to key.
func (d *Dict) Lookup(key string) (Value, bool) {
	if value, ok := d.Get(Bytes(key)); ok {
		return value, true
	}

	return d.Get(Text(key))
}

// With returns a copy of the dictionary with key set to value. The receiver is not
// modified.
func (d *Dict) With(key, value Value) *Dict {
	result := &Dict{}
	for _, entry := range d.Entries() {
		result.set(entry.Key, entry.Value)
	}

	result.set(key, value)
	return result
}

// All iterates over the entries in the order they were added. For a decoded
// dictionary this is the order of the keys on the wire.
func (d *Dict) All() iter.Seq2[Value, Value] {
	return func(yield func(Value, Value) bool) {
		for _, entry := range d.Entries() {
			if !yield(entry.Key, entry.Value) {
				return
			}
		}
	}
}

// Keys iterates over the keys in the order they were added.
func (d *Dict) Keys() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, entry := range d.Entries() {
			if !yield(entry.Key) {
				return
			}
		}
	}
}

// Entries returns the entries in the order they were added. The returned slice must
// not be modified.
func (d *Dict) Entries() []DictEntry {
	if d == nil {
		return nil
	}

	return d.entries
}

// Sorted returns a copy of the entries in canonical key order.
func (d *Dict) Sorted() []DictEntry {
	sorted := slices.Clone(d.Entries())
	slices.SortStableFunc(sorted, func(a, b DictEntry) int {
		return compareKeys(a.Key, b.Key)
	})

	return sorted
}

func (d *Dict) String() string {
	var sb strings.Builder

	sb.WriteByte('{')
	for idx, entry := range d.Entries() {
		if idx > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(repr(entry.Key))
		sb.WriteString(": ")
		sb.WriteString(repr(entry.Value))
	}
	sb.WriteByte('}')

	return sb.String()
}

// set adds or replaces an entry. Only used while a dictionary is being built.
func (d *Dict) set(key, value Value) {
	if d.index == nil {
		d.index = map[string]int{}
	}

	id := keyID(key)
	if idx, ok := d.index[id]; ok {
		d.entries[idx] = DictEntry{Key: key, Value: value}
		return
	}

	d.index[id] = len(d.entries)
	d.entries = append(d.entries, DictEntry{Key: key, Value: value})
}

// keyID derives the identity of a dictionary key. Keys of different kinds are
// never identical.
func keyID(key Value) string {
	switch key := unwrap(key).(type) {
	case nil:
		return ""
	case Bytes:
		return "b:" + string(key)
	case Text:
		return "t:" + string(key)
	case Int:
		return "i:" + key.String()
	case Float:
		return "f:" + key.String()
	default:
		return string(key.Kind()) + ":" + repr(key)
	}
}

// compareKeys orders two dictionary keys. Byte strings and text compare by their
// raw (UTF-8) bytes, integers and floats numerically. Keys of different kinds order
// by the name of their kind.
func compareKeys(a, b Value) int {
	a, b = unwrap(a), unwrap(b)

	if a == nil || b == nil {
		return strings.Compare(keyID(a), keyID(b))
	}

	if a.Kind() != b.Kind() {
		return strings.Compare(string(a.Kind()), string(b.Kind()))
	}

	switch a := a.(type) {
	case Bytes:
		return bytes.Compare(a, b.(Bytes))
	case Text:
		return strings.Compare(string(a), string(b.(Text)))
	case Int:
		return a.Cmp(b.(Int))
	case Float:
		return cmp.Compare(float64(a), float64(b.(Float)))
	default:
		return strings.Compare(keyID(a), keyID(b))
	}
}
