package bencode

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"slices"
)

// ValueOf converts a Go value into a value tree, using the default "bencode" struct
// tag.
//
// Strings, []byte, byte arrays and [encoding.TextMarshaler] implementations become
// byte strings, integers, bools and big.Int become integers, floats become floats,
// slices and arrays become lists, maps and structs become dictionaries. Values that
// already implement [Value] are used as is. Nil pointers and interfaces become
// [None], except for struct fields, which are left out. Struct fields tagged with
// omitempty are left out if they hold their empty value.
func ValueOf(v any) (Value, error) {
	return mapperFor(defaultTag).valueOf(reflect.ValueOf(v))
}

// Marshal returns the encoding of v using a [Strict] codec. See [ValueOf].
func Marshal(v any) ([]byte, error) {
	return Strict().Marshal(v)
}

// Marshal returns the encoding of v. See [ValueOf].
func (c *Codec) Marshal(v any) ([]byte, error) {
	value, err := c.mapper.valueOf(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}

	return c.Encode(value)
}

func (m *mapper) valueOf(v reflect.Value) (Value, error) {
	if !v.IsValid() {
		return None{}, nil
	}

	getter, err := m.getterOf(typeSet{}, v.Type())
	if err != nil {
		return nil, err
	}

	value, err := getter(v)
	if err != nil {
		return nil, err
	}

	if value == nil {
		return None{}, nil
	}

	return value, nil
}

func (m *mapper) getterOf(inConstruction typeSet, ty reflect.Type) (getter, error) {
	if cached, ok := m.getterCache.Load(ty); ok {
		return cached.(getter), nil
	}

	if _, ok := inConstruction[ty]; ok {
		lazyGetter := func(v reflect.Value) (Value, error) {
			cached, _ := m.getterCache.Load(ty)
			return cached.(getter)(v)
		}

		return lazyGetter, nil
	}

	inConstruction[ty] = struct{}{}

	getter, err := m.makeGetterOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	m.getterCache.Store(ty, getter)

	return getter, nil
}

func (m *mapper) makeGetterOf(inConstruction typeSet, ty reflect.Type) (getter, error) {
	switch {
	case ty.Kind() != reflect.Interface && ty.Implements(tyValue):
		return getValue, nil

	case ty == tyBigInt:
		return getBigInt, nil

	case ty.Kind() != reflect.Pointer && ty.Kind() != reflect.Interface && ty.Implements(tyTextMarshaler):
		return getTextMarshaler, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return getBool, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return getInt, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return getUint, nil

	case reflect.Float32, reflect.Float64:
		return getFloat, nil

	case reflect.String:
		return getString, nil

	case reflect.Interface:
		return m.getInterface, nil

	case reflect.Pointer:
		return m.makeGetPointer(inConstruction, ty)

	case reflect.Struct:
		return m.makeGetStruct(inConstruction, ty)

	case reflect.Slice, reflect.Array:
		if ty.Elem().Kind() == reflect.Uint8 {
			return getBytes, nil
		}

		return m.makeGetList(inConstruction, ty)

	case reflect.Map:
		return m.makeGetMap(inConstruction, ty)

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

func (m *mapper) makeGetPointer(inConstruction typeSet, ty reflect.Type) (getter, error) {
	// *big.Int marshals to text, but must become an integer
	if ty.Elem() != tyBigInt && ty.Implements(tyTextMarshaler) {
		return func(v reflect.Value) (Value, error) {
			if v.IsNil() {
				return nil, nil
			}

			return getTextMarshaler(v)
		}, nil
	}

	pointeeGetter, err := m.getterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, err
	}

	return func(v reflect.Value) (Value, error) {
		if v.IsNil() {
			return nil, nil
		}

		return pointeeGetter(v.Elem())
	}, nil
}

func (m *mapper) getInterface(v reflect.Value) (Value, error) {
	if v.IsNil() {
		return nil, nil
	}

	// the dynamic type is only known now
	return m.valueOf(v.Elem())
}

func (m *mapper) makeGetStruct(inConstruction typeSet, ty reflect.Type) (getter, error) {
	var getters []getter

	fields := fieldsOf(ty, m.structTag)

	for _, field := range fields {
		ge, err := m.getterOf(inConstruction, field.Type)
		if err != nil {
			return nil, fmt.Errorf("getter for field %q: %w", field.Name, err)
		}

		getters = append(getters, ge)
	}

	getter := func(v reflect.Value) (Value, error) {
		dict := &Dict{}

		for idx, field := range fields {
			fieldValue := v.FieldByIndex(field.Index)
			if field.OmitEmpty && fieldValue.IsZero() {
				continue
			}

			value, err := getters[idx](fieldValue)
			if err != nil {
				return nil, fmt.Errorf("get field %q on %q: %w", field.Name, v.Type(), err)
			}

			if value == nil {
				// nil pointers and interfaces are left out
				continue
			}

			dict.set(Bytes(field.Name), value)
		}

		return dict, nil
	}

	return getter, nil
}

func (m *mapper) makeGetMap(inConstruction typeSet, ty reflect.Type) (getter, error) {
	keyGetter, err := m.getterOf(inConstruction, ty.Key())
	if err != nil {
		return nil, fmt.Errorf("getter for key type %q: %w", ty, err)
	}

	valueGetter, err := m.getterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("getter for value type %q: %w", ty, err)
	}

	getter := func(v reflect.Value) (Value, error) {
		if v.IsNil() {
			return nil, nil
		}

		dict := &Dict{}

		iter := v.MapRange()
		for iter.Next() {
			key, err := keyGetter(iter.Key())
			if err != nil {
				return nil, fmt.Errorf("get key %v: %w", iter.Key(), err)
			}

			value, err := valueGetter(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("get value for key %v: %w", iter.Key(), err)
			}

			dict.set(key, orNone(value))
		}

		// map iteration order is random, keep the entries in key order so that
		// iterating a marshalled dictionary is deterministic
		slices.SortFunc(dict.entries, func(a, b DictEntry) int {
			return compareKeys(a.Key, b.Key)
		})

		for idx, entry := range dict.entries {
			dict.index[keyID(entry.Key)] = idx
		}

		return dict, nil
	}

	return getter, nil
}

func (m *mapper) makeGetList(inConstruction typeSet, ty reflect.Type) (getter, error) {
	elementGetter, err := m.getterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("getter for element type %q: %w", ty, err)
	}

	getter := func(v reflect.Value) (Value, error) {
		if v.Kind() == reflect.Slice && v.IsNil() {
			return List{}, nil
		}

		list := make(List, v.Len())
		for idx := range list {
			value, err := elementGetter(v.Index(idx))
			if err != nil {
				return nil, fmt.Errorf("get element idx=%d: %w", idx, err)
			}

			list[idx] = orNone(value)
		}

		return list, nil
	}

	return getter, nil
}

func getValue(v reflect.Value) (Value, error) {
	return v.Interface().(Value), nil
}

func getBigInt(v reflect.Value) (Value, error) {
	value := v.Interface().(big.Int)
	return NewBigInt(&value), nil
}

func getTextMarshaler(v reflect.Value) (Value, error) {
	text, err := v.Interface().(interface{ MarshalText() ([]byte, error) }).MarshalText()
	if err != nil {
		return nil, fmt.Errorf("marshal text of %s: %w", v.Type(), err)
	}

	return Bytes(text), nil
}

func getBool(v reflect.Value) (Value, error) {
	if v.Bool() {
		return NewInt(1), nil
	}

	return NewInt(0), nil
}

func getInt(v reflect.Value) (Value, error) {
	return NewInt(v.Int()), nil
}

func getUint(v reflect.Value) (Value, error) {
	return NewUint(v.Uint()), nil
}

func getFloat(v reflect.Value) (Value, error) {
	return Float(v.Float()), nil
}

func getString(v reflect.Value) (Value, error) {
	return Bytes(v.String()), nil
}

func getBytes(v reflect.Value) (Value, error) {
	if v.Kind() == reflect.Array {
		raw := make([]byte, v.Len())
		reflect.Copy(reflect.ValueOf(raw), v)
		return Bytes(raw), nil
	}

	return Bytes(bytes.Clone(v.Bytes())), nil
}

func orNone(v Value) Value {
	if v == nil {
		return None{}
	}

	return v
}
