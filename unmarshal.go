package bencode

import (
	"encoding"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/exp/constraints"
)

// UnmarshalValue stores a decoded value tree in the Go value target points to, using
// the default "bencode" struct tag. Decoration is ignored.
//
// Dictionaries map to structs (by field name or tag) and maps, lists to slices and
// arrays, byte strings and text to strings, []byte, byte arrays and
// [encoding.TextUnmarshaler] implementations, integers to all integer kinds, bool
// and big.Int, floats to float kinds. Targets of type [Value] receive the value tree
// as is, targets of type any receive plain Go values.
func UnmarshalValue(v Value, target any) error {
	return mapperFor(defaultTag).unmarshal(v, target)
}

// Unmarshal decodes data with an [Extended] codec and stores the result in the Go
// value target points to. See [UnmarshalValue].
func Unmarshal(data []byte, target any) error {
	return Extended().Unmarshal(data, target)
}

// Unmarshal decodes data and stores the result in the Go value target points to.
// See [UnmarshalValue].
func (c *Codec) Unmarshal(data []byte, target any) error {
	value, err := c.Decode(data)
	if err != nil {
		return err
	}

	return c.mapper.unmarshal(value, target)
}

// A setter sets the reflect.Value to the value extracted from the given Value
type setter func(Value, reflect.Value) error

// A getter converts a Go value into a Value
type getter func(reflect.Value) (Value, error)

// A set of types that are currently in construction
type typeSet map[reflect.Type]struct{}

const defaultTag = "bencode"

var (
	tyTextUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
	tyTextMarshaler   = reflect.TypeFor[encoding.TextMarshaler]()
	tyValue           = reflect.TypeFor[Value]()
	tyBigInt          = reflect.TypeFor[big.Int]()
)

// mapper converts between Go values and value trees. Setters and getters are built
// once per type and cached.
type mapper struct {
	// the struct tag that is used
	structTag string

	// Cache for setters, indexed by reflect.Type
	setterCache sync.Map

	// Cache for getters, indexed by reflect.Type
	getterCache sync.Map
}

// mappers by struct tag
var mappers sync.Map

func mapperFor(structTag string) *mapper {
	if cached, ok := mappers.Load(structTag); ok {
		return cached.(*mapper)
	}

	cached, _ := mappers.LoadOrStore(structTag, &mapper{structTag: structTag})
	return cached.(*mapper)
}

func (m *mapper) unmarshal(v Value, target any) error {
	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Pointer || targetValue.IsNil() {
		return fmt.Errorf("unmarshal into %T: %w", target, ErrNotSupported)
	}

	// build the setter for the targets type
	setter, err := m.setterOf(typeSet{}, targetValue.Type().Elem())
	if err != nil {
		return err
	}

	return setter(Undecorate(v), targetValue.Elem())
}

func (m *mapper) setterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	if cached, ok := m.setterCache.Load(ty); ok {
		return cached.(setter), nil
	}

	if _, ok := inConstruction[ty]; ok {
		// detected a cycle. return a setter that does a cache lookup when executed.
		// we assume that the actual setter will be in the cache once this setter is executed.
		lazySetter := func(source Value, target reflect.Value) error {
			cached, _ := m.setterCache.Load(ty)
			return cached.(setter)(source, target)
		}

		return lazySetter, nil
	}

	inConstruction[ty] = struct{}{}

	setter, err := m.makeSetterOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	m.setterCache.Store(ty, setter)

	return setter, nil
}

func (m *mapper) makeSetterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	switch {
	case ty == tyValue:
		return setValue, nil

	case ty.Kind() != reflect.Interface && ty.Implements(tyValue):
		return setConcreteValue, nil

	case ty == tyBigInt:
		return setBigInt, nil

	case reflect.PointerTo(ty).Implements(tyTextUnmarshaler):
		return setTextUnmarshaler, nil
	}

	switch ty.Kind() {
	case reflect.Bool:
		return setBool, nil

	case reflect.Int:
		return makeSetInt(Int.Int64, reflect.Value.SetInt, math.MinInt, math.MaxInt), nil

	case reflect.Int8:
		return makeSetInt(Int.Int64, reflect.Value.SetInt, math.MinInt8, math.MaxInt8), nil

	case reflect.Int16:
		return makeSetInt(Int.Int64, reflect.Value.SetInt, math.MinInt16, math.MaxInt16), nil

	case reflect.Int32:
		return makeSetInt(Int.Int64, reflect.Value.SetInt, math.MinInt32, math.MaxInt32), nil

	case reflect.Int64:
		return makeSetInt(Int.Int64, reflect.Value.SetInt, math.MinInt64, math.MaxInt64), nil

	case reflect.Uint, reflect.Uintptr:
		return makeSetInt(Int.Uint64, reflect.Value.SetUint, 0, math.MaxUint), nil

	case reflect.Uint8:
		return makeSetInt(Int.Uint64, reflect.Value.SetUint, 0, math.MaxUint8), nil

	case reflect.Uint16:
		return makeSetInt(Int.Uint64, reflect.Value.SetUint, 0, math.MaxUint16), nil

	case reflect.Uint32:
		return makeSetInt(Int.Uint64, reflect.Value.SetUint, 0, math.MaxUint32), nil

	case reflect.Uint64:
		return makeSetInt(Int.Uint64, reflect.Value.SetUint, 0, math.MaxUint64), nil

	case reflect.Float32, reflect.Float64:
		return setFloat, nil

	case reflect.String:
		return setString, nil

	case reflect.Interface:
		if ty.NumMethod() == 0 {
			return setAny, nil
		}

		return nil, NotSupportedError{Type: ty}

	case reflect.Pointer:
		return m.makeSetPointer(inConstruction, ty)

	case reflect.Struct:
		return m.makeSetStruct(inConstruction, ty)

	case reflect.Slice:
		if ty.Elem().Kind() == reflect.Uint8 {
			return setByteSlice, nil
		}

		return m.makeSetSlice(inConstruction, ty)

	case reflect.Array:
		if ty.Elem().Kind() == reflect.Uint8 {
			return setByteArray, nil
		}

		return m.makeSetArray(inConstruction, ty)

	case reflect.Map:
		return m.makeSetMap(inConstruction, ty)

	default:
		return nil, NotSupportedError{Type: ty}
	}
}

func (m *mapper) makeSetStruct(inConstruction typeSet, ty reflect.Type) (setter, error) {
	var setters []setter

	fields := fieldsOf(ty, m.structTag)

	for _, field := range fields {
		de, err := m.setterOf(inConstruction, field.Type)
		if err != nil {
			return nil, fmt.Errorf("setter for field %q: %w", field.Name, err)
		}

		setters = append(setters, de)
	}

	setter := func(source Value, target reflect.Value) error {
		dict, ok := source.(*Dict)
		if !ok {
			return mismatch(source, target.Type())
		}

		for idx, field := range fields {
			fieldSource, ok := dict.Lookup(field.Name)
			if !ok {
				// It is okay to not get a value at all,
				// in that case we just skip the field
				continue
			}

			fieldValue := target.FieldByIndex(field.Index)
			if err := setters[idx](fieldSource, fieldValue); err != nil {
				return fmt.Errorf("set field %q on %q: %w", field.Name, target.Type(), err)
			}
		}

		return nil
	}

	return setter, nil
}

func (m *mapper) makeSetMap(inConstruction typeSet, ty reflect.Type) (setter, error) {
	keySetter, err := m.setterOf(inConstruction, ty.Key())
	if err != nil {
		return nil, fmt.Errorf("setter for key type %q: %w", ty, err)
	}

	valueSetter, err := m.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for value type %q: %w", ty, err)
	}

	keyType := ty.Key()
	valueType := ty.Elem()

	setter := func(source Value, target reflect.Value) error {
		dict, ok := source.(*Dict)
		if !ok {
			return mismatch(source, target.Type())
		}

		mapTarget := reflect.MakeMapWithSize(ty, dict.Len())

		for keySource, valueSource := range dict.All() {
			keyTarget := reflect.New(keyType).Elem()
			if err := keySetter(keySource, keyTarget); err != nil {
				return fmt.Errorf("set key %s: %w", keySource, err)
			}

			valueTarget := reflect.New(valueType).Elem()
			if err := valueSetter(valueSource, valueTarget); err != nil {
				return fmt.Errorf("set value for key %s: %w", keySource, err)
			}

			mapTarget.SetMapIndex(keyTarget, valueTarget)
		}

		target.Set(mapTarget)

		return nil
	}

	return setter, nil
}

func (m *mapper) makeSetSlice(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := m.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	setter := func(source Value, target reflect.Value) error {
		list, ok := source.(List)
		if !ok {
			return mismatch(source, target.Type())
		}

		sliceTarget := reflect.MakeSlice(ty, len(list), len(list))

		for idx, elementSource := range list {
			if err := elementSetter(elementSource, sliceTarget.Index(idx)); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		target.Set(sliceTarget)

		return nil
	}

	return setter, nil
}

func (m *mapper) makeSetArray(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := m.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// number of elements in the array
	elementCount := ty.Len()

	setter := func(source Value, target reflect.Value) error {
		list, ok := source.(List)
		if !ok {
			return mismatch(source, target.Type())
		}

		for idx := range min(len(list), elementCount) {
			if err := elementSetter(list[idx], target.Index(idx)); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (m *mapper) makeSetPointer(inConstruction typeSet, ty reflect.Type) (setter, error) {
	pointeeType := ty.Elem()

	pointeeSetter, err := m.setterOf(inConstruction, pointeeType)
	if err != nil {
		return nil, err
	}

	setter := func(source Value, target reflect.Value) error {
		if _, ok := source.(None); ok {
			target.SetZero()
			return nil
		}

		// newValue is now a pointer to an instance of the pointeeType
		newValue := reflect.New(pointeeType)
		if err := pointeeSetter(source, newValue.Elem()); err != nil {
			return err
		}

		// set pointer to the new value
		target.Set(newValue)

		return nil
	}

	return setter, err
}

func setValue(source Value, target reflect.Value) error {
	if source == nil {
		target.SetZero()
		return nil
	}

	target.Set(reflect.ValueOf(source))
	return nil
}

func setConcreteValue(source Value, target reflect.Value) error {
	sourceValue := reflect.ValueOf(source)
	if source == nil || !sourceValue.Type().AssignableTo(target.Type()) {
		return mismatch(source, target.Type())
	}

	target.Set(sourceValue)
	return nil
}

func setAny(source Value, target reflect.Value) error {
	native, err := Native(source)
	if err != nil {
		return err
	}

	if native == nil {
		target.SetZero()
		return nil
	}

	target.Set(reflect.ValueOf(native))
	return nil
}

func setBool(source Value, target reflect.Value) error {
	intValue, ok := source.(Int)
	if !ok {
		return mismatch(source, target.Type())
	}

	target.SetBool(intValue.Sign() != 0)
	return nil
}

func makeSetInt[V constraints.Integer](
	extract func(Int) (V, bool),
	setValue func(reflect.Value, V),
	minValue, maxValue V,
) setter {
	return func(source Value, target reflect.Value) error {
		intValue, ok := source.(Int)
		if !ok {
			return mismatch(source, target.Type())
		}

		value, ok := extract(intValue)
		if !ok || value < minValue || value > maxValue {
			return fmt.Errorf("invalid %s value %s: %w", target.Type(), intValue, strconv.ErrRange)
		}

		setValue(target, value)
		return nil
	}
}

func setBigInt(source Value, target reflect.Value) error {
	intValue, ok := source.(Int)
	if !ok {
		return mismatch(source, target.Type())
	}

	target.Set(reflect.ValueOf(intValue.Big()).Elem())
	return nil
}

func setFloat(source Value, target reflect.Value) error {
	switch source := source.(type) {
	case Float:
		target.SetFloat(float64(source))
		return nil

	case Int:
		floatValue, _ := new(big.Float).SetInt(source.Big()).Float64()
		target.SetFloat(floatValue)
		return nil

	default:
		return mismatch(source, target.Type())
	}
}

func setString(source Value, target reflect.Value) error {
	text, ok := textOf(source)
	if !ok {
		return mismatch(source, target.Type())
	}

	target.SetString(text)
	return nil
}

func setByteSlice(source Value, target reflect.Value) error {
	text, ok := textOf(source)
	if !ok {
		return mismatch(source, target.Type())
	}

	target.SetBytes([]byte(text))
	return nil
}

func setByteArray(source Value, target reflect.Value) error {
	text, ok := textOf(source)
	if !ok {
		return mismatch(source, target.Type())
	}

	if len(text) != target.Len() {
		return fmt.Errorf("byte string of length %d into %s: %w", len(text), target.Type(), ErrNotSupported)
	}

	reflect.Copy(target, reflect.ValueOf([]byte(text)))
	return nil
}

func setTextUnmarshaler(source Value, target reflect.Value) error {
	text, ok := textOf(source)
	if !ok {
		return mismatch(source, target.Type())
	}

	m := target.Addr().Interface().(encoding.TextUnmarshaler)
	return m.UnmarshalText([]byte(text))
}

// textOf returns the content of a byte string or text value.
func textOf(source Value) (string, bool) {
	switch source := source.(type) {
	case Bytes:
		return string(source), true
	case Text:
		return string(source), true
	default:
		return "", false
	}
}

func mismatch(source Value, ty reflect.Type) error {
	return fmt.Errorf("%s into %s: %w", kindOf(source), ty, ErrNotSupported)
}
