package bencode

import "fmt"

// Native converts a value tree into plain Go values: int64 or *big.Int for integers,
// string for byte strings and text, float64, nil for [None], []any for lists and
// map[string]any for dictionaries. Dictionary keys are converted to their string
// form. Decoration is dropped. [Direct] values can not be converted.
func Native(v Value) (any, error) {
	return NativeWith(v, func(b Bytes) any { return string(b) })
}

// NativeWith is like [Native] but converts byte strings using the given function.
// This allows a caller to keep binary data apart from printable strings.
func NativeWith(v Value, bytesOf func(Bytes) any) (any, error) {
	switch v := unwrap(v).(type) {
	case nil, None:
		return nil, nil

	case Int:
		if small, ok := v.Int64(); ok {
			return small, nil
		}

		return v.Big(), nil

	case Bytes:
		return bytesOf(v), nil

	case Text:
		return string(v), nil

	case Float:
		return float64(v), nil

	case List:
		result := make([]any, len(v))
		for idx, item := range v {
			native, err := NativeWith(item, bytesOf)
			if err != nil {
				return nil, fmt.Errorf("list element idx=%d: %w", idx, err)
			}

			result[idx] = native
		}

		return result, nil

	case *Dict:
		result := make(map[string]any, v.Len())
		for key, value := range v.All() {
			name, err := keyString(key)
			if err != nil {
				return nil, err
			}

			native, err := NativeWith(value, bytesOf)
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", name, err)
			}

			result[name] = native
		}

		return result, nil

	default:
		return nil, fmt.Errorf("convert %s: %w", v.Kind(), ErrNotSupported)
	}
}

func keyString(key Value) (string, error) {
	switch key := unwrap(key).(type) {
	case Bytes:
		return string(key), nil
	case Text:
		return string(key), nil
	case Int, Float:
		return fmt.Sprint(key), nil
	default:
		return "", fmt.Errorf("dictionary key of kind %s: %w", kindOf(key), ErrNotSupported)
	}
}
