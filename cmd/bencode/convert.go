package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"math/big"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/go-gum/bencode"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// hexKey marks a byte string that is not valid UTF-8 in json and yaml documents.
const hexKey = "$hex"

// converter turns value trees into plain data for the json, yaml and cbor
// encoders.
type converter struct {
	// keep spans of decorated values as {start, end, value} objects
	spans bool

	// conversion of byte strings
	bytesOf func(bencode.Bytes) any
}

// textBytes converts byte strings to strings if they are valid UTF-8 and to a
// {"$hex": ...} object otherwise.
func textBytes(b bencode.Bytes) any {
	if utf8.Valid(b) {
		return string(b)
	}

	return map[string]any{hexKey: hex.EncodeToString(b)}
}

// rawBytes keeps byte strings as []byte, for formats with a native byte string.
func rawBytes(b bencode.Bytes) any {
	return []byte(b)
}

func (c converter) convert(v bencode.Value) (any, error) {
	switch v := v.(type) {
	case bencode.Decorated:
		inner, err := c.convert(v.Value)
		if err != nil || !c.spans {
			return inner, err
		}

		return map[string]any{"start": v.Start, "end": v.End, "value": inner}, nil

	case bencode.List:
		result := make([]any, 0, len(v))
		for idx, item := range v {
			converted, err := c.convert(item)
			if err != nil {
				return nil, fmt.Errorf("list element idx=%d: %w", idx, err)
			}

			result = append(result, converted)
		}

		return result, nil

	case *bencode.Dict:
		result := make(map[string]any, v.Len())
		for key, value := range v.All() {
			name, err := bencode.Native(bencode.Undecorate(key))
			if err != nil {
				return nil, err
			}

			converted, err := c.convert(value)
			if err != nil {
				return nil, fmt.Errorf("value for key %v: %w", name, err)
			}

			result[fmt.Sprint(name)] = converted
		}

		return result, nil

	default:
		return bencode.NativeWith(v, c.bytesOf)
	}
}

// parseJSON reads a JSON document. Comments and trailing commas are permitted.
func parseJSON(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	decoder.UseNumber()

	var result any
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	return result, nil
}

func parseYAML(data []byte) (any, error) {
	var result any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	return result, nil
}

// valueOf converts plain data as produced by parseJSON or parseYAML into a value
// tree. Strings become byte strings, booleans become 0 or 1, null becomes None and
// objects become dictionaries with byte string keys. An object with the single key
// "$hex" becomes the decoded byte string.
func valueOf(data any) (bencode.Value, error) {
	switch data := data.(type) {
	case nil:
		return bencode.None{}, nil

	case bool:
		if data {
			return bencode.NewInt(1), nil
		}

		return bencode.NewInt(0), nil

	case json.Number:
		if value, ok := new(big.Int).SetString(data.String(), 10); ok {
			return bencode.NewBigInt(value), nil
		}

		value, err := strconv.ParseFloat(data.String(), 64)
		if err != nil {
			return nil, fmt.Errorf("number %q: %w", data, err)
		}

		return bencode.Float(value), nil

	case int:
		return bencode.NewInt(int64(data)), nil

	case int64:
		return bencode.NewInt(data), nil

	case uint64:
		return bencode.NewUint(data), nil

	case float64:
		return bencode.Float(data), nil

	case string:
		return bencode.Bytes(data), nil

	case []byte:
		return bencode.Bytes(data), nil

	case []any:
		list := make(bencode.List, 0, len(data))
		for idx, item := range data {
			value, err := valueOf(item)
			if err != nil {
				return nil, fmt.Errorf("list element idx=%d: %w", idx, err)
			}

			list = append(list, value)
		}

		return list, nil

	case map[string]any:
		if encoded, ok := data[hexKey].(string); ok && len(data) == 1 {
			raw, err := hex.DecodeString(encoded)
			if err != nil {
				return nil, fmt.Errorf("%s value: %w", hexKey, err)
			}

			return bencode.Bytes(raw), nil
		}

		var entries []bencode.DictEntry
		for _, key := range slices.Sorted(maps.Keys(data)) {
			value, err := valueOf(data[key])
			if err != nil {
				return nil, fmt.Errorf("value for key %q: %w", key, err)
			}

			entries = append(entries, bencode.DictEntry{Key: bencode.Bytes(key), Value: value})
		}

		return bencode.NewDict(entries...), nil

	case map[any]any:
		converted := make(map[string]any, len(data))
		for key, value := range data {
			converted[fmt.Sprint(key)] = value
		}

		return valueOf(converted)

	default:
		return nil, fmt.Errorf("convert %T: %w", data, bencode.ErrNotSupported)
	}
}
