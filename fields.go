package bencode

import (
	"reflect"
	"slices"
	"strings"
)

type field struct {
	Name      string
	Type      reflect.Type
	Index     []int
	OmitEmpty bool
}

// fieldsOf resolves the fields of a struct type that take part in (un)marshalling,
// following the visibility rules of encoding/json: embedded structs are flattened,
// shallower fields win over deeper ones and, on the same depth, an explicitly tagged
// field wins. Ambiguous names are dropped.
func fieldsOf(ty reflect.Type, structTag string) []field {
	if ty.Kind() != reflect.Struct {
		panic("not a struct")
	}

	type queued struct {
		Type        reflect.Type
		ParentIndex []int
	}

	type candidate struct {
		Explicit bool
		Field    field
	}

	// walk embedded structs breadth first
	queue := []queued{{Type: ty}}

	candidates := map[string][]candidate{}

	var order []string

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		for idx := range item.Type.NumField() {
			fi := item.Type.Field(idx)
			if !fi.IsExported() && !fi.Anonymous {
				continue
			}

			tag := parseTag(fi, structTag)
			if tag.Skip {
				continue
			}

			// allocate a new slice for every index by limiting the capacity of the parent
			parent := item.ParentIndex
			index := append(parent[:len(parent):len(parent)], fi.Index...)

			if fi.Anonymous && !tag.Explicit {
				fieldType := fi.Type
				if fieldType.Kind() == reflect.Pointer {
					// embedded pointers would need allocation on decode, not supported
					continue
				}

				if fieldType.Kind() == reflect.Struct {
					queue = append(queue, queued{fieldType, index})
				}

				continue
			}

			if !fi.IsExported() {
				continue
			}

			if len(candidates[tag.Name]) == 0 {
				order = append(order, tag.Name)
			}

			candidates[tag.Name] = append(candidates[tag.Name], candidate{
				Explicit: tag.Explicit,
				Field: field{
					Name:      tag.Name,
					Type:      fi.Type,
					Index:     index,
					OmitEmpty: tag.OmitEmpty,
				},
			})
		}
	}

	var fields []field

	for _, name := range order {
		candidates := candidates[name]

		// the bfs walk yields candidates sorted by depth, shallowest first
		depth := len(candidates[0].Field.Index)
		visible := slices.DeleteFunc(slices.Clone(candidates), func(c candidate) bool {
			return len(c.Field.Index) != depth
		})

		if len(visible) == 1 {
			fields = append(fields, visible[0].Field)
			continue
		}

		explicit := slices.DeleteFunc(visible, func(c candidate) bool { return !c.Explicit })
		if len(explicit) == 1 {
			fields = append(fields, explicit[0].Field)
			continue
		}

		// ambiguous, the field is ignored silently
	}

	return fields
}

type structTag struct {
	Name      string
	Explicit  bool
	Skip      bool
	OmitEmpty bool
}

func parseTag(fi reflect.StructField, tagName string) structTag {
	tag, ok := fi.Tag.Lookup(tagName)
	if !ok || tag == "" {
		return structTag{Name: fi.Name}
	}

	if tag == "-" {
		return structTag{Skip: true}
	}

	name, opts, _ := strings.Cut(tag, ",")

	result := structTag{Name: name, Explicit: name != ""}
	if name == "" {
		result.Name = fi.Name
	}

	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" {
			result.OmitEmpty = true
		}
	}

	return result
}
