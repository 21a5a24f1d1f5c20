package rmf

import "reflect"

type field struct {
	Name  string
	Type  reflect.Type
	Index []int
}

// fieldsToDecode returns the exported fields of ty in declaration order.
// The byte layout of a record in the container follows this order. Fields
// tagged `rmf:"-"` are skipped and consume no bytes.
func fieldsToDecode(ty reflect.Type) []field {
	if ty.Kind() != reflect.Struct {
		panic("not a struct")
	}

	var fields []field

	for idx := 0; idx < ty.NumField(); idx++ {
		fi := ty.Field(idx)
		if !fi.IsExported() {
			continue
		}

		if fi.Tag.Get("rmf") == "-" {
			// this one is skipped
			continue
		}

		fields = append(fields, field{Name: fi.Name, Type: fi.Type, Index: fi.Index})
	}

	return fields
}
