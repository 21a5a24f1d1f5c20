package rmf

import (
	"fmt"
	"reflect"
	"sync"

	"golang.org/x/exp/constraints"
)

// NotSupportedError indicates a target type that has no encoding in the
// container format.
type NotSupportedError struct {
	Type reflect.Type
}

func (n NotSupportedError) Error() string {
	return fmt.Sprintf("type %q is not supported", n.Type)
}

// Decode reads one value of type T at the loader's cursor and advances past
// it. Struct fields are filled in declaration order, which must match the
// record's byte layout:
//
//   - fixed-width integers and floats read as their little-endian encoding
//   - bool reads one byte, zero meaning false
//   - strings read a uint32 length prefix followed by raw bytes
//   - arrays read their elements back to back, so [N]byte is a fixed span
//   - slices read a uint32 count prefix followed by the elements
//   - a field tagged `rmf:"-"` is skipped and consumes no bytes
//
// Platform-width int and uint have no fixed encoding and are rejected with
// [NotSupportedError].
func Decode[T any](l *Loader) (T, error) {
	var target T
	err := dec.decode(l, &target)
	return target, err
}

// A setter fills the reflect.Value with data read at the loader's cursor
type setter func(*Loader, reflect.Value) error

// A set of types that are currently in construction
type typeSet map[reflect.Type]struct{}

// The default decoder instance.
var dec decoder

type decoder struct {
	// Cache for setters, indexed by reflect.Type
	setterCache sync.Map
}

func (d *decoder) decode(l *Loader, target any) error {
	targetValue := reflect.ValueOf(target).Elem()

	// build the setter for the targets type
	setter, err := d.setterOf(typeSet{}, targetValue.Type())
	if err != nil {
		return err
	}

	return setter(l, targetValue)
}

func (d *decoder) setterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	if cached, ok := d.setterCache.Load(ty); ok {
		return cached.(setter), nil
	}

	if _, ok := inConstruction[ty]; ok {
		// detected a cycle. return a setter that does a cache lookup when executed.
		// we assume that the actual setter will be in the cache once this setter is executed.
		lazySetter := func(l *Loader, target reflect.Value) error {
			cached, _ := d.setterCache.Load(ty)
			return cached.(setter)(l, target)
		}

		return lazySetter, nil
	}

	inConstruction[ty] = struct{}{}

	setter, err := d.makeSetterOf(inConstruction, ty)
	if err != nil {
		return nil, err
	}

	d.setterCache.Store(ty, setter)

	return setter, nil
}

func (d *decoder) makeSetterOf(inConstruction typeSet, ty reflect.Type) (setter, error) {
	switch ty.Kind() {
	case reflect.Bool:
		return setBool, nil

	case reflect.Int8:
		return makeSetInt(ReadInt[int8], reflect.Value.SetInt), nil

	case reflect.Int16:
		return makeSetInt(ReadInt[int16], reflect.Value.SetInt), nil

	case reflect.Int32:
		return makeSetInt(ReadInt[int32], reflect.Value.SetInt), nil

	case reflect.Int64:
		return makeSetInt(ReadInt[int64], reflect.Value.SetInt), nil

	case reflect.Uint8:
		return makeSetInt(ReadInt[uint8], reflect.Value.SetUint), nil

	case reflect.Uint16:
		return makeSetInt(ReadInt[uint16], reflect.Value.SetUint), nil

	case reflect.Uint32:
		return makeSetInt(ReadInt[uint32], reflect.Value.SetUint), nil

	case reflect.Uint64:
		return makeSetInt(ReadInt[uint64], reflect.Value.SetUint), nil

	case reflect.Float32, reflect.Float64:
		return setFloat, nil

	case reflect.String:
		return setString, nil

	case reflect.Pointer:
		return d.makeSetPointer(inConstruction, ty)

	case reflect.Struct:
		return d.makeSetStruct(inConstruction, ty)

	case reflect.Slice:
		return d.makeSetSlice(inConstruction, ty)

	case reflect.Array:
		return d.makeSetArray(inConstruction, ty)

	default:
		// reflect.Int and reflect.Uint land here as well: their width
		// depends on the platform, not on the container format.
		return nil, NotSupportedError{Type: ty}
	}
}

func (d *decoder) makeSetStruct(inConstruction typeSet, ty reflect.Type) (setter, error) {
	var setters []setter

	fields := fieldsToDecode(ty)

	for _, field := range fields {
		de, err := d.setterOf(inConstruction, field.Type)
		if err != nil {
			return nil, fmt.Errorf("setter for field %q: %w", field.Name, err)
		}

		setters = append(setters, de)
	}

	setter := func(l *Loader, target reflect.Value) error {
		for idx, field := range fields {
			fieldValue := target.FieldByIndex(field.Index)
			if err := setters[idx](l, fieldValue); err != nil {
				return fmt.Errorf("set field %q on %q: %w", field.Name, target.Type(), err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *decoder) makeSetSlice(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// a empty element
	placeholderValue := reflect.New(ty.Elem()).Elem()

	setter := func(l *Loader, target reflect.Value) error {
		count, err := ReadInt[uint32](l.cursor)
		if err != nil {
			return fmt.Errorf("read element count: %w", err)
		}

		// a count beyond the remaining bytes cannot come from a
		// well-formed stream; rejecting it here also keeps the loop
		// bounded by the buffer length for zero-width element types
		if remaining := l.source.Len() - l.cursor.Pos(); int64(count) > remaining {
			return fmt.Errorf("read %d elements: %w", count,
				OutOfBoundsError{Offset: l.cursor.Pos(), Length: int64(count), Size: l.source.Len()})
		}

		for idx := uint32(0); idx < count; idx++ {
			// add an empty element to grow the list
			target.Set(reflect.Append(target, placeholderValue))

			elementValue := target.Index(target.Len() - 1)
			if err := elementSetter(l, elementValue); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *decoder) makeSetArray(inConstruction typeSet, ty reflect.Type) (setter, error) {
	elementSetter, err := d.setterOf(inConstruction, ty.Elem())
	if err != nil {
		return nil, fmt.Errorf("setter for element type %q: %w", ty, err)
	}

	// number of elements in the array
	elementCount := ty.Len()

	setter := func(l *Loader, target reflect.Value) error {
		for idx := 0; idx < elementCount; idx++ {
			elementValue := target.Index(idx)
			if err := elementSetter(l, elementValue); err != nil {
				return fmt.Errorf("set element idx=%d: %w", idx, err)
			}
		}

		return nil
	}

	return setter, nil
}

func (d *decoder) makeSetPointer(inConstruction typeSet, ty reflect.Type) (setter, error) {
	pointeeType := ty.Elem()

	pointeeSetter, err := d.setterOf(inConstruction, pointeeType)
	if err != nil {
		return nil, err
	}

	setter := func(l *Loader, target reflect.Value) error {
		// newValue is now a pointer to an instance of the pointeeType
		newValue := reflect.New(pointeeType)
		if err := pointeeSetter(l, newValue.Elem()); err != nil {
			return err
		}

		// set pointer to the new value
		target.Set(newValue)

		return nil
	}

	return setter, err
}

func makeSetInt[T constraints.Integer, V int64 | uint64](
	read func(*Cursor) (T, error),
	setValue func(reflect.Value, V),
) setter {
	return func(l *Loader, target reflect.Value) error {
		value, err := read(l.cursor)
		if err != nil {
			return fmt.Errorf("read %T value: %w", value, err)
		}

		setValue(target, V(value))
		return nil
	}
}

func setBool(l *Loader, target reflect.Value) error {
	value, err := ReadInt[uint8](l.cursor)
	if err != nil {
		return fmt.Errorf("read bool value: %w", err)
	}

	target.SetBool(value != 0)
	return nil
}

func setFloat(l *Loader, target reflect.Value) error {
	if target.Kind() == reflect.Float32 {
		value, err := l.cursor.ReadFloat32()
		if err != nil {
			return fmt.Errorf("read float32 value: %w", err)
		}

		target.SetFloat(float64(value))
		return nil
	}

	value, err := l.cursor.ReadFloat64()
	if err != nil {
		return fmt.Errorf("read float64 value: %w", err)
	}

	target.SetFloat(value)
	return nil
}

func setString(l *Loader, target reflect.Value) error {
	value, err := l.cursor.ReadString()
	if err != nil {
		return fmt.Errorf("read string value: %w", err)
	}

	target.SetString(value)
	return nil
}
