package pstream

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"

	"github.com/plearn/pstream/pkg/typecode"
)

// Marshaler is implemented by types that write their own representation,
// typically through BeginObject, WriteField and EndObject.
type Marshaler interface {
	MarshalPStream(s *Stream) error
}

// Unmarshaler is implemented by types that read what their Marshaler wrote.
type Unmarshaler interface {
	UnmarshalPStream(s *Stream) error
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
)

// Write encodes v in the output mode.
//
// Numbers, bools and strings use the primitive encoders. Slices and arrays
// are sequences, with numeric slices taking the packed path in binary
// modes. Maps are written with sorted keys. Pointers use the reference
// framing, so values reachable along several paths, including cycles, are
// written once. Types implementing Marshaler write themselves. A nil
// interface is written as *0.
//
// Write(x) is read back with Read(&x).
func (s *Stream) Write(v any) error {
	if v == nil {
		return s.WriteRef(nil, nil)
	}
	return s.writeValue(reflect.ValueOf(v))
}

func (s *Stream) writeValue(rv reflect.Value) error {
	t := rv.Type()
	if t.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return s.WriteRef(nil, nil)
		}
		p := rv.Interface()
		return s.WriteRef(p, func() error {
			if m, ok := p.(Marshaler); ok {
				return m.MarshalPStream(s)
			}
			return s.writeValue(rv.Elem())
		})
	}
	if t.Implements(marshalerType) {
		return rv.Interface().(Marshaler).MarshalPStream(s)
	}

	switch t.Kind() {
	case reflect.Bool:
		return s.WriteBool(rv.Bool())
	case reflect.Int8:
		return writeNumber(s, int8(rv.Int()))
	case reflect.Int16:
		return writeNumber(s, int16(rv.Int()))
	case reflect.Int32:
		return writeNumber(s, int32(rv.Int()))
	case reflect.Int64:
		return writeNumber(s, rv.Int())
	case reflect.Int:
		return writeNumber(s, int(rv.Int()))
	case reflect.Uint8:
		return writeNumber(s, uint8(rv.Uint()))
	case reflect.Uint16:
		return writeNumber(s, uint16(rv.Uint()))
	case reflect.Uint32:
		return writeNumber(s, uint32(rv.Uint()))
	case reflect.Uint64:
		return writeNumber(s, rv.Uint())
	case reflect.Uint:
		return writeNumber(s, uint(rv.Uint()))
	case reflect.Float32:
		return writeNumber(s, float32(rv.Float()))
	case reflect.Float64:
		return writeNumber(s, rv.Float())
	case reflect.String:
		return s.WriteString(rv.String())
	case reflect.Slice:
		if ok, err := writeNumbersFast(s, rv.Interface()); ok {
			return err
		}
		fallthrough
	case reflect.Array:
		return s.writeSeqFrame(rv.Len(), func(i int) error {
			return s.writeValue(rv.Index(i))
		})
	case reflect.Map:
		keys := rv.MapKeys()
		if err := sortKeys(keys); err != nil {
			return err
		}
		return s.writeMapFrame(len(keys), func(i int) error {
			return s.writeValue(keys[i])
		}, func(i int) error {
			return s.writeValue(rv.MapIndex(keys[i]))
		})
	case reflect.Interface:
		if rv.IsNil() {
			return s.WriteRef(nil, nil)
		}
		return s.writeValue(rv.Elem())
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func writeNumbersFast(s *Stream, v any) (bool, error) {
	switch v := v.(type) {
	case []int8:
		return true, WriteNumbers(s, v)
	case []uint8:
		return true, WriteNumbers(s, v)
	case []int16:
		return true, WriteNumbers(s, v)
	case []uint16:
		return true, WriteNumbers(s, v)
	case []int32:
		return true, WriteNumbers(s, v)
	case []uint32:
		return true, WriteNumbers(s, v)
	case []int64:
		return true, WriteNumbers(s, v)
	case []uint64:
		return true, WriteNumbers(s, v)
	case []int:
		return true, WriteNumbers(s, v)
	case []uint:
		return true, WriteNumbers(s, v)
	case []float32:
		return true, WriteNumbers(s, v)
	case []float64:
		return true, WriteNumbers(s, v)
	}
	return false, nil
}

// sortKeys orders map keys of basic kinds so output is deterministic.
func sortKeys(keys []reflect.Value) error {
	if len(keys) == 0 {
		return nil
	}
	var compare func(a, b reflect.Value) int
	switch keys[0].Kind() {
	case reflect.String:
		compare = func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) }
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		compare = func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) }
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		compare = func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) }
	case reflect.Float32, reflect.Float64:
		compare = func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) }
	case reflect.Bool:
		compare = func(a, b reflect.Value) int {
			if a.Bool() == b.Bool() {
				return 0
			}
			if b.Bool() {
				return -1
			}
			return 1
		}
	default:
		return fmt.Errorf("%w: map key %s", ErrUnsupportedType, keys[0].Type())
	}
	slices.SortFunc(keys, compare)
	return nil
}

// Read decodes the next value into the variable v points to. v must be a
// non-nil pointer. Pointer variables are filled through the reference
// framing; an interface{} variable receives what ReadValue returns.
func (s *Stream) Read(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: Read needs a non-nil pointer, got %T", ErrUnsupportedType, v)
	}
	return s.readValue(rv.Elem())
}

func (s *Stream) readValue(target reflect.Value) error {
	t := target.Type()
	if t.Kind() == reflect.Pointer {
		return s.readPointer(target)
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return target.Addr().Interface().(Unmarshaler).UnmarshalPStream(s)
	}

	var err error
	switch t.Kind() {
	case reflect.Bool:
		var b bool
		b, err = s.ReadBool()
		target.SetBool(b)
	case reflect.Int8:
		err = setInt(s, target, readNumber[int8])
	case reflect.Int16:
		err = setInt(s, target, readNumber[int16])
	case reflect.Int32:
		err = setInt(s, target, readNumber[int32])
	case reflect.Int64:
		err = setInt(s, target, readNumber[int64])
	case reflect.Int:
		err = setInt(s, target, readNumber[int])
	case reflect.Uint8:
		err = setUint(s, target, readNumber[uint8])
	case reflect.Uint16:
		err = setUint(s, target, readNumber[uint16])
	case reflect.Uint32:
		err = setUint(s, target, readNumber[uint32])
	case reflect.Uint64:
		err = setUint(s, target, readNumber[uint64])
	case reflect.Uint:
		err = setUint(s, target, readNumber[uint])
	case reflect.Float32:
		var f float32
		f, err = readNumber[float32](s)
		target.SetFloat(float64(f))
	case reflect.Float64:
		var f float64
		f, err = readNumber[float64](s)
		target.SetFloat(f)
	case reflect.String:
		var str string
		str, err = s.ReadString()
		target.SetString(str)
	case reflect.Slice:
		err = s.readSlice(target)
	case reflect.Array:
		err = s.readArray(target)
	case reflect.Map:
		err = s.readMap(target)
	case reflect.Interface:
		if t.NumMethod() != 0 {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
		}
		var v any
		v, err = s.ReadValue()
		if v == nil {
			target.SetZero()
		} else {
			target.Set(reflect.ValueOf(v))
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	return err
}

func setInt[T int8 | int16 | int32 | int64 | int](s *Stream, target reflect.Value, read func(*Stream) (T, error)) error {
	v, err := read(s)
	target.SetInt(int64(v))
	return err
}

func setUint[T uint8 | uint16 | uint32 | uint64 | uint](s *Stream, target reflect.Value, read func(*Stream) (T, error)) error {
	v, err := read(s)
	target.SetUint(uint64(v))
	return err
}

func (s *Stream) readPointer(target reflect.Value) error {
	t := target.Type()
	v, err := s.readRef(func() any {
		return reflect.New(t.Elem()).Interface()
	}, func(p any) error {
		if u, ok := p.(Unmarshaler); ok {
			return u.UnmarshalPStream(s)
		}
		return s.readValue(reflect.ValueOf(p).Elem())
	})
	if v == nil {
		target.SetZero()
		return err
	}
	pv := reflect.ValueOf(v)
	if pv.Type() != t {
		return s.formatError(ErrUnsupportedType, "object is a %s, not a %s", pv.Type(), t)
	}
	target.Set(pv)
	return err
}

func readNumbersFast(s *Stream, p any) (bool, error) {
	switch p := p.(type) {
	case *[]int8:
		return true, readNumbersInto(s, p)
	case *[]uint8:
		return true, readNumbersInto(s, p)
	case *[]int16:
		return true, readNumbersInto(s, p)
	case *[]uint16:
		return true, readNumbersInto(s, p)
	case *[]int32:
		return true, readNumbersInto(s, p)
	case *[]uint32:
		return true, readNumbersInto(s, p)
	case *[]int64:
		return true, readNumbersInto(s, p)
	case *[]uint64:
		return true, readNumbersInto(s, p)
	case *[]int:
		return true, readNumbersInto(s, p)
	case *[]uint:
		return true, readNumbersInto(s, p)
	case *[]float32:
		return true, readNumbersInto(s, p)
	case *[]float64:
		return true, readNumbersInto(s, p)
	}
	return false, nil
}

func readNumbersInto[T typecode.Number](s *Stream, p *[]T) error {
	v, err := ReadNumbers(s, *p)
	*p = v
	return err
}

func (s *Stream) readSlice(target reflect.Value) error {
	if ok, err := readNumbersFast(s, target.Addr().Interface()); ok {
		return err
	}
	et := target.Type().Elem()
	if s.inMode == RawASCII || s.inMode == RawBinary {
		for i := range target.Len() {
			if err := s.readValue(target.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	if k := typecode.KindOfReflect(et.Kind()); k != typecode.Invalid && s.inMode.isPlearn() {
		if err := s.skipForRead(); err != nil {
			return err
		}
		if c, err := s.peek(); err == nil {
			if _, ok := typecode.LookupSeq(c); ok {
				return s.readPackedInto(target, k)
			}
		}
	}

	out := target.Slice(0, 0)
	err := s.readSeqFrame(func(n int) {
		if out.Cap() < n {
			out = reflect.MakeSlice(target.Type(), 0, n)
		}
	}, func() error {
		e := reflect.New(et).Elem()
		if err := s.readValue(e); err != nil {
			return err
		}
		out = reflect.Append(out, e)
		return nil
	})
	target.Set(out)
	return err
}

// readPackedInto decodes a packed sequence into a slice of a named numeric
// element type by way of the widest type of the same class.
func (s *Stream) readPackedInto(target reflect.Value, k typecode.Kind) error {
	t := target.Type()
	switch {
	case k.IsFloat():
		xs, err := ReadNumbers[float64](s, nil)
		out := reflect.MakeSlice(t, len(xs), len(xs))
		for i, x := range xs {
			out.Index(i).SetFloat(x)
		}
		target.Set(out)
		return err
	case k.IsSigned():
		xs, err := ReadNumbers[int64](s, nil)
		out := reflect.MakeSlice(t, len(xs), len(xs))
		for i, x := range xs {
			out.Index(i).SetInt(x)
		}
		target.Set(out)
		return err
	default:
		xs, err := ReadNumbers[uint64](s, nil)
		out := reflect.MakeSlice(t, len(xs), len(xs))
		for i, x := range xs {
			out.Index(i).SetUint(x)
		}
		target.Set(out)
		return err
	}
}

func (s *Stream) readArray(target reflect.Value) error {
	if s.inMode == RawASCII || s.inMode == RawBinary {
		for i := range target.Len() {
			if err := s.readValue(target.Index(i)); err != nil {
				return err
			}
		}
		return nil
	}
	i := 0
	err := s.readSeqFrame(nil, func() error {
		if i >= target.Len() {
			return s.formatError(ErrRange, "more than %d elements for %s", target.Len(), target.Type())
		}
		i++
		return s.readValue(target.Index(i - 1))
	})
	if err == nil && i != target.Len() {
		return s.formatError(ErrRange, "%d elements for %s", i, target.Type())
	}
	return err
}

func (s *Stream) readMap(target reflect.Value) error {
	t := target.Type()
	if target.IsNil() {
		target.Set(reflect.MakeMap(t))
	}
	return s.readMapFrame(func(colon func() error) error {
		k := reflect.New(t.Key()).Elem()
		if err := s.readValue(k); err != nil {
			return err
		}
		if err := colon(); err != nil {
			return err
		}
		v := reflect.New(t.Elem()).Elem()
		if err := s.readValue(v); err != nil {
			return err
		}
		target.SetMapIndex(k, v)
		return nil
	})
}
