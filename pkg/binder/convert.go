package binder

import (
	"database/sql"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/ajitpratap0/rowmap/pkg/json"
)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

// assign stores src into dst following database/sql scanning rules where
// they apply: NULL becomes the zero value, sql.Scanner targets scan the raw
// value, pointers are allocated, and remaining kinds go through cast.
func assign(dst reflect.Value, src interface{}) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	if dst.CanAddr() && reflect.PointerTo(dst.Type()).Implements(scannerType) {
		if n, ok := src.(json.Number); ok {
			src = n.String()
		}
		return dst.Addr().Interface().(sql.Scanner).Scan(src)
	}

	sv := reflect.ValueOf(src)
	if sv.Type().AssignableTo(dst.Type()) {
		if sv.Type() == bytesType {
			// drivers may reuse the buffer after the next fetch
			b := make([]byte, sv.Len())
			copy(b, src.([]byte))
			dst.Set(reflect.ValueOf(b))
			return nil
		}
		dst.Set(sv)
		return nil
	}

	if dst.Kind() == reflect.Ptr {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	switch v := src.(type) {
	case []byte:
		if dst.Type() != bytesType {
			src = string(v)
		}
	case json.Number:
		src = v.String()
	}

	switch dst.Kind() {
	case reflect.String:
		s, err := cast.ToStringE(src)
		if err != nil {
			return err
		}
		dst.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(src)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := toInt64(src)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := toUint64(src)
		if err != nil {
			return err
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(src)
		if err != nil {
			return err
		}
		if dst.OverflowFloat(f) {
			return fmt.Errorf("value %v overflows %s", f, dst.Type())
		}
		dst.SetFloat(f)
	case reflect.Slice:
		if dst.Type() != bytesType {
			return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
		}
		s, err := cast.ToStringE(src)
		if err != nil {
			return err
		}
		dst.SetBytes([]byte(s))
	case reflect.Struct:
		if dst.Type() != timeType {
			return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
		}
		t, err := cast.ToTimeE(src)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
	case reflect.Interface:
		if !sv.Type().Implements(dst.Type()) {
			return fmt.Errorf("%T does not implement %s", src, dst.Type())
		}
		dst.Set(sv)
	default:
		return fmt.Errorf("cannot assign %T to %s", src, dst.Type())
	}
	return nil
}

// toInt64 parses text as base 10; cast would read "010" as octal.
func toInt64(src interface{}) (int64, error) {
	if s, ok := src.(string); ok {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	return cast.ToInt64E(src)
}

func toUint64(src interface{}) (uint64, error) {
	if s, ok := src.(string); ok {
		return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	}
	return cast.ToUint64E(src)
}
