package serializer

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	durationType        = reflect.TypeOf(time.Duration(0))
	rawType             = reflect.TypeOf(Raw(""))
)

// isScalarType reports whether values of t are written as a single value.
func isScalarType(t reflect.Type) bool {
	if t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isSequenceType reports whether t is a slice of scalars.
func isSequenceType(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && !isScalarType(t) && isScalarType(t.Elem())
}

// isMapType reports whether t is a string-keyed map of scalars.
func isMapType(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Key().Kind() == reflect.String && isScalarType(t.Elem())
}

// encodeScalar converts v to its on-disk form, quoting strings when needed.
func encodeScalar(v reflect.Value) (string, error) {
	if v.Type() == rawType {
		text := v.String()
		if text == "" {
			return `""`, nil
		}
		if strings.ContainsAny(text, "\n\r") {
			return "", fmt.Errorf("%w: raw text spans lines", ErrUnsupportedType)
		}
		return text, nil
	}
	if !v.Type().Implements(textMarshalerType) && v.CanAddr() && v.Addr().Type().Implements(textMarshalerType) {
		v = v.Addr()
	}
	if v.Type().Implements(textMarshalerType) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return "", fmt.Errorf("%w: nil %s", ErrUnsupportedType, v.Type())
		}
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", err
		}
		return quote(string(text)), nil
	}
	if v.Type() == durationType {
		return time.Duration(v.Int()).String(), nil
	}

	switch v.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.String:
		return quote(v.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
}

// decodeScalar parses raw into the settable value v. Quoted text is unquoted
// first for every type except Raw.
func decodeScalar(raw string, v reflect.Value) error {
	if v.Type() == rawType {
		v.SetString(raw)
		return nil
	}
	s, err := unquote(raw)
	if err != nil {
		return fmt.Errorf("bad quoted string %s: %w", raw, err)
	}

	if v.CanAddr() && v.Addr().Type().Implements(textUnmarshalerType) {
		return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s))
	}
	if v.Type() == durationType {
		d, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		v.SetInt(int64(d))
		return nil
	}

	switch v.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.String:
		v.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type())
	}
	return nil
}
