// Package tlv maps BER-TLV (Basic Encoding Rules - Tag-Length-Value) data,
// as found in UICC FCP templates and EF.DIR records, into Go structures
// using struct tags.
//
//	type FileDescriptor struct {
//		Size    uint32       `tlv:"80"`
//		ID      []byte       `tlv:"83"`
//		Unknown []bertlv.TLV `tlv:",unknown"`
//	}
package tlv

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// Unmarshaler allows custom types to implement their own TLV parsing logic.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// Unmarshal parses raw BER-TLV data and maps it into a target Go struct.
func Unmarshal(data []byte, target interface{}) error {
	packets, err := bertlv.Decode(data)
	if err != nil {
		return fmt.Errorf("bertlv decode failed: %w", err)
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets maps pre-decoded packets to a target struct.
// Supported field kinds: []byte, unsigned integers (big-endian), nested
// structs or struct pointers, slices of structs for repeated tags, and
// types implementing Unmarshaler. Packets matching no field land in the
// field tagged ",unknown" when there is one.
func UnmarshalFromPackets(packets []bertlv.TLV, target interface{}) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %s", v.Kind())
	}
	t := v.Type()

	consumed := make([]bool, len(packets))
	var unknown reflect.Value

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("tlv")

		if tag == ",unknown" {
			unknown = field
			continue
		}
		if tag == "" || !field.CanSet() {
			continue
		}

		want := strings.ToUpper(strings.Split(tag, ",")[0])
		for idx, packet := range packets {
			if strings.ToUpper(packet.Tag) != want {
				continue
			}
			if err := assign(packet, field); err != nil {
				return fmt.Errorf("tag %s: %w", want, err)
			}
			consumed[idx] = true
		}
	}

	if unknown.IsValid() && unknown.CanSet() {
		var leftovers []bertlv.TLV
		for idx, packet := range packets {
			if !consumed[idx] {
				leftovers = append(leftovers, packet)
			}
		}
		if len(leftovers) > 0 {
			unknown.Set(reflect.ValueOf(leftovers))
		}
	}

	return nil
}

// Find returns the first packet carrying tag, searching only the top level.
func Find(packets []bertlv.TLV, tag string) (bertlv.TLV, bool) {
	for _, p := range packets {
		if strings.EqualFold(p.Tag, tag) {
			return p, true
		}
	}
	return bertlv.TLV{}, false
}

func assign(packet bertlv.TLV, field reflect.Value) error {
	// Repeated tag: grow the slice.
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeValue(packet, elem); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeValue(packet, field)
}

func decodeValue(packet bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(packet))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawValue(packet))
		return nil

	case isUnsigned(field.Kind()):
		value := rawValue(packet)
		if len(value) > field.Type().Size() {
			return fmt.Errorf("%d bytes overflow %s", len(value), field.Type())
		}
		var n uint64
		for _, b := range value {
			n = n<<8 | uint64(b)
		}
		field.SetUint(n)
		return nil

	case field.Kind() == reflect.Struct:
		return decodeNested(packet, field.Addr().Interface())

	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return decodeNested(packet, field.Interface())
	}

	return fmt.Errorf("unsupported field type %s", field.Type())
}

func decodeNested(packet bertlv.TLV, target interface{}) error {
	if len(packet.TLVs) > 0 {
		return UnmarshalFromPackets(packet.TLVs, target)
	}
	if len(packet.Value) == 0 {
		return nil
	}
	return Unmarshal(packet.Value, target)
}

func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
		return true
	}
	return false
}
