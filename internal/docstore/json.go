package docstore

import (
	"maps"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// EncodeFields writes fields as a JSON object with sorted keys. time.Time
// values are written as RFC 3339 strings.
func EncodeFields(e *jx.Encoder, fields Fields) error {
	e.ObjStart()
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		e.FieldStart(k)
		if err := encodeValue(e, fields[k]); err != nil {
			return errors.Wrapf(err, "field %q", k)
		}
	}
	e.ObjEnd()
	return nil
}

// MarshalFields returns the JSON encoding of fields.
func MarshalFields(fields Fields) ([]byte, error) {
	var e jx.Encoder
	if err := EncodeFields(&e, fields); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func encodeValue(e *jx.Encoder, v any) error {
	switch v := v.(type) {
	case nil:
		e.Null()
	case bool:
		e.Bool(v)
	case string:
		e.Str(v)
	case int:
		e.Int(v)
	case int32:
		e.Int32(v)
	case int64:
		e.Int64(v)
	case float32:
		e.Float32(v)
	case float64:
		e.Float64(v)
	case time.Time:
		e.Str(v.Format(time.RFC3339Nano))
	case []string:
		e.ArrStart()
		for _, s := range v {
			e.Str(s)
		}
		e.ArrEnd()
	case []any:
		e.ArrStart()
		for _, item := range v {
			if err := encodeValue(e, item); err != nil {
				return err
			}
		}
		e.ArrEnd()
	case []Fields:
		e.ArrStart()
		for _, item := range v {
			if err := EncodeFields(e, item); err != nil {
				return err
			}
		}
		e.ArrEnd()
	case Fields:
		return EncodeFields(e, v)
	case map[string]any:
		return EncodeFields(e, v)
	default:
		return errors.Errorf("unsupported value type %T", v)
	}
	return nil
}

// DecodeFields reads a JSON object into a field map. Integral numbers decode
// to int64, other numbers to float64.
func DecodeFields(d *jx.Decoder) (Fields, error) {
	v, err := decodeObject(d)
	if err != nil {
		return nil, err
	}
	return Fields(v), nil
}

// UnmarshalFields decodes a JSON object.
func UnmarshalFields(data []byte) (Fields, error) {
	return DecodeFields(jx.DecodeBytes(data))
}

func decodeObject(d *jx.Decoder) (map[string]any, error) {
	out := make(map[string]any)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		v, err := decodeValue(d)
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		out[key] = v
		return nil
	}); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(d *jx.Decoder) (any, error) {
	switch d.Next() {
	case jx.Null:
		return nil, d.Null()
	case jx.Bool:
		return d.Bool()
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, err
		}
		if n.IsInt() {
			if i, err := n.Int64(); err == nil {
				return i, nil
			}
		}
		return n.Float64()
	case jx.Array:
		var out []any
		if err := d.Arr(func(d *jx.Decoder) error {
			v, err := decodeValue(d)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		}); err != nil {
			return nil, err
		}
		return out, nil
	case jx.Object:
		return decodeObject(d)
	default:
		return nil, errors.New("unexpected JSON token")
	}
}
