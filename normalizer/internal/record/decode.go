package record

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/valyala/fastjson"
)

// ErrNotObject is returned when a payload's top level is not a JSON object.
var ErrNotObject = errors.New("payload is not a JSON object")

// Decoder turns raw JSON into records. It is safe for concurrent use.
type Decoder struct {
	pool fastjson.ParserPool
}

// DecodeRecord parses a bare JSON object into a Record.
func (d *Decoder) DecodeRecord(data []byte) (Record, error) {
	p := d.pool.Get()
	defer d.pool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, ErrNotObject
	}
	return objectToRecord(v), nil
}

// DecodeEnvelope parses {"tag": ..., "time": ..., "record": {...}}. A missing
// or unparseable time yields fallback.
func (d *Decoder) DecodeEnvelope(data []byte, fallback time.Time) (*Envelope, error) {
	p := d.pool.Get()
	defer d.pool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse envelope: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return nil, ErrNotObject
	}

	tag := string(v.GetStringBytes("tag"))
	if tag == "" {
		return nil, errors.New("envelope has no tag")
	}

	rec := v.Get("record")
	if rec == nil || rec.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("envelope record: %w", ErrNotObject)
	}

	return &Envelope{
		Tag:        tag,
		ReceivedAt: envelopeTime(v.Get("time"), fallback),
		Record:     objectToRecord(rec),
	}, nil
}

func envelopeTime(v *fastjson.Value, fallback time.Time) time.Time {
	if v == nil {
		return fallback
	}
	switch v.Type() {
	case fastjson.TypeString:
		s := string(v.GetStringBytes())
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	case fastjson.TypeNumber:
		f, err := v.Float64()
		if err == nil {
			sec, frac := math.Modf(f)
			return time.Unix(int64(sec), int64(frac*1e9)).UTC()
		}
	}
	return fallback
}

func objectToRecord(v *fastjson.Value) Record {
	o, _ := v.Object()
	out := make(Record, o.Len())
	o.Visit(func(key []byte, val *fastjson.Value) {
		out[string(key)] = toNative(val)
	})
	return out
}

func toNative(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeNull:
		return nil
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		raw := v.String()
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return i
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeArray:
		arr, _ := v.Array()
		out := make([]any, len(arr))
		for i, e := range arr {
			out[i] = toNative(e)
		}
		return out
	case fastjson.TypeObject:
		return map[string]any(objectToRecord(v))
	}
	return nil
}
