package cache

import (
	"encoding/json"
	"fmt"

	"github.com/barbashov/chatguard/internal/apperrors"
)

// ValueCodec encodes values of type V to a string for storage and decodes
// them back. Implementations must round-trip: Decode(Encode(v)) == v.
type ValueCodec[V any] interface {
	Encode(v V) (string, error)
	Decode(data string) (V, error)
}

// StringCodec is a pass-through codec for string values. It is only
// instantiable as ValueCodec[string]; nothing to reject at runtime since the
// type system already excludes non-strings.
type StringCodec struct{}

func (StringCodec) Encode(v string) (string, error) { return v, nil }
func (StringCodec) Decode(data string) (string, error) {
	return data, nil
}

// JSONCodec round-trips any JSON-serializable value through encoding/json.
type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: json encode: %v", apperrors.ErrCache, err)
	}
	return string(b), nil
}

func (JSONCodec[V]) Decode(data string) (V, error) {
	var v V
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return v, fmt.Errorf("%w: json decode: %v", apperrors.ErrCache, err)
	}
	return v, nil
}
