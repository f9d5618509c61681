package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// canonicalJSON marshals v, round-trips it through a generic
// map[string]any/[]any/scalar tree (so key order no longer depends on struct
// field order or map iteration order), applies sortedCopy, and re-marshals
// using orderedMap so object keys come out sorted and stable.
func canonicalJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return "", fmt.Errorf("normalize: %w", err)
	}

	normalized := sortedCopy(generic)
	out, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	return string(out), nil
}

// marshalOrdered renders an orderedMap as a JSON object with its keys in
// the order stored on the struct (already sorted by sortedCopy).
func marshalOrdered(o orderedMap) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
