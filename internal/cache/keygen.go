package cache

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/barbashov/chatguard/internal/apperrors"
)

// KeyGenerator maps an arbitrary input into a stable string cache key.
// Implementations must be deterministic: the same logical input always
// produces the same key.
type KeyGenerator interface {
	GenerateKey(obj any) (string, error)
}

// IdentityKeyGenerator requires its input to already be a string and
// returns it unchanged. It rejects anything else.
type IdentityKeyGenerator struct{}

func (IdentityKeyGenerator) GenerateKey(obj any) (string, error) {
	s, ok := obj.(string)
	if !ok {
		return "", fmt.Errorf("%w: IdentityKeyGenerator expects a string, got %T", apperrors.ErrInvalidKey, obj)
	}
	return s, nil
}

// HashKeyGenerator tolerates any input by hashing its Go-syntax
// representation (the closest stdlib analogue to Python's repr()).
type HashKeyGenerator struct{}

func (HashKeyGenerator) GenerateKey(obj any) (string, error) {
	repr := fmt.Sprintf("%#v", obj)
	sum := sha512.Sum512([]byte(repr))
	return hex.EncodeToString(sum[:]), nil
}

// StructuredKeyGenerator serializes its input into canonical JSON (with
// optionally sorted object keys) and optionally hashes the result with
// SHA-512. Canonical, sorted-key JSON has no equivalent in any library
// carried by the example pack, so this is built on the standard library's
// encoding/json plus a recursive key-sort — see DESIGN.md.
type StructuredKeyGenerator struct {
	// SortKeys makes map keys deterministic regardless of iteration order.
	// Defaults to true when constructed via NewStructuredKeyGenerator.
	SortKeys bool
	// Hash applies SHA-512 to the canonical JSON. Defaults to true.
	Hash bool
}

// NewStructuredKeyGenerator returns a StructuredKeyGenerator with the
// specification's defaults: sortKeys=true, hash=true.
func NewStructuredKeyGenerator() StructuredKeyGenerator {
	return StructuredKeyGenerator{SortKeys: true, Hash: true}
}

func (g StructuredKeyGenerator) GenerateKey(obj any) (string, error) {
	normalized := obj
	if g.SortKeys {
		normalized = sortedCopy(obj)
	}
	encoded, err := canonicalJSON(normalized)
	if err != nil {
		return "", fmt.Errorf("structured key: %w", err)
	}
	if !g.Hash {
		return encoded, nil
	}
	sum := sha512.Sum512([]byte(encoded))
	return hex.EncodeToString(sum[:]), nil
}

// sortedCopy walks a value produced by round-tripping through JSON-like
// structures (maps, slices, scalars) and rebuilds it as an orderedMap tree
// so that encoding always emits keys in a fixed order.
func sortedCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return newOrderedMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = sortedCopy(e)
		}
		return out
	default:
		return v
	}
}

// orderedMap renders as a JSON object with keys emitted in sorted order.
type orderedMap struct {
	keys   []string
	values map[string]any
}

func newOrderedMap(m map[string]any) orderedMap {
	keys := make([]string, 0, len(m))
	values := make(map[string]any, len(m))
	for k, v := range m {
		keys = append(keys, k)
		values[k] = sortedCopy(v)
	}
	sort.Strings(keys)
	return orderedMap{keys: keys, values: values}
}

func (o orderedMap) MarshalJSON() ([]byte, error) {
	return marshalOrdered(o)
}
