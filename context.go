package edwa

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/edwago/edwa/lib/encoding"
)

// Context is the ordered key/value state of a single page, analogous
// to the kwargs of the page's view handler.
//
// Keys are strings; values must be serializable (msgpack). Insertion
// order is preserved and is the order keys appear on the wire, but
// content equality ignores order: two contexts holding the same
// entries produce the same Fingerprint regardless of insertion
// history. That property makes fingerprints usable as interning and
// deduplication keys.
//
// A Context embedded in an issued token is never mutated again; the
// engine clones the current page (and its context) before running an
// action, so mutation through Set and Delete always targets the
// in-memory copy of the current request.
type Context struct {
	keys   []string
	values map[string]any
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// ContextFrom creates a context from initial entries. Keys are
// inserted in sorted order so that two maps with equal content build
// identical contexts.
func ContextFrom(initial map[string]any) *Context {
	c := NewContext()
	if len(initial) == 0 {
		return c
	}
	keys := make([]string, 0, len(initial))
	for k := range initial {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		c.Set(k, initial[k])
	}
	return c
}

// Get returns the value for key and whether it is present.
func (c *Context) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the string value for key, or "" if absent or not
// a string.
func (c *Context) GetString(key string) string {
	if v, ok := c.values[key].(string); ok {
		return v
	}
	return ""
}

// GetInt returns the integer value for key, coercing the numeric
// types the wire decoder produces. Returns 0 if absent or not numeric.
func (c *Context) GetInt(key string) int64 {
	switch n := c.values[key].(type) {
	case int:
		return int64(n)
	case int64:
		return n
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// Set stores a value, preserving the key's position if it already
// exists and appending it otherwise.
func (c *Context) Set(key string, value any) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Delete removes a key if present.
func (c *Context) Delete(key string) {
	if _, ok := c.values[key]; !ok {
		return
	}
	delete(c.values, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Has reports whether key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Len returns the number of entries.
func (c *Context) Len() int {
	return len(c.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (c *Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Clone returns a deep copy. Values are copied through a
// serialization round-trip, so a cloned context is indistinguishable
// from one decoded off the wire and shares no mutable state with the
// original.
func (c *Context) Clone() *Context {
	if c == nil {
		return NewContext()
	}
	out := NewContext()
	for _, k := range c.keys {
		raw, err := encoding.PackFields([]any{c.values[k]})
		if err != nil {
			panic(fmt.Sprintf("edwa: context value for %q is not serializable: %v", k, err))
		}
		fields, err := encoding.UnpackFields(raw)
		if err != nil || len(fields) != 1 {
			panic(fmt.Sprintf("edwa: context value for %q did not round-trip: %v", k, err))
		}
		out.Set(k, fields[0])
	}
	return out
}

// Fingerprint returns a content hash over the canonical form of the
// context: entries sorted by key, serialized, then hashed. Equal
// content yields equal fingerprints independent of insertion order.
// Fingerprints are for deduplication and interning, never identity.
func (c *Context) Fingerprint() [32]byte {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	sort.Strings(keys)

	flat := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		flat = append(flat, k, c.values[k])
	}
	raw, err := encoding.PackFields(flat)
	if err != nil {
		panic(fmt.Sprintf("edwa: context is not serializable: %v", err))
	}
	return sha256.Sum256(raw)
}

// Equal reports content equality via fingerprints.
func (c *Context) Equal(other *Context) bool {
	if c == nil || other == nil {
		return c == other
	}
	return c.Fingerprint() == other.Fingerprint()
}

// pairs returns the wire form: a flat [k1, v1, k2, v2, ...] slice in
// insertion order. A flat slice keeps encoding deterministic; Go map
// iteration would not.
func (c *Context) pairs() []any {
	if c == nil || len(c.keys) == 0 {
		return nil
	}
	flat := make([]any, 0, len(c.keys)*2)
	for _, k := range c.keys {
		flat = append(flat, k, c.values[k])
	}
	return flat
}

// contextFromPairs rebuilds a context from its wire form.
func contextFromPairs(flat []any) (*Context, error) {
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("edwa: context pair list has odd length %d", len(flat))
	}
	c := NewContext()
	for i := 0; i < len(flat); i += 2 {
		k, ok := flat[i].(string)
		if !ok {
			return nil, fmt.Errorf("edwa: context key at %d is %T, not string", i, flat[i])
		}
		c.Set(k, flat[i+1])
	}
	return c, nil
}
