package encoding

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// PackFields serializes an ordered field array, eliding trailing
// absent (nil) fields to keep tokens small. The elision is purely a
// size optimization: UnpackFields returns exactly the fields that
// were present, and readers treat missing trailing positions as
// absent.
//
// Numbers encode in their smallest representation regardless of the
// Go type carrying them, so int(7) and the int64(7) a decode produces
// marshal to identical bytes. Re-encoding a decoded value is
// byte-stable, which page tokens and context fingerprints both rely
// on.
func PackFields(fields []any) ([]byte, error) {
	n := len(fields)
	for n > 0 && fields[n-1] == nil {
		n--
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.UseCompactInts(true)
	enc.UseCompactFloats(true)
	if err := enc.Encode(fields[:n]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnpackFields deserializes a field array produced by PackFields.
// Integers decode as int64 and floats as float64 regardless of their
// encoded width, so values compare predictably after a round-trip.
func UnpackFields(data []byte) ([]any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	v, err := dec.DecodeInterface()
	if err != nil {
		return nil, fmt.Errorf("encoding: decode fields: %w", err)
	}
	fields, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("encoding: expected field array, got %T", v)
	}
	return fields, nil
}
