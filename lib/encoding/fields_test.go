package encoding

import (
	"bytes"
	"testing"
)

func TestFieldsRoundTrip(t *testing.T) {
	fields := []any{"handler", []any{"k", int64(1)}, []byte{1, 2, 3}}

	raw, err := PackFields(fields)
	if err != nil {
		t.Fatalf("PackFields failed: %v", err)
	}
	got, err := UnpackFields(raw)
	if err != nil {
		t.Fatalf("UnpackFields failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("field count: got %d, want 3", len(got))
	}
	if got[0] != "handler" {
		t.Errorf("field 0: got %v", got[0])
	}
	inner, ok := got[1].([]any)
	if !ok || len(inner) != 2 || inner[0] != "k" || inner[1] != int64(1) {
		t.Errorf("field 1: got %#v", got[1])
	}
	// The loose interface decoder returns bin payloads as string.
	bin, ok := got[2].(string)
	if !ok || bin != "\x01\x02\x03" {
		t.Errorf("field 2: got %#v", got[2])
	}
}

func TestNumberWidthsEncodeCanonically(t *testing.T) {
	// A decode produces int64/uint64/float64; re-encoding those must
	// reproduce the bytes of the compact originals.
	compact, err := PackFields([]any{7, uint(300), 1.5})
	if err != nil {
		t.Fatalf("PackFields failed: %v", err)
	}
	widened, err := PackFields([]any{int64(7), uint64(300), float64(1.5)})
	if err != nil {
		t.Fatalf("PackFields failed: %v", err)
	}
	if !bytes.Equal(compact, widened) {
		t.Errorf("widened numbers encode differently: %x vs %x", compact, widened)
	}

	decoded, err := UnpackFields(compact)
	if err != nil {
		t.Fatalf("UnpackFields failed: %v", err)
	}
	again, err := PackFields(decoded)
	if err != nil {
		t.Fatalf("PackFields failed: %v", err)
	}
	if !bytes.Equal(compact, again) {
		t.Errorf("round-trip not byte-stable: %x vs %x", compact, again)
	}
}

func TestTrailingAbsentFieldsElided(t *testing.T) {
	full, err := PackFields([]any{"h", nil, nil, nil, nil})
	if err != nil {
		t.Fatalf("PackFields failed: %v", err)
	}
	minimal, err := PackFields([]any{"h"})
	if err != nil {
		t.Fatalf("PackFields failed: %v", err)
	}

	if len(full) != len(minimal) {
		t.Errorf("trailing nils not elided: %d bytes vs %d", len(full), len(minimal))
	}

	got, err := UnpackFields(full)
	if err != nil {
		t.Fatalf("UnpackFields failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("decoded field count: got %d, want 1", len(got))
	}
}

func TestInteriorAbsentFieldsKept(t *testing.T) {
	raw, err := PackFields([]any{"h", nil, "parent"})
	if err != nil {
		t.Fatalf("PackFields failed: %v", err)
	}
	got, err := UnpackFields(raw)
	if err != nil {
		t.Fatalf("UnpackFields failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("field count: got %d, want 3", len(got))
	}
	if got[1] != nil {
		t.Errorf("interior nil: got %v", got[1])
	}
	if got[2] != "parent" {
		t.Errorf("field 2: got %v", got[2])
	}
}

func TestUnpackFieldsRejectsNonArray(t *testing.T) {
	if _, err := UnpackFields([]byte{0xc0}); err == nil { // msgpack nil
		t.Error("UnpackFields accepted a non-array payload")
	}
}
