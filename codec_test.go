package edwa

import (
	"fmt"
	"testing"
)

// stubStore is a minimal in-test Store; the real implementations live
// in lib/storage.
type stubStore struct {
	blobs map[string]map[string][]byte
	next  int
}

func newStubStore() *stubStore {
	return &stubStore{blobs: make(map[string]map[string][]byte)}
}

func (s *stubStore) Put(scope string, data []byte) (string, error) {
	s.next++
	id := fmt.Sprintf("%032x", s.next)
	m, ok := s.blobs[scope]
	if !ok {
		m = make(map[string][]byte)
		s.blobs[scope] = m
	}
	m[id] = data
	return id, nil
}

func (s *stubStore) Get(scope, id string) ([]byte, error) {
	data, ok := s.blobs[scope][id]
	if !ok {
		return nil, fmt.Errorf("stub: no blob %s/%s", scope, id)
	}
	return data, nil
}

func testCodecs(t *testing.T) map[string]Codec {
	t.Helper()
	signed, err := NewSignedCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewSignedCodec failed: %v", err)
	}
	sealed, err := NewSealedCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewSealedCodec failed: %v", err)
	}
	return map[string]Codec{
		"signed": signed,
		"sealed": sealed,
		"stored": NewStoredCodec(newStubStore(), "session-1"),
	}
}

// testStack builds a two-frame stack with a pending return binding.
func testStack() *Page {
	root := newPage("shop.product", ContextFrom(map[string]any{"sku": "X1", "qty": 2}), nil)
	cart := newPage("shop.cart", ContextFrom(map[string]any{"items": []any{"X1"}}), root)
	cart.returnHandler = "shop.applied"
	cart.returnContext = "EXTRA"
	return cart
}

func pagesEquivalent(t *testing.T, got, want *Page) {
	t.Helper()
	for want != nil {
		if got == nil {
			t.Fatal("decoded stack is shorter than the original")
		}
		if got.handler != want.handler {
			t.Errorf("handler: got %q, want %q", got.handler, want.handler)
		}
		if !got.ctx.Equal(want.ctx) {
			t.Errorf("context mismatch on %q", want.handler)
		}
		if got.returnHandler != want.returnHandler {
			t.Errorf("return handler: got %q, want %q", got.returnHandler, want.returnHandler)
		}
		if fmt.Sprint(got.returnContext) != fmt.Sprint(want.returnContext) {
			t.Errorf("return context: got %v, want %v", got.returnContext, want.returnContext)
		}
		got, want = got.parent, want.parent
	}
	if got != nil {
		t.Fatal("decoded stack is longer than the original")
	}
}

func TestPageRoundTrip(t *testing.T) {
	for name, codec := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			orig := testStack()
			token, err := codec.EncodePage(orig)
			if err != nil {
				t.Fatalf("EncodePage failed: %v", err)
			}

			got, err := codec.DecodePage(token)
			if err != nil {
				t.Fatalf("DecodePage failed: %v", err)
			}
			pagesEquivalent(t, got, orig)
		})
	}
}

func TestActionRoundTrip(t *testing.T) {
	for name, codec := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			pageTok, err := codec.EncodePage(testStack())
			if err != nil {
				t.Fatalf("EncodePage failed: %v", err)
			}

			orig := &Action{
				handler: "shop.add",
				args: Args{
					Pos: []any{"X1", int64(3)},
					KW:  map[string]any{"gift": true},
				},
			}
			token, err := codec.EncodeAction(orig, pageTok)
			if err != nil {
				t.Fatalf("EncodeAction failed: %v", err)
			}

			got, err := codec.DecodeAction(token, pageTok)
			if err != nil {
				t.Fatalf("DecodeAction failed: %v", err)
			}
			if got.handler != orig.handler {
				t.Errorf("handler: got %q, want %q", got.handler, orig.handler)
			}
			if len(got.args.Pos) != 2 || got.args.Pos[0] != "X1" || got.args.Pos[1] != int64(3) {
				t.Errorf("pos args: got %#v", got.args.Pos)
			}
			if gift, ok := got.args.KW["gift"].(bool); !ok || !gift {
				t.Errorf("kw args: got %#v", got.args.KW)
			}
		})
	}
}

func TestActionWithoutArgsRoundTrip(t *testing.T) {
	for name, codec := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			pageTok, err := codec.EncodePage(testStack())
			if err != nil {
				t.Fatalf("EncodePage failed: %v", err)
			}
			token, err := codec.EncodeAction(&Action{handler: "shop.refresh"}, pageTok)
			if err != nil {
				t.Fatalf("EncodeAction failed: %v", err)
			}
			got, err := codec.DecodeAction(token, pageTok)
			if err != nil {
				t.Fatalf("DecodeAction failed: %v", err)
			}
			if got.handler != "shop.refresh" || len(got.args.Pos) != 0 || len(got.args.KW) != 0 {
				t.Errorf("got %#v", got)
			}
		})
	}
}

func TestMixAndMatchRejected(t *testing.T) {
	for name, codec := range testCodecs(t) {
		t.Run(name, func(t *testing.T) {
			pageA, err := codec.EncodePage(newPage("shop.product", nil, nil))
			if err != nil {
				t.Fatalf("EncodePage A failed: %v", err)
			}
			pageB, err := codec.EncodePage(newPage("shop.cart", nil, nil))
			if err != nil {
				t.Fatalf("EncodePage B failed: %v", err)
			}

			token, err := codec.EncodeAction(&Action{handler: "shop.add"}, pageA)
			if err != nil {
				t.Fatalf("EncodeAction failed: %v", err)
			}

			if _, err := codec.DecodeAction(token, pageA); err != nil {
				t.Fatalf("action rejected against its own page: %v", err)
			}
			if _, err := codec.DecodeAction(token, pageB); !IsTampering(err) {
				t.Errorf("mix-and-match: got %v, want ErrTampering", err)
			}
		})
	}
}

func TestSignedCodecRejectsByteFlips(t *testing.T) {
	codec, err := NewSignedCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewSignedCodec failed: %v", err)
	}

	pageTok, err := codec.EncodePage(testStack())
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}
	actionTok, err := codec.EncodeAction(&Action{handler: "shop.add"}, pageTok)
	if err != nil {
		t.Fatalf("EncodeAction failed: %v", err)
	}

	// Flip every character of the action token (signature and data
	// segments alike).
	for i := range actionTok {
		if actionTok[i] == '.' {
			continue
		}
		flipped := actionTok[:i] + string(actionTok[i]^1) + actionTok[i+1:]
		if flipped == actionTok {
			continue
		}
		if _, err := codec.DecodeAction(flipped, pageTok); !IsTampering(err) {
			t.Fatalf("flipped action byte %d: got %v, want ErrTampering", i, err)
		}
	}

	// Flip every character of the accompanying page token.
	for i := range pageTok {
		flipped := pageTok[:i] + string(pageTok[i]^1) + pageTok[i+1:]
		if flipped == pageTok {
			continue
		}
		if _, err := codec.DecodeAction(actionTok, flipped); !IsTampering(err) {
			t.Fatalf("flipped page byte %d: got %v, want ErrTampering", i, err)
		}
	}
}

func TestSealedCodecRejectsGarbage(t *testing.T) {
	codec, err := NewSealedCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewSealedCodec failed: %v", err)
	}

	if _, err := codec.DecodePage("!!garbage!!"); !IsTampering(err) {
		t.Errorf("garbage page token: got %v, want ErrTampering", err)
	}
	if _, err := codec.DecodeAction("AAAAAAAA", "page"); !IsTampering(err) {
		t.Errorf("garbage action token: got %v, want ErrTampering", err)
	}
}

func TestStoredCodecRejectsUnknownIDs(t *testing.T) {
	codec := NewStoredCodec(newStubStore(), "session-1")

	if _, err := codec.DecodePage("no-such-id"); !IsTampering(err) {
		t.Errorf("unknown page id: got %v, want ErrTampering", err)
	}
	if _, err := codec.DecodeAction("no-such-id", "no-such-page"); !IsTampering(err) {
		t.Errorf("unknown action id: got %v, want ErrTampering", err)
	}
}

func TestSignedPageTokensAreDeterministic(t *testing.T) {
	// Logical page content maps to one token text, which matters
	// because action signatures bind to that exact text.
	codec, err := NewSignedCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewSignedCodec failed: %v", err)
	}

	a, err := codec.EncodePage(testStack())
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}
	b, err := codec.EncodePage(testStack())
	if err != nil {
		t.Fatalf("EncodePage failed: %v", err)
	}
	if a != b {
		t.Error("equal pages encoded to different tokens")
	}
}
