package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/edwago/edwa"
)

// webRequest carries the HTTP pair through the engine to the views.
type webRequest struct {
	w http.ResponseWriter
	r *http.Request
}

// app holds the frozen registry and the handler references the views
// and actions use to link to each other.
type app struct {
	reg   *edwa.Registry
	codec edwa.Codec

	shopView     edwa.ViewRef
	shippingView edwa.ViewRef

	addOne    edwa.ActionRef
	removeOne edwa.ActionRef

	rateApplied edwa.ReturnRef
}

func newApp(key []byte) *app {
	codec, err := edwa.NewSignedCodec(key)
	if err != nil {
		log.Fatal(err)
	}
	a := &app{reg: edwa.NewRegistry(), codec: codec}

	a.shopView = a.reg.View("store.shop", a.renderShop)
	a.shippingView = a.reg.View("store.shipping", a.renderShipping)

	a.addOne = a.reg.Action("store.addOne", func(r edwa.Request, e *edwa.Engine, args edwa.Args) error {
		sku, _ := args.Pos[0].(string)
		if _, ok := productBySKU(sku); !ok {
			return fmt.Errorf("unknown product %q", sku)
		}
		items := cartItems(e.Context())
		items[sku] = asInt(items[sku]) + 1
		e.Context().Set("items", items)
		return nil
	})
	a.removeOne = a.reg.Action("store.removeOne", func(r edwa.Request, e *edwa.Engine, args edwa.Args) error {
		sku, _ := args.Pos[0].(string)
		items := cartItems(e.Context())
		if n := asInt(items[sku]); n > 1 {
			items[sku] = n - 1
		} else {
			delete(items, sku)
		}
		e.Context().Set("items", items)
		return nil
	})

	// Fires when the shipping subroutine returns. A nil value means
	// the user cancelled; the cart keeps its previous rate.
	a.rateApplied = a.reg.OnReturn("store.rateApplied", func(e *edwa.Engine, value, rctx any) error {
		if code, ok := value.(string); ok {
			e.Context().Set("ship", code)
		}
		return nil
	})
	return a
}

// handle serves every page: no tokens means a fresh session, a token
// pair means an action against existing state.
func (a *app) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	e := edwa.New(a.reg, a.codec)
	req := &webRequest{w: w, r: r}

	actionTok, pageTok := edwa.ParseRequest(r)
	var err error
	if actionTok == "" || pageTok == "" {
		_, err = e.Start(req, a.shopView, map[string]any{"items": map[string]any{}})
	} else {
		_, err = e.Run(req, actionTok, pageTok)
	}
	switch {
	case err == nil:
	case edwa.IsTampering(err), edwa.IsResolution(err):
		http.Error(w, "this link is stale or has been altered", http.StatusBadRequest)
	default:
		log.Printf("request failed: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func main() {
	// In production, load a real secret.
	a := newApp([]byte("example-key-must-be-32-bytes!!"))

	mux := http.NewServeMux()
	mux.HandleFunc("/", a.handle)

	addr := ":8080"
	fmt.Printf("Starting store at http://localhost%s\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

// cartItems reads the sku -> quantity map out of the page context.
func cartItems(c *edwa.Context) map[string]any {
	if items, ok := c.Get("items"); ok {
		if m, ok := items.(map[string]any); ok {
			return m
		}
	}
	return map[string]any{}
}

// asInt widens the integer shapes a context value can decode to.
func asInt(v any) int64 {
	switch n := v.(type) {
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
