package main

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/edwago/edwa"
)

// renderShop shows the catalog and the cart side by side. Every link
// on the page is a minted action token bound to this page's state.
func (a *app) renderShop(r edwa.Request, e *edwa.Engine) error {
	req := r.(*webRequest)
	pageTok, err := e.PageToken()
	if err != nil {
		return err
	}
	items := cartItems(e.Context())

	link := func(tok string, err error) (string, error) {
		if err != nil {
			return "", err
		}
		return edwa.Href("/", tok, pageTok), nil
	}

	type catalogRow struct {
		p       Product
		addHref string
	}
	rows := make([]catalogRow, 0, len(catalog))
	for _, p := range catalog {
		href, err := link(e.MakeAction(a.addOne, p.SKU))
		if err != nil {
			return err
		}
		rows = append(rows, catalogRow{p: p, addHref: href})
	}

	type cartRow struct {
		p          Product
		qty        int64
		removeHref string
	}
	var cart []cartRow
	var subtotal int64
	for _, p := range catalog {
		qty := asInt(items[p.SKU])
		if qty == 0 {
			continue
		}
		href, err := link(e.MakeAction(a.removeOne, p.SKU))
		if err != nil {
			return err
		}
		cart = append(cart, cartRow{p: p, qty: qty, removeHref: href})
		subtotal += qty * p.Cents
	}

	// Entering the rate picker is a call: when it returns, rateApplied
	// fires against this page.
	shipHref, err := link(e.MakeCall(a.shippingView, nil, a.rateApplied, nil))
	if err != nil {
		return err
	}

	var shipLine string
	total := subtotal
	if opt, ok := shippingByCode(e.Context().GetString("ship")); ok {
		shipLine = fmt.Sprintf("%s, %s", opt.Label, dollars(opt.Cents))
		total += opt.Cents
	}

	page := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writePageOpen(w, "Store")
		fmt.Fprint(w, "<h2>Catalog</h2><ul>")
		for _, row := range rows {
			fmt.Fprintf(w, `<li>%s (%s) <a href="%s">Add to cart</a></li>`,
				html.EscapeString(row.p.Name), dollars(row.p.Cents), html.EscapeString(row.addHref))
		}
		fmt.Fprint(w, "</ul><h2>Cart</h2>")
		if len(cart) == 0 {
			fmt.Fprint(w, "<p>Your cart is empty.</p>")
		} else {
			fmt.Fprint(w, "<ul>")
			for _, row := range cart {
				fmt.Fprintf(w, `<li>%d &times; %s = %s <a href="%s">Remove</a></li>`,
					row.qty, html.EscapeString(row.p.Name), dollars(row.qty*row.p.Cents),
					html.EscapeString(row.removeHref))
			}
			fmt.Fprintf(w, "</ul><p>Subtotal: %s</p>", dollars(subtotal))
			if shipLine != "" {
				fmt.Fprintf(w, "<p>Shipping: %s</p><p><strong>Total: %s</strong></p>",
					html.EscapeString(shipLine), dollars(total))
			}
			fmt.Fprintf(w, `<p><a href="%s">Choose shipping</a></p>`, html.EscapeString(shipHref))
		}
		writePageClose(w)
		return nil
	})
	return edwa.Render(req.w, req.r, page)
}

// renderShipping is the called subroutine: picking a rate (or
// cancelling) returns to whichever page called it.
func (a *app) renderShipping(r edwa.Request, e *edwa.Engine) error {
	req := r.(*webRequest)
	pageTok, err := e.PageToken()
	if err != nil {
		return err
	}

	type optionRow struct {
		opt  ShippingOption
		href string
	}
	rows := make([]optionRow, 0, len(shippingOptions))
	for _, opt := range shippingOptions {
		tok, err := e.MakeReturn(opt.Code)
		if err != nil {
			return err
		}
		rows = append(rows, optionRow{opt: opt, href: edwa.Href("/", tok, pageTok)})
	}
	cancelTok, err := e.MakeReturn(nil)
	if err != nil {
		return err
	}
	cancelHref := edwa.Href("/", cancelTok, pageTok)

	page := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		writePageOpen(w, "Choose shipping")
		fmt.Fprint(w, "<ul>")
		for _, row := range rows {
			fmt.Fprintf(w, `<li><a href="%s">%s (%s)</a></li>`,
				html.EscapeString(row.href), html.EscapeString(row.opt.Label), dollars(row.opt.Cents))
		}
		fmt.Fprint(w, "</ul>")
		fmt.Fprintf(w, `<p><a href="%s">Back without choosing</a></p>`, html.EscapeString(cancelHref))
		writePageClose(w)
		return nil
	})
	return edwa.Render(req.w, req.r, page)
}

func writePageOpen(w io.Writer, title string) {
	fmt.Fprintf(w, `<!doctype html><html><head><title>%s</title></head><body><h1>%s</h1>`,
		html.EscapeString(title), html.EscapeString(title))
}

func writePageClose(w io.Writer) {
	fmt.Fprint(w, "</body></html>")
}
