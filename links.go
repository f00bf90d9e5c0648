package edwa

import (
	"context"
	"html"
	"io"
	"net/http"
	"net/url"

	"github.com/a-h/templ"
)

// Form/query parameter names for the two tokens.
const (
	PageParam   = "edwa.page"
	ActionParam = "edwa.action"
)

// MaxURLLength is the practical ceiling for links that must work in
// every browser and proxy. Callers switch to form-body transport when
// Href output exceeds it; the engine exposes both representations and
// chooses neither.
const MaxURLLength = 2000

// Href builds the query-string representation of a token pair. Many
// actions share one page body, so the page travels as its own
// parameter rather than inside each action token.
func Href(base, actionToken, pageToken string) string {
	v := url.Values{}
	v.Set(ActionParam, actionToken)
	v.Set(PageParam, pageToken)
	return base + "?" + v.Encode()
}

// FitsURL reports whether an href is short enough for query-string
// transport.
func FitsURL(href string) bool {
	return len(href) <= MaxURLLength
}

// LinkAttrs returns anchor attributes for query-string transport, for
// use directly in templ templates:
//
//	<a { edwa.LinkAttrs(base, tok, pageTok)... }>Add to cart</a>
func LinkAttrs(base, actionToken, pageToken string) templ.Attributes {
	return templ.Attributes{"href": Href(base, actionToken, pageToken)}
}

// HiddenFields returns the hidden inputs for form-body transport. Put
// them inside a form posting to the application's edwa endpoint when
// the token pair is too large for a URL:
//
//	<form method="post" action="/nav">
//	  @edwa.HiddenFields(actionToken, pageToken)
//	  <button>Recalculate shipping</button>
//	</form>
func HiddenFields(actionToken, pageToken string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<input type="hidden" name="`+ActionParam+`" value="`+html.EscapeString(actionToken)+`">`+
				`<input type="hidden" name="`+PageParam+`" value="`+html.EscapeString(pageToken)+`">`)
		return err
	})
}

// ParseRequest extracts the token pair from a request, accepting both
// query-string and form-body transport.
func ParseRequest(r *http.Request) (actionToken, pageToken string) {
	return r.FormValue(ActionParam), r.FormValue(PageParam)
}

// Render writes a templ component to the HTTP response. A convenience
// for applications whose views render templ templates:
//
//	func cart(r edwa.Request, e *edwa.Engine) error {
//	    req := r.(*viewRequest)
//	    return edwa.Render(req.w, req.r, cartTemplate(e.Context()))
//	}
func Render(w http.ResponseWriter, r *http.Request, component templ.Component) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(r.Context(), w)
}
