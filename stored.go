package edwa

import (
	"fmt"

	"github.com/edwago/edwa/lib/encoding"
)

// StoredCodec keeps page and action bytes server-side and hands the
// client only opaque ids, for sessions whose state outgrows what a
// URL can carry. Blobs are compressed and written through the Store
// contract; the scope keys blobs to one session, and action blobs are
// additionally keyed under the page id they were issued against, so
// an action id presented with a different page id simply does not
// resolve - binding by keying rather than by signature.
//
// Tokens produced by this codec depend on the store's availability
// and cannot be emailed or used after the store is pruned; that is
// the trade for unbounded state size.
type StoredCodec struct {
	store Store
	scope string
}

// NewStoredCodec creates a store-backed codec. The scope identifies
// the session (or user) the tokens belong to; callers typically use
// their session id.
func NewStoredCodec(store Store, scope string) *StoredCodec {
	if store == nil {
		panic("edwa: StoredCodec requires a store")
	}
	return &StoredCodec{store: store, scope: scope}
}

func (c *StoredCodec) pageScope() string {
	return c.scope + "/page"
}

func (c *StoredCodec) actionScope(pageToken string) string {
	return c.scope + "/action/" + pageToken
}

// EncodePage writes the compressed page bytes to the store and
// returns the generated id.
func (c *StoredCodec) EncodePage(p *Page) (string, error) {
	raw, err := marshalPage(p)
	if err != nil {
		return "", err
	}
	compressed, err := encoding.Deflate(raw)
	if err != nil {
		return "", err
	}
	return c.store.Put(c.pageScope(), compressed)
}

// DecodePage fetches and reconstructs a page stack by id. Unknown ids
// fail with ErrTampering.
func (c *StoredCodec) DecodePage(token string) (*Page, error) {
	compressed, err := c.store.Get(c.pageScope(), token)
	if err != nil {
		return nil, fmt.Errorf("%w: page %q: %v", ErrTampering, token, err)
	}
	raw, err := encoding.Inflate(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: page %q: %v", ErrTampering, token, err)
	}
	p, err := unmarshalPage(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: page %q: %v", ErrTampering, token, err)
	}
	return p, nil
}

// EncodeAction writes the compressed action bytes keyed under the
// page id it was issued against.
func (c *StoredCodec) EncodeAction(a *Action, pageToken string) (string, error) {
	raw, err := marshalAction(a)
	if err != nil {
		return "", err
	}
	compressed, err := encoding.Deflate(raw)
	if err != nil {
		return "", err
	}
	return c.store.Put(c.actionScope(pageToken), compressed)
}

// DecodeAction fetches an action by id under the supplied page id.
// An action paired with the wrong page id does not resolve and fails
// with ErrTampering.
func (c *StoredCodec) DecodeAction(actionToken, pageToken string) (*Action, error) {
	compressed, err := c.store.Get(c.actionScope(pageToken), actionToken)
	if err != nil {
		return nil, fmt.Errorf("%w: action %q: %v", ErrTampering, actionToken, err)
	}
	raw, err := encoding.Inflate(compressed)
	if err != nil {
		return nil, fmt.Errorf("%w: action %q: %v", ErrTampering, actionToken, err)
	}
	a, err := unmarshalAction(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: action %q: %v", ErrTampering, actionToken, err)
	}
	return a, nil
}

var _ Codec = (*StoredCodec)(nil)
