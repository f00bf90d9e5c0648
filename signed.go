package edwa

import (
	"fmt"

	"github.com/edwago/edwa/lib/encoding"
)

// SignedCodec is the base client-custody codec. Page tokens are
// compressed, base64url-encoded page bytes - visible to a savvy
// client but compact. Action tokens carry an HMAC-SHA256 signature
// computed over the action bytes and the page token text together:
//
//	actionToken = b64url(mac) "." b64url(deflate(action))
//	mac         = HMAC(secret, actionSegment "." pageToken)
//
// Page tokens are not independently signed; they are validated only
// in combination with a verified action, whose signature covers them.
// An action replayed against any other page token fails verification.
type SignedCodec struct {
	env *encoding.Envelope
}

// NewSignedCodec creates a signed codec from a secret key. Keys
// shorter than 32 bytes are strengthened by SHA-256 derivation.
func NewSignedCodec(secret []byte) (*SignedCodec, error) {
	env, err := encoding.NewEnvelope(secret)
	if err != nil {
		return nil, err
	}
	return &SignedCodec{env: env}, nil
}

// EncodePage serializes a page (and its whole ancestor chain) into a
// compact URL-safe token.
func (c *SignedCodec) EncodePage(p *Page) (string, error) {
	raw, err := marshalPage(p)
	if err != nil {
		return "", err
	}
	return encoding.Pack(raw)
}

// DecodePage reconstructs a page stack from a token. Malformed input
// fails with ErrTampering.
func (c *SignedCodec) DecodePage(token string) (*Page, error) {
	raw, err := encoding.Unpack(token)
	if err != nil {
		return nil, fmt.Errorf("%w: page token: %v", ErrTampering, err)
	}
	p, err := unmarshalPage(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: page token: %v", ErrTampering, err)
	}
	return p, nil
}

// EncodeAction serializes an action and signs it bound to pageToken.
func (c *SignedCodec) EncodeAction(a *Action, pageToken string) (string, error) {
	raw, err := marshalAction(a)
	if err != nil {
		return "", err
	}
	return c.env.Sign(raw, pageToken)
}

// DecodeAction verifies the action signature against pageToken before
// any structural decode, then reconstructs the action.
func (c *SignedCodec) DecodeAction(actionToken, pageToken string) (*Action, error) {
	raw, err := c.env.Verify(actionToken, pageToken)
	if err != nil {
		return nil, fmt.Errorf("%w: action token: %v", ErrTampering, err)
	}
	a, err := unmarshalAction(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: action token: %v", ErrTampering, err)
	}
	return a, nil
}

var _ Codec = (*SignedCodec)(nil)
