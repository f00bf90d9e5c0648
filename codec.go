package edwa

// Codec serializes pages and actions into client-safe tokens and back.
// The engine depends only on this interface; the three implementations
// differ in where page state lives and how much the client can see:
//
//   - SignedCodec: state in the token, visible, HMAC tamper-proof
//   - SealedCodec: state in the token, AES-GCM encrypted and opaque
//   - StoredCodec: state server-side, tokens are opaque ids
//
// EncodeAction and DecodeAction take the page token the action belongs
// to: every implementation must bind an action to the exact page it
// was issued against, so that pairing the action with any other page
// fails with ErrTampering (mix-and-match rejection). Implementations
// must verify that binding before structurally decoding any payload.
type Codec interface {
	EncodePage(p *Page) (string, error)
	DecodePage(token string) (*Page, error)
	EncodeAction(a *Action, pageToken string) (string, error)
	DecodeAction(actionToken, pageToken string) (*Action, error)
}

// Store is the persistence contract consumed by StoredCodec. Put
// writes a blob under a scope and returns its generated id; Get
// retrieves it. Implementations need no cross-request locking: the
// engine is single-writer per session, and any external serialization
// (for example one transaction per request) is the store's caller's
// concern.
type Store interface {
	Put(scope string, data []byte) (id string, err error)
	Get(scope, id string) ([]byte, error)
}
