// Package edwa implements continuation-passing navigation for web
// applications: a server-side page stack with call/return semantics,
// serialized into tamper-proof tokens that live on the client between
// requests.
//
// edwa suits applications that behave like desktop programs - dynamic,
// stack-like navigation where links carry out actions rather than just
// display information. The canonical example is a web store: a product
// page links into a shopping cart, the cart calls into a shipping
// preferences "subroutine", returning from it lands back on the cart
// with the new preferences applied, and returning again restores the
// original product page.
//
// # Core Concepts
//
// A Page is one frame of navigation state: a view handler, an ordered
// Context of page data, a parent link forming the stack, and an
// optional return binding. An Action is a deferred handler invocation
// bound to the exact page it was created against. Both are serialized
// by a Codec into compact URL-safe tokens.
//
// Pages are immutable once issued: a bookmarked or emailed token keeps
// its meaning forever, the back button keeps working, and opening a
// second tab forks the navigation without corrupting either branch.
// Mutation during an action always operates on a fresh copy.
//
// # Handlers and the Registry
//
// Handlers are resolved by stable name through an explicit Registry,
// built once at startup. Registration returns a typed ref used in
// navigation calls; tokens store only the name, so they survive
// process restarts as long as the handler still exists:
//
//	reg := edwa.NewRegistry()
//	cart := reg.View("shop.cart", renderCart)
//	add := reg.Action("shop.add", handleAdd)
//
// # Request Lifecycle
//
// One Engine services one request end to end:
//
//	e := edwa.New(reg, codec)
//	pageTok, err := e.Run(req, actionTok, prevPageTok)
//
// Run verifies the action token against the raw page token bytes,
// decodes the page stack, executes the action (which may call Goto,
// Call, Return, or mutate the context), re-encodes the resulting page,
// and renders the now-current view. Views are pure: they may mint new
// action tokens via the Make* family but must never navigate -
// violations panic.
//
// # Token Security
//
// Three Codec implementations cover the page-state retention
// strategies:
//
//   - SignedCodec: pages travel as visible compressed tokens; actions
//     carry an HMAC-SHA256 signature computed over both the action
//     bytes and the page token, so an action replayed against any
//     other page is rejected.
//   - SealedCodec: both tokens are AES-256-GCM encrypted and opaque;
//     actions embed a hash of the page ciphertext for the same
//     binding.
//   - StoredCodec: tokens are opaque ids and the bytes stay
//     server-side in a Store (SQLite or in-memory); actions are keyed
//     under their page so mixing is impossible by construction.
//
// Any signature mismatch, malformed token, or action/page mismatch
// surfaces as ErrTampering before any structural decode is attempted.
package edwa
