package edwa

import "fmt"

// Engine modes. Transitions (Goto/Call/Return) are legal only while
// handling an action; minting tokens (Make*) is legal only while the
// current page is finalized, i.e. outside action handling.
type mode int

const (
	modeIdle mode = iota
	modeAction
	modeRender
)

// Built-in navigation actions. These are dispatched by the engine
// itself and can never be registered by applications (the registry
// reserves the "edwa." prefix).
const (
	actNoop   = "edwa.noop"
	actGoto   = "edwa.goto"
	actCall   = "edwa.call"
	actReturn = "edwa.return"
)

// Engine orchestrates one request end to end: decode incoming tokens,
// execute the pending action against the page stack, re-encode the
// resulting page, and render the current view.
//
// An Engine is single-threaded and serves one logical request at a
// time; construct a fresh one per request (they are cheap - all
// durable state lives in the tokens or the codec's store). Handler
// misuse of the API - navigating during render, returning past the
// root, minting actions mid-action - panics; token and resolution
// failures return errors.
type Engine struct {
	reg   *Registry
	codec Codec

	mode mode
	curr *Page

	// pageToken caches the encoded form of curr; "" means stale.
	// Action tokens bind to this exact text, so it is only ever
	// produced from a finalized page.
	pageToken string
}

// New creates an engine over a frozen registry and a codec.
func New(reg *Registry, codec Codec) *Engine {
	if reg == nil {
		panic("edwa: New requires a registry")
	}
	if codec == nil {
		panic("edwa: New requires a codec")
	}
	return &Engine{reg: reg, codec: codec}
}

// Start begins a session: the stack becomes a single root page for
// the given view, the view renders, and the page token for the new
// root is returned. Use for the first request of a conversation.
func (e *Engine) Start(r Request, view ViewRef, initial map[string]any) (string, error) {
	if e.mode != modeIdle {
		panic("edwa: Start called while a request is in flight")
	}
	if view.IsZero() {
		panic("edwa: Start requires a registered view")
	}
	e.setPage(newPage(view.name, ContextFrom(initial), nil), false)
	return e.render(r)
}

// Run executes one action request: the action token is verified
// against the raw page token before anything is structurally decoded,
// the page stack is reconstructed, the action handler runs (and may
// navigate or mutate the context), the resulting page is re-encoded,
// and its view renders. The new page token is returned.
func (e *Engine) Run(r Request, actionToken, pageToken string) (string, error) {
	if e.mode != modeIdle {
		panic("edwa: Run called while a request is in flight")
	}

	a, err := e.codec.DecodeAction(actionToken, pageToken)
	if err != nil {
		return "", err
	}
	p, err := e.codec.DecodePage(pageToken)
	if err != nil {
		return "", err
	}

	// Copy-on-write: the handler mutates this request's clone, never
	// the page value embedded in the already-issued token.
	e.setPage(p, true)

	e.mode = modeAction
	err = e.dispatch(r, a)
	e.mode = modeIdle
	if err != nil {
		return "", err
	}

	return e.render(r)
}

// Context returns the current page's context. Actions mutate it
// freely; the mutations affect only this request's copy.
func (e *Engine) Context() *Context {
	return e.mustPage().ctx
}

// Page returns the current page.
func (e *Engine) Page() *Page {
	return e.mustPage()
}

// PageToken returns the encoded token of the current page, encoding
// it if needed. Panics mid-action: the page is not finalized until
// the action handler has run to completion.
func (e *Engine) PageToken() (string, error) {
	return e.finalizePage()
}

// Goto replaces the current page with a new one sharing the same
// parent, discarding the old top of the stack. A pending return
// binding on the discarded page carries over to the new one, so a
// goto inside a called subroutine does not break the eventual return.
// Legal only while handling an action.
func (e *Engine) Goto(view ViewRef, context map[string]any) {
	if view.IsZero() {
		panic("edwa: Goto requires a registered view")
	}
	old := e.mustPage()
	p := newPage(view.name, ContextFrom(context), old.parent)
	p.returnHandler = old.returnHandler
	p.returnContext = old.returnContext
	e.setPage(p, false)
}

// Call pushes a new page whose parent is the current page. When the
// new page eventually returns, onReturn fires with the returned value
// and returnContext. Pass a zero ReturnRef for a plain call with no
// return handler. Legal only while handling an action.
func (e *Engine) Call(view ViewRef, context map[string]any, onReturn ReturnRef, returnContext any) {
	if view.IsZero() {
		panic("edwa: Call requires a registered view")
	}
	old := e.mustPage()
	p := newPage(view.name, ContextFrom(context), old)
	p.returnHandler = onReturn.name
	p.returnContext = returnContext
	e.setPage(p, false)
}

// Return pops the current page and makes its parent current. If the
// popped page carried a return handler, it fires immediately - before
// the parent renders - so it can inject value into the parent's
// context. Returning from the root page is a programming error and
// panics. Legal only while handling an action.
func (e *Engine) Return(value any) error {
	child := e.mustPage()
	if child.parent == nil {
		panic("edwa: Return with no parent page on the stack")
	}
	// Clone the parent: the return handler mutates this request's
	// copy, not the value shared with previously issued tokens.
	e.setPage(child.parent, true)

	if child.returnHandler == "" {
		return nil
	}
	fn, err := e.reg.resolveReturn(child.returnHandler)
	if err != nil {
		return err
	}
	return fn(e, value, child.returnContext)
}

// MakeAction mints a token that will invoke the given action handler
// with positional arguments when submitted back through Run. Legal
// only outside action handling, because the token binds to the
// finalized page.
func (e *Engine) MakeAction(action ActionRef, pos ...any) (string, error) {
	if action.IsZero() {
		panic("edwa: MakeAction requires a registered action")
	}
	return e.makeAction(action.name, Args{Pos: pos})
}

// MakeActionKW is MakeAction with keyword arguments as well.
func (e *Engine) MakeActionKW(action ActionRef, pos []any, kw map[string]any) (string, error) {
	if action.IsZero() {
		panic("edwa: MakeActionKW requires a registered action")
	}
	return e.makeAction(action.name, Args{Pos: pos, KW: kw})
}

// MakeNoop mints a token that re-displays the current view unchanged.
func (e *Engine) MakeNoop() (string, error) {
	return e.makeAction(actNoop, Args{})
}

// MakeGoto mints a token that replaces the current view when
// submitted. The shortcut for links that navigate without running an
// application action.
func (e *Engine) MakeGoto(view ViewRef, context map[string]any) (string, error) {
	if view.IsZero() {
		panic("edwa: MakeGoto requires a registered view")
	}
	return e.makeAction(actGoto, Args{Pos: []any{view.name, anyMap(context)}})
}

// MakeCall mints a token that pushes the given view when submitted,
// recording the return binding on the new page.
func (e *Engine) MakeCall(view ViewRef, context map[string]any, onReturn ReturnRef, returnContext any) (string, error) {
	if view.IsZero() {
		panic("edwa: MakeCall requires a registered view")
	}
	var rh any
	if !onReturn.IsZero() {
		rh = onReturn.name
	}
	return e.makeAction(actCall, Args{Pos: []any{view.name, anyMap(context), rh, returnContext}})
}

// MakeReturn mints a token that pops the current page when submitted,
// delivering value to the pending return handler if one exists.
func (e *Engine) MakeReturn(value any) (string, error) {
	return e.makeAction(actReturn, Args{Pos: []any{value}})
}

func (e *Engine) makeAction(handler string, args Args) (string, error) {
	if e.mode == modeAction {
		panic("edwa: cannot create actions during an action; page state is not finalized")
	}
	pageTok, err := e.finalizePage()
	if err != nil {
		return "", err
	}
	return e.codec.EncodeAction(&Action{handler: handler, args: args}, pageTok)
}

// setPage installs a newly current page. Transitions are action-only:
// a rendering view constructs future actions, it never executes
// navigation itself.
func (e *Engine) setPage(p *Page, clone bool) {
	if e.mode == modeRender {
		panic("edwa: cannot change location during rendering; did you mean MakeGoto/MakeCall/MakeReturn?")
	}
	if clone {
		p = p.Clone()
	}
	e.curr = p
	e.pageToken = ""
}

// finalizePage encodes the current page once and caches the token.
func (e *Engine) finalizePage() (string, error) {
	if e.mode == modeAction {
		panic("edwa: page state is not finalized during an action")
	}
	p := e.mustPage()
	if e.pageToken == "" {
		tok, err := e.codec.EncodePage(p)
		if err != nil {
			return "", err
		}
		e.pageToken = tok
	}
	return e.pageToken, nil
}

// render finalizes the current page, then invokes its view with the
// engine in render mode so navigation attempts fail fast.
func (e *Engine) render(r Request) (string, error) {
	tok, err := e.finalizePage()
	if err != nil {
		return "", err
	}
	fn, err := e.reg.resolveView(e.curr.handler)
	if err != nil {
		return "", err
	}

	e.mode = modeRender
	defer func() { e.mode = modeIdle }()
	if err := fn(r, e); err != nil {
		return "", err
	}
	return tok, nil
}

// dispatch routes an action to its handler, intercepting the built-in
// navigation actions.
func (e *Engine) dispatch(r Request, a *Action) error {
	switch a.handler {
	case actNoop:
		return nil

	case actGoto:
		name, ctx, err := navTarget(a.args.Pos)
		if err != nil {
			return err
		}
		e.Goto(ViewRef{name: name}, ctx)
		return nil

	case actCall:
		name, ctx, err := navTarget(a.args.Pos)
		if err != nil {
			return err
		}
		var onReturn ReturnRef
		if rh, ok := fieldAt(a.args.Pos, 2).(string); ok {
			onReturn = ReturnRef{name: rh}
		}
		e.Call(ViewRef{name: name}, ctx, onReturn, fieldAt(a.args.Pos, 3))
		return nil

	case actReturn:
		return e.Return(fieldAt(a.args.Pos, 0))

	default:
		fn, err := e.reg.resolveAction(a.handler)
		if err != nil {
			return err
		}
		return fn(r, e, a.args)
	}
}

// navTarget extracts the view name and context of a built-in goto or
// call action. These arguments are engine-produced; a malformed shape
// means the token did not come from this library.
func navTarget(pos []any) (string, map[string]any, error) {
	name, ok := fieldAt(pos, 0).(string)
	if !ok || name == "" {
		return "", nil, fmt.Errorf("%w: malformed navigation action", ErrTampering)
	}
	ctx, _ := fieldAt(pos, 1).(map[string]any)
	return name, ctx, nil
}

func (e *Engine) mustPage() *Page {
	if e.curr == nil {
		panic("edwa: no active page; call Start or Run first")
	}
	return e.curr
}

// anyMap keeps an empty context off the wire.
func anyMap(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	return m
}
