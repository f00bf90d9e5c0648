package edwa

// Page is one frame of navigation state: a view handler, the page's
// context, a link to the parent frame, and an optional return binding
// recorded when the page was entered via Call.
//
// Pages are immutable once serialized into an issued token. Every
// mutation path in the engine operates on a fresh value (Clone for
// context mutation, new Pages for transitions), so tokens already in
// client hands keep their meaning forever.
type Page struct {
	handler       string
	ctx           *Context
	parent        *Page
	returnHandler string
	returnContext any
}

func newPage(handler string, ctx *Context, parent *Page) *Page {
	if ctx == nil {
		ctx = NewContext()
	}
	return &Page{handler: handler, ctx: ctx, parent: parent}
}

// Handler returns the registry name of the page's view handler.
func (p *Page) Handler() string {
	return p.handler
}

// Context returns the page's context.
func (p *Page) Context() *Context {
	return p.ctx
}

// Parent returns the page below this one on the stack, or nil for the
// root page.
func (p *Page) Parent() *Page {
	return p.parent
}

// ReturnHandler returns the registry name of the return handler that
// fires when this page returns, or "" if none is pending.
func (p *Page) ReturnHandler() string {
	return p.returnHandler
}

// ReturnContext returns the opaque value delivered to the return
// handler alongside the returned value.
func (p *Page) ReturnContext() any {
	return p.returnContext
}

// Depth returns the number of frames on the stack including this one.
func (p *Page) Depth() int {
	n := 0
	for q := p; q != nil; q = q.parent {
		n++
	}
	return n
}

// Clone returns a semi-deep copy: the context is deep-copied, the
// parent chain is shared. Parents are themselves immutable, so
// sharing them is safe.
func (p *Page) Clone() *Page {
	out := *p
	out.ctx = p.ctx.Clone()
	return &out
}

// Args carries an action's arguments. Pos holds positional arguments;
// KW holds keyword arguments. Either may be empty.
type Args struct {
	Pos []any
	KW  map[string]any
}

// Action is a deferred handler invocation: the registry name of an
// action handler plus its arguments. The page an action runs against
// is not stored in the action itself - the codec binds the action
// token cryptographically (or by keying) to the page token it was
// issued alongside.
type Action struct {
	handler string
	args    Args
}

// Handler returns the registry name of the action handler.
func (a *Action) Handler() string {
	return a.handler
}

// Args returns the action's arguments.
func (a *Action) Args() Args {
	return a.args
}
