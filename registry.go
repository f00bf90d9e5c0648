package edwa

import (
	"fmt"
	"strings"
)

// Request is the web framework's request object, passed through to
// handlers opaquely. The engine never inspects it.
type Request any

// ViewFunc renders a page. Views must be pure with respect to
// navigation: they may mint action tokens via the Make* family but
// must never call Goto, Call, or Return.
type ViewFunc func(r Request, e *Engine) error

// ActionFunc executes a deferred action. Actions may mutate the
// current page's context and may navigate via Goto, Call, and Return.
type ActionFunc func(r Request, e *Engine, args Args) error

// ReturnFunc handles a value delivered by Return. It runs after the
// child page is popped and before the parent page renders, so it can
// inject the value into the parent's context synchronously.
type ReturnFunc func(e *Engine, value any, returnContext any) error

// ViewRef identifies a registered view by its stable name.
type ViewRef struct{ name string }

// Name returns the registration name.
func (v ViewRef) Name() string { return v.name }

// IsZero reports whether the ref is unset.
func (v ViewRef) IsZero() bool { return v.name == "" }

// ActionRef identifies a registered action handler by its stable name.
type ActionRef struct{ name string }

// Name returns the registration name.
func (a ActionRef) Name() string { return a.name }

// IsZero reports whether the ref is unset.
func (a ActionRef) IsZero() bool { return a.name == "" }

// ReturnRef identifies a registered return handler by its stable name.
type ReturnRef struct{ name string }

// Name returns the registration name.
func (r ReturnRef) Name() string { return r.name }

// IsZero reports whether the ref is unset.
func (r ReturnRef) IsZero() bool { return r.name == "" }

// reservedPrefix guards the engine's built-in navigation actions.
const reservedPrefix = "edwa."

// Registry maps stable string names to handlers. It replaces dynamic
// lookup of functions by qualified name: the host application
// registers every handler explicitly at startup, tokens carry only
// the names, and resolution failures surface as ErrNotRegistered.
//
// Build the registry once at process start and treat it as read-only
// afterwards. Registration is not safe for concurrent use; resolution
// of a frozen registry is.
//
//	reg := edwa.NewRegistry()
//	cart := reg.View("shop.cart", renderCart)
//	add := reg.Action("shop.add", handleAdd)
//	applied := reg.OnReturn("shop.applyShipping", applyShipping)
//
// Names survive process restarts and deployments as long as the
// handler is still registered under the same name, which is what
// keeps old tokens valid across releases.
type Registry struct {
	views   map[string]ViewFunc
	actions map[string]ActionFunc
	returns map[string]ReturnFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		views:   make(map[string]ViewFunc),
		actions: make(map[string]ActionFunc),
		returns: make(map[string]ReturnFunc),
	}
}

// View registers a view handler under a stable name and returns its
// ref. Panics on empty or reserved names, nil handlers, or duplicate
// registration - all programmer errors.
func (reg *Registry) View(name string, fn ViewFunc) ViewRef {
	checkName("view", name, fn == nil)
	if _, ok := reg.views[name]; ok {
		panic(fmt.Sprintf("edwa: duplicate view registration for %q", name))
	}
	reg.views[name] = fn
	return ViewRef{name: name}
}

// Action registers an action handler under a stable name and returns
// its ref. Panics on misuse, like View.
func (reg *Registry) Action(name string, fn ActionFunc) ActionRef {
	checkName("action", name, fn == nil)
	if _, ok := reg.actions[name]; ok {
		panic(fmt.Sprintf("edwa: duplicate action registration for %q", name))
	}
	reg.actions[name] = fn
	return ActionRef{name: name}
}

// OnReturn registers a return handler under a stable name and returns
// its ref. Panics on misuse, like View.
func (reg *Registry) OnReturn(name string, fn ReturnFunc) ReturnRef {
	checkName("return handler", name, fn == nil)
	if _, ok := reg.returns[name]; ok {
		panic(fmt.Sprintf("edwa: duplicate return handler registration for %q", name))
	}
	reg.returns[name] = fn
	return ReturnRef{name: name}
}

func checkName(kind, name string, nilFn bool) {
	if name == "" {
		panic(fmt.Sprintf("edwa: %s registered with empty name", kind))
	}
	if strings.HasPrefix(name, reservedPrefix) {
		panic(fmt.Sprintf("edwa: %s name %q uses the reserved %q prefix", kind, name, reservedPrefix))
	}
	if nilFn {
		panic(fmt.Sprintf("edwa: %s %q registered with nil handler", kind, name))
	}
}

func (reg *Registry) resolveView(name string) (ViewFunc, error) {
	fn, ok := reg.views[name]
	if !ok {
		return nil, fmt.Errorf("%w: view %q", ErrNotRegistered, name)
	}
	return fn, nil
}

func (reg *Registry) resolveAction(name string) (ActionFunc, error) {
	fn, ok := reg.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: action %q", ErrNotRegistered, name)
	}
	return fn, nil
}

func (reg *Registry) resolveReturn(name string) (ReturnFunc, error) {
	fn, ok := reg.returns[name]
	if !ok {
		return nil, fmt.Errorf("%w: return handler %q", ErrNotRegistered, name)
	}
	return fn, nil
}
