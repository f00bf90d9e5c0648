package edwa

import (
	"fmt"

	"github.com/edwago/edwa/lib/encoding"
)

// Wire layout. Pages and actions serialize as field arrays with
// trailing absent fields elided:
//
//	page   = [handler, contextPairs, parentBytes, returnHandler, returnContext]
//	action = [handler, positionalArgs, keywordArgs]
//
// The parent chain embeds each parent's own encoded bytes, so a page
// token reconstructs its whole ancestry by value. Context serializes
// as a flat [k1, v1, k2, v2, ...] array in insertion order, which
// keeps page bytes deterministic for a given logical page.

func marshalPage(p *Page) ([]byte, error) {
	var ctxField any
	if pairs := p.ctx.pairs(); pairs != nil {
		ctxField = pairs
	}

	var parentField any
	if p.parent != nil {
		raw, err := marshalPage(p.parent)
		if err != nil {
			return nil, err
		}
		parentField = raw
	}

	var rhField any
	if p.returnHandler != "" {
		rhField = p.returnHandler
	}

	return encoding.PackFields([]any{p.handler, ctxField, parentField, rhField, p.returnContext})
}

func unmarshalPage(raw []byte) (*Page, error) {
	fields, err := encoding.UnpackFields(raw)
	if err != nil {
		return nil, err
	}
	if len(fields) < 1 {
		return nil, fmt.Errorf("edwa: page record has no handler field")
	}
	handler, ok := fields[0].(string)
	if !ok || handler == "" {
		return nil, fmt.Errorf("edwa: page handler field is %T, not a name", fields[0])
	}

	p := &Page{handler: handler, ctx: NewContext()}

	if pairs, ok := fieldAt(fields, 1).([]any); ok {
		ctx, err := contextFromPairs(pairs)
		if err != nil {
			return nil, err
		}
		p.ctx = ctx
	}

	if parentRaw := binField(fieldAt(fields, 2)); parentRaw != nil {
		parent, err := unmarshalPage(parentRaw)
		if err != nil {
			return nil, err
		}
		p.parent = parent
	}

	if rh, ok := fieldAt(fields, 3).(string); ok {
		p.returnHandler = rh
	}
	p.returnContext = fieldAt(fields, 4)

	return p, nil
}

func marshalAction(a *Action) ([]byte, error) {
	var posField any
	if len(a.args.Pos) > 0 {
		posField = a.args.Pos
	}
	var kwField any
	if len(a.args.KW) > 0 {
		kwField = a.args.KW
	}
	return encoding.PackFields([]any{a.handler, posField, kwField})
}

func unmarshalAction(raw []byte) (*Action, error) {
	fields, err := encoding.UnpackFields(raw)
	if err != nil {
		return nil, err
	}
	if len(fields) < 1 {
		return nil, fmt.Errorf("edwa: action record has no handler field")
	}
	handler, ok := fields[0].(string)
	if !ok || handler == "" {
		return nil, fmt.Errorf("edwa: action handler field is %T, not a name", fields[0])
	}

	a := &Action{handler: handler}
	if pos, ok := fieldAt(fields, 1).([]any); ok {
		a.args.Pos = pos
	}
	if kw, ok := fieldAt(fields, 2).(map[string]any); ok {
		a.args.KW = kw
	}
	return a, nil
}

// fieldAt returns the field at position i, or nil when the position
// was elided as a trailing absent field.
func fieldAt(fields []any, i int) any {
	if i >= len(fields) {
		return nil
	}
	return fields[i]
}

// binField widens the shapes a binary payload decodes to: the loose
// interface decoder returns bin payloads as string, while locally
// constructed values are []byte.
func binField(v any) []byte {
	switch b := v.(type) {
	case []byte:
		return b
	case string:
		return []byte(b)
	}
	return nil
}
