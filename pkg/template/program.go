// Package template implements the configuration templating engine: a small
// per-line mini-language compiled once into an instruction sequence, plus a
// catalogue keyed by device model family. Rendering is a pure function of
// (compiled template, device) with no hidden state.
//
// Constructs, one per line:
//
//	#if <path>            emit the block iff the field is present/non-empty
//	#for <var> in <path>  emit the block once per element, in order
//	#end                  close the innermost #if/#for
//	${path}               substitute a dotted-path field
//	${path|default}       substitute, falling back to a literal default
//
// Any other line is emitted literally (after substitution).
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vrpweave/vrpweave/pkg/util"
)

// Program is a compiled template. Immutable once compiled; safe for
// concurrent renders.
type Program struct {
	name string
	body []node
}

// Name returns the template name given at compile time.
func (p *Program) Name() string { return p.name }

type node interface {
	render(out *[]string, sc *scope, name string) error
}

// lineNode is one output line: literal segments interleaved with
// substitutions.
type lineNode struct {
	line int
	segs []segment
}

type segment struct {
	literal string // used when path is empty
	path    string
	def     string
	hasDef  bool
}

type ifNode struct {
	line int
	path string
	body []node
}

type forNode struct {
	line    int
	varName string
	path    string
	body    []node
}

// Compile parses template text into a Program. Malformed constructs are
// reported as *util.TemplateSyntaxError with the offending line number.
func Compile(name, text string) (*Program, error) {
	type frame struct {
		body    []node
		opener  string // "", "#if", "#for"
		line    int
		path    string
		varName string
	}

	stack := []*frame{{}}
	top := func() *frame { return stack[len(stack)-1] }

	for i, raw := range strings.Split(text, "\n") {
		ln := i + 1
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "#if" || strings.HasPrefix(trimmed, "#if "):
			path := strings.TrimSpace(strings.TrimPrefix(trimmed, "#if"))
			if path == "" {
				return nil, &util.TemplateSyntaxError{Template: name, Line: ln, Message: "#if requires a field path"}
			}
			stack = append(stack, &frame{opener: "#if", line: ln, path: path})

		case trimmed == "#for" || strings.HasPrefix(trimmed, "#for "):
			expr := strings.TrimSpace(strings.TrimPrefix(trimmed, "#for"))
			varName, path, ok := strings.Cut(expr, " in ")
			varName = strings.TrimSpace(varName)
			path = strings.TrimSpace(path)
			if !ok || varName == "" || path == "" {
				return nil, &util.TemplateSyntaxError{Template: name, Line: ln,
					Message: fmt.Sprintf("malformed #for '%s' (expected '#for <var> in <path>')", expr)}
			}
			stack = append(stack, &frame{opener: "#for", line: ln, path: path, varName: varName})

		case trimmed == "#end":
			if len(stack) == 1 {
				return nil, &util.TemplateSyntaxError{Template: name, Line: ln, Message: "#end without matching #if or #for"}
			}
			closed := top()
			stack = stack[:len(stack)-1]
			var n node
			if closed.opener == "#if" {
				n = &ifNode{line: closed.line, path: closed.path, body: closed.body}
			} else {
				n = &forNode{line: closed.line, varName: closed.varName, path: closed.path, body: closed.body}
			}
			top().body = append(top().body, n)

		default:
			segs, err := parseLine(name, ln, raw)
			if err != nil {
				return nil, err
			}
			top().body = append(top().body, &lineNode{line: ln, segs: segs})
		}
	}

	if len(stack) != 1 {
		open := top()
		return nil, &util.TemplateSyntaxError{Template: name, Line: open.line,
			Message: fmt.Sprintf("unterminated %s block", open.opener)}
	}
	return &Program{name: name, body: stack[0].body}, nil
}

// MustCompile compiles a template and panics on error. Reserved for the
// built-in templates, which are covered by tests.
func MustCompile(name, text string) *Program {
	p, err := Compile(name, text)
	if err != nil {
		panic(err)
	}
	return p
}

// parseLine splits one line into literal and substitution segments.
func parseLine(name string, ln int, raw string) ([]segment, error) {
	var segs []segment
	rest := raw
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			if rest != "" {
				segs = append(segs, segment{literal: rest})
			}
			return segs, nil
		}
		if start > 0 {
			segs = append(segs, segment{literal: rest[:start]})
		}
		end := strings.Index(rest[start:], "}")
		if end < 0 {
			return nil, &util.TemplateSyntaxError{Template: name, Line: ln, Message: "unterminated '${' substitution"}
		}
		inner := rest[start+2 : start+end]
		path, def, hasDef := strings.Cut(inner, "|")
		path = strings.TrimSpace(path)
		if path == "" {
			return nil, &util.TemplateSyntaxError{Template: name, Line: ln, Message: "empty substitution"}
		}
		segs = append(segs, segment{path: path, def: def, hasDef: hasDef})
		rest = rest[start+end+1:]
	}
}

func (n *lineNode) render(out *[]string, sc *scope, name string) error {
	var b strings.Builder
	for _, seg := range n.segs {
		if seg.path == "" {
			b.WriteString(seg.literal)
			continue
		}
		val, ok := sc.resolve(seg.path)
		if substitutionAbsent(val, ok) {
			if !seg.hasDef {
				return &util.TemplateSyntaxError{Template: name, Line: n.line,
					Message: fmt.Sprintf("field '%s' is missing and has no default", seg.path)}
			}
			b.WriteString(seg.def)
			continue
		}
		s, err := formatValue(val)
		if err != nil {
			return &util.TemplateSyntaxError{Template: name, Line: n.line,
				Message: fmt.Sprintf("field '%s': %v", seg.path, err)}
		}
		b.WriteString(s)
	}
	line := b.String()
	if strings.TrimSpace(line) == "" {
		return nil
	}
	*out = append(*out, line)
	return nil
}

func (n *ifNode) render(out *[]string, sc *scope, name string) error {
	val, ok := sc.resolve(n.path)
	if !ok || !present(val) {
		return nil
	}
	for _, child := range n.body {
		if err := child.render(out, sc, name); err != nil {
			return err
		}
	}
	return nil
}

func (n *forNode) render(out *[]string, sc *scope, name string) error {
	val, _ := sc.resolve(n.path)
	list, ok := val.([]interface{})
	if val != nil && !ok {
		return &util.TemplateSyntaxError{Template: name, Line: n.line,
			Message: fmt.Sprintf("field '%s' is not iterable", n.path)}
	}
	for _, elem := range list {
		child := sc.child(n.varName, elem)
		for _, c := range n.body {
			if err := c.render(out, child, name); err != nil {
				return err
			}
		}
	}
	return nil
}

// scope binds loop variables over a parent context.
type scope struct {
	vars   map[string]interface{}
	parent *scope
}

func newScope(vars map[string]interface{}) *scope {
	return &scope{vars: vars}
}

func (sc *scope) child(name string, val interface{}) *scope {
	return &scope{vars: map[string]interface{}{name: val}, parent: sc}
}

// resolve walks a dotted path from the innermost scope outward.
func (sc *scope) resolve(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	for s := sc; s != nil; s = s.parent {
		val, ok := s.vars[parts[0]]
		if !ok {
			continue
		}
		for _, part := range parts[1:] {
			m, ok := val.(map[string]interface{})
			if !ok {
				return nil, false
			}
			val, ok = m[part]
			if !ok {
				return nil, false
			}
		}
		return val, true
	}
	return nil, false
}

// substitutionAbsent decides when a ${path} falls back to its default:
// unresolved paths, nil values, and blank strings. Zero ints stay
// substitutable; `area 0` is the OSPF backbone, not a missing field.
func substitutionAbsent(val interface{}, ok bool) bool {
	if !ok || val == nil {
		return true
	}
	s, isStr := val.(string)
	return isStr && s == ""
}

// present implements the "field present" check for #if and #for guards:
// empty strings, zero ints, and empty collections count as absent.
func present(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case int:
		return v != 0
	case bool:
		return v
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	default:
		return true
	}
}

func formatValue(val interface{}) (string, error) {
	switch v := val.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("cannot substitute %T value", val)
	}
}
