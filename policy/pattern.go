package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Pattern is a compiled Kyverno-style pattern node.
type Pattern interface {
	isPattern()
}

// Exact requires equality with a scalar. A nil Value requires the field to
// be absent or null.
type Exact struct {
	Value any
}

// Wildcard matches any present value ("*"), or any present scalar when
// Scalar is set ("?").
type Wildcard struct {
	Scalar bool
}

// Relational compares the value with Operand using Op, one of >, <, >=,
// <= or !=. Quantities such as "500m" compare by magnitude.
type Relational struct {
	Op      string
	Operand string
}

// Glob matches a scalar's string form against a shell-style pattern.
type Glob struct {
	Source string
	g      glob.Glob
}

// Alternatives matches when any option matches ("a | b").
type Alternatives struct {
	Options []Pattern
}

// Object requires every field to match. Keys the pattern does not name are
// ignored.
type Object struct {
	Fields []Field
}

// Field is one key of an Object pattern.
type Field struct {
	Key     string
	Anchor  Anchor
	Pattern Pattern
}

// Array requires each element pattern to be satisfied by at least one
// element of the value.
type Array struct {
	Elements []Pattern
}

func (Exact) isPattern()        {}
func (Wildcard) isPattern()     {}
func (Relational) isPattern()   {}
func (Glob) isPattern()         {}
func (Alternatives) isPattern() {}
func (Object) isPattern()       {}
func (Array) isPattern()        {}

// Anchor qualifies an object key.
type Anchor int

const (
	// AnchorNone requires the key to be present.
	AnchorNone Anchor = iota
	// AnchorEquality, written =(key), checks the value only if present.
	AnchorEquality
	// AnchorNegation, written X(key), requires the key to be absent.
	AnchorNegation
	// AnchorCondition, written (key), skips the enclosing object when the
	// value does not match.
	AnchorCondition
	// AnchorAddIfAbsent, written +(key), is a mutation anchor and matches
	// like AnchorEquality.
	AnchorAddIfAbsent
)

var anchorPrefixes = []struct {
	prefix string
	anchor Anchor
}{
	{"=(", AnchorEquality},
	{"X(", AnchorNegation},
	{"+(", AnchorAddIfAbsent},
	{"(", AnchorCondition},
}

func parseKey(k string) (string, Anchor) {
	if !strings.HasSuffix(k, ")") {
		return k, AnchorNone
	}
	for _, p := range anchorPrefixes {
		if strings.HasPrefix(k, p.prefix) && len(k) > len(p.prefix) {
			return k[len(p.prefix) : len(k)-1], p.anchor
		}
	}
	return k, AnchorNone
}

// Compile turns a decoded pattern document into a Pattern.
func Compile(doc any) (Pattern, error) {
	switch v := doc.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := Object{Fields: make([]Field, 0, len(keys))}
		for _, k := range keys {
			p, err := Compile(v[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			name, anchor := parseKey(k)
			obj.Fields = append(obj.Fields, Field{Key: name, Anchor: anchor, Pattern: p})
		}
		return obj, nil
	case []any:
		arr := Array{Elements: make([]Pattern, 0, len(v))}
		for i, e := range v {
			p, err := Compile(e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr.Elements = append(arr.Elements, p)
		}
		return arr, nil
	case []map[string]any:
		l := make([]any, len(v))
		for i := range v {
			l[i] = v[i]
		}
		return Compile(l)
	case string:
		return compileString(v)
	case nil, bool, int, int32, int64, float64:
		return Exact{Value: v}, nil
	default:
		return nil, fmt.Errorf("unsupported pattern value of type %T", doc)
	}
}

func compileString(s string) (Pattern, error) {
	if strings.Contains(s, "|") {
		parts := strings.Split(s, "|")
		alt := Alternatives{Options: make([]Pattern, 0, len(parts))}
		for _, part := range parts {
			p, err := compileLeaf(strings.TrimSpace(part))
			if err != nil {
				return nil, err
			}
			alt.Options = append(alt.Options, p)
		}
		return alt, nil
	}
	return compileLeaf(s)
}

var relationalOps = []string{">=", "<=", "!=", ">", "<"}

func compileLeaf(s string) (Pattern, error) {
	switch s {
	case "*":
		return Wildcard{}, nil
	case "?":
		return Wildcard{Scalar: true}, nil
	}
	for _, op := range relationalOps {
		if strings.HasPrefix(s, op) {
			return Relational{Op: op, Operand: strings.TrimSpace(s[len(op):])}, nil
		}
	}
	if strings.ContainsAny(s, "*?") {
		g, err := glob.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", s, err)
		}
		return Glob{Source: s, g: g}, nil
	}
	return Exact{Value: s}, nil
}
