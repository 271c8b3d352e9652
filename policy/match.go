package policy

import (
	"strconv"

	"k8s.io/apimachinery/pkg/api/resource"
)

// outcome is the result of matching one pattern node. skip is produced by a
// failed condition anchor and means the enclosing element is not subject to
// the pattern.
type outcome int

const (
	pass outcome = iota
	fail
	skip
)

// MatchValue reports whether doc satisfies p.
func MatchValue(p Pattern, doc any) bool {
	return match(p, doc, true) != fail
}

// MatchPattern compiles pattern and matches it against doc.
func MatchPattern(pattern map[string]any, doc map[string]any) (bool, error) {
	p, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return MatchValue(p, doc), nil
}

func match(p Pattern, v any, present bool) outcome {
	switch p := p.(type) {
	case Exact:
		if p.Value == nil {
			return when(!present || v == nil)
		}
		return when(present && scalarEqual(p.Value, v))
	case Wildcard:
		if !present || v == nil {
			return fail
		}
		return when(!p.Scalar || isScalar(v))
	case Relational:
		return when(present && compare(p.Op, p.Operand, v))
	case Glob:
		s, ok := scalarString(v)
		return when(present && ok && p.g.Match(s))
	case Alternatives:
		for _, o := range p.Options {
			if match(o, v, present) == pass {
				return pass
			}
		}
		return fail
	case Object:
		m, ok := v.(map[string]any)
		if !present || !ok {
			return fail
		}
		return matchObject(p, m)
	case Array:
		l, ok := v.([]any)
		if !present || !ok {
			return fail
		}
		return matchArray(p, l)
	}
	return fail
}

func when(b bool) outcome {
	if b {
		return pass
	}
	return fail
}

func matchObject(p Object, m map[string]any) outcome {
	for _, f := range p.Fields {
		if f.Anchor != AnchorCondition {
			continue
		}
		v, ok := m[f.Key]
		if match(f.Pattern, v, ok) != pass {
			return skip
		}
	}
	result := pass
	for _, f := range p.Fields {
		v, ok := m[f.Key]
		var o outcome
		switch f.Anchor {
		case AnchorCondition:
			continue
		case AnchorNegation:
			o = when(!ok || v == nil)
		case AnchorEquality, AnchorAddIfAbsent:
			if !ok {
				continue
			}
			o = match(f.Pattern, v, true)
		default:
			o = match(f.Pattern, v, ok)
		}
		switch o {
		case fail:
			return fail
		case skip:
			result = skip
		}
	}
	return result
}

// matchArray applies each element pattern existentially. An element
// pattern that every value element skips is skipped as a whole.
func matchArray(p Array, l []any) outcome {
	result := pass
	for _, ep := range p.Elements {
		o := fail
		skipped := 0
		for _, v := range l {
			switch match(ep, v, true) {
			case pass:
				o = pass
			case skip:
				skipped++
			}
			if o == pass {
				break
			}
		}
		if o != pass && len(l) > 0 && skipped == len(l) {
			o = skip
		}
		switch o {
		case fail:
			return fail
		case skip:
			result = skip
		}
	}
	return result
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float64:
		return true
	}
	return false
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int32:
		return strconv.FormatInt(int64(x), 10), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return "", false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// scalarEqual compares scalars the way Kyverno does: numbers by value and
// everything else by string form, so "false" matches false.
func scalarEqual(pattern, v any) bool {
	pf, pok := toFloat(pattern)
	vf, vok := toFloat(v)
	if pok && vok {
		return pf == vf
	}
	ps, ok1 := scalarString(pattern)
	vs, ok2 := scalarString(v)
	return ok1 && ok2 && ps == vs
}

func compare(op, operand string, v any) bool {
	vs, ok := scalarString(v)
	if !ok {
		return false
	}
	if c, ok := compareQuantities(vs, operand); ok {
		switch op {
		case ">":
			return c > 0
		case "<":
			return c < 0
		case ">=":
			return c >= 0
		case "<=":
			return c <= 0
		case "!=":
			return c != 0
		}
		return false
	}
	return op == "!=" && vs != operand
}

func compareQuantities(a, b string) (int, bool) {
	qa, err := resource.ParseQuantity(a)
	if err != nil {
		return 0, false
	}
	qb, err := resource.ParseQuantity(b)
	if err != nil {
		return 0, false
	}
	return qa.Cmp(qb), true
}
