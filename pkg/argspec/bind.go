// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package argspec

import (
	"fmt"
	"math"
	"strconv"
)

// Values holds bound arguments keyed by parameter name. Variadic parameters
// hold a slice of their kind.
type Values map[string]any

// Bind validates args against the signature and converts every token.
// It fails on the first problem with a *UsageError and returns no values.
func (s *Spec) Bind(args []string) (Values, error) {
	minArgs, maxArgs := s.arity()
	if len(args) < minArgs || (maxArgs >= 0 && len(args) > maxArgs) {
		return nil, s.usageError(fmt.Sprintf("expected %s, got %d", arityText(minArgs, maxArgs), len(args)))
	}

	vals := make(Values, len(s.params))
	for i, p := range s.params {
		if p.Variadic {
			rest, err := s.bindVariadic(p, args[i:])
			if err != nil {
				return nil, err
			}
			vals[p.Name] = rest
			break
		}
		if i >= len(args) {
			break
		}
		v, err := s.convert(p, args[i])
		if err != nil {
			return nil, err
		}
		vals[p.Name] = v
	}
	return vals, nil
}

func (s *Spec) bindVariadic(p Param, tokens []string) (any, error) {
	switch p.Kind {
	case KindInt:
		out := make([]int64, 0, len(tokens))
		for _, tok := range tokens {
			v, err := s.convert(p, tok)
			if err != nil {
				return nil, err
			}
			out = append(out, v.(int64))
		}
		return out, nil
	case KindFloat:
		out := make([]float64, 0, len(tokens))
		for _, tok := range tokens {
			v, err := s.convert(p, tok)
			if err != nil {
				return nil, err
			}
			out = append(out, v.(float64))
		}
		return out, nil
	default:
		out := make([]string, len(tokens))
		copy(out, tokens)
		return out, nil
	}
}

func (s *Spec) convert(p Param, tok string) (any, error) {
	switch p.Kind {
	case KindInt:
		v, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return nil, s.usageError(fmt.Sprintf("%s must be an integer, got %q", p.Name, tok))
		}
		return v, nil
	case KindFloat:
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, s.usageError(fmt.Sprintf("%s must be a number, got %q", p.Name, tok))
		}
		return v, nil
	default:
		return tok, nil
	}
}

func (s *Spec) usageError(reason string) *UsageError {
	return &UsageError{
		Reason:  reason,
		Usage:   s.Usage(),
		Example: s.Example(),
	}
}

func arityText(minArgs, maxArgs int) string {
	switch {
	case maxArgs < 0:
		return fmt.Sprintf("at least %d %s", minArgs, plural(minArgs))
	case minArgs == maxArgs:
		return fmt.Sprintf("%d %s", minArgs, plural(minArgs))
	default:
		return fmt.Sprintf("%d to %d arguments", minArgs, maxArgs)
	}
}

func plural(n int) string {
	if n == 1 {
		return "argument"
	}
	return "arguments"
}

// Has reports whether name was bound. Absent optional parameters are not.
func (v Values) Has(name string) bool {
	_, ok := v[name]
	return ok
}

// Int returns the bound int parameter, or 0.
func (v Values) Int(name string) int64 {
	i, _ := v[name].(int64)
	return i
}

// Float returns the bound float parameter, or 0.
func (v Values) Float(name string) float64 {
	f, _ := v[name].(float64)
	return f
}

// String returns the bound string parameter, or "".
func (v Values) String(name string) string {
	s, _ := v[name].(string)
	return s
}

// Strings returns the bound variadic string parameter.
func (v Values) Strings(name string) []string {
	s, _ := v[name].([]string)
	return s
}
