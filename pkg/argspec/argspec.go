// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package argspec declares and binds positional subcommand arguments.
//
// A signature lists parameters in order, each as name:type with an optional
// suffix:
//
//	x:float y:float z:float    three required floats
//	words:string...            one or more strings (must be last)
//	celsius:float?             optional (only after all required parameters)
//
// Supported types are int, float and string. Binding validates arity and
// converts every token before returning, so callers never see partial input.
package argspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

// Kind is the type of a positional parameter.
type Kind string

// Supported parameter kinds.
const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
)

// sigLexer splits "..." into a single token; text/scanner would yield three dots.
var sigLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ellipsis", Pattern: `\.\.\.`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_-]*`},
	{Name: "Punct", Pattern: `[:?]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// signature is the parsed form of a signature string.
//
// Grammar: param*
type signature struct {
	Params []*paramNode `parser:"@@*"`
}

// paramNode matches: Ident ":" Ident ( "..." | "?" )?
type paramNode struct {
	Pos      lexer.Position `parser:""`
	Name     string         `parser:"@Ident ':'"`
	Type     string         `parser:"@Ident"`
	Variadic bool           `parser:"( @Ellipsis"`
	Optional bool           `parser:"| @'?' )?"`
}

var sigParser = participle.MustBuild[signature](
	participle.Lexer(sigLexer),
)

// Param is one declared positional parameter.
type Param struct {
	Name     string
	Kind     Kind
	Variadic bool
	Optional bool
}

// Spec is a compiled signature.
type Spec struct {
	source string
	params []Param
}

// Compile parses and validates a signature string. An empty signature
// accepts no arguments.
func Compile(sig string) (*Spec, error) {
	parsed, err := sigParser.ParseString("", sig)
	if err != nil {
		return nil, oops.In("argspec").With("signature", sig).Wrapf(err, "parsing signature")
	}

	spec := &Spec{source: sig, params: make([]Param, 0, len(parsed.Params))}
	seen := make(map[string]bool, len(parsed.Params))
	sawOptional := false

	for i, node := range parsed.Params {
		kind := Kind(node.Type)
		switch kind {
		case KindInt, KindFloat, KindString:
		default:
			return nil, oops.In("argspec").With("signature", sig).
				Errorf("parameter %q at %s: unknown type %q (want int, float or string)", node.Name, node.Pos, node.Type)
		}
		if seen[node.Name] {
			return nil, oops.In("argspec").With("signature", sig).
				Errorf("parameter %q declared twice", node.Name)
		}
		seen[node.Name] = true

		if node.Variadic && i != len(parsed.Params)-1 {
			return nil, oops.In("argspec").With("signature", sig).
				Errorf("variadic parameter %q must be last", node.Name)
		}
		if node.Variadic && sawOptional {
			return nil, oops.In("argspec").With("signature", sig).
				Errorf("variadic parameter %q cannot follow an optional parameter", node.Name)
		}
		if !node.Optional && !node.Variadic && sawOptional {
			return nil, oops.In("argspec").With("signature", sig).
				Errorf("required parameter %q cannot follow an optional parameter", node.Name)
		}
		sawOptional = sawOptional || node.Optional

		spec.params = append(spec.params, Param{
			Name:     node.Name,
			Kind:     kind,
			Variadic: node.Variadic,
			Optional: node.Optional,
		})
	}

	return spec, nil
}

// MustCompile is like Compile but panics on error. Intended for
// package-level signatures.
func MustCompile(sig string) *Spec {
	spec, err := Compile(sig)
	if err != nil {
		panic(fmt.Sprintf("argspec: %v", err))
	}
	return spec
}

// Params returns a copy of the declared parameters.
func (s *Spec) Params() []Param {
	out := make([]Param, len(s.params))
	copy(out, s.params)
	return out
}

// String returns the signature source.
func (s *Spec) String() string {
	return s.source
}

// Usage renders the parameters for help output, e.g. "<x:float> [y:int]".
func (s *Spec) Usage() string {
	parts := make([]string, 0, len(s.params))
	for _, p := range s.params {
		switch {
		case p.Variadic:
			parts = append(parts, fmt.Sprintf("<%s:%s>...", p.Name, p.Kind))
		case p.Optional:
			parts = append(parts, fmt.Sprintf("[%s:%s]", p.Name, p.Kind))
		default:
			parts = append(parts, fmt.Sprintf("<%s:%s>", p.Name, p.Kind))
		}
	}
	return strings.Join(parts, " ")
}

// Example renders a token line that binds successfully.
func (s *Spec) Example() string {
	parts := make([]string, 0, len(s.params)+1)
	for i, p := range s.params {
		parts = append(parts, exampleToken(p.Kind, i))
		if p.Variadic {
			parts = append(parts, exampleToken(p.Kind, i+1))
		}
	}
	return strings.Join(parts, " ")
}

func exampleToken(kind Kind, i int) string {
	switch kind {
	case KindInt:
		return strconv.Itoa(6 + i)
	case KindFloat:
		return strconv.FormatFloat(float64(2+i), 'f', -1, 64)
	default:
		words := []string{"hello", "world", "again"}
		return words[i%len(words)]
	}
}

// arity returns the minimum and maximum token counts; max is -1 when
// unbounded.
func (s *Spec) arity() (minArgs, maxArgs int) {
	for _, p := range s.params {
		switch {
		case p.Variadic:
			minArgs++
			return minArgs, -1
		case p.Optional:
			maxArgs++
		default:
			minArgs++
			maxArgs++
		}
	}
	return minArgs, maxArgs
}
