// Package decl loads and validates event declaration files.
//
// A declaration file lists event types to generate or to instantiate at
// runtime. TOML and YAML are supported, chosen by file extension:
//
//	package = "input"
//
//	[[event]]
//	name = "KeyPressed"
//	doc = "KeyPressed fires for every key press."
//	concurrency = "single_threaded"
//	params = [{ name = "code", type = "uint8" }]
//
// The same file in YAML uses an `events` list.
package decl

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"

	"github.com/zrkn/eventd/event"
)

// Declaration option spellings.
const (
	MutabilityReadOnly = "read_only"
	MutabilityMutable  = "mutable"

	ConcurrencyThreadSafe     = "thread_safe"
	ConcurrencySingleThreaded = "single_threaded"

	OwnershipOwned  = "owned"
	OwnershipShared = "shared"
)

// File is a parsed declaration file.
type File struct {
	// Package is the Go package of generated code.
	Package string `toml:"package" yaml:"package"`

	// Output is the default output path for generated code.
	Output string `toml:"output" yaml:"output"`

	// Imports are extra import paths needed by parameter types.
	Imports []string `toml:"imports" yaml:"imports"`

	Events []Declaration `toml:"event" yaml:"events"`
}

// Declaration declares one event type.
type Declaration struct {
	Name        string  `toml:"name" yaml:"name"`
	Doc         string  `toml:"doc" yaml:"doc"`
	Params      []Param `toml:"params" yaml:"params"`
	Mutability  string  `toml:"mutability" yaml:"mutability"`
	Concurrency string  `toml:"concurrency" yaml:"concurrency"`
	Ownership   string  `toml:"ownership" yaml:"ownership"`

	// Fallible handlers return an error and Emit stops at the first one.
	Fallible bool `toml:"fallible" yaml:"fallible"`
}

// Param is one handler parameter.
type Param struct {
	Name string `toml:"name" yaml:"name"`
	Type string `toml:"type" yaml:"type"`
}

// Options converts the declaration into event options.
func (d Declaration) Options() event.Options {
	opts := event.Options{Name: d.Name}
	if d.Mutability == MutabilityMutable {
		opts.Mutability = event.Mutable
	}
	if d.Concurrency == ConcurrencySingleThreaded {
		opts.Concurrency = event.SingleThreaded
	}
	return opts
}

// Shared reports whether the event accepts shared handler handles.
func (d Declaration) Shared() bool {
	return d.Ownership == OwnershipShared
}

// Signature renders the handler parameter list, e.g. "x uint8, y string".
func (d Declaration) Signature() string {
	parts := make([]string, len(d.Params))
	for i, p := range d.Params {
		parts[i] = p.Name + " " + p.Type
	}
	return strings.Join(parts, ", ")
}

// Kind is the dynamic kind of a parameter value.
type Kind int

const (
	KindAny Kind = iota
	KindBool
	KindNumber
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "any"
	}
}

// Kind maps the parameter's Go type to the kind of value it accepts.
func (p Param) Kind() Kind {
	switch p.Type {
	case "bool":
		return KindBool
	case "string", "[]byte":
		return KindString
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"byte", "rune", "float32", "float64":
		return KindNumber
	default:
		return KindAny
	}
}

// Validate checks the file for errors.
func (f *File) Validate() error {
	if f.Package != "" && !token.IsIdentifier(f.Package) {
		return fmt.Errorf("%w: package %q is not an identifier", ErrInvalidDeclaration, f.Package)
	}
	if len(f.Events) == 0 {
		return ErrNoEvents
	}

	seen := make(map[string]bool, len(f.Events))
	for i := range f.Events {
		d := &f.Events[i]
		if err := d.Validate(); err != nil {
			return err
		}
		if seen[d.Name] {
			return fmt.Errorf("%w: %s declared twice", ErrInvalidDeclaration, d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Validate checks a single declaration.
func (d *Declaration) Validate() error {
	if !token.IsIdentifier(d.Name) || !token.IsExported(d.Name) {
		return fmt.Errorf("%w: event name %q must be an exported identifier", ErrInvalidDeclaration, d.Name)
	}

	switch d.Mutability {
	case "", MutabilityReadOnly, MutabilityMutable:
	default:
		return fmt.Errorf("%w: %s: mutability %q", ErrInvalidDeclaration, d.Name, d.Mutability)
	}
	switch d.Concurrency {
	case "", ConcurrencyThreadSafe, ConcurrencySingleThreaded:
	default:
		return fmt.Errorf("%w: %s: concurrency %q", ErrInvalidDeclaration, d.Name, d.Concurrency)
	}
	switch d.Ownership {
	case "", OwnershipOwned, OwnershipShared:
	default:
		return fmt.Errorf("%w: %s: ownership %q", ErrInvalidDeclaration, d.Name, d.Ownership)
	}

	names := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if !token.IsIdentifier(p.Name) || p.Name == "_" {
			return fmt.Errorf("%w: %s: parameter name %q", ErrInvalidDeclaration, d.Name, p.Name)
		}
		if names[p.Name] {
			return fmt.Errorf("%w: %s: parameter %s declared twice", ErrInvalidDeclaration, d.Name, p.Name)
		}
		names[p.Name] = true

		if err := checkType(p.Type); err != nil {
			return fmt.Errorf("%w: %s: parameter %s: %v", ErrInvalidDeclaration, d.Name, p.Name, err)
		}
	}
	return nil
}

// checkType accepts identifiers, qualified names, pointers, slices, arrays,
// maps, channels, funcs and instantiated generics.
func checkType(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("missing type")
	}
	expr, err := parser.ParseExpr(s)
	if err != nil {
		return fmt.Errorf("type %q: %v", s, err)
	}
	if !isTypeExpr(expr) {
		return fmt.Errorf("%q is not a type", s)
	}
	return nil
}

func isTypeExpr(e ast.Expr) bool {
	switch t := e.(type) {
	case *ast.Ident:
		return true
	case *ast.SelectorExpr:
		_, ok := t.X.(*ast.Ident)
		return ok
	case *ast.StarExpr:
		return isTypeExpr(t.X)
	case *ast.ArrayType:
		return isTypeExpr(t.Elt)
	case *ast.MapType:
		return isTypeExpr(t.Key) && isTypeExpr(t.Value)
	case *ast.ChanType:
		return isTypeExpr(t.Value)
	case *ast.FuncType, *ast.InterfaceType, *ast.StructType:
		return true
	case *ast.IndexExpr:
		return isTypeExpr(t.X) && isTypeExpr(t.Index)
	case *ast.IndexListExpr:
		if !isTypeExpr(t.X) {
			return false
		}
		for _, idx := range t.Indices {
			if !isTypeExpr(idx) {
				return false
			}
		}
		return true
	case *ast.ParenExpr:
		return isTypeExpr(t.X)
	default:
		return false
	}
}
