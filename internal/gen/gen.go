// Package gen writes Go source for declared event types.
//
// Each declaration becomes one named type wrapping event.Base with the
// declared handler signature, so handlers and Emit arguments are checked by
// the compiler:
//
//	type KeyPressed struct{ base event.Base[KeyPressedHandler] }
//	type KeyPressedHandler = func(code uint8)
//
//	func (e *KeyPressed) Subscribe(handler KeyPressedHandler) event.Token
//	func (e *KeyPressed) Unsubscribe(tok event.Token) bool
//	func (e *KeyPressed) Emit(code uint8)
//
// The zero value of a generated type is ready to use with the declared
// variant.
package gen

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"slices"
	"strings"
	"text/template"
	"unicode"

	"github.com/zrkn/eventd/internal/decl"
)

// DefaultImportPath is the import path of the event package.
const DefaultImportPath = "github.com/zrkn/eventd/event"

// ErrNoPackage is returned when neither the file nor the generator names a
// package.
var ErrNoPackage = errors.New("no package name for generated code")

// Generator renders declaration files to Go source.
type Generator struct {
	importPath string
	pkg        string
	source     string
}

// Option configures a Generator.
type Option func(*Generator)

// WithImportPath overrides the import path of the event package.
func WithImportPath(path string) Option {
	return func(g *Generator) {
		if path != "" {
			g.importPath = path
		}
	}
}

// WithPackage overrides the package name from the file.
func WithPackage(name string) Option {
	return func(g *Generator) {
		g.pkg = name
	}
}

// WithSource names the declaration file in the generated header.
func WithSource(path string) Option {
	return func(g *Generator) {
		g.source = path
	}
}

// New creates a generator.
func New(opts ...Option) *Generator {
	g := &Generator{importPath: DefaultImportPath}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns formatted Go source for f.
func (g *Generator) Generate(f *decl.File) ([]byte, error) {
	pkg := g.pkg
	if pkg == "" {
		pkg = f.Package
	}
	if pkg == "" {
		return nil, ErrNoPackage
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if err := checkNames(f.Events); err != nil {
		return nil, err
	}

	data := fileData{
		Package:   pkg,
		Source:    g.source,
		EventPath: g.importPath,
		Imports:   imports(f.Imports, g.importPath),
		Events:    make([]eventData, len(f.Events)),
		Generator: "eventd generate",
	}
	for i, d := range f.Events {
		data.Events[i] = newEventData(d)
	}

	var buf bytes.Buffer
	if err := fileTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return out, nil
}

func imports(extra []string, eventPath string) []string {
	seen := map[string]bool{eventPath: true}
	var out []string
	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// checkNames rejects events whose generated identifiers collide.
func checkNames(events []decl.Declaration) error {
	used := make(map[string]string, 3*len(events))
	for _, d := range events {
		for _, id := range []string{d.Name, d.Name + "Handler", lowerFirst(d.Name) + "Options"} {
			if other, ok := used[id]; ok {
				return fmt.Errorf("%w: %s and %s both generate %s", decl.ErrInvalidDeclaration, other, d.Name, id)
			}
			used[id] = d.Name
		}
	}
	return nil
}

type fileData struct {
	Package   string
	Source    string
	EventPath string
	Imports   []string
	Events    []eventData
	Generator string
}

type eventData struct {
	Name        string
	Doc         []string
	Handler     string
	Signature   string
	Args        string
	Receiver    string
	Fn          string
	OptionsVar  string
	Mutability  string
	Concurrency string
	Shared      bool
	Fallible    bool
}

func newEventData(d decl.Declaration) eventData {
	taken := make(map[string]bool, len(d.Params))
	args := make([]string, len(d.Params))
	for i, p := range d.Params {
		taken[p.Name] = true
		args[i] = p.Name
	}

	ed := eventData{
		Name:        d.Name,
		Doc:         docLines(d),
		Handler:     d.Name + "Handler",
		Signature:   d.Signature(),
		Args:        strings.Join(args, ", "),
		Receiver:    pick(taken, "e", "ev", "evt", "self"),
		Fn:          pick(taken, "h", "fn", "handler", "cb"),
		OptionsVar:  lowerFirst(d.Name) + "Options",
		Mutability:  "ReadOnly",
		Concurrency: "ThreadSafe",
		Shared:      d.Shared(),
		Fallible:    d.Fallible,
	}
	if d.Mutability == decl.MutabilityMutable {
		ed.Mutability = "Mutable"
	}
	if d.Concurrency == decl.ConcurrencySingleThreaded {
		ed.Concurrency = "SingleThreaded"
	}
	return ed
}

func docLines(d decl.Declaration) []string {
	doc := strings.TrimSpace(d.Doc)
	if doc == "" {
		return []string{d.Name + " is a generated event type."}
	}
	return strings.Split(doc, "\n")
}

// pick returns the first candidate not used as a parameter name.
func pick(taken map[string]bool, candidates ...string) string {
	for _, c := range candidates {
		if !taken[c] {
			return c
		}
	}
	for i := 0; ; i++ {
		c := fmt.Sprintf("%s%d", candidates[0], i)
		if !taken[c] {
			return c
		}
	}
}

func lowerFirst(s string) string {
	r := []rune(s)
	i := 0
	for i < len(r) && unicode.IsUpper(r[i]) {
		i++
	}
	// Keep the last capital of an initialism so "HTTPDone" becomes "httpDone".
	if i > 1 && i < len(r) {
		i--
	}
	for j := 0; j < i; j++ {
		r[j] = unicode.ToLower(r[j])
	}
	return string(r)
}
