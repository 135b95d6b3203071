package gen

import "text/template"

var fileTemplate = template.Must(template.New("file").Parse(`// Code generated by {{.Generator}}{{if .Source}} from {{.Source}}{{end}}. DO NOT EDIT.

package {{.Package}}

import (
{{- range .Imports}}
	"{{.}}"
{{- end}}
{{- if .Imports}}
{{end}}
	"{{.EventPath}}"
)
{{range .Events}}
{{range .Doc}}// {{.}}
{{end -}}
type {{.Name}} struct {
	base event.Base[{{.Handler}}]
}

// {{.Handler}} is the handler signature of {{.Name}}.
type {{.Handler}} = func({{.Signature}}){{if .Fallible}} error{{end}}

var {{.OptionsVar}} = event.Options{
	Name:        "{{.Name}}",
	Mutability:  event.{{.Mutability}},
	Concurrency: event.{{.Concurrency}},
}

func ({{.Receiver}} *{{.Name}}) b() *event.Base[{{.Handler}}] {
	return {{.Receiver}}.base.Configure({{.OptionsVar}})
}

// Subscribe registers handler and returns its token.
func ({{.Receiver}} *{{.Name}}) Subscribe(handler {{.Handler}}) event.Token {
	return {{.Receiver}}.b().Subscribe(handler)
}

// SubscribeOnce registers handler for the next emit only.
func ({{.Receiver}} *{{.Name}}) SubscribeOnce(handler {{.Handler}}) event.Token {
	return {{.Receiver}}.b().SubscribeOnce(handler)
}
{{if .Shared}}
// SubscribeShared registers a handler handle that may also be subscribed
// elsewhere. Unsubscribing detaches it without destroying it.
func ({{.Receiver}} *{{.Name}}) SubscribeShared(shared *event.Handle[{{.Handler}}]) event.Token {
	return {{.Receiver}}.b().SubscribeShared(shared)
}
{{end}}
// Unsubscribe removes the subscription for tok.
// It returns false for unknown or already removed tokens.
func ({{.Receiver}} *{{.Name}}) Unsubscribe(tok event.Token) bool {
	return {{.Receiver}}.b().Unsubscribe(tok)
}

// Remove is Unsubscribe returning event.ErrSubscriptionMissing for unknown tokens.
func ({{.Receiver}} *{{.Name}}) Remove(tok event.Token) error {
	return {{.Receiver}}.b().Remove(tok)
}
{{if .Fallible}}
// Emit invokes the subscribed handlers in order until one fails.
func ({{.Receiver}} *{{.Name}}) Emit({{.Signature}}) error {
	return {{.Receiver}}.b().DispatchUntilError(func({{.Fn}} {{.Handler}}) error { return {{.Fn}}({{.Args}}) })
}
{{else}}
// Emit invokes every subscribed handler in order.
func ({{.Receiver}} *{{.Name}}) Emit({{.Signature}}) {
	{{.Receiver}}.b().Dispatch(func({{.Fn}} {{.Handler}}) { {{.Fn}}({{.Args}}) })
}
{{end}}
// Len returns the number of subscriptions.
func ({{.Receiver}} *{{.Name}}) Len() int {
	return {{.Receiver}}.b().Len()
}

// Clear drops every subscription without invoking handlers.
func ({{.Receiver}} *{{.Name}}) Clear() int {
	return {{.Receiver}}.b().Clear()
}

// Stats returns dispatch statistics.
func ({{.Receiver}} *{{.Name}}) Stats() event.Stats {
	return {{.Receiver}}.b().Stats()
}
{{end}}`))
