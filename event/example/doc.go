// Package example holds sample events generated by eventd.
package example

//go:generate go run github.com/zrkn/eventd/cmd/eventd generate -f events.toml -o example_gen.go
