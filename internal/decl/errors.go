package decl

import "errors"

var (
	// ErrInvalidDeclaration is returned for declarations that fail validation.
	ErrInvalidDeclaration = errors.New("invalid event declaration")

	// ErrNoEvents is returned for files without declarations.
	ErrNoEvents = errors.New("no events declared")

	// ErrUnknownFormat is returned for files that are neither TOML nor YAML.
	ErrUnknownFormat = errors.New("unknown declaration file format")
)
