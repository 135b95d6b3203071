package registry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedToken is returned by ParseToken for text that is not a token.
var ErrMalformedToken = errors.New("malformed subscription token")

// Token identifies one registration in one registry.
// It is returned on insertion and passed back to remove the registration.
// The zero Token is never issued.
type Token struct {
	owner uint64
	index uint32
	gen   uint32
}

// IsZero reports whether t is the zero Token.
func (t Token) IsZero() bool {
	return t == Token{}
}

// String renders the token as owner:index:generation.
func (t Token) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(t.owner, 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(t.index), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(t.gen), 10))
	return b.String()
}

// ParseToken parses the output of Token.String.
func ParseToken(s string) (Token, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Token{}, fmt.Errorf("%w: %q", ErrMalformedToken, s)
	}

	owner, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: owner: %v", ErrMalformedToken, err)
	}
	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Token{}, fmt.Errorf("%w: index: %v", ErrMalformedToken, err)
	}
	gen, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Token{}, fmt.Errorf("%w: generation: %v", ErrMalformedToken, err)
	}

	return Token{owner: owner, index: uint32(index), gen: uint32(gen)}, nil
}
