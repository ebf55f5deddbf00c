package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gloxlang/glox/lang/token"
)

func TestLookup(t *testing.T) {
	cases := []struct {
		ident string
		want  token.Token
	}{
		{"and", token.AND},
		{"class", token.CLASS},
		{"while", token.WHILE},
		{"x", token.IDENT},
		{"classroom", token.IDENT},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, token.Lookup(c.ident))
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "and", token.AND.String())
	assert.Equal(t, "(", token.LPAREN.String())
	assert.Equal(t, "'('", token.LPAREN.GoString())
	assert.Equal(t, "end of file", token.EOF.String())
}
