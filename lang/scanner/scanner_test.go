package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gloxlang/glox/lang/scanner"
	"github.com/gloxlang/glox/lang/token"
)

func scanAll(src string) []scanner.Token {
	var s scanner.Scanner
	s.Init([]byte(src))
	var toks []scanner.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanPunctuationAndKeywords(t *testing.T) {
	toks := scanAll(`var x = 1 + 2; // comment
print x == 3 and true;`)

	var kinds []token.Token
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	require.Equal(t, []token.Token{
		token.VAR, token.IDENT, token.EQ, token.NUMBER, token.PLUS, token.NUMBER, token.SEMI,
		token.PRINT, token.IDENT, token.EQ_EQ, token.NUMBER, token.AND, token.TRUE, token.SEMI,
		token.EOF,
	}, kinds)

	// "print" is on line 2.
	require.Equal(t, 2, toks[7].Line)
}

func TestScanString(t *testing.T) {
	toks := scanAll(`"hello\nworld"`)
	require.Equal(t, token.STRING, toks[0].Kind)
	require.Equal(t, `"hello\nworld"`, toks[0].Lexeme)
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(`"hello`)
	require.Equal(t, token.ILLEGAL, toks[0].Kind)
	require.Equal(t, "Unterminated string.", toks[0].Lexeme)
}

func TestScanNumber(t *testing.T) {
	toks := scanAll(`123 45.67 8.`)
	require.Equal(t, "123", toks[0].Lexeme)
	require.Equal(t, "45.67", toks[1].Lexeme)
	// trailing dot with no following digit is not part of the number.
	require.Equal(t, "8", toks[2].Lexeme)
	require.Equal(t, token.DOT, toks[3].Kind)
}

func TestScanLineCounting(t *testing.T) {
	toks := scanAll("1\n2\n\n3")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[1].Line)
	require.Equal(t, 4, toks[2].Line)
}
