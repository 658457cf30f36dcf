package lexer

import (
	"testing"

	"byteflow/pkg/errors"
	"byteflow/pkg/source"
	"byteflow/pkg/token"
)

func TestNextToken(t *testing.T) {
	input := `int main(){
    int a = 3;
    bool ok = true;
    char c = 'x';
    if (a <= 4 && ok) {
        printint(a);
    } else {
        print("hi");
    }
    return 0;
}`

	tests := []struct {
		expectedKind    token.Kind
		expectedLexeme  string
	}{
		{token.INT, "int"},
		{token.IDENT, "main"},
		{token.LPAREN, "("},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.INT, "int"},
		{token.IDENT, "a"},
		{token.ASSIGN, "="},
		{token.INT_LIT, "3"},
		{token.SEMICOLON, ";"},
		{token.BOOL, "bool"},
		{token.IDENT, "ok"},
		{token.ASSIGN, "="},
		{token.TRUE, "true"},
		{token.SEMICOLON, ";"},
		{token.CHAR, "char"},
		{token.IDENT, "c"},
		{token.ASSIGN, "="},
		{token.CHAR_LIT, "x"},
		{token.SEMICOLON, ";"},
		{token.IF, "if"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.LT_EQ, "<="},
		{token.INT_LIT, "4"},
		{token.AND_AND, "&&"},
		{token.IDENT, "ok"},
		{token.RPAREN, ")"},
		{token.LBRACE, "{"},
		{token.IDENT, "printint"},
		{token.LPAREN, "("},
		{token.IDENT, "a"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.ELSE, "else"},
		{token.LBRACE, "{"},
		{token.IDENT, "print"},
		{token.LPAREN, "("},
		{token.STRING_LIT, "hi"},
		{token.RPAREN, ")"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.RETURN, "return"},
		{token.INT_LIT, "0"},
		{token.SEMICOLON, ";"},
		{token.RBRACE, "}"},
		{token.EOF, ""},
	}

	diags := &errors.Diagnostics{}
	l := New(source.NewSourceFile("test", "", input), diags)

	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - wrong kind. expected=%q, got=%q (lexeme %q)", i, tt.expectedKind, tok.Kind, tok.Lexeme)
		}
		if tok.Lexeme != tt.expectedLexeme {
			t.Fatalf("tests[%d] - wrong lexeme. expected=%q, got=%q", i, tt.expectedLexeme, tok.Lexeme)
		}
	}
	if diags.HasErrors() {
		t.Fatalf("unexpected lexical errors: %v", diags.Errors())
	}
}

func TestIllegalCharacterReportsLexicalError(t *testing.T) {
	diags := &errors.Diagnostics{}
	l := New(source.NewSourceFile("test", "", "int x = 1 & 2;"), diags)
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			break
		}
	}
	if !diags.HasErrors() {
		t.Fatalf("expected a lexical error for bare '&'")
	}
	if diags.Errors()[0].Kind() != "Lexical" {
		t.Fatalf("expected Lexical error kind, got %s", diags.Errors()[0].Kind())
	}
}

func TestUnterminatedStringIsReported(t *testing.T) {
	diags := &errors.Diagnostics{}
	l := New(source.NewSourceFile("test", "", `print("oops);`), diags)
	for {
		tok := l.NextToken()
		if tok.Kind == token.EOF {
			break
		}
	}
	if !diags.HasErrors() {
		t.Fatalf("expected a lexical error for unterminated string")
	}
}
