// Package expr implements the constraint expression language used in
// binary-format descriptions: a lexer, an infix to postfix converter, and a
// stack-machine evaluator over a mapping of parsed field values.
package expr

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType int

const (
	TokenInteger  TokenType = iota // integer literal
	TokenIdent                     // identifier (field or enum name)
	TokenOperator                  // operator from the operator table

	TokenLParen   // (
	TokenRParen   // )
	TokenLBracket // [
	TokenRBracket // ]
)

// String returns a debug-friendly representation of the token type.
func (t TokenType) String() string {
	switch t {
	case TokenInteger:
		return "INT"
	case TokenIdent:
		return "IDENT"
	case TokenOperator:
		return "OP"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	case TokenLBracket:
		return "LBRACKET"
	case TokenRBracket:
		return "RBRACKET"
	default:
		return "UNKNOWN"
	}
}

// Token represents a single lexical token. Tokens are immutable once
// produced by the lexer.
type Token struct {
	Type   TokenType
	Raw    string    // original spelling, including any numeric base prefix
	Name   string    // identifier name (TokenIdent)
	IntVal int64     // parsed value (TokenInteger)
	Op     *Operator // operator record (TokenOperator)
}

// String returns a debug-friendly representation of the token.
func (t Token) String() string {
	switch t.Type {
	case TokenInteger:
		return fmt.Sprintf("INT(%s=%d)", t.Raw, t.IntVal)
	case TokenIdent:
		return fmt.Sprintf("IDENT(%s)", t.Name)
	case TokenOperator:
		return fmt.Sprintf("OP(%s)", t.Op.Token)
	default:
		return t.Type.String()
	}
}

// openParen and friends are the delimiter token constructors.
func openParen() Token    { return Token{Type: TokenLParen, Raw: "("} }
func closeParen() Token   { return Token{Type: TokenRParen, Raw: ")"} }
func openBracket() Token  { return Token{Type: TokenLBracket, Raw: "["} }
func closeBracket() Token { return Token{Type: TokenRBracket, Raw: "]"} }

// operatorToken wraps an operator record in a token.
func operatorToken(op *Operator) Token {
	return Token{Type: TokenOperator, Raw: op.Token, Op: op}
}

// identifierToken creates an identifier token.
func identifierToken(name string) Token {
	return Token{Type: TokenIdent, Raw: name, Name: name}
}

// integerToken creates an integer literal token preserving its spelling.
func integerToken(raw string, value int64) Token {
	return Token{Type: TokenInteger, Raw: raw, IntVal: value}
}
