package expr

import "fmt"

// ParseError represents a failure to convert an infix expression to
// postfix form, e.g. a mismatched delimiter. The parse aborts; a truncated
// expression is never returned.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

func mismatchedParens() error {
	return &ParseError{Message: "mismatched parenthesis"}
}

func mismatchedBrackets() error {
	return &ParseError{Message: "mismatched brackets"}
}

// infixToRPN converts an infix token stream to reverse Polish notation
// using the shunting-yard algorithm. Operands are emitted in their
// original order; operators are reordered through a side stack by
// priority, where a numerically lower priority binds tighter and is
// therefore popped first.
func infixToRPN(lx *Lexer) ([]Token, error) {
	var output []Token
	var operators []Token

	for {
		tok, ok := lx.Next()
		if !ok {
			break
		}
		switch tok.Type {
		case TokenLParen, TokenLBracket:
			operators = append(operators, tok)

		case TokenRParen:
			for {
				if len(operators) == 0 {
					return nil, mismatchedParens()
				}
				top := operators[len(operators)-1]
				operators = operators[:len(operators)-1]
				if top.Type == TokenLParen {
					break
				}
				if top.Type == TokenLBracket {
					return nil, mismatchedParens()
				}
				output = append(output, top)
			}

		case TokenRBracket:
			for {
				if len(operators) == 0 {
					return nil, mismatchedBrackets()
				}
				top := operators[len(operators)-1]
				operators = operators[:len(operators)-1]
				if top.Type == TokenLBracket {
					break
				}
				if top.Type == TokenLParen {
					return nil, mismatchedBrackets()
				}
				output = append(output, top)
			}
			// subscript applies to the two most recent operands
			output = append(output, operatorToken(OpIndex))

		case TokenOperator:
			for len(operators) > 0 {
				top := operators[len(operators)-1]
				if top.Type == TokenLParen || top.Type == TokenLBracket {
					break
				}
				if top.Op.Priority < tok.Op.Priority ||
					(top.Op.Priority == tok.Op.Priority && top.Op.LeftAssoc) {
					output = append(output, top)
					operators = operators[:len(operators)-1]
					continue
				}
				break
			}
			operators = append(operators, tok)

		default:
			output = append(output, tok)
		}
	}

	for i := len(operators) - 1; i >= 0; i-- {
		top := operators[i]
		switch top.Type {
		case TokenLParen:
			return nil, mismatchedParens()
		case TokenLBracket:
			return nil, mismatchedBrackets()
		}
		output = append(output, top)
	}

	return output, nil
}
