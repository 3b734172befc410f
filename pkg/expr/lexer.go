package expr

import "strconv"

// Lexer tokenizes a constraint expression string. It is a restartable
// cursor with one-token lookahead: Peek inspects the next token without
// consuming it, Next consumes it and records it as the previous token,
// which drives the unary/binary disambiguation of + and -.
type Lexer struct {
	input string
	pos   int
	ahead *Token // lookahead buffer filled by Peek
	prev  *Token // last token consumed by Next; nil at start of input
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Peek returns the next token without consuming it. The previous-token
// context is not advanced; only Next does that. The second return is false
// at end of input.
func (l *Lexer) Peek() (Token, bool) {
	if l.ahead != nil {
		return *l.ahead, true
	}
	tok, ok := l.scan()
	if !ok {
		return Token{}, false
	}
	l.ahead = &tok
	return tok, true
}

// Next consumes and returns the next token.
func (l *Lexer) Next() (Token, bool) {
	tok, ok := l.Peek()
	if !ok {
		return Token{}, false
	}
	l.ahead = nil
	l.prev = &tok
	return tok, true
}

// HasNext reports whether another token is available. End of input is not
// an error; the stream just ends.
func (l *Lexer) HasNext() bool {
	_, ok := l.Peek()
	return ok
}

// scan produces the next token from the input and advances the position.
func (l *Lexer) scan() (Token, bool) {
	l.skipWhitespace()
	if l.pos >= len(l.input) {
		return Token{}, false
	}

	// Greedy operator match: longer spellings first so <= never splits
	// into < followed by =.
	for width := 3; width >= 1; width-- {
		if l.pos+width > len(l.input) {
			continue
		}
		spelling := l.input[l.pos : l.pos+width]
		op, ok := operatorsByName[spelling]
		if !ok {
			continue
		}
		if width == 1 {
			if resolved, handled := l.disambiguate(spelling[0]); handled {
				op = resolved
			}
		}
		l.pos += width
		return operatorToken(op), true
	}

	switch l.input[l.pos] {
	case '(':
		l.pos++
		return openParen(), true
	case ')':
		l.pos++
		return closeParen(), true
	case '[':
		l.pos++
		return openBracket(), true
	case ']':
		l.pos++
		return closeBracket(), true
	}

	return l.scanOperand(), true
}

// disambiguate resolves the shared + and - spellings: at the start of the
// expression or right after another operator they are the unary form,
// otherwise the binary form.
func (l *Lexer) disambiguate(ch byte) (*Operator, bool) {
	unary := l.prev == nil || l.prev.Type == TokenOperator
	switch ch {
	case '+':
		if unary {
			return OpUnaryPlus, true
		}
		return OpAdd, true
	case '-':
		if unary {
			return OpUnaryMinus, true
		}
		return OpSubtract, true
	}
	return nil, false
}

// scanOperand accumulates an identifier-or-number: the current character
// unconditionally, then consecutive characters from the identifier byte
// set {A-Z a-z 0-9 - _}. Note that - is an identifier byte; field names in
// format descriptions use dashes.
func (l *Lexer) scanOperand() Token {
	start := l.pos
	l.pos++
	for l.pos < len(l.input) && isIdentByte(l.input[l.pos]) {
		l.pos++
	}
	return classifyOperand(l.input[start:l.pos])
}

// classifyOperand turns a completed operand into an integer literal when it
// parses under one of the four numeric forms, and an identifier otherwise.
func classifyOperand(raw string) Token {
	if len(raw) > 2 {
		var base int
		switch raw[:2] {
		case "0x":
			base = 16
		case "0o":
			base = 8
		case "0b":
			base = 2
		}
		if base != 0 {
			if v, err := strconv.ParseInt(raw[2:], base, 64); err == nil {
				return integerToken(raw, v)
			}
			return identifierToken(raw)
		}
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return integerToken(raw, v)
	}
	return identifierToken(raw)
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && (l.input[l.pos] == ' ' || l.input[l.pos] == '\t') {
		l.pos++
	}
}

func isIdentByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') || ch == '-' || ch == '_'
}
