package expr

import "testing"

func TestIntegerLiteralBases(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"0", 0},
		{"42", 42},
		{"0x10", 16},
		{"0xff", 255},
		{"0o17", 15},
		{"0b101", 5},
		{"0b0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lx := NewLexer(tt.input)
			tok, ok := lx.Next()
			if !ok {
				t.Fatal("expected a token")
			}
			if tok.Type != TokenInteger {
				t.Fatalf("expected INT, got %s", tok)
			}
			if tok.IntVal != tt.want {
				t.Errorf("got %d, want %d", tok.IntVal, tt.want)
			}
			if tok.Raw != tt.input {
				t.Errorf("raw spelling %q not preserved, got %q", tt.input, tok.Raw)
			}
			if lx.HasNext() {
				t.Error("expected end of input")
			}
		})
	}
}

func TestInvalidBasePrefixIsIdentifier(t *testing.T) {
	lx := NewLexer("0xzz")
	tok, ok := lx.Next()
	if !ok || tok.Type != TokenIdent {
		t.Fatalf("expected identifier for unparsable literal, got %s", tok)
	}
}

func TestIdentifierBytes(t *testing.T) {
	// - and _ are identifier bytes; dashed field names stay one token
	for _, input := range []string{"thumbnail_x", "fourcc-code", "_hidden", "a1b2"} {
		t.Run(input, func(t *testing.T) {
			lx := NewLexer(input)
			tok, ok := lx.Next()
			if !ok || tok.Type != TokenIdent || tok.Name != input {
				t.Fatalf("expected IDENT(%s), got %s", input, tok)
			}
		})
	}
}

func TestGreedyOperatorMatching(t *testing.T) {
	tests := []struct {
		input string
		want  *Operator
	}{
		{"<=", OpLessEqual},
		{">=", OpGreaterEqual},
		{"==", OpEqual},
		{"!=", OpNotEqual},
		{"<<", OpLeftShift},
		{">>", OpRightShift},
		{"::", OpEnumAccess},
		{"not", OpLogicalNot},
		{"and", OpLogicalAnd},
		{"or", OpLogicalOr},
		{"<", OpLess},
		{"~", OpBitwiseNot},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			lx := NewLexer(tt.input)
			tok, ok := lx.Next()
			if !ok || tok.Type != TokenOperator {
				t.Fatalf("expected operator, got %v", tok)
			}
			if tok.Op != tt.want {
				t.Errorf("got %s, want %s", tok.Op.Token, tt.want.Token)
			}
		})
	}
}

func TestLessEqualNotSplitByGreedyMatch(t *testing.T) {
	lx := NewLexer("a <= b")
	var ops []string
	for {
		tok, ok := lx.Next()
		if !ok {
			break
		}
		if tok.Type == TokenOperator {
			ops = append(ops, tok.Op.Token)
		}
	}
	if len(ops) != 1 || ops[0] != "<=" {
		t.Errorf("expected single <= operator, got %v", ops)
	}
}

func TestUnaryBinaryDisambiguation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		// operator tokens in order, identified by table record
		want []*Operator
	}{
		{"leading minus", "-4", []*Operator{OpUnaryMinus}},
		{"leading plus", "+4", []*Operator{OpUnaryPlus}},
		{"minus after integer", "4 - 3", []*Operator{OpSubtract}},
		{"minus after operator", "4 - -3", []*Operator{OpSubtract, OpUnaryMinus}},
		{"minus after close paren", "(4) - 3", []*Operator{OpSubtract}},
		{"minus after close bracket", "x[0] - 3", []*Operator{OpSubtract}},
		// delimiters are not operator tokens, so a minus right after an
		// open paren stays binary
		{"minus after open paren", "(-4)", []*Operator{OpSubtract}},
		{"plus after identifier", "x + 3", []*Operator{OpAdd}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lx := NewLexer(tt.input)
			var got []*Operator
			for {
				tok, ok := lx.Next()
				if !ok {
					break
				}
				if tok.Type == TokenOperator {
					got = append(got, tok.Op)
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d operators, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("operator %d: got %s (priority %d, arity %d), want %s (priority %d, arity %d)",
						i, got[i].Token, got[i].Priority, got[i].Arity,
						tt.want[i].Token, tt.want[i].Priority, tt.want[i].Arity)
				}
			}
		})
	}
}

func TestPeekDoesNotAdvanceContext(t *testing.T) {
	// peeking at the minus before consuming 4 must not flip it to binary
	lx := NewLexer("-4")
	first, ok := lx.Peek()
	if !ok {
		t.Fatal("expected a token")
	}
	again, _ := lx.Peek()
	if first != again {
		t.Error("repeated Peek returned different tokens")
	}
	tok, _ := lx.Next()
	if tok.Op != OpUnaryMinus {
		t.Errorf("expected unary minus after peek, got %s", tok)
	}
}

func TestEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t \t"} {
		lx := NewLexer(input)
		if lx.HasNext() {
			t.Errorf("input %q: expected empty token stream", input)
		}
		if _, ok := lx.Next(); ok {
			t.Errorf("input %q: Next returned a token", input)
		}
	}
}

func TestWhitespaceSkipping(t *testing.T) {
	lx := NewLexer(" \t 1 \t+\t 2 ")
	var kinds []TokenType
	for {
		tok, ok := lx.Next()
		if !ok {
			break
		}
		kinds = append(kinds, tok.Type)
	}
	want := []TokenType{TokenInteger, TokenOperator, TokenInteger}
	if len(kinds) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(kinds), len(want))
	}
	for i := range kinds {
		if kinds[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}
