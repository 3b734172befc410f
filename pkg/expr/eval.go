package expr

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/binspec/fieldexpr/pkg/types"
)

// logger emits debug traces of interpretation steps. Discarded unless a
// logger is installed with SetLogger.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// SetLogger installs a logger for interpretation diagnostics. Passing nil
// restores the discarding default. Install before sharing Expressions
// across goroutines.
func SetLogger(l *slog.Logger) {
	if l == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		return
	}
	logger = l
}

// itemKind tags the slots of the evaluator's value stack.
type itemKind int

const (
	itemToken itemKind = iota // unresolved literal or identifier token
	itemValue                 // resolved value
	itemError                 // deferred evaluation error flowing forward
	itemPair                  // then/else pair built by the : operator
)

// Item is one slot of the value stack: a tagged union of an unresolved
// token, a resolved value, a deferred error, or a ternary branch pair.
type Item struct {
	kind itemKind
	tok  Token
	val  types.Value
	err  *types.EvalError
	pair *branchPair
}

// branchPair holds the raw, unresolved branches of a ternary conditional.
type branchPair struct {
	then      Item
	otherwise Item
}

func tokenItem(t Token) Item            { return Item{kind: itemToken, tok: t} }
func valueItem(v types.Value) Item      { return Item{kind: itemValue, val: v} }
func errorItem(e *types.EvalError) Item { return Item{kind: itemError, err: e} }
func pairItem(then, otherwise Item) Item {
	return Item{kind: itemPair, pair: &branchPair{then: then, otherwise: otherwise}}
}

// String renders a stack item for debug traces.
func (it Item) String() string {
	switch it.kind {
	case itemToken:
		return it.tok.String()
	case itemValue:
		return it.val.String()
	case itemError:
		return "error(" + it.err.Message + ")"
	case itemPair:
		return "(" + it.pair.then.String() + ", " + it.pair.otherwise.String() + ")"
	default:
		return "<invalid>"
	}
}

// Expression is an immutable postfix token sequence. It retains no
// evaluation state, so a single Expression is safe to interpret
// concurrently with different assignment mappings.
type Expression struct {
	tokens []Token
}

// Parse converts one infix constraint expression into an Expression.
// Mismatched delimiters fail with a *ParseError.
func Parse(input string) (*Expression, error) {
	rpn, err := infixToRPN(NewLexer(input))
	if err != nil {
		return nil, err
	}
	return &Expression{tokens: rpn}, nil
}

// RPN returns a copy of the postfix token sequence.
func (e *Expression) RPN() []Token {
	out := make([]Token, len(e.tokens))
	copy(out, e.tokens)
	return out
}

// resolve expands a stack item to its value: integer literals become their
// value, identifiers are looked up in the assignments (a missing name
// becomes a deferred unknown-identifier error), and everything else passes
// through unchanged.
func resolve(it Item, assignments map[string]types.Value) Item {
	if it.kind != itemToken {
		return it
	}
	switch it.tok.Type {
	case TokenInteger:
		return valueItem(types.NewInt(it.tok.IntVal))
	case TokenIdent:
		v, ok := assignments[it.tok.Name]
		if !ok {
			return errorItem(types.NewUnknownIdentifierError(it.tok.Name))
		}
		return valueItem(v)
	default:
		return errorItem(types.NewMalformedExpressionError(
			fmt.Sprintf("unexpected %s on value stack", it.tok)))
	}
}

// Interpret evaluates the expression against a mapping of field names to
// values (with nested namespaces for enum access). It returns the single
// resulting value, or an error if interpretation cannot produce one.
//
// Deferred errors (unknown identifiers, member/subscript misses, coercion
// failures) propagate through the stack instead of aborting, so a failing
// operand that gets bypassed by ternary selection never surfaces. The :
// operator always runs even over deferred errors; it only pairs its
// operands, and the pairing is what keeps ? selection correct.
func (e *Expression) Interpret(assignments map[string]types.Value) (types.Value, error) {
	if assignments == nil {
		assignments = map[string]types.Value{}
	}
	logger.Debug("interpreting expression", slog.String("expr", e.String()))

	var stack []Item
	for _, t := range e.tokens {
		if t.Type != TokenOperator {
			stack = append(stack, tokenItem(t))
			continue
		}

		op := t.Op
		if len(stack) < op.Arity {
			return types.Null, types.NewMalformedExpressionError(
				fmt.Sprintf("operator %s needs %d operands, stack has %d", op.Token, op.Arity, len(stack)))
		}

		args := make([]Item, op.Arity)
		var deferred *types.EvalError
		for i, raw := range stack[len(stack)-op.Arity:] {
			if op.Expand[i] {
				args[i] = resolve(raw, assignments)
			} else {
				args[i] = raw
			}
			if args[i].kind == itemError {
				deferred = args[i].err
			}
		}
		stack = stack[:len(stack)-op.Arity]

		// A deferred error among the operands skips the operator and
		// propagates instead, except for : which must still pair.
		if deferred != nil && op != OpTernaryElse {
			logger.Debug("propagating deferred error",
				slog.String("op", op.Token), slog.String("error", deferred.Message))
			stack = append(stack, errorItem(deferred))
			continue
		}

		res, err := op.exec(args)
		if err != nil {
			ee, ok := err.(*types.EvalError)
			if !ok {
				return types.Null, err
			}
			res = errorItem(ee)
		}
		if op == OpTernaryCond {
			// Only the selected branch resolves; the other branch's
			// lookups and arithmetic never ran and never will.
			res = resolve(res, assignments)
		}
		logger.Debug("executed operator",
			slog.String("op", op.Token), slog.String("result", res.String()))
		stack = append(stack, res)
	}

	if len(stack) != 1 {
		return types.Null, types.NewMalformedExpressionError(
			fmt.Sprintf("%d values left on stack after interpretation", len(stack)))
	}
	final := resolve(stack[0], assignments)
	switch final.kind {
	case itemError:
		logger.Debug("interpretation failed", slog.String("error", final.err.Message))
		return types.Null, final.err
	case itemPair:
		return types.Null, types.NewMalformedExpressionError("ternary : without matching ?")
	}
	logger.Debug("interpretation result", slog.String("result", final.val.String()))
	return final.val, nil
}

// String reconstructs a parenthesized infix rendering of the postfix
// sequence for diagnostics. Parentheses wrap every binary application, so
// the output does not round-trip to the original spelling.
func (e *Expression) String() string {
	var vals []string
	for _, t := range e.tokens {
		switch t.Type {
		case TokenOperator:
			op := t.Op
			if len(vals) < op.Arity {
				vals = append(vals, op.Token)
				continue
			}
			args := vals[len(vals)-op.Arity:]
			vals = vals[:len(vals)-op.Arity]
			if op.Arity == 2 {
				if op == OpIndex {
					vals = append(vals, args[0]+"["+args[1]+"]")
				} else {
					vals = append(vals, "("+args[0]+op.Token+args[1]+")")
				}
			} else if op.LeftAssoc {
				vals = append(vals, args[0]+op.Token)
			} else {
				vals = append(vals, op.Token+args[0])
			}
		case TokenIdent:
			vals = append(vals, t.Name)
		case TokenInteger:
			vals = append(vals, strconv.FormatInt(t.IntVal, 10))
		default:
			vals = append(vals, t.Raw)
		}
	}
	return strings.Join(vals, "")
}
