package expr

import (
	"fmt"

	"github.com/binspec/fieldexpr/pkg/types"
)

// Operator describes one entry of the fixed operator table: its surface
// spelling, precedence rank, associativity, arity, the per-operand expand
// policy, and the function that executes it.
//
// Priority is inverted relative to the usual convention: a numerically
// lower rank binds tighter. Unary and member-access operators occupy ranks
// 0-2 and must be popped off the operator stack ahead of arithmetic
// operators at rank 3 and looser.
type Operator struct {
	Token     string
	Priority  int
	LeftAssoc bool
	Arity     int
	// Expand states, per operand position, whether the operand is resolved
	// to a value before exec runs or passed through as a raw stack item.
	Expand []bool
	// MultipleArity marks operators whose spelling is shared with another
	// operator of different arity (unary vs binary + and -). They are kept
	// out of the lookup table; the lexer resolves them from context.
	MultipleArity bool

	exec func(args []Item) (Item, error)
}

// Operator table. One record exists per (token, arity-context) pair.
var (
	OpEnumAccess = &Operator{Token: "::", Priority: 0, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, false}, exec: execMember}
	OpMemberAccess = &Operator{Token: ".", Priority: 1, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, false}, exec: execMember}

	OpUnaryPlus = &Operator{Token: "+", Priority: 2, Arity: 1, MultipleArity: true,
		Expand: []bool{true}, exec: func(args []Item) (Item, error) { return args[0], nil }}
	OpUnaryMinus = &Operator{Token: "-", Priority: 2, Arity: 1, MultipleArity: true,
		Expand: []bool{true}, exec: execIntUnary(func(a int64) int64 { return -a })}
	OpLogicalNot = &Operator{Token: "not", Priority: 2, Arity: 1,
		Expand: []bool{true}, exec: func(args []Item) (Item, error) {
			return valueItem(types.NewBool(!args[0].val.Truthy())), nil
		}}
	OpBitwiseNot = &Operator{Token: "~", Priority: 2, Arity: 1,
		Expand: []bool{true}, exec: execIntUnary(func(a int64) int64 { return ^a })}

	OpMultiply = &Operator{Token: "*", Priority: 3, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(func(a, b int64) (int64, error) { return a * b, nil })}
	OpDivide = &Operator{Token: "/", Priority: 3, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(floorDiv)}
	OpRemainder = &Operator{Token: "%", Priority: 3, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(floorMod)}

	OpAdd = &Operator{Token: "+", Priority: 4, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: func(args []Item) (Item, error) {
			sum, err := args[0].val.Add(args[1].val)
			if err != nil {
				return Item{}, err
			}
			return valueItem(sum), nil
		}}
	OpSubtract = &Operator{Token: "-", Priority: 4, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(func(a, b int64) (int64, error) { return a - b, nil })}

	OpLeftShift = &Operator{Token: "<<", Priority: 5, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(leftShift)}
	OpRightShift = &Operator{Token: ">>", Priority: 5, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(rightShift)}

	OpLess = &Operator{Token: "<", Priority: 6, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execCompare(func(c int) bool { return c < 0 })}
	OpGreater = &Operator{Token: ">", Priority: 6, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execCompare(func(c int) bool { return c > 0 })}
	OpLessEqual = &Operator{Token: "<=", Priority: 6, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execCompare(func(c int) bool { return c <= 0 })}
	OpGreaterEqual = &Operator{Token: ">=", Priority: 6, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execCompare(func(c int) bool { return c >= 0 })}

	OpEqual = &Operator{Token: "==", Priority: 7, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: func(args []Item) (Item, error) {
			return valueItem(types.NewBool(args[0].val.Equal(args[1].val))), nil
		}}
	OpNotEqual = &Operator{Token: "!=", Priority: 7, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: func(args []Item) (Item, error) {
			return valueItem(types.NewBool(!args[0].val.Equal(args[1].val))), nil
		}}

	OpBitwiseAnd = &Operator{Token: "&", Priority: 8, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(func(a, b int64) (int64, error) { return a & b, nil })}
	OpBitwiseXor = &Operator{Token: "^", Priority: 9, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(func(a, b int64) (int64, error) { return a ^ b, nil })}
	OpBitwiseOr = &Operator{Token: "|", Priority: 10, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIntBinary(func(a, b int64) (int64, error) { return a | b, nil })}

	// and/or return one of their operand values, not a bool. Both operands
	// expand eagerly; only the ternary construct short-circuits.
	OpLogicalAnd = &Operator{Token: "and", Priority: 11, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: func(args []Item) (Item, error) {
			if !args[0].val.Truthy() {
				return args[0], nil
			}
			return args[1], nil
		}}
	OpLogicalOr = &Operator{Token: "or", Priority: 12, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: func(args []Item) (Item, error) {
			if args[0].val.Truthy() {
				return args[0], nil
			}
			return args[1], nil
		}}

	// : builds the raw (then, else) pair without resolving either side.
	// It runs even when an operand is a deferred error; skipping it would
	// break the pairing ? relies on for short-circuit selection.
	OpTernaryElse = &Operator{Token: ":", Priority: 13, Arity: 2,
		Expand: []bool{false, false}, exec: func(args []Item) (Item, error) {
			return pairItem(args[0], args[1]), nil
		}}
	// ? expands only its condition; the selected branch is resolved by the
	// interpreter after selection so the unselected branch never evaluates.
	OpTernaryCond = &Operator{Token: "?", Priority: 14, Arity: 2,
		Expand: []bool{true, false}, exec: func(args []Item) (Item, error) {
			if args[1].kind != itemPair {
				return Item{}, types.NewMalformedExpressionError("ternary ? without matching :")
			}
			if args[0].val.Truthy() {
				return args[1].pair.then, nil
			}
			return args[1].pair.otherwise, nil
		}}

	// OpIndex is the synthetic subscript operator emitted for a closing
	// bracket. It never appears in source text and stays out of the lookup
	// table.
	OpIndex = &Operator{Token: "[]", Priority: 1, LeftAssoc: true, Arity: 2,
		Expand: []bool{true, true}, exec: execIndex}
)

// operatorsByName is the token -> operator lookup used by the lexer for
// non-ambiguous spellings. The unary +/- forms are resolved by context and
// deliberately absent; the binary forms own the + and - keys.
var operatorsByName = map[string]*Operator{}

func init() {
	for _, op := range []*Operator{
		OpEnumAccess, OpMemberAccess,
		OpUnaryPlus, OpUnaryMinus, OpLogicalNot, OpBitwiseNot,
		OpMultiply, OpDivide, OpRemainder,
		OpAdd, OpSubtract,
		OpLeftShift, OpRightShift,
		OpLess, OpGreater, OpLessEqual, OpGreaterEqual,
		OpEqual, OpNotEqual,
		OpBitwiseAnd, OpBitwiseXor, OpBitwiseOr,
		OpLogicalAnd, OpLogicalOr,
		OpTernaryElse, OpTernaryCond,
	} {
		if op.MultipleArity {
			continue
		}
		if _, dup := operatorsByName[op.Token]; dup {
			panic(fmt.Sprintf("duplicate operator spelling %q", op.Token))
		}
		operatorsByName[op.Token] = op
	}
}

// execIntUnary builds a unary exec that coerces its operand to an integer.
func execIntUnary(f func(int64) int64) func([]Item) (Item, error) {
	return func(args []Item) (Item, error) {
		a, err := args[0].val.CoerceInt()
		if err != nil {
			return Item{}, err
		}
		return valueItem(types.NewInt(f(a))), nil
	}
}

// execIntBinary builds a binary exec that coerces both operands to integers.
func execIntBinary(f func(a, b int64) (int64, error)) func([]Item) (Item, error) {
	return func(args []Item) (Item, error) {
		a, err := args[0].val.CoerceInt()
		if err != nil {
			return Item{}, err
		}
		b, err := args[1].val.CoerceInt()
		if err != nil {
			return Item{}, err
		}
		n, err := f(a, b)
		if err != nil {
			return Item{}, err
		}
		return valueItem(types.NewInt(n)), nil
	}
}

// execCompare builds an ordering exec over Value.Compare.
func execCompare(test func(int) bool) func([]Item) (Item, error) {
	return func(args []Item) (Item, error) {
		c, err := args[0].val.Compare(args[1].val)
		if err != nil {
			return Item{}, err
		}
		return valueItem(types.NewBool(test(c))), nil
	}
}

// floorDiv divides with floor semantics (quotient rounds toward negative
// infinity, matching the constraint language's division).
func floorDiv(a, b int64) (int64, error) {
	if b == 0 {
		return 0, types.NewZeroDivisionError()
	}
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q, nil
}

// floorMod computes the remainder with the sign of the divisor.
func floorMod(a, b int64) (int64, error) {
	if b == 0 {
		return 0, types.NewZeroDivisionError()
	}
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r, nil
}

func leftShift(a, b int64) (int64, error) {
	if b < 0 {
		return 0, types.NewValueError("negative shift count")
	}
	if b >= 64 {
		return 0, nil
	}
	return a << uint(b), nil
}

func rightShift(a, b int64) (int64, error) {
	if b < 0 {
		return 0, types.NewValueError("negative shift count")
	}
	if b >= 64 {
		if a < 0 {
			return -1, nil
		}
		return 0, nil
	}
	return a >> uint(b), nil
}

// execMember implements :: and . — namespace member access. The second
// operand arrives unresolved so the raw member name is available.
func execMember(args []Item) (Item, error) {
	if args[1].kind != itemToken || args[1].tok.Type != TokenIdent {
		return Item{}, types.NewMalformedExpressionError(
			fmt.Sprintf("member access needs an identifier, got %s", args[1]))
	}
	name := args[1].tok.Name
	container := args[0].val
	if container.Type() != types.TypeMap {
		return Item{}, types.NewTypeError(
			fmt.Sprintf("cannot access member %q on %s", name, container.Type()))
	}
	v, ok := container.AsMap().Get(name)
	if !ok {
		return Item{}, types.NewKeyError(fmt.Sprintf("%s[%s]", container, name))
	}
	return valueItem(v), nil
}

// execIndex implements the synthetic subscript operator: namespace lookup
// by string key, or byte extraction from string/bytes values. Negative
// indices count from the end.
func execIndex(args []Item) (Item, error) {
	container := args[0].val
	index := args[1].val
	switch container.Type() {
	case types.TypeMap:
		if index.Type() != types.TypeString {
			return Item{}, types.NewTypeError(
				fmt.Sprintf("map subscript must be a string, got %s", index.Type()))
		}
		v, ok := container.AsMap().Get(index.AsString())
		if !ok {
			return Item{}, types.NewKeyError(fmt.Sprintf("%s[%s]", container, index.AsString()))
		}
		return valueItem(v), nil
	case types.TypeBytes, types.TypeString:
		if index.Type() != types.TypeInt {
			return Item{}, types.NewTypeError(
				fmt.Sprintf("sequence subscript must be an integer, got %s", index.Type()))
		}
		var seq []byte
		if container.Type() == types.TypeBytes {
			seq = container.AsBytes()
		} else {
			seq = []byte(container.AsString())
		}
		i := index.AsInt()
		if i < 0 {
			i += int64(len(seq))
		}
		if i < 0 || i >= int64(len(seq)) {
			return Item{}, types.NewIndexError(
				fmt.Sprintf("index %d out of range (length %d)", index.AsInt(), len(seq)))
		}
		return valueItem(types.NewInt(int64(seq[i]))), nil
	default:
		return Item{}, types.NewTypeError(
			fmt.Sprintf("%s is not subscriptable", container.Type()))
	}
}
