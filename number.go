package jsondb

import (
	"context"
	"fmt"
	"math"

	"github.com/roach88/jsondb/internal/ir"
)

// NumberNode is an Int or Float value. Arithmetic writes its result back to
// the row: Int op Int stays Int with Go integer semantics (truncating
// division and remainder), and any Float operand gives a Float.
type NumberNode struct {
	node
}

// Value returns the number as an int64 or a float64.
func (n *NumberNode) Value(ctx context.Context) (any, error) {
	v, err := n.Data(ctx)
	if err != nil {
		return nil, err
	}
	return number(v)
}

// Float returns the number as a float64.
func (n *NumberNode) Float(ctx context.Context) (float64, error) {
	v, err := n.Value(ctx)
	if err != nil {
		return 0, err
	}
	if i, ok := v.(int64); ok {
		return float64(i), nil
	}
	return v.(float64), nil
}

func number(v any) (any, error) {
	switch v.(type) {
	case int64, float64:
		return v, nil
	}
	return nil, fmt.Errorf("%T is not a number: %w", v, ir.ErrUnsupportedOperation)
}

type arithOp int

const (
	opAdd arithOp = iota
	opSub
	opMul
	opDiv
	opMod
	opPow
)

func (n *NumberNode) Add(ctx context.Context, x any) error { return n.arith(ctx, opAdd, x) }
func (n *NumberNode) Sub(ctx context.Context, x any) error { return n.arith(ctx, opSub, x) }
func (n *NumberNode) Mul(ctx context.Context, x any) error { return n.arith(ctx, opMul, x) }

// Div divides by x. Dividing by zero is ErrDivisionByZero.
func (n *NumberNode) Div(ctx context.Context, x any) error { return n.arith(ctx, opDiv, x) }

// Mod takes the remainder by x. The result has the sign of the dividend.
func (n *NumberNode) Mod(ctx context.Context, x any) error { return n.arith(ctx, opMod, x) }

// Pow raises the number to x. An Int raised to a negative Int gives a Float.
func (n *NumberNode) Pow(ctx context.Context, x any) error { return n.arith(ctx, opPow, x) }

func (n *NumberNode) arith(ctx context.Context, op arithOp, x any) error {
	a, err := n.Value(ctx)
	if err != nil {
		return err
	}
	b, err := operand(ctx, x)
	if err != nil {
		return err
	}
	if b, err = number(b); err != nil {
		return err
	}

	var r any
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		r, err = intArith(op, ai, bi)
	} else {
		r, err = floatArith(op, toFloat(a), toFloat(b))
	}
	if err != nil {
		return err
	}
	return n.set(ctx, r)
}

func toFloat(v any) float64 {
	if i, ok := v.(int64); ok {
		return float64(i)
	}
	return v.(float64)
}

func intArith(op arithOp, a, b int64) (any, error) {
	switch op {
	case opAdd:
		return a + b, nil
	case opSub:
		return a - b, nil
	case opMul:
		return a * b, nil
	case opDiv, opMod:
		if b == 0 {
			return nil, fmt.Errorf("%d / 0: %w", a, ir.ErrDivisionByZero)
		}
		if op == opDiv {
			return a / b, nil
		}
		return a % b, nil
	case opPow:
		if b < 0 {
			return floatArith(op, float64(a), float64(b))
		}
		r := int64(1)
		for ; b > 0; b >>= 1 {
			if b&1 == 1 {
				r *= a
			}
			a *= a
		}
		return r, nil
	}
	return nil, fmt.Errorf("arith op %d: %w", op, ir.ErrUnsupportedOperation)
}

func floatArith(op arithOp, a, b float64) (any, error) {
	var r float64
	switch op {
	case opAdd:
		r = a + b
	case opSub:
		r = a - b
	case opMul:
		r = a * b
	case opDiv, opMod:
		if b == 0 {
			return nil, fmt.Errorf("%v / 0: %w", a, ir.ErrDivisionByZero)
		}
		if op == opDiv {
			r = a / b
		} else {
			r = math.Mod(a, b)
		}
	case opPow:
		if a == 0 && b < 0 {
			return nil, fmt.Errorf("0 ** %v: %w", b, ir.ErrDivisionByZero)
		}
		r = math.Pow(a, b)
	default:
		return nil, fmt.Errorf("arith op %d: %w", op, ir.ErrUnsupportedOperation)
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, fmt.Errorf("result %v is not a finite number: %w", r, ir.ErrUnsupportedOperation)
	}
	return r, nil
}

// Neg negates the number.
func (n *NumberNode) Neg(ctx context.Context) error {
	v, err := n.Value(ctx)
	if err != nil {
		return err
	}
	if i, ok := v.(int64); ok {
		return n.set(ctx, -i)
	}
	return n.set(ctx, -v.(float64))
}

// Abs replaces the number with its absolute value.
func (n *NumberNode) Abs(ctx context.Context) error {
	v, err := n.Value(ctx)
	if err != nil {
		return err
	}
	if i, ok := v.(int64); ok {
		if i < 0 {
			i = -i
		}
		return n.set(ctx, i)
	}
	return n.set(ctx, math.Abs(v.(float64)))
}

// Lsh shifts left by x bits. Lsh, Rsh, And, Or, Xor and Invert need an Int
// on both sides.
func (n *NumberNode) Lsh(ctx context.Context, x any) error {
	return n.bits(ctx, x, func(a, b int64) (int64, error) {
		if b < 0 {
			return 0, fmt.Errorf("negative shift %d: %w", b, ir.ErrUnsupportedOperation)
		}
		return a << uint64(b), nil
	})
}

// Rsh shifts right by x bits, keeping the sign.
func (n *NumberNode) Rsh(ctx context.Context, x any) error {
	return n.bits(ctx, x, func(a, b int64) (int64, error) {
		if b < 0 {
			return 0, fmt.Errorf("negative shift %d: %w", b, ir.ErrUnsupportedOperation)
		}
		return a >> uint64(b), nil
	})
}

func (n *NumberNode) And(ctx context.Context, x any) error {
	return n.bits(ctx, x, func(a, b int64) (int64, error) { return a & b, nil })
}

func (n *NumberNode) Or(ctx context.Context, x any) error {
	return n.bits(ctx, x, func(a, b int64) (int64, error) { return a | b, nil })
}

func (n *NumberNode) Xor(ctx context.Context, x any) error {
	return n.bits(ctx, x, func(a, b int64) (int64, error) { return a ^ b, nil })
}

// Invert flips every bit.
func (n *NumberNode) Invert(ctx context.Context) error {
	return n.bits(ctx, int64(0), func(a, _ int64) (int64, error) { return ^a, nil })
}

func (n *NumberNode) bits(ctx context.Context, x any, fn func(a, b int64) (int64, error)) error {
	v, err := n.Value(ctx)
	if err != nil {
		return err
	}
	a, ok := v.(int64)
	if !ok {
		return fmt.Errorf("bit operation on %T: %w", v, ir.ErrUnsupportedOperation)
	}
	y, err := operand(ctx, x)
	if err != nil {
		return err
	}
	b, ok := y.(int64)
	if !ok {
		return fmt.Errorf("bit operation with %T: %w", y, ir.ErrUnsupportedOperation)
	}
	r, err := fn(a, b)
	if err != nil {
		return err
	}
	return n.set(ctx, r)
}
