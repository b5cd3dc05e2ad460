package engine

import "math"

// Evaluate runs the expression against bindings. Every identifier must be bound.
func (c *Compiled) Evaluate(bindings map[string]float64) (float64, error) {
	v, err := c.root.eval(bindings)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvalError{Pos: 0, Err: ErrNonFinite}
	}
	return v, nil
}

func (n *numberNode) eval(map[string]float64) (float64, error) { return n.v, nil }

func (n *identNode) eval(b map[string]float64) (float64, error) {
	v, ok := b[n.name]
	if !ok {
		return 0, &MissingBindingError{Name: n.name}
	}
	return v, nil
}

func (n *negNode) eval(b map[string]float64) (float64, error) {
	v, err := n.x.eval(b)
	if err != nil {
		return 0, err
	}
	return -v, nil
}

func (n *binaryNode) eval(b map[string]float64) (float64, error) {
	l, err := n.l.eval(b)
	if err != nil {
		return 0, err
	}
	r, err := n.r.eval(b)
	if err != nil {
		return 0, err
	}
	var v float64
	switch n.op {
	case tokPlus:
		v = l + r
	case tokMinus:
		v = l - r
	case tokStar:
		v = l * r
	case tokSlash:
		if r == 0 {
			return 0, &EvalError{Pos: n.pos, Err: ErrDivisionByZero}
		}
		v = l / r
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &EvalError{Pos: n.pos, Err: ErrNonFinite}
	}
	return v, nil
}
