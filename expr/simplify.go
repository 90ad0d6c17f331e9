package expr

import "math/big"

// Simplification is deterministic and purely structural: constants
// are folded exactly, nested sums and products are flattened, and
// arithmetic identities are removed. It never reorders non-constant
// operands, so the printed form of a simplified expression is stable.
//
// Simplify reaches a fixed point in one pass, and re-simplifying a
// fixed point returns the receiver itself. Shared subexpressions
// therefore stay shared: a large sum embedded in thousands of sibling
// terms is simplified once, not copied per term.

func (n *Num) Simplify() Expr {
	return n
}

func (v *Var) Simplify() Expr {
	return v
}

func (a *Add) Simplify() Expr {
	con := new(big.Rat)
	var terms []Expr
	for _, t := range a.terms {
		s := t.Simplify()
		switch v := s.(type) {
		case *Num:
			con.Add(con, v.rat)
		case *Add:
			for _, inner := range v.terms {
				if n, ok := inner.(*Num); ok {
					con.Add(con, n.rat)
				} else {
					terms = append(terms, inner)
				}
			}
		default:
			terms = append(terms, s)
		}
	}
	if con.Sign() != 0 || len(terms) == 0 {
		terms = append(terms, NewNum(con))
	}
	if len(terms) == 1 {
		return terms[0]
	}
	if sameExprs(terms, a.terms) {
		return a
	}
	return &Add{terms: terms}
}

func (m *Mul) Simplify() Expr {
	con := new(big.Rat).SetInt64(1)
	var factors []Expr
	for _, f := range m.factors {
		s := f.Simplify()
		switch v := s.(type) {
		case *Num:
			con.Mul(con, v.rat)
		case *Mul:
			for _, inner := range v.factors {
				if n, ok := inner.(*Num); ok {
					con.Mul(con, n.rat)
				} else {
					factors = append(factors, inner)
				}
			}
		default:
			factors = append(factors, s)
		}
	}
	if con.Sign() == 0 {
		return Int(0)
	}
	one := big.NewRat(1, 1)
	if con.Cmp(one) != 0 || len(factors) == 0 {
		factors = append([]Expr{NewNum(con)}, factors...)
	}
	if len(factors) == 1 {
		return factors[0]
	}
	if sameExprs(factors, m.factors) {
		return m
	}
	return &Mul{factors: factors}
}

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()
	if n, ok := exp.(*Num); ok {
		if n.rat.Sign() == 0 {
			return Int(1)
		}
		if n.rat.Cmp(big.NewRat(1, 1)) == 0 {
			return base
		}
		if bn, ok := base.(*Num); ok && n.rat.IsInt() {
			if r, ok := ratPow(bn.rat, n.rat.Num()); ok {
				return NewNum(r)
			}
		}
	}
	if bn, ok := base.(*Num); ok {
		if bn.rat.Cmp(big.NewRat(1, 1)) == 0 {
			return Int(1)
		}
	}
	if base == p.base && exp == p.exp {
		return p
	}
	return &Pow{base: base, exp: exp}
}

// sameExprs reports whether two operand lists are interchangeable:
// identical nodes, or constants of equal value. It is what lets the
// simplifier hand back the receiver instead of an equivalent copy.
func sameExprs(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		an, aok := a[i].(*Num)
		bn, bok := b[i].(*Num)
		if aok && bok && an.rat.Cmp(bn.rat) == 0 {
			continue
		}
		return false
	}
	return true
}

// maxFoldExp bounds constant power folding to keep simplification
// cheap on adversarial exponents.
const maxFoldExp = 1 << 12

// ratPow computes r^n for an integer n, exactly.
func ratPow(r *big.Rat, n *big.Int) (*big.Rat, bool) {
	if !n.IsInt64() {
		return nil, false
	}
	e := n.Int64()
	neg := e < 0
	if neg {
		e = -e
	}
	if e > maxFoldExp {
		return nil, false
	}
	if neg && r.Sign() == 0 {
		return nil, false
	}
	num := new(big.Int).Exp(r.Num(), big.NewInt(e), nil)
	den := new(big.Int).Exp(r.Denom(), big.NewInt(e), nil)
	res := new(big.Rat).SetFrac(num, den)
	if neg {
		res.Inv(res)
	}
	return res, true
}
