// Package expr implements the small symbolic-arithmetic kernel used
// by the penetrance models: expressions over exact rational constants
// and named variables, combined with + - * / ^.
package expr

import (
	"math/big"
	"strings"
)

// Expr is a symbolic arithmetic expression. Expressions are immutable;
// every operation returns a new expression.
type Expr interface {
	// String renders the expression in the model file syntax
	// (^ for exponentiation). The output is deterministic.
	String() string
	// Sub returns the expression with variables replaced according
	// to vals. Unknown variables are left in place.
	Sub(vals map[string]Expr) Expr
	// Simplify returns a simplified equivalent expression: constants
	// folded, nested sums and products flattened, identities removed.
	Simplify() Expr

	appendVars(seen map[string]bool, order *[]string)
}

// Num is an exact rational constant.
type Num struct {
	rat *big.Rat
}

// NewNum creates a constant from a rational. The value is copied.
func NewNum(r *big.Rat) *Num {
	return &Num{rat: new(big.Rat).Set(r)}
}

// Int creates an integer constant.
func Int(v int64) *Num {
	return &Num{rat: new(big.Rat).SetInt64(v)}
}

// Rat returns a copy of the constant value.
func (n *Num) Rat() *big.Rat {
	return new(big.Rat).Set(n.rat)
}

func (n *Num) Sign() int {
	return n.rat.Sign()
}

func (n *Num) String() string {
	if n.rat.IsInt() {
		return n.rat.Num().String()
	}
	return n.rat.RatString()
}

func (n *Num) Sub(map[string]Expr) Expr {
	return n
}

func (n *Num) appendVars(map[string]bool, *[]string) {
}

// Var is a named free variable.
type Var struct {
	name string
}

// NewVar creates a variable reference.
func NewVar(name string) *Var {
	return &Var{name: name}
}

func (v *Var) Name() string {
	return v.name
}

func (v *Var) String() string {
	return v.name
}

func (v *Var) Sub(vals map[string]Expr) Expr {
	if e, ok := vals[v.name]; ok {
		return e
	}
	return v
}

func (v *Var) appendVars(seen map[string]bool, order *[]string) {
	if !seen[v.name] {
		seen[v.name] = true
		*order = append(*order, v.name)
	}
}

// Add is a sum of two or more terms.
type Add struct {
	terms []Expr
}

// NewAdd creates a sum. Operand order is preserved.
func NewAdd(terms ...Expr) *Add {
	return &Add{terms: terms}
}

func (a *Add) Terms() []Expr {
	return a.terms
}

func (a *Add) String() string {
	var b strings.Builder
	for i, t := range a.terms {
		s := t.String()
		if i == 0 {
			b.WriteString(s)
			continue
		}
		if strings.HasPrefix(s, "-") {
			b.WriteString(" - ")
			b.WriteString(s[1:])
		} else {
			b.WriteString(" + ")
			b.WriteString(s)
		}
	}
	return b.String()
}

func (a *Add) Sub(vals map[string]Expr) Expr {
	terms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		terms[i] = t.Sub(vals)
	}
	return &Add{terms: terms}
}

func (a *Add) appendVars(seen map[string]bool, order *[]string) {
	for _, t := range a.terms {
		t.appendVars(seen, order)
	}
}

// Mul is a product of two or more factors.
type Mul struct {
	factors []Expr
}

// NewMul creates a product. Operand order is preserved.
func NewMul(factors ...Expr) *Mul {
	return &Mul{factors: factors}
}

func (m *Mul) Factors() []Expr {
	return m.factors
}

func (m *Mul) String() string {
	var b strings.Builder
	factors := m.factors
	// A leading negative constant prints as a sign so that sums can
	// render subtraction.
	if n, ok := factors[0].(*Num); ok && n.rat.Sign() < 0 && len(factors) > 1 {
		b.WriteString("-")
		if n.rat.Cmp(minusOne) != 0 {
			abs := new(big.Rat).Neg(n.rat)
			b.WriteString(NewNum(abs).String())
			b.WriteString("*")
		}
		factors = factors[1:]
	}
	for i, f := range factors {
		if i > 0 {
			b.WriteString("*")
		}
		b.WriteString(mulOperand(f))
	}
	return b.String()
}

var minusOne = big.NewRat(-1, 1)

// mulOperand parenthesizes sums and negative constants inside a
// product.
func mulOperand(e Expr) string {
	switch v := e.(type) {
	case *Add:
		return "(" + v.String() + ")"
	case *Num:
		if v.rat.Sign() < 0 {
			return "(" + v.String() + ")"
		}
	}
	return e.String()
}

func (m *Mul) Sub(vals map[string]Expr) Expr {
	factors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		factors[i] = f.Sub(vals)
	}
	return &Mul{factors: factors}
}

func (m *Mul) appendVars(seen map[string]bool, order *[]string) {
	for _, f := range m.factors {
		f.appendVars(seen, order)
	}
}

// Pow is an exponentiation. Division is represented as a power with a
// negative exponent.
type Pow struct {
	base Expr
	exp  Expr
}

// NewPow creates base^exp.
func NewPow(base, exp Expr) *Pow {
	return &Pow{base: base, exp: exp}
}

func (p *Pow) Base() Expr {
	return p.base
}

func (p *Pow) Exp() Expr {
	return p.exp
}

func (p *Pow) String() string {
	return powOperand(p.base) + "^" + powOperand(p.exp)
}

func powOperand(e Expr) string {
	switch v := e.(type) {
	case *Var:
		return v.String()
	case *Num:
		if v.rat.Sign() >= 0 && v.rat.IsInt() {
			return v.String()
		}
	}
	return "(" + e.String() + ")"
}

func (p *Pow) Sub(vals map[string]Expr) Expr {
	return &Pow{base: p.base.Sub(vals), exp: p.exp.Sub(vals)}
}

func (p *Pow) appendVars(seen map[string]bool, order *[]string) {
	p.base.appendVars(seen, order)
	p.exp.appendVars(seen, order)
}

// Neg returns -e.
func Neg(e Expr) Expr {
	return NewMul(Int(-1), e)
}

// Div returns a/b as a product with a reciprocal power.
func Div(a, b Expr) Expr {
	return NewMul(a, NewPow(b, Int(-1)))
}

// Vars returns the distinct variable names of e in first-appearance
// order.
func Vars(e Expr) []string {
	seen := make(map[string]bool)
	var order []string
	e.appendVars(seen, &order)
	return order
}

// AsRat reduces e to an exact rational if it contains no variables.
func AsRat(e Expr) (*big.Rat, bool) {
	if n, ok := e.Simplify().(*Num); ok {
		return n.Rat(), true
	}
	return nil, false
}
