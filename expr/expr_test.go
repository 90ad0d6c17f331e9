package expr

import (
	"math"
	"math/big"
	"testing"
)

func TestParseString(tst *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"x", "x"},
		{"x*(1+y)", "x*(1 + y)"},
		{"x*(1+y)^2", "x*(1 + y)^2"},
		{"x * (1 + y) ^ 4", "x*(1 + y)^4"},
		{"0.25*x", "1/4*x"},
		{"g*(1+w)^3", "g*(1 + w)^3"},
		{"x^2*y^2", "x^2*y^2"},
		{"1 - x", "1 - x"},
	}
	for _, c := range cases {
		e, err := Parse(c.in)
		if err != nil {
			tst.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if got := e.String(); got != c.out {
			tst.Errorf("Parse(%q).String() = %q, want %q", c.in, got, c.out)
		}
	}
}

func TestParseErrors(tst *testing.T) {
	bad := []string{"", "x*(", "x+", "x$y", "1..2", "x y", "()"}
	for _, s := range bad {
		if _, err := Parse(s); err == nil {
			tst.Errorf("Parse(%q) should have failed", s)
		}
	}
}

func TestVarsOrder(tst *testing.T) {
	e, err := Parse("y + x*y + x^2")
	if err != nil {
		tst.Fatal(err)
	}
	vars := Vars(e)
	if len(vars) != 2 || vars[0] != "y" || vars[1] != "x" {
		tst.Error("expected [y x] in appearance order, got", vars)
	}
}

func TestEvalFloat(tst *testing.T) {
	e, err := Parse("x*(1+y)^2")
	if err != nil {
		tst.Fatal(err)
	}
	got := EvalFloat(e, map[string]float64{"x": 0.5, "y": 1})
	if math.Abs(got-2) > 1e-12 {
		tst.Error("expected 2, got", got)
	}
}

func TestEvalBig(tst *testing.T) {
	e, err := Parse("x*(1+y)^4")
	if err != nil {
		tst.Fatal(err)
	}
	vals := map[string]*big.Float{
		"x": new(big.Float).SetFloat64(0.0625),
		"y": new(big.Float).SetFloat64(1),
	}
	f, err := Eval(e, vals)
	if err != nil {
		tst.Fatal(err)
	}
	got, _ := f.Float64()
	if math.Abs(got-1) > 1e-12 {
		tst.Error("expected 1, got", got)
	}
}

func TestEvalMissingVariable(tst *testing.T) {
	e, err := Parse("x*y")
	if err != nil {
		tst.Fatal(err)
	}
	_, err = Eval(e, map[string]*big.Float{"x": new(big.Float).SetInt64(1)})
	if err == nil {
		tst.Error("expected an error for a missing variable")
	}
}

func TestSimplifyFolding(tst *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1+2+3", "6"},
		{"2*3*x", "6*x"},
		{"x*1", "x"},
		{"x+0", "x"},
		{"0*x", "0"},
		{"(1/2)^2", "1/4"},
		{"2^-1", "1/2"},
		{"x^1", "x"},
		{"x^0", "1"},
		{"0.1*10", "1"},
	}
	for _, c := range cases {
		e, err := Parse(c.in)
		if err != nil {
			tst.Errorf("Parse(%q): %v", c.in, err)
			continue
		}
		if got := e.Simplify().String(); got != c.out {
			tst.Errorf("Simplify(%q) = %q, want %q", c.in, got, c.out)
		}
	}
}

func TestAsRat(tst *testing.T) {
	e, err := Parse("(1+1/3)*3/4")
	if err != nil {
		tst.Fatal(err)
	}
	r, ok := AsRat(e)
	if !ok {
		tst.Fatal("expected an exact rational reduction")
	}
	if r.Cmp(big.NewRat(1, 1)) != 0 {
		tst.Error("expected 1, got", r)
	}
	if _, ok := AsRat(NewVar("x")); ok {
		tst.Error("variable should not reduce to a rational")
	}
}

func TestSub(tst *testing.T) {
	e, err := Parse("x*(1+y)^2")
	if err != nil {
		tst.Fatal(err)
	}
	s := e.Sub(map[string]Expr{"x": big2, "y": Int(1)}).Simplify()
	n, ok := s.(*Num)
	if !ok {
		tst.Fatal("expected a numeric result, got", s)
	}
	if n.Rat().Cmp(big.NewRat(8, 1)) != 0 {
		tst.Error("expected 8, got", n)
	}
}

var big2 = Int(2)

func TestSetDPS(tst *testing.T) {
	defer SetDPS(DefaultDPS)
	SetDPS(10)
	if DPS() != 10 {
		tst.Error("expected DPS 10, got", DPS())
	}
	SetDPS(0) // ignored
	if DPS() != 10 {
		tst.Error("DPS below 1 should be ignored")
	}
}

func TestSimplifyFixedPointSharing(tst *testing.T) {
	// A simplified expression must simplify to itself, so that a
	// subexpression shared by many sibling terms is never copied per
	// term on later passes.
	sum, err := Parse("1/4*x + 1/2*x*(1+y) + 1/4*x*(1+y)^2")
	if err != nil {
		tst.Fatal(err)
	}
	p := sum.Simplify()
	if p.Simplify() != p {
		tst.Error("re-simplifying a fixed point allocated a copy")
	}

	neg := NewMul(Int(-1), p).Simplify()
	if neg.Simplify() != neg {
		tst.Error("negated fixed point is not stable")
	}

	term := NewMul(NewPow(NewAdd(NewVar("x"), neg), Int(2)), NewNum(big.NewRat(1, 4)))
	s := term.Simplify()
	if s.Simplify() != s {
		tst.Error("variance-shaped term is not stable")
	}
}
