package solve

import (
	"math"
	"testing"

	"github.com/op/go-logging"

	"gotoxo/expr"
)

func init() {
	logging.SetLevel(logging.WARNING, "solve")
}

func mustParse(tst *testing.T, s string) expr.Expr {
	e, err := expr.Parse(s)
	if err != nil {
		tst.Fatalf("Parse(%q): %v", s, err)
	}
	return e
}

// sumProduct is the system x + y = 3, x*y = 2 with roots (1, 2) and
// (2, 1).
func sumProduct(tst *testing.T) *Problem {
	return &Problem{
		Lhs:  [2]expr.Expr{mustParse(tst, "x + y"), mustParse(tst, "x*y")},
		Rhs:  [2]float64{3, 2},
		Vars: [2]string{"x", "y"},
	}
}

func TestNewtonFindsBothRoots(tst *testing.T) {
	sols, err := NewNewton().Solve(sumProduct(tst))
	if err != nil {
		tst.Fatal(err)
	}
	if len(sols) != 2 {
		tst.Fatal("expected 2 solutions, got", sols)
	}
	// Deterministic order: lexicographically smallest first.
	if math.Abs(sols[0].X-1) > 1e-9 || math.Abs(sols[0].Y-2) > 1e-9 {
		tst.Error("expected first solution (1, 2), got", sols[0])
	}
	if math.Abs(sols[1].X-2) > 1e-9 || math.Abs(sols[1].Y-1) > 1e-9 {
		tst.Error("expected second solution (2, 1), got", sols[1])
	}
}

func TestNewtonResidualTolerance(tst *testing.T) {
	p := sumProduct(tst)
	sols, err := NewNewton().Solve(p)
	if err != nil {
		tst.Fatal(err)
	}
	for _, s := range sols {
		if norm := p.ResidualNorm(s.X, s.Y); norm > Tolerance() {
			tst.Errorf("solution (%g, %g) residual %g above tolerance", s.X, s.Y, norm)
		}
	}
}

func TestSimplexAgreesWithNewton(tst *testing.T) {
	p := sumProduct(tst)
	sols, err := NewSimplex().Solve(p)
	if err != nil {
		tst.Fatal(err)
	}
	if len(sols) == 0 {
		tst.Fatal("expected at least one solution")
	}
	if math.Abs(sols[0].X-1) > 1e-9 || math.Abs(sols[0].Y-2) > 1e-9 {
		tst.Error("expected first solution (1, 2), got", sols[0])
	}
}

func TestNoConvergence(tst *testing.T) {
	// x^2 + y^2 + 1 = 0 has no real solution.
	p := &Problem{
		Lhs:  [2]expr.Expr{mustParse(tst, "x^2 + y^2 + 1"), mustParse(tst, "x + y")},
		Rhs:  [2]float64{0, 0},
		Vars: [2]string{"x", "y"},
	}
	_, err := NewNewton().Solve(p)
	if err != ErrNoConvergence {
		tst.Error("expected ErrNoConvergence, got", err)
	}
}

func TestByName(tst *testing.T) {
	for _, name := range []string{"newton", "simplex", "lbfgsb"} {
		m, err := ByName(name)
		if err != nil {
			tst.Error(name, ":", err)
			continue
		}
		if m.Name() != name {
			tst.Errorf("ByName(%q).Name() = %q", name, m.Name())
		}
	}
	if _, err := ByName("gradient-descent"); err == nil {
		tst.Error("unknown method should be rejected")
	}
}

func TestToleranceTracksDPS(tst *testing.T) {
	defer expr.SetDPS(expr.DefaultDPS)
	expr.SetDPS(10)
	if got := Tolerance(); math.Abs(got-1e-9) > 1e-24 {
		tst.Error("expected 1e-9 at 10 digits, got", got)
	}
	expr.SetDPS(15)
	if got := Tolerance(); math.Abs(got-1e-14) > 1e-29 {
		tst.Error("expected 1e-14 at 15 digits, got", got)
	}
}

// tinyRoot is the system x*(1+y)^7 = 18, x*(1+y)^6 = 1 with the
// single positive root (18^-6, 17): the baseline is eight orders of
// magnitude below the smallest plain grid scale, so convergence
// depends on the manifold-seeded starting points.
func tinyRoot(tst *testing.T) *Problem {
	return &Problem{
		Lhs:  [2]expr.Expr{mustParse(tst, "x*(1+y)^7"), mustParse(tst, "x*(1+y)^6")},
		Rhs:  [2]float64{18, 1},
		Vars: [2]string{"x", "y"},
	}
}

func TestNewtonFindsTinyRoot(tst *testing.T) {
	p := tinyRoot(tst)
	sols, err := NewNewton().Solve(p)
	if err != nil {
		tst.Fatal(err)
	}
	wantX := math.Pow(18, -6)
	found := false
	for _, s := range sols {
		if math.Abs(s.X-wantX) < 1e-9*wantX && math.Abs(s.Y-17) < 1e-6 {
			found = true
		}
	}
	if !found {
		tst.Errorf("expected root (%g, 17) among %v", wantX, sols)
	}
}

func TestSolveForXSeedsManifold(tst *testing.T) {
	p := tinyRoot(tst)
	x, ok := solveForX(p, 17)
	if !ok {
		tst.Fatal("expected a seed at y = 17")
	}
	want := math.Pow(18, -6)
	if math.Abs(x-want) > 1e-10*want {
		tst.Errorf("solveForX(17) = %g, want %g", x, want)
	}
	// An equation with no positive crossing yields no seed.
	q := &Problem{
		Lhs:  [2]expr.Expr{mustParse(tst, "x"), mustParse(tst, "x + 1")},
		Rhs:  [2]float64{0, 0},
		Vars: [2]string{"x", "y"},
	}
	if _, ok := solveForX(q, 1); ok {
		tst.Error("expected no seed for x + 1 = 0")
	}
}
