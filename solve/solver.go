// Package solve finds numeric solutions of the two-equation,
// two-variable systems produced by the penetrance models. Several
// methods are available; all of them return every converged candidate
// so that the caller can filter and tie-break deterministically.
package solve

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/op/go-logging"

	"gotoxo/expr"
)

// log is a global logging variable.
var log = logging.MustGetLogger("solve")

// ErrNoConvergence is returned when a method fails to converge from
// every starting point. It is a solver limitation signal, distinct
// from a system that provably has no acceptable solution.
var ErrNoConvergence = errors.New("solver did not converge")

// Problem is a system of two equations Lhs[i] = Rhs[i] over the two
// variables named in Vars.
type Problem struct {
	Lhs  [2]expr.Expr
	Rhs  [2]float64
	Vars [2]string
}

func (p *Problem) String() string {
	return fmt.Sprintf("%s = %v; %s = %v", p.Lhs[0], p.Rhs[0], p.Lhs[1], p.Rhs[1])
}

// Residuals evaluates both equation residuals Lhs_i(x, y) - Rhs_i.
func (p *Problem) Residuals(x, y float64) (r0, r1 float64) {
	vals := map[string]float64{p.Vars[0]: x, p.Vars[1]: y}
	r0 = expr.EvalFloat(p.Lhs[0], vals) - p.Rhs[0]
	r1 = expr.EvalFloat(p.Lhs[1], vals) - p.Rhs[1]
	return r0, r1
}

// ResidualNorm is the infinity norm of the residual vector.
func (p *Problem) ResidualNorm(x, y float64) float64 {
	r0, r1 := p.Residuals(x, y)
	return math.Max(math.Abs(r0), math.Abs(r1))
}

// SumSquares is the squared residual norm, the objective of the
// minimization-based methods.
func (p *Problem) SumSquares(x, y float64) float64 {
	r0, r1 := p.Residuals(x, y)
	return r0*r0 + r1*r1
}

// Solution is a candidate value pair for the two variables, in
// Problem.Vars order.
type Solution struct {
	X, Y float64
}

// Method solves a Problem, returning all converged candidates in
// deterministic order, or ErrNoConvergence.
type Method interface {
	Name() string
	Solve(p *Problem) ([]Solution, error)
}

// ByName returns a solving method from a string, in the manner of an
// optimizer registry.
func ByName(name string) (Method, error) {
	switch name {
	case "newton":
		return NewNewton(), nil
	case "simplex":
		return NewSimplex(), nil
	case "lbfgsb":
		return NewLBFGSB(), nil
	}
	return nil, fmt.Errorf("unknown solving method: %s", name)
}

// Tolerance is the residual tolerance derived from the process-wide
// decimal precision: one digit of slack below the working precision.
func Tolerance() float64 {
	return math.Pow(10, -(float64(expr.DPS()) - 1))
}

// startXs and startYs span the positive scales the model variables
// live on. The roots shrink geometrically with the model order, so the
// x values reach far below any fixed physical scale.
var (
	startXs = []float64{0.9, 0.5, 0.1, 0.01, 0.001, 1e-4, 1e-6, 1e-9, 1e-12}
	startYs = []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 20, 50, 100, 500}
)

// startPoints builds the shared multi-start list for a problem. For
// each y it first seeds an x on the manifold of the second equation,
// which is monotone in x for the model family; from such a seed only y
// is left to correct, so even roots many orders of magnitude below the
// plain grid are reachable. The grid points follow as a fallback for
// systems where the seeding fails.
func startPoints(p *Problem) []Solution {
	starts := make([]Solution, 0, (len(startXs)+1)*len(startYs))
	for _, y := range startYs {
		if x, ok := solveForX(p, y); ok {
			starts = append(starts, Solution{X: x, Y: y})
		}
	}
	for _, x := range startXs {
		for _, y := range startYs {
			starts = append(starts, Solution{X: x, Y: y})
		}
	}
	return starts
}

// solveForX solves the second equation for x at fixed y by bisection
// on a logarithmic scale. It relies on the residual being increasing
// in x; when no sign change is bracketed the seed is skipped.
func solveForX(p *Problem, y float64) (float64, bool) {
	res := func(x float64) float64 {
		_, r1 := p.Residuals(x, y)
		return r1
	}
	lo, hi := 0.0, 0.0
	prev := math.Pow(10, -18)
	for e := -17; e <= 9; e++ {
		x := math.Pow(10, float64(e))
		rp, rx := res(prev), res(x)
		if finite(rp) && finite(rx) && rp <= 0 && rx >= 0 {
			lo, hi = prev, x
			break
		}
		prev = x
	}
	if hi == 0 {
		return 0, false
	}
	for i := 0; i < 200 && hi/lo > 1+1e-15; i++ {
		mid := math.Sqrt(lo * hi)
		if r := res(mid); !finite(r) {
			return 0, false
		} else if r < 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi), true
}

// dedupSort removes near-duplicate candidates and orders the rest
// lexicographically by (X, Y), so every method reports candidates in
// the same deterministic order.
func dedupSort(sols []Solution) []Solution {
	const same = 1e-8
	var out []Solution
	for _, s := range sols {
		dup := false
		for _, o := range out {
			if math.Abs(s.X-o.X) < same && math.Abs(s.Y-o.Y) < same {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
