package solve

import (
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
)

// LBFGSB minimizes the squared residuals with the bounded
// quasi-Newton L-BFGS-B algorithm and polishes the minimizer with
// Newton. Gradients are estimated numerically.
type LBFGSB struct {
	Starts []Solution
	dH     float64
	p      *Problem
	grad   []float64
}

// NewLBFGSB creates an L-BFGS-B method.
func NewLBFGSB() *LBFGSB {
	return &LBFGSB{
		dH: 1e-6,
	}
}

func (l *LBFGSB) Name() string {
	return "lbfgsb"
}

// Bounds keep the search inside the physically plausible positive
// region; the lower bound is slightly off zero because the objective
// may be singular on the axes.
const (
	boundLo = 1e-8
	boundHi = 1e8
)

func (l *LBFGSB) Solve(p *Problem) ([]Solution, error) {
	tol := Tolerance()
	starts := l.Starts
	if starts == nil {
		starts = startPoints(p)
	}
	l.p = p

	bounds := [][2]float64{{boundLo, boundHi}, {boundLo, boundHi}}

	var sols []Solution
	for _, s := range starts {
		opt := new(lbfgsb.Lbfgsb)
		opt.SetApproximationSize(10)
		opt.SetFTolerance(1e-12)
		opt.SetGTolerance(1e-12)
		opt.SetBounds(bounds)

		min, exitStatus := opt.Minimize(l, []float64{s.X, s.Y})
		log.Debugf("lbfgsb from (%g, %g): %v", s.X, s.Y, exitStatus)
		if len(min.X) != 2 {
			continue
		}
		if sol, ok := polish(p, Solution{X: min.X[0], Y: min.X[1]}, tol); ok {
			sols = append(sols, sol)
		}
	}
	if len(sols) == 0 {
		return nil, ErrNoConvergence
	}
	return dedupSort(sols), nil
}

// EvaluateFunction implements the go-lbfgsb objective.
func (l *LBFGSB) EvaluateFunction(x []float64) float64 {
	v := l.p.SumSquares(x[0], x[1])
	if !finite(v) {
		return math.Inf(+1)
	}
	return v
}

// EvaluateGradient implements the go-lbfgsb objective gradient with
// central differences.
func (l *LBFGSB) EvaluateGradient(x []float64) []float64 {
	if l.grad == nil {
		l.grad = make([]float64, len(x))
	}
	for i := range x {
		h := l.dH * math.Max(math.Abs(x[i]), 1)
		xp := []float64{x[0], x[1]}
		xm := []float64{x[0], x[1]}
		xp[i] += h
		xm[i] -= h
		l.grad[i] = (l.EvaluateFunction(xp) - l.EvaluateFunction(xm)) / (2 * h)
	}
	return l.grad
}
