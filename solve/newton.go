package solve

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// Newton is a damped multi-start Newton-Raphson root finder. The
// Jacobian is estimated by central finite differences and the linear
// step is solved with mat64. It is the default method.
type Newton struct {
	MaxIter int
	Starts  []Solution
	dH      float64
}

// NewNewton creates a Newton method with the default start grid.
func NewNewton() *Newton {
	return &Newton{
		MaxIter: 200,
		dH:      1e-7,
	}
}

func (n *Newton) Name() string {
	return "newton"
}

func (n *Newton) Solve(p *Problem) ([]Solution, error) {
	tol := Tolerance()
	starts := n.Starts
	if starts == nil {
		starts = startPoints(p)
	}
	var sols []Solution
	for _, s := range starts {
		if sol, ok := n.run(p, s.X, s.Y, tol); ok {
			log.Debugf("converged from (%g, %g) to (%g, %g)", s.X, s.Y, sol.X, sol.Y)
			sols = append(sols, sol)
		}
	}
	if len(sols) == 0 {
		return nil, ErrNoConvergence
	}
	return dedupSort(sols), nil
}

// run iterates from a single starting point until the residual drops
// below tol or the iteration budget is spent.
func (n *Newton) run(p *Problem, x, y, tol float64) (Solution, bool) {
	norm := p.ResidualNorm(x, y)
	if !finite(norm) {
		return Solution{}, false
	}
	for i := 0; i < n.MaxIter; i++ {
		if norm < tol {
			x, y = n.refine(p, x, y, norm)
			return Solution{X: x, Y: y}, true
		}
		dx, dy, ok := n.step(p, x, y)
		if !ok {
			return Solution{}, false
		}
		// Damping: halve the step until the residual decreases.
		t := 1.0
		improved := false
		for k := 0; k < 50; k++ {
			nx, ny := x+t*dx, y+t*dy
			nn := p.ResidualNorm(nx, ny)
			if finite(nn) && nn < norm {
				x, y, norm = nx, ny, nn
				improved = true
				break
			}
			t /= 2
		}
		if !improved {
			return Solution{}, false
		}
	}
	if norm < tol {
		x, y = n.refine(p, x, y, norm)
		return Solution{X: x, Y: y}, true
	}
	return Solution{}, false
}

// refine takes a few extra full steps after convergence, pushing the
// residual from just under the tolerance down to the noise floor.
// Verification tolerances can coincide with the solver tolerance, so
// stopping right at the boundary is not good enough.
func (n *Newton) refine(p *Problem, x, y, norm float64) (float64, float64) {
	for i := 0; i < 3; i++ {
		dx, dy, ok := n.step(p, x, y)
		if !ok {
			break
		}
		nx, ny := x+dx, y+dy
		nn := p.ResidualNorm(nx, ny)
		if !finite(nn) || nn >= norm {
			break
		}
		x, y, norm = nx, ny, nn
	}
	return x, y
}

// step computes the Newton step -J^-1 * F with a finite-difference
// Jacobian.
func (n *Newton) step(p *Problem, x, y float64) (dx, dy float64, ok bool) {
	hx := n.dH * math.Max(math.Abs(x), 1)
	hy := n.dH * math.Max(math.Abs(y), 1)

	f0p, f1p := p.Residuals(x+hx, y)
	f0m, f1m := p.Residuals(x-hx, y)
	j00 := (f0p - f0m) / (2 * hx)
	j10 := (f1p - f1m) / (2 * hx)

	f0p, f1p = p.Residuals(x, y+hy)
	f0m, f1m = p.Residuals(x, y-hy)
	j01 := (f0p - f0m) / (2 * hy)
	j11 := (f1p - f1m) / (2 * hy)

	r0, r1 := p.Residuals(x, y)
	if !finite(j00) || !finite(j01) || !finite(j10) || !finite(j11) ||
		!finite(r0) || !finite(r1) {
		return 0, 0, false
	}

	jac := mat64.NewDense(2, 2, []float64{j00, j01, j10, j11})
	rhs := mat64.NewDense(2, 1, []float64{-r0, -r1})
	var d mat64.Dense
	if err := d.Solve(jac, rhs); err != nil {
		return 0, 0, false
	}
	dx, dy = d.At(0, 0), d.At(1, 0)
	if !finite(dx) || !finite(dy) {
		return 0, 0, false
	}
	return dx, dy, true
}

// polish runs a few Newton iterations from a candidate produced by a
// minimization method, to push it down to root tolerance.
func polish(p *Problem, s Solution, tol float64) (Solution, bool) {
	n := NewNewton()
	n.MaxIter = 50
	return n.run(p, s.X, s.Y, tol)
}
