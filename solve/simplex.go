package solve

import (
	"math"
)

const (
	tiny     = 1e-10
	ssqFloor = 1e-30
)

// Simplex is a downhill-simplex minimizer of the squared residuals,
// followed by a Newton polish of the minimizer. It is slower than
// Newton but does not need a usable Jacobian anywhere along the way.
type Simplex struct {
	MaxIter int
	Starts  []Solution
	delta   float64
	ftol    float64
}

// NewSimplex creates a downhill simplex method.
func NewSimplex() *Simplex {
	return &Simplex{
		MaxIter: 2000,
		delta:   0.5,
		ftol:    tiny,
	}
}

func (ds *Simplex) Name() string {
	return "simplex"
}

func (ds *Simplex) Solve(p *Problem) ([]Solution, error) {
	tol := Tolerance()
	starts := ds.Starts
	if starts == nil {
		starts = startPoints(p)
	}
	var sols []Solution
	for _, s := range starts {
		min, ok := ds.minimize(p, s)
		if !ok {
			continue
		}
		if sol, ok := polish(p, min, tol); ok {
			log.Debugf("simplex from (%g, %g) polished to (%g, %g)", s.X, s.Y, sol.X, sol.Y)
			sols = append(sols, sol)
		}
	}
	if len(sols) == 0 {
		return nil, ErrNoConvergence
	}
	return dedupSort(sols), nil
}

// minimize runs the Nelder-Mead loop on a 3-point simplex around the
// starting point.
func (ds *Simplex) minimize(p *Problem, start Solution) (Solution, bool) {
	pts := [3][2]float64{
		{start.X, start.Y},
		{start.X + ds.delta, start.Y},
		{start.X, start.Y + ds.delta},
	}
	var vals [3]float64
	for i, pt := range pts {
		vals[i] = ds.objective(p, pt)
	}

	for iter := 0; iter < ds.MaxIter; iter++ {
		lo, nhi, hi := rank(vals)

		rtol := 2 * math.Abs(vals[hi]-vals[lo]) /
			(math.Abs(vals[hi]) + math.Abs(vals[lo]) + tiny)
		if rtol < ds.ftol || vals[lo] < ssqFloor {
			break
		}

		l := ds.amotry(p, &pts, &vals, hi, -1)
		switch {
		case l <= vals[lo]:
			ds.amotry(p, &pts, &vals, hi, 2)
		case l >= vals[nhi]:
			save := vals[hi]
			l = ds.amotry(p, &pts, &vals, hi, 0.5)
			if l >= save {
				// Contract everything towards the best point.
				for i := range pts {
					if i == lo {
						continue
					}
					pts[i][0] = 0.5 * (pts[i][0] + pts[lo][0])
					pts[i][1] = 0.5 * (pts[i][1] + pts[lo][1])
					vals[i] = ds.objective(p, pts[i])
				}
			}
		}
	}

	lo, _, _ := rank(vals)
	if !finite(vals[lo]) {
		return Solution{}, false
	}
	return Solution{X: pts[lo][0], Y: pts[lo][1]}, true
}

func (ds *Simplex) objective(p *Problem, pt [2]float64) float64 {
	v := p.SumSquares(pt[0], pt[1])
	if !finite(v) {
		return math.Inf(+1)
	}
	return v
}

// rank returns the indices of the lowest, next-highest and highest
// objective values.
func rank(vals [3]float64) (lo, nhi, hi int) {
	lo, hi = 0, 0
	for i := 1; i < 3; i++ {
		if vals[i] < vals[lo] {
			lo = i
		}
		if vals[i] > vals[hi] {
			hi = i
		}
	}
	for i := 0; i < 3; i++ {
		if i != hi && (vals[i] > vals[nhi] || nhi == hi) {
			nhi = i
		}
	}
	return lo, nhi, hi
}

// amotry extrapolates by a factor through the face of the simplex
// across from the high point and keeps the new point if it is better.
func (ds *Simplex) amotry(p *Problem, pts *[3][2]float64, vals *[3]float64, hi int, fac float64) float64 {
	var psum [2]float64
	for _, pt := range pts {
		psum[0] += pt[0]
		psum[1] += pt[1]
	}
	fac1 := (1 - fac) / 2
	fac2 := fac1 - fac
	try := [2]float64{
		psum[0]*fac1 - pts[hi][0]*fac2,
		psum[1]*fac1 - pts[hi][1]*fac2,
	}
	l := ds.objective(p, try)
	if l < vals[hi] {
		pts[hi] = try
		vals[hi] = l
	}
	return l
}
