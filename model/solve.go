package model

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"gotoxo/expr"
	"gotoxo/ptable"
	"gotoxo/solve"
	"gotoxo/stats"
	"gotoxo/timeout"
)

// relaxedDPS is the lowered working precision for the single
// non-convergence retry. Some ill-conditioned systems converge only
// with fewer digits.
const relaxedDPS = 10

// SolveOptions controls a table solve. The zero value means no
// timeout, no verification and the Newton method; use
// DefaultSolveOptions for the recommended settings.
type SolveOptions struct {
	// Timeout bounds the solver run; 0 disables the bound unless
	// HeuristicTimeout is set.
	Timeout time.Duration
	// HeuristicTimeout derives the bound from the model order as
	// (order+1)^2 minutes, overriding Timeout.
	HeuristicTimeout bool
	// Check verifies the solution against both equations within the
	// model's tolerable error delta.
	Check bool
	// Method names the solving method (solve.ByName).
	Method string
	// SimplifyBudget bounds statistic simplification; 0 derives it
	// from the model order.
	SimplifyBudget time.Duration
}

// DefaultSolveOptions returns the recommended solve settings:
// heuristic timeout, verification on, Newton.
func DefaultSolveOptions() *SolveOptions {
	return &SolveOptions{HeuristicTimeout: true, Check: true, Method: "newton"}
}

// HeuristicTimeout is the default solver time bound for a model of
// the given order. Solve times grow steeply with the order.
func HeuristicTimeout(order int) time.Duration {
	n := time.Duration(order + 1)
	return n * n * 60 * time.Second
}

// FindMaxPrevalenceTable solves the model for the penetrance table
// with maximal prevalence subject to the target heritability: the
// system fixes heritability(mafs) to h and normalizes the largest
// penetrance to 1.
func (m *Model) FindMaxPrevalenceTable(mafs []float64, h float64, opts *SolveOptions) (*ptable.PTable, error) {
	if opts == nil {
		opts = DefaultSolveOptions()
	}
	if err := m.validate(mafs, h, "heritability", opts); err != nil {
		return nil, err
	}
	lhs, err := stats.Heritability(m.penetrances, mafs, opts.SimplifyBudget)
	if err != nil {
		return nil, err
	}
	return m.solveTable(lhs, h, mafs, opts)
}

// FindMaxHeritabilityTable solves the model for the penetrance table
// with maximal heritability subject to the target prevalence.
func (m *Model) FindMaxHeritabilityTable(mafs []float64, p float64, opts *SolveOptions) (*ptable.PTable, error) {
	if opts == nil {
		opts = DefaultSolveOptions()
	}
	if err := m.validate(mafs, p, "prevalence", opts); err != nil {
		return nil, err
	}
	lhs, err := stats.PrevalenceMAFs(m.penetrances, mafs, opts.SimplifyBudget)
	if err != nil {
		return nil, err
	}
	return m.solveTable(lhs, p, mafs, opts)
}

// validate rejects bad call-site parameters before any computation.
func (m *Model) validate(mafs []float64, target float64, targetName string, opts *SolveOptions) error {
	if len(mafs) != m.order {
		return &ValidationError{
			Param: "mafs",
			Cause: fmt.Sprintf("got %d frequencies for an order %d model", len(mafs), m.order),
		}
	}
	for _, maf := range mafs {
		if maf < 0 || maf > 0.5 {
			return &ValidationError{
				Param: "mafs",
				Cause: fmt.Sprintf("%v is outside [0, 0.5]", maf),
			}
		}
	}
	if target < 0 || target > 1 || math.IsNaN(target) {
		return &ValidationError{
			Param: targetName,
			Cause: fmt.Sprintf("%v is outside [0, 1]", target),
		}
	}
	if opts.Timeout < 0 {
		return &ValidationError{
			Param: "timeout",
			Cause: fmt.Sprintf("%v is negative", opts.Timeout),
		}
	}
	if _, err := solve.ByName(opts.Method); err != nil {
		return &ValidationError{Param: "method", Cause: err.Error()}
	}
	return nil
}

// maxPenetrance selects the normalization target: the distinct
// penetrance expression that is numerically largest with both
// variables substituted by 1. The model family guarantees penetrances
// monotonically non-decreasing in both variables over positive reals,
// so a single positive sample preserves the ordering.
func (m *Model) maxPenetrance() expr.Expr {
	vals := map[string]float64{m.variables[0]: 1, m.variables[1]: 1}
	seen := make(map[string]bool)
	var best expr.Expr
	bestVal := math.Inf(-1)
	for _, p := range m.penetrances {
		s := p.String()
		if seen[s] {
			continue
		}
		seen[s] = true
		if v := expr.EvalFloat(p, vals); v > bestVal {
			bestVal, best = v, p
		}
	}
	return best
}

func (m *Model) solveTable(lhs expr.Expr, target float64, mafs []float64, opts *SolveOptions) (*ptable.PTable, error) {
	p := &solve.Problem{
		Lhs:  [2]expr.Expr{lhs, m.maxPenetrance()},
		Rhs:  [2]float64{target, 1},
		Vars: m.variables,
	}
	method, err := solve.ByName(opts.Method)
	if err != nil {
		return nil, &ValidationError{Param: "method", Cause: err.Error()}
	}
	bound := opts.Timeout
	if opts.HeuristicTimeout {
		bound = HeuristicTimeout(m.order)
	}
	log.Infof("solving %s with %s (timeout %v): %s", m.name, method.Name(), bound, p)

	sols, err := m.runSolver(method, p, bound)
	if err == solve.ErrNoConvergence {
		log.Noticef("%s did not converge at %d digits, retrying at %d", method.Name(), expr.DPS(), relaxedDPS)
		sols, err = m.runRelaxed(method, p, bound)
	}
	if err != nil {
		if rerr, ok := err.(*ResolutionError); ok {
			return nil, rerr
		}
		return nil, &ResolutionError{ModelName: m.name, Cause: err.Error(), Equation: p.String()}
	}

	var valid []solve.Solution
	for _, s := range sols {
		if finite(s.X) && finite(s.Y) && s.X > 0 && s.Y > 0 {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return nil, &UnsolvableError{ModelName: m.name, Equation: p.String()}
	}
	sol := valid[0]
	if opts.Check {
		sol, err = m.screen(p, valid)
		if err != nil {
			return nil, err
		}
	}
	log.Debugf("%s solved: %s = %v, %s = %v", m.name, m.variables[0], sol.X, m.variables[1], sol.Y)
	return ptable.New(m.name, m.order, m.penetrances, m.variables, sol.X, sol.Y, mafs)
}

// runSolver runs the method under the cooperative timeout. On expiry
// the worker is abandoned and a timeout resolution error is raised.
func (m *Model) runSolver(method solve.Method, p *solve.Problem, bound time.Duration) ([]solve.Solution, error) {
	type result struct {
		sols []solve.Solution
		err  error
	}
	res := make(chan result, 1)
	err := timeout.Run(bound, func() error {
		sols, err := method.Solve(p)
		res <- result{sols, err}
		return nil
	})
	if err == timeout.ErrTimeout {
		return nil, &ResolutionError{
			ModelName: m.name,
			Cause:     "Exceeded timeout",
			Equation:  p.String(),
		}
	}
	r := <-res
	return r.sols, r.err
}

// runRelaxed retries once at lowered precision. The precision setting
// is process-wide, so it is restored no matter how the retry ends.
func (m *Model) runRelaxed(method solve.Method, p *solve.Problem, bound time.Duration) ([]solve.Solution, error) {
	prev := expr.DPS()
	expr.SetDPS(relaxedDPS)
	defer expr.SetDPS(prev)
	return m.runSolver(method, p, bound)
}

// mismatchGrace scales the model delta when classifying a failed
// verification. A candidate this close to satisfying both equations is
// a genuine root reported with insufficient accuracy; anything farther
// is a numeric artifact of a system with no positive solution.
const mismatchGrace = 10

// screen verifies the candidates in order and returns the first one
// whose worst equation deviation stays within the model delta. When
// every candidate fails, the best deviation decides between a
// verification mismatch and an unsolvable model.
func (m *Model) screen(p *solve.Problem, cands []solve.Solution) (solve.Solution, error) {
	best := math.Inf(1)
	for _, s := range cands {
		d, err := m.deviation(p, s)
		if err != nil {
			return solve.Solution{}, err
		}
		if d <= m.delta {
			return s, nil
		}
		if d < best {
			best = d
		}
	}
	if best <= mismatchGrace*m.delta {
		return solve.Solution{}, &ResolutionError{
			ModelName: m.name,
			Cause:     fmt.Sprintf("verification failed: deviation %g exceeds tolerance %g", best, m.delta),
			Equation:  p.String(),
		}
	}
	return solve.Solution{}, &UnsolvableError{ModelName: m.name, Equation: p.String()}
}

// deviation substitutes the candidate into both equations at the
// working big.Float precision and returns the worse of the two
// absolute deviations.
func (m *Model) deviation(p *solve.Problem, sol solve.Solution) (float64, error) {
	prec := expr.Prec()
	vals := map[string]*big.Float{
		p.Vars[0]: new(big.Float).SetPrec(prec).SetFloat64(sol.X),
		p.Vars[1]: new(big.Float).SetPrec(prec).SetFloat64(sol.Y),
	}
	worst := 0.0
	for i := 0; i < 2; i++ {
		got, err := expr.Eval(p.Lhs[i], vals)
		if err != nil {
			return 0, &ResolutionError{ModelName: m.name, Cause: err.Error(), Equation: p.String()}
		}
		dev := new(big.Float).Sub(got, new(big.Float).SetPrec(prec).SetFloat64(p.Rhs[i]))
		dev.Abs(dev)
		if d, _ := dev.Float64(); d > worst {
			worst = d
		}
	}
	return worst, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
