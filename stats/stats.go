// Package stats computes the prevalence and heritability of a
// penetrance table as symbolic expressions over the model variables.
package stats

import (
	"fmt"
	"math/big"
	"time"

	"github.com/op/go-logging"

	"gotoxo/expr"
	"gotoxo/genotype"
	"gotoxo/timeout"
)

// log is a global logging variable.
var log = logging.MustGetLogger("stats")

// CalculationError reports an unexpected failure inside a statistics
// operation, naming the operation that failed.
type CalculationError struct {
	Op  string
	Err error
}

func (e *CalculationError) Error() string {
	return fmt.Sprintf("calculation error in %s: %v", e.Op, e.Err)
}

func (e *CalculationError) Unwrap() error {
	return e.Err
}

// SimplifyBudget returns the heuristic simplification time limit for
// a model of the given order.
func SimplifyBudget(order int) time.Duration {
	return time.Duration(order) * 60 * time.Second
}

// orderOf derives the model order from a penetrance list length
// (3^order entries).
func orderOf(n int) int {
	order := 0
	for n > 1 {
		n /= 3
		order++
	}
	return order
}

// Prevalence computes the prevalence of a penetrance list given the
// genotype probabilities: the dot product sum(pen_i * prob_i). The
// result is an exact rational when the penetrances reduce
// numerically, a symbolic expression otherwise.
//
// A budget of 0 derives the simplification time limit from the model
// order; a negative budget disables the limit. Simplification is an
// optimization: on expiry the unsimplified expression is returned.
func Prevalence(penetrances []expr.Expr, probs []*big.Rat, budget time.Duration) (expr.Expr, error) {
	if len(penetrances) == 0 || len(penetrances) != len(probs) {
		return nil, &CalculationError{
			Op:  "prevalence",
			Err: fmt.Errorf("penetrance list (%d) and probability list (%d) sizes differ", len(penetrances), len(probs)),
		}
	}
	terms := make([]expr.Expr, len(penetrances))
	for i, pen := range penetrances {
		terms[i] = expr.NewMul(pen, expr.NewNum(probs[i]))
	}
	sum := expr.NewAdd(terms...)
	if budget == 0 {
		budget = SimplifyBudget(orderOf(len(penetrances)))
	}
	return trySimplify(sum, budget), nil
}

// PrevalenceMAFs is Prevalence with the genotype probabilities
// derived from per-locus minor allele frequencies.
func PrevalenceMAFs(penetrances []expr.Expr, mafs []float64, budget time.Duration) (expr.Expr, error) {
	probs, err := genotype.Probabilities(genotype.RatsFromFloats(mafs))
	if err != nil {
		return nil, &CalculationError{Op: "prevalence", Err: err}
	}
	return Prevalence(penetrances, probs, budget)
}

// Heritability computes the heritability of a penetrance list for the
// given minor allele frequencies:
//
//	sum((pen_i - p)^2 * prob_i) / (p * (1 - p))
//
// where p is the prevalence. This is the genotype-probability-weighted
// variance of penetrance around prevalence, normalized by the
// Bernoulli variance of the disease.
//
// The budget semantics match Prevalence.
func Heritability(penetrances []expr.Expr, mafs []float64, budget time.Duration) (expr.Expr, error) {
	probs, err := genotype.Probabilities(genotype.RatsFromFloats(mafs))
	if err != nil {
		return nil, &CalculationError{Op: "heritability", Err: err}
	}
	if len(penetrances) != len(probs) {
		return nil, &CalculationError{
			Op:  "heritability",
			Err: fmt.Errorf("penetrance list (%d) does not match %d loci", len(penetrances), len(mafs)),
		}
	}
	p, err := Prevalence(penetrances, probs, budget)
	if err != nil {
		return nil, &CalculationError{Op: "heritability", Err: err}
	}

	// The prevalence (already simplified above) and its negation are
	// shared by every variance term; the simplifier preserves shared
	// fixed points, so the sum stays a single object instead of one
	// copy per term.
	negP := expr.Neg(p)
	parts := make([]expr.Expr, len(penetrances)+1)
	for i, pen := range penetrances {
		dev := expr.NewAdd(pen, negP)
		parts[i] = expr.NewMul(expr.NewPow(dev, expr.Int(2)), expr.NewNum(probs[i]))
	}
	parts[len(penetrances)] = expr.NewPow(expr.NewMul(p, expr.NewAdd(expr.Int(1), negP)), expr.Int(-1))

	if budget == 0 {
		budget = SimplifyBudget(orderOf(len(penetrances)))
	}
	parts = simplifyEach(parts, budget)
	variance := expr.NewAdd(parts[:len(penetrances)]...)
	return expr.NewMul(variance, parts[len(penetrances)]), nil
}

// trySimplify simplifies e within the given time budget. On expiry
// the input expression is returned unchanged; simplification is never
// required for correctness.
func trySimplify(e expr.Expr, budget time.Duration) expr.Expr {
	res := make(chan expr.Expr, 1)
	err := timeout.Run(budget, func() error {
		res <- e.Simplify()
		return nil
	})
	if err == timeout.ErrTimeout {
		log.Infof("simplification exceeded %v, keeping the raw expression", budget)
		return e
	}
	return <-res
}

// simplifyEach simplifies every part within one shared time budget,
// checking for expiry between parts so an expired worker stops
// allocating instead of simplifying thousands of terms it cannot
// deliver. On expiry the raw parts are returned unchanged.
func simplifyEach(parts []expr.Expr, budget time.Duration) []expr.Expr {
	res := make(chan []expr.Expr, 1)
	err := timeout.RunStop(budget, func(stop <-chan struct{}) error {
		out := make([]expr.Expr, len(parts))
		for i, e := range parts {
			select {
			case <-stop:
				return nil
			default:
			}
			out[i] = e.Simplify()
		}
		res <- out
		return nil
	})
	if err == timeout.ErrTimeout {
		log.Infof("simplification exceeded %v, keeping the raw expressions", budget)
		return parts
	}
	return <-res
}
