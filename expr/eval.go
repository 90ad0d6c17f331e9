package expr

import (
	"fmt"
	"math"
	"math/big"
	"sync"
)

// DefaultDPS is the default number of decimal digits of precision
// used by Eval.
const DefaultDPS = 15

// dpsMu guards the process-wide precision setting. The setting is
// global like the working precision of an arbitrary-precision
// library; concurrent solves that relax it must serialize.
var (
	dpsMu  sync.Mutex
	curDPS = DefaultDPS
)

// DPS returns the current number of decimal digits of precision.
func DPS() int {
	dpsMu.Lock()
	defer dpsMu.Unlock()
	return curDPS
}

// SetDPS sets the process-wide number of decimal digits of precision.
// Values below 1 are ignored.
func SetDPS(n int) {
	if n < 1 {
		return
	}
	dpsMu.Lock()
	defer dpsMu.Unlock()
	curDPS = n
}

// bitsPerDigit is log2(10).
const bitsPerDigit = 3.3219280948873626

// Prec returns the big.Float mantissa precision, in bits,
// corresponding to the current decimal precision.
func Prec() uint {
	return uint(float64(DPS())*bitsPerDigit) + 16
}

// Eval evaluates e at the given variable values with the current
// process-wide precision. Variables missing from vals are an error.
func Eval(e Expr, vals map[string]*big.Float) (*big.Float, error) {
	return evalBig(e, vals, Prec())
}

// EvalRat evaluates e at exact rational variable values, returning a
// big.Float at the current precision.
func EvalRat(e Expr, vals map[string]*big.Rat) (*big.Float, error) {
	prec := Prec()
	fvals := make(map[string]*big.Float, len(vals))
	for name, r := range vals {
		fvals[name] = new(big.Float).SetPrec(prec).SetRat(r)
	}
	return evalBig(e, fvals, prec)
}

func evalBig(e Expr, vals map[string]*big.Float, prec uint) (*big.Float, error) {
	switch v := e.(type) {
	case *Num:
		return new(big.Float).SetPrec(prec).SetRat(v.rat), nil
	case *Var:
		f, ok := vals[v.name]
		if !ok {
			return nil, fmt.Errorf("no value for variable %q", v.name)
		}
		return new(big.Float).SetPrec(prec).Set(f), nil
	case *Add:
		acc := new(big.Float).SetPrec(prec)
		for _, t := range v.terms {
			f, err := evalBig(t, vals, prec)
			if err != nil {
				return nil, err
			}
			acc.Add(acc, f)
		}
		return acc, nil
	case *Mul:
		acc := new(big.Float).SetPrec(prec).SetInt64(1)
		for _, t := range v.factors {
			f, err := evalBig(t, vals, prec)
			if err != nil {
				return nil, err
			}
			acc.Mul(acc, f)
		}
		return acc, nil
	case *Pow:
		base, err := evalBig(v.base, vals, prec)
		if err != nil {
			return nil, err
		}
		exp, err := evalBig(v.exp, vals, prec)
		if err != nil {
			return nil, err
		}
		if n, acc := exp.Int64(); acc == big.Exact {
			return powInt(base, n, prec), nil
		}
		// Non-integer exponent: no closed arbitrary-precision
		// exponentiation in math/big, fall back to float64.
		bf, _ := base.Float64()
		ef, _ := exp.Float64()
		return new(big.Float).SetPrec(prec).SetFloat64(math.Pow(bf, ef)), nil
	}
	return nil, fmt.Errorf("unknown expression type %T", e)
}

// powInt raises base to an integer power by repeated squaring.
func powInt(base *big.Float, n int64, prec uint) *big.Float {
	if n < 0 {
		p := powInt(base, -n, prec)
		return p.Quo(new(big.Float).SetPrec(prec).SetInt64(1), p)
	}
	res := new(big.Float).SetPrec(prec).SetInt64(1)
	sq := new(big.Float).SetPrec(prec).Set(base)
	for n > 0 {
		if n&1 == 1 {
			res.Mul(res, sq)
		}
		sq.Mul(sq, sq)
		n >>= 1
	}
	return res
}

// EvalFloat evaluates e at float64 variable values. It is the cheap
// evaluator used in solver inner loops. Missing variables yield NaN.
func EvalFloat(e Expr, vals map[string]float64) float64 {
	switch v := e.(type) {
	case *Num:
		f, _ := v.rat.Float64()
		return f
	case *Var:
		f, ok := vals[v.name]
		if !ok {
			return math.NaN()
		}
		return f
	case *Add:
		acc := 0.0
		for _, t := range v.terms {
			acc += EvalFloat(t, vals)
		}
		return acc
	case *Mul:
		acc := 1.0
		for _, t := range v.factors {
			acc *= EvalFloat(t, vals)
		}
		return acc
	case *Pow:
		return math.Pow(EvalFloat(v.base, vals), EvalFloat(v.exp, vals))
	}
	return math.NaN()
}
