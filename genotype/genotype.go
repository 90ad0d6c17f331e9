// Package genotype enumerates multi-locus genotypes and computes
// their joint occurrence probabilities under Hardy-Weinberg
// equilibrium.
package genotype

import (
	"fmt"
	"math/big"
	"strconv"
)

// MaxOrder is the highest supported number of loci, bounded by the
// one-letter-per-locus genotype alphabet.
const MaxOrder = 26

// Genotypes returns every genotype of the given order in canonical
// order: one uppercase/lowercase letter pair per locus (A/a for the
// first locus, B/b for the second, ...), enumerated as the cartesian
// product of the per-locus states {XX, Xx, xx}. Because uppercase
// letters sort before lowercase ones, this product order is exactly
// the ASCII sort order of the genotype strings.
func Genotypes(order int) []string {
	if order < 1 || order > MaxOrder {
		return nil
	}
	genotypes := []string{""}
	for locus := 0; locus < order; locus++ {
		upper := byte('A' + locus)
		lower := byte('a' + locus)
		states := []string{
			string([]byte{upper, upper}),
			string([]byte{upper, lower}),
			string([]byte{lower, lower}),
		}
		next := make([]string, 0, len(genotypes)*3)
		for _, g := range genotypes {
			for _, s := range states {
				next = append(next, g+s)
			}
		}
		genotypes = next
	}
	return genotypes
}

// Probabilities computes the joint probability of every genotype for
// the given per-locus minor allele frequencies, in canonical genotype
// order. For a locus with MAF m and M = 1 - m the per-locus state
// probabilities are [M^2, 2Mm, m^2]; the joint probabilities are the
// products over the cartesian product of the loci. The 3^order
// results are exact rationals and sum to exactly 1.
func Probabilities(mafs []*big.Rat) ([]*big.Rat, error) {
	if len(mafs) == 0 {
		return nil, fmt.Errorf("at least one MAF is required")
	}
	if len(mafs) > MaxOrder {
		return nil, fmt.Errorf("at most %d loci are supported", MaxOrder)
	}
	one := big.NewRat(1, 1)
	two := big.NewRat(2, 1)
	half := big.NewRat(1, 2)
	locusProbs := make([][3]*big.Rat, len(mafs))
	for i, m := range mafs {
		if m.Sign() < 0 || m.Cmp(half) > 0 {
			return nil, fmt.Errorf("MAF %v out of range [0, 0.5]", m)
		}
		M := new(big.Rat).Sub(one, m)
		locusProbs[i] = [3]*big.Rat{
			new(big.Rat).Mul(M, M),
			new(big.Rat).Mul(two, new(big.Rat).Mul(M, m)),
			new(big.Rat).Mul(m, m),
		}
	}

	probs := []*big.Rat{big.NewRat(1, 1)}
	for _, lp := range locusProbs {
		next := make([]*big.Rat, 0, len(probs)*3)
		for _, p := range probs {
			for _, sp := range lp {
				next = append(next, new(big.Rat).Mul(p, sp))
			}
		}
		probs = next
	}
	return probs, nil
}

// RatsFromFloats converts float MAFs to exact rationals using their
// shortest decimal representation, so that 0.1 becomes 1/10 rather
// than the exact binary value of the float.
func RatsFromFloats(vals []float64) []*big.Rat {
	rats := make([]*big.Rat, len(vals))
	for i, v := range vals {
		r, ok := new(big.Rat).SetString(strconv.FormatFloat(v, 'g', -1, 64))
		if !ok {
			if r = new(big.Rat).SetFloat64(v); r == nil {
				r = new(big.Rat)
			}
		}
		rats[i] = r
	}
	return rats
}
