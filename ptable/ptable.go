// Package ptable materializes a solved penetrance model into the
// ordered list of (genotype, penetrance) pairs and serializes it.
package ptable

import (
	"fmt"
	"math/big"

	"gotoxo/expr"
	"gotoxo/genotype"
)

// Pair is one genotype with its numeric penetrance.
type Pair struct {
	Genotype   string
	Penetrance float64
}

// PTable is a read-only penetrance table: a solved model with numeric
// values substituted for the two variables. It is never mutated after
// creation.
type PTable struct {
	modelName string
	order     int
	genotypes []string
	values    []float64
	varNames  [2]string
	varValues [2]float64
	mafs      []float64
}

// New substitutes the solved variable values into every penetrance
// expression, in canonical genotype order. Substitution happens at
// the current arbitrary-precision setting. The MAF list is retained
// for serialization headers.
func New(modelName string, order int, penetrances []expr.Expr, varNames [2]string, x, y float64, mafs []float64) (*PTable, error) {
	prec := expr.Prec()
	vals := map[string]*big.Float{
		varNames[0]: new(big.Float).SetPrec(prec).SetFloat64(x),
		varNames[1]: new(big.Float).SetPrec(prec).SetFloat64(y),
	}
	values := make([]float64, len(penetrances))
	for i, pen := range penetrances {
		f, err := expr.Eval(pen, vals)
		if err != nil {
			return nil, fmt.Errorf("substituting penetrance %d: %v", i, err)
		}
		values[i], _ = f.Float64()
	}
	return &PTable{
		modelName: modelName,
		order:     order,
		genotypes: genotype.Genotypes(order),
		values:    values,
		varNames:  varNames,
		varValues: [2]float64{x, y},
		mafs:      append([]float64(nil), mafs...),
	}, nil
}

func (t *PTable) ModelName() string {
	return t.modelName
}

func (t *PTable) Order() int {
	return t.order
}

// Genotypes returns the genotype list in canonical order.
func (t *PTable) Genotypes() []string {
	return append([]string(nil), t.genotypes...)
}

// Values returns the penetrance values in genotype order.
func (t *PTable) Values() []float64 {
	return append([]float64(nil), t.values...)
}

// Variables returns the two variable names and their solved values.
func (t *PTable) Variables() ([2]string, [2]float64) {
	return t.varNames, t.varValues
}

// MAFs returns the minor allele frequencies the table was solved for.
func (t *PTable) MAFs() []float64 {
	return append([]float64(nil), t.mafs...)
}

// Pairs returns the ordered (genotype, penetrance) pairs, the only
// interface the serialization layers consume.
func (t *PTable) Pairs() []Pair {
	pairs := make([]Pair, len(t.genotypes))
	for i, g := range t.genotypes {
		pairs[i] = Pair{Genotype: g, Penetrance: t.values[i]}
	}
	return pairs
}

// Prevalence recomputes the table prevalence numerically from the
// stored values and MAFs.
func (t *PTable) Prevalence() float64 {
	probs := t.probs()
	p := 0.0
	for i, v := range t.values {
		p += v * probs[i]
	}
	return p
}

// Heritability recomputes the table heritability numerically from the
// stored values and MAFs.
func (t *PTable) Heritability() float64 {
	probs := t.probs()
	p := t.Prevalence()
	variance := 0.0
	for i, v := range t.values {
		d := v - p
		variance += d * d * probs[i]
	}
	return variance / (p * (1 - p))
}

func (t *PTable) probs() []float64 {
	rats, err := genotype.Probabilities(genotype.RatsFromFloats(t.mafs))
	if err != nil {
		return make([]float64, len(t.values))
	}
	probs := make([]float64, len(rats))
	for i, r := range rats {
		probs[i], _ = r.Float64()
	}
	return probs
}
