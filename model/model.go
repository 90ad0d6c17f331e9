// Package model implements epistasis penetrance models: a table of
// genotype definitions paired with symbolic penetrance expressions in
// two variables, and the machinery to solve those variables against a
// target prevalence or heritability.
package model

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gotoxo/expr"
	"gotoxo/genotype"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("model")

// Model is an immutable epistasis model: 3^order genotype
// definitions, each with a penetrance expression over exactly two
// variables. Create one with New, NewFromMap or NewFromFile.
type Model struct {
	name        string
	order       int
	genotypes   []string
	penetrances []expr.Expr
	variables   [2]string
	delta       float64
}

// New builds a model from parallel genotype and expression slices.
// Entries are sorted into canonical genotype order, so callers may
// supply them in any order.
func New(genotypes, expressions []string, name string) (*Model, error) {
	if name == "" {
		name = "unnamed"
	}
	if len(genotypes) != len(expressions) {
		return nil, &ParseError{
			Input: name,
			Cause: fmt.Sprintf("%d genotypes but %d expressions", len(genotypes), len(expressions)),
		}
	}
	order, err := orderFromCount(name, len(genotypes))
	if err != nil {
		return nil, err
	}

	type row struct {
		genotype   string
		expression string
	}
	rows := make([]row, len(genotypes))
	for i := range genotypes {
		rows[i] = row{genotypes[i], expressions[i]}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].genotype < rows[j].genotype })

	canonical := genotype.Genotypes(order)
	m := &Model{
		name:        name,
		order:       order,
		genotypes:   make([]string, len(rows)),
		penetrances: make([]expr.Expr, len(rows)),
		delta:       deviationTolerance(order),
	}
	seen := make(map[string]bool)
	for i, r := range rows {
		if r.genotype != canonical[i] {
			cause := fmt.Sprintf("unexpected genotype %q, want %q", r.genotype, canonical[i])
			if seen[r.genotype] {
				cause = fmt.Sprintf("duplicated genotype %q", r.genotype)
			}
			return nil, &ParseError{Input: name, Cause: cause}
		}
		seen[r.genotype] = true
		e, err := expr.Parse(r.expression)
		if err != nil {
			return nil, &ParseError{
				Input: name,
				Cause: fmt.Sprintf("penetrance for %s: %v", r.genotype, err),
			}
		}
		m.genotypes[i] = r.genotype
		m.penetrances[i] = e
	}

	vars := collectVars(m.penetrances)
	if len(vars) != 2 {
		return nil, &ParseError{
			Input: name,
			Cause: fmt.Sprintf("model uses %d variables %v, want exactly 2", len(vars), vars),
		}
	}
	m.variables = [2]string{vars[0], vars[1]}
	log.Debugf("model %s: order %d, variables %v", m.name, m.order, m.variables)
	return m, nil
}

// NewFromMap builds a model from a genotype to expression map.
func NewFromMap(definitions map[string]string, name string) (*Model, error) {
	genotypes := make([]string, 0, len(definitions))
	expressions := make([]string, 0, len(definitions))
	for g := range definitions {
		genotypes = append(genotypes, g)
	}
	sort.Strings(genotypes)
	for _, g := range genotypes {
		expressions = append(expressions, definitions[g])
	}
	return New(genotypes, expressions, name)
}

// NewFromFile reads a model from a two-column CSV file of genotype,
// expression rows. The model name is the file basename without
// extension.
func NewFromFile(filename string) (*Model, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, &ParseError{Input: filename, Cause: err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	r.Comment = '#'
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Input: filename, Cause: err.Error()}
	}
	genotypes := make([]string, len(records))
	expressions := make([]string, len(records))
	for i, rec := range records {
		genotypes[i] = strings.TrimSpace(rec[0])
		expressions[i] = strings.TrimSpace(rec[1])
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	m, err := New(genotypes, expressions, name)
	if err != nil {
		if perr, ok := err.(*ParseError); ok {
			perr.Input = filename
		}
		return nil, err
	}
	return m, nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Order returns the number of loci.
func (m *Model) Order() int { return m.order }

// TolerableSolutionErrorDelta returns the verification tolerance for
// solved tables: larger models accumulate more numeric error, so the
// tolerance widens with the order, up to a cap.
func (m *Model) TolerableSolutionErrorDelta() float64 { return m.delta }

// Variables returns the two model variables in order of first
// appearance.
func (m *Model) Variables() [2]string { return m.variables }

// Genotypes returns a copy of the canonical genotype definitions.
func (m *Model) Genotypes() []string {
	out := make([]string, len(m.genotypes))
	copy(out, m.genotypes)
	return out
}

// Penetrances returns a copy of the penetrance expressions, in
// genotype order. Expressions are immutable, sharing them is safe.
func (m *Model) Penetrances() []expr.Expr {
	out := make([]expr.Expr, len(m.penetrances))
	copy(out, m.penetrances)
	return out
}

// Equal reports structural equality: same name, same genotypes and
// textually identical penetrance expressions.
func (m *Model) Equal(o *Model) bool {
	if m.name != o.name || m.order != o.order || m.variables != o.variables {
		return false
	}
	for i := range m.genotypes {
		if m.genotypes[i] != o.genotypes[i] {
			return false
		}
		if m.penetrances[i].String() != o.penetrances[i].String() {
			return false
		}
	}
	return true
}

func (m *Model) String() string {
	return fmt.Sprintf("%s (order %d)", m.name, m.order)
}

func orderFromCount(name string, n int) (int, error) {
	if n == 0 {
		return 0, &ParseError{Input: name, Cause: "empty model"}
	}
	order := 0
	for c := n; c > 1; c /= 3 {
		if c%3 != 0 {
			return 0, &ParseError{
				Input: name,
				Cause: fmt.Sprintf("%d rows is not a power of 3", n),
			}
		}
		order++
	}
	if order < 1 || order > genotype.MaxOrder {
		return 0, &ParseError{
			Input: name,
			Cause: fmt.Sprintf("order %d out of range [1, %d]", order, genotype.MaxOrder),
		}
	}
	return order, nil
}

func collectVars(penetrances []expr.Expr) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, p := range penetrances {
		for _, v := range expr.Vars(p) {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	return vars
}

// deviationTolerance widens with the order: larger tables accumulate
// more rounding in the verification sums.
func deviationTolerance(order int) float64 {
	return math.Min(1e-16*math.Pow(10, float64(order)), 1e-8)
}
