package ptable

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"gotoxo/expr"
)

// additivePenetrances builds x*(1+y)^k expressions, k being the
// number of minor alleles in each canonical genotype of the order.
func additivePenetrances(tst *testing.T, order int) []expr.Expr {
	n := 1
	for i := 0; i < order; i++ {
		n *= 3
	}
	pens := make([]expr.Expr, n)
	for i := range pens {
		// Count minor alleles from the base-3 digits of the index.
		k := 0
		for rem := i; rem > 0; rem /= 3 {
			k += rem % 3
		}
		src := "x"
		if k == 1 {
			src = "x*(1+y)"
		} else if k > 1 {
			src = "x*(1+y)^" + strconv.Itoa(k)
		}
		e, err := expr.Parse(src)
		if err != nil {
			tst.Fatal(err)
		}
		pens[i] = e
	}
	return pens
}

func newTestTable(tst *testing.T) *PTable {
	pens := additivePenetrances(tst, 2)
	t, err := New("additive_2", 2, pens, [2]string{"x", "y"}, 0.25, 1, []float64{0.25, 0.25})
	if err != nil {
		tst.Fatal(err)
	}
	return t
}

func TestTableValues(tst *testing.T) {
	t := newTestTable(tst)
	pairs := t.Pairs()
	if len(pairs) != 9 {
		tst.Fatal("expected 9 pairs, got", len(pairs))
	}
	if pairs[0].Genotype != "AABB" || pairs[8].Genotype != "aabb" {
		tst.Error("unexpected genotype order:", pairs[0].Genotype, pairs[8].Genotype)
	}
	// x*(1+y)^k at x=0.25, y=1 is 0.25 * 2^k.
	want := []float64{0.25, 0.5, 1, 0.5, 1, 2, 1, 2, 4}
	for i, p := range pairs {
		if math.Abs(p.Penetrance-want[i]) > 1e-12 {
			tst.Errorf("value %d: expected %g, got %g", i, want[i], p.Penetrance)
		}
	}
}

func TestStatisticsRoundTrip(tst *testing.T) {
	t := newTestTable(tst)
	p := t.Prevalence()
	if p <= 0 || p >= 4 {
		tst.Error("implausible prevalence:", p)
	}
	h := t.Heritability()
	if math.IsNaN(h) || h <= 0 {
		tst.Error("implausible heritability:", h)
	}
}

func TestWriteCSV(tst *testing.T) {
	t := newTestTable(tst)
	var b strings.Builder
	if err := t.WriteCSV(&b); err != nil {
		tst.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(b.String(), "\n"), "\n")
	if len(lines) != 9 {
		tst.Fatal("expected 9 CSV lines, got", len(lines))
	}
	if !strings.HasPrefix(lines[0], "AABB,") {
		tst.Error("unexpected first line:", lines[0])
	}
	if !strings.HasPrefix(lines[8], "aabb,") {
		tst.Error("unexpected last line:", lines[8])
	}
}

func TestWriteGAMETES(tst *testing.T) {
	t := newTestTable(tst)
	var b strings.Builder
	if err := t.WriteGAMETES(&b); err != nil {
		tst.Fatal(err)
	}
	out := b.String()
	for _, want := range []string{
		"Attribute names:\tP0\tP1",
		"Minor allele frequencies:\t0.25\t0.25",
		"x: 0.25",
		"y: 1",
		"Prevalence: ",
		"Heritability: ",
		"Table:",
	} {
		if !strings.Contains(out, want) {
			tst.Errorf("GAMETES output is missing %q", want)
		}
	}
	// The table body is a 3-wide grid.
	idx := strings.Index(out, "Table:\n\n")
	if idx < 0 {
		tst.Fatal("no table body")
	}
	body := strings.TrimSpace(out[idx+len("Table:\n\n"):])
	rows := strings.Split(body, "\n")
	if len(rows) != 3 {
		tst.Error("expected 3 table rows, got", len(rows))
	}
	for _, row := range rows {
		if len(strings.Split(row, ", ")) != 3 {
			tst.Error("expected 3 values per row, got:", row)
		}
	}
}

func TestWriteToFile(tst *testing.T) {
	t := newTestTable(tst)
	fn := tst.TempDir() + "/table.csv"
	if err := t.WriteToFile(fn, false, FormatCSV); err != nil {
		tst.Fatal(err)
	}
	if err := t.WriteToFile(fn, false, FormatCSV); err == nil {
		tst.Error("expected an error overwriting without the flag")
	}
	if err := t.WriteToFile(fn, true, FormatCSV); err != nil {
		tst.Error("overwrite should succeed:", err)
	}
	if err := t.WriteToFile(fn, true, "xml"); err == nil {
		tst.Error("unsupported format should be rejected")
	}
}
