// penplot creates a plot of the penetrance values of a computed table.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func main() {
	in := flag.String("in", "", "penetrance table in csv format (GENOTYPE,VALUE per line)")
	out := flag.String("out", "penetrances.png", "output file")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "an input table is required (-in)")
		os.Exit(1)
	}

	f, err := os.Open(*in)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2
	records, err := r.ReadAll()
	if err != nil {
		panic(err)
	}

	p := plot.New()
	p.Title.Text = *in
	p.X.Label.Text = "genotype"
	p.Y.Label.Text = "penetrance"
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(records))
	labels := make([]string, len(records))
	for i, rec := range records {
		v, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			panic(err)
		}
		pts[i].X = float64(i)
		pts[i].Y = v
		labels[i] = rec[0]
	}
	p.NominalX(labels...)

	err = plotutil.AddLinePoints(p,
		"penetrance", pts)
	if err != nil {
		panic(err)
	}

	if err := p.Save(8*vg.Inch, 4*vg.Inch, *out); err != nil {
		panic(err)
	}
}
