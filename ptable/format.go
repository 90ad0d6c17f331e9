package ptable

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Supported serialization formats.
const (
	FormatCSV     = "csv"
	FormatGAMETES = "gametes"
)

// WriteCSV writes the table as plain CSV, one "GENOTYPE,VALUE" record
// per line in canonical genotype order.
func (t *PTable) WriteCSV(w io.Writer) error {
	for _, p := range t.Pairs() {
		if _, err := fmt.Fprintf(w, "%s,%s\n", p.Genotype, formatValue(p.Penetrance)); err != nil {
			return err
		}
	}
	return nil
}

// WriteGAMETES writes the table in GAMETES-style text: attribute and
// frequency headers, the solved variable values, the recomputed
// statistics and the penetrance values laid out as 3-wide rows, one
// blank line between 3x3 blocks.
func (t *PTable) WriteGAMETES(w io.Writer) error {
	var b strings.Builder

	b.WriteString("Attribute names:")
	for i := 0; i < t.order; i++ {
		fmt.Fprintf(&b, "\tP%d", i)
	}
	b.WriteString("\nMinor allele frequencies:")
	for _, m := range t.mafs {
		fmt.Fprintf(&b, "\t%s", formatValue(m))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s: %s\n", t.varNames[0], formatValue(t.varValues[0]))
	fmt.Fprintf(&b, "%s: %s\n", t.varNames[1], formatValue(t.varValues[1]))
	fmt.Fprintf(&b, "Prevalence: %s\n", formatValue(t.Prevalence()))
	fmt.Fprintf(&b, "Heritability: %s\n", formatValue(t.Heritability()))
	b.WriteString("\nTable:\n\n")

	for i, v := range t.values {
		b.WriteString(formatValue(v))
		switch {
		case (i+1)%9 == 0 && i != len(t.values)-1:
			b.WriteString("\n\n")
		case (i+1)%3 == 0:
			b.WriteString("\n")
		default:
			b.WriteString(", ")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteToFile writes the table to a file in the given format. The
// file must not exist unless overwrite is set.
func (t *PTable) WriteToFile(filename string, overwrite bool, format string) error {
	var write func(io.Writer) error
	switch format {
	case FormatCSV:
		write = t.WriteCSV
	case FormatGAMETES:
		write = t.WriteGAMETES
	default:
		return fmt.Errorf("unsupported format %q", format)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(filename, flags, 0666)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
