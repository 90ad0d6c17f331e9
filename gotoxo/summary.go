package main

// RunSummary stores gotoxo run summary information.
type RunSummary struct {
	// Version stores gotoxo version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Model is the model name.
	Model string `json:"model"`
	// Order is the number of loci.
	Order int `json:"order"`
	// MAFs are the minor allele frequencies, one per locus.
	MAFs []float64 `json:"mafs"`
	// Statistic names the maximized statistic.
	Statistic string `json:"statistic"`
	// Target is the fixed statistic value the table was solved for.
	Target float64 `json:"target"`
	// Variables maps the model variable names to their solved values.
	Variables map[string]float64 `json:"variables"`
	// Prevalence is the prevalence recomputed from the solved table.
	Prevalence float64 `json:"prevalence"`
	// Heritability is the heritability recomputed from the solved table.
	Heritability float64 `json:"heritability"`
	// Cached reports whether the table was served from the cache.
	Cached bool `json:"cached"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
}
