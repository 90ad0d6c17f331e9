/*

Gotoxo computes penetrance tables for high-order epistasis models. A
model file defines a penetrance expression for every genotype
combination over two free variables; gotoxo solves those variables so
that the table reaches a target heritability or prevalence while the
largest penetrance is normalized to one.

The basic usage of gotoxo looks like this:

	gotoxo --max-prev 0.1 additive_3.csv 0.1 0.1 0.1

, this will compute the maximal-prevalence table of the model with a
heritability of 0.1 and one minor allele frequency of 0.1 per locus.

You can solve for maximal heritability at a fixed prevalence instead,
and change the solving method:

	gotoxo --max-her 0.25 --method simplex additive_3.csv 0.1 0.1 0.1

To see all the options run:

	gotoxo -h

*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"gotoxo/cache"
	"gotoxo/model"
	"gotoxo/ptable"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("gotoxo")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("gotoxo", "penetrance table calculator for epistasis models").Version(version)

	// input model
	modelFileName = app.Arg("model", "penetrance model file (genotype, expression per line)").Required().ExistingFile()
	mafs          = app.Arg("maf", "minor allele frequency per locus, in [0, 0.5]").Required().Float64List()

	// target statistic (exactly one required)
	maxPrev = app.Flag("max-prev", "compute the maximal-prevalence table for this heritability").Default("-1").Float64()
	maxHer  = app.Flag("max-her", "compute the maximal-heritability table for this prevalence").Default("-1").Float64()

	// solver parameters
	method = app.Flag("method", "solving method to use "+
		"(newton: damped multi-start Newton-Raphson, "+
		"simplex: downhill simplex on the squared residuals, "+
		"lbfgsb: limited-memory Broyden-Fletcher-Goldfarb-Shanno with bounding constraints"+
		")").Default("newton").String()
	timeoutS  = app.Flag("timeout", "solver timeout in seconds, 0 to derive it from the model order").Default("0").Float64()
	noTimeout = app.Flag("notimeout", "run the solver unbounded").Bool()
	noCheck   = app.Flag("nocheck", "skip solution verification against the original equations").Bool()

	// input/output
	outF      = app.Flag("out", "write the table to a file instead of stdout").String()
	format    = app.Flag("format", "table output format").Default("csv").Enum("csv", "gametes")
	overwrite = app.Flag("force", "overwrite the output file if it exists").Bool()
	cacheF    = app.Flag("cache", "solved table cache file").String()
	outLogF   = app.Flag("log", "write log to a file").String()
	logLevel  = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json summary to a file").String()
)

// solveOptions translates the command line into model solve options.
func solveOptions() *model.SolveOptions {
	opts := model.DefaultSolveOptions()
	opts.Method = *method
	opts.Check = !*noCheck
	switch {
	case *noTimeout:
		opts.HeuristicTimeout = false
		opts.Timeout = 0
	case *timeoutS > 0:
		opts.HeuristicTimeout = false
		opts.Timeout = time.Duration(*timeoutS * float64(time.Second))
	}
	return opts
}

// solveTable resolves the requested table, going through the cache
// when one is configured.
func solveTable(m *model.Model, statistic string, target float64, tc *cache.TableCache) (*ptable.PTable, bool, error) {
	penetrances := m.Penetrances()
	strs := make([]string, len(penetrances))
	for i, p := range penetrances {
		strs[i] = p.String()
	}
	key := cache.Key(m.Name(), strs, *mafs, statistic, target)

	if entry, err := tc.Get(key); err != nil {
		log.Error("Error reading table cache:", err)
	} else if entry != nil {
		t, err := ptable.New(m.Name(), m.Order(), penetrances, m.Variables(), entry.X, entry.Y, *mafs)
		return t, true, err
	}

	var t *ptable.PTable
	var err error
	if statistic == "max-prevalence" {
		t, err = m.FindMaxPrevalenceTable(*mafs, target, solveOptions())
	} else {
		t, err = m.FindMaxHeritabilityTable(*mafs, target, solveOptions())
	}
	if err != nil {
		return nil, false, err
	}

	_, values := t.Variables()
	if err := tc.Put(key, &cache.Entry{X: values[0], Y: values[1], Values: t.Values()}); err != nil {
		log.Error("Error writing table cache:", err)
	}
	return t, false, nil
}

func run() (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{}

	m, err := model.NewFromFile(*modelFileName)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Read model %s: order %d, variables %v", m.Name(), m.Order(), m.Variables())

	statistic := "max-prevalence"
	target := *maxPrev
	switch {
	case *maxPrev >= 0 && *maxHer >= 0:
		log.Fatal("--max-prev and --max-her are mutually exclusive")
	case *maxHer >= 0:
		statistic = "max-heritability"
		target = *maxHer
	case *maxPrev < 0:
		log.Fatal("one of --max-prev or --max-her is required")
	}
	log.Infof("Computing %s table, target %v, MAFs %v", statistic, target, *mafs)

	tc := cache.New(nil)
	if *cacheF != "" {
		tc, err = cache.Open(*cacheF)
		if err != nil {
			log.Fatal("Error opening table cache:", err)
		}
		defer tc.Close()
	}

	t, cached, err := solveTable(m, statistic, target, tc)
	if err != nil {
		log.Fatal(err)
	}
	if cached {
		log.Notice("Table served from the cache")
	}

	if *outF != "" {
		err = t.WriteToFile(*outF, *overwrite, *format)
	} else if *format == "gametes" {
		err = t.WriteGAMETES(os.Stdout)
	} else {
		err = t.WriteCSV(os.Stdout)
	}
	if err != nil {
		log.Fatal("Error writing table:", err)
	}

	variables, values := t.Variables()
	summary.Model = m.Name()
	summary.Order = m.Order()
	summary.MAFs = *mafs
	summary.Statistic = statistic
	summary.Target = target
	summary.Variables = map[string]float64{
		variables[0]: values[0],
		variables[1]: values[1],
	}
	summary.Prevalence = t.Prevalence()
	summary.Heritability = t.Heritability()
	summary.Cached = cached

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, pkg := range []string{"gotoxo", "model", "stats", "solve", "cache"} {
		logging.SetLevel(level, pkg)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	summary := run()
	summary.Version = version
	summary.CommandLine = os.Args

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
