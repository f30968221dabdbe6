package regioncheck

import (
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

// AnalysisConfig configures one invocation of the analysis.
type AnalysisConfig struct {
	Funcs      []*Func
	Classifier Classifier

	// Parallelism bounds the number of function bodies analyzed
	// concurrently. Zero means GOMAXPROCS. Analyses share no mutable state,
	// so any bound is safe.
	Parallelism int
}

// AnalyzeFunc analyzes a single function body: it drives the transfer
// functions over the CFG to a fixpoint, re-evaluates the converged states to
// find accesses of transferred regions, and synthesizes one diagnostic per
// transfer site with such accesses. The computation is deterministic for a
// fixed CFG and classifier.
func AnalyzeFunc(fn *Func, classifier Classifier) []Diagnostic {
	a := &analysis{fn: fn, classifier: classifier}
	entries := a.fixpoint()
	return a.synthesize(a.collect(entries))
}

// Analyze runs AnalyzeFunc over every function in the config. Functions are
// analyzed independently and in parallel; the result order is independent of
// the schedule.
func Analyze(config AnalysisConfig) Result {
	perFunc := make([][]Diagnostic, len(config.Funcs))

	var g errgroup.Group
	limit := config.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g.SetLimit(limit)

	for i, fn := range config.Funcs {
		g.Go(func() error {
			perFunc[i] = AnalyzeFunc(fn, config.Classifier)
			return nil
		})
	}
	// The analysis produces no errors of its own; the group is used for its
	// bounded-parallel wait.
	_ = g.Wait()

	return newResult(config.Funcs, perFunc)
}
