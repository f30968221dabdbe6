// Package checker exposes the analysis as a go/analysis Analyzer so it plugs
// into vet-style drivers and editors.
package checker

import (
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/buildssa"

	"github.com/regioncheck/regioncheck"
	"github.com/regioncheck/regioncheck/gossa"
)

var (
	configPath string
	enable     bool
)

func init() {
	Analyzer.Flags.StringVar(&configPath, "config", "",
		"path to a yaml config with spawner, sendability and domain entries")
	Analyzer.Flags.BoolVar(&enable, "enable", true, "enable the pass")
}

// Analyzer reports accesses of non-sendable values after their region was
// transferred to another isolation domain.
var Analyzer = &analysis.Analyzer{
	Name:     "regioncheck",
	Doc:      "detects uses of non-sendable values after they were sent to a concurrent task or another isolation domain",
	Requires: []*analysis.Analyzer{buildssa.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	if !enable {
		return nil, nil
	}

	cfg := gossa.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = gossa.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}

	ssaResult := pass.ResultOf[buildssa.Analyzer].(*buildssa.SSA)

	prog := gossa.NewProgram(cfg)
	for _, fn := range ssaResult.SrcFuncs {
		prog.AddFunction(fn)
	}

	res := regioncheck.Analyze(regioncheck.AnalysisConfig{
		Funcs:      prog.Funcs(),
		Classifier: prog,
	})

	for _, d := range res.Diagnostics {
		diag := analysis.Diagnostic{
			Pos:     d.Pos,
			Message: d.Message,
		}
		for _, n := range d.Notes {
			diag.Related = append(diag.Related, analysis.RelatedInformation{
				Pos:     n.Pos,
				Message: n.Message,
			})
		}
		pass.Report(diag)
	}

	return nil, nil
}
