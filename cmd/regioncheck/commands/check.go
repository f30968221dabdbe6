package commands

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sort"

	"github.com/spf13/cobra"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/regioncheck/regioncheck"
	"github.com/regioncheck/regioncheck/gossa"
	"github.com/regioncheck/regioncheck/pkgutil"
)

// checkCmd represents the check command.
var checkCmd = &cobra.Command{
	Use:   "check [packages...]",
	Short: "Analyze packages once and report diagnostics",
	Long: `Loads the named packages (go build syntax, e.g. ./...), translates their
functions to the region representation and reports every access of a
non-sendable value that happens after its region was transferred.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}

		cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
		if cpuprofile != "" {
			f, err := os.Create(cpuprofile)
			if err != nil {
				return fmt.Errorf("creating CPU profile: %w", err)
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Printf("Failed to close %v: %v", f.Name(), err)
				}
			}()
			if err := pprof.StartCPUProfile(f); err != nil {
				return fmt.Errorf("starting CPU profile: %w", err)
			}
			defer pprof.StopCPUProfile()
		}

		report, err := runAnalysis(args, opts)
		if err != nil {
			return err
		}

		printReport(report)

		if opts.output != "" {
			if err := writeReport(opts.output, report); err != nil {
				return err
			}
		}

		if len(report.Diagnostics) > 0 {
			return fmt.Errorf("found %d possible data race(s)", len(report.Diagnostics))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().String("config", "", "Path to a yaml config with spawner, sendability and domain entries")
	checkCmd.Flags().String("dir", "", "Directory to run the go build tool in")
	checkCmd.Flags().Bool("tests", false, "Include test files")
	checkCmd.Flags().IntP("parallel", "p", 0, "Number of functions analyzed in parallel (0 = GOMAXPROCS)")
	checkCmd.Flags().StringP("output", "o", "", "Write a machine-readable report (format by extension: .json or .msgpack)")
	checkCmd.Flags().String("cpuprofile", "", "Write cpu profile to `file`")
}

// checkOptions are the knobs shared between check and watch.
type checkOptions struct {
	cfg      *gossa.Config
	dir      string
	tests    bool
	parallel int
	output   string
}

func optionsFromFlags(cmd *cobra.Command) (checkOptions, error) {
	var opts checkOptions

	configPath, _ := cmd.Flags().GetString("config")
	opts.cfg = gossa.DefaultConfig()
	if configPath != "" {
		var err error
		if opts.cfg, err = gossa.LoadConfig(configPath); err != nil {
			return opts, err
		}
	}

	opts.dir, _ = cmd.Flags().GetString("dir")
	opts.tests, _ = cmd.Flags().GetBool("tests")
	opts.parallel, _ = cmd.Flags().GetInt("parallel")
	opts.output, _ = cmd.Flags().GetString("output")
	return opts, nil
}

// runAnalysis loads the queried packages, runs the analysis and renders the
// diagnostics into a report.
func runAnalysis(queries []string, opts checkOptions) (*Report, error) {
	pkgs, err := pkgutil.LoadPackagesWithConfig(&packages.Config{
		Mode:  pkgutil.LoadMode,
		Tests: opts.tests,
		Dir:   opts.dir,
	}, queries...)
	if err != nil {
		return nil, fmt.Errorf("loading packages failed: %w", err)
	}

	ssaProg, spkgs := pkgutil.BuildSSA(pkgs)

	prog := gossa.NewProgram(opts.cfg)
	for _, fn := range sourceFuncs(ssaProg, spkgs) {
		prog.AddFunction(fn)
	}

	res := regioncheck.Analyze(regioncheck.AnalysisConfig{
		Funcs:       prog.Funcs(),
		Classifier:  prog,
		Parallelism: opts.parallel,
	})

	return newReport(ssaProg, pkgs, res), nil
}

// sourceFuncs collects every function declared in the loaded packages,
// including methods and function literals, skipping compiler-synthesized
// wrappers.
func sourceFuncs(prog *ssa.Program, spkgs []*ssa.Package) []*ssa.Function {
	loaded := make(map[*ssa.Package]bool, len(spkgs))
	for _, p := range spkgs {
		if p != nil {
			loaded[p] = true
		}
	}

	var fns []*ssa.Function
	for fn := range ssautil.AllFunctions(prog) {
		if fn.Pkg == nil || !loaded[fn.Pkg] || fn.Synthetic != "" {
			continue
		}
		fns = append(fns, fn)
	}
	// AllFunctions iterates a map.
	sort.Slice(fns, func(i, j int) bool { return fns[i].String() < fns[j].String() })
	return fns
}

func printReport(report *Report) {
	for _, d := range report.Diagnostics {
		fmt.Printf("%s: %s: %s\n", d.Position, d.Severity, d.Message)
		for _, n := range d.Notes {
			fmt.Printf("\t%s: %s\n", n.Position, n.Message)
		}
	}
}
