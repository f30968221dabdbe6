package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"

	"github.com/regioncheck/regioncheck"
)

// Report is the machine-readable result of one analysis run.
type Report struct {
	GeneratedAt time.Time    `json:"generated_at" msgpack:"generated_at"`
	Packages    []string     `json:"packages" msgpack:"packages"`
	Diagnostics []ReportDiag `json:"diagnostics" msgpack:"diagnostics"`
}

type ReportDiag struct {
	Func     string       `json:"func" msgpack:"func"`
	Position string       `json:"position" msgpack:"position"`
	Severity string       `json:"severity" msgpack:"severity"`
	Message  string       `json:"message" msgpack:"message"`
	Notes    []ReportNote `json:"notes,omitempty" msgpack:"notes,omitempty"`
}

type ReportNote struct {
	Position string `json:"position" msgpack:"position"`
	Message  string `json:"message" msgpack:"message"`
}

func newReport(prog *ssa.Program, pkgs []*packages.Package, res regioncheck.Result) *Report {
	report := &Report{
		GeneratedAt: time.Now(),
		Diagnostics: []ReportDiag{},
	}
	for _, p := range pkgs {
		report.Packages = append(report.Packages, p.PkgPath)
	}

	for _, d := range res.Diagnostics {
		rd := ReportDiag{
			Func:     d.Func,
			Position: prog.Fset.Position(d.Pos).String(),
			Severity: d.Severity.String(),
			Message:  d.Message,
		}
		for _, n := range d.Notes {
			rd.Notes = append(rd.Notes, ReportNote{
				Position: prog.Fset.Position(n.Pos).String(),
				Message:  n.Message,
			})
		}
		report.Diagnostics = append(report.Diagnostics, rd)
	}
	return report
}

// writeReport serializes the report to path; the extension selects the
// encoding.
func writeReport(path string, report *Report) error {
	var (
		data []byte
		err  error
	)
	switch ext := filepath.Ext(path); ext {
	case ".msgpack":
		data, err = msgpack.Marshal(report)
	case ".json", "":
		data, err = json.MarshalIndent(report, "", "  ")
	default:
		return fmt.Errorf("unsupported report format %q (use .json or .msgpack)", ext)
	}
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
