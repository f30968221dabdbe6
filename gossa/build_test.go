package gossa_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"

	"github.com/regioncheck/regioncheck"
	"github.com/regioncheck/regioncheck/gossa"
	"github.com/regioncheck/regioncheck/pkgutil"
)

// loadMain compiles the given source and returns the ssa package holding its
// functions.
func loadMain(t *testing.T, source string) *ssa.Package {
	t.Helper()

	pkgs, err := pkgutil.LoadPackagesFromSource(source)
	require.NoError(t, err)

	_, spkgs := pkgutil.BuildSSA(pkgs)
	require.NotEmpty(t, spkgs)
	require.NotNil(t, spkgs[0].Func("main"))
	return spkgs[0]
}

func analyzeMain(t *testing.T, cfg *gossa.Config, source string) regioncheck.Result {
	t.Helper()

	spkg := loadMain(t, source)
	prog := gossa.NewProgram(cfg)
	prog.AddFunction(spkg.Func("main"))

	return regioncheck.Analyze(regioncheck.AnalysisConfig{
		Funcs:      prog.Funcs(),
		Classifier: prog,
	})
}

func TestGoroutineTransfer(t *testing.T) {
	res := analyzeMain(t, nil, `
		package main

		type T struct{ x int }

		func update(t *T) { t.x = 1 }

		func main() {
			t := &T{}
			go update(t)
			t.x = 2
		}`)

	require.Len(t, res.Diagnostics, 1)
	d := res.Diagnostics[0]
	assert.Contains(t, d.Message, "spawned")
	assert.NotEmpty(t, d.Notes, "the racy access should be attached as a note")
}

func TestSequentialUseIsSafe(t *testing.T) {
	res := analyzeMain(t, nil, `
		package main

		type T struct{ x int }

		func update(t *T) { t.x = 1 }

		func main() {
			t := &T{}
			update(t)
			t.x = 2
		}`)

	assert.Empty(t, res.Diagnostics)
}

func TestSendableValuesAreTransparent(t *testing.T) {
	res := analyzeMain(t, nil, `
		package main

		func show(n int) { println(n) }

		func main() {
			n := 42
			go show(n)
			println(n)
		}`)

	assert.Empty(t, res.Diagnostics)
}

func TestAliasReachesSpawn(t *testing.T) {
	// The spawned closure captures an alias; accessing the original after
	// the spawn must still be flagged.
	res := analyzeMain(t, nil, `
		package main

		type T struct{ x int }

		func main() {
			t := &T{}
			u := t
			go func() { u.x = 1 }()
			t.x = 2
		}`)

	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "spawned")
}

func TestAccessBeforeSpawnIsSafe(t *testing.T) {
	res := analyzeMain(t, nil, `
		package main

		type T struct{ x int }

		func main() {
			t := &T{}
			t.x = 2
			go func() { t.x = 1 }()
		}`)

	assert.Empty(t, res.Diagnostics)
}

func TestDomainPinnedCallee(t *testing.T) {
	spkg := loadMain(t, `
		package main

		type T struct{ x int }

		func save(t *T) {}

		func main() {
			t := &T{}
			save(t)
			t.x = 2
		}`)

	saveName := spkg.Func("save").String()
	cfg := gossa.DefaultConfig()
	cfg.Domains = map[string]string{saveName: "db"}

	prog := gossa.NewProgram(cfg)
	prog.AddFunction(spkg.Func("main"))
	res := regioncheck.Analyze(regioncheck.AnalysisConfig{
		Funcs:      prog.Funcs(),
		Classifier: prog,
	})

	require.Len(t, res.Diagnostics, 1,
		"a call into a pinned domain transfers its arguments")
	assert.Contains(t, res.Diagnostics[0].Message, `"db"`)
	assert.Contains(t, res.Diagnostics[0].Message, gossa.DefaultDomain)
}
