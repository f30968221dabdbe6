package gossa

import (
	"go/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFuncName(t *testing.T) {
	assert.Equal(t, "golang.org/x/sync/errgroup.Group.Go",
		normalizeFuncName("(*golang.org/x/sync/errgroup.Group).Go"))
	assert.Equal(t, "pkg.Func", normalizeFuncName("pkg.Func"))
}

func TestSpawnerSetMatchesSSANames(t *testing.T) {
	set := DefaultConfig().spawnerSet()
	// The ssa name of a pointer-receiver method must hit the config form.
	_, ok := set[normalizeFuncName("(*golang.org/x/sync/errgroup.Group).Go")]
	assert.True(t, ok)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regioncheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
spawners:
  - example.com/pool.Pool.Submit
nonsendable:
  - chan int
domains:
  example.com/db.Store.Save: db
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, ok := cfg.spawnerSet()["example.com/pool.Pool.Submit"]
	assert.True(t, ok, "config spawners are honored")
	_, ok = cfg.spawnerSet()["golang.org/x/sync/errgroup.Group.Go"]
	assert.True(t, ok, "defaults stay in place")

	d, pinned := cfg.pinnedDomain("example.com/db.Store.Save")
	require.True(t, pinned)
	assert.Equal(t, "db", d)
	_, pinned = cfg.pinnedDomain("example.com/db.Store.Load")
	assert.False(t, pinned)

	assert.False(t, cfg.oracle().Sendable(
		types.NewChan(types.SendRecv, types.Typ[types.Int])))
}

func TestLoadConfigMissing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
