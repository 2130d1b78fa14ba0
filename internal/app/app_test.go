package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwards/treeseed/internal/app"
	"github.com/johnwards/treeseed/internal/config"
	"github.com/johnwards/treeseed/internal/runlock"
	"github.com/johnwards/treeseed/internal/seed"
)

var epoch = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBPath:    filepath.Join(t.TempDir(), "app.db"),
		Instances: 2,
		LogLevel:  "off",
		LogFormat: "text",
		LockTTL:   time.Minute,
	}
}

func open(t *testing.T, cfg config.Config) *app.App {
	t.Helper()
	a, err := app.Open(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOpenInvalidPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = filepath.Join(t.TempDir(), "missing", "dir", "app.db")

	_, err := app.Open(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestSeedUsesConfiguredInstances(t *testing.T) {
	a := open(t, testConfig(t))

	report, err := a.Seed(context.Background(), app.SeedRequest{Epoch: epoch})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Instances)
	assert.Equal(t, 12*2, report.Totals().Created)

	report, err = a.Seed(context.Background(), app.SeedRequest{Instances: 3, Epoch: epoch})
	require.NoError(t, err)
	assert.Equal(t, 12*2, report.Totals().Reused)
	assert.Equal(t, 12, report.Totals().Created)
}

func TestSeedCustomCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog = filepath.Join(t.TempDir(), "library.yaml")
	require.NoError(t, os.WriteFile(cfg.Catalog, []byte(`classes:
  - id: BK
    name: Book
    fields:
      - name: name
        kind: scalar
        type: string
`), 0o600))
	a := open(t, cfg)

	report, err := a.Seed(context.Background(), app.SeedRequest{Epoch: epoch})
	require.NoError(t, err)
	require.Len(t, report.Classes, 1)
	assert.Equal(t, "Book", report.Classes[0].Class)
	assert.Equal(t, 2, report.Classes[0].Created)
}

func TestSeedMissingCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog = filepath.Join(t.TempDir(), "nope.yaml")
	a := open(t, cfg)

	_, err := a.Seed(context.Background(), app.SeedRequest{})
	assert.Error(t, err)
}

func TestResetAndReseed(t *testing.T) {
	a := open(t, testConfig(t))
	ctx := context.Background()

	_, err := a.Seed(ctx, app.SeedRequest{Epoch: epoch})
	require.NoError(t, err)

	res, err := a.Reset(ctx, false, app.SeedRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Reset.RootID)
	assert.Nil(t, res.Report)

	classes, err := a.Classes(ctx)
	require.NoError(t, err)
	require.Len(t, classes, 12)
	for _, c := range classes {
		assert.True(t, c.Available, c.Name)
		assert.Zero(t, c.Instances, c.Name)
	}

	res, err = a.Reset(ctx, true, app.SeedRequest{Instances: 1, Epoch: epoch})
	require.NoError(t, err)
	require.NotNil(t, res.Report)
	assert.Equal(t, 12, res.Report.Totals().Created)

	var buf bytes.Buffer
	require.NoError(t, res.WriteText(&buf))
	assert.Contains(t, buf.String(), "root folder 1 recreated")
	assert.Contains(t, buf.String(), "CLASS")
}

func TestClassesText(t *testing.T) {
	a := open(t, testConfig(t))
	ctx := context.Background()
	_, err := a.Seed(ctx, app.SeedRequest{Epoch: epoch})
	require.NoError(t, err)

	classes, err := a.Classes(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, classes.WriteText(&buf))
	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "firstname:string")
	assert.Contains(t, out, "unit->Unit(many)")
}

func TestTree(t *testing.T) {
	a := open(t, testConfig(t))
	ctx := context.Background()
	_, err := a.Seed(ctx, app.SeedRequest{Epoch: epoch})
	require.NoError(t, err)

	root, err := a.Tree(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "/", root.Path)
	assert.Empty(t, root.Children)

	root, err = a.Tree(ctx, 2)
	require.NoError(t, err)
	require.Len(t, root.Children, 12)
	folder := root.Children[0]
	assert.Equal(t, "SampleData_Accommodation", folder.Key)
	require.Len(t, folder.Children, 2)
	assert.Equal(t, "Accommodation_001", folder.Children[0].Key)
	assert.Equal(t, "Accommodation", folder.Children[0].Class)

	var buf bytes.Buffer
	require.NoError(t, root.WriteText(&buf))
	assert.Contains(t, buf.String(), "    Accommodation_002 (Accommodation) [")
}

func TestLockerNoopWithoutRedis(t *testing.T) {
	a := open(t, testConfig(t))
	assert.IsType(t, runlock.Noop{}, a.Locker())
}

func TestLockHeldByAnotherRun(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.RedisAddr = mr.Addr()
	a := open(t, cfg)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	release, err := runlock.NewRedisLock(client).Acquire(ctx, seed.LockName)
	require.NoError(t, err)

	_, err = a.Seed(ctx, app.SeedRequest{})
	require.ErrorIs(t, err, runlock.ErrHeld)

	_, err = a.Reset(ctx, false, app.SeedRequest{})
	require.ErrorIs(t, err, runlock.ErrHeld)

	require.NoError(t, release(ctx))

	report, err := a.Seed(ctx, app.SeedRequest{Epoch: epoch})
	require.NoError(t, err)
	assert.Equal(t, seed.PhaseDone, report.Phase)
	assert.False(t, mr.Exists("lock:"+seed.LockName))
}
