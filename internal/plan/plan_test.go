package plan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seafloor/methodpatch/internal/plan"
	"github.com/seafloor/methodpatch/patch"
)

type fetcher struct{}

func (fetcher) FetchData() string { return "live data" }

type handler struct{}

func (handler) GetURL() string { return "https://origin.example.com" }

const planYAML = `
hookpoints:
  fetcher: [FetchData]
  handler: [GetURL]
actions:
  fetcher.FetchData:
    time: true
    count: true
`

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAndApply(t *testing.T) {
	cfg, err := plan.Load(writePlan(t, planYAML))
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	lg := zap.New(core)

	reg := patch.New()
	owners := map[string]interface{}{
		"fetcher": fetcher{},
		"handler": handler{},
	}
	res, err := plan.Apply(reg, cfg, owners, lg)
	require.NoError(t, err)

	out, err := reg.Call(fetcher{}, "FetchData")
	require.NoError(t, err)
	assert.Equal(t, "live data", out[0])
	assert.EqualValues(t, 1, res.Counter.Get("FetchData"))
	assert.NotZero(t, logs.FilterMessage("method timed").Len())

	_, err = reg.Call(handler{}, "GetURL")
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("method enter").Len(),
		"default action on an unlisted signature is logging")
}

func TestApplyUnknownAlias(t *testing.T) {
	cfg, err := plan.Load(writePlan(t, "hookpoints:\n  ghost: [Spook]\n"))
	require.NoError(t, err)

	_, err = plan.Apply(patch.New(), cfg, map[string]interface{}{}, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown owner alias "ghost"`)
}

func TestApplyUnknownMethod(t *testing.T) {
	cfg, err := plan.Load(writePlan(t, "hookpoints:\n  fetcher: [NoSuchMethod]\n"))
	require.NoError(t, err)

	owners := map[string]interface{}{"fetcher": fetcher{}}
	_, err = plan.Apply(patch.New(), cfg, owners, zap.NewNop())
	require.ErrorIs(t, err, patch.ErrUnknownMethod)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := plan.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
