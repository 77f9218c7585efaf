package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seafloor/methodpatch/patch"
)

func TestRunScenarios(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	err := runScenarios(patch.New(), zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, 5, logs.FilterMessage("scenario passed").Len())
	assert.NotZero(t, logs.FilterMessage("method timed").Len())
	assert.NotZero(t, logs.FilterMessage("method enter").Len())
}

func TestOwnersCoverScenarioTypes(t *testing.T) {
	owners := Owners()
	for _, alias := range []string{"dataService", "webHandler", "childA", "childB", "elementStore", "pageAbility"} {
		assert.Contains(t, owners, alias)
	}
}
