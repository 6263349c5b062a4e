package buildkind

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromConfig_ReportsConfiguredValue(t *testing.T) {
	require.True(t, New(true).IsOfficialBuild())
	require.False(t, New(false).IsOfficialBuild())
}
