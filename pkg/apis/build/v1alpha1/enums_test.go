package v1alpha1_test

import (
	"testing"

	"github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategy_Set(t *testing.T) {
	t.Parallel()

	var strategy v1alpha1.Strategy

	require.NoError(t, strategy.Set("JIB"))
	assert.Equal(t, v1alpha1.StrategyJib, strategy)
	assert.True(t, strategy.IsValid())

	require.NoError(t, strategy.Set(""))
	assert.Equal(t, v1alpha1.StrategyNone, strategy)
	assert.False(t, strategy.IsValid())

	err := strategy.Set("kaniko")
	require.ErrorIs(t, err, v1alpha1.ErrInvalidStrategy)
	assert.Contains(t, err.Error(), "docker, s2i, jib, buildpacks, spring")
}

func TestRecreateMode_Set(t *testing.T) {
	t.Parallel()

	var mode v1alpha1.RecreateMode

	require.NoError(t, mode.Set("true"))
	assert.True(t, mode.IsBuildRecreate())
	assert.True(t, mode.IsImageStreamRecreate())

	require.NoError(t, mode.Set("bc"))
	assert.True(t, mode.IsBuildRecreate())
	assert.False(t, mode.IsImageStreamRecreate())

	require.NoError(t, mode.Set("false"))
	assert.Equal(t, v1alpha1.RecreateNone, mode)

	require.ErrorIs(t, mode.Set("sometimes"), v1alpha1.ErrInvalidRecreateMode)
}

func TestPullPolicyAndBuildTool_Set(t *testing.T) {
	t.Parallel()

	var policy v1alpha1.PullPolicy

	require.NoError(t, policy.Set("always"))
	assert.Equal(t, v1alpha1.PullAlways, policy)
	require.ErrorIs(t, policy.Set("maybe"), v1alpha1.ErrInvalidPullPolicy)

	var tool v1alpha1.BuildTool

	require.NoError(t, tool.Set("Gradle"))
	assert.Equal(t, v1alpha1.BuildToolGradle, tool)
	require.ErrorIs(t, tool.Set("ant"), v1alpha1.ErrInvalidBuildTool)
}
