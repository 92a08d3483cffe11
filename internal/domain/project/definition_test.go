package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-dev/stagehand/internal/domain/requirement"
)

func newTestDefinition(t *testing.T) *Definition {
	t.Helper()
	def, err := NewDefinition("analytics")
	require.NoError(t, err)
	return def
}

func TestNewDefinition_RejectsEmptyName(t *testing.T) {
	t.Parallel()

	_, err := NewDefinition("")
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestDefinition_SetVariable_UpdatesInPlace(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	require.NoError(t, def.SetVariable("PORT", requirement.VariableParams{Default: "8080"}))
	require.NoError(t, def.SetVariable("PORT", requirement.VariableParams{Default: "9090"}))

	decls := def.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "9090", decls[0].Params.(requirement.VariableParams).Default)
}

func TestDefinition_DeclareRejectsKindChange(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	require.NoError(t, def.SetVariable("DB_URL", requirement.VariableParams{}))

	err := def.SetService("DB_URL", "redis")
	assert.ErrorIs(t, err, ErrIdentityInUse)
}

func TestDefinition_SetService_RejectsUnknownFlavor(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	err := def.SetService("DB_URL", "cassandra")
	assert.ErrorIs(t, err, ErrUnknownServiceType)
}

func TestDefinition_RemoveVariable(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	require.NoError(t, def.SetVariable("PORT", requirement.VariableParams{}))
	require.NoError(t, def.RemoveVariable("PORT"))
	assert.Empty(t, def.Declarations())

	assert.ErrorIs(t, def.RemoveVariable("PORT"), ErrVariableNotFound)
}

func TestDefinition_RemoveWrongKindFails(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	require.NoError(t, def.SetService("DB_URL", "redis"))

	assert.ErrorIs(t, def.RemoveVariable("DB_URL"), ErrVariableNotFound)
	assert.ErrorIs(t, def.RemoveDownload("DB_URL"), ErrDownloadNotFound)
	require.NoError(t, def.RemoveService("DB_URL"))
}

func TestDefinition_SetPackageEnv_DependsOnRuntimes(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	require.NoError(t, def.SetEnvSpec("python", ">=3.10"))
	require.NoError(t, def.SetPackageEnv("default", []string{"numpy"}, nil))

	reqs, err := def.Requirements()
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	env := reqs[1]
	assert.Equal(t, requirement.KindPackageEnv, env.Kind())
	require.Len(t, env.DependsOn(), 1)
	assert.Equal(t, "runtime:python", env.DependsOn()[0].String())
}

func TestDefinition_Requirements_RejectsUnknownDependency(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	require.NoError(t, def.SetVariable("DB_URL", requirement.VariableParams{}, "db"))

	_, err := def.Requirements()
	assert.ErrorIs(t, err, ErrUnknownDependency)
}

func TestDefinition_Requirements_RejectsInvalidParams(t *testing.T) {
	t.Parallel()

	def := newTestDefinition(t)
	require.NoError(t, def.SetDownload("DATA", requirement.DownloadParams{Filename: "data.csv"}))

	_, err := def.Requirements()
	assert.ErrorIs(t, err, requirement.ErrMissingURL)
}
