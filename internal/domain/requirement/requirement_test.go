package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ValidRequirement(t *testing.T) {
	t.Parallel()

	id := MustNewIdentity("DB_URL")
	dep := MustNewIdentity("db")

	req, err := New(KindEnvVar, id, VariableParams{Description: "database URL"}, dep)
	require.NoError(t, err)

	assert.Equal(t, KindEnvVar, req.Kind())
	assert.Equal(t, "DB_URL", req.Identity().String())
	assert.Equal(t, "env-var:DB_URL", req.String())
	require.Len(t, req.DependsOn(), 1)
	assert.Equal(t, "db", req.DependsOn()[0].String())
}

func TestNew_RejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := New(Kind("mystery"), MustNewIdentity("x"), VariableParams{})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew_RejectsMismatchedParams(t *testing.T) {
	t.Parallel()

	_, err := New(KindDownload, MustNewIdentity("data"), VariableParams{})
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestNew_RejectsInvalidParams(t *testing.T) {
	t.Parallel()

	_, err := New(KindDownload, MustNewIdentity("data"), DownloadParams{})
	assert.ErrorIs(t, err, ErrMissingURL)
}

func TestNew_RejectsSelfDependency(t *testing.T) {
	t.Parallel()

	id := MustNewIdentity("db")
	_, err := New(KindService, id, ServiceParams{Flavor: "redis"}, id)
	assert.ErrorIs(t, err, ErrSelfDependent)
}

func TestParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  Parameters
		wantErr bool
	}{
		{name: "env spec", params: EnvSpecParams{Runtime: "python", Version: ">=3.10"}},
		{name: "env spec missing runtime", params: EnvSpecParams{}, wantErr: true},
		{name: "package env", params: PackageEnvParams{Name: "default", Packages: []string{"numpy"}}},
		{name: "package env without packages", params: PackageEnvParams{Name: "default"}, wantErr: true},
		{name: "download", params: DownloadParams{URL: "https://example.com/data.csv", Filename: "data.csv"}},
		{name: "download missing url", params: DownloadParams{Filename: "data.csv"}, wantErr: true},
		{name: "download missing filename", params: DownloadParams{URL: "https://example.com/data.csv"}, wantErr: true},
		{name: "service", params: ServiceParams{Flavor: "redis"}},
		{name: "service missing flavor", params: ServiceParams{}, wantErr: true},
		{name: "variable", params: VariableParams{Default: "8080"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
