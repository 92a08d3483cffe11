package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "simple", input: "DB_URL"},
		{name: "namespaced", input: "env:default"},
		{name: "runtime", input: "runtime:python"},
		{name: "dotted", input: "data.training-set"},
		{name: "empty", input: "", wantErr: ErrEmptyIdentity},
		{name: "leading separator", input: ":oops", wantErr: ErrInvalidIdentity},
		{name: "trailing separator", input: "env:", wantErr: ErrInvalidIdentity},
		{name: "spaces", input: "not valid", wantErr: ErrInvalidIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, err := NewIdentity(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, id.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, id.String())
		})
	}
}

func TestIdentity_Equals(t *testing.T) {
	t.Parallel()

	a := MustNewIdentity("DB_URL")
	b := MustNewIdentity("DB_URL")
	c := MustNewIdentity("REDIS_URL")

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
}

func TestMustNewIdentity_PanicsOnInvalid(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNewIdentity("")
	})
}
