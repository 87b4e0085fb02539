package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/burrow/internal/core/domain"
)

func TestIdentifier_SplitNameVersion(t *testing.T) {
	tests := []struct {
		name        string
		ref         string
		wantName    string
		wantVersion string
		wantErr     error
	}{
		{
			name:        "plain package",
			ref:         "lodash@4.17.21",
			wantName:    "lodash",
			wantVersion: "4.17.21",
		},
		{
			name:        "scoped package",
			ref:         "@alloc/quick-lru@5.2.0",
			wantName:    "@alloc/quick-lru",
			wantVersion: "5.2.0",
		},
		{
			name:        "git source",
			ref:         "lodash@github:lodash/lodash#8a26eb4",
			wantName:    "lodash",
			wantVersion: "github:lodash/lodash#8a26eb4",
		},
		{
			name:        "workspace ref",
			ref:         "my-app@workspace:packages/app",
			wantName:    "my-app",
			wantVersion: "workspace:packages/app",
		},
		{
			name:    "no separator",
			ref:     "lodash",
			wantErr: domain.ErrNoAtInIdentifier,
		},
		{
			name:    "scoped without version",
			ref:     "@alloc/quick-lru",
			wantErr: domain.ErrNoAtInIdentifier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := domain.Identifier{Kind: domain.KindRegistry, Ref: tt.ref}
			name, version, err := id.SplitNameVersion()

			if tt.wantErr != nil {
				require.ErrorContains(t, err, tt.wantErr.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantVersion, version)
		})
	}
}

func TestIdentifierKind_String(t *testing.T) {
	assert.Equal(t, "registry", domain.KindRegistry.String())
	assert.Equal(t, "git", domain.KindGit.String())
	assert.Equal(t, "tarball", domain.KindTarball.String())
	assert.Equal(t, "workspace", domain.KindWorkspace.String())
}
