package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `packages:
  - name: grafana
    path: ./apps/grafana/application.yaml
  - name: loki
    path: ./apps/$/loki/application.yaml
  - name: rootpkg
`

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
		count   int
	}{
		{
			name:  "valid catalog",
			data:  sampleCatalog,
			count: 3,
		},
		{
			name:    "missing packages key",
			data:    "apps:\n  - name: x\n",
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "packages not a list",
			data:    "packages: grafana\n",
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "empty file",
			data:    "",
			wantErr: ErrInvalidCatalog,
		},
		{
			name:    "malformed yaml",
			data:    "packages:\n  - name: [unclosed\n",
			wantErr: nil, // parse error, not a sentinel
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load([]byte(tt.data))
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.name == "malformed yaml":
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Len(t, f.Packages, tt.count)
			}
		})
	}
}

func TestFile_Find(t *testing.T) {
	f, err := Load([]byte(sampleCatalog))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		pkg, err := f.Find("grafana")
		require.NoError(t, err)
		assert.Equal(t, "./apps/grafana/application.yaml", pkg.Path)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := f.Find("missing")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPackageNotFound)
		assert.Contains(t, err.Error(), "missing")
	})
}

func TestResolvePath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		environment string
		want        string
		wantErr     error
	}{
		{
			name: "plain path untouched",
			path: "./apps/grafana/application.yaml",
			want: "./apps/grafana/application.yaml",
		},
		{
			name:        "placeholder substituted",
			path:        "./apps/$/application.yaml",
			environment: "dev",
			want:        "./apps/dev/application.yaml",
		},
		{
			name:        "placeholder without environment",
			path:        "./apps/$/application.yaml",
			environment: "",
			wantErr:     ErrEnvironmentRequired,
		},
		{
			name: "empty path defaults to root",
			path: "",
			want: "./",
		},
		{
			name:        "environment ignored without placeholder",
			path:        "./apps/application.yaml",
			environment: "prod",
			want:        "./apps/application.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolvePath(tt.path, tt.environment)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFile_Resolve(t *testing.T) {
	f, err := Load([]byte(sampleCatalog))
	require.NoError(t, err)

	t.Run("resolves placeholder path", func(t *testing.T) {
		got, err := f.Resolve("loki", "staging")
		require.NoError(t, err)
		assert.Equal(t, "./apps/staging/loki/application.yaml", got)
	})

	t.Run("missing package", func(t *testing.T) {
		_, err := f.Resolve("nope", "dev")
		assert.ErrorIs(t, err, ErrPackageNotFound)
	})

	t.Run("pathless package resolves to root", func(t *testing.T) {
		got, err := f.Resolve("rootpkg", "")
		require.NoError(t, err)
		assert.Equal(t, "./", got)
	})
}
