package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/pinlock/internal/adapters/config"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const yamlManifest = `version: "1"
dependencies: [React, lodash]
packages:
  React:
    version: 18.2.0
    url: https://registry.npmjs.org/react/-/react-18.2.0.tgz
    integrity: "abababababababababababababababababababababababababababababababab"
    dependencies: [loose-envify, my-lib]
  loose-envify:
    version: 1.4.0
  lodash:
    version: 4.17.21
workspace:
  my-lib: 1.2.0
`

const jsoncManifest = `{
  // decided by the registry resolver
  "version": "1",
  "dependencies": ["React", "lodash"],
  "packages": {
    "React": {
      "version": "18.2.0",
      "url": "https://registry.npmjs.org/react/-/react-18.2.0.tgz",
      "integrity": "abababababababababababababababababababababababababababababababab",
      "dependencies": ["loose-envify", "my-lib"],
    },
    "loose-envify": {"version": "1.4.0"},
    "lodash": {"version": "4.17.21"},
  },
  "workspace": {"my-lib": "1.2.0"},
}
`

const tomlManifest = `version = "1"
dependencies = ["React", "lodash"]

[packages.React]
version = "18.2.0"
url = "https://registry.npmjs.org/react/-/react-18.2.0.tgz"
integrity = "abababababababababababababababababababababababababababababababab"
dependencies = ["loose-envify", "my-lib"]

[packages.loose-envify]
version = "1.4.0"

[packages.lodash]
version = "4.17.21"

[workspace]
my-lib = "1.2.0"
`

func newLoader(t *testing.T) *config.Loader {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	return config.NewLoader(log)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{file: "pinlock.yaml", content: yamlManifest},
		{file: "pinlock.jsonc", content: jsoncManifest},
		{file: "pinlock.toml", content: tomlManifest},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)

			m, err := newLoader(t).Load(path)
			require.NoError(t, err)

			assert.Equal(t, path, m.Path)
			assert.Equal(t, domain.PackageNames("react", "lodash"), m.Roots)
			assert.Equal(t, []string{"lodash", "loose-envify", "react"}, m.PackageNames())

			react, ok := m.Declaration("react")
			require.True(t, ok)
			assert.Equal(t, domain.NewVersion(18, 2, 0), react.Version)
			assert.Equal(t, "https://registry.npmjs.org/react/-/react-18.2.0.tgz", react.TarballURL)
			assert.Equal(t, domain.PackageNames("loose-envify", "my-lib"), react.Dependencies)
			assert.Equal(t, byte(0xab), react.Integrity[0])
			assert.Equal(t, byte(0xab), react.Integrity[31])

			assert.True(t, m.IsWorkspace("my-lib"))
			assert.Equal(t, domain.NewVersion(1, 2, 0), m.Workspace["my-lib"])
		})
	}
}

func TestLoad_NoRootsLogs(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info("manifest declares no root dependencies, locking every package").Times(1)

	path := writeFile(t, t.TempDir(), "pinlock.yaml", "packages:\n  a:\n    version: \"1\"\n")
	m, err := config.NewLoader(log).Load(path)
	require.NoError(t, err)
	assert.Empty(t, m.Roots)
	assert.Equal(t, []string{"a"}, m.PackageNames())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr error
	}{
		{
			name:    "duplicate after lowercasing",
			file:    "pinlock.yaml",
			content: "packages:\n  React: {version: 1.0.0}\n  react: {version: 2.0.0}\n",
			wantErr: domain.ErrInvalidPackage,
		},
		{
			name:    "short integrity",
			file:    "pinlock.yaml",
			content: "packages:\n  a: {version: 1.0.0, integrity: abcd}\n",
			wantErr: domain.ErrInvalidPackage,
		},
		{
			name:    "bad version",
			file:    "pinlock.yaml",
			content: "packages:\n  a: {version: 1.0.0-beta}\n",
			wantErr: domain.ErrInvalidVersion,
		},
		{
			name:    "workspace shadows package",
			file:    "pinlock.yaml",
			content: "packages:\n  a: {version: 1.0.0}\nworkspace:\n  A: 1.0.0\n",
			wantErr: domain.ErrInvalidPackage,
		},
		{
			name:    "unknown schema version",
			file:    "pinlock.yaml",
			content: "version: \"2\"\n",
			wantErr: domain.ErrUnsupportedManifest,
		},
		{
			name:    "unknown extension",
			file:    "pinlock.ini",
			content: "",
			wantErr: domain.ErrUnsupportedManifest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), tt.file, tt.content)
			_, err := newLoader(t).Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := newLoader(t).Load(filepath.Join(t.TempDir(), "pinlock.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_Malformed(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pinlock.toml", "packages = [")
	_, err := newLoader(t).Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse manifest")
}
