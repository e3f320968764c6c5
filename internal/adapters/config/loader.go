// Package config loads pinlock manifests from YAML, JSON with comments, or TOML.
package config

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/pinlock/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is the only manifest schema version understood by the loader.
const ManifestVersion = "1"

// FileNames are the manifest names looked up during discovery, in priority order.
var FileNames = []string{
	"pinlock.yaml",
	"pinlock.yml",
	"pinlock.json",
	"pinlock.jsonc",
	"pinlock.toml",
}

// Loader implements ports.ManifestLoader.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Discover walks up from dir until it finds a manifest.
func (l *Loader) Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", zerr.Wrap(err, "failed to resolve directory")
	}

	currentDir := abs
	for {
		for _, name := range FileNames {
			candidate := filepath.Join(currentDir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return "", zerr.With(zerr.Wrap(domain.ErrManifestNotFound, "no manifest in directory or its parents"), "cwd", abs)
}

// Load parses the manifest at path. The format is picked by file extension.
func (l *Loader) Load(path string) (*domain.Manifest, error) {
	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}

	file, err := decode(path, data)
	if err != nil {
		return nil, err
	}

	m, err := toManifest(file)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	m.Path = path

	if len(m.Roots) == 0 && l.Logger != nil {
		l.Logger.Info("manifest declares no root dependencies, locking every package")
	}
	return m, nil
}

func decode(path string, data []byte) (*ManifestFile, error) {
	var file ManifestFile
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &file)
	case ".toml":
		err = toml.Unmarshal(data, &file)
	default:
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedManifest, "unknown manifest extension"), "path", path)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to parse manifest"), "path", path)
	}
	return &file, nil
}

func toManifest(file *ManifestFile) (*domain.Manifest, error) {
	if file.Version != "" && file.Version != ManifestVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnsupportedManifest, "unknown manifest version"), "version", file.Version)
	}

	m := domain.NewManifest()
	m.Roots = domain.PackageNames(file.Dependencies...)

	for raw, dto := range file.Packages {
		decl, err := toDeclaration(raw, dto)
		if err != nil {
			return nil, err
		}
		name := decl.Name.String()
		if _, dup := m.Packages[name]; dup {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "package declared twice"), "package", name)
		}
		m.Packages[name] = decl
	}

	for raw, version := range file.Workspace {
		name := domain.NormalizeName(raw)
		if name == "" {
			return nil, zerr.Wrap(domain.ErrInvalidPackage, "workspace package has an empty name")
		}
		if _, dup := m.Packages[name]; dup {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "workspace package shadows a registry package"), "package", name)
		}
		if _, dup := m.Workspace[name]; dup {
			return nil, zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "workspace package declared twice"), "package", name)
		}
		v, err := domain.ParseVersion(version)
		if err != nil {
			return nil, zerr.With(err, "package", name)
		}
		m.Workspace[name] = v
	}

	return m, nil
}

func toDeclaration(raw string, dto PackageDTO) (domain.Declaration, error) {
	name := domain.NewPackageName(raw)
	if name.IsZero() {
		return domain.Declaration{}, zerr.Wrap(domain.ErrInvalidPackage, "package has an empty name")
	}

	v, err := domain.ParseVersion(dto.Version)
	if err != nil {
		return domain.Declaration{}, zerr.With(err, "package", name.String())
	}

	decl := domain.Declaration{
		Name:         name,
		Version:      v,
		TarballURL:   dto.URL,
		Dependencies: domain.PackageNames(dto.Dependencies...),
	}

	if dto.Integrity != "" {
		sum, err := hex.DecodeString(dto.Integrity)
		if err != nil || len(sum) != domain.IntegritySize {
			err := zerr.With(zerr.Wrap(domain.ErrInvalidPackage, "integrity must be 64 hex characters"), "package", name.String())
			return domain.Declaration{}, zerr.With(err, "integrity", dto.Integrity)
		}
		copy(decl.Integrity[:], sum)
	}
	return decl, nil
}
