package ports

import "go.trai.ch/pinlock/internal/core/domain"

// ManifestLoader defines the interface for loading package manifests.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ManifestLoader interface {
	// Discover finds the manifest file starting at dir and walking up to the filesystem root.
	Discover(dir string) (string, error)

	// Load parses the manifest at path.
	Load(path string) (*domain.Manifest, error)
}
