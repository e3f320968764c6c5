package config

// ManifestFile is the on-disk shape of a pinlock manifest, shared by every supported format.
type ManifestFile struct {
	Version      string                `yaml:"version" json:"version" toml:"version"`
	Dependencies []string              `yaml:"dependencies" json:"dependencies" toml:"dependencies"`
	Packages     map[string]PackageDTO `yaml:"packages" json:"packages" toml:"packages"`
	Workspace    map[string]string     `yaml:"workspace" json:"workspace" toml:"workspace"`
}

// PackageDTO is a single decided package in the manifest.
type PackageDTO struct {
	Version      string   `yaml:"version" json:"version" toml:"version"`
	URL          string   `yaml:"url" json:"url" toml:"url"`
	Integrity    string   `yaml:"integrity" json:"integrity" toml:"integrity"`
	Dependencies []string `yaml:"dependencies" json:"dependencies" toml:"dependencies"`
}
