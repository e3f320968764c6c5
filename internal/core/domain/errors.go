package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidMagic is returned when a lockfile does not start with the expected format tag.
	ErrInvalidMagic = zerr.New("invalid lockfile magic")

	// ErrCorrupted is returned when a lockfile is truncated, has out-of-range offsets, or fails its content hash.
	ErrCorrupted = zerr.New("lockfile corrupted")

	// ErrUnsupportedVersion is returned when a lockfile carries an unknown major format version.
	ErrUnsupportedVersion = zerr.New("unsupported lockfile version")

	// ErrReplicaOutOfRange is returned when a replica id cannot be represented in the on-disk clock.
	ErrReplicaOutOfRange = zerr.New("replica id out of range")

	// ErrInvalidPackage is returned when a package resolution cannot be encoded.
	ErrInvalidPackage = zerr.New("invalid package")

	// ErrInvalidVersion is returned when a version string cannot be parsed.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrCycleDetected is returned when a cycle is detected in the dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrCircularDependency is returned by the detector under the error policy.
	ErrCircularDependency = zerr.New("circular dependency")

	// ErrMissingDependency is returned when a package depends on a name that is not declared.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrMaxDepthExceeded is returned when a dependency walk descends deeper than allowed.
	ErrMaxDepthExceeded = zerr.New("maximum dependency depth exceeded")

	// ErrInvalidPolicy is returned when a cycle policy name is not recognized.
	ErrInvalidPolicy = zerr.New("invalid cycle policy")

	// ErrManifestNotFound is returned when no manifest file can be located.
	ErrManifestNotFound = zerr.New("manifest not found")

	// ErrUnsupportedManifest is returned for manifest files with an unknown extension.
	ErrUnsupportedManifest = zerr.New("unsupported manifest format")

	// ErrSnapshotNotFound is returned when a history snapshot does not exist.
	ErrSnapshotNotFound = zerr.New("snapshot not found")

	// ErrLockfileNotFound is returned when a lockfile to read does not exist.
	ErrLockfileNotFound = zerr.New("lockfile not found")

	// ErrPackageNotFound is returned when a requested package is not in the lockfile.
	ErrPackageNotFound = zerr.New("package not found")

	// ErrInvalidSetting is returned when a settings value cannot be applied.
	ErrInvalidSetting = zerr.New("invalid setting")

	// ErrLockfileConflicts is returned when a merge produced concurrent conflicts.
	ErrLockfileConflicts = zerr.New("lockfile has unresolved conflicts")
)
