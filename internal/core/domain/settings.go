package domain

// Settings are the tool-level options shared by all commands.
type Settings struct {
	// LockfilePath is where the binary lockfile is read and written.
	LockfilePath string
	// ManifestPath is the manifest to load. Empty means discovery from the working directory.
	ManifestPath string
	// Replica is this writer's slot in the vector clock.
	Replica ReplicaID
	// Policy is how cycles are handled while planning.
	Policy CyclePolicy
	// MaxDepth bounds dependency chains.
	MaxDepth int
	// HistoryDir holds compressed lockfile snapshots.
	HistoryDir string
	// AuditDB is the path of the audit journal database.
	AuditDB string
	// JSONLogs switches the logger to JSON output.
	JSONLogs bool
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		LockfilePath: "pinlock.lock",
		Policy:       PolicyError,
		MaxDepth:     256,
		HistoryDir:   ".pinlock/history",
		AuditDB:      ".pinlock/audit.db",
	}
}
