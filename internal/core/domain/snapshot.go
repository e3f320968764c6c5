package domain

import "time"

// Snapshot describes a lockfile version kept in the history store.
type Snapshot struct {
	Digest    string    `json:"digest,omitzero"`
	Lockfile  string    `json:"lockfile,omitzero"`
	Packages  int       `json:"packages"`
	Clock     string    `json:"clock,omitzero"`
	Size      int       `json:"size,omitzero"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// ShortDigest returns the first 12 hex characters of the digest.
func (s Snapshot) ShortDigest() string {
	if len(s.Digest) <= 12 {
		return s.Digest
	}
	return s.Digest[:12]
}

// AuditRun is one journaled invocation that wrote a lockfile.
type AuditRun struct {
	ID          string
	Command     string
	Lockfile    string
	Packages    int
	Started     time.Time
	Finished    time.Time
	BrokenEdges []Edge
	Conflicts   []string
}
