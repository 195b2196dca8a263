// Package idutil generates the short prefixed IDs used for runs, test cases
// and browser sessions in logs, reports and artifact paths.
package idutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Manager hands out IDs scoped to one run. Case and session IDs are derived
// from the run ID, so they are stable within a run and unique across runs.
type Manager struct {
	run string
}

// NewManager starts a new run with a random run ID.
func NewManager() *Manager {
	return &Manager{run: hashID("run", uuid.NewString())}
}

// NewManagerFor resumes a known run ID, mainly for tests.
func NewManagerFor(runID string) *Manager {
	return &Manager{run: runID}
}

// RunID format: run_XXXXXXXX
func (m *Manager) RunID() string {
	return m.run
}

// CaseID format: case_XXXXXXXX
func (m *Manager) CaseID(name string) string {
	return hashID("case", m.run+":"+name)
}

// SessionID format: sess_XXXXXXXX
func (m *Manager) SessionID(seq int) string {
	return hashID("sess", fmt.Sprintf("%s:%d", m.run, seq))
}

// hashID returns {prefix}_{first 8 hex chars of SHA256(data)}.
func hashID(prefix, data string) string {
	hash := sha256.Sum256([]byte(data))
	return prefix + "_" + hex.EncodeToString(hash[:])[:8]
}

// IsValidID checks if an ID matches the expected prefix format
func IsValidID(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"_") && len(id) == len(prefix)+9
}

// ExtractPrefix extracts the prefix from an ID
func ExtractPrefix(id string) string {
	prefix, _, ok := strings.Cut(id, "_")
	if !ok {
		return ""
	}
	return prefix
}

// Slug turns a case name into a file-system friendly directory name.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
