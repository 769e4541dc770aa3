// Package perms provides centralized file and directory permission constants
// for consistent security practices across the bookstore codebase.
package perms

import "os"

const (
	// RegularFile permissions for files anyone may read (configuration, logs, OpenAPI documents).
	// Mode 0644: owner read/write, group read, others read.
	RegularFile os.FileMode = 0o644

	// SecureFile permissions for files holding stored records (SQLite databases).
	// Mode 0600: owner read/write only, no group or other access.
	SecureFile os.FileMode = 0o600

	// RegularDir permissions for directories created on behalf of the store.
	// Mode 0755: owner read/write/execute, group read/execute, others read/execute.
	RegularDir os.FileMode = 0o755
)
