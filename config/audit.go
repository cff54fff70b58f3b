package config

import (
	"fmt"

	"github.com/letstalk-code/routecare/core/audit"
)

// AuditConfig defines settings for audit trail storage and rotation.
type AuditConfig struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the audit store.
	Path string `json:"path"`
	// MaxSizeMB triggers rotation when the file exceeds this size in megabytes.
	MaxSizeMB int `json:"max_size_mb"`
	// MaxBackups limits the number of rotated files to keep.
	MaxBackups int `json:"max_backups"`
	// MaxAgeDays removes rotated files older than this number of days.
	MaxAgeDays int `json:"max_age_days"`
}

// SetDefaults applies sane defaults.
func (c *AuditConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "trip_audit.log"
	}
}

// Validate checks mandatory fields.
func (c AuditConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// NewStore instantiates the configured audit store. Rotation settings switch
// the jsonl backend to its rotating variant.
func (c AuditConfig) NewStore() (audit.Store, error) {
	switch c.Backend {
	case "jsonl":
		if c.MaxSizeMB > 0 {
			return audit.NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		}
		return audit.NewJSONLStore(c.Path)
	case "sqlite":
		return audit.NewSQLiteStore(c.Path)
	default:
		return nil, fmt.Errorf("unknown backend %s", c.Backend)
	}
}
