// Package apperr holds the error kinds surfaced by the reconciliation run.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ConfigurationError is fatal for the unit it names: a site when a timezone
// is missing, the whole run when a companion capability is missing.
type ConfigurationError struct {
	SiteID     int64
	Capability string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	if e.Capability != "" {
		return fmt.Sprintf("configuration error: capability %q unavailable: %s", e.Capability, e.Reason)
	}
	return fmt.Sprintf("configuration error: site %d: %s", e.SiteID, e.Reason)
}

// ImportKind classifies remote acquisition failures.
type ImportKind string

const (
	ImportNetwork ImportKind = "network"
	ImportAuth    ImportKind = "auth"
	ImportParse   ImportKind = "parse"
)

// ImportError is returned by cost importers. A failed import never commits
// partial rows.
type ImportError struct {
	Platform string
	Kind     ImportKind
	Err      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("%s import failed (%s): %v", e.Platform, e.Kind, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// StorageConflict marks a ledger row whose unique hash is already present.
type StorageConflict struct {
	UniqueHash string
}

func (e *StorageConflict) Error() string {
	return fmt.Sprintf("ledger row %s already present", e.UniqueHash)
}

// DataInconsistency is a diagnostic: reported platform cost differs from the
// cost stored in the ledger for the same window.
type DataInconsistency struct {
	SiteID   int64
	Date     string
	Platform string
	Reported string
	Stored   string
}

func (e *DataInconsistency) Error() string {
	return fmt.Sprintf("cost mismatch site=%d date=%s platform=%s reported=%s stored=%s",
		e.SiteID, e.Date, e.Platform, e.Reported, e.Stored)
}

// IsConfiguration reports whether err is (or wraps) a ConfigurationError.
func IsConfiguration(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsDuplicateKey recognises unique violations across the drivers we run on.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// postgres 23505, sqlite 2067, mysql 1062
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Error 1062")
}
