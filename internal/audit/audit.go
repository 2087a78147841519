// Package audit writes the append-only audit trail. Entries are only ever
// inserted; nothing in this package updates or deletes rows.
package audit

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rosterbase/rosterbase/internal/db/models"
)

// ErrDBNil is returned when the database connection is nil.
var ErrDBNil = errors.New("database connection is nil")

// Record appends one audit entry. Failures are logged but also returned so
// callers on critical paths (e.g. roster delete dedup) can react.
func Record(
	db *gorm.DB,
	actorID uint64,
	action, entityType string,
	entityID uint64,
	changes, metadata models.JSONMap,
) error {
	if db == nil {
		return ErrDBNil
	}

	entry := models.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Changes:    changes,
		Metadata:   metadata,
		ActorID:    actorID,
	}

	if err := db.Create(&entry).Error; err != nil {
		log.Error().Err(err).
			Str("action", action).
			Str("entity_type", entityType).
			Uint64("entity_id", entityID).
			Msg("failed to write audit entry")

		return err //nolint:wrapcheck
	}

	return nil
}

// Exists reports whether an entry for (action, entityType, entityID) has
// already been written. Used to deduplicate audit entries for idempotent
// destructive operations.
func Exists(db *gorm.DB, action, entityType string, entityID uint64) (bool, error) {
	if db == nil {
		return false, ErrDBNil
	}

	var count int64

	err := db.Model(&models.AuditLog{}).
		Where("action = ? AND entity_type = ? AND entity_id = ?", action, entityType, entityID).
		Count(&count).Error
	if err != nil {
		return false, err //nolint:wrapcheck
	}

	return count > 0, nil
}
