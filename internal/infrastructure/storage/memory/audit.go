package memory

import (
	"context"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
)

var _ audit.Logger = (*AuditLog)(nil)

// AuditRecord is one stored change.
type AuditRecord struct {
	EntityType string
	EntityID   id.ID
	Action     audit.Action
	Changes    map[string]any
}

// AuditLog implements audit.Logger.
type AuditLog struct{ s *Store }

func (l *AuditLog) LogChange(_ context.Context, entityType string, entityID id.ID, action audit.Action, changes map[string]any) error {
	return l.s.write(func(t *tables) error {
		t.audit = append(t.audit, AuditRecord{
			EntityType: entityType,
			EntityID:   entityID,
			Action:     action,
			Changes:    changes,
		})
		return nil
	})
}

// Records returns the changes logged for one entity, oldest first.
func (l *AuditLog) Records(entityID id.ID) []AuditRecord {
	var out []AuditRecord
	l.s.read(func(t *tables) {
		for _, r := range t.audit {
			if r.EntityID == entityID {
				out = append(out, r)
			}
		}
	})
	return out
}
