package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditLog records who changed which report or profile
type AuditLog struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uuid.UUID    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action    string        `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  AuditMetadata `gorm:"type:jsonb" json:"metadata"`
	CreatedAt time.Time     `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditMetadata is the jsonb payload of an audit entry. Entity and EntityID
// name the row that changed; OldValue is absent for creations.
type AuditMetadata struct {
	Entity   string          `json:"entity"`
	EntityID string          `json:"entity_id"`
	OldValue json.RawMessage `json:"old_value,omitempty"`
	NewValue json.RawMessage `json:"new_value,omitempty"`
}

// NewAuditMetadata snapshots old and new as JSON. A nil old is left out.
func NewAuditMetadata(entityName, entityID string, oldValue, newValue interface{}) (AuditMetadata, error) {
	meta := AuditMetadata{Entity: entityName, EntityID: entityID}

	if oldValue != nil {
		raw, err := json.Marshal(oldValue)
		if err != nil {
			return AuditMetadata{}, fmt.Errorf("audit metadata: old value: %w", err)
		}
		meta.OldValue = raw
	}
	if newValue != nil {
		raw, err := json.Marshal(newValue)
		if err != nil {
			return AuditMetadata{}, fmt.Errorf("audit metadata: new value: %w", err)
		}
		meta.NewValue = raw
	}
	return meta, nil
}

// DecodeNew unmarshals the new-value snapshot into dst.
func (m AuditMetadata) DecodeNew(dst interface{}) error {
	if len(m.NewValue) == 0 {
		return fmt.Errorf("audit metadata for %s %s has no new value", m.Entity, m.EntityID)
	}
	return json.Unmarshal(m.NewValue, dst)
}

func (m AuditMetadata) Value() (driver.Value, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan accepts the []byte postgres hands back for jsonb and the string
// sqlite stores.
func (m *AuditMetadata) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*m = AuditMetadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("audit metadata: unsupported column type %T", value)
	}

	if len(raw) == 0 {
		*m = AuditMetadata{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Audit actions
const (
	AuditActionReportCreate        = "report.create"
	AuditActionReportLocatorRepair = "report.locator_repair"
	AuditActionAnalysisSubmit      = "analysis.submit"
	AuditActionProfileCreate       = "profile.create"
	AuditActionProfileUpdate       = "profile.update"
	AuditActionProfileRoleAssign   = "profile.role_assign"
)

var auditActions = []string{
	AuditActionReportCreate,
	AuditActionReportLocatorRepair,
	AuditActionAnalysisSubmit,
	AuditActionProfileCreate,
	AuditActionProfileUpdate,
	AuditActionProfileRoleAssign,
}

// AuditActions lists every action the service records.
func AuditActions() []string {
	out := make([]string, len(auditActions))
	copy(out, auditActions)
	return out
}

func IsAuditAction(action string) bool {
	for _, a := range auditActions {
		if a == action {
			return true
		}
	}
	return false
}
