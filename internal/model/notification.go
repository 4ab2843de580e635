package model

import (
	"encoding/json"
	"time"
)

// NotificationInput is what the event dispatcher hands to a notifier.
type NotificationInput struct {
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Notification is a per-user inbox message stored in `notifications`.
// Only the owning user may mark it read or delete it.
type Notification struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"userId"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Type      string          `json:"type"`
	Meta      json.RawMessage `json:"meta,omitempty"`
	IsRead    bool            `json:"isRead"`
	CreatedAt time.Time       `json:"createdAt"`
}

// AuditAction names a privileged state change.
type AuditAction string

const (
	AuditRelease     AuditAction = "release"
	AuditExpire      AuditAction = "expire"
	AuditConfirm     AuditAction = "confirm"
	AuditCancel      AuditAction = "cancel"
	AuditTurfApprove AuditAction = "turf.approve"
	AuditTurfBlock   AuditAction = "turf.block"
	AuditImport      AuditAction = "import"
)

// AuditEntry is an append-only row of `audit_logs`.  ActorID is nil for
// actions taken by the system itself, such as hold expiry.
type AuditEntry struct {
	ID        uint64          `json:"id"`
	ActorID   *uint64         `json:"actorId,omitempty"`
	Action    AuditAction     `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  uint64          `json:"entityId"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}
