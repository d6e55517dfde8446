package model

import (
	"encoding/json"
	"time"
)

// Audit actions written by the admin subsystem.
const (
	ActionAdminLogin       = "admin_login"
	ActionAdminLogout      = "admin_logout"
	ActionAdminUserCreated = "admin_user_created"
	ActionRoomCreated      = "room_created"
	ActionRoomUpdated      = "room_updated"
	ActionRoomDeleted      = "room_deleted"
	ActionMachineCreated   = "machine_created"
	ActionMachineUpdated   = "machine_updated"
	ActionMachineDeleted   = "machine_deleted"
	ActionStatsUpdated     = "stats_updated"
)

// AuditLogEntry is an append-only record of a security-relevant event.
type AuditLogEntry struct {
	ID        int64           `json:"id" db:"id"`
	Action    string          `json:"action" db:"action"`
	Data      json.RawMessage `json:"data" db:"data"`
	IPAddress string          `json:"ip_address" db:"ip_address"`
	UserAgent string          `json:"user_agent" db:"user_agent"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
