package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/gymcore/license-server/pkg/enums"
	"github.com/gymcore/license-server/pkg/types"
)

// ActivityLog is the append-only audit trail of record. Rows are never
// updated or deleted.
type ActivityLog struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	LicenseID uuid.UUID            `gorm:"column:license_id;type:uuid;not null;index"`
	DeviceID  *uuid.UUID           `gorm:"column:device_id;type:uuid"`
	Action    enums.ActivityAction `gorm:"column:action;not null"`
	IP        string               `gorm:"column:ip"`
	Details   types.JSONMap        `gorm:"column:details;type:jsonb"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
