package models

import (
	"time"

	"github.com/google/uuid"
)

type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
	CustomerVIP      CustomerStatus = "vip"
)

func (s CustomerStatus) Valid() bool {
	switch s {
	case CustomerActive, CustomerInactive, CustomerVIP:
		return true
	}
	return false
}

// Customer is a salon client. TotalVisits and LastVisitDate are only
// written when an appointment completes.
type Customer struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Seq                 int64          `gorm:"autoIncrement;uniqueIndex" json:"-"`
	Name                string         `gorm:"not null" json:"name"`
	Phone               string         `gorm:"not null;index" json:"phone"`
	Email               string         `json:"email,omitempty"`
	PreferredServiceIDs IDSet          `gorm:"type:jsonb;not null;default:'[]'" json:"preferredServiceIds"`
	Notes               string         `json:"notes,omitempty"`
	Status              CustomerStatus `gorm:"type:varchar(16);not null;index" json:"status"`
	TotalVisits         int            `gorm:"not null;default:0" json:"totalVisits"`
	LastVisitDate       *Date          `gorm:"type:date;index" json:"lastVisitDate,omitempty"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with c.
func (c Customer) Clone() Customer {
	c.PreferredServiceIDs = c.PreferredServiceIDs.Clone()
	if c.LastVisitDate != nil {
		d := *c.LastVisitDate
		c.LastVisitDate = &d
	}
	return c
}
