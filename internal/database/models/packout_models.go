package models

import "time"

type PackoutStatus string

const (
	StatusPendingInstaller PackoutStatus = "pending_installer"
	StatusConfirmed        PackoutStatus = "confirmed"
	StatusCompleted        PackoutStatus = "completed"
)

// statusTransitions is the allowed lifecycle. The pending_installer ->
// completed edge covers the skip-confirm path used when a driver processes
// returns for a sheet the installer never acknowledged; the confirmed ->
// confirmed edge lets a later installer re-stamp an acknowledgment.
var statusTransitions = map[PackoutStatus][]PackoutStatus{
	StatusPendingInstaller: {StatusConfirmed, StatusCompleted},
	StatusConfirmed:        {StatusConfirmed, StatusCompleted},
	StatusCompleted:        {},
}

func (s PackoutStatus) CanTransitionTo(next PackoutStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s PackoutStatus) Valid() bool {
	switch s {
	case StatusPendingInstaller, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

type PackoutSheet struct {
	ID           int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	JobNumber    string        `gorm:"size:100;index" json:"job_number"`
	CustomerName string        `gorm:"size:255" json:"customer_name"`
	JobColor     string        `gorm:"size:50" json:"job_color"`
	Warehouse    string        `gorm:"size:100;index" json:"warehouse"`
	Status       PackoutStatus `gorm:"size:30;index" json:"status"`
	CreatedBy    string        `gorm:"size:100" json:"created_by"`
	ConfirmedBy  *string       `gorm:"size:100" json:"confirmed_by,omitempty"`
	ConfirmedAt  *time.Time    `json:"confirmed_at,omitempty"`
	CompletedBy  *string       `gorm:"size:100" json:"completed_by,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`

	Items   []PackoutLineItem `gorm:"foreignKey:SheetID" json:"items"`
	Returns []PackoutReturn   `gorm:"foreignKey:SheetID" json:"returns,omitempty"`
}

type PackoutLineItem struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	SheetID         int64  `gorm:"index" json:"sheet_id"`
	Position        int32  `json:"position"`
	ItemName        string `gorm:"size:255" json:"item_name"`
	PartNumber      string `gorm:"size:100" json:"part_number"`
	OrderedQuantity int32  `json:"ordered_quantity"`
}

type PackoutReturn struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SheetID          int64     `gorm:"index" json:"sheet_id"`
	ItemName         string    `gorm:"size:255" json:"item_name"`
	ReturnedQuantity int32     `json:"returned_quantity"`
	CreatedAt        time.Time `json:"created_at"`
}
