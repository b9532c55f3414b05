package models

import "time"

// Movement kinds recorded against an inventory record.
const (
	MovementCheckIn    = "check_in"
	MovementCheckOut   = "check_out"
	MovementPackoutUse = "packout_use"
)

// Actor kinds for movement rows. A movement is either made by a logged-in
// crew member or applied by a packout reconciliation run.
const (
	ActorUser    = "user"
	ActorPackout = "packout"
)

type InventoryRecord struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	QRCode        string    `gorm:"size:100;index:idx_qr_warehouse" json:"qr_code"`
	ItemNumber    string    `gorm:"size:100;index" json:"item_number"`
	Description   string    `gorm:"size:255" json:"description"`
	Color         string    `gorm:"size:50" json:"color"`
	Warehouse     string    `gorm:"size:100;index:idx_qr_warehouse" json:"warehouse"`
	Quantity      int32     `json:"quantity"`
	BoxQuantity   int32     `json:"box_quantity"`
	UnitCost      *string   `gorm:"size:50" json:"unit_cost,omitempty"`
	LastUpdatedBy string    `gorm:"size:100" json:"last_updated_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Movements []InventoryMovement `gorm:"foreignKey:RecordID" json:"movements,omitempty"`
}

type InventoryMovement struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordID   int64     `gorm:"index" json:"record_id"`
	Warehouse  string    `gorm:"size:100" json:"warehouse"`
	Kind       string    `gorm:"size:20" json:"kind"`
	Quantity   int32     `json:"quantity"`
	ActorKind  string    `gorm:"size:20" json:"actor_kind"`
	ActorLabel string    `gorm:"size:100" json:"actor_label"`
	PackoutID  *int64    `gorm:"index" json:"packout_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	Record *InventoryRecord `gorm:"foreignKey:RecordID" json:"-"`
}
