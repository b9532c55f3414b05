package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"packtrack-system/internal/colorcode"
	"packtrack-system/internal/database/models"
)

const (
	INVENTORY_CACHE_PREFIX = "inventory:warehouse:"
	WAREHOUSE_CACHE_KEY    = "inventory:warehouses"
	CACHE_TTL_SHORT        = 5 * time.Minute
	CACHE_TTL_MEDIUM       = 30 * time.Minute
	CACHE_TTL_LONG         = 2 * time.Hour
	DEFAULT_WAREHOUSE      = "Main Warehouse"
	LOW_STOCK_THRESHOLD    = 10
	MOVEMENT_LIST_MAX_ROWS = 200
)

var (
	ErrNotFound         = errors.New("inventory record not found")
	ErrMissingFields    = errors.New("item number, description and color are required")
	ErrInvalidQuantity  = errors.New("quantity must be greater than 0")
	ErrInvalidDirection = errors.New("direction must be \"in\" or \"out\"")
)

// Check-in/out directions, as sent by the scanner UI.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

type InventoryHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client) *InventoryHandler {
	return &InventoryHandler{
		db:    db,
		redis: redisClient,
	}
}

// ItemFilter is an AND-of-equality predicate over inventory records. Nil
// fields are not part of the match.
type ItemFilter struct {
	ItemNumber  *string
	Color       *string
	Warehouse   *string
	Description *string
}

type CreateItemInput struct {
	QRCode      string  `json:"qr_code"`
	ItemNumber  string  `json:"item_number"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	Warehouse   string  `json:"warehouse"`
	Quantity    int32   `json:"quantity"`
	BoxQuantity int32   `json:"box_quantity"`
	UnitCost    *string `json:"unit_cost,omitempty"`
}

func (s *InventoryHandler) InvalidateInventoryCaches(ctx context.Context, warehouses ...string) {
	_ = s.redis.Del(ctx, WAREHOUSE_CACHE_KEY)

	for _, warehouse := range warehouses {
		cacheKey := INVENTORY_CACHE_PREFIX + warehouse
		_ = s.redis.Del(ctx, cacheKey)
	}
}

// GetWarehouseItems lists every record in a warehouse, cached briefly since
// the scanner UI reloads the list after each mutation.
func (s *InventoryHandler) GetWarehouseItems(ctx context.Context, warehouse string) ([]models.InventoryRecord, error) {
	cacheKey := INVENTORY_CACHE_PREFIX + warehouse
	if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
		var records []models.InventoryRecord
		if err := json.Unmarshal([]byte(cached), &records); err == nil {
			return records, nil
		}
	}

	var records []models.InventoryRecord
	if err := s.db.Where("warehouse = ?", warehouse).Order("item_number").Find(&records).Error; err != nil {
		return nil, err
	}

	if data, err := json.Marshal(records); err == nil {
		_ = s.redis.Set(ctx, cacheKey, data, CACHE_TTL_SHORT)
	}

	return records, nil
}

// GetItemByQR resolves a scanned code within a warehouse. ErrNotFound means
// the code is new and the UI should open the create form.
func (s *InventoryHandler) GetItemByQR(ctx context.Context, qrCode, warehouse string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := s.db.Where("qr_code = ? AND warehouse = ?", qrCode, warehouse).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *InventoryHandler) GetItem(ctx context.Context, id int64) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	if err := s.db.First(&record, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// CreateItem registers the first scan of an unknown QR code.
func (s *InventoryHandler) CreateItem(ctx context.Context, input CreateItemInput, actor string) (*models.InventoryRecord, error) {
	if input.ItemNumber == "" || input.Description == "" || input.Color == "" {
		return nil, ErrMissingFields
	}
	if _, err := colorcode.Letter(input.Color); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	warehouse := input.Warehouse
	if warehouse == "" {
		warehouse = DEFAULT_WAREHOUSE
	}

	record := models.InventoryRecord{
		QRCode:        input.QRCode,
		ItemNumber:    input.ItemNumber,
		Description:   input.Description,
		Color:         input.Color,
		Warehouse:     warehouse,
		Quantity:      input.Quantity,
		BoxQuantity:   input.BoxQuantity,
		UnitCost:      input.UnitCost,
		LastUpdatedBy: actor,
	}

	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}

	s.InvalidateInventoryCaches(ctx, warehouse)

	return &record, nil
}

// CheckInOut applies a manual quantity change. Check-out is clamped at
// zero rather than rejected; the movement row records the delta actually
// applied.
func (s *InventoryHandler) CheckInOut(ctx context.Context, id int64, direction string, qty int32, actor string) (*models.InventoryRecord, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if direction != DirectionIn && direction != DirectionOut {
		return nil, ErrInvalidDirection
	}

	var record models.InventoryRecord

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.First(&record, id).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var delta int32
	var kind string
	switch direction {
	case DirectionIn:
		delta = qty
		kind = models.MovementCheckIn
	case DirectionOut:
		delta = -qty
		if record.Quantity < qty {
			delta = -record.Quantity
		}
		kind = models.MovementCheckOut
	}

	record.Quantity += delta
	record.LastUpdatedBy = actor
	record.UpdatedAt = time.Now()

	if err := tx.Save(&record).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	movement := models.InventoryMovement{
		RecordID:   record.ID,
		Warehouse:  record.Warehouse,
		Kind:       kind,
		Quantity:   delta,
		ActorKind:  models.ActorUser,
		ActorLabel: actor,
		CreatedAt:  time.Now(),
	}

	if err := tx.Create(&movement).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.InvalidateInventoryCaches(ctx, record.Warehouse)

	return &record, nil
}

// FindByFilter matches records on the conjunction of the provided fields.
func (s *InventoryHandler) FindByFilter(ctx context.Context, filter ItemFilter) ([]models.InventoryRecord, error) {
	query := s.db.Model(&models.InventoryRecord{})

	if filter.ItemNumber != nil {
		query = query.Where("item_number = ?", *filter.ItemNumber)
	}
	if filter.Color != nil {
		query = query.Where("color = ?", *filter.Color)
	}
	if filter.Warehouse != nil {
		query = query.Where("warehouse = ?", *filter.Warehouse)
	}
	if filter.Description != nil {
		query = query.Where("description = ?", *filter.Description)
	}

	var records []models.InventoryRecord
	if err := query.Order("item_number").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// ListWarehouses returns the distinct warehouse names present in inventory,
// falling back to the default when the table is empty.
func (s *InventoryHandler) ListWarehouses(ctx context.Context) ([]string, error) {
	if cached, err := s.redis.Get(ctx, WAREHOUSE_CACHE_KEY).Result(); err == nil {
		var warehouses []string
		if err := json.Unmarshal([]byte(cached), &warehouses); err == nil {
			return warehouses, nil
		}
	}

	var warehouses []string
	if err := s.db.Model(&models.InventoryRecord{}).
		Where("warehouse <> ''").
		Distinct("warehouse").
		Order("warehouse").
		Pluck("warehouse", &warehouses).Error; err != nil {
		return nil, err
	}

	if len(warehouses) == 0 {
		warehouses = []string{DEFAULT_WAREHOUSE}
	}

	if data, err := json.Marshal(warehouses); err == nil {
		_ = s.redis.Set(ctx, WAREHOUSE_CACHE_KEY, data, CACHE_TTL_MEDIUM)
	}

	return warehouses, nil
}

func (s *InventoryHandler) ListLowStock(ctx context.Context, warehouse *string, threshold int32) ([]models.InventoryRecord, error) {
	if threshold <= 0 {
		threshold = LOW_STOCK_THRESHOLD
	}

	query := s.db.Model(&models.InventoryRecord{}).Where("quantity <= ?", threshold)
	if warehouse != nil && *warehouse != "" {
		query = query.Where("warehouse = ?", *warehouse)
	}

	var records []models.InventoryRecord
	if err := query.Order("quantity").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type MovementFilter struct {
	RecordID  *int64
	Warehouse *string
	PackoutID *int64
}

func (s *InventoryHandler) ListMovements(ctx context.Context, filter MovementFilter) ([]models.InventoryMovement, error) {
	query := s.db.Model(&models.InventoryMovement{})

	if filter.RecordID != nil {
		query = query.Where("record_id = ?", *filter.RecordID)
	}
	if filter.Warehouse != nil && *filter.Warehouse != "" {
		query = query.Where("warehouse = ?", *filter.Warehouse)
	}
	if filter.PackoutID != nil {
		query = query.Where("packout_id = ?", *filter.PackoutID)
	}

	var movements []models.InventoryMovement
	if err := query.Order("created_at DESC").Limit(MOVEMENT_LIST_MAX_ROWS).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// BoxesAndPieces splits a quantity into full boxes and loose pieces for
// display. A zero box quantity means the item is not boxed: everything is
// pieces.
func BoxesAndPieces(quantity, boxQuantity int32) (boxes, pieces int32) {
	if boxQuantity <= 0 {
		return 0, quantity
	}
	return quantity / boxQuantity, quantity % boxQuantity
}
