package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"packtrack-system/internal/colorcode"
	"packtrack-system/internal/database/models"
	inventory "packtrack-system/internal/services/inventory/handler"
)

const (
	PACKOUT_LIST_CACHE_KEY = "packout:sheets"
	CACHE_TTL_SHORT        = 5 * time.Minute
)

var (
	ErrNotFound         = errors.New("packout sheet not found")
	ErrInvalidColor     = errors.New("job color has no color code")
	ErrAlreadyCompleted = errors.New("packout sheet already completed")
	ErrMissingFields    = errors.New("job number, job color and warehouse are required")
	ErrNoItems          = errors.New("packout sheet needs at least one line item")
	ErrInvalidQuantity  = errors.New("quantities must not be negative")
	ErrInvalidStatus    = errors.New("invalid packout status")
)

type PackoutHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewPackoutHandler(db *gorm.DB, redisClient *redis.Client) *PackoutHandler {
	return &PackoutHandler{
		db:    db,
		redis: redisClient,
	}
}

type LineItemInput struct {
	ItemName        string `json:"item_name"`
	PartNumber      string `json:"part_number"`
	OrderedQuantity int32  `json:"ordered_quantity"`
}

type CreateSheetInput struct {
	JobNumber    string          `json:"job_number"`
	CustomerName string          `json:"customer_name"`
	JobColor     string          `json:"job_color"`
	Warehouse    string          `json:"warehouse"`
	Items        []LineItemInput `json:"items"`
}

func (s *PackoutHandler) invalidatePackoutCaches(ctx context.Context) {
	_ = s.redis.Del(ctx, PACKOUT_LIST_CACHE_KEY)
}

// packoutActor is the free-text stamp written to inventory rows touched by
// a reconciliation run. Movement rows carry the structured actor alongside.
func packoutActor(jobNumber string) string {
	return fmt.Sprintf("Packout %s", jobNumber)
}

// CreatePackoutSheet opens a sheet in pending_installer. The job color is
// validated against the color code table up front so a bad sheet cannot
// reach reconciliation.
func (s *PackoutHandler) CreatePackoutSheet(ctx context.Context, input CreateSheetInput, actor string) (*models.PackoutSheet, error) {
	if input.JobNumber == "" || input.JobColor == "" || input.Warehouse == "" {
		return nil, ErrMissingFields
	}
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	if _, err := colorcode.Letter(input.JobColor); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, input.JobColor)
	}
	for _, item := range input.Items {
		if item.OrderedQuantity < 0 {
			return nil, ErrInvalidQuantity
		}
	}

	sheet := models.PackoutSheet{
		JobNumber:    input.JobNumber,
		CustomerName: input.CustomerName,
		JobColor:     input.JobColor,
		Warehouse:    input.Warehouse,
		Status:       models.StatusPendingInstaller,
		CreatedBy:    actor,
	}

	for i, item := range input.Items {
		sheet.Items = append(sheet.Items, models.PackoutLineItem{
			Position:        int32(i),
			ItemName:        item.ItemName,
			PartNumber:      item.PartNumber,
			OrderedQuantity: item.OrderedQuantity,
		})
	}

	if err := s.db.Create(&sheet).Error; err != nil {
		return nil, err
	}

	s.invalidatePackoutCaches(ctx)

	return &sheet, nil
}

// GetPackoutSheets lists sheets newest first, optionally filtered by status
// and warehouse. Only the unfiltered list is cached.
func (s *PackoutHandler) GetPackoutSheets(ctx context.Context, status *string, warehouse *string) ([]models.PackoutSheet, error) {
	unfiltered := status == nil && warehouse == nil

	if unfiltered {
		if cached, err := s.redis.Get(ctx, PACKOUT_LIST_CACHE_KEY).Result(); err == nil {
			var sheets []models.PackoutSheet
			if err := json.Unmarshal([]byte(cached), &sheets); err == nil {
				return sheets, nil
			}
		}
	}

	query := s.db.Model(&models.PackoutSheet{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Returns")

	if status != nil {
		if !models.PackoutStatus(*status).Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, *status)
		}
		query = query.Where("status = ?", *status)
	}
	if warehouse != nil && *warehouse != "" {
		query = query.Where("warehouse = ?", *warehouse)
	}

	var sheets []models.PackoutSheet
	if err := query.Order("created_at DESC").Find(&sheets).Error; err != nil {
		return nil, err
	}

	if unfiltered {
		if data, err := json.Marshal(sheets); err == nil {
			_ = s.redis.Set(ctx, PACKOUT_LIST_CACHE_KEY, data, CACHE_TTL_SHORT)
		}
	}

	return sheets, nil
}

func (s *PackoutHandler) GetPackoutSheet(ctx context.Context, id int64) (*models.PackoutSheet, error) {
	var sheet models.PackoutSheet
	err := s.db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Returns").
		First(&sheet, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sheet, nil
}

// ConfirmPackout stamps the installer acknowledgment. Re-confirming an
// already-confirmed sheet just re-stamps; confirming a completed sheet is
// rejected.
func (s *PackoutHandler) ConfirmPackout(ctx context.Context, id int64, actor string) (*models.PackoutSheet, error) {
	var sheet models.PackoutSheet
	if err := s.db.First(&sheet, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !sheet.Status.CanTransitionTo(models.StatusConfirmed) {
		return nil, ErrAlreadyCompleted
	}

	now := time.Now()
	sheet.Status = models.StatusConfirmed
	sheet.ConfirmedBy = &actor
	sheet.ConfirmedAt = &now
	sheet.UpdatedAt = now

	if err := s.db.Save(&sheet).Error; err != nil {
		return nil, err
	}

	s.invalidatePackoutCaches(ctx)

	return &sheet, nil
}

// txStore backs a reconciliation run with the run's gorm transaction.
type txStore struct {
	tx *gorm.DB
}

func (s txStore) FindRecord(itemNumber, color, warehouse string) (*models.InventoryRecord, error) {
	var record models.InventoryRecord
	err := s.tx.Where("item_number = ? AND color = ? AND warehouse = ?",
		itemNumber, color, warehouse).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s txStore) SaveRecord(record *models.InventoryRecord) error {
	return s.tx.Save(record).Error
}

func (s txStore) CreateRecord(record *models.InventoryRecord) error {
	return s.tx.Create(record).Error
}

func (s txStore) CreateMovement(movement *models.InventoryMovement) error {
	return s.tx.Create(movement).Error
}

// ProcessReturns reconciles a completed job against warehouse inventory.
//
// For each line item, in stored order: used = ordered - returned (missing
// return means zero came back). Only strictly positive usage mutates
// inventory. A matching (item number, job color, warehouse) record is
// decremented with the quantity clamped at zero; when no record matches, a
// zero-quantity placeholder is created and the consumption is not applied
// to it. The sheet is then marked completed with the raw returns stored.
//
// The whole run happens in one transaction holding a row lock on the
// sheet, so a concurrent or retried run serializes behind the first and
// then fails the completed check instead of double-decrementing.
func (s *PackoutHandler) ProcessReturns(ctx context.Context, id int64, returns []ReturnEntry, actor string) (*ReconciliationSummary, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var sheet models.PackoutSheet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&sheet, id).Error
	if err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	summary, totalCost, err := runReconciliation(txStore{tx: tx}, &sheet, returns)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	sheet.Status = models.StatusCompleted
	sheet.CompletedBy = &actor
	sheet.CompletedAt = &now
	sheet.UpdatedAt = now

	if err := tx.Model(&models.PackoutSheet{}).Where("id = ?", sheet.ID).Updates(map[string]interface{}{
		"status":       sheet.Status,
		"completed_by": sheet.CompletedBy,
		"completed_at": sheet.CompletedAt,
		"updated_at":   sheet.UpdatedAt,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	for _, entry := range returns {
		row := models.PackoutReturn{
			SheetID:          sheet.ID,
			ItemName:         entry.ItemName,
			ReturnedQuantity: entry.Quantity,
			CreatedAt:        now,
		}
		if err := tx.Create(&row).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.invalidatePackoutCaches(ctx)
	_ = s.redis.Del(ctx, inventory.INVENTORY_CACHE_PREFIX+sheet.Warehouse, inventory.WAREHOUSE_CACHE_KEY)

	summary.EstimatedCost = totalCost.StringFixed(2)
	return summary, nil
}
