package handler

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"packtrack-system/internal/colorcode"
	"packtrack-system/internal/database/models"
)

// ReturnEntry is one row of the returns list a driver enters when the
// leftover material comes back from a job.
type ReturnEntry struct {
	ItemName string `json:"item_name"`
	Quantity int32  `json:"quantity"`
}

// Reconciliation line actions.
const (
	ActionUpdated = "updated"
	ActionCreated = "created"
	ActionSkipped = "skipped"
)

type ReconciliationLine struct {
	ItemName         string `json:"item_name"`
	ItemNumber       string `json:"item_number"`
	OrderedQuantity  int32  `json:"ordered_quantity"`
	ReturnedQuantity int32  `json:"returned_quantity"`
	UsedQuantity     int32  `json:"used_quantity"`
	Action           string `json:"action"`
	NewQuantity      int32  `json:"new_quantity"`
}

type ReconciliationSummary struct {
	SheetID       int64                `json:"sheet_id"`
	JobNumber     string               `json:"job_number"`
	Lines         []ReconciliationLine `json:"lines"`
	TotalUsed     int32                `json:"total_used"`
	SkippedItems  []string             `json:"skipped_items,omitempty"`
	EstimatedCost string               `json:"estimated_cost"`
}

// lineAdjustment is the planned outcome for one line item before any store
// access: used quantity and the derived inventory item number.
type lineAdjustment struct {
	ItemName         string
	ItemNumber       string
	OrderedQuantity  int32
	ReturnedQuantity int32
	UsedQuantity     int32
}

// skip reports whether the line needs no inventory mutation. A return
// larger than the order yields a negative used quantity, which is treated
// as no consumption rather than a negative adjustment.
func (a lineAdjustment) skip() bool {
	return a.UsedQuantity <= 0
}

// planAdjustments computes the consumption for every line item of a sheet,
// in the sheet's stored item order. Returns are matched by exact item name;
// a missing return entry means nothing came back.
func planAdjustments(items []models.PackoutLineItem, returns []ReturnEntry, colorLetter string) []lineAdjustment {
	returned := make(map[string]int32, len(returns))
	for _, entry := range returns {
		returned[entry.ItemName] = entry.Quantity
	}

	adjustments := make([]lineAdjustment, 0, len(items))
	for _, item := range items {
		returnedQty := returned[item.ItemName]
		adjustments = append(adjustments, lineAdjustment{
			ItemName:         item.ItemName,
			ItemNumber:       colorcode.ItemNumber(item.PartNumber, colorLetter),
			OrderedQuantity:  item.OrderedQuantity,
			ReturnedQuantity: returnedQty,
			UsedQuantity:     item.OrderedQuantity - returnedQty,
		})
	}
	return adjustments
}

// applyDelta decrements a quantity by the used amount, clamped at zero.
func applyDelta(current, used int32) int32 {
	next := current - used
	if next < 0 {
		return 0
	}
	return next
}

// lineCost prices the consumed quantity against the record's unit cost.
// Records without a cost contribute zero.
func lineCost(unitCost *string, usedQty int32) decimal.Decimal {
	if unitCost == nil || *unitCost == "" {
		return decimal.Zero
	}
	cost, _ := decimal.NewFromString(*unitCost)
	return cost.Mul(decimal.NewFromInt(int64(usedQty)))
}

// reconcileStore is the slice of inventory access a reconciliation run
// needs. The production implementation wraps the run's gorm transaction;
// absence is signaled with gorm.ErrRecordNotFound.
type reconcileStore interface {
	FindRecord(itemNumber, color, warehouse string) (*models.InventoryRecord, error)
	SaveRecord(record *models.InventoryRecord) error
	CreateRecord(record *models.InventoryRecord) error
	CreateMovement(movement *models.InventoryMovement) error
}

// runReconciliation walks a sheet's line items in stored order and applies
// the consumption to the store. The sheet must still be allowed to reach
// completed, and the job color is resolved before any store access so an
// unmapped color aborts with zero mutations.
//
// A matched record is decremented with the quantity clamped at zero and a
// movement row written for the realized delta. An unmatched item gets a
// zero-quantity placeholder record and no decrement.
func runReconciliation(store reconcileStore, sheet *models.PackoutSheet, returns []ReturnEntry) (*ReconciliationSummary, decimal.Decimal, error) {
	if !sheet.Status.CanTransitionTo(models.StatusCompleted) {
		return nil, decimal.Zero, ErrAlreadyCompleted
	}

	colorLetter, err := colorcode.Letter(sheet.JobColor)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidColor, sheet.JobColor)
	}

	adjustments := planAdjustments(sheet.Items, returns, colorLetter)
	stamp := packoutActor(sheet.JobNumber)

	summary := &ReconciliationSummary{
		SheetID:   sheet.ID,
		JobNumber: sheet.JobNumber,
	}
	totalCost := decimal.Zero

	for _, adj := range adjustments {
		line := ReconciliationLine{
			ItemName:         adj.ItemName,
			ItemNumber:       adj.ItemNumber,
			OrderedQuantity:  adj.OrderedQuantity,
			ReturnedQuantity: adj.ReturnedQuantity,
			UsedQuantity:     adj.UsedQuantity,
		}

		if adj.skip() {
			line.Action = ActionSkipped
			summary.Lines = append(summary.Lines, line)
			summary.SkippedItems = append(summary.SkippedItems, adj.ItemName)
			continue
		}

		record, err := store.FindRecord(adj.ItemNumber, sheet.JobColor, sheet.Warehouse)
		if err == gorm.ErrRecordNotFound {
			// Consumption against an item the store did not know about:
			// record its existence at zero, without applying the decrement.
			record = &models.InventoryRecord{
				ItemNumber:    adj.ItemNumber,
				Description:   adj.ItemName,
				Color:         sheet.JobColor,
				Warehouse:     sheet.Warehouse,
				Quantity:      0,
				LastUpdatedBy: stamp,
			}
			if err := store.CreateRecord(record); err != nil {
				return nil, decimal.Zero, err
			}
			line.Action = ActionCreated
			line.NewQuantity = 0
			summary.Lines = append(summary.Lines, line)
			summary.TotalUsed += adj.UsedQuantity
			continue
		} else if err != nil {
			return nil, decimal.Zero, err
		}

		previous := record.Quantity
		record.Quantity = applyDelta(record.Quantity, adj.UsedQuantity)
		record.LastUpdatedBy = stamp
		record.UpdatedAt = time.Now()

		if err := store.SaveRecord(record); err != nil {
			return nil, decimal.Zero, err
		}

		if delta := record.Quantity - previous; delta != 0 {
			movement := models.InventoryMovement{
				RecordID:   record.ID,
				Warehouse:  record.Warehouse,
				Kind:       models.MovementPackoutUse,
				Quantity:   delta,
				ActorKind:  models.ActorPackout,
				ActorLabel: stamp,
				PackoutID:  &sheet.ID,
				CreatedAt:  time.Now(),
			}
			if err := store.CreateMovement(&movement); err != nil {
				return nil, decimal.Zero, err
			}
		}

		totalCost = totalCost.Add(lineCost(record.UnitCost, adj.UsedQuantity))
		line.Action = ActionUpdated
		line.NewQuantity = record.Quantity
		summary.Lines = append(summary.Lines, line)
		summary.TotalUsed += adj.UsedQuantity
	}

	return summary, totalCost, nil
}
