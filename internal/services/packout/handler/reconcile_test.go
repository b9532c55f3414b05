package handler

import (
	"errors"
	"testing"

	"gorm.io/gorm"

	"packtrack-system/internal/database/models"
)

func items(rows ...models.PackoutLineItem) []models.PackoutLineItem {
	return rows
}

func TestPlanAdjustmentsComputesUsedQuantity(t *testing.T) {
	adjustments := planAdjustments(
		items(models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 50}),
		[]ReturnEntry{{ItemName: "A Elbows", Quantity: 10}},
		"E",
	)

	if len(adjustments) != 1 {
		t.Fatalf("got %d adjustments, want 1", len(adjustments))
	}
	adj := adjustments[0]
	if adj.UsedQuantity != 40 {
		t.Errorf("UsedQuantity = %d, want 40", adj.UsedQuantity)
	}
	if adj.ItemNumber != "100E" {
		t.Errorf("ItemNumber = %q, want %q", adj.ItemNumber, "100E")
	}
	if adj.skip() {
		t.Error("adjustment with positive usage should not be skipped")
	}
}

func TestPlanAdjustmentsMissingReturnMeansFullConsumption(t *testing.T) {
	adjustments := planAdjustments(
		items(
			models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 50},
			models.PackoutLineItem{ItemName: "B Elbows", PartNumber: "200", OrderedQuantity: 25},
		),
		[]ReturnEntry{{ItemName: "A Elbows", Quantity: 10}},
		"C",
	)

	if adjustments[1].ReturnedQuantity != 0 {
		t.Errorf("ReturnedQuantity = %d, want 0", adjustments[1].ReturnedQuantity)
	}
	if adjustments[1].UsedQuantity != 25 {
		t.Errorf("UsedQuantity = %d, want 25", adjustments[1].UsedQuantity)
	}
}

func TestPlanAdjustmentsOverReturnIsSkipped(t *testing.T) {
	adjustments := planAdjustments(
		items(models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 50}),
		[]ReturnEntry{{ItemName: "A Elbows", Quantity: 60}},
		"E",
	)

	adj := adjustments[0]
	if adj.UsedQuantity != -10 {
		t.Errorf("UsedQuantity = %d, want -10", adj.UsedQuantity)
	}
	if !adj.skip() {
		t.Error("over-returned line must be skipped, not applied as a negative adjustment")
	}
}

func TestPlanAdjustmentsFullReturnIsSkipped(t *testing.T) {
	adjustments := planAdjustments(
		items(models.PackoutLineItem{ItemName: "Coil", PartNumber: "340", OrderedQuantity: 12}),
		[]ReturnEntry{{ItemName: "Coil", Quantity: 12}},
		"K",
	)

	if !adjustments[0].skip() {
		t.Error("fully returned line must be skipped")
	}
}

func TestPlanAdjustmentsPreservesItemOrder(t *testing.T) {
	adjustments := planAdjustments(
		items(
			models.PackoutLineItem{ItemName: "Third", PartNumber: "3", OrderedQuantity: 3, Position: 2},
			models.PackoutLineItem{ItemName: "First", PartNumber: "1", OrderedQuantity: 1, Position: 0},
		),
		nil,
		"E",
	)

	// The planner walks the slice as given; ordering by position is the
	// caller's job when loading the sheet.
	if adjustments[0].ItemName != "Third" || adjustments[1].ItemName != "First" {
		t.Errorf("order changed: got %q, %q", adjustments[0].ItemName, adjustments[1].ItemName)
	}
}

func TestPlanAdjustmentsTrimsItemNumber(t *testing.T) {
	adjustments := planAdjustments(
		items(models.PackoutLineItem{ItemName: "Trim Coil", PartNumber: " 128", OrderedQuantity: 1}),
		nil,
		"E",
	)

	if adjustments[0].ItemNumber != "128E" {
		t.Errorf("ItemNumber = %q, want %q", adjustments[0].ItemNumber, "128E")
	}
}

func TestApplyDelta(t *testing.T) {
	tests := []struct {
		current, used, want int32
	}{
		{60, 40, 20},
		{10, 10, 0},
		{5, 40, 0},
		{0, 1, 0},
		{100, 0, 100},
	}

	for _, tt := range tests {
		if got := applyDelta(tt.current, tt.used); got != tt.want {
			t.Errorf("applyDelta(%d, %d) = %d, want %d", tt.current, tt.used, got, tt.want)
		}
	}
}

func TestLineCost(t *testing.T) {
	cost := "2.50"
	empty := ""

	tests := []struct {
		name     string
		unitCost *string
		usedQty  int32
		want     string
	}{
		{"priced record", &cost, 40, "100"},
		{"no cost on record", nil, 40, "0"},
		{"empty cost string", &empty, 40, "0"},
		{"zero usage", &cost, 0, "0"},
	}

	for _, tt := range tests {
		got := lineCost(tt.unitCost, tt.usedQty)
		if got.String() != tt.want {
			t.Errorf("%s: lineCost = %s, want %s", tt.name, got.String(), tt.want)
		}
	}
}

func TestPackoutActorStamp(t *testing.T) {
	if got := packoutActor("J-1042"); got != "Packout J-1042" {
		t.Errorf("packoutActor = %q, want %q", got, "Packout J-1042")
	}
}

// memStore is an in-memory reconcileStore keyed the way the production
// lookup matches records: item number, color, warehouse.
type memStore struct {
	records   map[string]*models.InventoryRecord
	created   []*models.InventoryRecord
	saves     int
	movements []models.InventoryMovement
}

func newMemStore(records ...models.InventoryRecord) *memStore {
	s := &memStore{records: make(map[string]*models.InventoryRecord)}
	for i := range records {
		r := records[i]
		s.records[memKey(r.ItemNumber, r.Color, r.Warehouse)] = &r
	}
	return s
}

func memKey(itemNumber, color, warehouse string) string {
	return itemNumber + "|" + color + "|" + warehouse
}

func (s *memStore) FindRecord(itemNumber, color, warehouse string) (*models.InventoryRecord, error) {
	record, ok := s.records[memKey(itemNumber, color, warehouse)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *memStore) SaveRecord(record *models.InventoryRecord) error {
	s.saves++
	return nil
}

func (s *memStore) CreateRecord(record *models.InventoryRecord) error {
	s.created = append(s.created, record)
	s.records[memKey(record.ItemNumber, record.Color, record.Warehouse)] = record
	return nil
}

func (s *memStore) CreateMovement(movement *models.InventoryMovement) error {
	s.movements = append(s.movements, *movement)
	return nil
}

func (s *memStore) mutated() bool {
	return s.saves+len(s.created)+len(s.movements) > 0
}

func pendingSheet(rows ...models.PackoutLineItem) *models.PackoutSheet {
	return &models.PackoutSheet{
		ID:        7,
		JobNumber: "J-1042",
		JobColor:  "White",
		Warehouse: "Main Warehouse",
		Status:    models.StatusPendingInstaller,
		Items:     rows,
	}
}

func TestRunReconciliationDecrementsMatchedRecord(t *testing.T) {
	cost := "2.50"
	store := newMemStore(models.InventoryRecord{
		ID:         3,
		ItemNumber: "100E",
		Color:      "White",
		Warehouse:  "Main Warehouse",
		Quantity:   60,
		UnitCost:   &cost,
	})
	sheet := pendingSheet(models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 50})

	summary, totalCost, err := runReconciliation(store, sheet, []ReturnEntry{{ItemName: "A Elbows", Quantity: 10}})
	if err != nil {
		t.Fatalf("runReconciliation returned error: %v", err)
	}

	record := store.records[memKey("100E", "White", "Main Warehouse")]
	if record.Quantity != 20 {
		t.Errorf("record quantity = %d, want 20", record.Quantity)
	}
	if record.LastUpdatedBy != "Packout J-1042" {
		t.Errorf("LastUpdatedBy = %q, want %q", record.LastUpdatedBy, "Packout J-1042")
	}
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1", store.saves)
	}
	if len(store.movements) != 1 {
		t.Fatalf("got %d movements, want 1", len(store.movements))
	}
	movement := store.movements[0]
	if movement.Quantity != -40 {
		t.Errorf("movement quantity = %d, want -40", movement.Quantity)
	}
	if movement.Kind != models.MovementPackoutUse || movement.ActorKind != models.ActorPackout {
		t.Errorf("movement kind = %q actor = %q, want packout use by packout", movement.Kind, movement.ActorKind)
	}
	if movement.PackoutID == nil || *movement.PackoutID != sheet.ID {
		t.Error("movement should reference the sheet")
	}
	if summary.TotalUsed != 40 {
		t.Errorf("TotalUsed = %d, want 40", summary.TotalUsed)
	}
	if got := summary.Lines[0]; got.Action != ActionUpdated || got.NewQuantity != 20 {
		t.Errorf("line = %+v, want updated with new quantity 20", got)
	}
	if totalCost.String() != "100" {
		t.Errorf("totalCost = %s, want 100", totalCost.String())
	}
}

func TestRunReconciliationCreatesZeroQuantityPlaceholder(t *testing.T) {
	store := newMemStore()
	sheet := pendingSheet(models.PackoutLineItem{ItemName: "B Elbows", PartNumber: "200", OrderedQuantity: 25})

	summary, _, err := runReconciliation(store, sheet, nil)
	if err != nil {
		t.Fatalf("runReconciliation returned error: %v", err)
	}

	if len(store.created) != 1 {
		t.Fatalf("got %d created records, want 1", len(store.created))
	}
	placeholder := store.created[0]
	if placeholder.Quantity != 0 {
		t.Errorf("placeholder quantity = %d, want 0: consumption must not apply retroactively", placeholder.Quantity)
	}
	if placeholder.ItemNumber != "200E" || placeholder.Warehouse != "Main Warehouse" {
		t.Errorf("placeholder = %+v, want item 200E in Main Warehouse", placeholder)
	}
	if len(store.movements) != 0 {
		t.Errorf("got %d movements, want 0 for a placeholder", len(store.movements))
	}
	if got := summary.Lines[0]; got.Action != ActionCreated || got.NewQuantity != 0 {
		t.Errorf("line = %+v, want created with new quantity 0", got)
	}
	if summary.TotalUsed != 25 {
		t.Errorf("TotalUsed = %d, want 25", summary.TotalUsed)
	}
}

func TestRunReconciliationUnknownColorMutatesNothing(t *testing.T) {
	store := newMemStore(models.InventoryRecord{
		ItemNumber: "100E", Color: "White", Warehouse: "Main Warehouse", Quantity: 60,
	})
	sheet := pendingSheet(models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 50})
	sheet.JobColor = "Turquoise"

	summary, _, err := runReconciliation(store, sheet, nil)
	if !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("err = %v, want ErrInvalidColor", err)
	}
	if summary != nil {
		t.Error("summary should be nil on abort")
	}
	if store.mutated() {
		t.Error("an unmapped color must abort before any store mutation")
	}
}

func TestRunReconciliationRejectsCompletedSheet(t *testing.T) {
	store := newMemStore(models.InventoryRecord{
		ItemNumber: "100E", Color: "White", Warehouse: "Main Warehouse", Quantity: 60,
	})
	sheet := pendingSheet(models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 50})
	sheet.Status = models.StatusCompleted

	_, _, err := runReconciliation(store, sheet, nil)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrAlreadyCompleted", err)
	}
	if store.mutated() {
		t.Error("a completed sheet must not be reconciled again")
	}
}

func TestRunReconciliationClampsAtZero(t *testing.T) {
	store := newMemStore(models.InventoryRecord{
		ItemNumber: "100E", Color: "White", Warehouse: "Main Warehouse", Quantity: 5,
	})
	sheet := pendingSheet(models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 40})

	summary, _, err := runReconciliation(store, sheet, nil)
	if err != nil {
		t.Fatalf("runReconciliation returned error: %v", err)
	}

	record := store.records[memKey("100E", "White", "Main Warehouse")]
	if record.Quantity != 0 {
		t.Errorf("record quantity = %d, want 0", record.Quantity)
	}
	if store.movements[0].Quantity != -5 {
		t.Errorf("movement quantity = %d, want -5 for the realized delta", store.movements[0].Quantity)
	}
	if summary.Lines[0].NewQuantity != 0 {
		t.Errorf("NewQuantity = %d, want 0", summary.Lines[0].NewQuantity)
	}
}

func TestRunReconciliationSkipsOverReturnedLines(t *testing.T) {
	store := newMemStore(models.InventoryRecord{
		ItemNumber: "100E", Color: "White", Warehouse: "Main Warehouse", Quantity: 60,
	})
	sheet := pendingSheet(models.PackoutLineItem{ItemName: "A Elbows", PartNumber: "100", OrderedQuantity: 50})

	summary, _, err := runReconciliation(store, sheet, []ReturnEntry{{ItemName: "A Elbows", Quantity: 60}})
	if err != nil {
		t.Fatalf("runReconciliation returned error: %v", err)
	}

	if store.mutated() {
		t.Error("an over-returned line must not touch the store")
	}
	if summary.Lines[0].Action != ActionSkipped {
		t.Errorf("action = %q, want %q", summary.Lines[0].Action, ActionSkipped)
	}
	if len(summary.SkippedItems) != 1 || summary.SkippedItems[0] != "A Elbows" {
		t.Errorf("SkippedItems = %v, want [A Elbows]", summary.SkippedItems)
	}
	if summary.TotalUsed != 0 {
		t.Errorf("TotalUsed = %d, want 0", summary.TotalUsed)
	}
}
