package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"packtrack-system/internal/colorcode"
	"packtrack-system/internal/database/models"
	"packtrack-system/internal/gateway/middleware"
	inventory "packtrack-system/internal/services/inventory/handler"
)

type InventoryHTTPHandler struct {
	service *inventory.InventoryHandler
}

func NewInventoryHTTPHandler(service *inventory.InventoryHandler) *InventoryHTTPHandler {
	return &InventoryHTTPHandler{
		service: service,
	}
}

// Helper functions shared by the gateway handlers in this package.
func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func parseInt64Param(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

func parseStringQuery(c *gin.Context, param string) *string {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	return &str
}

func parseInt64Query(c *gin.Context, param string) *int64 {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil
	}
	return &val
}

// actorFrom returns the crew member label stamped on mutations, taken from
// the JWT claims the auth middleware stored on the context.
func actorFrom(c *gin.Context) string {
	if username, ok := c.Get(middleware.ContextUsername); ok {
		if s, ok := username.(string); ok && s != "" {
			return s
		}
	}
	return "unknown"
}

// itemView is an inventory record plus the boxes/pieces split the UI shows
// next to the raw quantity.
type itemView struct {
	models.InventoryRecord
	Boxes  int32 `json:"boxes"`
	Pieces int32 `json:"pieces"`
}

func viewOf(record models.InventoryRecord) itemView {
	boxes, pieces := inventory.BoxesAndPieces(record.Quantity, record.BoxQuantity)
	return itemView{InventoryRecord: record, Boxes: boxes, Pieces: pieces}
}

func viewsOf(records []models.InventoryRecord) []itemView {
	views := make([]itemView, len(records))
	for i, record := range records {
		views[i] = viewOf(record)
	}
	return views
}

func (s *InventoryHTTPHandler) ListWarehouseItems(c *gin.Context) {
	warehouse := c.Query("warehouse")
	if warehouse == "" {
		fail(c, http.StatusBadRequest, "warehouse query parameter is required")
		return
	}

	records, err := s.service.GetWarehouseItems(c.Request.Context(), warehouse)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list inventory: "+err.Error())
		return
	}

	success(c, viewsOf(records))
}

func (s *InventoryHTTPHandler) ScanItem(c *gin.Context) {
	qrCode := c.Param("qrCode")
	warehouse := c.Query("warehouse")
	if warehouse == "" {
		fail(c, http.StatusBadRequest, "warehouse query parameter is required")
		return
	}

	record, err := s.service.GetItemByQR(c.Request.Context(), qrCode, warehouse)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			// Unknown code: the UI opens the create form.
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"found":   false,
			})
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to look up item: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"found":   true,
		"data":    viewOf(*record),
	})
}

func (s *InventoryHTTPHandler) CreateItem(c *gin.Context) {
	var req inventory.CreateItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	record, err := s.service.CreateItem(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrMissingFields),
			errors.Is(err, inventory.ErrInvalidQuantity),
			errors.Is(err, colorcode.ErrUnknownColor):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to create item: "+err.Error())
		}
		return
	}

	success(c, viewOf(*record))
}

type checkInOutRequest struct {
	Direction string `json:"direction"`
	Quantity  int32  `json:"quantity"`
}

func (s *InventoryHTTPHandler) CheckInOut(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid record ID")
		return
	}

	var req checkInOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	record, err := s.service.CheckInOut(c.Request.Context(), id, req.Direction, req.Quantity, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, inventory.ErrNotFound):
			fail(c, http.StatusNotFound, err.Error())
		case errors.Is(err, inventory.ErrInvalidQuantity), errors.Is(err, inventory.ErrInvalidDirection):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to update inventory: "+err.Error())
		}
		return
	}

	success(c, viewOf(*record))
}

func (s *InventoryHTTPHandler) GetItem(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid record ID")
		return
	}

	record, err := s.service.GetItem(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, inventory.ErrNotFound) {
			fail(c, http.StatusNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to get item: "+err.Error())
		return
	}

	success(c, viewOf(*record))
}

func (s *InventoryHTTPHandler) FilterItems(c *gin.Context) {
	filter := inventory.ItemFilter{
		ItemNumber:  parseStringQuery(c, "item_number"),
		Color:       parseStringQuery(c, "color"),
		Warehouse:   parseStringQuery(c, "warehouse"),
		Description: parseStringQuery(c, "description"),
	}

	records, err := s.service.FindByFilter(c.Request.Context(), filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to filter inventory: "+err.Error())
		return
	}

	success(c, viewsOf(records))
}

func (s *InventoryHTTPHandler) ListWarehouses(c *gin.Context) {
	warehouses, err := s.service.ListWarehouses(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list warehouses: "+err.Error())
		return
	}

	success(c, warehouses)
}

func (s *InventoryHTTPHandler) ListLowStock(c *gin.Context) {
	var threshold int32
	if t := c.Query("threshold"); t != "" {
		val, err := strconv.ParseInt(t, 10, 32)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid threshold")
			return
		}
		threshold = int32(val)
	}

	records, err := s.service.ListLowStock(c.Request.Context(), parseStringQuery(c, "warehouse"), threshold)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list low stock: "+err.Error())
		return
	}

	success(c, viewsOf(records))
}

func (s *InventoryHTTPHandler) ListMovements(c *gin.Context) {
	filter := inventory.MovementFilter{
		RecordID:  parseInt64Query(c, "record_id"),
		Warehouse: parseStringQuery(c, "warehouse"),
		PackoutID: parseInt64Query(c, "packout_id"),
	}

	movements, err := s.service.ListMovements(c.Request.Context(), filter)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list movements: "+err.Error())
		return
	}

	success(c, movements)
}
