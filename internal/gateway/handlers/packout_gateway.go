package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	packout "packtrack-system/internal/services/packout/handler"
)

type PackoutHTTPHandler struct {
	service *packout.PackoutHandler
}

func NewPackoutHTTPHandler(service *packout.PackoutHandler) *PackoutHTTPHandler {
	return &PackoutHTTPHandler{
		service: service,
	}
}

func (s *PackoutHTTPHandler) CreateSheet(c *gin.Context) {
	var req packout.CreateSheetInput
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sheet, err := s.service.CreatePackoutSheet(c.Request.Context(), req, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, packout.ErrMissingFields),
			errors.Is(err, packout.ErrNoItems),
			errors.Is(err, packout.ErrInvalidQuantity),
			errors.Is(err, packout.ErrInvalidColor):
			fail(c, http.StatusBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to create packout sheet: "+err.Error())
		}
		return
	}

	success(c, sheet)
}

func (s *PackoutHTTPHandler) ListSheets(c *gin.Context) {
	sheets, err := s.service.GetPackoutSheets(c.Request.Context(),
		parseStringQuery(c, "status"), parseStringQuery(c, "warehouse"))
	if err != nil {
		if errors.Is(err, packout.ErrInvalidStatus) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to list packout sheets: "+err.Error())
		return
	}

	success(c, sheets)
}

func (s *PackoutHTTPHandler) GetSheet(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid packout sheet ID")
		return
	}

	sheet, err := s.service.GetPackoutSheet(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, packout.ErrNotFound) {
			fail(c, http.StatusNotFound, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to get packout sheet: "+err.Error())
		return
	}

	success(c, sheet)
}

func (s *PackoutHTTPHandler) ConfirmSheet(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid packout sheet ID")
		return
	}

	sheet, err := s.service.ConfirmPackout(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, packout.ErrNotFound):
			fail(c, http.StatusNotFound, err.Error())
		case errors.Is(err, packout.ErrAlreadyCompleted):
			fail(c, http.StatusConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to confirm packout sheet: "+err.Error())
		}
		return
	}

	success(c, sheet)
}

type processReturnsRequest struct {
	Returns []packout.ReturnEntry `json:"returns"`
}

func (s *PackoutHTTPHandler) ProcessReturns(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid packout sheet ID")
		return
	}

	var req processReturnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	summary, err := s.service.ProcessReturns(c.Request.Context(), id, req.Returns, actorFrom(c))
	if err != nil {
		switch {
		case errors.Is(err, packout.ErrNotFound):
			fail(c, http.StatusNotFound, err.Error())
		case errors.Is(err, packout.ErrInvalidColor):
			fail(c, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, packout.ErrAlreadyCompleted):
			fail(c, http.StatusConflict, err.Error())
		default:
			fail(c, http.StatusInternalServerError, "Failed to process returns: "+err.Error())
		}
		return
	}

	success(c, summary)
}
