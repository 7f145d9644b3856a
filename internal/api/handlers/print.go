package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
)

type PrintImageRequest struct {
	Image string `json:"image" binding:"required"` // base64 PNG, data URI accepted
}

type PrintTextRequest struct {
	Text     string `json:"text" binding:"required"`
	Priority int    `json:"priority"`
}

type PrintBarcodeRequest struct {
	Text   string `json:"text" binding:"required"`
	Height int    `json:"height"`
}

type FanOutResponse struct {
	Success bool     `json:"success"`
	JobIDs  []string `json:"job_ids,omitempty"`
}

// PrintHandler serves the fan-out print entry points: one request, one
// rendering per registered printer.
type PrintHandler struct {
	pool *pool.Pool
}

func NewPrintHandler(p *pool.Pool) *PrintHandler {
	return &PrintHandler{pool: p}
}

// PrintImage decodes the image once and sends a width-fitted raster to
// every enabled printer, synchronously. Per-printer results come back in
// the response; one success makes the request a success.
func (h *PrintHandler) PrintImage(c *gin.Context) {
	var req PrintImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	result, err := h.pool.PrintImageToAll(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_image",
			Message: err.Error(),
		})
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	c.JSON(status, result)
}

func (h *PrintHandler) PrintText(c *gin.Context) {
	var req PrintTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	jobIDs, err := h.pool.PrintTextToAll(func(width int) string { return req.Text })
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "no_printers",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, FanOutResponse{Success: true, JobIDs: jobIDs})
}

func (h *PrintHandler) PrintBarcode(c *gin.Context) {
	var req PrintBarcodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	jobIDs, err := h.pool.PrintBarcodeToAll(req.Text, req.Height)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "barcode_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, FanOutResponse{Success: true, JobIDs: jobIDs})
}

// OpenDrawer fires the cash-drawer kick on the first available printer.
func (h *PrintHandler) OpenDrawer(c *gin.Context) {
	if err := h.pool.OpenCashDrawer(); err != nil {
		status := http.StatusServiceUnavailable
		if !errors.Is(err, pool.ErrNoIdlePrinter) {
			status = http.StatusBadGateway
		}
		c.JSON(status, ErrorResponse{Error: "drawer_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
