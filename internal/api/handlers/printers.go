package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yiqunxu123/retail-pos-sub000/internal/db"
	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type CreatePrinterRequest struct {
	ID         string `json:"id" binding:"required"`
	Name       string `json:"name"`
	Type       string `json:"type" binding:"required"`
	IP         string `json:"ip"`
	Port       int    `json:"port"`
	VendorID   string `json:"vendor_id"`
	ProductID  string `json:"product_id"`
	MACAddress string `json:"mac_address"`
	PrintWidth int    `json:"print_width"`
	Enabled    *bool  `json:"enabled"`
}

type UpdatePrinterRequest struct {
	Name       *string `json:"name"`
	IP         *string `json:"ip"`
	Port       *int    `json:"port"`
	VendorID   *string `json:"vendor_id"`
	ProductID  *string `json:"product_id"`
	MACAddress *string `json:"mac_address"`
	PrintWidth *int    `json:"print_width"`
}

type SetEnabledRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// PrinterHandler serves the printer registry. The pool holds the live
// state; the store mirrors configuration so it survives restarts.
type PrinterHandler struct {
	pool  *pool.Pool
	store *db.Store
}

func NewPrinterHandler(p *pool.Pool, store *db.Store) *PrinterHandler {
	return &PrinterHandler{pool: p, store: store}
}

func (h *PrinterHandler) ListPrinters(c *gin.Context) {
	c.JSON(http.StatusOK, h.pool.GetPrinters())
}

func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	snap, ok := h.pool.GetPrinter(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Printer not found",
		})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *PrinterHandler) CreatePrinter(c *gin.Context) {
	var req CreatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	cfg := pool.PrinterConfig{
		ID:         req.ID,
		Name:       req.Name,
		Type:       transport.PrinterType(req.Type),
		IP:         req.IP,
		Port:       req.Port,
		VendorID:   req.VendorID,
		ProductID:  req.ProductID,
		MACAddress: req.MACAddress,
		PrintWidth: req.PrintWidth,
		Enabled:    req.Enabled,
	}

	if !h.pool.AddPrinter(cfg) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "rejected",
			Message: "Printer ID already registered or type is invalid",
		})
		return
	}

	h.persist(c, req.ID)

	snap, _ := h.pool.GetPrinter(req.ID)
	c.JSON(http.StatusCreated, snap)
}

func (h *PrinterHandler) UpdatePrinter(c *gin.Context) {
	id := c.Param("id")

	var req UpdatePrinterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	patch := pool.PrinterPatch{
		Name:       req.Name,
		IP:         req.IP,
		Port:       req.Port,
		VendorID:   req.VendorID,
		ProductID:  req.ProductID,
		MACAddress: req.MACAddress,
		PrintWidth: req.PrintWidth,
	}

	if !h.pool.UpdatePrinter(id, patch) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Printer not found",
		})
		return
	}

	h.persist(c, id)

	snap, _ := h.pool.GetPrinter(id)
	c.JSON(http.StatusOK, snap)
}

func (h *PrinterHandler) DeletePrinter(c *gin.Context) {
	id := c.Param("id")

	if !h.pool.RemovePrinter(id) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Printer not found",
		})
		return
	}

	if err := h.store.DeletePrinter(c.Request.Context(), id); err != nil {
		log.Warnf("Failed to delete persisted printer %s: %v", id, err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PrinterHandler) SetEnabled(c *gin.Context) {
	id := c.Param("id")

	var req SetEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if !h.pool.SetPrinterEnabled(id, *req.Enabled) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Printer not found",
		})
		return
	}

	if err := h.store.SetPrinterEnabled(c.Request.Context(), id, *req.Enabled); err != nil {
		log.Warnf("Failed to persist enabled flag for printer %s: %v", id, err)
	}

	snap, _ := h.pool.GetPrinter(id)
	c.JSON(http.StatusOK, snap)
}

// persist mirrors the pool's view of a printer into the store. The pool
// is the source of truth; a persistence failure is logged, not surfaced.
func (h *PrinterHandler) persist(c *gin.Context, id string) {
	snap, ok := h.pool.GetPrinter(id)
	if !ok {
		return
	}
	rec := &db.Printer{
		ID:         snap.ID,
		Name:       snap.Name,
		Type:       string(snap.Type),
		IP:         snap.IP,
		Port:       snap.Port,
		VendorID:   snap.VendorID,
		ProductID:  snap.ProductID,
		MACAddress: snap.MACAddress,
		PrintWidth: snap.PrintWidth,
		Enabled:    snap.Enabled,
	}
	if err := h.store.SavePrinter(c.Request.Context(), rec); err != nil {
		log.Warnf("Failed to persist printer %s: %v", id, err)
	}
}
