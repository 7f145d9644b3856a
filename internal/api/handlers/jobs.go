package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yiqunxu123/retail-pos-sub000/internal/db"
	"github.com/yiqunxu123/retail-pos-sub000/internal/pool"
	"github.com/yiqunxu123/retail-pos-sub000/internal/transport"
)

type SubmitJobRequest struct {
	Text     string `json:"text"`
	Raw      string `json:"raw"` // base64-encoded device bytes
	Priority int    `json:"priority"`
}

type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

type JobHandler struct {
	pool  *pool.Pool
	store *db.Store
}

func NewJobHandler(p *pool.Pool, store *db.Store) *JobHandler {
	return &JobHandler{pool: p, store: store}
}

// SubmitJob queues a print job. Exactly one of text or raw must be set;
// raw bytes are sent to the device verbatim.
func (h *JobHandler) SubmitJob(c *gin.Context) {
	var req SubmitJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var payload transport.Payload
	switch {
	case req.Text != "" && req.Raw != "":
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Provide either text or raw, not both",
		})
		return
	case req.Text != "":
		payload = transport.Text(req.Text)
	case req.Raw != "":
		raw, err := base64.StdEncoding.DecodeString(req.Raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "raw is not valid base64",
			})
			return
		}
		payload = transport.Bytes(raw)
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Provide text or raw",
		})
		return
	}

	jobID, err := h.pool.AddJob(payload, req.Priority)
	if err != nil {
		status := http.StatusServiceUnavailable
		code := "no_printers"
		if errors.Is(err, pool.ErrQueueFull) {
			code = "queue_full"
		}
		c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, SubmitJobResponse{JobID: jobID})
}

func (h *JobHandler) ClearQueue(c *gin.Context) {
	removed := h.pool.ClearQueue()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (h *JobHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.pool.GetStatus())
}

// ListJobs returns terminal job history, newest first.
func (h *JobHandler) ListJobs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	records, err := h.store.ListJobRecords(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to retrieve job history",
		})
		return
	}
	if records == nil {
		records = []db.JobRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func (h *JobHandler) JobStats(c *gin.Context) {
	counts, err := h.store.CountJobsByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "database_error",
			Message: "Failed to count jobs",
		})
		return
	}
	c.JSON(http.StatusOK, counts)
}
