package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healthhive/internal/auth"
	"healthhive/internal/database"
	"healthhive/internal/query"
)

// ProgressHandler serves the caller's private progress logs. Every operation
// is scoped to the authenticated user; admins have no special access here.
type ProgressHandler struct {
	db *gorm.DB
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(db *gorm.DB) *ProgressHandler {
	return &ProgressHandler{db: db}
}

type createProgressLogRequest struct {
	Date       time.Time `json:"date" binding:"required"`
	WeightKg   float64   `json:"weight_kg"`
	BodyFatPct float64   `json:"body_fat_pct"`
	Notes      string    `json:"notes"`
}

type updateProgressLogRequest struct {
	Date       *time.Time `json:"date"`
	WeightKg   *float64   `json:"weight_kg"`
	BodyFatPct *float64   `json:"body_fat_pct"`
	Notes      *string    `json:"notes"`
}

type progressLogResponse struct {
	ID         uint      `json:"id"`
	Date       time.Time `json:"date"`
	WeightKg   float64   `json:"weight_kg"`
	BodyFatPct float64   `json:"body_fat_pct"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newProgressLogResponse(l database.ProgressLog) progressLogResponse {
	return progressLogResponse{
		ID:         l.ID,
		Date:       l.Date,
		WeightKg:   l.WeightKg,
		BodyFatPct: l.BodyFatPct,
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

// ListProgressLogs lists the caller's logs, newest first.
func (h *ProgressHandler) ListProgressLogs(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	chain := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID)
	items, total, window, ok := runList[database.ProgressLog](c, chain, query.Filter{}, query.Visibility{})
	if !ok {
		return
	}

	out := make([]progressLogResponse, 0, len(items))
	for _, l := range items {
		out = append(out, newProgressLogResponse(l))
	}

	OK(c, http.StatusOK, gin.H{
		"count":      len(out),
		"total":      total,
		"pagination": window,
		"logs":       out,
	})
}

// CreateProgressLog records a new measurement for the caller.
func (h *ProgressHandler) CreateProgressLog(c *gin.Context) {
	var req createProgressLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	l := database.ProgressLog{
		UserID:     userID,
		Date:       req.Date,
		WeightKg:   req.WeightKg,
		BodyFatPct: req.BodyFatPct,
		Notes:      req.Notes,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&l).Error; err != nil {
		Internal(c, "failed to create progress log")
		return
	}

	OK(c, http.StatusCreated, gin.H{"log": newProgressLogResponse(l)})
}

// UpdateProgressLog applies a partial update to one of the caller's logs.
func (h *ProgressHandler) UpdateProgressLog(c *gin.Context) {
	var req updateProgressLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	l, ok := h.loadOwn(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.WeightKg != nil {
		updates["weight_kg"] = *req.WeightKg
	}
	if req.BodyFatPct != nil {
		updates["body_fat_pct"] = *req.BodyFatPct
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(l).Updates(updates).Error; err != nil {
			Internal(c, "failed to update progress log")
			return
		}
		if err := h.db.WithContext(ctx).First(l, l.ID).Error; err != nil {
			Internal(c, "failed to reload progress log")
			return
		}
	}

	OK(c, http.StatusOK, gin.H{"log": newProgressLogResponse(*l)})
}

// DeleteProgressLog removes one of the caller's logs.
func (h *ProgressHandler) DeleteProgressLog(c *gin.Context) {
	l, ok := h.loadOwn(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&database.ProgressLog{}, l.ID).Error; err != nil {
		Internal(c, "failed to delete progress log")
		return
	}

	Message(c, http.StatusOK, "progress log deleted")
}

// loadOwn fetches the addressed log and hides other users' logs behind the
// same not-found as missing ids.
func (h *ProgressHandler) loadOwn(c *gin.Context) (*database.ProgressLog, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	l, err := findByID[database.ProgressLog](c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		if err == errNotFound {
			NotFound(c, "progress log not found")
		} else {
			Internal(c, err.Error())
		}
		return nil, false
	}

	if l.UserID != userID && !auth.IsAdmin(callerRole(c)) {
		NotFound(c, "progress log not found")
		return nil, false
	}
	return l, true
}
