package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"healthhive/internal/auth"
	"healthhive/internal/database"
	"healthhive/internal/query"
)

// NutritionHandler serves the nutrition-plan resource family.
type NutritionHandler struct {
	db      *gorm.DB
	storage MediaStorage
	logger  *slog.Logger
}

// NewNutritionHandler constructs the handler.
func NewNutritionHandler(db *gorm.DB, storageClient MediaStorage, logger *slog.Logger) *NutritionHandler {
	return &NutritionHandler{db: db, storage: storageClient, logger: logger}
}

var nutritionSearchColumns = []string{"title", "description"}

type createNutritionPlanRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	DietType    string         `json:"diet_type"`
	Calories    int            `json:"calories"`
	Meals       datatypes.JSON `json:"meals"`
	ImageKey    string         `json:"image_key"`
	Published   bool           `json:"published"`
}

type updateNutritionPlanRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	DietType    *string         `json:"diet_type"`
	Calories    *int            `json:"calories"`
	Meals       *datatypes.JSON `json:"meals"`
	ImageKey    *string         `json:"image_key"`
	Published   *bool           `json:"published"`
}

type nutritionPlanResponse struct {
	ID          uint            `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	DietType    string          `json:"diet_type,omitempty"`
	Calories    int             `json:"calories,omitempty"`
	Meals       datatypes.JSON  `json:"meals,omitempty"`
	ImageKey    string          `json:"image_key,omitempty"`
	Published   bool            `json:"published"`
	Author      *authorResponse `json:"author,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func newNutritionPlanResponse(p database.NutritionPlan) nutritionPlanResponse {
	resp := nutritionPlanResponse{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		DietType:    p.DietType,
		Calories:    p.Calories,
		Meals:       p.Meals,
		ImageKey:    p.ImageKey,
		Published:   p.Published,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Author.ID != 0 {
		author := newAuthorResponse(p.Author)
		resp.Author = &author
	}
	return resp
}

// ListNutritionPlans serves the public, paginated plan listing.
func (h *NutritionHandler) ListNutritionPlans(c *gin.Context) {
	f := query.Filter{
		DietType:      c.Query("dietType"),
		Search:        c.Query("search"),
		SearchColumns: nutritionSearchColumns,
	}

	chain := h.db.WithContext(c.Request.Context()).Preload("Author", authorProjection)
	items, total, window, ok := runList[database.NutritionPlan](c, chain, f, contentVisibility(c))
	if !ok {
		return
	}

	out := make([]nutritionPlanResponse, 0, len(items))
	for _, p := range items {
		out = append(out, newNutritionPlanResponse(p))
	}

	OK(c, http.StatusOK, gin.H{
		"count":          len(out),
		"total":          total,
		"pagination":     window,
		"nutritionPlans": out,
	})
}

// GetNutritionPlan returns a single plan, hidden when unpublished and the
// caller is not an admin.
func (h *NutritionHandler) GetNutritionPlan(c *gin.Context) {
	chain := h.db.Preload("Author", authorProjection)
	p, err := findByID[database.NutritionPlan](c.Request.Context(), chain, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if !contentVisibility(c).CanView(p.Published) {
		NotFound(c, "nutrition plan not found")
		return
	}

	OK(c, http.StatusOK, gin.H{"nutritionPlan": newNutritionPlanResponse(*p)})
}

// CreateNutritionPlan stores a new plan owned by the caller.
func (h *NutritionHandler) CreateNutritionPlan(c *gin.Context) {
	var req createNutritionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	p := database.NutritionPlan{
		Title:       req.Title,
		Description: req.Description,
		DietType:    req.DietType,
		Calories:    req.Calories,
		Meals:       req.Meals,
		ImageKey:    req.ImageKey,
		Published:   req.Published,
		UserID:      userID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&p).Error; err != nil {
		Internal(c, "failed to create nutrition plan")
		return
	}

	OK(c, http.StatusCreated, gin.H{"nutritionPlan": newNutritionPlanResponse(p)})
}

// UpdateNutritionPlan applies a partial update, owner or admin only.
func (h *NutritionHandler) UpdateNutritionPlan(c *gin.Context) {
	var req updateNutritionPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	p, ok := h.loadForModify(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.DietType != nil {
		updates["diet_type"] = *req.DietType
	}
	if req.Calories != nil {
		updates["calories"] = *req.Calories
	}
	if req.Meals != nil {
		updates["meals"] = *req.Meals
	}
	if req.ImageKey != nil {
		updates["image_key"] = *req.ImageKey
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
			Internal(c, "failed to update nutrition plan")
			return
		}
		if err := h.db.WithContext(ctx).Preload("Author", authorProjection).First(p, p.ID).Error; err != nil {
			Internal(c, "failed to reload nutrition plan")
			return
		}
	}

	OK(c, http.StatusOK, gin.H{"nutritionPlan": newNutritionPlanResponse(*p)})
}

// DeleteNutritionPlan removes a plan, owner or admin only.
func (h *NutritionHandler) DeleteNutritionPlan(c *gin.Context) {
	p, ok := h.loadForModify(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.NutritionPlan{}, p.ID).Error; err != nil {
		Internal(c, "failed to delete nutrition plan")
		return
	}

	if h.storage != nil && p.ImageKey != "" {
		if err := h.storage.DeleteObject(ctx, p.ImageKey); err != nil && h.logger != nil {
			h.logger.Error("delete plan image", slog.String("object_key", p.ImageKey), slog.Any("error", err))
		}
	}

	Message(c, http.StatusOK, "nutrition plan deleted")
}

func (h *NutritionHandler) loadForModify(c *gin.Context) (*database.NutritionPlan, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	p, err := findByID[database.NutritionPlan](c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return nil, false
	}

	if !auth.CanModify(userID, callerRole(c), p.UserID) {
		Forbidden(c, "not allowed to modify this nutrition plan")
		return nil, false
	}
	return p, true
}

func (h *NutritionHandler) respondLookupError(c *gin.Context, err error) {
	if err == errNotFound {
		NotFound(c, "nutrition plan not found")
		return
	}
	Internal(c, err.Error())
}
