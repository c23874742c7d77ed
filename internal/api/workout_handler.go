package api

import (
	"encoding/json"
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

// WorkoutHandler serves the workout resource family.
type WorkoutHandler struct {
	db      *gorm.DB
	storage MediaStorage
	logger  *slog.Logger
}

// NewWorkoutHandler constructs the handler.
func NewWorkoutHandler(db *gorm.DB, storageClient MediaStorage, logger *slog.Logger) *WorkoutHandler {
	return &WorkoutHandler{db: db, storage: storageClient, logger: logger}
}

var workoutSearchColumns = []string{"title", "description"}

type createWorkoutRequest struct {
	Title           string   `json:"title" binding:"required"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Difficulty      string   `json:"difficulty"`
	DurationMinutes int      `json:"duration_minutes"`
	MuscleGroups    []string `json:"muscle_groups"`
	ImageKey        string   `json:"image_key"`
	Published       bool     `json:"published"`
}

type updateWorkoutRequest struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	Category        *string   `json:"category"`
	Difficulty      *string   `json:"difficulty"`
	DurationMinutes *int      `json:"duration_minutes"`
	MuscleGroups    *[]string `json:"muscle_groups"`
	ImageKey        *string   `json:"image_key"`
	Published       *bool     `json:"published"`
}

type workoutResponse struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category,omitempty"`
	Difficulty      string          `json:"difficulty,omitempty"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	MuscleGroups    []string        `json:"muscle_groups,omitempty"`
	ImageKey        string          `json:"image_key,omitempty"`
	Published       bool            `json:"published"`
	Author          *authorResponse `json:"author,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newWorkoutResponse(w database.Workout) workoutResponse {
	resp := workoutResponse{
		ID:              w.ID,
		Title:           w.Title,
		Description:     w.Description,
		Category:        w.Category,
		Difficulty:      w.Difficulty,
		DurationMinutes: w.DurationMinutes,
		MuscleGroups:    decodeStringArray(w.MuscleGroups),
		ImageKey:        w.ImageKey,
		Published:       w.Published,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
	if w.Author.ID != 0 {
		author := newAuthorResponse(w.Author)
		resp.Author = &author
	}
	return resp
}

// ListWorkouts serves the public, paginated workout listing.
func (h *WorkoutHandler) ListWorkouts(c *gin.Context) {
	f := query.Filter{
		Category:      c.Query("category"),
		Difficulty:    c.Query("difficulty"),
		Tag:           c.Query("muscleGroup"),
		TagColumn:     "muscle_groups",
		Search:        c.Query("search"),
		SearchColumns: workoutSearchColumns,
	}

	chain := h.db.WithContext(c.Request.Context()).Preload("Author", authorProjection)
	items, total, window, ok := runList[database.Workout](c, chain, f, contentVisibility(c))
	if !ok {
		return
	}

	out := make([]workoutResponse, 0, len(items))
	for _, w := range items {
		out = append(out, newWorkoutResponse(w))
	}

	OK(c, http.StatusOK, gin.H{
		"count":      len(out),
		"total":      total,
		"pagination": window,
		"workouts":   out,
	})
}

// GetWorkout returns a single workout. Unpublished workouts are only visible
// to admins; everyone else gets the same not-found as for a missing id.
func (h *WorkoutHandler) GetWorkout(c *gin.Context) {
	chain := h.db.Preload("Author", authorProjection)
	w, err := findByID[database.Workout](c.Request.Context(), chain, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if !contentVisibility(c).CanView(w.Published) {
		NotFound(c, "workout not found")
		return
	}

	OK(c, http.StatusOK, gin.H{"workout": newWorkoutResponse(*w)})
}

// CreateWorkout stores a new workout owned by the caller.
func (h *WorkoutHandler) CreateWorkout(c *gin.Context) {
	var req createWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	w := database.Workout{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		Difficulty:      req.Difficulty,
		DurationMinutes: req.DurationMinutes,
		MuscleGroups:    encodeStringArray(req.MuscleGroups),
		ImageKey:        req.ImageKey,
		Published:       req.Published,
		UserID:          userID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&w).Error; err != nil {
		Internal(c, "failed to create workout")
		return
	}

	OK(c, http.StatusCreated, gin.H{"workout": newWorkoutResponse(w)})
}

// UpdateWorkout applies a partial update, owner or admin only.
func (h *WorkoutHandler) UpdateWorkout(c *gin.Context) {
	var req updateWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	w, ok := h.loadForModify(c)
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
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Difficulty != nil {
		updates["difficulty"] = *req.Difficulty
	}
	if req.DurationMinutes != nil {
		updates["duration_minutes"] = *req.DurationMinutes
	}
	if req.MuscleGroups != nil {
		updates["muscle_groups"] = encodeStringArray(*req.MuscleGroups)
	}
	if req.ImageKey != nil {
		updates["image_key"] = *req.ImageKey
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(w).Updates(updates).Error; err != nil {
			Internal(c, "failed to update workout")
			return
		}
		if err := h.db.WithContext(ctx).Preload("Author", authorProjection).First(w, w.ID).Error; err != nil {
			Internal(c, "failed to reload workout")
			return
		}
	}

	OK(c, http.StatusOK, gin.H{"workout": newWorkoutResponse(*w)})
}

// DeleteWorkout removes a workout and its stored cover image, owner or
// admin only.
func (h *WorkoutHandler) DeleteWorkout(c *gin.Context) {
	w, ok := h.loadForModify(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.Workout{}, w.ID).Error; err != nil {
		Internal(c, "failed to delete workout")
		return
	}

	if h.storage != nil && w.ImageKey != "" {
		if err := h.storage.DeleteObject(ctx, w.ImageKey); err != nil && h.logger != nil {
			h.logger.Error("delete workout image", slog.String("object_key", w.ImageKey), slog.Any("error", err))
		}
	}

	Message(c, http.StatusOK, "workout deleted")
}

func (h *WorkoutHandler) loadForModify(c *gin.Context) (*database.Workout, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	w, err := findByID[database.Workout](c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return nil, false
	}

	if !auth.CanModify(userID, callerRole(c), w.UserID) {
		Forbidden(c, "not allowed to modify this workout")
		return nil, false
	}
	return w, true
}

func (h *WorkoutHandler) respondLookupError(c *gin.Context, err error) {
	if err == errNotFound {
		NotFound(c, "workout not found")
		return
	}
	Internal(c, err.Error())
}

func decodeStringArray(doc datatypes.JSON) []string {
	if len(doc) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(doc, &values); err != nil {
		return nil
	}
	return values
}

func encodeStringArray(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	doc, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(doc)
}
