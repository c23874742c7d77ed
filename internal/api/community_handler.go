package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"healthhive/internal/auth"
	"healthhive/internal/database"
	"healthhive/internal/query"
)

// communityFeedChannel is the redis pub/sub channel carrying new posts to
// live feed subscribers.
const communityFeedChannel = "community:feed"

// CommunityHandler serves user-generated community posts. They carry no
// visibility flag: every post is visible to every caller.
type CommunityHandler struct {
	db      *gorm.DB
	redis   redis.UniversalClient
	storage MediaStorage
	logger  *slog.Logger
}

// NewCommunityHandler constructs the handler.
func NewCommunityHandler(db *gorm.DB, redisClient redis.UniversalClient, storageClient MediaStorage, logger *slog.Logger) *CommunityHandler {
	return &CommunityHandler{db: db, redis: redisClient, storage: storageClient, logger: logger}
}

type createCommunityPostRequest struct {
	Content  string `json:"content" binding:"required"`
	ImageKey string `json:"image_key"`
}

type updateCommunityPostRequest struct {
	Content  *string `json:"content"`
	ImageKey *string `json:"image_key"`
}

type communityPostResponse struct {
	ID        uint            `json:"id"`
	Content   string          `json:"content"`
	ImageKey  string          `json:"image_key,omitempty"`
	Author    *authorResponse `json:"author,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newCommunityPostResponse(p database.CommunityPost) communityPostResponse {
	resp := communityPostResponse{
		ID:        p.ID,
		Content:   p.Content,
		ImageKey:  p.ImageKey,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if p.Author.ID != 0 {
		author := newAuthorResponse(p.Author)
		resp.Author = &author
	}
	return resp
}

// ListCommunityPosts serves the public, paginated feed.
func (h *CommunityHandler) ListCommunityPosts(c *gin.Context) {
	f := query.Filter{
		Search:        c.Query("search"),
		SearchColumns: []string{"content"},
	}

	chain := h.db.WithContext(c.Request.Context()).Preload("Author", authorProjection)
	items, total, window, ok := runList[database.CommunityPost](c, chain, f, query.Visibility{})
	if !ok {
		return
	}

	out := make([]communityPostResponse, 0, len(items))
	for _, p := range items {
		out = append(out, newCommunityPostResponse(p))
	}

	OK(c, http.StatusOK, gin.H{
		"count":      len(out),
		"total":      total,
		"pagination": window,
		"posts":      out,
	})
}

// GetCommunityPost returns a single post.
func (h *CommunityHandler) GetCommunityPost(c *gin.Context) {
	chain := h.db.Preload("Author", authorProjection)
	p, err := findByID[database.CommunityPost](c.Request.Context(), chain, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	OK(c, http.StatusOK, gin.H{"post": newCommunityPostResponse(*p)})
}

// CreateCommunityPost stores a post for any authenticated user and announces
// it on the live feed channel.
func (h *CommunityHandler) CreateCommunityPost(c *gin.Context) {
	var req createCommunityPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	p := database.CommunityPost{
		Content:  req.Content,
		ImageKey: req.ImageKey,
		UserID:   userID,
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Create(&p).Error; err != nil {
		Internal(c, "failed to create post")
		return
	}

	if err := h.db.WithContext(ctx).Preload("Author", authorProjection).First(&p, p.ID).Error; err != nil {
		Internal(c, "failed to reload post")
		return
	}

	h.announce(c, p)

	OK(c, http.StatusCreated, gin.H{"post": newCommunityPostResponse(p)})
}

// UpdateCommunityPost applies a partial update, owner or admin only.
func (h *CommunityHandler) UpdateCommunityPost(c *gin.Context) {
	var req updateCommunityPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	p, ok := h.loadForModify(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.ImageKey != nil {
		updates["image_key"] = *req.ImageKey
	}

	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(p).Updates(updates).Error; err != nil {
			Internal(c, "failed to update post")
			return
		}
		if err := h.db.WithContext(ctx).Preload("Author", authorProjection).First(p, p.ID).Error; err != nil {
			Internal(c, "failed to reload post")
			return
		}
	}

	OK(c, http.StatusOK, gin.H{"post": newCommunityPostResponse(*p)})
}

// DeleteCommunityPost removes a post, owner or admin only.
func (h *CommunityHandler) DeleteCommunityPost(c *gin.Context) {
	p, ok := h.loadForModify(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.CommunityPost{}, p.ID).Error; err != nil {
		Internal(c, "failed to delete post")
		return
	}

	if h.storage != nil && p.ImageKey != "" {
		if err := h.storage.DeleteObject(ctx, p.ImageKey); err != nil && h.logger != nil {
			h.logger.Error("delete post image", slog.String("object_key", p.ImageKey), slog.Any("error", err))
		}
	}

	Message(c, http.StatusOK, "post deleted")
}

// announce publishes the fresh post on the feed channel. Delivery is best
// effort; the post is already stored.
func (h *CommunityHandler) announce(c *gin.Context, p database.CommunityPost) {
	if h.redis == nil {
		return
	}
	payload, err := json.Marshal(newCommunityPostResponse(p))
	if err != nil {
		return
	}
	if err := h.redis.Publish(c.Request.Context(), communityFeedChannel, payload).Err(); err != nil && h.logger != nil {
		h.logger.Error("publish community post", slog.Any("error", err))
	}
}

func (h *CommunityHandler) loadForModify(c *gin.Context) (*database.CommunityPost, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	p, err := findByID[database.CommunityPost](c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return nil, false
	}

	if !auth.CanModify(userID, callerRole(c), p.UserID) {
		Forbidden(c, "not allowed to modify this post")
		return nil, false
	}
	return p, true
}

func (h *CommunityHandler) respondLookupError(c *gin.Context, err error) {
	if err == errNotFound {
		NotFound(c, "post not found")
		return
	}
	Internal(c, err.Error())
}
