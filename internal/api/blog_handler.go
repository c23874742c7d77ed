package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healthhive/internal/auth"
	"healthhive/internal/database"
	"healthhive/internal/query"
)

// BlogHandler serves the blog-post resource family.
type BlogHandler struct {
	db      *gorm.DB
	storage MediaStorage
	logger  *slog.Logger
}

// NewBlogHandler constructs the handler.
func NewBlogHandler(db *gorm.DB, storageClient MediaStorage, logger *slog.Logger) *BlogHandler {
	return &BlogHandler{db: db, storage: storageClient, logger: logger}
}

var blogSearchColumns = []string{"title", "excerpt", "content"}

type createBlogPostRequest struct {
	Title     string   `json:"title" binding:"required"`
	Excerpt   string   `json:"excerpt"`
	Content   string   `json:"content" binding:"required"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	ImageKey  string   `json:"image_key"`
	Published bool     `json:"published"`
}

type updateBlogPostRequest struct {
	Title     *string   `json:"title"`
	Excerpt   *string   `json:"excerpt"`
	Content   *string   `json:"content"`
	Category  *string   `json:"category"`
	Tags      *[]string `json:"tags"`
	ImageKey  *string   `json:"image_key"`
	Published *bool     `json:"published"`
}

type blogPostResponse struct {
	ID        uint            `json:"id"`
	Title     string          `json:"title"`
	Excerpt   string          `json:"excerpt,omitempty"`
	Content   string          `json:"content,omitempty"`
	Category  string          `json:"category,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	ImageKey  string          `json:"image_key,omitempty"`
	Published bool            `json:"published"`
	Author    *authorResponse `json:"author,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newBlogPostResponse(b database.BlogPost) blogPostResponse {
	resp := blogPostResponse{
		ID:        b.ID,
		Title:     b.Title,
		Excerpt:   b.Excerpt,
		Content:   b.Content,
		Category:  b.Category,
		Tags:      decodeStringArray(b.Tags),
		ImageKey:  b.ImageKey,
		Published: b.Published,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.Author.ID != 0 {
		author := newAuthorResponse(b.Author)
		resp.Author = &author
	}
	return resp
}

// ListBlogPosts serves the public, paginated blog listing.
func (h *BlogHandler) ListBlogPosts(c *gin.Context) {
	f := query.Filter{
		Category:      c.Query("category"),
		Tag:           c.Query("tag"),
		TagColumn:     "tags",
		Search:        c.Query("search"),
		SearchColumns: blogSearchColumns,
	}

	chain := h.db.WithContext(c.Request.Context()).Preload("Author", authorProjection)
	items, total, window, ok := runList[database.BlogPost](c, chain, f, contentVisibility(c))
	if !ok {
		return
	}

	out := make([]blogPostResponse, 0, len(items))
	for _, b := range items {
		out = append(out, newBlogPostResponse(b))
	}

	OK(c, http.StatusOK, gin.H{
		"count":      len(out),
		"total":      total,
		"pagination": window,
		"blogs":      out,
	})
}

// GetBlogPost returns a single post, hidden when unpublished and the caller
// is not an admin.
func (h *BlogHandler) GetBlogPost(c *gin.Context) {
	chain := h.db.Preload("Author", authorProjection)
	b, err := findByID[database.BlogPost](c.Request.Context(), chain, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if !contentVisibility(c).CanView(b.Published) {
		NotFound(c, "blog post not found")
		return
	}

	OK(c, http.StatusOK, gin.H{"blog": newBlogPostResponse(*b)})
}

// CreateBlogPost stores a new post owned by the caller.
func (h *BlogHandler) CreateBlogPost(c *gin.Context) {
	var req createBlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	b := database.BlogPost{
		Title:     req.Title,
		Excerpt:   req.Excerpt,
		Content:   req.Content,
		Category:  req.Category,
		Tags:      encodeStringArray(req.Tags),
		ImageKey:  req.ImageKey,
		Published: req.Published,
		UserID:    userID,
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&b).Error; err != nil {
		Internal(c, "failed to create blog post")
		return
	}

	OK(c, http.StatusCreated, gin.H{"blog": newBlogPostResponse(b)})
}

// UpdateBlogPost applies a partial update, owner or admin only.
func (h *BlogHandler) UpdateBlogPost(c *gin.Context) {
	var req updateBlogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	b, ok := h.loadForModify(c)
	if !ok {
		return
	}

	updates := map[string]any{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Excerpt != nil {
		updates["excerpt"] = *req.Excerpt
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Tags != nil {
		updates["tags"] = encodeStringArray(*req.Tags)
	}
	if req.ImageKey != nil {
		updates["image_key"] = *req.ImageKey
	}
	if req.Published != nil {
		updates["published"] = *req.Published
	}

	ctx := c.Request.Context()
	if len(updates) > 0 {
		if err := h.db.WithContext(ctx).Model(b).Updates(updates).Error; err != nil {
			Internal(c, "failed to update blog post")
			return
		}
		if err := h.db.WithContext(ctx).Preload("Author", authorProjection).First(b, b.ID).Error; err != nil {
			Internal(c, "failed to reload blog post")
			return
		}
	}

	OK(c, http.StatusOK, gin.H{"blog": newBlogPostResponse(*b)})
}

// DeleteBlogPost removes a post, owner or admin only.
func (h *BlogHandler) DeleteBlogPost(c *gin.Context) {
	b, ok := h.loadForModify(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Delete(&database.BlogPost{}, b.ID).Error; err != nil {
		Internal(c, "failed to delete blog post")
		return
	}

	if h.storage != nil && b.ImageKey != "" {
		if err := h.storage.DeleteObject(ctx, b.ImageKey); err != nil && h.logger != nil {
			h.logger.Error("delete blog image", slog.String("object_key", b.ImageKey), slog.Any("error", err))
		}
	}

	Message(c, http.StatusOK, "blog post deleted")
}

func (h *BlogHandler) loadForModify(c *gin.Context) (*database.BlogPost, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	b, err := findByID[database.BlogPost](c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return nil, false
	}

	if !auth.CanModify(userID, callerRole(c), b.UserID) {
		Forbidden(c, "not allowed to modify this blog post")
		return nil, false
	}
	return b, true
}

func (h *BlogHandler) respondLookupError(c *gin.Context, err error) {
	if err == errNotFound {
		NotFound(c, "blog post not found")
		return
	}
	Internal(c, err.Error())
}
