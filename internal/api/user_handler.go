package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healthhive/internal/database"
	"healthhive/internal/query"
)

// UserHandler exposes admin-only account management. Deleting a user does
// not cascade to their content; orphaned resources keep their ownerRef.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs the handler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

type userResponse struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u database.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ListUsers lists accounts, newest first.
func (h *UserHandler) ListUsers(c *gin.Context) {
	f := query.Filter{
		Search:        c.Query("search"),
		SearchColumns: []string{"name", "email"},
	}

	chain := h.db.WithContext(c.Request.Context())
	items, total, window, ok := runList[database.User](c, chain, f, query.Visibility{})
	if !ok {
		return
	}

	out := make([]userResponse, 0, len(items))
	for _, u := range items {
		out = append(out, newUserResponse(u))
	}

	OK(c, http.StatusOK, gin.H{
		"count":      len(out),
		"total":      total,
		"pagination": window,
		"users":      out,
	})
}

type updateUserRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

// UpdateUserRole promotes or demotes an account.
func (h *UserHandler) UpdateUserRole(c *gin.Context) {
	var req updateUserRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	u, err := findByID[database.User](c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Model(u).Update("role", req.Role).Error; err != nil {
		Internal(c, "failed to update role")
		return
	}

	u.Role = req.Role
	OK(c, http.StatusOK, gin.H{"user": newUserResponse(*u)})
}

// DeleteUser removes an account. Content created by the account stays.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	u, err := findByID[database.User](c.Request.Context(), h.db, c.Param("id"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	if callerID, ok := userIDFromContext(c); ok && callerID == u.ID {
		BadRequest(c, "cannot delete your own account")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(&database.User{}, u.ID).Error; err != nil {
		Internal(c, "failed to delete user")
		return
	}

	Message(c, http.StatusOK, "user deleted")
}

func (h *UserHandler) respondLookupError(c *gin.Context, err error) {
	if err == errNotFound {
		NotFound(c, "user not found")
		return
	}
	Internal(c, err.Error())
}
