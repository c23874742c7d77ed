package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"healthhive/internal/api/middleware"
	"healthhive/internal/auth"
	"healthhive/internal/database"
	"healthhive/internal/query"
)

// errNotFound covers every single-resource outcome that must look like a
// missing document: unparseable ids included, so the id format is never
// disclosed to the caller.
var errNotFound = errors.New("resource not found")

// authorProjection restricts the joined owner to its public fields.
func authorProjection(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

type authorResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newAuthorResponse(u database.User) authorResponse {
	return authorResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// runList executes the composed count-then-window read and writes the error
// response itself on failure. The passed chain should already carry any
// preloads and scoping conditions.
func runList[T any](c *gin.Context, db *gorm.DB, f query.Filter, vis query.Visibility) ([]T, int64, query.Window, bool) {
	page := query.ParsePagination(c.Query("page"), c.Query("limit"))

	var items []T
	total, window, err := query.List(db, f, vis, page, &items)
	if err != nil {
		Internal(c, err.Error())
		return nil, 0, query.Window{}, false
	}
	return items, total, window, true
}

// findByID loads a single document. Malformed ids and missing rows both
// surface as errNotFound.
func findByID[T any](ctx context.Context, db *gorm.DB, idParam string) (*T, error) {
	id, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return nil, errNotFound
	}

	var doc T
	if err := db.WithContext(ctx).First(&doc, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// contentVisibility builds the visibility rule for flagged resource types
// from the caller's role and the admin-only published parameter.
func contentVisibility(c *gin.Context) query.Visibility {
	vis := query.Visibility{HasFlag: true, Admin: callerIsAdmin(c)}
	if vis.Admin {
		vis.Published = query.ParsePublished(c.Query("published"))
	}
	return vis
}

func callerIsAdmin(c *gin.Context) bool {
	return auth.IsAdmin(middleware.CallerRole(c))
}

func callerRole(c *gin.Context) string {
	return middleware.CallerRole(c)
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
