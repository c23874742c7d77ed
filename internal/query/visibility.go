package query

import (
	"strconv"

	"gorm.io/gorm"
)

// Visibility decides which documents a caller may see.
//
// Resource types without a published flag set HasFlag to false and are left
// untouched. For flagged types, non-admin callers (anonymous included) are
// always restricted to published documents regardless of any request
// parameter; admins see everything unless they filter explicitly.
type Visibility struct {
	HasFlag bool
	Admin   bool

	// Published is the admin-only explicit filter. Nil means no filter.
	Published *bool
}

// Apply augments the chain with the visibility predicate.
func (v Visibility) Apply(db *gorm.DB) *gorm.DB {
	if !v.HasFlag {
		return db
	}
	if !v.Admin {
		return db.Where("published = ?", true)
	}
	if v.Published != nil {
		return db.Where("published = ?", *v.Published)
	}
	return db
}

// CanView reports whether a single document with the given flag value is
// visible to the caller. Used by single-resource reads so that hidden
// documents are indistinguishable from missing ones.
func (v Visibility) CanView(published bool) bool {
	if !v.HasFlag || v.Admin {
		return true
	}
	return published
}

// ParsePublished interprets the published request parameter. Anything that
// is not a boolean literal is ignored.
func ParsePublished(raw string) *bool {
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
