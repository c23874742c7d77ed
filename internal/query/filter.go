// Package query implements the shared list-query core: a typed filter
// translated into store predicates, the role-based visibility policy, and
// offset pagination with next/prev descriptors.
package query

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"
)

// Filter carries the recognized list parameters for a resource collection.
// Zero-valued fields impose no condition; unrecognized request parameters
// never reach this struct.
type Filter struct {
	// Exact-match fields.
	Category   string
	DietType   string
	Difficulty string

	// Tag is matched as a member of the JSON array column named TagColumn.
	Tag       string
	TagColumn string

	// Search is a case-insensitive substring matched against SearchColumns,
	// combined with OR. Empty search imposes nothing.
	Search        string
	SearchColumns []string
}

// Apply translates the filter into conditions on the chain. All present
// conditions are combined with AND.
func (f Filter) Apply(db *gorm.DB) *gorm.DB {
	if f.Category != "" {
		db = db.Where("category = ?", f.Category)
	}
	if f.DietType != "" {
		db = db.Where("diet_type = ?", f.DietType)
	}
	if f.Difficulty != "" {
		db = db.Where("difficulty = ?", f.Difficulty)
	}
	if f.Tag != "" && f.TagColumn != "" {
		db = arrayContains(db, f.TagColumn, f.Tag)
	}
	if term := strings.TrimSpace(f.Search); term != "" && len(f.SearchColumns) > 0 {
		pattern := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, 0, len(f.SearchColumns))
		args := make([]any, 0, len(f.SearchColumns))
		for _, col := range f.SearchColumns {
			clauses = append(clauses, "LOWER("+col+") LIKE ?")
			args = append(args, pattern)
		}
		db = db.Where(strings.Join(clauses, " OR "), args...)
	}
	return db
}

// arrayContains adds a membership condition on a JSON array column. The
// expression is dialect-specific: jsonb containment on postgres, json_each
// on sqlite (the test backend). Column names come from handler constants,
// never from request input.
func arrayContains(db *gorm.DB, column, value string) *gorm.DB {
	switch db.Dialector.Name() {
	case "postgres":
		doc, err := json.Marshal([]string{value})
		if err != nil {
			return db
		}
		return db.Where(column+" @> ?::jsonb", string(doc))
	default:
		return db.Where(
			"EXISTS (SELECT 1 FROM json_each("+column+") WHERE json_each.value = ?)",
			value,
		)
	}
}
