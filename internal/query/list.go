package query

import "gorm.io/gorm"

// List runs the composed read for one page of a resource collection: the
// filter and visibility predicates are built once, the total is counted
// against them, then the window is fetched ordered by created_at DESC. The
// two reads are independent queries, so total and window may disagree under
// concurrent writes; that race is accepted.
func List[T any](db *gorm.DB, f Filter, vis Visibility, p Pagination, out *[]T) (int64, Window, error) {
	base := vis.Apply(f.Apply(db.Model(new(T))))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, Window{}, err
	}

	err := base.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(out).Error
	if err != nil {
		return 0, Window{}, err
	}

	return total, p.Window(total), nil
}
