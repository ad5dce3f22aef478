package repository

import "gorm.io/gorm"

// Page selects one page of a list query. Page numbers start at 1.
type Page struct {
	Page     int
	PageSize int
}

func (p Page) offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// paginate is a GORM scope applying limit/offset; a zero PageSize means no limit.
func paginate(p Page) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.PageSize <= 0 {
			return db
		}
		return db.Limit(p.PageSize).Offset(p.offset())
	}
}
