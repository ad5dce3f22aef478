package models

import "time"

// Review is one user's scored opinion of a title. The composite unique index
// enforces one review per (author, title); the named check rejects rows whose
// author and title keys are the same literal identifier.
type Review struct {
	ID       int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TitleID  int64     `json:"-" gorm:"not null;index;uniqueIndex:idx_review_author_title,priority:2"`
	AuthorID string    `json:"-" gorm:"type:uuid;not null;uniqueIndex:idx_review_author_title,priority:1;check:chk_review_author_not_title,CAST(author_id AS TEXT) <> CAST(title_id AS TEXT)"`
	Text     string    `json:"text" gorm:"type:text;not null"`
	Score    int       `json:"score" gorm:"not null;check:chk_review_score_range,score >= 1 AND score <= 10"`
	PubDate  time.Time `json:"pub_date" gorm:"autoCreateTime;index;<-:create"`

	// Associations
	Author User  `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE;"`
	Title  Title `json:"-" gorm:"foreignKey:TitleID;constraint:OnDelete:CASCADE;"`
}

func (Review) TableName() string {
	return "reviews"
}
