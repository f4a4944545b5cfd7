package models

import (
	"time"

	"gorm.io/gorm"
)

// Media types accepted on a post.
const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Post is a user-authored entry in the feed. LikesCount mirrors the number of Like rows.
type Post struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	AuthorID   uint        `gorm:"index;not null" json:"authorId"`
	Title      string      `gorm:"size:255" json:"title"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	LikesCount int64       `gorm:"not null;default:0" json:"likesCount"`
	CreatedAt  time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
	Author     User        `gorm:"foreignKey:AuthorID" json:"author"`
	TagRows    []PostTag   `gorm:"foreignKey:PostID" json:"-"`
	Tags       []string    `gorm:"-" json:"tags"`
	Media      []PostMedia `gorm:"foreignKey:PostID" json:"media"`
}

// PostTag stores one entry of a post's ordered tag list.
type PostTag struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PostID   uint   `gorm:"index;not null" json:"-"`
	Position int    `gorm:"not null" json:"-"`
	Name     string `gorm:"size:64;index;not null" json:"name"`
}

// PostMedia references an object held in external storage.
type PostMedia struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	PostID     uint   `gorm:"index;not null" json:"-"`
	Position   int    `gorm:"not null" json:"-"`
	Type       string `gorm:"size:16;not null" json:"type"`
	URL        string `gorm:"size:1024;not null" json:"url"`
	StorageKey string `gorm:"size:512;not null" json:"storageKey"`
}

// TableName pins the table name; "media" has no plural form.
func (PostMedia) TableName() string { return "post_media" }

// AfterFind flattens the preloaded tag rows into Tags.
func (p *Post) AfterFind(tx *gorm.DB) error {
	p.Tags = TagNames(p.TagRows)
	return nil
}

// TagRowsFor builds ordered tag rows for the given names.
func TagRowsFor(names []string) []PostTag {
	rows := make([]PostTag, 0, len(names))
	for i, n := range names {
		rows = append(rows, PostTag{Position: i, Name: n})
	}
	return rows
}

// TagNames returns tag names ordered by position.
func TagNames(rows []PostTag) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names
}
