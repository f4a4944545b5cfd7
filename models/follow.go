package models

import "time"

// Follow is one directed edge of the social graph: FollowerID follows FolloweeID.
// The pair is unique; a user's following and followers lists are lookups on either column.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follow_pair" json:"followerId"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follow_pair;index" json:"followeeId"`
	CreatedAt  time.Time `json:"createdAt"`
}
