package models

import (
	"log"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type Visibility string

const VisibilityPublic Visibility = "Public"

// ParseVisibility maps form input onto a known visibility; unknown values fall back to Public.
func ParseVisibility(s string) Visibility {
	v := Visibility(strings.TrimSpace(s))
	if v.Valid() {
		return v
	}
	return VisibilityPublic
}

func (v Visibility) Valid() bool {
	return v == VisibilityPublic
}

type Post struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Username       string         `gorm:"not null;index" json:"username"` // author
	Title          string         `gorm:"not null" json:"title"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	MediaReference string         `json:"media_reference,omitempty"` // path under the upload dir
	UpvoteCount    int            `gorm:"not null;default:0" json:"upvote_count"`
	DownvoteCount  int            `gorm:"not null;default:0" json:"downvote_count"`
	Comments       datatypes.JSON `json:"-"` // see EncodeComments
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
	Visibility     Visibility     `gorm:"size:20;not null;index;default:'Public'" json:"visibility"`
}

// CommentList decodes the stored comment column. Undecodable data is logged and
// yields an empty list.
func (p *Post) CommentList() []Comment {
	comments, err := DecodeComments(p.Comments)
	if err != nil {
		log.Printf("decode comments of post %d: %v", p.ID, err)
		return nil
	}
	return comments
}
