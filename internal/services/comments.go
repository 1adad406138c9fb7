package services

import (
	"context"
	"fmt"

	"glyde/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentService appends to and reads the comment list stored on each post.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

func (s *CommentService) WithTx(tx *gorm.DB) *CommentService {
	return &CommentService{db: tx}
}

// Append adds {author, text} to the end of the post's comments. Text is not validated.
// Callers that may race on the same post must run it inside Interactions.Comment.
func (s *CommentService) Append(ctx context.Context, postID uint, author, text string) error {
	q := s.db.WithContext(ctx).Select("id", "comments")
	if s.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var post models.Post
	if err := q.First(&post, postID).Error; err != nil {
		return notFound(err)
	}

	comments, err := models.DecodeComments(post.Comments)
	if err != nil {
		return fmt.Errorf("decode comments of post %d: %w", postID, err)
	}
	comments = append(comments, models.Comment{Author: author, Text: text})

	raw, err := models.EncodeComments(comments)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("comments", raw).Error
}

// List returns the post's comments in insertion order.
func (s *CommentService) List(ctx context.Context, postID uint) ([]models.Comment, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id", "comments").First(&post, postID).Error; err != nil {
		return nil, notFound(err)
	}
	comments, err := models.DecodeComments(post.Comments)
	if err != nil {
		return nil, fmt.Errorf("decode comments of post %d: %w", postID, err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}
