package services

import (
	"context"
	"fmt"

	"glyde/internal/models"
	"glyde/internal/utils"

	"gorm.io/gorm"
)

// PostService is the post store.
type PostService struct {
	db    *gorm.DB
	clock utils.Clock
}

func NewPostService(db *gorm.DB, clock utils.Clock) *PostService {
	return &PostService{db: db, clock: clock}
}

// WithTx returns a copy bound to tx.
func (s *PostService) WithTx(tx *gorm.DB) *PostService {
	return &PostService{db: tx, clock: s.clock}
}

type NewPost struct {
	Author         string
	Title          string
	Content        string
	MediaReference string
	Visibility     models.Visibility
}

// Create stores a post with zero counters and no comments.
func (s *PostService) Create(ctx context.Context, in NewPost) (*models.Post, error) {
	if in.Author == "" {
		return nil, fmt.Errorf("%w: author is required", ErrInvalidInput)
	}
	if !in.Visibility.Valid() {
		in.Visibility = models.VisibilityPublic
	}

	comments, err := models.EncodeComments(nil)
	if err != nil {
		return nil, err
	}

	post := models.Post{
		Username:       in.Author,
		Title:          in.Title,
		Content:        in.Content,
		MediaReference: in.MediaReference,
		Comments:       comments,
		CreatedAt:      s.clock.NowUtc(),
		Visibility:     in.Visibility,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// ListPage returns page (1-based) of posts with the given visibility, newest first.
// Pages past the end are empty.
func (s *PostService) ListPage(ctx context.Context, visibility models.Visibility, page, pageSize int) ([]models.Post, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 1
	}
	offset := (page - 1) * pageSize

	posts := []models.Post{}
	err := s.db.WithContext(ctx).
		Where("visibility = ?", visibility).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *PostService) Count(ctx context.Context, visibility models.Visibility) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Post{}).Where("visibility = ?", visibility).Count(&total).Error
	return total, err
}

func (s *PostService) Get(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (s *PostService) IncrementUpvote(ctx context.Context, id uint) error {
	return s.increment(ctx, id, models.DirectionUp)
}

func (s *PostService) IncrementDownvote(ctx context.Context, id uint) error {
	return s.increment(ctx, id, models.DirectionDown)
}

// increment adds one in a single UPDATE so concurrent callers cannot lose counts.
func (s *PostService) increment(ctx context.Context, id uint, dir models.Direction) error {
	column := "upvote_count"
	if dir == models.DirectionDown {
		column = "downvote_count"
	}

	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
