package services

import (
	"context"
	"fmt"

	"glyde/internal/models"

	"gorm.io/gorm"
)

// Interactions applies votes and comments as one atomic step per post. Each step
// holds the post's lock and runs in a single transaction.
type Interactions struct {
	db       *gorm.DB
	posts    *PostService
	ledger   *VoteLedger
	comments *CommentService
	locks    *postLocks
}

func NewInteractions(db *gorm.DB, posts *PostService, ledger *VoteLedger, comments *CommentService) *Interactions {
	return &Interactions{
		db:       db,
		posts:    posts,
		ledger:   ledger,
		comments: comments,
		locks:    &postLocks{},
	}
}

// Vote registers identity's vote and bumps the matching counter if it is new.
// counted is false for a repeated vote; the returned post reflects the stored counts.
func (i *Interactions) Vote(ctx context.Context, identity string, postID uint, dir models.Direction) (counted bool, post *models.Post, err error) {
	if identity == "" {
		return false, nil, fmt.Errorf("%w: login required to vote", ErrInvalidInput)
	}

	unlock := i.locks.Lock(postID)
	defer unlock()

	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := i.posts.WithTx(tx)
		if _, err := posts.Get(ctx, postID); err != nil {
			return err
		}

		ok, err := i.ledger.WithTx(tx).TryRegisterVote(ctx, identity, postID, dir)
		if err != nil {
			return err
		}
		counted = ok
		if !ok {
			return nil
		}
		return posts.increment(ctx, postID, dir)
	})
	if err != nil {
		return false, nil, err
	}

	post, err = i.posts.Get(ctx, postID)
	if err != nil {
		return false, nil, err
	}
	return counted, post, nil
}

func (i *Interactions) Upvote(ctx context.Context, identity string, postID uint) (bool, *models.Post, error) {
	return i.Vote(ctx, identity, postID, models.DirectionUp)
}

func (i *Interactions) Downvote(ctx context.Context, identity string, postID uint) (bool, *models.Post, error) {
	return i.Vote(ctx, identity, postID, models.DirectionDown)
}

// Comment appends identity's comment to the post.
func (i *Interactions) Comment(ctx context.Context, identity string, postID uint, text string) error {
	if identity == "" {
		return fmt.Errorf("%w: login required to comment", ErrInvalidInput)
	}

	unlock := i.locks.Lock(postID)
	defer unlock()

	return i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return i.comments.WithTx(tx).Append(ctx, postID, identity, text)
	})
}
