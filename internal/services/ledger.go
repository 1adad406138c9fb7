package services

import (
	"context"
	"fmt"

	"glyde/internal/models"
	"glyde/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteLedger records which identity already voted in which direction on which post.
// Records are persisted so the guard survives restarts.
type VoteLedger struct {
	db    *gorm.DB
	clock utils.Clock
}

func NewVoteLedger(db *gorm.DB, clock utils.Clock) *VoteLedger {
	return &VoteLedger{db: db, clock: clock}
}

func (l *VoteLedger) WithTx(tx *gorm.DB) *VoteLedger {
	return &VoteLedger{db: tx, clock: l.clock}
}

// TryRegisterVote records the vote and reports true, or reports false when the same
// identity already holds a vote in that direction. Only a true result may be
// followed by a counter increment.
func (l *VoteLedger) TryRegisterVote(ctx context.Context, identity string, postID uint, dir models.Direction) (bool, error) {
	if identity == "" {
		return false, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	if !dir.Valid() {
		return false, fmt.Errorf("%w: direction %q", ErrInvalidInput, dir)
	}

	rec := models.VoteRecord{
		Username:  identity,
		PostID:    postID,
		Direction: dir,
		CreatedAt: l.clock.NowUtc(),
	}
	res := l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (l *VoteLedger) HasVoted(ctx context.Context, identity string, postID uint, dir models.Direction) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.VoteRecord{}).
		Where("username = ? AND post_id = ? AND direction = ?", identity, postID, dir).
		Count(&count).Error
	return count > 0, err
}

type VoteState struct {
	Up   bool
	Down bool
}

// States returns the votes identity holds on each of postIDs, for rendering a page.
func (l *VoteLedger) States(ctx context.Context, identity string, postIDs []uint) (map[uint]VoteState, error) {
	states := make(map[uint]VoteState, len(postIDs))
	if identity == "" || len(postIDs) == 0 {
		return states, nil
	}

	var recs []models.VoteRecord
	if err := l.db.WithContext(ctx).
		Where("username = ? AND post_id IN ?", identity, postIDs).
		Find(&recs).Error; err != nil {
		return nil, err
	}
	for _, r := range recs {
		st := states[r.PostID]
		switch r.Direction {
		case models.DirectionUp:
			st.Up = true
		case models.DirectionDown:
			st.Down = true
		}
		states[r.PostID] = st
	}
	return states, nil
}
