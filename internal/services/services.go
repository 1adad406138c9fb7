package services

import (
	"time"

	"glyde/internal/utils"

	"gorm.io/gorm"
)

type Options struct {
	Clock      utils.Clock
	UploadDir  string
	LoginDelay time.Duration
}

// Services bundles the stores the handlers call into.
type Services struct {
	Accounts     *AccountService
	Posts        *PostService
	Ledger       *VoteLedger
	Comments     *CommentService
	Interactions *Interactions
	Media        *MediaStore
	Throttle     *LoginThrottle
}

func New(db *gorm.DB, opts Options) *Services {
	if opts.Clock == nil {
		opts.Clock = utils.NewRealClock()
	}
	if opts.UploadDir == "" {
		opts.UploadDir = MediaPrefix
	}

	posts := NewPostService(db, opts.Clock)
	ledger := NewVoteLedger(db, opts.Clock)
	comments := NewCommentService(db)

	return &Services{
		Accounts:     NewAccountService(db, opts.Clock),
		Posts:        posts,
		Ledger:       ledger,
		Comments:     comments,
		Interactions: NewInteractions(db, posts, ledger, comments),
		Media:        NewMediaStore(opts.UploadDir),
		Throttle:     NewLoginThrottle(opts.LoginDelay, opts.Clock),
	}
}
