package match

import (
	"context"
	"time"

	"github.com/riskibarqy/matchsync/internal/domain/team"
)

// Tx is the write surface available inside one batch transaction.
type Tx interface {
	team.Writer

	GetByIdentityKey(ctx context.Context, game, key string) (Match, bool, error)
	GetByDetailURL(ctx context.Context, game, detailURL string) (Match, bool, error)
	FindMigrationCandidate(ctx context.Context, query MigrationQuery) (Match, bool, error)
	RewriteIdentityKey(ctx context.Context, matchID int64, key string, at time.Time) error
	Insert(ctx context.Context, m Match) (Match, error)
	Update(ctx context.Context, m Match) error
}

// Repository exposes match persistence to the reconciliation use cases.
type Repository interface {
	// RunInTx runs fn in one transaction. Errors wrapping ErrConflict mean
	// the whole transaction may be retried.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	ListBackfillCandidates(ctx context.Context, game string, startedBefore time.Time, limit int) ([]Match, error)
	ApplyBackfill(ctx context.Context, update BackfillUpdate) error
	MarkScoreChecked(ctx context.Context, matchID int64, at time.Time) error

	ListUnfinished(ctx context.Context, game string) ([]Match, error)
	ApplyStatusChanges(ctx context.Context, changes []StatusChange, at time.Time) error

	Repair(ctx context.Context, game string, at time.Time) (RepairReport, error)
	GetByID(ctx context.Context, matchID int64) (Match, bool, error)
}
