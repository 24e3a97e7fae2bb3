package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"squadbase/models"
)

// Identity resolves a user either by wallet address or by internal hex id.
type Identity struct {
	Wallet string
	ID     string
}

// AwardOptions carries the bookkeeping attached to a ledger mutation.
type AwardOptions struct {
	// Reason is the human-readable audit note, e.g. "action:followed_on_x".
	Reason string
	// ActionType tags the audit record and, for one-time actions, is
	// recorded into the user's completedActions set.
	ActionType ActionType
	Metadata   map[string]any
	// EmitEvent controls whether the downstream event hook fires.
	EmitEvent bool
}

// PointsEvent is handed to the optional event hook after a successful
// award.
type PointsEvent struct {
	WalletAddress string
	OldPoints     int64
	NewPoints     int64
	Delta         int64
	Reason        string
	SquadID       string
}

// Ledger is the single source of truth for user point balances. Every
// mutation is an atomic document-level increment; the ledger never reads
// and rewrites a balance.
//
// The ledger does not decide eligibility: AwardPoints applies whatever it
// is asked to apply, and the completedActions add-to-set is bookkeeping,
// not a gate. Callers that need at-most-once semantics go through
// AwardOnce (or gate themselves before calling AwardPoints).
type Ledger struct {
	users   UserStore
	actions ActionStore
	squads  SquadStore
	log     *zap.Logger
	onEvent func(PointsEvent)
	now     func() time.Time
}

func NewLedger(users UserStore, actions ActionStore, squads SquadStore, log *zap.Logger) *Ledger {
	return &Ledger{
		users:   users,
		actions: actions,
		squads:  squads,
		log:     log,
		now:     time.Now,
	}
}

// OnEvent registers the downstream event hook. The ledger calls it
// synchronously after a successful award when options.EmitEvent is set;
// the hook must not block.
func (l *Ledger) OnEvent(fn func(PointsEvent)) { l.onEvent = fn }

func (l *Ledger) resolveWallet(ctx context.Context, id Identity) (string, error) {
	if id.Wallet != "" {
		return id.Wallet, nil
	}
	if id.ID == "" {
		return "", ErrValidation("identity requires a wallet address or user id")
	}
	user, err := l.users.GetByID(ctx, id.ID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrNotFound("user not found")
	}
	return user.WalletAddress, nil
}

// AwardPoints atomically adds delta (which may be negative, for
// corrections) to the user's balance, appends one audit Action, records
// one-time action types into completedActions, and propagates the delta
// into the squad points cache best-effort.
func (l *Ledger) AwardPoints(ctx context.Context, id Identity, delta int64, opts AwardOptions) (*models.User, error) {
	wallet, err := l.resolveWallet(ctx, id)
	if err != nil {
		return nil, err
	}

	completed := ""
	if opts.ActionType != "" && opts.ActionType.OneTime() {
		completed = string(opts.ActionType)
	}

	user, err := l.users.IncrementPoints(ctx, wallet, delta, completed)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound(fmt.Sprintf("user %s not found", wallet))
	}

	l.finishAward(ctx, user, delta, opts)
	return user, nil
}

// AwardOnce is the race-free variant for one-time actions: the increment,
// the completedActions add-to-set, and the already-completed check happen
// in a single conditional update, so concurrent identical calls apply at
// most once. applied=false with a nil error means the action was already
// recorded; a missing user surfaces as NotFound.
func (l *Ledger) AwardOnce(ctx context.Context, wallet string, action ActionType, delta int64, opts AwardOptions) (*models.User, bool, error) {
	user, applied, err := l.users.AwardOnce(ctx, wallet, string(action), delta)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		existing, err := l.users.GetByWallet(ctx, wallet)
		if err != nil {
			return nil, false, err
		}
		if existing == nil {
			return nil, false, ErrNotFound(fmt.Sprintf("user %s not found", wallet))
		}
		return existing, false, nil
	}

	l.finishAward(ctx, user, delta, opts)
	return user, true, nil
}

// SetPoints moves the balance to an absolute value by computing the delta
// against the current balance and awarding it. Admin correction path.
func (l *Ledger) SetPoints(ctx context.Context, id Identity, absolute int64, opts AwardOptions) (*models.User, error) {
	if absolute < 0 {
		return nil, ErrValidation("absolute points must be non-negative")
	}
	wallet, err := l.resolveWallet(ctx, id)
	if err != nil {
		return nil, err
	}
	user, err := l.users.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound(fmt.Sprintf("user %s not found", wallet))
	}
	return l.AwardPoints(ctx, Identity{Wallet: wallet}, absolute-user.Points, opts)
}

// finishAward runs the post-increment side effects: audit record, squad
// cache propagation, event hook. The audit insert is the only one whose
// failure is returned to logs; none of them roll back the increment.
func (l *Ledger) finishAward(ctx context.Context, user *models.User, delta int64, opts AwardOptions) {
	actionType := string(opts.ActionType)
	if actionType == "" {
		actionType = opts.Reason
	}
	if err := l.actions.Insert(ctx, &models.Action{
		WalletAddress: user.WalletAddress,
		ActionType:    actionType,
		PointsAwarded: delta,
		Timestamp:     l.now(),
		Notes:         opts.Reason,
		Metadata:      opts.Metadata,
	}); err != nil {
		l.log.Error("failed to append action audit record",
			zap.String("wallet", user.WalletAddress),
			zap.String("actionType", actionType),
			zap.Error(err))
	}

	// Best-effort cache propagation: a crash between the user increment and
	// this update leaves the cache stale until the reconciliation sweep
	// recomputes it from member sums.
	if user.SquadID != "" && delta != 0 {
		if err := l.squads.IncrementPoints(ctx, user.SquadID, delta); err != nil {
			l.log.Warn("failed to propagate points into squad cache",
				zap.String("squadId", user.SquadID),
				zap.Int64("delta", delta),
				zap.Error(err))
		}
	}

	if opts.EmitEvent && l.onEvent != nil {
		l.onEvent(PointsEvent{
			WalletAddress: user.WalletAddress,
			OldPoints:     user.Points - delta,
			NewPoints:     user.Points,
			Delta:         delta,
			Reason:        opts.Reason,
			SquadID:       user.SquadID,
		})
	}
}
