package services

import (
	"context"
	"time"

	"squadbase/models"
)

// The services operate against narrow store interfaces so the Mongo
// implementations in database/ stay swappable for in-memory fakes in
// tests. Lookup methods return (nil, nil) when no document matches; only
// transport problems surface as errors.

// UserStore persists user documents. The mutating methods are expected to
// be atomic at the document level (findOneAndUpdate semantics).
type UserStore interface {
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	GetByID(ctx context.Context, hexID string) (*models.User, error)
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error

	// IncrementPoints atomically adds delta to the balance and, when
	// completedAction is non-empty, add-to-sets it into completedActions in
	// the same update. Returns the post-update document, or nil when the
	// user does not exist.
	IncrementPoints(ctx context.Context, wallet string, delta int64, completedAction string) (*models.User, error)

	// AwardOnce performs the same update conditioned on the action not
	// already being in completedActions. applied=false means the filter
	// matched no document (user missing or action already completed).
	AwardOnce(ctx context.Context, wallet string, action string, delta int64) (user *models.User, applied bool, err error)

	// LinkReferral sets referredBy conditioned on it being unset.
	LinkReferral(ctx context.Context, wallet, referrerWallet string) (bool, error)
	IncrementReferralsMade(ctx context.Context, wallet string) error

	// ConsumeBoost decrements one use from a live boost of the given type
	// and returns the boost as it was before the decrement, or nil when no
	// usable boost exists.
	ConsumeBoost(ctx context.Context, wallet, boostType string, now time.Time) (*models.ReferralBoost, error)

	SetSquad(ctx context.Context, wallet, squadID string) error
	ClearSquad(ctx context.Context, wallet string) error

	ListByWallets(ctx context.Context, wallets []string) ([]models.User, error)
	ListWithSquad(ctx context.Context) ([]models.User, error)
	TopByPoints(ctx context.Context, limit int64) ([]models.User, error)
}

// SquadStore persists squad documents.
type SquadStore interface {
	GetByID(ctx context.Context, squadID string) (*models.Squad, error)
	GetByName(ctx context.Context, name string) (*models.Squad, error)
	Insert(ctx context.Context, squad *models.Squad) error
	Delete(ctx context.Context, squadID string) error

	// AddMember add-to-sets the wallet and increments the points cache by
	// the member's contribution in one update.
	AddMember(ctx context.Context, squadID, wallet string, points int64) error
	// RemoveMember pulls the wallet and decrements the points cache.
	RemoveMember(ctx context.Context, squadID, wallet string, points int64) error
	IncrementPoints(ctx context.Context, squadID string, delta int64) error

	// SetLeaderIf updates the leader conditioned on an atomic match against
	// the current leader; false means zero documents matched.
	SetLeaderIf(ctx context.Context, squadID, currentLeader, newLeader string) (bool, error)

	// SetTotals overwrites the cached aggregate and tier (reconciliation).
	SetTotals(ctx context.Context, squadID string, total int64, tier, maxMembers int) error

	ListWithMember(ctx context.Context, wallet string) ([]models.Squad, error)
	ListAll(ctx context.Context) ([]models.Squad, error)
	TopByPoints(ctx context.Context, limit int64) ([]models.Squad, error)
}

// InviteStore persists squad invitations.
type InviteStore interface {
	Insert(ctx context.Context, inv *models.SquadInvitation) error
	GetByID(ctx context.Context, invitationID string) (*models.SquadInvitation, error)
	FindPending(ctx context.Context, squadID, invitee string) (*models.SquadInvitation, error)
	ListPendingFor(ctx context.Context, invitee string) ([]models.SquadInvitation, error)
	ListPending(ctx context.Context) ([]models.SquadInvitation, error)

	// TransitionFromPending flips the status conditioned on it still being
	// pending; false means the invitation already reached a terminal state.
	TransitionFromPending(ctx context.Context, invitationID, newStatus, notes string) (bool, error)
}

// JoinRequestStore persists squad join requests.
type JoinRequestStore interface {
	Insert(ctx context.Context, req *models.SquadJoinRequest) error
	GetByID(ctx context.Context, requestID string) (*models.SquadJoinRequest, error)
	FindPending(ctx context.Context, squadID, requester string) (*models.SquadJoinRequest, error)
	ListPendingFor(ctx context.Context, requester string) ([]models.SquadJoinRequest, error)
	ListPendingForSquad(ctx context.Context, squadID string) ([]models.SquadJoinRequest, error)
	TransitionFromPending(ctx context.Context, requestID, newStatus string) (bool, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	// FindUnread locates an unread notification for the dedupe key
	// (recipient, type) refined by the correlation's most specific field.
	FindUnread(ctx context.Context, recipient string, typ models.NotificationType, c models.Correlation) (*models.Notification, error)
	Insert(ctx context.Context, n *models.Notification) error
	// Refresh merges new content into an existing notification in place.
	Refresh(ctx context.Context, notificationID, title, message string, at time.Time) error

	ListFor(ctx context.Context, recipient string, limit int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	MarkRead(ctx context.Context, recipient, notificationID string) (bool, error)
	MarkAllRead(ctx context.Context, recipient string) (int64, error)
}

// ActionStore persists the append-only audit log.
type ActionStore interface {
	Insert(ctx context.Context, a *models.Action) error
	ListByWallet(ctx context.Context, wallet string, limit int64) ([]models.Action, error)
	HasAction(ctx context.Context, wallet, actionType string) (bool, error)
}
