package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"squadbase/models"
)

// Payload is the tagged variant attached to a notification. Each concrete
// payload carries only the correlation keys meaningful for its shape, so
// a call site cannot attach a quest id to an invitation notice.
type Payload interface {
	correlation() models.Correlation
	apply(n *models.Notification)
}

// InvitePayload correlates a notification to a squad invitation.
type InvitePayload struct {
	InvitationID string
	SquadID      string
	SquadName    string
	ActorWallet  string
	ActorName    string
}

func (p InvitePayload) correlation() models.Correlation {
	return models.Correlation{InvitationID: p.InvitationID, SquadID: p.SquadID}
}

func (p InvitePayload) apply(n *models.Notification) {
	n.RelatedInvitationID = p.InvitationID
	n.RelatedSquadID = p.SquadID
	n.RelatedSquadName = p.SquadName
	n.RelatedUserWalletAddress = p.ActorWallet
	n.RelatedUserName = p.ActorName
}

// JoinRequestPayload correlates through the invitation field, keeping the
// persisted schema shared between invitations and join requests.
type JoinRequestPayload struct {
	RequestID   string
	SquadID     string
	SquadName   string
	ActorWallet string
	ActorName   string
}

func (p JoinRequestPayload) correlation() models.Correlation {
	return models.Correlation{InvitationID: p.RequestID, SquadID: p.SquadID}
}

func (p JoinRequestPayload) apply(n *models.Notification) {
	n.RelatedInvitationID = p.RequestID
	n.RelatedSquadID = p.SquadID
	n.RelatedSquadName = p.SquadName
	n.RelatedUserWalletAddress = p.ActorWallet
	n.RelatedUserName = p.ActorName
}

// SquadPayload correlates a notification to a squad.
type SquadPayload struct {
	SquadID     string
	SquadName   string
	ActorWallet string
	ActorName   string
}

func (p SquadPayload) correlation() models.Correlation {
	return models.Correlation{SquadID: p.SquadID}
}

func (p SquadPayload) apply(n *models.Notification) {
	n.RelatedSquadID = p.SquadID
	n.RelatedSquadName = p.SquadName
	n.RelatedUserWalletAddress = p.ActorWallet
	n.RelatedUserName = p.ActorName
}

// QuestPayload correlates a notification to a quest.
type QuestPayload struct {
	QuestID    string
	QuestTitle string
}

func (p QuestPayload) correlation() models.Correlation {
	return models.Correlation{QuestID: p.QuestID}
}

func (p QuestPayload) apply(n *models.Notification) {
	n.RelatedQuestID = p.QuestID
	n.RelatedQuestTitle = p.QuestTitle
}

// UserPayload correlates a notification to another user only.
type UserPayload struct {
	Wallet string
	Name   string
}

func (p UserPayload) correlation() models.Correlation {
	return models.Correlation{UserWallet: p.Wallet}
}

func (p UserPayload) apply(n *models.Notification) {
	n.RelatedUserWalletAddress = p.Wallet
	n.RelatedUserName = p.Name
}

// Notifier creates and merges user-facing notifications. Creation is
// fire-and-forget: every failure is logged and swallowed so notification
// delivery can never fail the primary operation it is attached to.
type Notifier struct {
	store   NotificationStore
	log     *zap.Logger
	deliver func(models.Notification)
	now     func() time.Time
	newID   func() string
}

func NewNotifier(store NotificationStore, log *zap.Logger) *Notifier {
	return &Notifier{
		store: store,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// OnDeliver registers the best-effort delivery hook, called after an
// insert or merge. The notifier knows nothing about the delivery channel.
func (n *Notifier) OnDeliver(fn func(models.Notification)) { n.deliver = fn }

// Create inserts a notification, or — when an unread notification with the
// same (recipient, type) and most specific correlation key exists — merges
// the new title and message into it in place. A user who ignores repeated
// notices of the same kind sees one notification with the latest content,
// not a pile of duplicates.
func (n *Notifier) Create(ctx context.Context, recipient string, typ models.NotificationType, title, message string, payload Payload) {
	corr := models.Correlation{}
	if payload != nil {
		corr = payload.correlation()
	}

	existing, err := n.store.FindUnread(ctx, recipient, typ, corr)
	if err != nil {
		n.log.Error("notification dedupe lookup failed",
			zap.String("recipient", recipient), zap.String("type", string(typ)), zap.Error(err))
		return
	}
	now := n.now()
	if existing != nil {
		if err := n.store.Refresh(ctx, existing.NotificationID, title, message, now); err != nil {
			n.log.Error("notification merge failed",
				zap.String("notificationId", existing.NotificationID), zap.Error(err))
			return
		}
		existing.Title = title
		existing.Message = message
		existing.UpdatedAt = now
		n.dispatch(*existing)
		return
	}

	notif := models.Notification{
		NotificationID:         n.newID(),
		RecipientWalletAddress: recipient,
		Type:                   typ,
		Title:                  title,
		Message:                message,
		IsRead:                 false,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if payload != nil {
		payload.apply(&notif)
	}
	if err := n.store.Insert(ctx, &notif); err != nil {
		n.log.Error("notification insert failed",
			zap.String("recipient", recipient), zap.String("type", string(typ)), zap.Error(err))
		return
	}
	n.dispatch(notif)
}

func (n *Notifier) dispatch(notif models.Notification) {
	if n.deliver == nil {
		return
	}
	// Delivery failures are the collaborator's problem; never wait on it.
	go n.deliver(notif)
}

// ListFor returns the recipient's notifications, newest first.
func (n *Notifier) ListFor(ctx context.Context, recipient string, limit int64) ([]models.Notification, error) {
	return n.store.ListFor(ctx, recipient, limit)
}

func (n *Notifier) CountUnread(ctx context.Context, recipient string) (int64, error) {
	return n.store.CountUnread(ctx, recipient)
}

// MarkRead flips one of the recipient's notifications to read.
func (n *Notifier) MarkRead(ctx context.Context, recipient, notificationID string) error {
	matched, err := n.store.MarkRead(ctx, recipient, notificationID)
	if err != nil {
		return err
	}
	if !matched {
		return ErrNotFound("notification not found")
	}
	return nil
}

// MarkAllRead flips all of the recipient's unread notifications and
// returns how many were updated.
func (n *Notifier) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	return n.store.MarkAllRead(ctx, recipient)
}
