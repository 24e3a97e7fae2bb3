package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType enumerates the user-facing notification kinds this
// backend emits.
type NotificationType string

const (
	NotifSquadInviteReceived       NotificationType = "squad_invite_received"
	NotifSquadInviteAccepted       NotificationType = "squad_invite_accepted"
	NotifSquadInviteDeclined       NotificationType = "squad_invite_declined"
	NotifSquadInviteRevoked        NotificationType = "squad_invite_revoked"
	NotifSquadJoinRequestReceived  NotificationType = "squad_join_request_received"
	NotifSquadJoinRequestApproved  NotificationType = "squad_join_request_approved"
	NotifSquadJoinRequestRejected  NotificationType = "squad_join_request_rejected"
	NotifSquadJoinRequestCancelled NotificationType = "squad_join_request_cancelled"
	NotifSquadMemberJoined         NotificationType = "squad_member_joined"
	NotifSquadMemberLeft           NotificationType = "squad_member_left"
	NotifSquadKicked               NotificationType = "squad_kicked"
	NotifSquadLeaderChanged        NotificationType = "squad_leader_changed"
	NotifSquadDisbanded            NotificationType = "squad_disbanded"
	NotifQuestRewardReceived       NotificationType = "quest_reward_received"
	NotifPointsAdjusted            NotificationType = "points_adjusted"
)

// Notification is mutated only to flip isRead or to refresh its content on
// a dedupe merge.
type Notification struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NotificationID           string             `bson:"notificationId" json:"notificationId"`
	RecipientWalletAddress   string             `bson:"recipientWalletAddress" json:"recipientWalletAddress"`
	Type                     NotificationType   `bson:"type" json:"type"`
	Title                    string             `bson:"title" json:"title"`
	Message                  string             `bson:"message" json:"message"`
	CtaURL                   string             `bson:"ctaUrl,omitempty" json:"ctaUrl,omitempty"`
	IsRead                   bool               `bson:"isRead" json:"isRead"`
	RelatedQuestID           string             `bson:"relatedQuestId,omitempty" json:"relatedQuestId,omitempty"`
	RelatedQuestTitle        string             `bson:"relatedQuestTitle,omitempty" json:"relatedQuestTitle,omitempty"`
	RelatedSquadID           string             `bson:"relatedSquadId,omitempty" json:"relatedSquadId,omitempty"`
	RelatedSquadName         string             `bson:"relatedSquadName,omitempty" json:"relatedSquadName,omitempty"`
	RelatedUserWalletAddress string             `bson:"relatedUserWalletAddress,omitempty" json:"relatedUserWalletAddress,omitempty"`
	RelatedUserName          string             `bson:"relatedUserName,omitempty" json:"relatedUserName,omitempty"`
	RelatedInvitationID      string             `bson:"relatedInvitationId,omitempty" json:"relatedInvitationId,omitempty"`
	CreatedAt                time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt                time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Correlation holds the optional keys that decide whether two
// notifications refer to the same underlying event.
type Correlation struct {
	InvitationID string
	QuestID      string
	SquadID      string
	UserWallet   string
}

// MostSpecific returns the dedupe-refining key in priority order:
// invitation > quest > squad. The empty field/value pair means the
// (recipient, type, unread) base key is used alone.
func (c Correlation) MostSpecific() (field, value string) {
	switch {
	case c.InvitationID != "":
		return "relatedInvitationId", c.InvitationID
	case c.QuestID != "":
		return "relatedQuestId", c.QuestID
	case c.SquadID != "":
		return "relatedSquadId", c.SquadID
	}
	return "", ""
}
