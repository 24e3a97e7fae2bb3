package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Squad is a user-formed group. The leader is implicitly also a member of
// memberWalletAddresses. totalSquadPoints is a cached aggregate maintained
// incrementally and corrected by the reconciliation sweep.
type Squad struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SquadID               string             `bson:"squadId" json:"squadId"`
	Name                  string             `bson:"name" json:"name"`
	Description           string             `bson:"description,omitempty" json:"description,omitempty"`
	LeaderWalletAddress   string             `bson:"leaderWalletAddress" json:"leaderWalletAddress"`
	MemberWalletAddresses []string           `bson:"memberWalletAddresses" json:"memberWalletAddresses"`
	TotalSquadPoints      int64              `bson:"totalSquadPoints" json:"totalSquadPoints"`
	Tier                  int                `bson:"tier,omitempty" json:"tier"`
	MaxMembers            int                `bson:"maxMembers,omitempty" json:"maxMembers"`
	CreatedAt             time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasMember reports whether the wallet appears in the member array.
func (s *Squad) HasMember(wallet string) bool {
	for _, m := range s.MemberWalletAddresses {
		if m == wallet {
			return true
		}
	}
	return false
}

// Invitation statuses. An invitation makes exactly one transition out of
// pending and never leaves a terminal state.
const (
	InviteStatusPending        = "pending"
	InviteStatusAccepted       = "accepted"
	InviteStatusDeclined       = "declined"
	InviteStatusRevoked        = "revoked"
	InviteStatusInvalidAddress = "invalid_address"
)

// SquadInvitation is a leader-initiated offer of membership.
type SquadInvitation struct {
	ID                         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InvitationID               string             `bson:"invitationId" json:"invitationId"`
	SquadID                    string             `bson:"squadId" json:"squadId"`
	SquadName                  string             `bson:"squadName" json:"squadName"`
	InvitedByUserWalletAddress string             `bson:"invitedByUserWalletAddress" json:"invitedByUserWalletAddress"`
	InvitedUserWalletAddress   string             `bson:"invitedUserWalletAddress" json:"invitedUserWalletAddress"`
	Status                     string             `bson:"status" json:"status"`
	Notes                      string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt                  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt                  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Join request statuses, same single-transition lifecycle as invitations.
const (
	JoinRequestStatusPending   = "pending"
	JoinRequestStatusApproved  = "approved"
	JoinRequestStatusRejected  = "rejected"
	JoinRequestStatusCancelled = "cancelled"
)

// SquadJoinRequest is a user-initiated request for membership. At most one
// pending request may exist per (requester, squad).
type SquadJoinRequest struct {
	ID                          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RequestID                   string             `bson:"requestId" json:"requestId"`
	SquadID                     string             `bson:"squadId" json:"squadId"`
	SquadName                   string             `bson:"squadName" json:"squadName"`
	RequestingUserWalletAddress string             `bson:"requestingUserWalletAddress" json:"requestingUserWalletAddress"`
	RequestingUserXUsername     string             `bson:"requestingUserXUsername,omitempty" json:"requestingUserXUsername,omitempty"`
	Message                     string             `bson:"message,omitempty" json:"message,omitempty"`
	Status                      string             `bson:"status" json:"status"`
	CreatedAt                   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt                   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
