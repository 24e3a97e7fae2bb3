package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralBoost is a temporary multiplier attached to a user's referral
// earnings, consumed one use at a time.
type ReferralBoost struct {
	Type          string    `bson:"type" json:"type"`
	Value         float64   `bson:"value" json:"value"`
	RemainingUses int       `bson:"remainingUses" json:"remainingUses"`
	ExpiresAt     time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
}

// User is the identity record. The wallet address is the unique identity
// key; squadId is a back-reference kept consistent with the squad's member
// array by the membership state machine and its repair sweep.
type User struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WalletAddress        string             `bson:"walletAddress" json:"walletAddress"`
	XUserID              string             `bson:"xUserId,omitempty" json:"xUserId,omitempty"`
	XUsername            string             `bson:"xUsername,omitempty" json:"xUsername,omitempty"`
	XProfileImageURL     string             `bson:"xProfileImageUrl,omitempty" json:"xProfileImageUrl,omitempty"`
	Points               int64              `bson:"points" json:"points"`
	CompletedActions     []string           `bson:"completedActions,omitempty" json:"completedActions"`
	SquadID              string             `bson:"squadId,omitempty" json:"squadId,omitempty"`
	ReferralCode         string             `bson:"referralCode,omitempty" json:"referralCode,omitempty"`
	ReferredBy           string             `bson:"referredBy,omitempty" json:"referredBy,omitempty"`
	ReferralsMadeCount   int64              `bson:"referralsMadeCount,omitempty" json:"referralsMadeCount"`
	ActiveReferralBoosts []ReferralBoost    `bson:"activeReferralBoosts,omitempty" json:"activeReferralBoosts,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasCompleted reports whether a one-time action is already recorded on
// the user document.
func (u *User) HasCompleted(action string) bool {
	for _, a := range u.CompletedActions {
		if a == action {
			return true
		}
	}
	return false
}
