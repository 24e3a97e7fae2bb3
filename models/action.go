package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is an append-only audit record. It is never mutated after insert
// and doubles as a reconciliation source for one-time actions when the
// user document's completedActions set needs repair.
type Action struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WalletAddress string             `bson:"walletAddress" json:"walletAddress"`
	ActionType    string             `bson:"actionType" json:"actionType"`
	PointsAwarded int64              `bson:"pointsAwarded" json:"pointsAwarded"`
	Timestamp     time.Time          `bson:"timestamp" json:"timestamp"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Metadata      map[string]any     `bson:"metadata,omitempty" json:"metadata,omitempty"`
}

// JobLock is a lease document bounding a scheduled job to one running
// instance; expiry is the recovery path for a crashed holder.
type JobLock struct {
	JobName   string    `bson:"_id" json:"jobName"`
	LockedBy  string    `bson:"lockedBy" json:"lockedBy"`
	LockedAt  time.Time `bson:"lockedAt" json:"lockedAt"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
}

// PushSubscription stores a browser push endpoint for best-effort
// notification delivery.
type PushSubscription struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WalletAddress string             `bson:"walletAddress" json:"walletAddress"`
	Endpoint      string             `bson:"endpoint" json:"endpoint"`
	Keys          PushKeys           `bson:"keys" json:"keys"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

type PushKeys struct {
	P256dh string `bson:"p256dh" json:"p256dh"`
	Auth   string `bson:"auth" json:"auth"`
}
