package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Locks implements lease locks over the cron_locks collection. The _id is
// the job name, so at most one lease document can exist per job; an
// expired lease is claimable in place.
type Locks struct {
	coll *mongo.Collection
}

// TryAcquire claims the lease for jobName until now+ttl. The upsert
// matches only a missing or expired lease; a live lease held elsewhere
// surfaces as a duplicate-key error, reported as acquired=false.
func (s *Locks) TryAcquire(ctx context.Context, jobName, holder string, ttl time.Duration) (bool, error) {
	now := time.Now()
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": jobName, "expiresAt": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{
			"lockedBy":  holder,
			"lockedAt":  now,
			"expiresAt": now.Add(ttl),
		}},
		options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Release drops the lease if this holder still owns it. Releasing a lease
// that expired and was re-acquired elsewhere is a no-op.
func (s *Locks) Release(ctx context.Context, jobName, holder string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": jobName, "lockedBy": holder})
	return err
}
