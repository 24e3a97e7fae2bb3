package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"squadbase/models"
)

// PushSubs stores web-push subscriptions, keyed by endpoint.
type PushSubs struct {
	coll *mongo.Collection
}

// Upsert registers or refreshes a subscription for the wallet.
func (s *PushSubs) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"endpoint": sub.Endpoint},
		bson.M{
			"$set": bson.M{
				"walletAddress": sub.WalletAddress,
				"keys":          sub.Keys,
			},
			"$setOnInsert": bson.M{"createdAt": time.Now()},
		},
		options.Update().SetUpsert(true))
	return err
}

func (s *PushSubs) ListByWallet(ctx context.Context, wallet string) ([]models.PushSubscription, error) {
	cur, err := s.coll.Find(ctx, bson.M{"walletAddress": wallet})
	return all[models.PushSubscription](ctx, cur, err)
}

// Remove drops a dead endpoint (404/410 from the push service).
func (s *PushSubs) Remove(ctx context.Context, endpoint string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"endpoint": endpoint})
	return err
}
