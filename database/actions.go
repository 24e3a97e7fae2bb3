package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"squadbase/models"
)

// Actions implements services.ActionStore on the append-only actions
// collection.
type Actions struct {
	coll *mongo.Collection
}

func (s *Actions) Insert(ctx context.Context, a *models.Action) error {
	_, err := s.coll.InsertOne(ctx, a)
	return err
}

func (s *Actions) ListByWallet(ctx context.Context, wallet string, limit int64) ([]models.Action, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"walletAddress": wallet},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit))
	return all[models.Action](ctx, cur, err)
}

func (s *Actions) HasAction(ctx context.Context, wallet, actionType string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx,
		bson.M{"walletAddress": wallet, "actionType": actionType},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
