package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"squadbase/models"
)

// JoinRequests implements services.JoinRequestStore on the
// squadJoinRequests collection.
type JoinRequests struct {
	coll *mongo.Collection
}

func (s *JoinRequests) Insert(ctx context.Context, req *models.SquadJoinRequest) error {
	_, err := s.coll.InsertOne(ctx, req)
	return err
}

func (s *JoinRequests) GetByID(ctx context.Context, requestID string) (*models.SquadJoinRequest, error) {
	return one[models.SquadJoinRequest](s.coll.FindOne(ctx, bson.M{"requestId": requestID}))
}

func (s *JoinRequests) FindPending(ctx context.Context, squadID, requester string) (*models.SquadJoinRequest, error) {
	return one[models.SquadJoinRequest](s.coll.FindOne(ctx, bson.M{
		"squadId":                     squadID,
		"requestingUserWalletAddress": requester,
		"status":                      models.JoinRequestStatusPending,
	}))
}

func (s *JoinRequests) ListPendingFor(ctx context.Context, requester string) ([]models.SquadJoinRequest, error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"requestingUserWalletAddress": requester,
		"status":                      models.JoinRequestStatusPending,
	})
	return all[models.SquadJoinRequest](ctx, cur, err)
}

func (s *JoinRequests) ListPendingForSquad(ctx context.Context, squadID string) ([]models.SquadJoinRequest, error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"squadId": squadID,
		"status":  models.JoinRequestStatusPending,
	})
	return all[models.SquadJoinRequest](ctx, cur, err)
}

func (s *JoinRequests) TransitionFromPending(ctx context.Context, requestID, newStatus string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"requestId": requestID, "status": models.JoinRequestStatusPending},
		bson.M{"$set": bson.M{"status": newStatus, "updatedAt": time.Now()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
