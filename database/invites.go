package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"squadbase/models"
)

// Invites implements services.InviteStore on the squadInvitations
// collection.
type Invites struct {
	coll *mongo.Collection
}

func (s *Invites) Insert(ctx context.Context, inv *models.SquadInvitation) error {
	_, err := s.coll.InsertOne(ctx, inv)
	return err
}

func (s *Invites) GetByID(ctx context.Context, invitationID string) (*models.SquadInvitation, error) {
	return one[models.SquadInvitation](s.coll.FindOne(ctx, bson.M{"invitationId": invitationID}))
}

func (s *Invites) FindPending(ctx context.Context, squadID, invitee string) (*models.SquadInvitation, error) {
	return one[models.SquadInvitation](s.coll.FindOne(ctx, bson.M{
		"squadId":                  squadID,
		"invitedUserWalletAddress": invitee,
		"status":                   models.InviteStatusPending,
	}))
}

func (s *Invites) ListPendingFor(ctx context.Context, invitee string) ([]models.SquadInvitation, error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"invitedUserWalletAddress": invitee,
		"status":                   models.InviteStatusPending,
	})
	return all[models.SquadInvitation](ctx, cur, err)
}

func (s *Invites) ListPending(ctx context.Context) ([]models.SquadInvitation, error) {
	cur, err := s.coll.Find(ctx, bson.M{"status": models.InviteStatusPending})
	return all[models.SquadInvitation](ctx, cur, err)
}

func (s *Invites) TransitionFromPending(ctx context.Context, invitationID, newStatus, notes string) (bool, error) {
	set := bson.M{"status": newStatus, "updatedAt": time.Now()}
	if notes != "" {
		set["notes"] = notes
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"invitationId": invitationID, "status": models.InviteStatusPending},
		bson.M{"$set": set})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}
