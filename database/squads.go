package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"squadbase/models"
)

// Squads implements services.SquadStore on the squads collection.
type Squads struct {
	coll *mongo.Collection
}

func (s *Squads) GetByID(ctx context.Context, squadID string) (*models.Squad, error) {
	return one[models.Squad](s.coll.FindOne(ctx, bson.M{"squadId": squadID}))
}

func (s *Squads) GetByName(ctx context.Context, name string) (*models.Squad, error) {
	return one[models.Squad](s.coll.FindOne(ctx, bson.M{"name": name}))
}

func (s *Squads) Insert(ctx context.Context, squad *models.Squad) error {
	_, err := s.coll.InsertOne(ctx, squad)
	return err
}

func (s *Squads) Delete(ctx context.Context, squadID string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"squadId": squadID})
	return err
}

func (s *Squads) AddMember(ctx context.Context, squadID, wallet string, points int64) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"squadId": squadID},
		bson.M{
			"$addToSet": bson.M{"memberWalletAddresses": wallet},
			"$inc":      bson.M{"totalSquadPoints": points},
			"$set":      bson.M{"updatedAt": time.Now()},
		})
	return err
}

func (s *Squads) RemoveMember(ctx context.Context, squadID, wallet string, points int64) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"squadId": squadID},
		bson.M{
			"$pull": bson.M{"memberWalletAddresses": wallet},
			"$inc":  bson.M{"totalSquadPoints": -points},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	return err
}

func (s *Squads) IncrementPoints(ctx context.Context, squadID string, delta int64) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"squadId": squadID},
		bson.M{"$inc": bson.M{"totalSquadPoints": delta}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

func (s *Squads) SetLeaderIf(ctx context.Context, squadID, currentLeader, newLeader string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"squadId": squadID, "leaderWalletAddress": currentLeader},
		bson.M{"$set": bson.M{"leaderWalletAddress": newLeader, "updatedAt": time.Now()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *Squads) SetTotals(ctx context.Context, squadID string, total int64, tier, maxMembers int) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"squadId": squadID},
		bson.M{"$set": bson.M{
			"totalSquadPoints": total,
			"tier":             tier,
			"maxMembers":       maxMembers,
			"updatedAt":        time.Now(),
		}})
	return err
}

func (s *Squads) ListWithMember(ctx context.Context, wallet string) ([]models.Squad, error) {
	cur, err := s.coll.Find(ctx, bson.M{"memberWalletAddresses": wallet})
	return all[models.Squad](ctx, cur, err)
}

func (s *Squads) ListAll(ctx context.Context) ([]models.Squad, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	return all[models.Squad](ctx, cur, err)
}

func (s *Squads) TopByPoints(ctx context.Context, limit int64) ([]models.Squad, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "totalSquadPoints", Value: -1}}).SetLimit(limit))
	return all[models.Squad](ctx, cur, err)
}
