package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"squadbase/models"
)

// Users implements services.UserStore on the users collection.
type Users struct {
	coll *mongo.Collection
}

func (s *Users) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	return one[models.User](s.coll.FindOne(ctx, bson.M{"walletAddress": wallet}))
}

func (s *Users) GetByID(ctx context.Context, hexID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		return nil, nil
	}
	return one[models.User](s.coll.FindOne(ctx, bson.M{"_id": oid}))
}

func (s *Users) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	return one[models.User](s.coll.FindOne(ctx, bson.M{"referralCode": code}))
}

func (s *Users) Insert(ctx context.Context, user *models.User) error {
	res, err := s.coll.InsertOne(ctx, user)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return nil
}

func (s *Users) IncrementPoints(ctx context.Context, wallet string, delta int64, completedAction string) (*models.User, error) {
	update := bson.M{
		"$inc": bson.M{"points": delta},
		"$set": bson.M{"updatedAt": time.Now()},
	}
	if completedAction != "" {
		update["$addToSet"] = bson.M{"completedActions": completedAction}
	}
	return one[models.User](s.coll.FindOneAndUpdate(ctx,
		bson.M{"walletAddress": wallet},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)))
}

func (s *Users) AwardOnce(ctx context.Context, wallet string, action string, delta int64) (*models.User, bool, error) {
	user, err := one[models.User](s.coll.FindOneAndUpdate(ctx,
		bson.M{"walletAddress": wallet, "completedActions": bson.M{"$ne": action}},
		bson.M{
			"$inc":      bson.M{"points": delta},
			"$addToSet": bson.M{"completedActions": action},
			"$set":      bson.M{"updatedAt": time.Now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After)))
	if err != nil {
		return nil, false, err
	}
	return user, user != nil, nil
}

func (s *Users) LinkReferral(ctx context.Context, wallet, referrerWallet string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"walletAddress": wallet, "referredBy": bson.M{"$in": bson.A{nil, ""}}},
		bson.M{"$set": bson.M{"referredBy": referrerWallet, "updatedAt": time.Now()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *Users) IncrementReferralsMade(ctx context.Context, wallet string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"walletAddress": wallet},
		bson.M{"$inc": bson.M{"referralsMadeCount": 1}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

// ConsumeBoost decrements one use from the first live boost of the given
// type. The filter requires remaining uses and a live expiry, so an
// exhausted or expired boost never matches.
func (s *Users) ConsumeBoost(ctx context.Context, wallet, boostType string, now time.Time) (*models.ReferralBoost, error) {
	user, err := one[models.User](s.coll.FindOneAndUpdate(ctx,
		bson.M{
			"walletAddress": wallet,
			"activeReferralBoosts": bson.M{"$elemMatch": bson.M{
				"type":          boostType,
				"remainingUses": bson.M{"$gt": 0},
				"expiresAt":     bson.M{"$gt": now},
			}},
		},
		bson.M{
			"$inc": bson.M{"activeReferralBoosts.$.remainingUses": -1},
			"$set": bson.M{"updatedAt": now},
		}))
	if err != nil || user == nil {
		return nil, err
	}
	// Pre-update document: return the boost as it was before the decrement.
	for i := range user.ActiveReferralBoosts {
		b := user.ActiveReferralBoosts[i]
		if b.Type == boostType && b.RemainingUses > 0 && b.ExpiresAt.After(now) {
			return &b, nil
		}
	}
	return nil, nil
}

func (s *Users) SetSquad(ctx context.Context, wallet, squadID string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"walletAddress": wallet},
		bson.M{"$set": bson.M{"squadId": squadID, "updatedAt": time.Now()}})
	return err
}

func (s *Users) ClearSquad(ctx context.Context, wallet string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"walletAddress": wallet},
		bson.M{"$unset": bson.M{"squadId": ""}, "$set": bson.M{"updatedAt": time.Now()}})
	return err
}

func (s *Users) ListByWallets(ctx context.Context, wallets []string) ([]models.User, error) {
	if len(wallets) == 0 {
		return nil, nil
	}
	cur, err := s.coll.Find(ctx, bson.M{"walletAddress": bson.M{"$in": wallets}})
	return all[models.User](ctx, cur, err)
}

func (s *Users) ListWithSquad(ctx context.Context) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{"squadId": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}})
	return all[models.User](ctx, cur, err)
}

func (s *Users) TopByPoints(ctx context.Context, limit int64) ([]models.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "points", Value: -1}}).SetLimit(limit))
	return all[models.User](ctx, cur, err)
}
