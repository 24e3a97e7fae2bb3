package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"squadbase/models"
)

// Notifications implements services.NotificationStore.
type Notifications struct {
	coll *mongo.Collection
}

func (s *Notifications) FindUnread(ctx context.Context, recipient string, typ models.NotificationType, c models.Correlation) (*models.Notification, error) {
	filter := bson.M{
		"recipientWalletAddress": recipient,
		"type":                   typ,
		"isRead":                 false,
	}
	if field, value := c.MostSpecific(); field != "" {
		filter[field] = value
	}
	return one[models.Notification](s.coll.FindOne(ctx, filter))
}

func (s *Notifications) Insert(ctx context.Context, n *models.Notification) error {
	_, err := s.coll.InsertOne(ctx, n)
	return err
}

func (s *Notifications) Refresh(ctx context.Context, notificationID, title, message string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"notificationId": notificationID},
		bson.M{"$set": bson.M{"title": title, "message": message, "updatedAt": at}})
	return err
}

func (s *Notifications) ListFor(ctx context.Context, recipient string, limit int64) ([]models.Notification, error) {
	cur, err := s.coll.Find(ctx,
		bson.M{"recipientWalletAddress": recipient},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	return all[models.Notification](ctx, cur, err)
}

func (s *Notifications) CountUnread(ctx context.Context, recipient string) (int64, error) {
	return s.coll.CountDocuments(ctx, bson.M{
		"recipientWalletAddress": recipient,
		"isRead":                 false,
	})
}

func (s *Notifications) MarkRead(ctx context.Context, recipient, notificationID string) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"notificationId": notificationID, "recipientWalletAddress": recipient},
		bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now()}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *Notifications) MarkAllRead(ctx context.Context, recipient string) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{"recipientWalletAddress": recipient, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true, "updatedAt": time.Now()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
