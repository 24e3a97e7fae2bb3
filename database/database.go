package database

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DB bundles the Mongo client and the per-collection stores the services
// consume.
type DB struct {
	client *mongo.Client
	log    *zap.Logger

	Users         *Users
	Squads        *Squads
	Invites       *Invites
	JoinRequests  *JoinRequests
	Notifications *Notifications
	Actions       *Actions
	Locks         *Locks
	PushSubs      *PushSubs
}

// Connect dials MongoDB with a few retries, pings it, and wires the
// collection handles. MONGODB_URI and MONGODB_DB come from the
// environment with localhost defaults.
func Connect(ctx context.Context, log *zap.Logger) (*DB, error) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Warn("MONGODB_URI not set, using default localhost")
		uri = "mongodb://127.0.0.1:27017"
	}
	name := os.Getenv("MONGODB_DB")
	if name == "" {
		name = "squadbase"
	}

	var client *mongo.Client
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		client, err = mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
		if err == nil {
			err = client.Ping(dialCtx, nil)
		}
		cancel()
		if err == nil {
			break
		}
		log.Warn("mongo connection attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, err
	}

	d := client.Database(name)
	db := &DB{
		client:        client,
		log:           log,
		Users:         &Users{coll: d.Collection("users")},
		Squads:        &Squads{coll: d.Collection("squads")},
		Invites:       &Invites{coll: d.Collection("squadInvitations")},
		JoinRequests:  &JoinRequests{coll: d.Collection("squadJoinRequests")},
		Notifications: &Notifications{coll: d.Collection("notifications")},
		Actions:       &Actions{coll: d.Collection("actions")},
		Locks:         &Locks{coll: d.Collection("cron_locks")},
		PushSubs:      &PushSubs{coll: d.Collection("push_subscriptions")},
	}
	log.Info("connected to MongoDB", zap.String("database", name))
	return db, nil
}

// EnsureIndexes creates the indexes every query path depends on.
// Idempotent; safe to run at every startup.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for coll, models := range map[*mongo.Collection][]mongo.IndexModel{
		db.Users.coll: {
			{Keys: bson.D{{Key: "walletAddress", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "referralCode", Value: 1}}, Options: options.Index().SetSparse(true)},
			{Keys: bson.D{{Key: "points", Value: -1}}},
		},
		db.Squads.coll: {
			{Keys: bson.D{{Key: "squadId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "memberWalletAddresses", Value: 1}}},
			{Keys: bson.D{{Key: "totalSquadPoints", Value: -1}}},
		},
		db.Invites.coll: {
			{Keys: bson.D{{Key: "invitationId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "invitedUserWalletAddress", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "squadId", Value: 1}, {Key: "status", Value: 1}}},
		},
		db.JoinRequests.coll: {
			{Keys: bson.D{{Key: "requestId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "requestingUserWalletAddress", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "squadId", Value: 1}, {Key: "status", Value: 1}}},
		},
		db.Notifications.coll: {
			{Keys: bson.D{{Key: "notificationId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "recipientWalletAddress", Value: 1}, {Key: "isRead", Value: 1}, {Key: "type", Value: 1}}},
			{Keys: bson.D{{Key: "recipientWalletAddress", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		db.Actions.coll: {
			{Keys: bson.D{{Key: "walletAddress", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "walletAddress", Value: 1}, {Key: "actionType", Value: 1}}},
		},
		db.PushSubs.coll: {
			{Keys: bson.D{{Key: "walletAddress", Value: 1}}},
			{Keys: bson.D{{Key: "endpoint", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	} {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// Disconnect closes the client.
func (db *DB) Disconnect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// one decodes a single-document result, mapping ErrNoDocuments to
// (nil, nil) per the store contract.
func one[T any](res *mongo.SingleResult) (*T, error) {
	var doc T
	if err := res.Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// all drains a cursor into a slice.
func all[T any](ctx context.Context, cur *mongo.Cursor, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}
