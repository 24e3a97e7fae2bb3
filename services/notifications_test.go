package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"squadbase/models"
)

func newTestNotifier() (*Notifier, *memNotifications) {
	store := newMemNotifications()
	return NewNotifier(store, zap.NewNop()), store
}

func TestCreateDedupeMergesUnread(t *testing.T) {
	notifier, store := newTestNotifier()
	ctx := context.Background()

	payload := InvitePayload{InvitationID: "inv-1", SquadID: "sq-1", SquadName: "alpha"}
	notifier.Create(ctx, "wallet-a", models.NotifSquadInviteReceived, "Invitation", "first message", payload)
	notifier.Create(ctx, "wallet-a", models.NotifSquadInviteReceived, "Invitation", "second message", payload)

	docs := store.allFor("wallet-a")
	require.Len(t, docs, 1)
	require.Equal(t, "second message", docs[0].Message)
	require.False(t, docs[0].UpdatedAt.IsZero())
}

func TestCreateDistinctCorrelationInsertsSeparately(t *testing.T) {
	notifier, store := newTestNotifier()
	ctx := context.Background()

	notifier.Create(ctx, "wallet-a", models.NotifSquadInviteReceived, "Invitation", "from alpha",
		InvitePayload{InvitationID: "inv-1", SquadID: "sq-1"})
	notifier.Create(ctx, "wallet-a", models.NotifSquadInviteReceived, "Invitation", "from beta",
		InvitePayload{InvitationID: "inv-2", SquadID: "sq-2"})

	require.Len(t, store.allFor("wallet-a"), 2)
}

func TestCreateAfterReadInsertsFresh(t *testing.T) {
	notifier, store := newTestNotifier()
	ctx := context.Background()

	payload := QuestPayload{QuestID: "q-1", QuestTitle: "daily"}
	notifier.Create(ctx, "wallet-a", models.NotifQuestRewardReceived, "Reward", "first", payload)

	docs := store.allFor("wallet-a")
	require.Len(t, docs, 1)
	_, err := store.MarkRead(ctx, "wallet-a", docs[0].NotificationID)
	require.NoError(t, err)

	notifier.Create(ctx, "wallet-a", models.NotifQuestRewardReceived, "Reward", "second", payload)
	require.Len(t, store.allFor("wallet-a"), 2)
}

func TestPayloadCorrelationPriority(t *testing.T) {
	field, value := models.Correlation{InvitationID: "inv", QuestID: "q", SquadID: "sq"}.MostSpecific()
	require.Equal(t, "relatedInvitationId", field)
	require.Equal(t, "inv", value)

	field, value = models.Correlation{QuestID: "q", SquadID: "sq"}.MostSpecific()
	require.Equal(t, "relatedQuestId", field)
	require.Equal(t, "q", value)

	field, value = models.Correlation{SquadID: "sq"}.MostSpecific()
	require.Equal(t, "relatedSquadId", field)
	require.Equal(t, "sq", value)

	field, _ = models.Correlation{UserWallet: "w"}.MostSpecific()
	require.Empty(t, field)
}

func TestPayloadAppliesOnlyItsFields(t *testing.T) {
	notifier, store := newTestNotifier()
	ctx := context.Background()

	notifier.Create(ctx, "wallet-a", models.NotifQuestRewardReceived, "Reward", "msg",
		QuestPayload{QuestID: "q-1", QuestTitle: "daily"})

	docs := store.allFor("wallet-a")
	require.Len(t, docs, 1)
	require.Equal(t, "q-1", docs[0].RelatedQuestID)
	require.Empty(t, docs[0].RelatedInvitationID)
	require.Empty(t, docs[0].RelatedSquadID)
}

func TestMarkReadUnknownID(t *testing.T) {
	notifier, _ := newTestNotifier()

	err := notifier.MarkRead(context.Background(), "wallet-a", "nope")
	require.True(t, IsNotFound(err))
}

func TestMarkAllReadCountsUpdates(t *testing.T) {
	notifier, _ := newTestNotifier()
	ctx := context.Background()

	notifier.Create(ctx, "wallet-a", models.NotifSquadMemberJoined, "a", "a", SquadPayload{SquadID: "sq-1"})
	notifier.Create(ctx, "wallet-a", models.NotifSquadMemberLeft, "b", "b", SquadPayload{SquadID: "sq-1"})

	count, err := notifier.CountUnread(ctx, "wallet-a")
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	updated, err := notifier.MarkAllRead(ctx, "wallet-a")
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	count, err = notifier.CountUnread(ctx, "wallet-a")
	require.NoError(t, err)
	require.Zero(t, count)
}
