package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"squadbase/database"
	"squadbase/middleware"
	"squadbase/models"
)

// PushService delivers notifications to browser push endpoints. It plugs
// into the notifier's delivery hook; everything here is best-effort.
type PushService struct {
	subs *database.PushSubs
	log  *zap.Logger
}

func NewPushService(subs *database.PushSubs, log *zap.Logger) *PushService {
	return &PushService{subs: subs, log: log}
}

// Deliver sends a notification to every subscription the recipient has.
// Dead endpoints (404/410) are pruned on the way.
func (p *PushService) Deliver(n models.Notification) {
	privateKey := os.Getenv("VAPID_PRIVATE_KEY")
	if privateKey == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	subs, err := p.subs.ListByWallet(ctx, n.RecipientWalletAddress)
	if err != nil {
		p.log.Warn("failed to load push subscriptions",
			zap.String("wallet", n.RecipientWalletAddress), zap.Error(err))
		return
	}

	payload, err := json.Marshal(map[string]any{
		"title":  n.Title,
		"body":   n.Message,
		"type":   n.Type,
		"ctaUrl": n.CtaURL,
	})
	if err != nil {
		return
	}

	for _, sub := range subs {
		resp, err := webpush.SendNotification(payload, &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.Keys.P256dh,
				Auth:   sub.Keys.Auth,
			},
		}, &webpush.Options{
			Subscriber:      os.Getenv("VAPID_SUBSCRIBER"),
			VAPIDPublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
			VAPIDPrivateKey: privateKey,
			TTL:             60,
		})
		if err != nil {
			p.log.Warn("push delivery failed",
				zap.String("wallet", n.RecipientWalletAddress), zap.Error(err))
			continue
		}
		if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
			if err := p.subs.Remove(ctx, sub.Endpoint); err != nil {
				p.log.Warn("failed to prune dead push endpoint", zap.Error(err))
			}
		}
		resp.Body.Close()
	}
}

// GetVapidPublicKey exposes the public key browsers need to subscribe.
func (a *API) GetVapidPublicKey(c *gin.Context) {
	publicKey := os.Getenv("VAPID_PUBLIC_KEY")
	if publicKey == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": publicKey})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// SubscribePush registers a browser push subscription for the caller.
func (a *API) SubscribePush(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	sub := &models.PushSubscription{
		WalletAddress: middleware.CallerWallet(c),
		Endpoint:      req.Endpoint,
		Keys: models.PushKeys{
			P256dh: req.Keys.P256dh,
			Auth:   req.Keys.Auth,
		},
	}
	if err := a.DB.PushSubs.Upsert(ctx, sub); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Push subscription saved"})
}
