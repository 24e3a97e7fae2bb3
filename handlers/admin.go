package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"squadbase/models"
	"squadbase/services"
)

type adminAwardRequest struct {
	WalletAddress string `json:"walletAddress"`
	UserID        string `json:"userId"`
	// Points is a delta unless Absolute is set, in which case the balance
	// is moved to this value.
	Points   int64  `json:"points"`
	Absolute bool   `json:"absolute"`
	Reason   string `json:"reason" binding:"required"`
}

// AdminAwardPoints is the operator's direct ledger access: positive or
// negative deltas, or an absolute correction.
func (a *API) AdminAwardPoints(c *gin.Context) {
	var req adminAwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	id := services.Identity{Wallet: req.WalletAddress, ID: req.UserID}
	opts := services.AwardOptions{Reason: "admin: " + req.Reason, EmitEvent: true}

	var (
		user *models.User
		err  error
	)
	if req.Absolute {
		user, err = a.Ledger.SetPoints(ctx, id, req.Points, opts)
	} else {
		user, err = a.Ledger.AwardPoints(ctx, id, req.Points, opts)
	}
	if err != nil {
		a.respondErr(c, err)
		return
	}

	a.Notifier.Create(ctx, user.WalletAddress, models.NotifPointsAdjusted,
		"Points Adjusted",
		fmt.Sprintf("Your points balance was adjusted: %s", req.Reason),
		nil)

	a.Log.Info("admin points adjustment",
		zap.String("wallet", req.WalletAddress),
		zap.Int64("points", req.Points),
		zap.Bool("absolute", req.Absolute),
		zap.String("reason", req.Reason))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminReconcile runs every correction sweep on demand.
func (a *API) AdminReconcile(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	a.Reconciler.RunAll(ctx)
	c.JSON(http.StatusOK, gin.H{"message": "Reconciliation complete"})
}
