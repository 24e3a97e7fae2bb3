package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"squadbase/middleware"
	"squadbase/models"
	"squadbase/services"
)

type walletLoginRequest struct {
	WalletAddress    string `json:"walletAddress" binding:"required"`
	XUsername        string `json:"xUsername"`
	XProfileImageURL string `json:"xProfileImageUrl"`
}

// WalletLogin authenticates by wallet address, creating the user document
// on first contact, and issues a bearer token.
func (a *API) WalletLogin(c *gin.Context) {
	var req walletLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !services.ValidWalletAddress(req.WalletAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	user, err := a.Users.GetByWallet(ctx, req.WalletAddress)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	if user == nil {
		now := time.Now()
		user = &models.User{
			WalletAddress:    req.WalletAddress,
			XUserID:          req.WalletAddress,
			XUsername:        req.XUsername,
			XProfileImageURL: req.XProfileImageURL,
			Points:           0,
			CompletedActions: []string{},
			ReferralCode:     newReferralCode(),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := a.Users.Insert(ctx, user); err != nil {
			a.respondErr(c, err)
			return
		}
		a.Log.Info("created user on first wallet login", zap.String("wallet", user.WalletAddress))
	}

	token, err := middleware.IssueToken(user.WalletAddress, 24*time.Hour)
	if err != nil {
		a.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// newReferralCode derives a short shareable code.
func newReferralCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
