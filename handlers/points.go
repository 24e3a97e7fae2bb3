package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"squadbase/middleware"
	"squadbase/services"
)

// MyPoints returns the caller's balance and audit trail head.
func (a *API) MyPoints(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	wallet := middleware.CallerWallet(c)
	user, err := a.Users.GetByWallet(ctx, wallet)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	recent, err := a.Actions.ListByWallet(ctx, wallet, 20)
	if err != nil {
		a.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"points":             user.Points,
		"completedActions":   user.CompletedActions,
		"referralCode":       user.ReferralCode,
		"referralsMadeCount": user.ReferralsMadeCount,
		"recentActions":      recent,
	})
}

type logActionRequest struct {
	ActionType string `json:"actionType" binding:"required"`
}

// LogAction records a rewarded user action for the caller.
func (a *API) LogAction(c *gin.Context) {
	var req logActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := a.Rules.RecordAction(ctx, middleware.CallerWallet(c), services.ActionType(req.ActionType))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type registerReferralRequest struct {
	ReferralCode string `json:"referralCode" binding:"required"`
}

// RegisterReferral links the caller to the owner of the referral code.
func (a *API) RegisterReferral(c *gin.Context) {
	var req registerReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := a.Rules.RegisterReferral(ctx, middleware.CallerWallet(c), req.ReferralCode)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// UserLeaderboard returns the top users by points.
func (a *API) UserLeaderboard(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	users, err := a.Users.TopByPoints(ctx, limit)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}
