package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"squadbase/middleware"
)

type createSquadRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateSquad forms a squad with the caller as leader.
func (a *API) CreateSquad(c *gin.Context) {
	var req createSquadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	squad, err := a.Squads.Create(ctx, middleware.CallerWallet(c), req.Name, req.Description)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"squad": squad})
}

// MySquad returns the caller's squad with member profiles.
func (a *API) MySquad(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	details, err := a.Squads.MySquad(ctx, middleware.CallerWallet(c))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// SquadDetails returns any squad with member profiles.
func (a *API) SquadDetails(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	details, err := a.Squads.Details(ctx, c.Param("squadId"))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// SquadLeaderboard returns the top squads by cached points.
func (a *API) SquadLeaderboard(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	squads, err := a.Squads.Leaderboard(ctx, limit)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"squads": squads})
}

// LeaveSquad removes the caller from their squad.
func (a *API) LeaveSquad(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Squads.Leave(ctx, middleware.CallerWallet(c)); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "You have left the squad"})
}

type kickRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// KickMember removes a member from the caller's squad. Leader only.
func (a *API) KickMember(c *gin.Context) {
	var req kickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Squads.Kick(ctx, middleware.CallerWallet(c), c.Param("squadId"), req.WalletAddress); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

type transferLeaderRequest struct {
	NewLeaderWalletAddress string `json:"newLeaderWalletAddress" binding:"required"`
}

// TransferLeadership hands the caller's squad to another member.
func (a *API) TransferLeadership(c *gin.Context) {
	var req transferLeaderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Squads.TransferLeadership(ctx, middleware.CallerWallet(c), c.Param("squadId"), req.NewLeaderWalletAddress); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Leadership transferred"})
}

// FixMembership repairs the caller's squad membership state.
func (a *API) FixMembership(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := a.Squads.FixMembership(ctx, middleware.CallerWallet(c))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
