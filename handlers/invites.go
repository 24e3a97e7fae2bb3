package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"squadbase/middleware"
)

type sendInviteRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// SendInvite invites a wallet to the caller's squad. Leader only.
func (a *API) SendInvite(c *gin.Context) {
	var req sendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv, err := a.Squads.SendInvite(ctx, middleware.CallerWallet(c), c.Param("squadId"), req.WalletAddress)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": inv})
}

// AcceptInvite joins the caller to the inviting squad.
func (a *API) AcceptInvite(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	squad, err := a.Squads.AcceptInvite(ctx, middleware.CallerWallet(c), c.Param("invitationId"))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"squad": squad})
}

// DeclineInvite rejects a pending invitation addressed to the caller.
func (a *API) DeclineInvite(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Squads.DeclineInvite(ctx, middleware.CallerWallet(c), c.Param("invitationId")); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation declined"})
}

// RevokeInvite withdraws a pending invitation the caller sent.
func (a *API) RevokeInvite(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Squads.RevokeInvite(ctx, middleware.CallerWallet(c), c.Param("invitationId")); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invitation revoked"})
}

// MyPendingInvites lists pending invitations addressed to the caller.
func (a *API) MyPendingInvites(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	invites, err := a.Squads.PendingInvitesFor(ctx, middleware.CallerWallet(c))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": invites})
}

type joinRequestRequest struct {
	Message string `json:"message"`
}

// RequestJoin asks to join a squad.
func (a *API) RequestJoin(c *gin.Context) {
	var req joinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	jr, err := a.Squads.RequestJoin(ctx, middleware.CallerWallet(c), c.Param("squadId"), req.Message)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"joinRequest": jr})
}

// ApproveJoin accepts a pending join request. Leader only.
func (a *API) ApproveJoin(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	squad, err := a.Squads.ApproveJoin(ctx, middleware.CallerWallet(c), c.Param("requestId"))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"squad": squad})
}

// RejectJoin declines a pending join request. Leader only.
func (a *API) RejectJoin(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Squads.RejectJoin(ctx, middleware.CallerWallet(c), c.Param("requestId")); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Join request rejected"})
}

// CancelJoin withdraws the caller's own pending join request.
func (a *API) CancelJoin(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Squads.CancelJoin(ctx, middleware.CallerWallet(c), c.Param("requestId")); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Join request cancelled"})
}

// MyPendingJoinRequests lists the caller's pending join requests.
func (a *API) MyPendingJoinRequests(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	requests, err := a.Squads.PendingRequestsFor(ctx, middleware.CallerWallet(c))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"joinRequests": requests})
}

// SquadJoinRequests lists a squad's pending join requests. Leader only.
func (a *API) SquadJoinRequests(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	requests, err := a.Squads.PendingRequestsForSquad(ctx, middleware.CallerWallet(c), c.Param("squadId"))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"joinRequests": requests})
}
