package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"squadbase/middleware"
)

// MyNotifications lists the caller's notifications, newest first.
func (a *API) MyNotifications(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	notifications, err := a.Notifier.ListFor(ctx, middleware.CallerWallet(c), limit)
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// UnreadCount returns the caller's unread notification count.
func (a *API) UnreadCount(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	count, err := a.Notifier.CountUnread(ctx, middleware.CallerWallet(c))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": count})
}

// MarkNotificationRead flips one notification to read.
func (a *API) MarkNotificationRead(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := a.Notifier.MarkRead(ctx, middleware.CallerWallet(c), c.Param("notificationId")); err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead flips every unread notification.
func (a *API) MarkAllNotificationsRead(c *gin.Context) {
	ctx, cancel := reqCtx(c)
	defer cancel()

	updated, err := a.Notifier.MarkAllRead(ctx, middleware.CallerWallet(c))
	if err != nil {
		a.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
