package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"squadbase/database"
	"squadbase/services"
	"squadbase/workers"
)

// API bundles the services behind the HTTP surface.
type API struct {
	Ledger     *services.Ledger
	Rules      *services.Rules
	Squads     *services.Squads
	Notifier   *services.Notifier
	Users      services.UserStore
	Actions    services.ActionStore
	Push       *PushService
	Reconciler *workers.Reconciler
	DB         *database.DB
	Log        *zap.Logger
}

// reqCtx bounds a handler's database work.
func reqCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), 10*time.Second)
}

// respondErr maps service errors onto HTTP statuses. Anything that is not
// a typed business failure is an internal error.
func (a *API) respondErr(c *gin.Context, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		status := http.StatusInternalServerError
		switch svcErr.Kind {
		case services.KindNotFound:
			status = http.StatusNotFound
		case services.KindConflict:
			status = http.StatusConflict
		case services.KindForbidden:
			status = http.StatusForbidden
		case services.KindValidation:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": svcErr.Message})
		return
	}
	a.Log.Error("request failed",
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
