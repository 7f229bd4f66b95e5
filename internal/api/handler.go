package api

import (
	"context"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"laundry-coordinator/internal/engine"
	"laundry-coordinator/internal/log"
	"laundry-coordinator/internal/model"
	"laundry-coordinator/internal/mw"
	"laundry-coordinator/internal/store"
)

// Commands is the engine surface exposed over HTTP.
type Commands interface {
	Start(ctx context.Context, machineID, userID string, minutes int) (engine.Result, error)
	Override(ctx context.Context, machineID, userID string, minutes int) (engine.Result, error)
	StopPropose(ctx context.Context, machineID, userID string) (engine.Result, error)
	StopConfirm(ctx context.Context, machineID, userID string) (engine.Result, error)
	ForceStop(ctx context.Context, machineID, userID string) (engine.Result, error)
	Collect(ctx context.Context, machineID, userID string) (engine.Result, error)
	Ping(ctx context.Context, machineID, userID string) (engine.Result, error)
	Status(level string) []model.Machine
	Get(machineID string) (model.Machine, error)
	Now() time.Time
}

// IdentityCache is told when a profile changes.
type IdentityCache interface {
	Invalidate(userID string)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	engine     Commands
	store      store.Store
	identities IdentityCache
	webpush    *webpush.Options
	logger     zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(cmds Commands, s store.Store, identities IdentityCache, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		engine:     cmds,
		store:      s,
		identities: identities,
		webpush:    webpushOptions,
		logger:     log.WithComponent("api"),
	}
}

// callerID returns the asserted user id, or "" after answering 400.
func callerID(c *gin.Context) string {
	id := c.GetHeader(mw.UserIDHeader)
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": mw.UserIDHeader + " header is required"})
	}
	return id
}
