package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"laundry-coordinator/internal/directory"
	"laundry-coordinator/internal/engine"
	"laundry-coordinator/internal/model"
	"laundry-coordinator/internal/parse"
)

// machineResponse is the snapshot shown to clients.
type machineResponse struct {
	ID                 string     `json:"id"`
	// Label is the short per-level name such as "W1". It does not carry the
	// level; clients combine it with Level.
	Label              string     `json:"label"`
	Kind               model.Kind `json:"kind"`
	Level              string     `json:"level"`
	Status             string     `json:"status"`
	CurrentUser        *string    `json:"current_user"`
	LastUser           *string    `json:"last_user,omitempty"`
	CycleStartedAt     *time.Time `json:"cycle_started_at,omitempty"`
	CycleEndAt         *time.Time `json:"cycle_end_at,omitempty"`
	MinutesRemaining   *int       `json:"minutes_remaining,omitempty"`
	MinutesSinceFinish *int       `json:"minutes_since_finish,omitempty"`
	PendingStopUntil   *time.Time `json:"pending_stop_until,omitempty"`
	LastPingAt         *time.Time `json:"last_ping_at,omitempty"`
}

func newMachineResponse(m model.Machine, now time.Time) machineResponse {
	resp := machineResponse{
		ID:               m.ID,
		Label:            m.Label(),
		Kind:             m.Kind,
		Level:            m.Level,
		Status:           string(m.Status),
		CurrentUser:      m.CurrentUser,
		LastUser:         m.LastUser,
		CycleStartedAt:   m.CycleStartedAt,
		CycleEndAt:       m.CycleEndAt,
		PendingStopUntil: m.PendingStopUntil,
		LastPingAt:       m.LastPingAt,
	}
	if m.CycleEndAt != nil {
		switch m.Status {
		case model.StatusRunning:
			left := engine.MinutesUntil(*m.CycleEndAt, now)
			resp.MinutesRemaining = &left
		case model.StatusFinished:
			since := int(now.Sub(*m.CycleEndAt) / time.Minute)
			if since < 0 {
				since = 0
			}
			resp.MinutesSinceFinish = &since
		}
	}
	return resp
}

type commandResponse struct {
	Machine       machineResponse     `json:"machine"`
	Changed       bool                `json:"changed"`
	Owner         *directory.Identity `json:"owner,omitempty"`
	StopExpiresAt *time.Time          `json:"stop_expires_at,omitempty"`
}

type durationRequest struct {
	DurationMinutes int `json:"duration_minutes" binding:"required"`
}

// machineID resolves the path id. An id known to the registry wins as is;
// otherwise "9-W1"-style ids map onto the canonical "9_washer_1" form.
func (h *Handler) machineID(c *gin.Context) string {
	raw := strings.TrimSpace(c.Param("id"))
	if _, err := h.engine.Get(raw); err == nil {
		return raw
	}
	parsed, err := parse.ParseMachineID(raw)
	if err != nil || parsed.Level == "" {
		return raw
	}
	return parsed.Level + "_" + strings.ToLower(string(parsed.Kind)) + "_" + strconv.Itoa(parsed.Seq)
}

func (h *Handler) respond(c *gin.Context, res engine.Result, err error) {
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, commandResponse{
		Machine:       newMachineResponse(res.Machine, h.engine.Now()),
		Changed:       res.Changed,
		Owner:         res.Owner,
		StopExpiresAt: res.StopExpiresAt,
	})
}

// Start handles POST /api/machines/:id/start.
func (h *Handler) Start(c *gin.Context) {
	h.withDuration(c, h.engine.Start)
}

// Override handles POST /api/machines/:id/override.
func (h *Handler) Override(c *gin.Context) {
	h.withDuration(c, h.engine.Override)
}

type durationCommand func(ctx context.Context, machineID, userID string, minutes int) (engine.Result, error)

func (h *Handler) withDuration(c *gin.Context, cmd durationCommand) {
	user := callerID(c)
	if user == "" {
		return
	}
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := cmd(c.Request.Context(), h.machineID(c), user, req.DurationMinutes)
	h.respond(c, res, err)
}

type simpleCommand func(ctx context.Context, machineID, userID string) (engine.Result, error)

func (h *Handler) simple(cmd simpleCommand) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := callerID(c)
		if user == "" {
			return
		}
		res, err := cmd(c.Request.Context(), h.machineID(c), user)
		h.respond(c, res, err)
	}
}

// GetMachine handles GET /api/machines/:id.
func (h *Handler) GetMachine(c *gin.Context) {
	m, err := h.engine.Get(h.machineID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newMachineResponse(m, h.engine.Now()))
}

// GetLevelMachines handles GET /api/levels/:level/machines.
func (h *Handler) GetLevelMachines(c *gin.Context) {
	machines := h.engine.Status(c.Param("level"))
	if len(machines) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown level"})
		return
	}
	now := h.engine.Now()
	resp := make([]machineResponse, 0, len(machines))
	for _, m := range machines {
		resp = append(resp, newMachineResponse(m, now))
	}
	c.JSON(http.StatusOK, resp)
}

// GetMachineAudit handles GET /api/machines/:id/audit.
func (h *Handler) GetMachineAudit(c *gin.Context) {
	id := h.machineID(c)
	if _, err := h.engine.Get(id); err != nil {
		h.writeError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.store.ListAudit(c.Request.Context(), id, limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
