package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"laundry-coordinator/internal/model"
)

type putUserRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Handle      string `json:"handle"`
	Level       string `json:"level"`
	House       string `json:"house"`
}

// PutUser handles PUT /api/users/:id. Only the user themself may change the profile.
func (h *Handler) PutUser(c *gin.Context) {
	user := callerID(c)
	if user == "" {
		return
	}
	id := c.Param("id")
	if id != user {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot edit another user's profile"})
		return
	}

	var req putUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u := model.User{
		ID:          id,
		DisplayName: req.DisplayName,
		Handle:      req.Handle,
		Level:       req.Level,
		House:       req.House,
	}
	if err := h.store.UpsertUser(c.Request.Context(), u); err != nil {
		h.writeError(c, err)
		return
	}
	if h.identities != nil {
		h.identities.Invalidate(id)
	}
	c.Status(http.StatusNoContent)
}
