package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/duochat-server/internal/service/chat"
	"github.com/vovakirdan/duochat-server/internal/service/profiles"
	"github.com/vovakirdan/duochat-server/internal/store"
)

// ProfileHandlers provides HTTP handlers for profile endpoints.
type ProfileHandlers struct {
	profiles *profiles.Service
	chat     *chat.Service
	log      *zerolog.Logger
}

// NewProfileHandlers creates a new profile handlers instance.
func NewProfileHandlers(profileService *profiles.Service, chatService *chat.Service, logger *zerolog.Logger) *ProfileHandlers {
	return &ProfileHandlers{
		profiles: profileService,
		chat:     chatService,
		log:      logger,
	}
}

// RoomSummaryResponse is one entry of a profile's room list.
type RoomSummaryResponse struct {
	RoomID  string `json:"roomId"`
	Profile string `json:"profile"`
}

// List returns every profile.
// GET /api/profile
func (h *ProfileHandlers) List(c *gin.Context) {
	all, err := h.profiles.List(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err, "failed to list profiles")
		return
	}
	c.JSON(http.StatusOK, lo.Map(all, func(p *store.Profile, _ int) ProfileResponse {
		return profileResponse(p)
	}))
}

// Get returns a single profile.
// GET /api/profile/:id
func (h *ProfileHandlers) Get(c *gin.Context) {
	p, err := h.profiles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err, "failed to get profile")
		return
	}
	c.JSON(http.StatusOK, profileResponse(p))
}

// ChatRooms lists the caller's rooms with their counterparties.
// GET /api/profile/:id/chat-rooms
func (h *ProfileHandlers) ChatRooms(c *gin.Context) {
	rooms, err := h.chat.ListRoomsFor(c.Request.Context(), profileID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err, "failed to list chat rooms")
		return
	}
	c.JSON(http.StatusOK, lo.Map(rooms, func(r chat.RoomSummary, _ int) RoomSummaryResponse {
		return RoomSummaryResponse{RoomID: r.RoomID, Profile: r.CounterpartyID}
	}))
}

// UpdateProfileRequest is the body of a profile edit. Blank fields are kept.
type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Update edits the caller's name and status.
// PUT /api/profile/:id
func (h *ProfileHandlers) Update(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.log, err)
		return
	}

	p, err := h.profiles.Update(c.Request.Context(), profileID(c), c.Param("id"), profiles.UpdateInput{
		Name:   req.Name,
		Status: req.Status,
	})
	if err != nil {
		writeError(c, h.log, err, "failed to update profile")
		return
	}

	h.log.Info().Str("profile_id", p.ID).Msg("profile updated")
	c.JSON(http.StatusOK, profileResponse(p))
}

// ToggleActivation flips the caller's deactivated flag.
// PATCH /api/profile/:id/activation
func (h *ProfileHandlers) ToggleActivation(c *gin.Context) {
	p, err := h.profiles.ToggleActivation(c.Request.Context(), profileID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err, "failed to toggle activation")
		return
	}

	h.log.Info().Str("profile_id", p.ID).Bool("deactivated", p.IsDeactivated).Msg("profile activation changed")
	c.JSON(http.StatusOK, profileResponse(p))
}

// Block adds the target to the caller's block list.
// POST /api/profile/block/:id
func (h *ProfileHandlers) Block(c *gin.Context) {
	p, err := h.profiles.Block(c.Request.Context(), profileID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err, "failed to block profile")
		return
	}

	h.log.Info().Str("profile_id", p.ID).Str("blocked_id", c.Param("id")).Msg("profile blocked")
	c.JSON(http.StatusOK, profileResponse(p))
}

// Unblock removes the target from the caller's block list.
// DELETE /api/profile/block/:id
func (h *ProfileHandlers) Unblock(c *gin.Context) {
	p, err := h.profiles.Unblock(c.Request.Context(), profileID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.log, err, "failed to unblock profile")
		return
	}

	h.log.Info().Str("profile_id", p.ID).Str("unblocked_id", c.Param("id")).Msg("profile unblocked")
	c.JSON(http.StatusOK, profileResponse(p))
}
