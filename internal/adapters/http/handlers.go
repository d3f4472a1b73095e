// Package http exposes the invitation REST surface in front of the
// coordinator. All errors are converted to statuses here; nothing
// propagates past a handler.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/invitegate/internal/app"
	"github.com/dkeye/invitegate/internal/domain"
)

type API struct {
	Coord *app.Coordinator
}

type broadcastRequest struct {
	Message         string `json:"message"`
	ParticipantName string `json:"participantName"`
}

func (a *API) MessageAllRooms(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" || req.ParticipantName == "" {
		c.String(http.StatusBadRequest, "Message and participantName are required")
		return
	}

	if err := a.Coord.Broadcast(c.Request.Context(), req.Message, domain.Identity(req.ParticipantName)); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("broadcast failed")
		c.String(http.StatusInternalServerError, "Failed to fetch rooms")
		return
	}
	c.String(http.StatusOK, "Message sent to all rooms")
}

type acceptRequest struct {
	RoomName               string `json:"roomName"`
	RequestParticipantName string `json:"requestParticipantName"`
}

func (a *API) AcceptInvitation(c *gin.Context) {
	var req acceptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomName == "" || req.RequestParticipantName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing roomName or participantName"})
		return
	}

	token, err := a.Coord.Accept(domain.RoomName(req.RoomName), domain.Identity(req.RequestParticipantName))
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found or closed"})
	case errors.Is(err, app.ErrTokenIssued):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token already issued for this participant"})
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("accept failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
	default:
		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}

type rejectRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
}

func (a *API) RejectInvitation(c *gin.Context) {
	var req rejectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomName == "" || req.ParticipantName == "" {
		c.String(http.StatusBadRequest, "Missing roomName or participantName")
		return
	}
	msg := a.Coord.Reject(domain.RoomName(req.RoomName), domain.Identity(req.ParticipantName))
	c.String(http.StatusOK, msg)
}

type sendTokenRequest struct {
	ParticipantName string `json:"participantName"`
	Token           string `json:"token"`
}

func (a *API) SendToken(c *gin.Context) {
	var req sendTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ParticipantName == "" || req.Token == "" {
		c.String(http.StatusBadRequest, "ParticipantName and token are required")
		return
	}

	err := a.Coord.PushToken(domain.Identity(req.ParticipantName), req.Token)
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		c.String(http.StatusNotFound, "Session not found or closed")
	case err != nil:
		log.Error().Err(err).Str("module", "adapters.http").Msg("token push failed")
		c.String(http.StatusInternalServerError, "Failed to send token")
	default:
		c.String(http.StatusOK, "Token sent")
	}
}

type tokenRequest struct {
	RoomName        string `json:"roomName"`
	ParticipantName string `json:"participantName"`
}

func (a *API) CreateToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomName == "" || req.ParticipantName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"errorMessage": "roomName and participantName are required"})
		return
	}

	token, err := a.Coord.IssueToken(domain.RoomName(req.RoomName), domain.Identity(req.ParticipantName))
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("token mint failed")
		c.JSON(http.StatusInternalServerError, gin.H{"errorMessage": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ReceiveWebhook always acknowledges a webhook delivery: the upstream
// sender retries on anything but a 2xx, and a delivery we cannot verify
// should not be retried forever. Only a wrong media type is turned away.
func (a *API) ReceiveWebhook(c *gin.Context) {
	if c.ContentType() != "application/webhook+json" {
		c.String(http.StatusUnsupportedMediaType, "Content-Type must be application/webhook+json")
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("webhook body read failed")
		c.String(http.StatusOK, "ok")
		return
	}
	a.Coord.ReceiveWebhook(body, c.GetHeader("Authorization"))
	c.String(http.StatusOK, "ok")
}
