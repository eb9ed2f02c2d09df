package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/requestdata"
	"github.com/goalie-study/goalie-backend/internal/runner"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// ChatHandler is the participant-facing conversation API. The client reads
// the current render, posts events, and polls while Render.Pending is set.
type ChatHandler struct {
	log        *logger.Logger
	runner     *runner.Runner
	transcript services.TranscriptService
}

func NewChatHandler(log *logger.Logger, r *runner.Runner, transcript services.TranscriptService) *ChatHandler {
	return &ChatHandler{
		log:        log.With("Handler", "ChatHandler"),
		runner:     r,
		transcript: transcript,
	}
}

// GetState starts or resumes the participant's session and returns the
// current render.
func (ch *ChatHandler) GetState(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	st, err := ch.runner.LoadOrStart(c.Request.Context(), rd.User, rd.Week, rd.Session)
	if err != nil {
		ch.log.Error("Session start failed", "user_id", rd.UserID.String(), "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
		return
	}
	render, err := ch.runner.Step(c.Request.Context(), rd.User, st, runner.Event{Type: runner.EventPoll})
	if err != nil {
		ch.renderError(c, rd, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_state": st.ChatState, "render": render})
}

type chatEventRequest struct {
	Type  string `json:"type" binding:"required"`
	Value string `json:"value"`
}

// PostEvent applies one participant interaction.
func (ch *ChatHandler) PostEvent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.User == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var req chatEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
		return
	}
	switch req.Type {
	case runner.EventButton, runner.EventText, runner.EventPoll:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event type"})
		return
	}

	st, err := ch.runner.LoadOrStart(c.Request.Context(), rd.User, rd.Week, rd.Session)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
		return
	}
	render, err := ch.runner.Step(c.Request.Context(), rd.User, st, runner.Event{Type: req.Type, Value: req.Value})
	if err != nil {
		ch.renderError(c, rd, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chat_state": st.ChatState, "render": render})
}

// GetHistory replays the persisted transcript in insertion order. An
// optional phase query narrows the replay to a single chat state, so the
// client can rebuild just the reflection thread.
func (ch *ChatHandler) GetHistory(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	var (
		messages []*types.ChatMessage
		err      error
	)
	if phase := strings.TrimSpace(c.Query("phase")); phase != "" {
		messages, err = ch.transcript.ReplayPhase(c.Request.Context(), rd.UserID, phase)
	} else {
		messages, err = ch.transcript.Replay(c.Request.Context(), rd.UserID)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (ch *ChatHandler) renderError(c *gin.Context, rd *requestdata.RequestData, err error) {
	if errors.Is(err, runner.ErrUnknownStep) {
		ch.log.Error("Flow misconfiguration", "user_id", rd.UserID.String(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "configuration error"})
		return
	}
	ch.log.Error("Step failed", "user_id", rd.UserID.String(), "error", err)
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
}
