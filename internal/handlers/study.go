package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/services"
)

// StudyHandler is the researcher-facing API: survey-completion callbacks
// from the survey platform and read-only participant exports. Keyed by the
// external participant code, never the internal user id.
type StudyHandler struct {
	log    *logger.Logger
	users  services.UserService
	goals  services.GoalService
	cohort services.CohortClient
}

func NewStudyHandler(log *logger.Logger, users services.UserService, goals services.GoalService, cohort services.CohortClient) *StudyHandler {
	return &StudyHandler{
		log:    log.With("Handler", "StudyHandler"),
		users:  users,
		goals:  goals,
		cohort: cohort,
	}
}

type updateStatusRequest struct {
	ProlificID string `json:"prolific_id" form:"prolific_id"`
	Status     string `json:"status" form:"status"`
	Cohort     string `json:"cohort" form:"cohort"`
}

// UpdateStatus marks a participant's presurvey or postsurvey as completed.
// The survey platform calls it both as a POST webhook and as a GET redirect,
// so parameters are accepted from either the body or the query string.
func (sh *StudyHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	} else {
		req.ProlificID = c.Query("prolific_id")
		req.Status = c.Query("status")
		req.Cohort = c.Query("cohort")
	}
	if req.ProlificID == "" {
		req.ProlificID = c.Query("PROLIFIC_PID")
	}

	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.ProlificID == "" || (req.Status != "presurvey" && req.Status != "postsurvey") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prolific_id and status (presurvey|postsurvey) are required"})
		return
	}

	if err := sh.users.MarkSurveyCompleted(c.Request.Context(), req.ProlificID, req.Status); err != nil {
		sh.log.Error("Status update failed", "prolific", req.ProlificID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
		return
	}

	enrolled := false
	if req.Cohort != "" {
		enrolled = sh.cohort.AddParticipant(c.Request.Context(), req.ProlificID, req.Cohort)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "enrolled": enrolled})
}

// GetGoalAndTasks returns a participant's latest goal with its active tasks.
func (sh *StudyHandler) GetGoalAndTasks(c *gin.Context) {
	pid := strings.TrimSpace(c.Query("prolific_id"))
	if pid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prolific_id is required"})
		return
	}
	user, err := sh.users.GetByParticipantCode(c.Request.Context(), pid)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	overview, err := sh.goals.GetGoalAndTasks(c.Request.Context(), user.ID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
		return
	}
	c.JSON(http.StatusOK, overview)
}
