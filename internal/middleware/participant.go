package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/requestdata"
	"github.com/goalie-study/goalie-backend/internal/services"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// ParticipantMiddleware authenticates participants by the PROLIFIC_PID query
// parameter the panel appends to the study URL. First contact enrolls the
// participant; the optional "g" parameter assigns the group.
type ParticipantMiddleware struct {
	log   *logger.Logger
	users services.UserService
}

func NewParticipantMiddleware(log *logger.Logger, users services.UserService) *ParticipantMiddleware {
	middlewareLogger := log.With("Middleware", "ParticipantMiddleware")
	return &ParticipantMiddleware{log: middlewareLogger, users: users}
}

func (pm *ParticipantMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		pid := strings.TrimSpace(c.Query("PROLIFIC_PID"))
		if pid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing PROLIFIC_PID"})
			return
		}

		group := types.GroupControl
		if c.Query("g") == "1" {
			group = types.GroupTreatment
		}

		user, _, err := pm.users.GetOrCreate(c.Request.Context(), pid, group)
		if err != nil {
			pm.log.Error("Participant resolution failed", "prolific", pid, "error", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "please try again"})
			return
		}

		week, _ := strconv.Atoi(c.Query("week"))
		rd := &requestdata.RequestData{
			ParticipantCode: pid,
			UserID:          user.ID,
			User:            user,
			Week:            week,
			Session:         strings.TrimSpace(c.Query("session")),
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}
