package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
)

// SessionStateService persists the step-runner snapshot between requests.
// The snapshot is opaque JSON here; the runner owns its shape.
type SessionStateService interface {
	Save(ctx context.Context, userID uuid.UUID, state interface{}) error
	Load(ctx context.Context, userID uuid.UUID, into interface{}) (bool, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type sessionStateService struct {
	log      *logger.Logger
	sessions repos.SessionRepo
}

func NewSessionStateService(log *logger.Logger, sessions repos.SessionRepo) SessionStateService {
	return &sessionStateService{
		log:      log.With("service", "SessionStateService"),
		sessions: sessions,
	}
}

func (s *sessionStateService) Save(ctx context.Context, userID uuid.UUID, state interface{}) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.sessions.Upsert(ctx, nil, userID, raw)
}

// Load unmarshals the stored snapshot into the given value. The boolean is
// false when no snapshot exists for the user.
func (s *sessionStateService) Load(ctx context.Context, userID uuid.UUID, into interface{}) (bool, error) {
	session, err := s.sessions.GetByUserID(ctx, nil, userID)
	if err != nil {
		return false, err
	}
	if session == nil || len(session.State) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(session.State, into); err != nil {
		return false, err
	}
	return true, nil
}

func (s *sessionStateService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.Delete(ctx, nil, userID)
}
