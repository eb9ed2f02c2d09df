package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// ErrReflectionExists is returned when a reflection for the same
// (user, goal, week, session) key was already submitted.
var ErrReflectionExists = errors.New("reflection already submitted for this session")

// TaskRating is one per-task progress answer inside a check-in.
type TaskRating struct {
	TaskID uuid.UUID `json:"task_id"`
	Rating int       `json:"rating"`
}

// TaskNote is a short free-text justification attached to one task's rating.
type TaskNote struct {
	TaskID uuid.UUID `json:"task_id"`
	Note   string    `json:"note"`
}

// QuestionAnswer is one free-text answer keyed by the question it answers.
type QuestionAnswer struct {
	QuestionKey string `json:"question_key"`
	Answer      string `json:"answer"`
}

// ReflectionSubmission carries everything a finished check-in produced.
type ReflectionSubmission struct {
	UserID         uuid.UUID
	GoalID         uuid.UUID
	WeekNumber     int
	SessionID      string
	ReflectionText string
	TaskRatings    []TaskRating
	TaskNotes      []TaskNote
	Answers        []QuestionAnswer
}

// ReflectionService persists finished check-ins and the in-progress drafts
// that precede them. Submit is all-or-nothing: the reflection row and every
// response row land in one transaction, or none do.
type ReflectionService interface {
	Submit(ctx context.Context, sub ReflectionSubmission) (*types.Reflection, error)
	AlreadySubmitted(ctx context.Context, userID, goalID uuid.UUID, week int, session string) (bool, error)
	NextWeekNumber(ctx context.Context, userID, goalID uuid.UUID) (int, error)
	LastReflection(ctx context.Context, userID, goalID uuid.UUID) (*types.Reflection, error)
	SaveDraft(ctx context.Context, userID, goalID uuid.UUID, week int, session string, payload interface{}) error
	LoadDraft(ctx context.Context, userID, goalID uuid.UUID, week int, session string, into interface{}) (bool, error)
	DiscardDraft(ctx context.Context, userID, goalID uuid.UUID, week int, session string) error
}

type reflectionService struct {
	log         *logger.Logger
	db          *gorm.DB
	reflections repos.ReflectionRepo
	drafts      repos.ReflectionDraftRepo
}

func NewReflectionService(log *logger.Logger, db *gorm.DB, reflections repos.ReflectionRepo, drafts repos.ReflectionDraftRepo) ReflectionService {
	return &reflectionService{
		log:         log.With("service", "ReflectionService"),
		db:          db,
		reflections: reflections,
		drafts:      drafts,
	}
}

func (s *reflectionService) Submit(ctx context.Context, sub ReflectionSubmission) (*types.Reflection, error) {
	var saved *types.Reflection
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := s.reflections.Exists(ctx, tx, sub.UserID, sub.GoalID, sub.WeekNumber, sub.SessionID)
		if err != nil {
			return err
		}
		if exists {
			return ErrReflectionExists
		}

		reflection := &types.Reflection{
			UserID:         sub.UserID,
			GoalID:         sub.GoalID,
			WeekNumber:     sub.WeekNumber,
			SessionID:      sub.SessionID,
			ReflectionText: sub.ReflectionText,
			Completed:      true,
		}
		if _, err := s.reflections.Create(ctx, tx, reflection); err != nil {
			return err
		}

		responses := make([]*types.ReflectionResponse, 0, len(sub.TaskRatings)+len(sub.TaskNotes)+len(sub.Answers))
		for _, tr := range sub.TaskRatings {
			taskID := tr.TaskID
			rating := tr.Rating
			responses = append(responses, &types.ReflectionResponse{
				ReflectionID: reflection.ID,
				TaskID:       &taskID,
				QuestionKey:  "task_progress",
				Rating:       &rating,
			})
		}
		for _, tn := range sub.TaskNotes {
			taskID := tn.TaskID
			responses = append(responses, &types.ReflectionResponse{
				ReflectionID: reflection.ID,
				TaskID:       &taskID,
				QuestionKey:  "task_justification",
				Answer:       tn.Note,
			})
		}
		for _, qa := range sub.Answers {
			responses = append(responses, &types.ReflectionResponse{
				ReflectionID: reflection.ID,
				QuestionKey:  qa.QuestionKey,
				Answer:       qa.Answer,
			})
		}
		if err := s.reflections.CreateResponses(ctx, tx, responses); err != nil {
			return err
		}

		if err := s.drafts.Delete(ctx, tx, sub.UserID, sub.GoalID, sub.WeekNumber, sub.SessionID); err != nil {
			return err
		}
		saved = reflection
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Reflection submitted",
		"user_id", sub.UserID.String(),
		"week", sub.WeekNumber,
		"session", sub.SessionID,
	)
	return saved, nil
}

func (s *reflectionService) AlreadySubmitted(ctx context.Context, userID, goalID uuid.UUID, week int, session string) (bool, error) {
	return s.reflections.Exists(ctx, nil, userID, goalID, week, session)
}

func (s *reflectionService) NextWeekNumber(ctx context.Context, userID, goalID uuid.UUID) (int, error) {
	return s.reflections.NextWeekNumber(ctx, nil, userID, goalID)
}

func (s *reflectionService) LastReflection(ctx context.Context, userID, goalID uuid.UUID) (*types.Reflection, error) {
	return s.reflections.LastByUserGoal(ctx, nil, userID, goalID)
}

func (s *reflectionService) SaveDraft(ctx context.Context, userID, goalID uuid.UUID, week int, session string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.drafts.Upsert(ctx, nil, userID, goalID, week, session, raw)
}

func (s *reflectionService) LoadDraft(ctx context.Context, userID, goalID uuid.UUID, week int, session string, into interface{}) (bool, error) {
	draft, err := s.drafts.Get(ctx, nil, userID, goalID, week, session)
	if err != nil {
		return false, err
	}
	if draft == nil || len(draft.Payload) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(draft.Payload, into); err != nil {
		return false, err
	}
	return true, nil
}

func (s *reflectionService) DiscardDraft(ctx context.Context, userID, goalID uuid.UUID, week int, session string) error {
	return s.drafts.Delete(ctx, nil, userID, goalID, week, session)
}
