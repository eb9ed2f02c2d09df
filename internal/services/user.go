package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/repos"
	"github.com/goalie-study/goalie-backend/internal/types"
)

// UserService resolves participants by code and manages study-status
// transitions driven by the survey platform callbacks.
type UserService interface {
	GetOrCreate(ctx context.Context, participantCode, group string) (*types.User, bool, error)
	GetByParticipantCode(ctx context.Context, participantCode string) (*types.User, error)
	MarkTrainingCompleted(ctx context.Context, userID uuid.UUID) error
	MarkSurveyCompleted(ctx context.Context, participantCode, stage string) error
	AdvancePhase(ctx context.Context, userID uuid.UUID, newPhase int) error
	StudyDay(user *types.User, now time.Time) int
}

type userService struct {
	log    *logger.Logger
	users  repos.UserRepo
	cohort CohortClient
}

func NewUserService(log *logger.Logger, users repos.UserRepo, cohort CohortClient) UserService {
	return &userService{
		log:    log.With("service", "UserService"),
		users:  users,
		cohort: cohort,
	}
}

// GetOrCreate looks a participant up by code, creating the record on first
// contact. The boolean reports whether the user was newly created. The group
// is only applied on creation; an existing user keeps the group they
// enrolled with.
func (s *userService) GetOrCreate(ctx context.Context, participantCode, group string) (*types.User, bool, error) {
	code := strings.TrimSpace(participantCode)
	user, err := s.users.GetByParticipantCode(ctx, nil, code)
	if err != nil {
		return nil, false, err
	}
	if user != nil {
		return user, false, nil
	}

	if group != types.GroupControl && group != types.GroupTreatment {
		group = types.GroupControl
	}
	user = &types.User{
		ParticipantCode: code,
		GroupAssignment: group,
		Phase:           types.PhaseRegistered,
	}
	if _, err := s.users.Create(ctx, nil, user); err != nil {
		// Lost a create race: another request enrolled the same code first.
		existing, lookupErr := s.users.GetByParticipantCode(ctx, nil, code)
		if lookupErr == nil && existing != nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	s.log.Info("Enrolled participant", "participant_code", code, "group", group)

	if s.cohort != nil {
		enrollCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		s.cohort.AddParticipant(enrollCtx, code, group)
	}
	return user, true, nil
}

func (s *userService) GetByParticipantCode(ctx context.Context, participantCode string) (*types.User, error) {
	return s.users.GetByParticipantCode(ctx, nil, strings.TrimSpace(participantCode))
}

func (s *userService) MarkTrainingCompleted(ctx context.Context, userID uuid.UUID) error {
	return s.users.MarkTrainingCompleted(ctx, nil, userID)
}

// MarkSurveyCompleted records a presurvey or postsurvey completion for the
// given participant. Completing the presurvey also stamps the onboarding
// anchor used to compute the study day.
func (s *userService) MarkSurveyCompleted(ctx context.Context, participantCode, stage string) error {
	return s.users.MarkSurveyCompleted(ctx, nil, strings.TrimSpace(participantCode), stage)
}

func (s *userService) AdvancePhase(ctx context.Context, userID uuid.UUID, newPhase int) error {
	return s.users.AdvancePhase(ctx, nil, userID, newPhase)
}

// StudyDay returns how many whole days have passed since the participant
// finished onboarding, with Day 0 being the onboarding day itself. Users who
// have not finished onboarding are on day 0.
func (s *userService) StudyDay(user *types.User, now time.Time) int {
	if user == nil || user.OnboardingCompletedAt == nil {
		return 0
	}
	days := int(now.UTC().Sub(user.OnboardingCompletedAt.UTC()).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
