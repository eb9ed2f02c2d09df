package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error)
	GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error)
	GetByParticipantCode(ctx context.Context, tx *gorm.DB, code string) (*types.User, error)
	MarkTrainingCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	MarkSurveyCompleted(ctx context.Context, tx *gorm.DB, code string, stage string) error
	AdvancePhase(ctx context.Context, tx *gorm.DB, userID uuid.UUID, newPhase int) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (ur *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return ur.db
}

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, user *types.User) (*types.User, error) {
	if err := ur.conn(tx).WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (ur *userRepo) GetByID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.User, error) {
	var result types.User
	err := ur.conn(tx).WithContext(ctx).Where("id = ?", userID).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (ur *userRepo) GetByParticipantCode(ctx context.Context, tx *gorm.DB, code string) (*types.User, error) {
	var result types.User
	err := ur.conn(tx).WithContext(ctx).Where("participant_code = ?", code).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (ur *userRepo) MarkTrainingCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ?", userID).
		Update("has_completed_training", true).Error
}

// MarkSurveyCompleted flips the presurvey or postsurvey flag by participant
// code. For the presurvey it also stamps Day-0 once; an already-set
// onboarding timestamp is never overwritten.
func (ur *userRepo) MarkSurveyCompleted(ctx context.Context, tx *gorm.DB, code string, stage string) error {
	conn := ur.conn(tx).WithContext(ctx)
	switch stage {
	case "presurvey":
		return conn.Model(&types.User{}).
			Where("participant_code = ?", code).
			Updates(map[string]interface{}{
				"has_completed_presurvey": true,
				"onboarding_completed_at": gorm.Expr("COALESCE(onboarding_completed_at, ?)", time.Now().UTC()),
			}).Error
	case "postsurvey":
		return conn.Model(&types.User{}).
			Where("participant_code = ?", code).
			Update("has_completed_postsurvey", true).Error
	default:
		return errors.New("unknown survey stage: " + stage)
	}
}

// AdvancePhase only moves forward; a stale snapshot can never demote a user.
func (ur *userRepo) AdvancePhase(ctx context.Context, tx *gorm.DB, userID uuid.UUID, newPhase int) error {
	return ur.conn(tx).WithContext(ctx).
		Model(&types.User{}).
		Where("id = ? AND phase < ?", userID, newPhase).
		Update("phase", newPhase).Error
}
