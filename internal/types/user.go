package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Phase values mark overall study progress.
const (
	PhaseRegistered       = 0
	PhaseTrainingDone     = 1
	PhaseOnboardingDone   = 2
	PhaseFirstReflection  = 3
	PhaseSecondReflection = 4
)

const (
	GroupControl   = "control"
	GroupTreatment = "treatment"
)

type User struct {
	ID                      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ParticipantCode         string     `gorm:"uniqueIndex;not null;column:participant_code" json:"participant_code"`
	GroupAssignment         string     `gorm:"not null;default:control;column:group_assignment" json:"group_assignment"`
	Batch                   string     `gorm:"column:batch" json:"batch"`
	HasCompletedTraining    bool       `gorm:"not null;default:false;column:has_completed_training" json:"has_completed_training"`
	HasCompletedPresurvey   bool       `gorm:"not null;default:false;column:has_completed_presurvey" json:"has_completed_presurvey"`
	HasCompletedPostsurvey  bool       `gorm:"not null;default:false;column:has_completed_postsurvey" json:"has_completed_postsurvey"`
	Phase                   int        `gorm:"not null;default:0;column:phase" json:"phase"`
	OnboardingCompletedAt   *time.Time `gorm:"column:onboarding_completed_at" json:"onboarding_completed_at"`
	CreatedAt               time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt               time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
