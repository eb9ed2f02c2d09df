package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/types"
	"github.com/goalie-study/goalie-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	dsn := utils.GetEnv("DATABASE_URL", "", log)
	if dsn == "" {
		postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
		postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
		postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
		postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
		postgresName := utils.GetEnv("POSTGRES_NAME", "goalie", log)
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)
	}

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := s.db.AutoMigrate(
		&types.User{},
		&types.Goal{},
		&types.Task{},
		&types.Reflection{},
		&types.ReflectionResponse{},
		&types.ReflectionDraft{},
		&types.UserSession{},
		&types.ChatMessage{},
	); err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	fks := []struct {
		table, name, column, refTable, refColumn string
	}{
		{"goals", "fk_goals_user_id", "user_id", "users", "id"},
		{"tasks", "fk_tasks_goal_id", "goal_id", "goals", "id"},
		{"reflections", "fk_reflections_user_id", "user_id", "users", "id"},
		{"reflections", "fk_reflections_goal_id", "goal_id", "goals", "id"},
		{"reflection_responses", "fk_reflection_responses_reflection_id", "reflection_id", "reflections", "id"},
		{"reflection_drafts", "fk_reflection_drafts_user_id", "user_id", "users", "id"},
		{"user_sessions", "fk_user_sessions_user_id", "user_id", "users", "id"},
		{"chat_history", "fk_chat_history_user_id", "user_id", "users", "id"},
	}
	for _, fk := range fks {
		stmt := fmt.Sprintf(`
			ALTER TABLE %q DROP CONSTRAINT IF EXISTS %q;
			ALTER TABLE %q ADD CONSTRAINT %q
			FOREIGN KEY (%q) REFERENCES %q(%q) ON DELETE CASCADE
		`, fk.table, fk.name, fk.table, fk.name, fk.column, fk.refTable, fk.refColumn)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to add %s: %w", fk.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
