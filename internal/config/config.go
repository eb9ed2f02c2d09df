package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goalie-study/goalie-backend/internal/logger"
	"github.com/goalie-study/goalie-backend/internal/utils"
)

// StudyConfig carries the study-design parameters. Defaults match the full
// two-week run; a pilot overrides them through goalie.yaml or env vars.
type StudyConfig struct {
	DurationDays       int     `yaml:"duration_days"`
	ReflectionsPerWeek int     `yaml:"reflections_per_week"`
	TaskLimit          int     `yaml:"task_limit"`
	SuccessThreshold   float64 `yaml:"success_threshold"`
}

func Default() StudyConfig {
	return StudyConfig{
		DurationDays:       14,
		ReflectionsPerWeek: 2,
		TaskLimit:          3,
		SuccessThreshold:   0.65,
	}
}

// Load reads the optional YAML file at path (skipped when missing), then
// applies env overrides on top. Env always wins so deployments can tweak a
// single knob without editing the file.
func Load(path string, log *logger.Logger) (StudyConfig, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			if log != nil {
				log.Debug("Study config file not found, using defaults", "path", path)
			}
		case err != nil:
			return cfg, fmt.Errorf("read study config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("parse study config: %w", err)
			}
		}
	}

	cfg.DurationDays = utils.GetEnvAsInt("STUDY_DURATION_DAYS", cfg.DurationDays, log)
	cfg.ReflectionsPerWeek = utils.GetEnvAsInt("REFLECTIONS_PER_WEEK", cfg.ReflectionsPerWeek, log)
	cfg.TaskLimit = utils.GetEnvAsInt("TASK_LIMIT", cfg.TaskLimit, log)
	cfg.SuccessThreshold = utils.GetEnvAsFloat("SUCCESS_THRESHOLD", cfg.SuccessThreshold, log)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c StudyConfig) Validate() error {
	if c.DurationDays <= 0 {
		return fmt.Errorf("duration_days must be positive, got %d", c.DurationDays)
	}
	if c.ReflectionsPerWeek <= 0 {
		return fmt.Errorf("reflections_per_week must be positive, got %d", c.ReflectionsPerWeek)
	}
	if c.TaskLimit <= 0 {
		return fmt.Errorf("task_limit must be positive, got %d", c.TaskLimit)
	}
	if c.SuccessThreshold <= 0 || c.SuccessThreshold >= 1 {
		return fmt.Errorf("success_threshold must be in (0,1), got %v", c.SuccessThreshold)
	}
	return nil
}

// StudyPeriodPhrase renders the study length for consent and chatbot copy.
func (c StudyConfig) StudyPeriodPhrase() string {
	switch {
	case c.DurationDays <= 3:
		return "the next few days"
	case c.DurationDays == 7:
		return "the next week"
	case c.DurationDays == 14:
		return "the next two weeks"
	default:
		return fmt.Sprintf("the next %d days", c.DurationDays)
	}
}
