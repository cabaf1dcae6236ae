package config

import (
	"fmt"
	"log/slog"

	"github.com/kelseyhightower/envconfig"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3200"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`
	APIKey   string `envconfig:"API_KEY" required:"true"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".turnkey/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"turnkey/"`
	S3Region string `envconfig:"S3_REGION" default:"eu-west-1"`
}

type VAPIDEnv struct {
	PublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	PrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	Contact    string `envconfig:"VAPID_CONTACT" default:"mailto:ops@turnkey.local"`
}

// DriverEnv carries the per-driver scheduling configuration. Schedules are
// comma-separated schedule type names.
type DriverEnv struct {
	CleaningSchedules     string `envconfig:"CLEANING_SCHEDULES" default:"turnover"`
	CleaningAutoAssign    bool   `envconfig:"CLEANING_AUTO_ASSIGN" default:"false"`
	CleaningOperators     string `envconfig:"CLEANING_OPERATORS" default:""`
	MaintenanceSchedules  string `envconfig:"MAINTENANCE_SCHEDULES" default:"monthly"`
	MaintenanceAutoAssign bool   `envconfig:"MAINTENANCE_AUTO_ASSIGN" default:"false"`
	MaintenanceOperators  string `envconfig:"MAINTENANCE_OPERATORS" default:""`
	SprintSchedules       string `envconfig:"SPRINT_SCHEDULES" default:"pre_arrival"`
	SprintAutoAssign      bool   `envconfig:"SPRINT_AUTO_ASSIGN" default:"false"`
	SprintOperators       string `envconfig:"SPRINT_OPERATORS" default:""`
}

type HookEnv struct {
	TaskCreated    string `envconfig:"HOOK_TASK_CREATED" default:""`
	TaskCancelled  string `envconfig:"HOOK_TASK_CANCELLED" default:""`
	TimeoutSeconds int    `envconfig:"HOOK_TIMEOUT_SECONDS" default:"30"`
}

type Env struct {
	BaseEnv
	StorageEnv
	VAPIDEnv
	DriverEnv
	HookEnv
}

const namespace = "TURNKEY"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelDebug
	}
	return level
}

func VAPIDEnvFromEnv(env *Env) *VAPIDEnv {
	return &env.VAPIDEnv
}
