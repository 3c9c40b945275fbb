package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"

	"github.com/Ken-Miura/career-change-supporter-sub002/internal/constants"
	"github.com/Ken-Miura/career-change-supporter-sub002/internal/utils"
)

// Config is built once at process start and passed explicitly to everything
// that needs it.
type Config struct {
	AppName         string `validate:"required"`
	Env             string `validate:"required"`
	AppPort         string `validate:"required,numeric"`
	MetricsPort     string `validate:"required,numeric"`
	AppUrl          string `validate:"required,url"`
	UniqueRunNumber string `validate:"required_if=LDFlag_UsingIsolatedSchema true"`
	UniqueRunnerID  string `validate:"required_if=LDFlag_UsingIsolatedSchema true"`

	DBUrl              string `validate:"required"`
	StripeSecretKey    string
	SendgridAPIKey     string `validate:"required"`
	MeilisearchHost    string `validate:"omitempty,url"`
	MeilisearchAPIKey  string
	AdminEmailAddress  string `validate:"required,email"`
	SystemEmailAddress string `validate:"required,email"`

	MinDurationBeforeConsultationAcceptance time.Duration  `validate:"gt=0"`
	DeletedAccountRetentionDays             int            `validate:"gt=0"`
	PwdChangeReqTTL                         time.Duration  `validate:"gt=0"`
	InterRecordDelay                        time.Duration  `validate:"min=0"`
	Location                                *time.Location `validate:"required"`

	LDFlag_SendgridSandboxMode bool
	LDFlag_UsingIsolatedSchema bool
}

const LDConnectionTimeout = 5 * time.Second

// Capability names a group of settings that only some processes need. The
// core settings are validated by LoadConfig; a process declares the rest
// through Require.
type Capability string

const (
	CapabilityPayments Capability = "payments"
	CapabilitySearch   Capability = "search"
)

// Require returns a configuration error when a setting needed by one of caps
// is missing.
func (c *Config) Require(caps ...Capability) error {
	for _, cp := range caps {
		switch cp {
		case CapabilityPayments:
			if c.StripeSecretKey == "" {
				return fmt.Errorf("STRIPE_SECRET_KEY is required for %s", cp)
			}
		case CapabilitySearch:
			if c.MeilisearchHost == "" {
				return fmt.Errorf("MEILISEARCH_HOST is required for %s", cp)
			}
		default:
			return fmt.Errorf("unknown capability %q", cp)
		}
	}
	return nil
}

// Default values, override via ldflags at build time.
var (
	AppName             = "career-change-supporter"
	UniqueRunNumber     string
	UniqueRunnerID      string
	LDServerContextKey  = "reaper"
	LDServerContextKind = "service"
)

// secretSource resolves secrets from Bitwarden when configured and falls back
// to the environment.
type secretSource struct {
	maps []map[string]string
}

func (s secretSource) get(key string) string {
	for _, m := range s.maps {
		if v, ok := m[key]; ok && v != "" {
			return v
		}
	}
	return os.Getenv(key)
}

// LoadConfig reads the environment, optional Bitwarden secrets and optional
// LaunchDarkly flags. Any returned error is a configuration error.
func LoadConfig() (*Config, error) {
	utils.Logger.Info("Loading config for app: ", AppName)

	env := os.Getenv("ENV")
	if env == "" {
		return nil, fmt.Errorf("ENV env var is missing")
	}

	secrets, err := loadSecrets(env)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppName:            AppName,
		Env:                env,
		AppPort:            getenvDefault("APP_PORT", "8080"),
		MetricsPort:        getenvDefault("METRICS_PORT", "9090"),
		AppUrl:             getenvDefault("APP_URL", "http://localhost:8080"),
		UniqueRunNumber:    UniqueRunNumber,
		UniqueRunnerID:     UniqueRunnerID,
		DBUrl:              secrets.get("DB_URL"),
		StripeSecretKey:    secrets.get("STRIPE_SECRET_KEY"),
		SendgridAPIKey:     secrets.get("SENDGRID_API_KEY"),
		MeilisearchHost:    os.Getenv("MEILISEARCH_HOST"),
		MeilisearchAPIKey:  secrets.get("MEILISEARCH_API_KEY"),
		AdminEmailAddress:  os.Getenv("ADMIN_EMAIL_ADDRESS"),
		SystemEmailAddress: os.Getenv("SYSTEM_EMAIL_ADDRESS"),
	}

	minSecs, err := getenvInt("MIN_DURATION_IN_SECONDS_BEFORE_CONSULTATION_ACCEPTANCE",
		int(constants.DefaultMinDurationBeforeConsultationAcceptance/time.Second))
	if err != nil {
		return nil, err
	}
	cfg.MinDurationBeforeConsultationAcceptance = time.Duration(minSecs) * time.Second

	if cfg.DeletedAccountRetentionDays, err = getenvInt("DELETED_ACCOUNT_RETENTION_DAYS",
		constants.DefaultDeletedAccountRetentionDays); err != nil {
		return nil, err
	}

	ttlMins, err := getenvInt("PWD_CHANGE_REQ_TTL_MINUTES", constants.DefaultPwdChangeReqTTLMinutes)
	if err != nil {
		return nil, err
	}
	cfg.PwdChangeReqTTL = time.Duration(ttlMins) * time.Minute

	delayMs, err := getenvInt("REAPER_INTER_RECORD_DELAY_MS", int(constants.DefaultInterRecordDelay/time.Millisecond))
	if err != nil {
		return nil, err
	}
	cfg.InterRecordDelay = time.Duration(delayMs) * time.Millisecond

	if cfg.Location, err = time.LoadLocation(constants.BusinessTimezone); err != nil {
		return nil, fmt.Errorf("loading timezone %s: %w", constants.BusinessTimezone, err)
	}

	if sdkKey := secrets.get("LD_SDK_KEY"); sdkKey != "" {
		if err := loadFlags(cfg, sdkKey); err != nil {
			return nil, err
		}
	} else {
		cfg.LDFlag_SendgridSandboxMode = os.Getenv("SENDGRID_SANDBOX_MODE") == "true"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadSecrets(env string) (secretSource, error) {
	token := os.Getenv("BWS_ACCESS_TOKEN")
	if token == "" {
		utils.Logger.Debug("BWS_ACCESS_TOKEN not set; reading secrets from env")
		return secretSource{}, nil
	}

	client, err := utils.NewBWSSecretsClient(token, os.Getenv("BWS_ORGANIZATION_ID"))
	if err != nil {
		return secretSource{}, fmt.Errorf("initializing BWSSecretsClient: %w", err)
	}
	defer client.Close()

	bwsProjectName := fmt.Sprintf("%s-%s", AppName, env)
	appSecrets, err := client.GetBWSSecrets(bwsProjectName)
	if err != nil {
		return secretSource{}, fmt.Errorf("fetching app-specific secrets from BWS (%s): %w", bwsProjectName, err)
	}

	bwsSharedProjectName := fmt.Sprintf("shared-%s", env)
	sharedSecrets, err := client.GetBWSSecrets(bwsSharedProjectName)
	if err != nil {
		return secretSource{}, fmt.Errorf("fetching shared secrets from BWS (%s): %w", bwsSharedProjectName, err)
	}

	return secretSource{maps: []map[string]string{appSecrets, sharedSecrets}}, nil
}

func loadFlags(cfg *Config, sdkKey string) error {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return fmt.Errorf("creating LaunchDarkly client: %w", err)
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		return fmt.Errorf("LaunchDarkly client failed to initialize")
	}

	context := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	if cfg.LDFlag_SendgridSandboxMode, err = ldClient.BoolVariation("sendgrid_sandbox_mode", context, false); err != nil {
		return fmt.Errorf("retrieving sendgrid_sandbox_mode flag: %w", err)
	}
	utils.Logger.Debugf("sendgrid_sandbox_mode flag: %t", cfg.LDFlag_SendgridSandboxMode)

	fromEmail, err := ldClient.StringVariation("sendgrid_from_email", context, "")
	if err != nil {
		return fmt.Errorf("retrieving sendgrid_from_email flag: %w", err)
	}
	utils.Logger.Debugf("sendgrid_from_email flag: %s", fromEmail)
	if fromEmail != "" {
		cfg.SystemEmailAddress = fromEmail
	}

	if cfg.LDFlag_UsingIsolatedSchema, err = ldClient.BoolVariation("using_isolated_schema", context, false); err != nil {
		return fmt.Errorf("retrieving using_isolated_schema flag: %w", err)
	}
	utils.Logger.Debugf("using_isolated_schema flag: %t", cfg.LDFlag_UsingIsolatedSchema)

	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}
