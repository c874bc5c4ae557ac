package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pos-print-service/utils"
)

// Print modes
const (
	ModeDirect = "direct"
	ModeBridge = "bridge"
)

// Fallback tiers for tickets that cannot be delivered directly
const (
	FallbackBrowser  = "browser"
	FallbackDocument = "document"
)

// Config holds the print service configuration read from the environment
type Config struct {
	Port           string
	APITokens      []string
	Mode           string
	Fallback       string
	BridgeURL      string
	CurrencySymbol string

	SettingsTTL           time.Duration
	NetworkAttemptTimeout time.Duration
	NetworkProbeDeadline  time.Duration
	BrowserCopyStagger    time.Duration

	SpoolDir   string
	ChromePath string

	GoogleCredentialsPath string
	DriveArchiveFolderID  string

	RabbitMQURL           string
	PrintJobsQueue        string
	PrintAttemptsExchange string

	Profile Profile
}

// Load reads the configuration from environment variables.
// The .env file, if any, must already be loaded by the caller.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                  envOr("PORT", "8080"),
		Mode:                  strings.ToLower(envOr("PRINT_MODE", ModeDirect)),
		Fallback:              strings.ToLower(envOr("PRINT_FALLBACK", FallbackDocument)),
		BridgeURL:             envOr("PRINT_BRIDGE_URL", "ws://127.0.0.1:8182"),
		CurrencySymbol:        envOr("CURRENCY_SYMBOL", utils.DefaultCurrencySymbol),
		SpoolDir:              envOr("PRINT_SPOOL_DIR", "spool"),
		ChromePath:            os.Getenv("CHROME_PATH"),
		GoogleCredentialsPath: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		DriveArchiveFolderID:  os.Getenv("DRIVE_ARCHIVE_FOLDER_ID"),
		RabbitMQURL:           os.Getenv("RABBITMQ_URL"),
		PrintJobsQueue:        envOr("PRINT_JOBS_QUEUE", "print_jobs"),
		PrintAttemptsExchange: envOr("PRINT_ATTEMPTS_EXCHANGE", "print_attempts"),
	}

	// Remove leading colon if present (PORT from some hosts includes it)
	cfg.Port = strings.TrimPrefix(cfg.Port, ":")

	for _, tok := range strings.Split(os.Getenv("PRINT_API_TOKENS"), ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			cfg.APITokens = append(cfg.APITokens, tok)
		}
	}

	if cfg.Mode != ModeDirect && cfg.Mode != ModeBridge {
		return nil, fmt.Errorf("PRINT_MODE must be %q or %q, got %q", ModeDirect, ModeBridge, cfg.Mode)
	}

	if cfg.Fallback != FallbackBrowser && cfg.Fallback != FallbackDocument {
		return nil, fmt.Errorf("PRINT_FALLBACK must be %q or %q, got %q", FallbackBrowser, FallbackDocument, cfg.Fallback)
	}

	var err error
	if cfg.SettingsTTL, err = durationEnv("SETTINGS_CACHE_TTL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.NetworkAttemptTimeout, err = durationEnv("NETWORK_ATTEMPT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.NetworkProbeDeadline, err = durationEnv("NETWORK_PROBE_DEADLINE", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.BrowserCopyStagger, err = durationEnv("BROWSER_COPY_STAGGER", 750*time.Millisecond); err != nil {
		return nil, err
	}

	cfg.Profile = DefaultProfile()
	if path := os.Getenv("PRINT_PROFILE"); path != "" {
		profile, err := LoadProfile(path)
		if err != nil {
			return nil, err
		}
		cfg.Profile = *profile
		log.Printf("✓ Print profile loaded from %s", path)
	}

	if len(cfg.APITokens) == 0 {
		log.Printf("⚠️  PRINT_API_TOKENS is empty: every authenticated endpoint will answer 401")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, raw)
	}
	return d, nil
}
