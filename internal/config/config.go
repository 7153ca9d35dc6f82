package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const dotEnvFile = ".env"

var ErrMissingRequired = errors.New("missing required config")

type Config struct {
	KubeConfig        string
	KubeMaster        string
	SlackToken        string
	SlackChannel      string
	SlackAPIURL       string
	Region            string
	ProjectID         string
	ClusterID         string
	ConsoleBaseURL    string
	IgnoreNamespaces  []string
	ChannelAnnotation string
	QueueSize         int
	LogTailLines      int64
	LogMaxChars       int
	UploadLogs        bool
	DeliveryTimeout   time.Duration
	EnrichTimeout     time.Duration
	StaleAfter        time.Duration
	PingerInterval    time.Duration
	LogLevel          string
	LogFormat         string
	HTTPPort          string
	MetricsPort       string
	TerminationFile   string
}

// Load reads the configuration from the environment. Values from a .env file
// in the working directory are applied first without overriding the
// environment; a missing file is not an error.
func Load() (*Config, error) {
	err := godotenv.Load(dotEnvFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", dotEnvFile, err)
	}

	cfg := &Config{
		KubeConfig:        getEnvWithFallback(envKeyKubeConfig, envKeyKubeConfigFallback),
		KubeMaster:        getEnvWithFallback(envKeyKubeMaster, envKeyKubeMasterFallback),
		SlackToken:        getEnvWithFallback(envKeySlackToken, envKeySlackTokenFallback),
		SlackChannel:      getEnvWithFallback(envKeySlackChannel, envKeySlackChannelFallback),
		SlackAPIURL:       getEnvOrDefault(envKeySlackAPIURL, defaultSlackAPIURL),
		Region:            getEnvWithFallback(envKeyRegion, envKeyRegionFallback),
		ProjectID:         getEnvWithFallback(envKeyProjectID, envKeyProjectIDFallback),
		ClusterID:         getEnvWithFallback(envKeyClusterID, envKeyClusterIDFallback),
		ConsoleBaseURL:    getEnvOrDefault(envKeyConsoleBaseURL, defaultConsoleBaseURL),
		IgnoreNamespaces:  ParseList(getEnvWithFallback(envKeyIgnoreNamespaces, envKeyIgnoreNamespacesFallback)),
		ChannelAnnotation: getEnvOrDefault(envKeyAnnotationChannel, defaultChannelAnnotation),
		LogLevel:          getEnvOrDefault(envKeyLogLevel, defaultLogLevel),
		LogFormat:         getEnvOrDefault(envKeyLogFormat, defaultLogFormat),
		HTTPPort:          getEnvOrDefault(envKeyHTTPPort, defaultHTTPPort),
		MetricsPort:       getEnvOrDefault(envKeyMetricsPort, defaultMetricsPort),
		TerminationFile:   getEnvOrDefault(envKeyTerminationFile, defaultTerminationFile),
	}

	err = checkRequired([]requiredValue{
		{key: envKeySlackToken, value: cfg.SlackToken},
		{key: envKeySlackChannel, value: cfg.SlackChannel},
		{key: envKeyRegion, value: cfg.Region},
		{key: envKeyProjectID, value: cfg.ProjectID},
	})
	if err != nil {
		return nil, err
	}

	cfg.QueueSize, err = parseInt(envKeyQueueSize, defaultQueueSize, envMinQueueSize)
	if err != nil {
		return nil, err
	}

	logTailLines, err := parseInt(envKeyLogTailLines, defaultLogTailLines, envMinLogTailLines)
	if err != nil {
		return nil, err
	}

	cfg.LogTailLines = int64(logTailLines)

	cfg.LogMaxChars, err = parseInt(envKeyLogMaxChars, defaultLogMaxChars, envMinLogMaxChars)
	if err != nil {
		return nil, err
	}

	cfg.UploadLogs, err = parseBool(envKeyUploadLogs, false)
	if err != nil {
		return nil, err
	}

	cfg.DeliveryTimeout, err = parseDuration(envKeyDeliveryTimeout, defaultDeliveryTimeout, envMinDeliveryTimeout)
	if err != nil {
		return nil, err
	}

	cfg.EnrichTimeout, err = parseDuration(envKeyEnrichTimeout, defaultEnrichTimeout, envMinEnrichTimeout)
	if err != nil {
		return nil, err
	}

	cfg.StaleAfter, err = parseDuration(envKeyStaleAfter, defaultStaleAfter, envMinStaleAfter)
	if err != nil {
		return nil, err
	}

	cfg.PingerInterval, err = parseDuration(envKeyPingerInterval, defaultPingerInterval, envMinPingerInterval)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseList splits a comma-separated list, trimming entries and dropping empty ones.
func ParseList(value string) []string {
	var out []string

	for item := range strings.SplitSeq(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		out = append(out, item)
	}

	return out
}

type requiredValue struct {
	key   string
	value string
}

// checkRequired reports every empty value, in the given order.
func checkRequired(values []requiredValue) error {
	var errs error

	for _, v := range values {
		if v.value == "" {
			errs = errors.Join(errs, fmt.Errorf("%w: %s", ErrMissingRequired, v.key))
		}
	}

	return errs
}

func parseDuration(key string, defaultValue, minValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if value < minValue {
		return 0, fmt.Errorf("%s must be at least %s, got %s", key, minValue, value)
	}

	return value, nil
}

func parseInt(key string, defaultValue, minValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}

	if value < minValue {
		return 0, fmt.Errorf("%s must be at least %d, got %d", key, minValue, value)
	}

	return value, nil
}

func parseBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", key, err)
	}

	return value, nil
}

func getEnvWithFallback(key, fallbackKey string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return os.Getenv(fallbackKey)
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}
