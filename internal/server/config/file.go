package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hubpessoal/hub/internal/flagx"
	"github.com/hubpessoal/hub/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the config file. Durations accept
// "90s"-style strings or integer nanoseconds. Only non-zero values
// override what is already in Config.
type FileConfig struct {
	HTTPAddr       string `json:"http_addr" yaml:"http_addr"`
	GRPCHealthAddr string `json:"grpc_health_addr" yaml:"grpc_health_addr"`
	DatabaseDSN    string `json:"database_dsn" yaml:"database_dsn"`

	SecretKey                    string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	SessionCookieName            string         `json:"session_cookie_name" yaml:"session_cookie_name"`
	SessionCookieSecure          *bool          `json:"session_cookie_secure" yaml:"session_cookie_secure"`

	S3RootUser     string `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region       string `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	S3Prefix       string `json:"s3_prefix" yaml:"s3_prefix"`
	MaxUploadBytes int64  `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	SpotifyClientID     string `json:"spotify_client_id" yaml:"spotify_client_id"`
	SpotifyClientSecret string `json:"spotify_client_secret" yaml:"spotify_client_secret"`
	SpotifyTokenURL     string `json:"spotify_token_url" yaml:"spotify_token_url"`
	SpotifyAPIURL       string `json:"spotify_api_url" yaml:"spotify_api_url"`
	SpotifyMarket       string `json:"spotify_market" yaml:"spotify_market"`

	RAWGAPIKey  string `json:"rawg_api_key" yaml:"rawg_api_key"`
	RAWGBaseURL string `json:"rawg_base_url" yaml:"rawg_base_url"`

	LLMAPIKey  string `json:"llm_api_key" yaml:"llm_api_key"`
	LLMBaseURL string `json:"llm_base_url" yaml:"llm_base_url"`
	LLMModel   string `json:"llm_model" yaml:"llm_model"`

	UpstreamTimeout timex.Duration `json:"upstream_timeout" yaml:"upstream_timeout"`
	RateLimitRPS    float64        `json:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst  int            `json:"rate_limit_burst" yaml:"rate_limit_burst"`

	LogLevel  string `json:"log_level" yaml:"log_level"`
	LogFormat string `json:"log_format" yaml:"log_format"`

	PurgeSchedule       string         `json:"purge_schedule" yaml:"purge_schedule"`
	HealthProbeInterval timex.Duration `json:"health_probe_interval" yaml:"health_probe_interval"`
}

// parseFile overlays the file named by -c/-config onto config. No flag
// means no file. YAML is chosen by the .yaml/.yml extension, JSON otherwise.
func parseFile(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}
	return LoadFile(config, path)
}

// LoadFile overlays the config file at path onto config.
func LoadFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(config)
	return nil
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.HTTPAddr, fc.HTTPAddr)
	setString(&c.GRPCHealthAddr, fc.GRPCHealthAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)

	setString(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration.Duration > 0 {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration.Duration > 0 {
		c.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	setString(&c.SessionCookieName, fc.SessionCookieName)
	if fc.SessionCookieSecure != nil {
		c.SessionCookieSecure = *fc.SessionCookieSecure
	}

	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.S3Prefix, fc.S3Prefix)
	if fc.MaxUploadBytes > 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}

	setString(&c.SpotifyClientID, fc.SpotifyClientID)
	setString(&c.SpotifyClientSecret, fc.SpotifyClientSecret)
	setString(&c.SpotifyTokenURL, fc.SpotifyTokenURL)
	setString(&c.SpotifyAPIURL, fc.SpotifyAPIURL)
	setString(&c.SpotifyMarket, fc.SpotifyMarket)

	setString(&c.RAWGAPIKey, fc.RAWGAPIKey)
	setString(&c.RAWGBaseURL, fc.RAWGBaseURL)

	setString(&c.LLMAPIKey, fc.LLMAPIKey)
	setString(&c.LLMBaseURL, fc.LLMBaseURL)
	setString(&c.LLMModel, fc.LLMModel)

	if fc.UpstreamTimeout.Duration > 0 {
		c.UpstreamTimeout = fc.UpstreamTimeout.Duration
	}
	if fc.RateLimitRPS > 0 {
		c.RateLimitRPS = fc.RateLimitRPS
	}
	if fc.RateLimitBurst > 0 {
		c.RateLimitBurst = fc.RateLimitBurst
	}

	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.LogFormat, fc.LogFormat)

	setString(&c.PurgeSchedule, fc.PurgeSchedule)
	if fc.HealthProbeInterval.Duration > 0 {
		c.HealthProbeInterval = fc.HealthProbeInterval.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
