package config

import (
	"fmt"
	"strconv"
	"time"
)

// parseEnv overlays environment variables onto config. Credentials for the
// third-party integrations are expected to arrive this way.
func parseEnv(config *Config, getenv func(string) string) error {
	if getenv == nil {
		return nil
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"HUB_HTTP_ADDR", &config.HTTPAddr},
		{"HUB_GRPC_HEALTH_ADDR", &config.GRPCHealthAddr},
		{"DATABASE_DSN", &config.DatabaseDSN},
		{"HUB_SECRET_KEY", &config.SecretKey},
		{"HUB_SESSION_COOKIE", &config.SessionCookieName},
		{"S3_ROOT_USER", &config.S3RootUser},
		{"S3_ROOT_PASSWORD", &config.S3RootPassword},
		{"S3_BUCKET", &config.S3Bucket},
		{"S3_REGION", &config.S3Region},
		{"S3_BASE_ENDPOINT", &config.S3BaseEndpoint},
		{"S3_PREFIX", &config.S3Prefix},
		{"SPOTIFY_CLIENT_ID", &config.SpotifyClientID},
		{"SPOTIFY_CLIENT_SECRET", &config.SpotifyClientSecret},
		{"SPOTIFY_MARKET", &config.SpotifyMarket},
		{"RAWG_API_KEY", &config.RAWGAPIKey},
		{"LLM_API_KEY", &config.LLMAPIKey},
		{"LLM_BASE_URL", &config.LLMBaseURL},
		{"LLM_MODEL", &config.LLMModel},
		{"HUB_LOG_LEVEL", &config.LogLevel},
		{"HUB_LOG_FORMAT", &config.LogFormat},
		{"HUB_PURGE_SCHEDULE", &config.PurgeSchedule},
	}
	for _, s := range strs {
		setString(s.dst, getenv(s.name))
	}

	if v := getenv("HUB_SESSION_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("HUB_SESSION_COOKIE_SECURE: %w", err)
		}
		config.SessionCookieSecure = b
	}

	durs := []struct {
		name string
		dst  *time.Duration
	}{
		{"HUB_ACCESS_TOKEN_TTL", &config.AccessTokenValidityDuration},
		{"HUB_REFRESH_TOKEN_TTL", &config.RefreshTokenValidityDuration},
		{"HUB_UPSTREAM_TIMEOUT", &config.UpstreamTimeout},
		{"HUB_HEALTH_PROBE_INTERVAL", &config.HealthProbeInterval},
	}
	for _, d := range durs {
		v := getenv(d.name)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return nil
}
