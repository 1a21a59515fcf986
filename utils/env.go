package utils

import (
	"os"
)

const (
	defaultProbeUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) m3u-curator/quality-probe"
	defaultLivenessUserAgent = "VLC/3.0.18 LibVLC/3.0.18"
)

func GetEnv(env string) string {
	switch env {
	case "USER_AGENT":
		// Probe client identity, overridable for picky providers
		userAgent, userAgentExists := os.LookupEnv("USER_AGENT")
		if !userAgentExists {
			userAgent = defaultProbeUserAgent
		}
		return userAgent
	case "LIVENESS_USER_AGENT":
		userAgent, userAgentExists := os.LookupEnv("LIVENESS_USER_AGENT")
		if !userAgentExists {
			userAgent = defaultLivenessUserAgent
		}
		return userAgent
	default:
		return ""
	}
}
