package config

import (
	"os"
	"strconv"
	"strings"
)

// ApplyEnv overrides fields from the environment. Unset or unparsable
// variables leave the current value alone.
func (c *Config) ApplyEnv() {
	if v, ok := lookup("M3U_URL"); ok {
		c.DownloadURL = v
	}
	if v, ok := lookup("OUTPUT_PATH"); ok {
		c.OutputPath = v
	}
	if v, ok := lookup("REPORT_PATH"); ok {
		c.ReportPath = v
	}
	if v, ok := lookup("SYNC_CRON"); ok {
		c.SyncCron = v
	}
	lookupBool("SYNC_ON_BOOT", &c.SyncOnBoot)

	lookupInt("MAX_PARALLEL_PROBES", &c.Quality.MaxParallelProbes)
	lookupInt("MAX_PROBE_BYTES", &c.Quality.MaxProbeBytes)
	if lookupInt("PROBE_CACHE_TTL", &c.Quality.ProbeCacheTTL) {
		c.Quality.UseProbeCache = c.Quality.ProbeCacheTTL > 0
	}
	lookupBool("USE_RANGE_HEADER", &c.Quality.UseRangeHeader)

	if lookupInt("LIVENESS_WORKERS", &c.Liveness.Workers) {
		c.Liveness.Enabled = true
	}
	if v, ok := lookup("LIVENESS_TIMEOUT"); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			c.Liveness.Timeout = f
		}
	}
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func lookupInt(key string, dst *int) bool {
	v, ok := lookup(key)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return false
	}
	*dst = n
	return true
}

func lookupBool(key string, dst *bool) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return
	}
	*dst = b
}
