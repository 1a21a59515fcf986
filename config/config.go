package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// AliasRule rewrites a channel name before quality markers are stripped.
// Pattern is matched case-insensitively.
type AliasRule struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Replace string `json:"replace" yaml:"replace"`
}

type QualityConfig struct {
	Enabled                  bool        `json:"enabled" yaml:"enabled"`
	UseNameBasedQuality      bool        `json:"use_name_based_quality" yaml:"use_name_based_quality"`
	QualitySuffixes          []string    `json:"quality_suffixes" yaml:"quality_suffixes"`
	PriorityOrder            []string    `json:"priority_order" yaml:"priority_order"`
	ExcludeLowerQuality      bool        `json:"exclude_lower_quality" yaml:"exclude_lower_quality"`
	NormalizeChannelNames    bool        `json:"normalize_channel_names" yaml:"normalize_channel_names"`
	PrioritizeStreamAnalysis bool        `json:"prioritize_stream_analysis" yaml:"prioritize_stream_analysis"`
	UseProbeCache            bool        `json:"use_stream_quality_cache" yaml:"use_stream_quality_cache"`
	ProbeCacheTTL            int         `json:"stream_quality_cache_ttl" yaml:"stream_quality_cache_ttl"` // seconds
	MaxParallelProbes        int         `json:"max_parallel_stream_probes" yaml:"max_parallel_stream_probes"`
	MaxProbeBytes            int         `json:"max_stream_probe_bytes" yaml:"max_stream_probe_bytes"`
	UseRangeHeader           bool        `json:"use_range_header" yaml:"use_range_header"`
	ProbeTimeout             float64     `json:"probe_timeout" yaml:"probe_timeout"` // seconds
	NormalizationExclusions  []string    `json:"normalization_exclusions" yaml:"normalization_exclusions"`
	AliasRules               []AliasRule `json:"alias_rules" yaml:"alias_rules"`
}

type LivenessConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Workers int     `json:"workers" yaml:"workers"`
	Timeout float64 `json:"timeout" yaml:"timeout"` // seconds
}

type FilterConfig struct {
	AutoSelectEnabled    bool     `json:"auto_select_enabled" yaml:"auto_select_enabled"`
	KeepGroups           []string `json:"keep_groups" yaml:"keep_groups"`
	ExcludeGroups        []string `json:"exclude_groups" yaml:"exclude_groups"`
	ForceKeepChannels    []string `json:"force_keep_channels" yaml:"force_keep_channels"`
	ForceExcludeChannels []string `json:"force_exclude_channels" yaml:"force_exclude_channels"`
	ExcludePatterns      []string `json:"exclude_patterns" yaml:"exclude_patterns"`
}

type Config struct {
	DownloadURL string         `json:"download_url" yaml:"download_url"`
	OutputPath  string         `json:"output_path" yaml:"output_path"`
	ReportPath  string         `json:"report_path" yaml:"report_path"`
	SyncCron    string         `json:"sync_cron" yaml:"sync_cron"`
	SyncOnBoot  bool           `json:"sync_on_boot" yaml:"sync_on_boot"`
	Filters     FilterConfig   `json:"filters" yaml:"filters"`
	Quality     QualityConfig  `json:"quality_management" yaml:"quality_management"`
	Liveness    LivenessConfig `json:"liveness" yaml:"liveness"`
}

func DefaultQuality() QualityConfig {
	return QualityConfig{
		Enabled:                  true,
		UseNameBasedQuality:      false,
		QualitySuffixes:          []string{"4K", "UHD", "HD", "HQ"},
		PriorityOrder:            []string{"4K", "UHD", "HD", "HQ"},
		ExcludeLowerQuality:      true,
		NormalizeChannelNames:    true,
		PrioritizeStreamAnalysis: true,
		UseProbeCache:            false,
		ProbeCacheTTL:            3600,
		MaxParallelProbes:        12,
		MaxProbeBytes:            16384,
		UseRangeHeader:           false,
		ProbeTimeout:             5,
		NormalizationExclusions:  []string{"Rai 4K"},
		AliasRules: []AliasRule{
			{Pattern: `^rai\s*play\s+`, Replace: "Rai "},
		},
	}
}

// Default returns a fresh configuration; callers may mutate it freely.
func Default() *Config {
	return &Config{
		OutputPath: filepath.Join("data", "curated.m3u"),
		SyncCron:   "0 0 * * *",
		SyncOnBoot: true,
		Filters: FilterConfig{
			AutoSelectEnabled: true,
			ExcludePatterns: []string{
				".*test.*",
				".*backup.*",
				".*temp.*",
				".*prova.*",
				".*demo.*",
			},
		},
		Quality: DefaultQuality(),
		Liveness: LivenessConfig{
			Enabled: false,
			Workers: 20,
			Timeout: 8,
		},
	}
}

// Load decodes path over the defaults. YAML is used for .yaml/.yml files and
// JSON for everything else. On failure the defaults are returned together with
// the error so callers can log and carry on.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("error reading config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return Default(), fmt.Errorf("error decoding config %s: %w", path, err)
	}

	return cfg, nil
}
