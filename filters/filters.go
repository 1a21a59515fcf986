package filters

import (
	"regexp"

	"m3u-curator/config"
	"m3u-curator/merger"
	"m3u-curator/playlist"
)

// compilePatterns compiles exclusion patterns case-insensitively, dropping
// the ones that do not compile.
func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		compiled = append(compiled, re)
	}
	return compiled
}

func matchesAny(patterns []*regexp.Regexp, name string) bool {
	for _, re := range patterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// RemoveUnwanted drops channels named in force_exclude_channels or matching
// an exclusion pattern. Both partitions keep the input order.
func RemoveUnwanted(channels []*playlist.Channel, cfg config.FilterConfig) (wanted []*playlist.Channel, removed int, unwanted []*playlist.Channel) {
	if len(cfg.ExcludePatterns) == 0 && len(cfg.ForceExcludeChannels) == 0 {
		return channels, 0, nil
	}

	forceExclude := toSet(cfg.ForceExcludeChannels)
	patterns := compilePatterns(cfg.ExcludePatterns)

	wanted = make([]*playlist.Channel, 0, len(channels))
	for _, ch := range channels {
		_, excluded := forceExclude[ch.Name]
		if excluded || matchesAny(patterns, ch.Name) {
			unwanted = append(unwanted, ch)
			continue
		}
		wanted = append(wanted, ch)
	}
	return wanted, len(unwanted), unwanted
}

// Select returns the channels to preselect. Rules apply in order: a
// force-excluded name is out, a force-kept name is in, an excluded group is
// out, and a kept group is in unless an exclusion pattern matches the name.
// An empty keep_groups list keeps every group instead of selecting nothing,
// so a configuration without groups still exports the whole list. Select
// does not touch the Selected flag.
func Select(channels []*playlist.Channel, cfg config.FilterConfig, quality config.QualityConfig) []*playlist.Channel {
	if !cfg.AutoSelectEnabled {
		return nil
	}

	forceExclude := toSet(cfg.ForceExcludeChannels)
	forceKeep := toSet(cfg.ForceKeepChannels)
	excludeGroups := toSet(cfg.ExcludeGroups)
	keepGroups := toSet(cfg.KeepGroups)
	patterns := compilePatterns(cfg.ExcludePatterns)

	var selected []*playlist.Channel
	for _, ch := range channels {
		if keep(ch, forceExclude, forceKeep, excludeGroups, keepGroups, patterns) {
			selected = append(selected, ch)
		}
	}

	if quality.UseNameBasedQuality {
		selected, _ = merger.MergeByName(selected, quality)
	}
	return selected
}

func keep(ch *playlist.Channel, forceExclude, forceKeep, excludeGroups, keepGroups map[string]struct{}, patterns []*regexp.Regexp) bool {
	if _, ok := forceExclude[ch.Name]; ok {
		return false
	}
	if _, ok := forceKeep[ch.Name]; ok {
		return true
	}
	if _, ok := excludeGroups[ch.Group]; ok {
		return false
	}
	if _, ok := keepGroups[ch.Group]; ok || len(keepGroups) == 0 {
		return !matchesAny(patterns, ch.Name)
	}
	return false
}

// MarkSelected sets Selected on every channel in selected.
func MarkSelected(selected []*playlist.Channel) {
	for _, ch := range selected {
		ch.Selected = true
	}
}
