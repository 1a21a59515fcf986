package merger

import (
	"sort"

	"m3u-curator/config"
	"m3u-curator/normalizer"
	"m3u-curator/playlist"
)

// MergeByName merges quality variants using names alone. Channels are
// grouped by exact base name and ordered by priority rank within a group.
// With exclude_lower_quality only the best-ranked member of each group is
// kept; otherwise every member is returned in rank order. Nil entries are
// dropped and counted as removed. No network access.
func MergeByName(channels []*playlist.Channel, cfg config.QualityConfig) ([]*playlist.Channel, int) {
	n := normalizer.New(cfg)

	type ranked struct {
		ch   *playlist.Channel
		rank int
	}
	index := make(map[string]int)
	var bases []string
	var groups [][]ranked
	removed := 0

	for _, ch := range channels {
		if ch == nil {
			removed++
			continue
		}
		base := n.BaseName(ch.Name)
		i, ok := index[base]
		if !ok {
			i = len(groups)
			index[base] = i
			bases = append(bases, base)
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], ranked{ch: ch, rank: n.PriorityRank(ch.Name)})
	}

	result := make([]*playlist.Channel, 0, len(channels))
	for i, g := range groups {
		sort.SliceStable(g, func(a, b int) bool { return g[a].rank < g[b].rank })

		if cfg.ExcludeLowerQuality && len(g) > 1 {
			best := g[0].ch
			if cfg.NormalizeChannelNames {
				best.Rename(bases[i])
			}
			result = append(result, best)
			removed += len(g) - 1
			continue
		}
		for _, r := range g {
			result = append(result, r.ch)
		}
	}
	return result, removed
}
