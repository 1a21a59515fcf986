package normalizer

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"m3u-curator/config"
	"m3u-curator/logger"
)

// Resolution and codec tokens that are always treated as quality markers.
var builtinMarkers = []string{
	"4K", "8K", "UHD", "FHD", "HD", "SD", "HQ", "LQ", "HDR",
	"2160P", "1080P", "1080I", "720P", "576P", "480P", "360P",
	"HEVC", "H264", "H265", "X264", "X265", "AVC", "AV1", "VP9",
	"50FPS", "60FPS",
}

const edgeSeparators = " -_|:"

var (
	bracketRegex  = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	separatorRuns = regexp.MustCompile(`([-_|:])[-_|:]+`)
	nonAlnumRegex = regexp.MustCompile(`[^A-Za-z0-9]+`)
	nonASCIIMarks = runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII && !unicode.IsSpace(r)
	})
)

// toASCII decomposes accents and drops marks and symbols such as © and ®.
// Chained transformers carry state, so one is built per call.
func toASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(nonASCIIMarks))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

type aliasRule struct {
	pattern *regexp.Regexp
	replace string
}

// Normalizer derives grouping keys and priority ranks from display names.
// It is immutable after New and safe for concurrent use.
type Normalizer struct {
	exclusions map[string]struct{}
	aliases    []aliasRule
	markers    map[string]struct{}
	priority   []string
	logger     logger.Logger
}

type Option func(*Normalizer)

func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		n.logger = l
	}
}

func New(cfg config.QualityConfig, opts ...Option) *Normalizer {
	n := &Normalizer{
		exclusions: make(map[string]struct{}, len(cfg.NormalizationExclusions)),
		markers:    make(map[string]struct{}, len(builtinMarkers)+len(cfg.QualitySuffixes)),
		priority:   append([]string(nil), cfg.PriorityOrder...),
		logger:     logger.Default,
	}
	for _, opt := range opts {
		opt(n)
	}

	for _, ex := range cfg.NormalizationExclusions {
		n.exclusions[strings.ToLower(strings.TrimSpace(ex))] = struct{}{}
	}

	for _, rule := range cfg.AliasRules {
		if rule.Pattern == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			n.logger.Warnf("Skipping invalid alias rule %q: %v", rule.Pattern, err)
			continue
		}
		n.aliases = append(n.aliases, aliasRule{pattern: re, replace: rule.Replace})
	}

	for _, m := range builtinMarkers {
		n.markers[m] = struct{}{}
	}
	for _, s := range cfg.QualitySuffixes {
		if token := markerToken(s); token != "" {
			n.markers[token] = struct{}{}
		}
	}

	return n
}

// maxPasses bounds the reductions BaseName repeats. A pass can uncover work
// for an earlier step, e.g. stripping a leading marker lets an anchored
// alias match.
const maxPasses = 8

// BaseName returns the canonical name used to group quality variants.
// BaseName(BaseName(x)) == BaseName(x) for every x.
func (n *Normalizer) BaseName(name string) string {
	original := strings.TrimSpace(name)
	if n.excluded(original) {
		return original
	}

	s := original
	for range maxPasses {
		next := n.reduce(s)
		if next == "" {
			return original
		}
		if next == s || n.excluded(next) {
			return next
		}
		s = next
	}
	return s
}

func (n *Normalizer) excluded(name string) bool {
	_, ok := n.exclusions[strings.ToLower(name)]
	return ok
}

// reduce runs the normalization steps once.
func (n *Normalizer) reduce(s string) string {
	s = toASCII(s)
	s = bracketRegex.ReplaceAllString(s, " ")
	s = strings.Join(strings.Fields(s), " ")

	for _, rule := range n.aliases {
		if rule.pattern.MatchString(s) {
			s = rule.pattern.ReplaceAllString(s, rule.replace)
		}
	}

	words := n.stripMarkers(strings.Fields(s))

	s = separatorRuns.ReplaceAllString(strings.Join(words, " "), "$1")
	s = strings.Trim(s, edgeSeparators)
	return strings.Join(strings.Fields(s), " ")
}

// PriorityRank is the index of the first priority token the name ends with
// as a whole word, or len(priority) when none match. Matching is
// case-sensitive against the name as given.
func (n *Normalizer) PriorityRank(name string) int {
	name = strings.TrimSpace(name)
	for i, token := range n.priority {
		if name == token || strings.HasSuffix(name, " "+token) {
			return i
		}
	}
	return len(n.priority)
}

// Unranked is the rank given to names without a priority token.
func (n *Normalizer) Unranked() int {
	return len(n.priority)
}

// stripMarkers drops quality markers and bare punctuation from both ends,
// always keeping at least one word.
func (n *Normalizer) stripMarkers(words []string) []string {
	for len(words) > 1 && n.isMarker(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	for len(words) > 1 && n.isMarker(words[0]) {
		words = words[1:]
	}
	return words
}

func (n *Normalizer) isMarker(word string) bool {
	token := markerToken(word)
	if token == "" {
		return true
	}
	_, ok := n.markers[token]
	return ok
}

func markerToken(word string) string {
	return strings.ToUpper(nonAlnumRegex.ReplaceAllString(word, ""))
}
