package prober

import "regexp"

type codecWeight struct {
	pattern   *regexp.Regexp
	weight    float64
	canonical string
}

// Ordered: the first matching pattern wins, so hvc1 resolves to HEVC before
// the avc pattern is tried.
var codecWeights = []codecWeight{
	{regexp.MustCompile(`(?i)av01`), 1.18, "AV1"},
	{regexp.MustCompile(`(?i)vp09|vp9`), 1.12, "VP9"},
	{regexp.MustCompile(`(?i)hevc|h265|hev1|hvc1`), 1.12, "HEVC"},
	{regexp.MustCompile(`(?i)avc|h264`), 1.0, "H264"},
	{regexp.MustCompile(`(?i)mpeg2`), 0.85, "MPEG2"},
}

// ClassifyCodec maps a raw CODECS tag to a canonical label and weight.
// Unknown tags keep their raw label and weight 1.0.
func ClassifyCodec(raw string) (string, float64) {
	for _, cw := range codecWeights {
		if cw.pattern.MatchString(raw) {
			return cw.canonical, cw.weight
		}
	}
	return raw, 1.0
}
