package prober

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"m3u-curator/utils"
)

const streamInfPrefix = "#EXT-X-STREAM-INF:"

var (
	bandwidthRegex = regexp.MustCompile(`(?:^|[,\s])BANDWIDTH=(\d+)`)
	codecsRegex    = regexp.MustCompile(`CODECS="([^"]+)"`)
)

// looksLikeHLS sniffs a probe sample for an HLS text playlist.
func looksLikeHLS(url, contentType string, sample []byte) bool {
	head := sample
	if len(head) > 20 {
		head = head[:20]
	}
	return bytes.Contains(head, []byte("EXTM3U")) ||
		utils.IsHLSPath(url) ||
		strings.Contains(strings.ToLower(contentType), "mpegurl")
}

// parseMasterPlaylist returns the bandwidth in kbps and the CODECS tag of the
// highest-bandwidth variant. ok is false when no variant declares a
// bandwidth. A truncated sample is parsed as far as it goes.
func parseMasterPlaylist(text string) (bitrateKbps float64, codecs string, ok bool) {
	best := -1.0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, streamInfPrefix) {
			continue
		}
		attrs := strings.TrimPrefix(line, streamInfPrefix)

		bw := bandwidthRegex.FindStringSubmatch(attrs)
		if bw == nil {
			continue
		}
		bps, err := strconv.ParseFloat(bw[1], 64)
		if err != nil {
			continue
		}
		kbps := bps / 1000.0
		if kbps <= best {
			continue
		}

		best = kbps
		codecs = ""
		if m := codecsRegex.FindStringSubmatch(attrs); m != nil {
			codecs = m[1]
		}
	}

	if best < 0 {
		return 0, "", false
	}
	return best, codecs, true
}
