package prober

// StreamMetrics is the outcome of probing one URL. A nil Score means the
// stream could not be evaluated; Error then usually says why.
type StreamMetrics struct {
	URL            string   `json:"url"`
	ResponseTimeMs *float64 `json:"response_ms,omitempty"`
	BitrateKbps    *float64 `json:"bitrate_kbps,omitempty"`
	Codec          string   `json:"codec,omitempty"`
	CodecWeight    float64  `json:"codec_weight"`
	Score          *float64 `json:"score,omitempty"`
	Error          string   `json:"error,omitempty"`
}

func newMetrics(url string) StreamMetrics {
	return StreamMetrics{URL: url, CodecWeight: 1.0}
}

// Failed reports whether no score could be computed.
func (m StreamMetrics) Failed() bool {
	return m.Score == nil
}

// ScoreOrZero is the value used for ranking: a missing score ranks as 0.
func (m StreamMetrics) ScoreOrZero() float64 {
	if m.Score == nil {
		return 0
	}
	return *m.Score
}

func ptr(v float64) *float64 {
	return &v
}

// computeScore fills Score from bitrate, codec weight and latency. With a
// known bitrate latency is a soft penalty of 0.5 per millisecond; without
// one the score falls back to a bounded inverse of latency.
func (m *StreamMetrics) computeScore() {
	switch {
	case m.BitrateKbps != nil && *m.BitrateKbps > 0:
		latency := 0.0
		if m.ResponseTimeMs != nil {
			latency = *m.ResponseTimeMs
		}
		m.Score = ptr(*m.BitrateKbps*m.CodecWeight - 0.5*latency)
	case m.ResponseTimeMs != nil:
		m.Score = ptr(100000 / (*m.ResponseTimeMs + 50))
	}
}
