package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"m3u-curator/config"
	"m3u-curator/filters"
	"m3u-curator/liveness"
	"m3u-curator/logger"
	"m3u-curator/merger"
	"m3u-curator/playlist"
	"m3u-curator/prober"
	"m3u-curator/report"
	"m3u-curator/source"
	"m3u-curator/utils"
	"m3u-curator/workerpool"
)

// Result summarizes one run.
type Result struct {
	RunID      string              `json:"run_id"`
	Parsed     int                 `json:"parsed"`
	Unwanted   int                 `json:"unwanted"`
	Dead       int                 `json:"dead"`
	MergedAway int                 `json:"merged_away"`
	Selected   int                 `json:"selected"`
	Exported   int                 `json:"exported"`
	OutputPath string              `json:"output_path,omitempty"`
	ReportPath string              `json:"report_path,omitempty"`
	Duration   time.Duration       `json:"duration"`
	DeadList   []*playlist.Channel `json:"-"`
	Channels   []*playlist.Channel `json:"-"`
}

// Pipeline fetches, curates and exports a playlist.
type Pipeline struct {
	cfg      *config.Config
	client   utils.HTTPClient
	prober   merger.Prober
	logger   logger.Logger
	progress func(string)
}

type Option func(*Pipeline)

func WithHTTPClient(client utils.HTTPClient) Option {
	return func(p *Pipeline) {
		p.client = client
	}
}

// WithProber replaces the network prober used by the quality merge.
func WithProber(pr merger.Prober) Option {
	return func(p *Pipeline) {
		p.prober = pr
	}
}

func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		p.logger = l
	}
}

func WithProgress(sink func(string)) Option {
	return func(p *Pipeline) {
		p.progress = sink
	}
}

func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    cfg,
		client: utils.DefaultHTTPClient,
		logger: logger.Default,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) report(msg string) {
	workerpool.Report(p.progress, msg)
}

// Run performs one pass. Only boundary failures (fetching, writing files)
// are returned as errors; an empty selection is reported as Exported == 0.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	p.logger.Logf("[%s] Starting curation run", res.RunID)

	p.report("Downloading playlist...")
	lines, err := source.Fetch(ctx, p.cfg.DownloadURL, p.client)
	if err != nil {
		return res, fmt.Errorf("error fetching playlist: %w", err)
	}

	p.report("Parsing channels...")
	channels := playlist.Parse(lines)
	res.Parsed = len(channels)
	p.report(fmt.Sprintf("Parsed %d channels", res.Parsed))

	channels, res.Unwanted, _ = filters.RemoveUnwanted(channels, p.cfg.Filters)
	p.report(fmt.Sprintf("Unwanted channels removed: %d filtered out", res.Unwanted))

	if p.cfg.Liveness.Enabled {
		checker := liveness.NewFromConfig(p.cfg.Liveness,
			liveness.WithHTTPClient(p.client),
			liveness.WithLogger(p.logger),
			liveness.WithProgress(p.progress),
		)
		channels, res.Dead, res.DeadList = checker.RemoveDead(ctx, channels)
	}

	var store *report.Store
	if p.cfg.ReportPath != "" {
		store, err = report.NewStore()
		if err != nil {
			return res, err
		}
	}

	if p.cfg.Quality.Enabled {
		opts := []merger.Option{
			merger.WithLogger(p.logger),
			merger.WithProgress(p.progress),
			merger.WithProber(p.newProber()),
		}
		if store != nil {
			opts = append(opts, merger.WithRecorder(store))
		}
		channels, res.MergedAway = merger.New(p.cfg.Quality, opts...).Merge(ctx, channels)
	}

	p.report("Applying filters...")
	selected := filters.Select(channels, p.cfg.Filters, p.cfg.Quality)
	filters.MarkSelected(selected)
	res.Selected = len(selected)
	res.Channels = channels
	p.report(fmt.Sprintf("Filtering complete: %d channels kept", res.Selected))

	p.report("Exporting M3U playlist...")
	res.Exported, err = playlist.WriteFile(p.cfg.OutputPath, channels)
	switch {
	case errors.Is(err, playlist.ErrNothingToExport):
		p.logger.Warnf("[%s] No channels selected for export, %s left untouched", res.RunID, p.cfg.OutputPath)
	case err != nil:
		return res, fmt.Errorf("error exporting playlist: %w", err)
	default:
		res.OutputPath = p.cfg.OutputPath
		p.report(fmt.Sprintf("Successfully exported %d channels", res.Exported))
	}

	if store != nil {
		if err := store.WriteFile(p.cfg.ReportPath, res.RunID); err != nil {
			return res, fmt.Errorf("error writing report: %w", err)
		}
		res.ReportPath = p.cfg.ReportPath
		p.logger.Debugf("[%s] Report with %d variants written to %s", res.RunID, store.Len(), p.cfg.ReportPath)
	}

	res.Duration = time.Since(start)
	p.logger.Logf("[%s] Run complete in %s: parsed=%d unwanted=%d dead=%d merged=%d selected=%d exported=%d",
		res.RunID, res.Duration.Round(time.Millisecond), res.Parsed, res.Unwanted, res.Dead, res.MergedAway, res.Selected, res.Exported)
	return res, nil
}

func (p *Pipeline) newProber() merger.Prober {
	if p.prober != nil {
		return p.prober
	}
	return prober.NewFromConfig(p.cfg.Quality,
		prober.WithHTTPClient(p.client),
		prober.WithLogger(p.logger),
	)
}
