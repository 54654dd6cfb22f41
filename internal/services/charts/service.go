package charts

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/charts"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

type Config struct {
	Orientation string `yaml:"orientation" envconfig:"ORIENTATION"`
	Timezone    string `yaml:"timezone" envconfig:"TIMEZONE"`
}

type EntryRepository interface {
	CreatedAtBetween(ctx context.Context, formID *int64, start, end time.Time) ([]time.Time, error)
}

type Service struct {
	cfg    Config
	loc    *time.Location
	repo   EntryRepository
	logger ectologger.Logger
	now    func() time.Time
}

func NewService(cfg Config, repo EntryRepository, logger ectologger.Logger) (*Service, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("invalid chart timezone %q: %w", cfg.Timezone, err)
		}
	}
	if cfg.Orientation == "" {
		cfg.Orientation = "ltr"
	}
	return &Service{
		cfg:    cfg,
		loc:    loc,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}, nil
}

// EntriesData counts entries per bucket of the requested range. Failures are
// reported in the response rather than returned.
func (s *Service) EntriesData(ctx context.Context, req charts.Request) charts.Response {
	ctx, span := tracing.StartSpan(ctx, "charts.EntriesData")
	defer span.End()

	if _, err := utils.Validate(req); err != nil {
		return charts.ErrorResponse(err)
	}

	start, end, err := charts.Window(req, s.now().In(s.loc), s.loc)
	if err != nil {
		return charts.ErrorResponse(err)
	}

	timestamps, err := s.repo.CreatedAtBetween(ctx, req.FormID, start, end)
	if err != nil {
		tracing.RecordError(span, err)
		s.logger.WithContext(ctx).WithError(err).Error("failed to load chart data")
		return charts.ErrorResponse(err)
	}

	scale := charts.Scale(start, end)
	return charts.Response{
		DataTable:   charts.BuildDataTable(start, end, scale, timestamps),
		Orientation: s.cfg.Orientation,
		Scale:       scale,
		Formats:     charts.DefaultFormats(),
	}
}
