package loa

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"loa-scraper/config"
	"loa-scraper/models"
	"loa-scraper/scraper/wikipedia"
	"loa-scraper/services"
	"loa-scraper/storage"
	"loa-scraper/utils"
)

const titleDisplayRunes = 40

// AuthorResolver finds a profile link for an author. It never fails; an
// empty string means no link.
type AuthorResolver interface {
	Resolve(ctx context.Context, author string) string
}

// Progress receives per-record status updates. It has no effect on output.
type Progress interface {
	Start(total int)
	Update(index int, message string)
	Done()
}

// Deps are the collaborators a Scraper drives.
type Deps struct {
	Fetcher  Fetcher
	Parser   *Parser
	Resolver AuthorResolver
	Pacer    utils.Pacer
	Progress Progress
}

// Scraper orchestrates fetching, parsing, enrichment and output of the catalog.
type Scraper struct {
	catalogURL string
	logger     *utils.Logger
	deps       Deps

	processed []*models.VolumeRecord
}

// New creates a Scraper from explicit collaborators. A nil Progress is
// replaced with a no-op.
func New(cfg *config.Config, logger *utils.Logger, deps Deps) *Scraper {
	if deps.Progress == nil {
		deps.Progress = utils.NopProgress{}
	}
	return &Scraper{catalogURL: cfg.CatalogURL, logger: logger, deps: deps}
}

// NewFromConfig wires the default collaborators described by cfg.
func NewFromConfig(cfg *config.Config, logger *utils.Logger, progress Progress) (*Scraper, error) {
	parser, err := NewParser(Selectors{
		Entry:  cfg.EntrySelector,
		Link:   cfg.LinkSelector,
		Number: cfg.NumberSelector,
		Title:  cfg.TitleSelector,
	}, services.NewClassifier(), logger)
	if err != nil {
		return nil, err
	}

	client := utils.NewHTTPClient(cfg.HTTPTimeoutSec)

	var fetcher Fetcher
	switch cfg.FetchMode {
	case config.FetchModeHTTP, "":
		fetcher = NewHTTPFetcher(client, cfg.UserAgent)
	case config.FetchModeBrowser:
		fetcher = NewBrowserFetcher(cfg.ChromeBin, time.Duration(cfg.HTTPTimeoutSec)*time.Second, logger)
	default:
		return nil, fmt.Errorf("unknown fetch mode %q", cfg.FetchMode)
	}

	var pacer utils.Pacer
	if cfg.RequestsPerSecond > 0 {
		pacer = utils.NewRatePacer(cfg.RequestsPerSecond)
	} else {
		pacer = utils.NewFixedPacer(cfg.RecordDelayMs, cfg.BatchSize, cfg.BatchPauseMs)
	}

	return New(cfg, logger, Deps{
		Fetcher:  fetcher,
		Parser:   parser,
		Resolver: wikipedia.NewResolver(client, cfg.SearchURL, cfg.UserAgent, logger),
		Pacer:    pacer,
		Progress: progress,
	}), nil
}

// Run scrapes the catalog, enriches the volumes inside rng in ascending order
// and writes each to sink. It returns the number of records written. An empty
// selection is not an error and leaves sink untouched.
func (s *Scraper) Run(ctx context.Context, rng Range, sink storage.VolumeWriter) (int, error) {
	s.processed = s.processed[:0]

	s.logger.Info("[loa] Fetching collection page %s", s.catalogURL)
	body, err := s.deps.Fetcher.Fetch(ctx, s.catalogURL)
	if err != nil {
		return 0, fmt.Errorf("fetch collection page: %w", err)
	}

	s.logger.Info("[loa] Parsing volumes...")
	volumes, err := s.deps.Parser.Parse(bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	selected := Filter(volumes, rng)
	s.logger.Info("[loa] Found %d volumes (volumes %s)", len(selected), rng)

	if len(selected) == 0 {
		s.logger.Warn("[loa] No volumes found in specified range")
		return 0, nil
	}

	s.logger.Info("[loa] Processing volumes and finding Wikipedia links...")
	s.deps.Progress.Start(len(selected))

	for i, v := range selected {
		if err := s.deps.Pacer.Before(ctx, i); err != nil {
			return i, err
		}

		s.deps.Progress.Update(i, fmt.Sprintf("Volume %d: %s", v.Number, truncate(v.Title, titleDisplayRunes)))

		v.AttachAuthorLink(s.deps.Resolver.Resolve(ctx, v.Author))

		if err := sink.Write(v); err != nil {
			return i, fmt.Errorf("write volume %d: %w", v.Number, err)
		}
		s.processed = append(s.processed, v)

		if err := s.deps.Pacer.After(ctx, i); err != nil {
			return i + 1, err
		}
	}

	s.deps.Progress.Done()
	return len(selected), nil
}

// Processed returns the records written by the last Run.
func (s *Scraper) Processed() []*models.VolumeRecord {
	return s.processed
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
