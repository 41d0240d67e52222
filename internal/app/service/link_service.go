package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Mustak4/CleanLinkAI/internal/app/model"
	"github.com/Mustak4/CleanLinkAI/internal/app/repository"
	"github.com/Mustak4/CleanLinkAI/internal/sanitize"
	"github.com/google/uuid"
)

const (
	defaultStatsWindowDays = 30
	// insertRaceRetries bounds full regeneration passes when an insert
	// loses the unique-constraint race after the existence probe passed.
	insertRaceRetries = 3
)

// LinkService defines behaviour-level operations on the slug registry.
type LinkService interface {
	CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error)
	ResolveLink(ctx context.Context, slug string, visit Visit) (*Resolution, error)
	GetStats(ctx context.Context, slug string, windowDays int) (*LinkStats, error)
	ListLinks(ctx context.Context, limit, offset int) ([]model.Link, error)
	DeleteLink(ctx context.Context, slug string) error
}

// CreateLinkInput captures data required to create a shortlink.
type CreateLinkInput struct {
	URL         string
	CustomSlug  string
	Title       string
	Description string
}

// Visit carries click-time request context recorded with each resolution.
type Visit struct {
	IP        string
	UserAgent string
}

// Resolution is the outcome of a successful slug resolution. Event is the
// click event as committed, handed to callers for post-commit fan-out.
type Resolution struct {
	CleanURL string
	Event    *model.ClickEvent
}

// DailyClicks is one day of the zero-filled stats series.
type DailyClicks struct {
	Date   string `json:"date"`
	Clicks int64  `json:"clicks"`
}

// LinkStats summarizes click activity for one slug. TotalClicks is the
// link's authoritative counter; Daily covers every UTC day in the window,
// zero-filled.
type LinkStats struct {
	Slug        string        `json:"slug"`
	TotalClicks int64         `json:"total_clicks"`
	WindowDays  int           `json:"window_days"`
	Daily       []DailyClicks `json:"daily_clicks"`
}

type linkService struct {
	repo       repository.LinkRepository
	stats      repository.ClickStatsRepository
	filter     *SlugFilter
	entropy    io.Reader
	attempts   int
	windowDays int
	now        func() time.Time
}

// Options tunes optional service behaviour; zero values fall back to
// defaults.
type Options struct {
	// Filter is the in-process slug bloom filter; nil disables pre-filtering.
	Filter *SlugFilter
	// Entropy overrides the randomness source for slug generation.
	Entropy io.Reader
	// MaxSlugAttempts bounds generation retries per create.
	MaxSlugAttempts int
	// StatsWindowDays is the default aggregation window.
	StatsWindowDays int
	// Now overrides the clock.
	Now func() time.Time
}

// NewLinkService returns a service implementation backed by the given
// repositories.
func NewLinkService(repo repository.LinkRepository, stats repository.ClickStatsRepository, opts Options) LinkService {
	s := &linkService{
		repo:       repo,
		stats:      stats,
		filter:     opts.Filter,
		entropy:    opts.Entropy,
		attempts:   opts.MaxSlugAttempts,
		windowDays: opts.StatsWindowDays,
		now:        opts.Now,
	}
	if s.entropy == nil {
		s.entropy = rand.Reader
	}
	if s.attempts <= 0 {
		s.attempts = defaultMaxSlugAttempts
	}
	if s.windowDays <= 0 {
		s.windowDays = defaultStatsWindowDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// CreateLink sanitizes the submitted URL and binds it to a unique slug,
// either the caller-supplied one or a generated one.
func (s *linkService) CreateLink(ctx context.Context, input CreateLinkInput) (*model.Link, error) {
	cleanURL, err := sanitize.Clean(input.URL)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		OriginalURL: input.URL,
		CleanURL:    cleanURL,
		Title:       input.Title,
		Description: input.Description,
	}

	if input.CustomSlug != "" {
		if err := validateCustomSlug(input.CustomSlug); err != nil {
			return nil, err
		}
		link.Slug = input.CustomSlug
		if err := s.repo.Create(ctx, link); err != nil {
			return nil, err
		}
	} else {
		if err := s.createWithGeneratedSlug(ctx, link); err != nil {
			return nil, err
		}
	}

	if s.filter != nil {
		s.filter.Add(link.Slug)
	}
	return link, nil
}

func (s *linkService) createWithGeneratedSlug(ctx context.Context, link *model.Link) error {
	exists := func(candidate string) (bool, error) {
		if s.filter != nil && !s.filter.MayExist(candidate) {
			return false, nil
		}
		return s.repo.Exists(ctx, candidate)
	}

	for pass := 0; pass < insertRaceRetries; pass++ {
		slug, err := generateSlug(s.entropy, exists, s.attempts)
		if err != nil {
			return err
		}

		link.Slug = slug
		err = s.repo.Create(ctx, link)
		if errors.Is(err, repository.ErrSlugTaken) {
			// Lost the insert race to a concurrent create; draw again.
			continue
		}
		if err != nil {
			return fmt.Errorf("create link: %w", err)
		}
		return nil
	}

	return ErrSlugSpaceExhausted
}

// ResolveLink translates a slug to its clean URL, incrementing the click
// counter and appending the click event atomically.
func (s *linkService) ResolveLink(ctx context.Context, slug string, visit Visit) (*Resolution, error) {
	event := &model.ClickEvent{
		ID:        uuid.NewString(),
		IP:        visit.IP,
		UserAgent: visit.UserAgent,
		Timestamp: s.now().UTC(),
	}

	link, err := s.repo.RecordVisit(ctx, slug, event)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		CleanURL: link.CleanURL,
		Event:    event,
	}, nil
}

// GetStats returns the authoritative total plus a zero-filled per-UTC-day
// click series for the trailing window ending today.
func (s *linkService) GetStats(ctx context.Context, slug string, windowDays int) (*LinkStats, error) {
	link, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if windowDays <= 0 {
		windowDays = s.windowDays
	}

	to := s.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -windowDays)

	counts, err := s.stats.DailyCounts(ctx, slug, from, to)
	if err != nil {
		return nil, fmt.Errorf("aggregate clicks: %w", err)
	}

	byDay := make(map[string]int64, len(counts))
	for _, dc := range counts {
		byDay[dc.Date.UTC().Format(time.DateOnly)] = dc.Clicks
	}

	daily := make([]DailyClicks, 0, windowDays)
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		date := day.Format(time.DateOnly)
		daily = append(daily, DailyClicks{Date: date, Clicks: byDay[date]})
	}

	return &LinkStats{
		Slug:        slug,
		TotalClicks: link.Clicks,
		WindowDays:  windowDays,
		Daily:       daily,
	}, nil
}

func (s *linkService) ListLinks(ctx context.Context, limit, offset int) ([]model.Link, error) {
	links, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return links, nil
}

// DeleteLink removes the link; its click events are kept as orphaned audit
// rows.
func (s *linkService) DeleteLink(ctx context.Context, slug string) error {
	return s.repo.Delete(ctx, slug)
}
