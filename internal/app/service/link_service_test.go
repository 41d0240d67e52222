package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Mustak4/CleanLinkAI/internal/app/model"
	"github.com/Mustak4/CleanLinkAI/internal/app/repository"
	"github.com/Mustak4/CleanLinkAI/internal/sanitize"
)

type mockLinkRepository struct {
	createFn      func(ctx context.Context, link *model.Link) error
	getFn         func(ctx context.Context, slug string) (*model.Link, error)
	existsFn      func(ctx context.Context, slug string) (bool, error)
	listFn        func(ctx context.Context, limit, offset int) ([]model.Link, error)
	deleteFn      func(ctx context.Context, slug string) error
	slugsFn       func(ctx context.Context) ([]string, error)
	recordVisitFn func(ctx context.Context, slug string, event *model.ClickEvent) (*model.Link, error)
}

func (m *mockLinkRepository) Create(ctx context.Context, link *model.Link) error {
	if m.createFn != nil {
		return m.createFn(ctx, link)
	}
	return nil
}

func (m *mockLinkRepository) GetBySlug(ctx context.Context, slug string) (*model.Link, error) {
	if m.getFn != nil {
		return m.getFn(ctx, slug)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkRepository) Exists(ctx context.Context, slug string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, slug)
	}
	return false, nil
}

func (m *mockLinkRepository) List(ctx context.Context, limit, offset int) ([]model.Link, error) {
	if m.listFn != nil {
		return m.listFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockLinkRepository) Delete(ctx context.Context, slug string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, slug)
	}
	return nil
}

func (m *mockLinkRepository) Slugs(ctx context.Context) ([]string, error) {
	if m.slugsFn != nil {
		return m.slugsFn(ctx)
	}
	return nil, nil
}

func (m *mockLinkRepository) RecordVisit(ctx context.Context, slug string, event *model.ClickEvent) (*model.Link, error) {
	if m.recordVisitFn != nil {
		return m.recordVisitFn(ctx, slug, event)
	}
	return nil, repository.ErrLinkNotFound
}

type mockStatsRepository struct {
	dailyFn func(ctx context.Context, slug string, from, to time.Time) ([]repository.DailyCount, error)
}

func (m *mockStatsRepository) DailyCounts(ctx context.Context, slug string, from, to time.Time) ([]repository.DailyCount, error) {
	if m.dailyFn != nil {
		return m.dailyFn(ctx, slug, from, to)
	}
	return nil, nil
}

func TestLinkServiceCreateLinkSanitizes(t *testing.T) {
	var created *model.Link
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			created = link
			return nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	link, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL: "https://example.com/page?utm_source=google&fbclid=xyz123",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}

	if created == nil {
		t.Fatal("expected repository create to be called")
	}
	if link.CleanURL != "https://example.com/page" {
		t.Fatalf("expected clean URL, got %q", link.CleanURL)
	}
	if link.OriginalURL != "https://example.com/page?utm_source=google&fbclid=xyz123" {
		t.Fatalf("original URL must be stored as submitted, got %q", link.OriginalURL)
	}
	if len(link.Slug) != generatedSlugLength {
		t.Fatalf("expected a generated %d-character slug, got %q", generatedSlugLength, link.Slug)
	}
	for _, r := range link.Slug {
		if !strings.ContainsRune(slugAlphabet, r) {
			t.Fatalf("generated slug %q outside alphabet", link.Slug)
		}
	}
	if link.Clicks != 0 {
		t.Fatalf("new link must start at 0 clicks, got %d", link.Clicks)
	}
}

func TestLinkServiceCreateLinkInvalidURL(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			t.Fatal("create must not be called for an invalid URL")
			return nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	_, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "not a url"})
	if !errors.Is(err, sanitize.ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestLinkServiceCreateLinkCustomSlug(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			if link.Slug != "promo24" {
				t.Fatalf("expected custom slug to be used, got %q", link.Slug)
			}
			return nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	link, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:        "https://example.com/sale",
		CustomSlug: "promo24",
		Title:      "Summer sale",
	})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if link.Slug != "promo24" || link.Title != "Summer sale" {
		t.Fatalf("unexpected link %+v", link)
	}
}

func TestLinkServiceCreateLinkInvalidCustomSlug(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			t.Fatal("create must not be called for an invalid slug")
			return nil
		},
	}
	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})

	for _, slug := range []string{"short", "waytoolong9", "bad-slug", "bad slug"} {
		_, err := svc.CreateLink(context.Background(), CreateLinkInput{
			URL:        "https://example.com/",
			CustomSlug: slug,
		})
		if !errors.Is(err, ErrInvalidSlugFormat) {
			t.Fatalf("CreateLink with slug %q = %v, want ErrInvalidSlugFormat", slug, err)
		}
	}
}

func TestLinkServiceCreateLinkCustomSlugConflict(t *testing.T) {
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			return repository.ErrSlugTaken
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	_, err := svc.CreateLink(context.Background(), CreateLinkInput{
		URL:        "https://example.com/other",
		CustomSlug: "promo24",
	})
	if !errors.Is(err, repository.ErrSlugTaken) {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}
}

func TestLinkServiceCreateLinkGeneratedRetriesCollisions(t *testing.T) {
	probes := 0
	repo := &mockLinkRepository{
		existsFn: func(ctx context.Context, slug string) (bool, error) {
			probes++
			return probes < 3, nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	link, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "https://example.com/"})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if probes != 3 {
		t.Fatalf("expected 3 existence probes, got %d", probes)
	}
	if link.Slug == "" {
		t.Fatal("expected a generated slug")
	}
}

func TestLinkServiceCreateLinkSlugSpaceExhausted(t *testing.T) {
	repo := &mockLinkRepository{
		existsFn: func(ctx context.Context, slug string) (bool, error) {
			return true, nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{MaxSlugAttempts: 10})
	_, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "https://example.com/"})
	if !errors.Is(err, ErrSlugSpaceExhausted) {
		t.Fatalf("expected ErrSlugSpaceExhausted, got %v", err)
	}
}

func TestLinkServiceCreateLinkRegeneratesOnInsertRace(t *testing.T) {
	inserts := 0
	repo := &mockLinkRepository{
		createFn: func(ctx context.Context, link *model.Link) error {
			inserts++
			if inserts == 1 {
				// A concurrent create won the constraint race.
				return repository.ErrSlugTaken
			}
			return nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	_, err := svc.CreateLink(context.Background(), CreateLinkInput{URL: "https://example.com/"})
	if err != nil {
		t.Fatalf("CreateLink returned error: %v", err)
	}
	if inserts != 2 {
		t.Fatalf("expected a second insert after the race, got %d", inserts)
	}
}

func TestLinkServiceResolveLink(t *testing.T) {
	var recorded *model.ClickEvent
	repo := &mockLinkRepository{
		recordVisitFn: func(ctx context.Context, slug string, event *model.ClickEvent) (*model.Link, error) {
			recorded = event
			return &model.Link{Slug: slug, CleanURL: "https://example.com/page", Clicks: 4}, nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	resolution, err := svc.ResolveLink(context.Background(), "abc123", Visit{
		IP:        "203.0.113.9",
		UserAgent: "curl/8.0",
	})
	if err != nil {
		t.Fatalf("ResolveLink returned error: %v", err)
	}

	if resolution.CleanURL != "https://example.com/page" {
		t.Fatalf("expected clean URL, got %q", resolution.CleanURL)
	}
	if recorded == nil {
		t.Fatal("expected a click event to be recorded")
	}
	if recorded.ID == "" {
		t.Fatal("click event must carry an ID")
	}
	if recorded.IP != "203.0.113.9" || recorded.UserAgent != "curl/8.0" {
		t.Fatalf("click event missing visit context: %+v", recorded)
	}
	if recorded.Timestamp.IsZero() || recorded.Timestamp.Location() != time.UTC {
		t.Fatalf("click event timestamp must be set in UTC, got %v", recorded.Timestamp)
	}
}

func TestLinkServiceResolveLinkNotFound(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, &mockStatsRepository{}, Options{})
	_, err := svc.ResolveLink(context.Background(), "doesnotexist", Visit{})
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

// The aggregation window is real: events are filtered by date in storage
// and the series is zero-filled, rather than scanning all-time clicks and
// labelling the result a 30-day view.
func TestLinkServiceStatsFiltersWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)
	var gotFrom, gotTo time.Time

	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, slug string) (*model.Link, error) {
			return &model.Link{Slug: slug, Clicks: 12}, nil
		},
	}
	stats := &mockStatsRepository{
		dailyFn: func(ctx context.Context, slug string, from, to time.Time) ([]repository.DailyCount, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}

	svc := NewLinkService(repo, stats, Options{Now: func() time.Time { return now }})
	if _, err := svc.GetStats(context.Background(), "abc123", 7); err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}

	wantTo := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	wantFrom := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	if !gotTo.Equal(wantTo) || !gotFrom.Equal(wantFrom) {
		t.Fatalf("window [%v, %v), want [%v, %v)", gotFrom, gotTo, wantFrom, wantTo)
	}
}

func TestLinkServiceStatsZeroFillsWindow(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	repo := &mockLinkRepository{
		getFn: func(ctx context.Context, slug string) (*model.Link, error) {
			return &model.Link{Slug: slug, Clicks: 12}, nil
		},
	}
	stats := &mockStatsRepository{
		dailyFn: func(ctx context.Context, slug string, from, to time.Time) ([]repository.DailyCount, error) {
			return []repository.DailyCount{
				{Date: time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), Clicks: 3},
				{Date: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC), Clicks: 2},
			}, nil
		},
	}

	svc := NewLinkService(repo, stats, Options{Now: func() time.Time { return now }})
	got, err := svc.GetStats(context.Background(), "abc123", 7)
	if err != nil {
		t.Fatalf("GetStats returned error: %v", err)
	}

	if got.TotalClicks != 12 {
		t.Fatalf("total must be the link's authoritative counter, got %d", got.TotalClicks)
	}
	if len(got.Daily) != 7 {
		t.Fatalf("expected 7 zero-filled days, got %d", len(got.Daily))
	}
	if got.Daily[0].Date != "2026-08-23" || got.Daily[6].Date != "2026-08-29" {
		t.Fatalf("window bounds wrong: first %s, last %s", got.Daily[0].Date, got.Daily[6].Date)
	}

	var sum int64
	for _, day := range got.Daily {
		sum += day.Clicks
		switch day.Date {
		case "2026-08-25":
			if day.Clicks != 3 {
				t.Fatalf("expected 3 clicks on 2026-08-25, got %d", day.Clicks)
			}
		case "2026-08-29":
			if day.Clicks != 2 {
				t.Fatalf("expected 2 clicks on 2026-08-29, got %d", day.Clicks)
			}
		default:
			if day.Clicks != 0 {
				t.Fatalf("expected zero-filled day %s, got %d", day.Date, day.Clicks)
			}
		}
	}
	if sum != 5 {
		t.Fatalf("window sum = %d, want 5 (remaining clicks fall outside the window)", sum)
	}
}

func TestLinkServiceStatsNotFound(t *testing.T) {
	svc := NewLinkService(&mockLinkRepository{}, &mockStatsRepository{}, Options{})
	_, err := svc.GetStats(context.Background(), "doesnotexist", 0)
	if !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("expected ErrLinkNotFound, got %v", err)
	}
}

func TestLinkServiceDeleteLink(t *testing.T) {
	deleted := ""
	repo := &mockLinkRepository{
		deleteFn: func(ctx context.Context, slug string) error {
			deleted = slug
			return nil
		},
	}

	svc := NewLinkService(repo, &mockStatsRepository{}, Options{})
	if err := svc.DeleteLink(context.Background(), "abc123"); err != nil {
		t.Fatalf("DeleteLink returned error: %v", err)
	}
	if deleted != "abc123" {
		t.Fatalf("expected delete for abc123, got %q", deleted)
	}
}
