package repository

import (
	"context"
	"errors"

	"github.com/Mustak4/CleanLinkAI/internal/app/model"
	"gorm.io/gorm"
)

var (
	// ErrLinkNotFound signals that the requested shortlink does not exist.
	ErrLinkNotFound = errors.New("link not found")
	// ErrSlugTaken signals that another link already owns the slug. The
	// unique constraint on links.slug is the sole arbiter here.
	ErrSlugTaken = errors.New("slug already taken")
)

// LinkRepository defines the data access contract for shortlinks.
type LinkRepository interface {
	Create(ctx context.Context, link *model.Link) error
	GetBySlug(ctx context.Context, slug string) (*model.Link, error)
	Exists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, limit, offset int) ([]model.Link, error)
	Delete(ctx context.Context, slug string) error
	Slugs(ctx context.Context) ([]string, error)
	RecordVisit(ctx context.Context, slug string, event *model.ClickEvent) (*model.Link, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository returns a GORM-backed LinkRepository.
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (r *linkRepository) GetBySlug(ctx context.Context, slug string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return &link, nil
}

func (r *linkRepository) Exists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Link{}).Where("slug = ?", slug).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *linkRepository) List(ctx context.Context, limit, offset int) ([]model.Link, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var result []model.Link
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&result).Error; err != nil {
		return nil, err
	}

	return result, nil
}

func (r *linkRepository) Delete(ctx context.Context, slug string) error {
	result := r.db.WithContext(ctx).Where("slug = ?", slug).Delete(&model.Link{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// Slugs returns every known slug. Used once at startup to seed the
// in-process bloom filter.
func (r *linkRepository) Slugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := r.db.WithContext(ctx).Model(&model.Link{}).Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	return slugs, nil
}

// RecordVisit increments the click counter and appends the click event in a
// single transaction, so the counter and the event log cannot diverge. The
// relative increment means concurrent visits never lose updates.
func (r *linkRepository) RecordVisit(ctx context.Context, slug string, event *model.ClickEvent) (*model.Link, error) {
	var link model.Link
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Link{}).
			Where("slug = ?", slug).
			UpdateColumn("clicks", gorm.Expr("clicks + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrLinkNotFound
		}

		event.LinkSlug = slug
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		return tx.Where("slug = ?", slug).First(&link).Error
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}
