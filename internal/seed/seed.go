// Package seed loads a YAML description of the menu and writes it through
// the repositories.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/utafrali/quecomemoshoy/internal/domain"
	"github.com/utafrali/quecomemoshoy/internal/repository"
	apperrors "github.com/utafrali/quecomemoshoy/pkg/errors"
)

// namespace makes seeded ids stable so a second run finds the same rows.
var namespace = uuid.MustParse("6f1c2f64-1d4b-4b8e-9a57-3f0b8f3c2a10")

// Data is the on-disk seed format.
type Data struct {
	Categories []Category `yaml:"categories"`
	Banners    []string   `yaml:"banners"`
	FAQs       []FAQ      `yaml:"faqs"`
}

// Category groups the products seeded under it.
type Category struct {
	Name     string    `yaml:"name"`
	Products []Product `yaml:"products"`
}

// Product is a seeded catalog item. Price is a decimal string.
type Product struct {
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Description string `yaml:"description"`
	ImageURL    string `yaml:"image_url"`
}

// FAQ is a seeded chat answer.
type FAQ struct {
	Question string   `yaml:"question"`
	Answer   string   `yaml:"answer"`
	Keywords []string `yaml:"keywords"`
	Order    int      `yaml:"order"`
	Inactive bool     `yaml:"inactive"`
}

// Load decodes seed data. Unknown keys are rejected.
func Load(r io.Reader) (*Data, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var d Data
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return &d, nil
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &d, nil
}

// Repos are the stores seed data is written to.
type Repos struct {
	Categories repository.CategoryRepository
	Products   repository.ProductRepository
	Banners    repository.BannerRepository
	FAQs       repository.FAQRepository
}

// Result counts rows written and rows already present.
type Result struct {
	Created int
	Skipped int
}

// Seeder writes seed data.
type Seeder struct {
	repos  Repos
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Seeder.
func New(repos Repos, logger *slog.Logger) *Seeder {
	return &Seeder{repos: repos, logger: logger, now: time.Now}
}

// Apply writes every entry in d. Rows that already exist are skipped, so
// Apply can be re-run against a seeded database.
func (s *Seeder) Apply(ctx context.Context, d *Data) (Result, error) {
	var res Result
	now := s.now().UTC()

	for _, c := range d.Categories {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return res, fmt.Errorf("category without a name")
		}
		cat := &domain.Category{ID: stableID("category", name), Name: name, CreatedAt: now}
		if err := s.record(&res, s.repos.Categories.Create(ctx, cat), "category", name); err != nil {
			return res, err
		}

		for _, p := range c.Products {
			item, err := catalogItem(cat.ID, p, now)
			if err != nil {
				return res, err
			}
			if err := s.record(&res, s.repos.Products.Create(ctx, item), "product", item.Name); err != nil {
				return res, err
			}
		}
	}

	for _, u := range d.Banners {
		b := &domain.Banner{ID: stableID("banner", u), ImageURL: u, CreatedAt: now}
		if err := s.record(&res, s.repos.Banners.Create(ctx, b), "banner", u); err != nil {
			return res, err
		}
	}

	for _, f := range d.FAQs {
		faq := &domain.FAQ{
			ID:        stableID("faq", f.Question),
			Question:  strings.TrimSpace(f.Question),
			Answer:    strings.TrimSpace(f.Answer),
			Keywords:  strings.Join(f.Keywords, ","),
			Order:     f.Order,
			Active:    !f.Inactive,
			CreatedAt: now,
		}
		if faq.Question == "" || faq.Answer == "" {
			return res, fmt.Errorf("faq %q needs a question and an answer", f.Question)
		}
		if err := s.record(&res, s.repos.FAQs.Create(ctx, faq), "faq", faq.Question); err != nil {
			return res, err
		}
	}

	s.logger.InfoContext(ctx, "seed applied",
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

func (s *Seeder) record(res *Result, err error, kind, name string) error {
	switch {
	case err == nil:
		res.Created++
		return nil
	case errors.Is(err, apperrors.ErrAlreadyExists):
		res.Skipped++
		s.logger.Debug("seed row exists", slog.String("kind", kind), slog.String("name", name))
		return nil
	default:
		return fmt.Errorf("seed %s %q: %w", kind, name, err)
	}
}

func catalogItem(categoryID string, p Product, now time.Time) (*domain.CatalogItem, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, fmt.Errorf("product without a name")
	}
	price, err := decimal.NewFromString(p.Price)
	if err != nil || price.IsNegative() {
		return nil, fmt.Errorf("product %q: invalid price %q", name, p.Price)
	}
	return &domain.CatalogItem{
		ID:          stableID("product", categoryID+"/"+name),
		Name:        name,
		UnitPrice:   price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		CategoryID:  categoryID,
		Status:      domain.ItemStatusActive,
		InStock:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func stableID(kind, key string) string {
	return uuid.NewSHA1(namespace, []byte(kind+":"+strings.ToLower(strings.TrimSpace(key)))).String()
}
