package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/abrezinsky/gacharank/internal/errors"
	"github.com/abrezinsky/gacharank/internal/gacha"
	"github.com/abrezinsky/gacharank/internal/logger"
	"github.com/abrezinsky/gacharank/internal/models"
	"github.com/abrezinsky/gacharank/internal/repository"
)

// CatalogService manages the draw pool and its display title
type CatalogService struct {
	log  logger.Logger
	repo repository.CatalogRepository
	mu   sync.Mutex
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(log logger.Logger, repo repository.CatalogRepository) *CatalogService {
	return &CatalogService{log: log, repo: repo}
}

// CharacterInput is an unvalidated character from an admin or an import file
type CharacterInput struct {
	ID    string `json:"id" yaml:"id"`
	Rank  string `json:"rank" yaml:"rank"`
	Name  string `json:"name" yaml:"name"`
	Image string `json:"image" yaml:"image"`
	Rate  Rate   `json:"rate" yaml:"rate"`
}

// Rate is a character weight as typed by an admin or written in an import
// file. A value that is not a finite number decodes as 0 rather than failing
// the whole request.
type Rate float64

// UnmarshalJSON accepts numbers and quoted numbers
func (r *Rate) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	*r = Rate(ParseRate(s))
	return nil
}

// UnmarshalYAML reads scalar nodes through ParseRate; anything else is 0
func (r *Rate) UnmarshalYAML(value *yaml.Node) error {
	*r = 0
	if value.Kind == yaml.ScalarNode {
		*r = Rate(ParseRate(value.Value))
	}
	return nil
}

// ImportResult summarizes a catalog import
type ImportResult struct {
	TitleSet bool     `json:"title_set"`
	Added    int      `json:"added"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// catalogFile is the YAML layout accepted by ImportYAML
type catalogFile struct {
	Title      string           `yaml:"title"`
	Characters []CharacterInput `yaml:"characters"`
}

// toCharacter validates in and normalizes its tier
func (in CharacterInput) toCharacter() (models.Character, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return models.Character{}, errors.Validation("character id is required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Character{}, errors.Validationf("character %s: name is required", id)
	}
	tier, err := gacha.ParseTier(in.Rank)
	if err != nil {
		return models.Character{}, errors.Validationf("character %s: %v", id, err)
	}
	rate := float64(in.Rate)
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = 0
	}
	if rate < 0 {
		return models.Character{}, errors.Validationf("character %s: rate must be >= 0, got %v", id, rate)
	}
	return models.Character{
		ID:    id,
		Rank:  tier,
		Name:  name,
		Image: strings.TrimSpace(in.Image),
		Rate:  rate,
	}, nil
}

// ParseRate reads a rate typed by an admin. Anything that is not a
// finite number becomes 0, which leaves the character unreachable.
func ParseRate(s string) float64 {
	rate, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

// GetCatalog returns the title and the ordered pool
func (s *CatalogService) GetCatalog(ctx context.Context) (*models.Catalog, error) {
	title, err := s.repo.GetCatalogTitle(ctx)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	characters, err := s.repo.ListCharacters(ctx)
	if err != nil {
		return nil, errors.Persistence(err)
	}
	return &models.Catalog{Title: title, Characters: characters}, nil
}

// SetTitle changes the display title
func (s *CatalogService) SetTitle(ctx context.Context, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return errors.Validation("title is required")
	}
	if err := s.repo.SetCatalogTitle(ctx, title); err != nil {
		return errors.Persistence(err)
	}
	s.log.Info("Catalog title changed", "title", title)
	return nil
}

// AddCharacter appends a character to the pool
func (s *CatalogService) AddCharacter(ctx context.Context, in CharacterInput) (*models.Character, error) {
	c, err := in.toCharacter()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.CreateCharacter(ctx, c); err != nil {
		return nil, storeError(err, fmt.Sprintf("character %s already exists", c.ID))
	}
	s.log.Info("Character added", "id", c.ID, "rank", c.Rank, "rate", c.Rate)
	return &c, nil
}

// RenameCharacter changes a character's display name
func (s *CatalogService) RenameCharacter(ctx context.Context, id, name string) error {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return errors.Validation("character id and name are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.RenameCharacter(ctx, id, name); err != nil {
		return storeError(err, fmt.Sprintf("character %s not found", id))
	}
	return nil
}

// RemoveCharacter deletes a character from the pool
func (s *CatalogService) RemoveCharacter(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.Validation("character id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteCharacter(ctx, id); err != nil {
		return storeError(err, fmt.Sprintf("character %s not found", id))
	}
	s.log.Info("Character removed", "id", id)
	return nil
}

// ListCharacters renders the pool as an admin listing
func (s *CatalogService) ListCharacters(ctx context.Context) (string, error) {
	characters, err := s.repo.ListCharacters(ctx)
	if err != nil {
		return "", errors.Persistence(err)
	}
	return FormatListing(characters), nil
}

// FormatListing renders one "[id] RANK name (weight: rate)" line per character
// under a header carrying the total rate.
func FormatListing(characters []models.Character) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 Characters (total rate: %s)\n", formatRate(gacha.TotalWeight(characters)))
	b.WriteString("With a total of 100, each rate reads as a percentage.\n\n")

	if len(characters) == 0 {
		b.WriteString("(none registered)")
		return b.String()
	}
	for i, c := range characters {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s] %s %s (weight: %s)", c.ID, c.Rank.Label(), c.Name, formatRate(c.Rate))
	}
	return b.String()
}

func formatRate(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// ImportYAML loads a catalog document. Characters whose id already exists are
// skipped; invalid entries are reported and skipped.
func (s *CatalogService) ImportYAML(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var doc catalogFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &ImportResult{}, nil
		}
		return nil, errors.Validationf("invalid catalog document: %v", err)
	}

	result := &ImportResult{}
	if title := strings.TrimSpace(doc.Title); title != "" {
		if err := s.SetTitle(ctx, title); err != nil {
			return nil, err
		}
		result.TitleSet = true
	}

	for _, in := range doc.Characters {
		_, err := s.AddCharacter(ctx, in)
		switch {
		case err == nil:
			result.Added++
		case errors.Is(err, errors.ErrConflict):
			result.Skipped++
		case errors.Is(err, errors.ErrValidation):
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
		default:
			return result, err
		}
	}

	s.log.Info("Catalog imported", "added", result.Added, "skipped", result.Skipped)
	return result, nil
}
