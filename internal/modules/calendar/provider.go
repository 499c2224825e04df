package calendar

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

// cacheTTL is how long a loaded holiday set stays fresh. Holiday tables
// change a few times a year at most.
const cacheTTL = 12 * time.Hour

// Provider loads holiday sets from the repository with a TTL cache in front.
// Callers acquire the set once per batch and pass it into the settlement
// calculator by value.
type Provider struct {
	repo  *Repository
	cache *gocache.Cache
	log   zerolog.Logger
}

// NewProvider creates a new holiday set provider
func NewProvider(repo *Repository, log zerolog.Logger) *Provider {
	return &Provider{
		repo:  repo,
		cache: gocache.New(cacheTTL, cacheTTL),
		log:   log.With().Str("service", "holiday_provider").Logger(),
	}
}

// Get returns the holiday set for a country, loading it from storage on a
// cache miss.
func (p *Provider) Get(country string) (HolidaySet, error) {
	if cached, found := p.cache.Get(country); found {
		return cached.(HolidaySet), nil
	}

	markers, err := p.repo.GetMarkers(country)
	if err != nil {
		return nil, fmt.Errorf("failed to load holiday set for %s: %w", country, err)
	}

	set := NewHolidaySet(markers)
	p.cache.Set(country, set, gocache.DefaultExpiration)
	p.log.Debug().Str("country", country).Int("holidays", len(set)).Msg("Holiday set loaded")
	return set, nil
}

// Invalidate drops the cached set for a country, forcing a reload on the
// next Get. Called after ReplaceMarkers.
func (p *Provider) Invalidate(country string) {
	p.cache.Delete(country)
}
