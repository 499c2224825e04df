package calendar

import (
	"database/sql"
	"testing"
	"time"

	"github.com/andeshq/custodia/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupHolidayDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", "file:holidays_test?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS holidays (
			country TEXT NOT NULL,
			month INTEGER NOT NULL,
			day INTEGER NOT NULL,
			PRIMARY KEY (country, month, day)
		)
	`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM holidays`)
	require.NoError(t, err)

	return db
}

func TestReplaceAndGetMarkers(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupHolidayDB(t), log)

	markers := []domain.HolidayMarker{
		{Month: time.September, Day: 18},
		{Month: time.January, Day: 1},
	}
	require.NoError(t, repo.ReplaceMarkers("CL", markers))

	got, err := repo.GetMarkers("CL")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by month, day.
	assert.Equal(t, domain.HolidayMarker{Month: time.January, Day: 1}, got[0])
	assert.Equal(t, domain.HolidayMarker{Month: time.September, Day: 18}, got[1])

	// Replace drops the previous set.
	require.NoError(t, repo.ReplaceMarkers("CL", markers[:1]))
	got, err = repo.GetMarkers("CL")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSeedDefaults(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupHolidayDB(t), log)

	require.NoError(t, repo.SeedDefaults("CL"))

	got, err := repo.GetMarkers("CL")
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	// Seeding again must not duplicate rows.
	before := len(got)
	require.NoError(t, repo.SeedDefaults("CL"))
	got, err = repo.GetMarkers("CL")
	require.NoError(t, err)
	assert.Len(t, got, before)
}

func TestSeedDefaultsUnknownCountry(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	repo := NewRepository(setupHolidayDB(t), log)

	require.NoError(t, repo.SeedDefaults("ZZ"))

	got, err := repo.GetMarkers("ZZ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProviderCaches(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	db := setupHolidayDB(t)
	repo := NewRepository(db, log)
	provider := NewProvider(repo, log)

	require.NoError(t, repo.ReplaceMarkers("CL", []domain.HolidayMarker{{Month: time.January, Day: 1}}))

	set, err := provider.Get("CL")
	require.NoError(t, err)
	assert.Len(t, set, 1)

	// Mutate storage behind the cache; Get must keep serving the cached set
	// until invalidated.
	require.NoError(t, repo.ReplaceMarkers("CL", nil))

	set, err = provider.Get("CL")
	require.NoError(t, err)
	assert.Len(t, set, 1)

	provider.Invalidate("CL")
	set, err = provider.Get("CL")
	require.NoError(t, err)
	assert.Empty(t, set)
}
