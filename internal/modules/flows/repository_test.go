package flows

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/andeshq/custodia/internal/domain"
)

var testDBCounter int

func setupRepository(t *testing.T) *Repository {
	t.Helper()

	testDBCounter++
	db, err := sql.Open("sqlite", fmt.Sprintf("file:flows_test_%d?mode=memory&cache=shared", testDBCounter))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE daily_flows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			flow_date TEXT NOT NULL,
			category TEXT NOT NULL,
			deposits REAL NOT NULL,
			withdrawals REAL NOT NULL,
			net REAL NOT NULL,
			created_at INTEGER NOT NULL,
			UNIQUE (flow_date, category)
		);
		CREATE TABLE monthly_flows (
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			category TEXT NOT NULL,
			deposits REAL NOT NULL,
			withdrawals REAL NOT NULL,
			net REAL NOT NULL,
			last_date TEXT NOT NULL,
			PRIMARY KEY (year, month, category)
		);
	`)
	require.NoError(t, err)

	return NewRepository(db, zerolog.New(nil).Level(zerolog.Disabled))
}

func day(date string, category string, deposits, withdrawals float64) domain.DailyFlow {
	return domain.DailyFlow{
		Date:        domain.MustParseDate(date),
		Category:    category,
		Deposits:    deposits,
		Withdrawals: withdrawals,
		Net:         deposits - withdrawals,
	}
}

func TestUpsertDayAccumulatesMonth(t *testing.T) {
	repo := setupRepository(t)

	require.NoError(t, repo.UpsertDay(domain.MustParseDate("2025-06-02"), []domain.DailyFlow{
		day("2025-06-02", "Equity Funds", 1000, 200),
	}))
	require.NoError(t, repo.UpsertDay(domain.MustParseDate("2025-06-03"), []domain.DailyFlow{
		day("2025-06-03", "Equity Funds", 500, 100),
		day("2025-06-03", "Bond Funds", 300, 0),
	}))

	accs, err := repo.GetMonthly(2025, 6)
	require.NoError(t, err)
	require.Len(t, accs, 2)

	// Ordered by category.
	assert.Equal(t, "Bond Funds", accs[0].Category)
	assert.Equal(t, 300.0, accs[0].Net)

	equity := accs[1]
	assert.Equal(t, "Equity Funds", equity.Category)
	assert.Equal(t, 1500.0, equity.Deposits)
	assert.Equal(t, 300.0, equity.Withdrawals)
	assert.Equal(t, 1200.0, equity.Net)
	assert.Equal(t, "2025-06-03", equity.LastDate.String())
}

func TestUpsertDayReplacesWithoutDoubleCounting(t *testing.T) {
	repo := setupRepository(t)

	date := domain.MustParseDate("2025-06-02")
	require.NoError(t, repo.UpsertDay(date, []domain.DailyFlow{day("2025-06-02", "Equity Funds", 1000, 0)}))
	// Re-ingesting the same day with corrected numbers replaces the rows.
	require.NoError(t, repo.UpsertDay(date, []domain.DailyFlow{day("2025-06-02", "Equity Funds", 800, 50)}))

	accs, err := repo.GetMonthly(2025, 6)
	require.NoError(t, err)
	require.Len(t, accs, 1)
	assert.Equal(t, 800.0, accs[0].Deposits)
	assert.Equal(t, 750.0, accs[0].Net)
}

func TestMonthBoundary(t *testing.T) {
	repo := setupRepository(t)

	require.NoError(t, repo.UpsertDay(domain.MustParseDate("2025-05-30"), []domain.DailyFlow{day("2025-05-30", "Equity Funds", 100, 0)}))
	require.NoError(t, repo.UpsertDay(domain.MustParseDate("2025-06-02"), []domain.DailyFlow{day("2025-06-02", "Equity Funds", 200, 0)}))

	may, err := repo.GetMonthly(2025, 5)
	require.NoError(t, err)
	require.Len(t, may, 1)
	assert.Equal(t, 100.0, may[0].Net)

	june, err := repo.GetMonthly(2025, 6)
	require.NoError(t, err)
	require.Len(t, june, 1)
	assert.Equal(t, 200.0, june[0].Net)
}

func TestGetDailyAndNetSeries(t *testing.T) {
	repo := setupRepository(t)

	for i, net := range []float64{10, 20, 30} {
		date := domain.MustParseDate("2025-06-02").AddDays(i)
		require.NoError(t, repo.UpsertDay(date, []domain.DailyFlow{day(date.String(), "Equity Funds", net, 0)}))
	}

	from := domain.MustParseDate("2025-06-01")
	to := domain.MustParseDate("2025-06-30")

	daily, err := repo.GetDaily(from, to)
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.Equal(t, "2025-06-02", daily[0].Date.String())

	series, err := repo.GetNetSeries("Equity Funds", from, to)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 20, 30}, series)

	categories, err := repo.Categories(from, to)
	require.NoError(t, err)
	assert.Equal(t, []string{"Equity Funds"}, categories)
}
