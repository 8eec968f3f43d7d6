package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/gridbot/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, csvHeader, rows[0])
}

func TestCSVJournalRecordFill(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")
	j, err := NewCSV(path)
	require.NoError(t, err)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, j.RecordFill(fill("R1", "42", exchange.Buy, "90", "100", at)))
	require.NoError(t, j.Close())

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"R1", "42", "BTCUSDT", "BUY", "90", "0.001", "m-42", "SELL", "100", "2024-01-02T03:04:05Z"}, rows[1])
}

func TestCSVJournalAppendsAcrossRestarts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fills.csv")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, id := range []string{"1", "2"} {
		j, err := NewCSV(path)
		require.NoError(t, err)
		require.NoError(t, j.RecordFill(fill("R", id, exchange.Sell, "110", "100", at)))
		require.NoError(t, j.Close())
	}

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "1", rows[1][1])
	assert.Equal(t, "2", rows[2][1])
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	j, err := Open("none", "")
	require.NoError(t, err)
	assert.IsType(t, Nop{}, j)
	assert.NoError(t, j.RecordFill(FillRecord{}))

	j, err = Open("csv", filepath.Join(dir, "f.csv"))
	require.NoError(t, err)
	assert.IsType(t, &CSVJournal{}, j)
	assert.NoError(t, j.Close())

	j, err = Open("sqlite", filepath.Join(dir, "f.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, j)
	assert.NoError(t, j.Close())

	_, err = Open("parquet", "x")
	assert.Error(t, err)
}

func TestFormatFillOrg(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	r := fill("01HV0000000000000000000000", "1234567890", exchange.Sell, "110", "100", at)

	out := FormatFillOrg(r)
	assert.Contains(t, out, "** Fill: BTCUSDT SELL @ 110 (12345678)")
	assert.Contains(t, out, ":ORDER_ID: 1234567890")
	assert.Contains(t, out, ":MIRROR_SIDE: BUY")
	assert.Contains(t, out, ":MIRROR_PRICE: 100")
	assert.Contains(t, out, ":TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, out, ":END:")

	both := FormatFillsOrg([]FillRecord{r, r})
	assert.Equal(t, 2, strings.Count(both, "** Fill:"))
}
