package connector_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-data/slotfeed/connector"
)

func TestNameTimer_Defaults(t *testing.T) {
	nt, err := connector.NewNameTimer("", "")
	require.NoError(t, err)

	ts, ok := nt.Time("transactions-2016-12-01.csv.gz")
	require.True(t, ok)
	require.True(t, ts.Equal(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNameTimer_NoTimestampInName(t *testing.T) {
	nt, err := connector.NewNameTimer("", "")
	require.NoError(t, err)

	_, ok := nt.Time("README.md")
	require.False(t, ok)
}

func TestNameTimer_FirstMatchWins(t *testing.T) {
	nt, err := connector.NewNameTimer("", "")
	require.NoError(t, err)

	ts, ok := nt.Time("window-2016-12-01-to-2016-12-07.csv")
	require.True(t, ok)
	require.True(t, ts.Equal(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNameTimer_CustomPatternAndLayout(t *testing.T) {
	nt, err := connector.NewNameTimer(`\d{8}`, "20060102")
	require.NoError(t, err)

	ts, ok := nt.Time("feed_20161201.dat")
	require.True(t, ok)
	require.True(t, ts.Equal(time.Date(2016, 12, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNameTimer_MatchThatDoesNotParse(t *testing.T) {
	nt, err := connector.NewNameTimer("", "")
	require.NoError(t, err)

	// Matches the pattern but is not a real date.
	_, ok := nt.Time("feed-9999-99-99.csv")
	require.False(t, ok)
}

func TestNewNameTimer_BadPattern(t *testing.T) {
	_, err := connector.NewNameTimer("[", "")
	require.Error(t, err)
}
