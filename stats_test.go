package slotfeed_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-data/slotfeed"
)

func TestStats_ZeroValue(t *testing.T) {
	stats := &slotfeed.Stats{}
	require.Equal(t, int64(0), stats.Cycles())
	require.Equal(t, int64(0), stats.Listed())
	require.Equal(t, int64(0), stats.Skipped())
	require.Equal(t, int64(0), stats.Fetched())
	require.Equal(t, int64(0), stats.Records())
	require.Equal(t, int64(0), stats.Bytes())
	require.Equal(t, int64(0), stats.Retries())
	require.Equal(t, int64(0), stats.Errors())
}

func TestStats_MarshalJSON(t *testing.T) {
	stats := &slotfeed.Stats{}
	data, err := stats.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"cycles":0,"listed":0,"skipped":0,"fetched":0,"records":0,"bytes":0,"retries":0,"errors":0}`, string(data))
}

func TestStats_JSONRoundTrip(t *testing.T) {
	stats := &slotfeed.Stats{}
	err := stats.UnmarshalJSON([]byte(`{"cycles":3,"listed":40,"skipped":30,"fetched":10,"records":12345,"bytes":67890,"retries":2,"errors":1}`))
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Cycles())
	require.Equal(t, int64(40), stats.Listed())
	require.Equal(t, int64(30), stats.Skipped())
	require.Equal(t, int64(10), stats.Fetched())
	require.Equal(t, int64(12345), stats.Records())
	require.Equal(t, int64(67890), stats.Bytes())
	require.Equal(t, int64(2), stats.Retries())
	require.Equal(t, int64(1), stats.Errors())

	data, err := stats.MarshalJSON()
	require.NoError(t, err)
	require.JSONEq(t, `{"cycles":3,"listed":40,"skipped":30,"fetched":10,"records":12345,"bytes":67890,"retries":2,"errors":1}`, string(data))
}

func TestStats_UnmarshalJSON_Error(t *testing.T) {
	stats := &slotfeed.Stats{}
	err := stats.UnmarshalJSON([]byte(`invalid json`))
	require.Error(t, err)
}
