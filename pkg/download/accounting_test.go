package download

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openota/payloadstated/internal/store"
)

func TestClassify(t *testing.T) {
	cases := map[string]Source{
		"https://example.com/a": HTTPS,
		"HTTPS://example.com/a": HTTPS,
		"http://example.com/a":  HTTP,
		"HTTP://example.com/a":  HTTP,
		"ftp://example.com/a":   Unknown,
		"":                      Unknown,
	}
	for url, want := range cases {
		require.Equal(t, want, Classify(url), "Classify(%q)", url)
	}
}

func TestAccounting_OnBytesAccumulatesBothCounters(t *testing.T) {
	a := NewAccounting(store.NewMemory())

	a.OnBytes(HTTPS, 100)
	a.OnBytes(HTTPS, 50)

	require.EqualValues(t, 150, a.Current(HTTPS))
	require.EqualValues(t, 150, a.Total(HTTPS))
	require.Zero(t, a.Current(HTTP), "unrelated source should stay 0")
}

func TestAccounting_UnknownSourceIsIgnored(t *testing.T) {
	a := NewAccounting(store.NewMemory())
	a.OnBytes(Unknown, 100)
	require.Zero(t, a.Current(Unknown), "Unknown source must never accrue bytes")
}

func TestAccounting_ResetCurrentKeepsTotal(t *testing.T) {
	a := NewAccounting(store.NewMemory())
	a.OnBytes(HTTPS, 1000)
	a.ResetCurrentOnNewUpdate()

	require.Zero(t, a.Current(HTTPS))
	require.EqualValues(t, 1000, a.Total(HTTPS), "total should survive a reset")
}

func TestAccounting_DrainOnSuccessZeroesBoth(t *testing.T) {
	a := NewAccounting(store.NewMemory())
	a.OnBytes(HTTP, 500)
	a.DrainOnSuccess()

	require.Zero(t, a.Current(HTTP))
	require.Zero(t, a.Total(HTTP))
}

func TestAccounting_LoadsFromStoreClampingNegatives(t *testing.T) {
	s := store.NewMemory()
	require.NoError(t, s.SetI64(currentBytesKey(HTTPS), -5))
	require.NoError(t, s.SetI64(totalBytesKey(HTTPS), 200))

	a := NewAccounting(s)
	require.Zero(t, a.Current(HTTPS), "negative persisted value should clamp to 0")
	require.EqualValues(t, 200, a.Total(HTTPS))
}
