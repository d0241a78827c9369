package internal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

type fakeImporter struct {
	stored int
	purged int64
}

func (f fakeImporter) Import(ctx context.Context) (models.ImportSummary, error) {
	return models.ImportSummary{Stored: f.stored}, nil
}

func (f fakeImporter) Purge() (int64, error) {
	return f.purged, nil
}

func TestStartCronSchedulesRefreshAndPurge(t *testing.T) {
	c, err := StartCron(fakeImporter{}, nil)
	require.NoError(t, err)
	defer c.Stop()

	entries := c.Entries()
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.False(t, entry.Next.IsZero())
		entry.Job.Run()
	}
}

func TestStartCronNotifiesOnChange(t *testing.T) {
	for name, tc := range map[string]struct {
		importer fakeImporter
		expected int
	}{
		"nothing changed": {fakeImporter{}, 0},
		"refresh stored":  {fakeImporter{stored: 12}, 1},
		"purge deleted":   {fakeImporter{purged: 3}, 1},
		"both":            {fakeImporter{stored: 12, purged: 3}, 2},
	} {
		t.Run(name, func(t *testing.T) {
			changes := 0
			c, err := StartCron(tc.importer, func() { changes++ })
			require.NoError(t, err)
			defer c.Stop()

			for _, entry := range c.Entries() {
				entry.Job.Run()
			}
			assert.Equal(t, tc.expected, changes)
		})
	}
}
