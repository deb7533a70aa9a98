package db

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/chambridge/pure-monitor/internal/db/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (*Repository, context.Context) {
	pool := testutils.SetupTestDB(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, pool, nil))
	return NewRepository(pool), ctx
}

func TestInsertCapacitySample(t *testing.T) {
	repo, ctx := setupRepo(t)
	timestamp := time.Date(2025, 5, 17, 14, 0, 0, 0, time.Local)

	err := repo.InsertCapacitySample(ctx, CapacitySample{
		Frame:               "pureframe1",
		Capacity:            1.0,
		Total:               2.0,
		DataReductionRatio:  2.0,
		TotalReductionRatio: 3.0,
		Timestamp:           timestamp,
	})
	require.NoError(t, err)

	var capacity, total, dataRedux, datetime string
	err = repo.db.QueryRow(ctx,
		"SELECT capacity, total, data_redux_ratio, datetime FROM pure_capacity WHERE frame = $1", "pureframe1").
		Scan(&capacity, &total, &dataRedux, &datetime)
	require.NoError(t, err)
	assert.Equal(t, "1.0", capacity)
	assert.Equal(t, "2.0", total)
	assert.Equal(t, "2.0", dataRedux)
	assert.Equal(t, "2025-05-17 14:00:00", datetime)
}

func TestCapacitySampleRoundTrip(t *testing.T) {
	repo, ctx := setupRepo(t)
	timestamp := time.Date(2025, 5, 17, 14, 30, 15, 0, time.Local)
	sample := CapacitySample{
		Frame:               "pureframe2",
		Capacity:            25.308148519523,
		Total:               4.428023479846,
		DataReductionRatio:  3.5766608404003124,
		TotalReductionRatio: 4.410841183238835,
		Timestamp:           timestamp,
	}
	require.NoError(t, repo.InsertCapacitySample(ctx, sample))

	samples, total, err := repo.QueryCapacitySamples(ctx, CapacityQuery{
		Frame: "pureframe2",
		Start: timestamp.Add(-time.Hour),
		End:   timestamp.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, samples, 1)
	assert.Equal(t, sample.Frame, samples[0].Frame)
	assert.True(t, sample.Timestamp.Equal(samples[0].Timestamp))
	assert.Equal(t, sample.DataReductionRatio, samples[0].DataReductionRatio)
	assert.Equal(t, sample.TotalReductionRatio, samples[0].TotalReductionRatio)
	assert.InDelta(t, sample.Capacity, samples[0].Capacity, 1e-12)
}

func TestQueryCapacitySamplesPagination(t *testing.T) {
	repo, ctx := setupRepo(t)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.Local)
	for i := 0; i < 5; i++ {
		for _, frame := range []string{"pureframe1", "pureframe2"} {
			require.NoError(t, repo.InsertCapacitySample(ctx, CapacitySample{
				Frame:     frame,
				Capacity:  float64(i),
				Timestamp: base.AddDate(0, 0, i),
			}))
		}
	}

	samples, total, err := repo.QueryCapacitySamples(ctx, CapacityQuery{
		Frame:  "pureframe1",
		Start:  base,
		End:    base.AddDate(0, 1, 0),
		Limit:  2,
		Offset: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, samples, 2)
	assert.Equal(t, 3.0, samples[0].Capacity, "newest first, offset skips day 4")
	assert.Equal(t, 2.0, samples[1].Capacity)

	samples, total, err = repo.QueryCapacitySamples(ctx, CapacityQuery{Start: base, End: base.AddDate(0, 0, 2)})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, samples, 4)
}

func TestPruneBefore(t *testing.T) {
	repo, ctx := setupRepo(t)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.Local)
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.InsertCapacitySample(ctx, CapacitySample{
			Frame:     "pureframe" + strconv.Itoa(i),
			Timestamp: base.AddDate(0, 0, i),
		}))
	}

	removed, err := repo.PruneBefore(ctx, base.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}

func TestFormatStoredFloat(t *testing.T) {
	assert.Equal(t, "1.0", FormatStoredFloat(1.0))
	assert.Equal(t, "0.0", FormatStoredFloat(0))
	assert.Equal(t, "3.5766608404003124", FormatStoredFloat(3.5766608404003124))
	assert.Equal(t, "1234567.0", FormatStoredFloat(1234567))
	assert.Equal(t, "0.5", FormatStoredFloat(float64(1<<39)/float64(1<<40)))

	for _, v := range []float64{25.308148519523, 1.0 / 3.0, 4.410841183238835, 1e-7} {
		parsed, err := strconv.ParseFloat(FormatStoredFloat(v), 64)
		require.NoError(t, err)
		assert.Equal(t, v, parsed, "stored text must round-trip exactly")
	}
}

func TestSampleFromRowErrors(t *testing.T) {
	_, err := sampleFromRow("f", "x", "1", "1", "1", "2025-05-01 00:00:00")
	assert.Error(t, err)

	_, err = sampleFromRow("f", "1", "1", "1", "1", "yesterday")
	assert.Error(t, err)

	s, err := sampleFromRow("f", "1.5", "2", "3.0", "4", "2025-05-01 00:00:00")
	require.NoError(t, err)
	assert.Equal(t, 1.5, s.Capacity)
	assert.Equal(t, 4.0, s.TotalReductionRatio)
}

func TestSampleRecord(t *testing.T) {
	sample := CapacitySample{
		Frame:               "pureframe1",
		Capacity:            1,
		Total:               0.5,
		DataReductionRatio:  2.25,
		TotalReductionRatio: 3,
		Timestamp:           time.Date(2025, 5, 17, 14, 0, 0, 0, time.Local),
	}
	record := sample.Record()
	assert.Equal(t, []string{"pureframe1", "1.0", "0.5", "2.25", "3.0", "2025-05-17 14:00:00"}, record)

	parsed, err := SampleFromRecord(record)
	require.NoError(t, err)
	assert.Equal(t, sample.Frame, parsed.Frame)
	assert.True(t, sample.Timestamp.Equal(parsed.Timestamp))
	assert.Equal(t, sample.DataReductionRatio, parsed.DataReductionRatio)

	_, err = SampleFromRecord([]string{"pureframe1", "1.0"})
	assert.Error(t, err)

	_, err = SampleFromRecord([]string{" ", "1", "1", "1", "1", "2025-05-17 14:00:00"})
	assert.Error(t, err)
}
