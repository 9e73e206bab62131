package cluster

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapdeck/groupgen/internal/model"
)

func submitted(id string, at time.Time) model.Contact {
	return model.Contact{ID: id, Name: id, SubmittedAt: at}
}

func TestTemporal_SameDayRun(t *testing.T) {
	day := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	contacts := []model.Contact{
		submitted("a", day),
		submitted("b", day.Add(30*time.Minute)),
		submitted("c", day.Add(90*time.Minute)),
	}

	clusters := Temporal(contacts, DefaultGap, 2)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"a", "b", "c"}, clusters[0].IDs())
	assert.Equal(t, day, clusters[0].Start)
	assert.Equal(t, day.Add(90*time.Minute), clusters[0].End)
	assert.Equal(t, 90*time.Minute, clusters[0].Span())
}

func TestTemporal_SplitsOnGap(t *testing.T) {
	day := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	contacts := []model.Contact{
		submitted("a", day),
		submitted("b", day.Add(time.Hour)),
		// Four hour gap breaks the run.
		submitted("c", day.Add(5*time.Hour)),
		submitted("d", day.Add(6*time.Hour)),
	}

	clusters := Temporal(contacts, 3*time.Hour, 2)
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, clusters[0].IDs())
	assert.Equal(t, []string{"c", "d"}, clusters[1].IDs())
}

func TestTemporal_SeparatesCalendarDays(t *testing.T) {
	day1 := time.Date(2025, 3, 11, 23, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 12, 0, 30, 0, 0, time.UTC)
	contacts := []model.Contact{
		submitted("a", day1),
		submitted("b", day1.Add(10*time.Minute)),
		// 80 minutes after b, but past midnight: different bucket.
		submitted("c", day2),
		submitted("d", day2.Add(10*time.Minute)),
	}

	clusters := Temporal(contacts, DefaultGap, 2)
	require.Len(t, clusters, 2)
	assert.Equal(t, []string{"a", "b"}, clusters[0].IDs())
	assert.Equal(t, []string{"c", "d"}, clusters[1].IDs())
}

func TestTemporal_SortsWithinDay(t *testing.T) {
	day := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	contacts := []model.Contact{
		submitted("late", day.Add(2*time.Hour)),
		submitted("early", day),
		submitted("mid", day.Add(time.Hour)),
	}

	clusters := Temporal(contacts, DefaultGap, 2)
	require.Len(t, clusters, 1)
	assert.Equal(t, []string{"early", "mid", "late"}, clusters[0].IDs())
}

func TestTemporal_DropsShortRunsAndZeroTimes(t *testing.T) {
	day := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	contacts := []model.Contact{
		submitted("solo", day),
		{ID: "untimed"},
	}

	assert.Empty(t, Temporal(contacts, DefaultGap, 2))
}
