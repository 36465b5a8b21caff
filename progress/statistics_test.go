package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatisticsPreferredSourcePrefersBytesWhenEstimated(t *testing.T) {
	base := time.Now()
	s := NewStatistics(base)
	s.Items.CommitEstimated(5)
	s.Bytes.CommitEstimated(1024)
	assert.Same(t, s.Bytes, s.PreferredSource())
}

func TestStatisticsPreferredSourceFallsBackToItems(t *testing.T) {
	base := time.Now()
	s := NewStatistics(base)
	s.Items.CommitEstimated(3) // an all-empty-file batch never estimates bytes
	assert.Same(t, s.Items, s.PreferredSource())
}

func TestStatisticsPauseResumeFoldsElapsedIntoClocks(t *testing.T) {
	base := time.Now()
	s := NewStatistics(base)
	assert.False(t, s.IsPaused())

	s.PauseAdd(base.Add(time.Second))
	assert.True(t, s.IsPaused())
	s.ResumeAdd(base.Add(time.Hour))
	assert.False(t, s.IsPaused())

	elapsed := s.Elapsed(base.Add(time.Hour))
	assert.Less(t, elapsed, 2*time.Second, "the paused hour must not count toward elapsed wall clock")
}

func TestStatisticsPauseIsReentrant(t *testing.T) {
	base := time.Now()
	s := NewStatistics(base)
	s.PauseAdd(base)
	s.PauseAdd(base)
	s.ResumeAdd(base)
	assert.True(t, s.IsPaused(), "two PauseAdd calls require two ResumeAdd calls to actually resume")
	s.ResumeAdd(base)
	assert.False(t, s.IsPaused())
}

func TestStatisticsElapsedFreezesWhilePaused(t *testing.T) {
	base := time.Now()
	s := NewStatistics(base)
	s.PauseAdd(base.Add(time.Second))
	e1 := s.Elapsed(base.Add(2 * time.Second))
	e2 := s.Elapsed(base.Add(10 * time.Second))
	assert.Equal(t, e1, e2, "Elapsed must not advance while paused")
}
