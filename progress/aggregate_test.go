package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregateTrackUntrack(t *testing.T) {
	a := NewAggregate()
	assert.Equal(t, 0, a.Len())

	base := time.Now()
	a.Track("job1", NewStatistics(base))
	a.Track("job2", NewStatistics(base))
	assert.Equal(t, 2, a.Len())

	a.Untrack("job1")
	assert.Equal(t, 1, a.Len())
}

func TestAggregateTotalsSumAcrossMembers(t *testing.T) {
	a := NewAggregate()
	base := time.Now()

	s1 := NewStatistics(base)
	s1.Bytes.CommitEstimated(100)
	s1.Bytes.CommitProcessed(base.Add(time.Second), 40)

	s2 := NewStatistics(base)
	s2.Bytes.CommitEstimated(200)
	s2.Bytes.CommitProcessed(base.Add(time.Second), 60)

	a.Track("a", s1)
	a.Track("b", s2)

	estimated, processed := a.TotalBytes()
	assert.EqualValues(t, 300, estimated)
	assert.EqualValues(t, 100, processed)
}

func TestAggregateDoneFractionWeightedByEstimate(t *testing.T) {
	a := NewAggregate()
	base := time.Now()

	big := NewStatistics(base)
	big.Bytes.CommitEstimated(1000)
	big.Bytes.CommitProcessed(base.Add(time.Second), 0)

	small := NewStatistics(base)
	small.Bytes.CommitEstimated(10)
	small.Bytes.CommitProcessed(base.Add(time.Second), 10)

	a.Track("big", big)
	a.Track("small", small)

	// small is 100% done but contributes only 10 of the combined 1010
	// estimated, so the aggregate should be far from complete.
	assert.Less(t, a.DoneFraction(), 0.05)
}

func TestAggregateDoneFractionEmptyIsZero(t *testing.T) {
	a := NewAggregate()
	assert.Equal(t, 0.0, a.DoneFraction())
}

func TestAggregateSlowestETAIgnoresNilMembers(t *testing.T) {
	a := NewAggregate()
	base := time.Now()

	noThroughput := NewStatistics(base)
	noThroughput.Bytes.CommitEstimated(100) // no processed work yet -> nil ETA

	fast := NewStatistics(base)
	fast.Bytes.CommitEstimated(10)
	fast.Bytes.CommitProcessed(base.Add(time.Second), 10)

	a.Track("stalled", noThroughput)
	a.Track("fast", fast)

	eta := a.SlowestETA()
	if assert.NotNil(t, eta) {
		assert.Equal(t, time.Duration(0), *eta, "the completed member's zero ETA is the only computable one")
	}
}

func TestAggregateSlowestETANilWhenNoMemberHasOne(t *testing.T) {
	a := NewAggregate()
	base := time.Now()
	s := NewStatistics(base)
	s.Bytes.CommitEstimated(100) // never processed -> ETA unknown
	a.Track("x", s)
	assert.Nil(t, a.SlowestETA())
}
