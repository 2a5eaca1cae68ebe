package helpdesk

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduper_FirstSightingIsNotDuplicate(t *testing.T) {
	// Arrange
	d := NewDeduper(0, 0)

	// Act / Assert
	assert.False(t, d.Seen("msg-1"))
	assert.True(t, d.Seen("msg-1"))
	assert.False(t, d.Seen("msg-2"))
}

func TestDeduper_EmptyIDNeverDuplicate(t *testing.T) {
	// Arrange
	d := NewDeduper(0, 0)

	// Act / Assert
	assert.False(t, d.Seen(""))
	assert.False(t, d.Seen(""))
	assert.Equal(t, 0, d.Len())
}

func TestDeduper_ExpiredEntryStillIdentifiesDuplicate(t *testing.T) {
	// Arrange
	d := NewDeduper(time.Minute, 100)
	current := time.Now()
	d.now = func() time.Time { return current }

	assert.False(t, d.Seen("msg-1"))

	// Act: past the TTL but under the cap, so no sweep happens
	current = current.Add(2 * time.Minute)

	// Assert
	assert.True(t, d.Seen("msg-1"))
}

func TestDeduper_SweepOnlyAboveCap(t *testing.T) {
	// Arrange
	d := NewDeduper(time.Minute, 10)
	current := time.Now()
	d.now = func() time.Time { return current }

	for i := 0; i < 11; i++ {
		d.Seen(fmt.Sprintf("old-%d", i))
	}
	assert.Equal(t, 11, d.Len())

	// Act: expire everything, then trip the over-cap sweep
	current = current.Add(2 * time.Minute)
	assert.False(t, d.Seen("fresh"))

	// Assert: the expired entries were swept, the fresh one remains
	assert.Equal(t, 1, d.Len())
}

func TestDeduper_SweepKeepsLiveEntries(t *testing.T) {
	// Arrange
	d := NewDeduper(time.Minute, 5)
	current := time.Now()
	d.now = func() time.Time { return current }

	for i := 0; i < 6; i++ {
		d.Seen(fmt.Sprintf("old-%d", i))
	}

	current = current.Add(30 * time.Second)
	d.Seen("young")

	// Act: old entries expire, young one does not
	current = current.Add(45 * time.Second)
	d.Seen("trigger")

	// Assert: only "young" and "trigger" survive
	assert.True(t, d.Seen("young"))
	assert.Equal(t, 2, d.Len())
}
