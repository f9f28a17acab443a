package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClock_AfterFiresImmediately(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fake(start)

	fired := <-c.After(500 * time.Millisecond)
	assert.Equal(t, start.Add(500*time.Millisecond), fired)

	<-c.After(time.Second)
	<-c.After(0)

	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second, 0}, c.Waits())
	assert.Equal(t, 1500*time.Millisecond, c.Elapsed())
	assert.Equal(t, start.Add(1500*time.Millisecond), c.Now())
}
