package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed_Now(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Fixed(at)
	assert.True(t, at.Equal(c.Now()))
	assert.True(t, at.Equal(c.Now()), "fixed clock must not move")
}

func TestManual_Advance(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(at)

	c.Advance(90 * time.Second)
	assert.True(t, at.Add(90*time.Second).Equal(c.Now()))

	later := at.Add(24 * time.Hour)
	c.Set(later)
	assert.True(t, later.Equal(c.Now()))
}

func TestReal_Now(t *testing.T) {
	before := time.Now()
	got := Real{}.Now()
	assert.False(t, got.Before(before))
}
