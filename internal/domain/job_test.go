package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTailorJobLifecycle(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	j := NewTailorJob("grace", "Go engineer", "summary", 3, start)

	assert.NotEqual(t, uuid.Nil, j.ID)
	assert.Equal(t, uint64(3), j.BaseVersion)
	assert.Empty(t, j.Status)

	done := start.Add(time.Second)
	j.Finish(StatusStale, errors.New("outdated"), done)
	assert.Equal(t, StatusStale, j.Status)
	assert.Equal(t, "outdated", j.Error)
	assert.Equal(t, done, j.UpdatedAt)
	assert.Equal(t, start, j.CreatedAt)
}

func TestFinishWithoutError(t *testing.T) {
	j := NewTailorJob("", "x", "", 1, time.Now())
	j.Finish(StatusApplied, nil, time.Now())
	assert.Equal(t, StatusApplied, j.Status)
	assert.Empty(t, j.Error)
}
