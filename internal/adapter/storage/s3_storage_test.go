package storage

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("6f1c2f0e-8d2a-4c55-9a43-1d2f6b7e9a10")
	now := time.Date(2026, time.March, 7, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "2026/03/07/6f1c2f0e-8d2a-4c55-9a43-1d2f6b7e9a10.stp", ObjectKey(now, id, ".stp"))
}
