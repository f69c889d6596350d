package ids

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID_SortsByTime(t *testing.T) {
	t.Parallel()

	early, err := NewULID(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	late, err := NewULID(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Len(t, early, 26)
	assert.Less(t, early, late)
	assert.True(t, Valid(early))
	assert.False(t, Valid("not-a-ulid"))
}
