package export

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	j := NewJob(KindProducts, uuid.New(), now)
	assert.Equal(t, StatusPending, j.Status)

	require.NoError(t, j.Start(now.Add(time.Second)))
	assert.Equal(t, StatusProcessing, j.Status)

	j.Complete("https://files/productos.xlsx", now.Add(2*time.Second))
	assert.Equal(t, StatusCompleted, j.Status)
	assert.Equal(t, "https://files/productos.xlsx", *j.FileURL)
	assert.True(t, j.Finished())

	assert.ErrorIs(t, j.Start(now), ErrJobFinished)
}

func TestJobFail(t *testing.T) {
	j := NewJob(KindUsers, uuid.New(), time.Now())
	j.Fail(errors.New("upload refused"), time.Now())

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, "upload refused", *j.Error)
	assert.True(t, j.Finished())
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("users")
	require.NoError(t, err)
	assert.Equal(t, KindUsers, k)

	_, err = ParseKind("orders")
	assert.ErrorIs(t, err, ErrInvalidKind)
}
