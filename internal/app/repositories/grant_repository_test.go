package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sauvini/securefiles/internal/app/models"
)

func TestRecordUsageQuery_DefaultsExpiryOnFirstAccess(t *testing.T) {
	ttl := 30 * 24 * time.Hour
	repo := NewGrantRepository(nil, ttl)
	now := time.Now()

	sql, args, err := repo.recordUsageQuery(uuid.New(), 42, models.ActionDownload, 7, now)
	require.NoError(t, err)

	assert.Contains(t, sql, "expires_at")
	assert.Contains(t, sql, "ON CONFLICT (file_id, user_id, action)")
	// The conflict branch only bumps the counter; an existing grant keeps
	// whatever expiry it was issued with.
	assert.NotContains(t, sql, "expires_at = EXCLUDED")

	require.Len(t, args, 8)
	assert.Equal(t, now.Add(ttl), args[4])
	assert.Equal(t, now, args[7])
}
