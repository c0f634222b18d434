package services

import (
	"context"
	"testing"

	"golivehub/internal/database/dbtest"
	"golivehub/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	return dbtest.Open(t)
}

// seedUsers inserts users with empty interests and follow lists
func seedUsers(t *testing.T, db *gorm.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		user := models.User{
			UserID:    id,
			UserName:  id,
			Mail:      id + "@example.com",
			Interests: pq.StringArray{},
			Following: pq.StringArray{},
			Followers: pq.StringArray{},
		}
		require.NoError(t, db.Create(&user).Error)
	}
}

func loadUser(t *testing.T, db *gorm.DB, id string) *models.User {
	t.Helper()
	user, err := NewUserStore(db).FetchUser(context.Background(), id, FieldUserID)
	require.NoError(t, err)
	require.NotNil(t, user, "user %s", id)
	return user
}
