package plcontacts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupContactStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := NewStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func TestContactValidate(t *testing.T) {
	valid := Contact{Name: " Kim ", Email: "kim@example.test", Message: "안녕하세요"}
	assert.True(t, valid.Validate())
	assert.Equal(t, "Kim", valid.Name)

	assert.False(t, (&Contact{Email: "a@b.c", Message: "x"}).Validate())
	assert.False(t, (&Contact{Name: "a", Message: "x"}).Validate())
	assert.False(t, (&Contact{Name: "a", Email: "pas-un-email", Message: "x"}).Validate())
	assert.False(t, (&Contact{Name: "a", Email: "a@b.c", Message: "   "}).Validate())
}

func TestContactListNewestFirst(t *testing.T) {
	store := setupContactStore(t)

	for i := 1; i <= 5; i++ {
		require.NoError(t, store.Create(&Contact{
			Name:    fmt.Sprintf("visiteur-%d", i),
			Email:   fmt.Sprintf("v%d@example.test", i),
			Message: "bonjour",
		}))
	}

	contacts, total, err := store.List(1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, contacts, 3)

	contacts, _, err = store.List(2, 3)
	require.NoError(t, err)
	assert.Len(t, contacts, 2)
}

func TestContactListBounds(t *testing.T) {
	store := setupContactStore(t)
	require.NoError(t, store.Create(&Contact{Name: "a", Email: "a@b.c", Message: "m"}))

	// Page et taille hors bornes ramenées aux défauts
	contacts, total, err := store.List(-1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, contacts, 1)

	_, _, err = store.List(1, 10000)
	require.NoError(t, err)
}
