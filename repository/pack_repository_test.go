package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scratchtrack/models"
	"scratchtrack/repository/testutil"
)

func TestPackRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	store, game, pack := seedStoreGamePack(t, testDB.DB)

	repo := NewPackRepository(testDB.DB)
	ctx := context.Background()

	t.Run("get by code", func(t *testing.T) {
		found, err := repo.GetByCode(ctx, store.ID, "PK-1001")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, pack.ID, found.ID)
		assert.Equal(t, game.ID, found.GameID)
		assert.Equal(t, models.PackStatusActive, found.Status)
	})

	t.Run("unknown code yields nil", func(t *testing.T) {
		found, err := repo.GetByCode(ctx, store.ID, "PK-NOPE")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("pack code scoped to store", func(t *testing.T) {
		found, err := repo.GetByCode(ctx, store.ID+1, "PK-1001")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestPackRepository_Activate(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	store, game, _ := seedStoreGamePack(t, testDB.DB)

	repo := NewPackRepository(testDB.DB)
	ctx := context.Background()

	registered := &models.Pack{
		PackCode: "PK-3003",
		GameID:   game.ID,
		StoreID:  store.ID,
		Status:   models.PackStatusInactive,
	}
	require.NoError(t, repo.Create(ctx, registered))

	require.NoError(t, repo.Activate(ctx, registered.ID, "C2"))

	activated, err := repo.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PackStatusActive, activated.Status)
	assert.Equal(t, "C2", activated.BoxLabel)
	assert.NotNil(t, activated.ActivatedAt)
}

func TestPackRepository_ApplyReading(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	_, _, pack := seedStoreGamePack(t, testDB.DB)

	repo := NewPackRepository(testDB.DB)
	ctx := context.Background()

	t.Run("advances current ticket", func(t *testing.T) {
		require.NoError(t, repo.ApplyReading(ctx, pack.ID, 25, false))

		updated, err := repo.GetByID(ctx, pack.ID)
		require.NoError(t, err)
		assert.Equal(t, 25, updated.CurrentTicket)
		assert.Equal(t, models.PackStatusActive, updated.Status)
		assert.Nil(t, updated.SoldOutAt)
	})

	t.Run("sold out flips status and stamps timestamp", func(t *testing.T) {
		require.NoError(t, repo.ApplyReading(ctx, pack.ID, 59, true))

		updated, err := repo.GetByID(ctx, pack.ID)
		require.NoError(t, err)
		assert.Equal(t, models.PackStatusSoldOut, updated.Status)
		require.NotNil(t, updated.SoldOutAt)
	})

	t.Run("missing pack errors", func(t *testing.T) {
		err := repo.ApplyReading(ctx, 99999, 10, false)
		assert.Error(t, err)
	})
}

func TestPackRepository_GetActiveInBox(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	store, game, pack := seedStoreGamePack(t, testDB.DB)

	repo := NewPackRepository(testDB.DB)
	ctx := context.Background()

	// Second active pack in the same box
	lingering := testutil.CreateTestPack(store.ID, game.ID, "PK-2002", "A7")
	require.NoError(t, repo.Create(ctx, lingering))

	// Sold-out pack in the same box must not count
	done := testutil.CreateTestPack(store.ID, game.ID, "PK-4004", "A7")
	require.NoError(t, repo.Create(ctx, done))
	require.NoError(t, repo.ApplyReading(ctx, done.ID, 59, true))

	others, err := repo.GetActiveInBox(ctx, store.ID, "A7", pack.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, lingering.ID, others[0].ID)

	// The pack itself is excluded
	others, err = repo.GetActiveInBox(ctx, store.ID, "A7", lingering.ID)
	require.NoError(t, err)
	require.Len(t, others, 1)
	assert.Equal(t, pack.ID, others[0].ID)
}
