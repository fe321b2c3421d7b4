package modules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
	"sealedger/internal/domain/domaintest"
	"sealedger/internal/domain/modules"
)

func TestCreateStartsFree(t *testing.T) {
	env := domaintest.New(t)
	siteID := env.Site(t, "Paje")

	m := env.Module(t, siteID, "M-1", 20)

	require.Len(t, m.StatusHistory, 2)
	assert.Equal(t, modules.StatusCreated, m.StatusHistory[0].Status)
	assert.Equal(t, modules.StatusFree, m.CurrentStatus())
	assert.True(t, m.IsFree())
}

func TestCreateRequiresKnownSite(t *testing.T) {
	env := domaintest.New(t)
	svc := modules.NewService(env.Deps)

	_, err := svc.Create(context.Background(), modules.CreateInput{SiteID: "nope", Code: "M-1", Lines: 10})
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Create(context.Background(), modules.CreateInput{SiteID: env.Site(t, "Paje"), Lines: 0})
	assert.True(t, apperror.IsValidation(err))
}

func TestAssignToFarmerAppendsHistory(t *testing.T) {
	env := domaintest.New(t)
	svc := modules.NewService(env.Deps)
	ctx := context.Background()
	siteID := env.Site(t, "Paje")
	farmerID := env.Farmer(t, siteID, "Asha", "Juma")
	m := env.Module(t, siteID, "M-1", 20)

	require.NoError(t, svc.AssignToFarmer(ctx, []string{m.ID}, farmerID))

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, farmerID, got.FarmerID)
	assert.Equal(t, modules.StatusAssigned, got.CurrentStatus())
	assert.Equal(t, "Assigned to farmer Asha Juma", got.StatusHistory[len(got.StatusHistory)-1].Notes)
	assert.Len(t, got.StatusHistory, 3)
}

func TestAssignToUnknownFarmerWritesNothing(t *testing.T) {
	env := domaintest.New(t)
	svc := modules.NewService(env.Deps)
	ctx := context.Background()
	siteID := env.Site(t, "Paje")
	m := env.Module(t, siteID, "M-1", 20)

	err := svc.AssignToFarmer(ctx, []string{m.ID}, "ghost")
	assert.True(t, apperror.IsNotFound(err))

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.IsFree())
	assert.Len(t, got.StatusHistory, 2)
}

func TestUpdateKeepsHistoryAndFarmer(t *testing.T) {
	env := domaintest.New(t)
	svc := modules.NewService(env.Deps)
	ctx := context.Background()
	siteID := env.Site(t, "Paje")
	farmerID := env.Farmer(t, siteID, "Asha", "Juma")
	m := env.Module(t, siteID, "M-1", 20)
	require.NoError(t, svc.AssignToFarmer(ctx, []string{m.ID}, farmerID))

	edit := &modules.Module{ID: m.ID, Code: "M-1b", SiteID: siteID, Lines: 25}
	require.NoError(t, svc.Update(ctx, edit))

	got, err := svc.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "M-1b", got.Code)
	assert.Equal(t, 25, got.Lines)
	assert.Equal(t, farmerID, got.FarmerID)
	assert.Len(t, got.StatusHistory, 3)
}

func TestFreeClearsFarmer(t *testing.T) {
	env := domaintest.New(t)
	svc := modules.NewService(env.Deps)
	ctx := context.Background()
	siteID := env.Site(t, "Paje")
	farmerID := env.Farmer(t, siteID, "Asha", "Juma")
	m := env.Module(t, siteID, "M-1", 20)
	require.NoError(t, svc.AssignToFarmer(ctx, []string{m.ID}, farmerID))

	require.NoError(t, svc.Free(ctx, m.ID, env.Deps.Today(), modules.NoteCompleted))

	mine, err := svc.ListByFarmer(ctx, farmerID)
	require.NoError(t, err)
	assert.Empty(t, mine)
	st, err := svc.CurrentStatus(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, modules.StatusFree, st)
}

func TestAppendHistoryKeepsEarlierEntries(t *testing.T) {
	env := domaintest.New(t)
	svc := modules.NewService(env.Deps)
	ctx := context.Background()
	m := env.Module(t, env.Site(t, "Paje"), "M-1", 20)

	got, err := svc.AppendHistory(ctx, m.ID, modules.HistoryEntry{
		Status: modules.StatusHarvested,
		Date:   types.MustDate("2024-05-02"),
		Notes:  "Harvested 120kg",
	})
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 3)
	assert.Equal(t, m.StatusHistory[:2], got.StatusHistory[:2])
	assert.Equal(t, modules.StatusHarvested, got.CurrentStatus())

	_, err = svc.AppendHistory(ctx, "missing", modules.HistoryEntry{Status: modules.StatusFree})
	assert.True(t, apperror.IsNotFound(err))
}
