package transfer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
	"sealedger/internal/domain/documents/transfer"
	"sealedger/internal/domain/domaintest"
	"sealedger/internal/domain/registers"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
)

type fixture struct {
	stock   *stock.Service
	pressed *pressed.Service
	svc     *transfer.Service
	source  string
	dest    string
	typeID  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := domaintest.New(t)
	f := &fixture{}
	f.stock = stock.NewService(env.Deps, false)
	f.pressed = pressed.NewService(env.Deps, "", false)
	f.svc = transfer.NewService(env.Deps, f.stock, f.pressed)
	f.source = env.Site(t, "Paje")
	f.dest = env.Site(t, "Jambiani")
	f.typeID = env.SeaweedType(t, "Spinosum", 400, 1200)
	return f
}

func (f *fixture) add(t *testing.T, dest string) *transfer.Transfer {
	t.Helper()
	tr, err := f.svc.Add(context.Background(), transfer.Transfer{
		Date:              types.MustDate("2024-06-01"),
		SourceSiteID:      f.source,
		DestinationSiteID: dest,
		SeaweedTypeID:     f.typeID,
		WeightKg:          types.Kg(300),
		Bags:              6,
	})
	require.NoError(t, err)
	return tr
}

func (f *fixture) siteKg(t *testing.T, siteID string) types.Quantity {
	t.Helper()
	bal, err := f.stock.Balance(context.Background(), siteID, f.typeID)
	require.NoError(t, err)
	return bal.Kg
}

func TestTransferBetweenSites(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tr := f.add(t, f.dest)
	assert.Equal(t, transfer.StatusAwaitingOutbound, tr.Status)
	assert.Equal(t, types.Kg(-300), f.siteKg(t, f.source))

	_, err := f.svc.MarkInTransit(ctx, tr.ID)
	require.NoError(t, err)

	done, err := f.svc.Complete(ctx, tr.ID, transfer.CompleteInput{
		ReceivedWeightKg: types.Kg(290),
		ReceivedBags:     6,
	})
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusCompleted, done.Status)
	assert.Equal(t, "2024-06-15", done.CompletionDate.String())

	assert.Equal(t, types.Kg(-300), f.siteKg(t, f.source))
	assert.Equal(t, types.Kg(290), f.siteKg(t, f.dest))

	require.Len(t, done.History, 3)
	assert.Equal(t, "Transfer initiated.", done.History[0].Notes)
	assert.Equal(t, "Marked as in transit.", done.History[1].Notes)
	assert.Equal(t, "Completed. Received 290kg in 6 bags.", done.History[2].Notes)

	moves, err := f.stock.Movements(ctx, registers.MovementFilter{RelatedID: tr.ID, Type: stock.TransferIn})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, "Transfer from Paje ("+tr.ID+")", moves[0].Designation)
}

func TestCompleteToWarehousePostsReceivedQuantities(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tr := f.add(t, f.pressed.WarehouseID())

	_, err := f.svc.MarkInTransit(ctx, tr.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, tr.ID, transfer.CompleteInput{
		ReceivedWeightKg: types.Kg(295),
		ReceivedBags:     5,
		CompletionDate:   types.MustDate("2024-06-03"),
	})
	require.NoError(t, err)

	bal, err := f.pressed.Balance(ctx, f.typeID)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(295), bal.Kg)
	assert.Equal(t, 5, bal.Bags)

	moves, err := f.pressed.Movements(ctx, registers.MovementFilter{RelatedID: tr.ID})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, pressed.BulkInFromSite, moves[0].Type)
	assert.Equal(t, "2024-06-03", moves[0].Date.String())
}

func TestCompleteWithNothingReceivedPostsNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tr := f.add(t, f.dest)

	_, err := f.svc.MarkInTransit(ctx, tr.ID)
	require.NoError(t, err)
	done, err := f.svc.Complete(ctx, tr.ID, transfer.CompleteInput{})
	require.NoError(t, err)

	assert.Equal(t, transfer.StatusCompleted, done.Status)
	assert.True(t, f.siteKg(t, f.dest).IsZero(), "the declared 300kg never arrived")
	assert.Equal(t, types.Kg(-300), f.siteKg(t, f.source))
	assert.True(t, done.ReceivedWeightKg.IsZero())
	assert.Equal(t, "Completed. Received 0kg in 0 bags.", done.History[len(done.History)-1].Notes)

	moves, err := f.stock.Movements(ctx, registers.MovementFilter{RelatedID: tr.ID, Type: stock.TransferIn})
	require.NoError(t, err)
	assert.Empty(t, moves)
}

func TestCompleteRequiresInTransit(t *testing.T) {
	f := setup(t)
	tr := f.add(t, f.dest)

	_, err := f.svc.Complete(context.Background(), tr.ID, transfer.CompleteInput{})
	assert.True(t, apperror.IsInvalidTransition(err))
	assert.True(t, f.siteKg(t, f.dest).IsZero())
}

func TestCancelReturnsDeclaredQuantities(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tr := f.add(t, f.dest)

	cancelled, err := f.svc.Cancel(ctx, tr.ID, "boat broke down")
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusCancelled, cancelled.Status)
	assert.Equal(t, "Cancelled. Reason: boat broke down", cancelled.History[len(cancelled.History)-1].Notes)
	assert.True(t, f.siteKg(t, f.source).IsZero())

	// Re-saving the terminal status posts nothing and adds no history.
	again, err := f.svc.Cancel(ctx, tr.ID, "again")
	require.NoError(t, err)
	assert.Len(t, again.History, 2)
	assert.True(t, f.siteKg(t, f.source).IsZero())

	_, err = f.svc.MarkInTransit(ctx, tr.ID)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestCompletedTransferCannotBeCancelled(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tr := f.add(t, f.dest)
	_, err := f.svc.MarkInTransit(ctx, tr.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, tr.ID, transfer.CompleteInput{})
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, tr.ID, "too late")
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestUpdateDispatchesStatusChanges(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	tr := f.add(t, f.dest)

	edit := *tr
	edit.Status = transfer.StatusInTransit
	got, err := f.svc.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, transfer.StatusInTransit, got.Status)

	edit.Status = transfer.StatusCompleted
	edit.ReceivedWeightKg = types.Kg(280)
	got, err = f.svc.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(280), f.siteKg(t, f.dest))

	// Saving the same terminal status again is a no-op.
	_, err = f.svc.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(280), f.siteKg(t, f.dest))
	assert.Len(t, got.History, 3)

	list, err := f.svc.List(ctx, transfer.ListFilter{SiteID: f.dest, Status: transfer.StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestAddValidates(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Add(context.Background(), transfer.Transfer{
		Date:              types.MustDate("2024-06-01"),
		SourceSiteID:      f.source,
		DestinationSiteID: f.source,
		SeaweedTypeID:     f.typeID,
		WeightKg:          types.Kg(10),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.Add(context.Background(), transfer.Transfer{
		Date:              types.MustDate("2024-06-01"),
		SourceSiteID:      f.source,
		DestinationSiteID: "nowhere",
		SeaweedTypeID:     f.typeID,
		WeightKg:          types.Kg(10),
	})
	assert.True(t, apperror.IsNotFound(err))
}
