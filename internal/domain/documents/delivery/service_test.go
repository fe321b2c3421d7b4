package delivery_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
	"sealedger/internal/domain/documents/delivery"
	"sealedger/internal/domain/domaintest"
	"sealedger/internal/domain/registers"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
	"sealedger/internal/infrastructure/numerator"
)

type fixture struct {
	env      *domaintest.Env
	stock    *stock.Service
	pressed  *pressed.Service
	svc      *delivery.Service
	siteID   string
	typeID   string
	farmerID string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := domaintest.New(t)
	f := &fixture{env: env}
	f.stock = stock.NewService(env.Deps, false)
	f.pressed = pressed.NewService(env.Deps, "", false)
	f.svc = delivery.NewService(env.Deps, numerator.New(), f.stock, f.pressed)
	f.siteID = env.Site(t, "Jambiani")
	f.typeID = env.SeaweedType(t, "Cottonii", 300, 900)
	f.farmerID = env.Farmer(t, f.siteID, "Mwanaisha", "Ali")
	return f
}

func (f *fixture) delivery(dest delivery.Destination, kg int64, bags int) delivery.Delivery {
	return delivery.Delivery{
		Document:      entity.Document{Date: types.MustDate("2024-05-02")},
		SiteID:        f.siteID,
		FarmerID:      f.farmerID,
		SeaweedTypeID: f.typeID,
		Destination:   dest,
		TotalWeightKg: types.Kg(kg),
		TotalBags:     bags,
	}
}

func TestAddPostsToSiteStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	d, err := f.svc.Add(ctx, f.delivery(delivery.ToSite, 120, 3))
	require.NoError(t, err)
	assert.Equal(t, "DEL-2024-001", d.Number)

	bal, err := f.stock.Balance(ctx, f.siteID, f.typeID)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(120), bal.Kg)
	assert.Equal(t, 3, bal.Bags)

	moves, err := f.stock.Movements(ctx, registers.MovementFilter{RelatedID: d.ID})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, stock.FarmerDelivery, moves[0].Type)
	assert.Equal(t, "Delivery from Mwanaisha Ali (DEL-2024-001)", moves[0].Designation)
}

func TestAddDefaultsToSiteAndBulkGoesToWarehouse(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	in := f.delivery("", 50, 1)
	d, err := f.svc.Add(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, delivery.ToSite, d.Destination)

	_, err = f.svc.Add(ctx, f.delivery(delivery.ToWarehouse, 200, 4))
	require.NoError(t, err)

	wh, err := f.pressed.Balance(ctx, f.typeID)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(200), wh.Kg)

	site, err := f.stock.Balance(ctx, f.siteID, f.typeID)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(50), site.Kg)
}

func TestAddRejectsUnknownFarmer(t *testing.T) {
	f := setup(t)
	in := f.delivery(delivery.ToSite, 10, 1)
	in.FarmerID = "nobody"

	_, err := f.svc.Add(context.Background(), in)
	assert.True(t, apperror.IsNotFound(err))

	list, err := f.svc.List(context.Background(), delivery.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDeleteRetractsMovementUnlessPaid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.Add(ctx, f.delivery(delivery.ToSite, 100, 2))
	require.NoError(t, err)
	second, err := f.svc.Add(ctx, f.delivery(delivery.ToSite, 40, 1))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, first.ID))
	bal, err := f.stock.Balance(ctx, f.siteID, f.typeID)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(40), bal.Kg)

	n, err := f.svc.MarkPaid(ctx, []string{second.ID}, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = f.svc.Delete(ctx, second.ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)

	assert.True(t, apperror.IsNotFound(f.svc.Delete(ctx, first.ID)))
}

func TestMarkPaidKeepsFirstRun(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d, err := f.svc.Add(ctx, f.delivery(delivery.ToSite, 10, 1))
	require.NoError(t, err)

	_, err = f.svc.MarkPaid(ctx, []string{d.ID}, "run-1")
	require.NoError(t, err)
	n, err := f.svc.MarkPaid(ctx, []string{d.ID}, "run-2")
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := f.svc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "run-1", got.PaymentRunID)

	unpaid, err := f.svc.List(ctx, delivery.ListFilter{UnpaidOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unpaid)
}
