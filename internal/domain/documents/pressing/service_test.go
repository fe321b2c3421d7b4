package pressing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/types"
	"sealedger/internal/domain/documents/export"
	"sealedger/internal/domain/documents/pressing"
	"sealedger/internal/domain/domaintest"
	"sealedger/internal/domain/registers"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
	"sealedger/internal/infrastructure/numerator"
)

type fixture struct {
	env     *domaintest.Env
	stock   *stock.Service
	pressed *pressed.Service
	svc     *pressing.Service
	siteID  string
	typeID  string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := domaintest.New(t)
	f := &fixture{env: env}
	f.stock = stock.NewService(env.Deps, false)
	f.pressed = pressed.NewService(env.Deps, "", false)
	f.svc = pressing.NewService(env.Deps, numerator.New(), f.stock, f.pressed)
	f.siteID = env.Site(t, "Bweleo")
	f.typeID = env.SeaweedType(t, "Spinosum", 400, 1200)

	_, err := f.pressed.AddInitialStock(context.Background(), pressed.EntryInput{
		Date:          types.MustDate("2024-01-02"),
		SeaweedTypeID: f.typeID,
		Designation:   "Opening balance",
		InKg:          types.Kg(1000),
		InBales:       20,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) slip(consumedKg int64, consumedBags int, producedKg int64, bales int) pressing.Slip {
	return pressing.Slip{
		Document:           entity.Document{Date: types.MustDate("2024-04-10")},
		SeaweedTypeID:      f.typeID,
		ConsumedWeightKg:   types.Kg(consumedKg),
		ConsumedBags:       consumedBags,
		ProducedWeightKg:   types.Kg(producedKg),
		ProducedBalesCount: bales,
	}
}

func (f *fixture) warehouse(t *testing.T) entity.Balance {
	t.Helper()
	bal, err := f.pressed.Balance(context.Background(), f.typeID)
	require.NoError(t, err)
	return bal
}

func TestAddPostsConsumptionAndProduction(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	s, err := f.svc.Add(ctx, f.slip(500, 8, 150, 15))
	require.NoError(t, err)
	assert.Equal(t, "PRESS-2024-001", s.Number)

	bal := f.warehouse(t)
	assert.Equal(t, types.Kg(650), bal.Kg)
	assert.Equal(t, 27, bal.Bags)

	moves, err := f.pressed.Movements(ctx, registers.MovementFilter{RelatedID: s.ID})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, pressed.PressingConsumption, moves[0].Type)
	assert.Equal(t, "Consumed for Pressing Slip PRESS-2024-001", moves[0].Designation)
	assert.Equal(t, pressed.PressingIn, moves[1].Type)
	assert.Equal(t, "Produced from Pressing Slip PRESS-2024-001", moves[1].Designation)
}

func TestAddRejectsInvalidSlip(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Add(context.Background(), f.slip(0, 0, 150, 15))
	assert.True(t, apperror.IsValidation(err))

	in := f.slip(10, 1, 5, 1)
	in.SeaweedTypeID = "unknown"
	_, err = f.svc.Add(context.Background(), in)
	assert.True(t, apperror.IsNotFound(err))

	assert.Equal(t, types.Kg(1000), f.warehouse(t).Kg)
}

func TestUpdateReplacesMovements(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s, err := f.svc.Add(ctx, f.slip(500, 8, 150, 15))
	require.NoError(t, err)

	edit := *s
	edit.Number = "ignored"
	edit.ConsumedWeightKg = types.Kg(300)
	edit.ConsumedBags = 6
	updated, err := f.svc.Update(ctx, edit)
	require.NoError(t, err)
	assert.Equal(t, s.Number, updated.Number)

	bal := f.warehouse(t)
	assert.Equal(t, types.Kg(850), bal.Kg)
	assert.Equal(t, 29, bal.Bags)

	moves, err := f.pressed.Movements(ctx, registers.MovementFilter{RelatedID: s.ID})
	require.NoError(t, err)
	assert.Len(t, moves, 2)
}

func TestDeleteRemovesOnlyItsMovements(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a, err := f.svc.Add(ctx, f.slip(500, 8, 150, 15))
	require.NoError(t, err)
	b, err := f.svc.Add(ctx, f.slip(100, 2, 40, 4))
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.ID))

	bal := f.warehouse(t)
	assert.Equal(t, types.Kg(940), bal.Kg)
	assert.Equal(t, 22, bal.Bags)

	_, err = f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, apperror.IsNotFound(f.svc.Delete(ctx, a.ID)))
}

func TestReturnToSiteAndDeleteRetractsIt(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s, err := f.svc.Add(ctx, f.slip(500, 8, 150, 15))
	require.NoError(t, err)

	moves, err := f.svc.RecordReturnToSite(ctx, pressing.ReturnInput{
		SiteID:         f.siteID,
		Kg:             types.Kg(50),
		Bags:           2,
		PressingSlipID: s.ID,
	})
	require.NoError(t, err)
	require.Len(t, moves, 2)
	assert.Equal(t, "Return to site: Bweleo", moves[1].Designation)
	assert.Equal(t, domaintest.Epoch.Format("2006-01-02"), moves[0].Date.String())

	site, err := f.stock.Balance(ctx, f.siteID, f.typeID)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(50), site.Kg)
	assert.Equal(t, types.Kg(600), f.warehouse(t).Kg)

	require.NoError(t, f.svc.Delete(ctx, s.ID))
	site, err = f.stock.Balance(ctx, f.siteID, f.typeID)
	require.NoError(t, err)
	assert.True(t, site.Kg.IsZero())
	assert.Equal(t, types.Kg(1000), f.warehouse(t).Kg)
}

func TestDeleteExportedSlipFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	s, err := f.svc.Add(ctx, f.slip(500, 8, 150, 15))
	require.NoError(t, err)

	exports := export.NewService(f.env.Deps, numerator.New(), f.pressed)
	_, err = exports.Add(ctx, export.Document{
		Document:        entity.Document{Date: types.MustDate("2024-04-20")},
		SeaweedTypeID:   f.typeID,
		PressingSlipIDs: []string{s.ID},
	}, f.siteID)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, s.ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeAlreadyExported, appErr.Code)
}
