package cultivation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
	"sealedger/internal/domain/credit"
	"sealedger/internal/domain/cultivation"
	"sealedger/internal/domain/cutting"
	"sealedger/internal/domain/domaintest"
	"sealedger/internal/domain/modules"
	"sealedger/internal/domain/registers"
	"sealedger/internal/domain/registers/stock"
)

type fixture struct {
	env      *domaintest.Env
	modules  *modules.Service
	credits  *credit.Service
	cuttings *cutting.Service
	stock    *stock.Service
	svc      *cultivation.Service
	siteID   string
	typeID   string
	farmerID string
	module   *modules.Module
}

func setup(t *testing.T, policy cultivation.DeletionPolicy) *fixture {
	t.Helper()
	env := domaintest.New(t)
	f := &fixture{env: env}
	f.modules = modules.NewService(env.Deps)
	f.credits = credit.NewService(env.Deps)
	f.cuttings = cutting.NewService(env.Deps, f.credits)
	f.stock = stock.NewService(env.Deps, false)
	f.svc = cultivation.NewService(env.Deps, f.modules, f.cuttings, f.stock, policy)
	f.svc.AttachCascades(f.modules)

	f.siteID = env.Site(t, "Paje")
	f.typeID = env.SeaweedType(t, "Spinosum", 400, 1200)
	f.farmerID = env.Farmer(t, f.siteID, "Asha", "Juma")
	f.module = env.Module(t, f.siteID, "M-1", 20)
	return f
}

func (f *fixture) plant(t *testing.T) *cultivation.Cycle {
	t.Helper()
	c, err := f.svc.Plant(context.Background(), cultivation.PlantInput{
		ModuleID:      f.module.ID,
		SeaweedTypeID: f.typeID,
		PlantingDate:  types.MustDate("2024-03-01"),
	}, f.farmerID)
	require.NoError(t, err)
	return c
}

// bagged runs a planted cycle through harvest, drying and bagging.
func (f *fixture) bagged(t *testing.T) *cultivation.Cycle {
	t.Helper()
	ctx := context.Background()
	c := f.plant(t)
	_, err := f.svc.Harvest(ctx, c.ID, cultivation.HarvestInput{
		Date: types.MustDate("2024-04-15"), WeightKg: types.Kg(500), CuttingsKg: types.Kg(100),
	})
	require.NoError(t, err)
	_, err = f.svc.StartDrying(ctx, c.ID, types.MustDate("2024-04-16"))
	require.NoError(t, err)
	_, err = f.svc.CompleteDrying(ctx, c.ID, cultivation.DryingInput{
		CompletionDate: types.MustDate("2024-04-25"), BaggingStartDate: types.MustDate("2024-04-26"), DryWeightKg: types.Kg(60),
	})
	require.NoError(t, err)
	c, err = f.svc.CompleteBagging(ctx, c.ID, cultivation.BaggingInput{
		BagWeights: []types.Quantity{types.Kg(25), types.Kg(25), types.Kg(10)},
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) moduleHistory(t *testing.T) []modules.HistoryEntry {
	t.Helper()
	m, err := f.modules.Get(context.Background(), f.module.ID)
	require.NoError(t, err)
	return m.StatusHistory
}

func TestPlantAssignsModule(t *testing.T) {
	f := setup(t, "")
	c := f.plant(t)

	assert.Equal(t, cultivation.StatusPlanted, c.Status)
	assert.Equal(t, 20, c.LinesPlanted, "defaults to the module's lines")
	assert.Empty(t, c.CuttingOperationID)

	h := f.moduleHistory(t)
	require.Len(t, h, 4)
	assert.Equal(t, modules.StatusAssigned, h[2].Status)
	assert.Equal(t, modules.StatusPlanted, h[3].Status)
	assert.Equal(t, "2024-03-01", h[3].Date.String())

	m, err := f.modules.Get(context.Background(), f.module.ID)
	require.NoError(t, err)
	assert.Equal(t, f.farmerID, m.FarmerID)
}

func TestPlantRejectsBusyModuleAndUnknownFarmer(t *testing.T) {
	f := setup(t, "")
	f.plant(t)

	_, err := f.svc.Plant(context.Background(), cultivation.PlantInput{
		ModuleID: f.module.ID, SeaweedTypeID: f.typeID, PlantingDate: types.MustDate("2024-03-05"),
	}, f.farmerID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)

	other := f.env.Module(t, f.siteID, "M-2", 10)
	_, err = f.svc.Plant(context.Background(), cultivation.PlantInput{
		ModuleID: other.ID, SeaweedTypeID: f.typeID, PlantingDate: types.MustDate("2024-03-05"),
	}, "ghost")
	assert.True(t, apperror.IsNotFound(err))
}

func TestPlantTracesLatestCuttingOperation(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	provider := f.env.ServiceProvider(t, "Kassim")
	for _, d := range []string{"2024-02-01", "2024-02-20", "2024-03-10"} {
		_, err := f.cuttings.Add(ctx, cutting.Operation{
			Date: types.MustDate(d), SiteID: f.siteID, ServiceProviderID: provider,
			ModuleCuts: []cutting.ModuleCut{{ModuleID: f.module.ID, LinesCut: 5}},
			UnitPrice:  types.NewMoney(100),
		})
		require.NoError(t, err)
	}

	c := f.plant(t)
	op, err := f.cuttings.Get(ctx, c.CuttingOperationID)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-20", op.Date.String(), "latest on or before planting")

	h := f.moduleHistory(t)
	require.Len(t, h, 5)
	assert.Equal(t, modules.StatusCutting, h[2].Status)
	assert.Equal(t, "2024-02-20", h[2].Date.String())
}

func TestPlantFromCuttingsChargesBeneficiary(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	provider := f.env.ServiceProvider(t, "Kassim")

	op, c, err := f.svc.PlantFromCuttings(ctx, cutting.Operation{
		Date: types.MustDate("2024-03-01"), SiteID: f.siteID, ServiceProviderID: provider,
		ModuleCuts: []cutting.ModuleCut{{ModuleID: f.module.ID, LinesCut: 20}},
		UnitPrice:  types.NewMoney(500),
	}, cultivation.PlantInput{
		ModuleID: f.module.ID, SeaweedTypeID: f.typeID, PlantingDate: types.MustDate("2024-03-01"),
	}, f.farmerID)
	require.NoError(t, err)
	assert.Equal(t, op.ID, c.CuttingOperationID)

	b, err := f.credits.Balance(ctx, f.farmerID)
	require.NoError(t, err)
	assert.True(t, b.Outstanding.Equal(types.NewMoney(10000)), b.Outstanding.String())
}

func TestPlantFromCuttingsIsAtomic(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	provider := f.env.ServiceProvider(t, "Kassim")

	_, _, err := f.svc.PlantFromCuttings(ctx, cutting.Operation{
		Date: types.MustDate("2024-03-01"), SiteID: f.siteID, ServiceProviderID: provider,
		ModuleCuts: []cutting.ModuleCut{{ModuleID: f.module.ID, LinesCut: 20}},
		UnitPrice:  types.NewMoney(500),
	}, cultivation.PlantInput{
		ModuleID: f.module.ID, SeaweedTypeID: "unknown-type", PlantingDate: types.MustDate("2024-03-01"),
	}, f.farmerID)
	require.Error(t, err)

	ops, err := f.cuttings.List(ctx, cutting.Filter{})
	require.NoError(t, err)
	assert.Empty(t, ops)
	cs, err := f.credits.Credits(ctx, credit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestLifecycleToStockAndExport(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	c := f.bagged(t)
	assert.Equal(t, types.Kg(60), c.BaggedWeightKg)
	assert.Equal(t, 3, c.BaggedBagsCount)

	c, err := f.svc.TransferToStock(ctx, c.ID, types.MustDate("2024-05-01"))
	require.NoError(t, err)
	assert.Equal(t, cultivation.StatusInStock, c.Status)

	h := f.moduleHistory(t)
	last := h[len(h)-1]
	assert.Equal(t, modules.StatusFree, last.Status)
	assert.Equal(t, modules.NoteCompleted, last.Notes)
	assert.Equal(t, modules.StatusInStock, h[len(h)-2].Status)

	bal, err := f.stock.Balance(ctx, f.siteID, f.typeID)
	require.NoError(t, err)
	assert.Equal(t, types.Kg(60), bal.Kg)
	assert.Equal(t, 3, bal.Bags)

	_, err = f.svc.Export(ctx, c.ID, types.MustDate("2024-05-10"))
	require.NoError(t, err)
	mv, err := f.stock.Movements(ctx, registers.MovementFilter{RelatedID: c.ID, Type: stock.ExportOut})
	require.NoError(t, err)
	require.Len(t, mv, 1)
	assert.Equal(t, types.Kg(500), mv[0].OutKg)
	assert.Equal(t, 10, mv[0].OutBags)
}

func TestModuleHistoryFollowsStageDates(t *testing.T) {
	f := setup(t, "")
	f.bagged(t)

	h := f.moduleHistory(t)
	got := map[modules.Status]string{}
	for _, e := range h {
		got[e.Status] = e.Date.String()
	}
	assert.Equal(t, "2024-04-15", got[modules.StatusHarvested])
	assert.Equal(t, "2024-04-16", got[modules.StatusDrying])
	assert.Equal(t, "2024-04-26", got[modules.StatusBagging])
	assert.Equal(t, "2024-04-26", got[modules.StatusBagged])
}

func TestTransitionsMustFollowOrder(t *testing.T) {
	f := setup(t, "")
	c := f.plant(t)

	_, err := f.svc.StartDrying(context.Background(), c.ID, types.MustDate("2024-04-01"))
	assert.True(t, apperror.IsInvalidTransition(err))

	_, err = f.svc.TransferToStock(context.Background(), c.ID, types.MustDate("2024-04-01"))
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestNetMaterialCannotGrow(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	c := f.plant(t)

	_, err := f.svc.Harvest(ctx, c.ID, cultivation.HarvestInput{
		Date: types.MustDate("2024-04-15"), WeightKg: types.Kg(100), CuttingsKg: types.Kg(150),
	})
	assert.True(t, apperror.IsValidation(err))

	_, err = f.svc.Harvest(ctx, c.ID, cultivation.HarvestInput{
		Date: types.MustDate("2024-04-15"), WeightKg: types.Kg(100), CuttingsKg: types.Kg(40),
	})
	require.NoError(t, err)
	_, err = f.svc.StartDrying(ctx, c.ID, types.MustDate("2024-04-16"))
	require.NoError(t, err)
	_, err = f.svc.CompleteDrying(ctx, c.ID, cultivation.DryingInput{
		CompletionDate: types.MustDate("2024-04-20"), DryWeightKg: types.Kg(61),
	})
	assert.True(t, apperror.IsValidation(err))

	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, cultivation.StatusDrying, got.Status, "failed transition writes nothing")
}

func TestTransferBaggedSkipsOtherStages(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	bagged := f.bagged(t)
	other := f.env.Module(t, f.siteID, "M-2", 10)
	planted, err := f.svc.Plant(ctx, cultivation.PlantInput{
		ModuleID: other.ID, SeaweedTypeID: f.typeID, PlantingDate: types.MustDate("2024-03-01"),
	}, f.farmerID)
	require.NoError(t, err)

	n, err := f.svc.TransferBaggedToStock(ctx, []string{bagged.ID, planted.ID}, types.Date{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.Get(ctx, planted.ID)
	require.NoError(t, err)
	assert.Equal(t, cultivation.StatusPlanted, got.Status)
	got, err = f.svc.Get(ctx, bagged.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-15", got.StockDate.String(), "defaults to today")
}

func TestPaymentRunIDIsImmutable(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	c := f.plant(t)

	n, err := f.svc.MarkPaid(ctx, []string{c.ID}, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = f.svc.MarkPaid(ctx, []string{c.ID}, "run-2")
	require.NoError(t, err)
	assert.Zero(t, n)

	edit, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	changed := *edit
	changed.PaymentRunID = "run-3"
	changed.ProcessingNotes = "re-weighed"
	updated, err := f.svc.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, "run-1", updated.PaymentRunID)

	changed.PaymentRunID = ""
	updated, err = f.svc.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, "run-1", updated.PaymentRunID)
}

func TestUpdateStatusChangeAppendsHistory(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	c := f.plant(t)
	before := len(f.moduleHistory(t))

	edit := *c
	edit.Status = cultivation.StatusHarvested
	edit.HarvestDate = types.MustDate("2024-04-02")
	edit.HarvestedWeightKg = types.Kg(80)
	_, err := f.svc.Update(ctx, edit)
	require.NoError(t, err)

	h := f.moduleHistory(t)
	require.Len(t, h, before+1)
	assert.Equal(t, modules.StatusHarvested, h[before].Status)
	assert.Equal(t, "2024-04-02", h[before].Date.String())
}

func TestDeletionPolicy(t *testing.T) {
	for _, tc := range []struct {
		policy    cultivation.DeletionPolicy
		remaining types.Quantity
	}{
		{cultivation.Retain, types.Kg(60)},
		{cultivation.Retract, 0},
	} {
		t.Run(string(tc.policy), func(t *testing.T) {
			f := setup(t, tc.policy)
			ctx := context.Background()
			c := f.bagged(t)
			_, err := f.svc.TransferToStock(ctx, c.ID, types.MustDate("2024-05-01"))
			require.NoError(t, err)

			require.NoError(t, f.svc.Delete(ctx, c.ID))

			bal, err := f.stock.Balance(ctx, f.siteID, f.typeID)
			require.NoError(t, err)
			assert.Equal(t, tc.remaining, bal.Kg)
		})
	}
}

func TestModuleDeleteCascadesToCycles(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	f.plant(t)

	require.NoError(t, f.modules.Delete(ctx, f.module.ID))

	cycles, err := f.svc.List(ctx, cultivation.Filter{})
	require.NoError(t, err)
	assert.Empty(t, cycles)
}

func TestListFilters(t *testing.T) {
	f := setup(t, "")
	ctx := context.Background()
	f.bagged(t)
	f.env.Module(t, f.env.Site(t, "Jambiani"), "J-1", 10)

	got, err := f.svc.List(ctx, cultivation.Filter{
		SiteID: f.siteID, HarvestFrom: types.MustDate("2024-04-01"), HarvestTo: types.MustDate("2024-04-30"), UnpaidOnly: true,
	})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = f.svc.List(ctx, cultivation.Filter{HarvestFrom: types.MustDate("2024-05-01")})
	require.NoError(t, err)
	assert.Empty(t, got)
}
