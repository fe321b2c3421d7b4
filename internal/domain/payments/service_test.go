package payments_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/entity"
	"sealedger/internal/core/numerator"
	"sealedger/internal/core/types"
	"sealedger/internal/domain/catalogs/credittype"
	"sealedger/internal/domain/catalogs/employee"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/site"
	"sealedger/internal/domain/credit"
	"sealedger/internal/domain/cultivation"
	"sealedger/internal/domain/cutting"
	"sealedger/internal/domain/documents/delivery"
	"sealedger/internal/domain/domaintest"
	"sealedger/internal/domain/modules"
	"sealedger/internal/domain/payments"
	"sealedger/internal/domain/registers/pressed"
	"sealedger/internal/domain/registers/stock"
)

type stubDisburser struct {
	result payments.DisbursementResult
	err    error
	calls  []payments.DisbursementRequest
}

func (d *stubDisburser) Initiate(_ context.Context, req payments.DisbursementRequest) (payments.DisbursementResult, error) {
	d.calls = append(d.calls, req)
	return d.result, d.err
}

type fixture struct {
	env        *domaintest.Env
	credits    *credit.Service
	cuttings   *cutting.Service
	cycles     *cultivation.Service
	deliveries *delivery.Service
	disburser  *stubDisburser
	svc        *payments.Service
	siteID     string
	typeID     string
	asha       string
}

var payroll = payments.PayrollConfig{Rates: []payments.StatutoryRate{
	{Label: "Social security", Percent: types.NewMoney(10)},
}}

func setup(t *testing.T) *fixture {
	t.Helper()
	env := domaintest.New(t)
	f := &fixture{env: env, disburser: &stubDisburser{}}
	mods := modules.NewService(env.Deps)
	st := stock.NewService(env.Deps, false)
	f.credits = credit.NewService(env.Deps)
	f.cuttings = cutting.NewService(env.Deps, f.credits)
	f.cycles = cultivation.NewService(env.Deps, mods, f.cuttings, st, cultivation.Retain)
	f.deliveries = delivery.NewService(env.Deps, &numerator.MockGenerator{}, st, pressed.NewService(env.Deps, "", false))
	f.svc = payments.NewService(env.Deps, f.credits, f.cycles, f.deliveries, f.cuttings, f.disburser, payroll)

	f.siteID = env.Site(t, "Paje")
	f.typeID = env.SeaweedType(t, "Spinosum", 400, 1200)
	f.asha = env.Farmer(t, f.siteID, "Asha", "Juma")
	return f
}

// harvested plants a module for farmerID and harvests it on 2024-06-05.
func (f *fixture) harvested(t *testing.T, farmerID, code string, kg, cuttingsKg int64) *cultivation.Cycle {
	t.Helper()
	ctx := context.Background()
	m := f.env.Module(t, f.siteID, code, 10)
	c, err := f.cycles.Plant(ctx, cultivation.PlantInput{
		ModuleID:      m.ID,
		SeaweedTypeID: f.typeID,
		PlantingDate:  types.MustDate("2024-04-01"),
	}, farmerID)
	require.NoError(t, err)
	c, err = f.cycles.Harvest(ctx, c.ID, cultivation.HarvestInput{
		Date:       types.MustDate("2024-06-05"),
		WeightKg:   types.Kg(kg),
		CuttingsKg: types.Kg(cuttingsKg),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) owe(t *testing.T, farmerID string, amount float64) {
	t.Helper()
	_, err := f.credits.AddCredit(context.Background(), credit.Credit{
		Date:         types.MustDate("2024-05-01"),
		FarmerID:     farmerID,
		CreditTypeID: credittype.CuttingID,
		TotalAmount:  types.NewMoney(amount),
	})
	require.NoError(t, err)
}

func june(class payments.PayeeClass) payments.RunConfig {
	return payments.RunConfig{
		PeriodName: "2024-06",
		StartDate:  types.MustDate("2024-06-01"),
		EndDate:    types.MustDate("2024-06-30"),
		PayeeClass: class,
	}
}

func money(v float64) types.Money { return types.NewMoney(v) }

func TestWetRunDeductionCanConsumeWholeLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.harvested(t, f.asha, "M-1", 100, 0)
	f.owe(t, f.asha, 50000)

	cfg := june(payments.FarmerWet)
	cfg.Deduction = payments.FullDeduction()

	preview, err := f.svc.Preview(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, preview.Payees, 1)
	p := preview.Payees[0]
	assert.True(t, p.BaseAmount.Equal(money(40000)), p.BaseAmount.String())
	assert.True(t, p.Deduction.Equal(money(40000)), p.Deduction.String())
	assert.True(t, p.NetAmount.IsZero())
	assert.True(t, p.CreditBalance.Equal(money(50000)))

	run, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)
	assert.Empty(t, run.Payments, "nothing left to pay")
	require.Len(t, run.Repayments, 1)
	assert.True(t, run.Repayments[0].Amount.Equal(money(40000)))
	assert.Equal(t, credit.MethodHarvestDeduction, run.Repayments[0].Method)
	assert.Equal(t, run.ID, run.Repayments[0].PaymentRunID)
	assert.Equal(t, 1, run.CyclesMarked)

	got, err := f.cycles.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.PaymentRunID)

	bal, err := f.credits.Balance(ctx, f.asha)
	require.NoError(t, err)
	assert.True(t, bal.Outstanding.Equal(money(10000)), bal.Outstanding.String())

	again, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, again.Empty())

	reps, err := f.credits.Repayments(ctx, credit.Filter{FarmerID: f.asha})
	require.NoError(t, err)
	assert.Len(t, reps, 1)
}

func TestWetRunPaysNetWeight(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.harvested(t, f.asha, "M-1", 120, 20)
	f.harvested(t, f.asha, "M-2", 50, 0)

	run, err := f.svc.Commit(ctx, june(payments.FarmerWet))
	require.NoError(t, err)
	require.Len(t, run.Payments, 1)
	p := run.Payments[0]
	assert.True(t, p.Amount.Equal(money(60000)), p.Amount.String())
	assert.Equal(t, payments.RecipientFarmer, p.RecipientType)
	assert.Equal(t, f.asha, p.RecipientID)
	assert.Equal(t, payments.MethodCash, p.Method)
	assert.Equal(t, payments.StatusCompleted, p.Status, "cash settles at commit")
	assert.Equal(t, "Payment for period: 2024-06-01 to 2024-06-30", p.Notes)
	assert.Equal(t, 2, run.CyclesMarked)
}

func TestWetRunIgnoresHarvestsOutsideRange(t *testing.T) {
	f := setup(t)
	f.harvested(t, f.asha, "M-1", 100, 0)

	cfg := june(payments.FarmerWet)
	cfg.StartDate, cfg.EndDate = types.MustDate("2024-07-01"), types.MustDate("2024-07-31")
	preview, err := f.svc.Preview(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, preview.Payees)
}

func TestWetRunSkipsCyclesOfDeletedFarmer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	bakari := f.env.Farmer(t, f.siteID, "Bakari", "Said")
	f.harvested(t, f.asha, "M-1", 100, 0)
	orphan := f.harvested(t, bakari, "M-2", 50, 0)
	require.NoError(t, farmer.NewService(f.env.Deps).Delete(ctx, bakari))

	preview, err := f.svc.Preview(ctx, june(payments.FarmerWet))
	require.NoError(t, err)
	require.Len(t, preview.Payees, 1)
	assert.Equal(t, f.asha, preview.Payees[0].RecipientID)

	run, err := f.svc.Commit(ctx, june(payments.FarmerWet))
	require.NoError(t, err)
	require.Len(t, run.Payments, 1)
	assert.True(t, run.Payments[0].Amount.Equal(money(40000)), run.Payments[0].Amount.String())
	assert.Equal(t, 1, run.CyclesMarked)

	c, err := f.cycles.Get(ctx, orphan.ID)
	require.NoError(t, err)
	assert.False(t, c.IsPaid())

	warned := f.env.Logs.FilterMessage("cycle skipped, farmer not found").All()
	require.NotEmpty(t, warned)
	assert.Equal(t, orphan.ID, warned[0].ContextMap()["cycle_id"])
}

func TestDryRunSkipsDeliveriesOfDeletedSeaweedType(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	cottonii := f.env.SeaweedType(t, "Cottonii", 500, 1500)
	for _, typeID := range []string{f.typeID, cottonii} {
		_, err := f.deliveries.Add(ctx, delivery.Delivery{
			Document:      entity.Document{Date: types.MustDate("2024-06-10")},
			SiteID:        f.siteID,
			FarmerID:      f.asha,
			SeaweedTypeID: typeID,
			TotalWeightKg: types.Kg(10),
			TotalBags:     1,
		})
		require.NoError(t, err)
	}
	require.NoError(t, seaweedtype.NewService(f.env.Deps).Delete(ctx, cottonii))

	run, err := f.svc.Commit(ctx, june(payments.FarmerDry))
	require.NoError(t, err)
	require.Len(t, run.Payments, 1)
	assert.True(t, run.Payments[0].Amount.Equal(money(12000)), run.Payments[0].Amount.String())
	assert.Equal(t, 1, run.DeliveriesMarked)
	assert.Equal(t, 1, f.env.Logs.FilterMessage("delivery skipped, seaweed type not found").Len())
}

func TestFarmerRunsFilterByFarmerSite(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	jambiani := f.env.Site(t, "Jambiani")
	visitor := f.env.Farmer(t, jambiani, "Omar", "Ali")
	// Both modules are at Paje; the visitor belongs to Jambiani.
	f.harvested(t, f.asha, "M-1", 100, 0)
	f.harvested(t, visitor, "M-2", 10, 0)

	cfg := june(payments.FarmerWet)
	cfg.SiteID = f.siteID
	preview, err := f.svc.Preview(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, preview.Payees, 1)
	assert.Equal(t, f.asha, preview.Payees[0].RecipientID)

	cfg.SiteID = jambiani
	preview, err = f.svc.Preview(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, preview.Payees, 1)
	assert.Equal(t, visitor, preview.Payees[0].RecipientID)
	assert.Equal(t, jambiani, preview.Payees[0].SiteID)
}

func TestSelectionAndAdjustments(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	omar := f.env.Farmer(t, f.siteID, "Omar", "Ali")
	f.harvested(t, f.asha, "M-1", 100, 0)
	omarCycle := f.harvested(t, omar, "M-2", 10, 0)

	cfg := june(payments.FarmerWet)
	cfg.Selection = []string{f.asha}
	cfg.Adjustments = map[string]types.Money{f.asha: money(-5000)}

	run, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, run.Payments, 1)
	assert.True(t, run.Payments[0].Amount.Equal(money(35000)), run.Payments[0].Amount.String())

	c, err := f.cycles.Get(ctx, omarCycle.ID)
	require.NoError(t, err)
	assert.False(t, c.IsPaid(), "unselected payees stay unpaid")
}

func TestDryRunPaysDeliveries(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d, err := f.deliveries.Add(ctx, delivery.Delivery{
		Document:      entity.Document{Date: types.MustDate("2024-06-10")},
		SiteID:        f.siteID,
		FarmerID:      f.asha,
		SeaweedTypeID: f.typeID,
		TotalWeightKg: types.Kg(10),
		TotalBags:     1,
	})
	require.NoError(t, err)
	f.owe(t, f.asha, 2000)

	cfg := june(payments.FarmerDry)
	cfg.Deduction = payments.DeductionConfig{Enabled: true, Type: payments.DeductionFixed, Value: money(5000)}
	run, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)

	require.Len(t, run.Payments, 1)
	assert.True(t, run.Payments[0].Amount.Equal(money(10000)), run.Payments[0].Amount.String())
	require.Len(t, run.Repayments, 1)
	assert.True(t, run.Repayments[0].Amount.Equal(money(2000)), "clamped to the outstanding balance")
	assert.Equal(t, 1, run.DeliveriesMarked)

	got, err := f.deliveries.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.PaymentRunID)
}

func TestServiceProviderRunIsPerOperation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	provider := f.env.ServiceProvider(t, "Kassim Cutters")
	m := f.env.Module(t, f.siteID, "M-9", 20)

	op, err := f.cuttings.Add(ctx, cutting.Operation{
		Date:              types.MustDate("2024-06-03"),
		SiteID:            f.siteID,
		ServiceProviderID: provider,
		UnitPrice:         money(500),
		ModuleCuts:        []cutting.ModuleCut{{ModuleID: m.ID, LinesCut: 10}},
	})
	require.NoError(t, err)

	cfg := june(payments.ServiceProvider)
	cfg.Deduction = payments.FullDeduction()
	preview, err := f.svc.Preview(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, preview.Payees, 1)
	assert.Equal(t, op.ID, preview.Payees[0].ID)
	assert.Equal(t, 10, preview.Payees[0].Lines)
	assert.True(t, preview.Payees[0].Deduction.IsZero(), "providers carry no credit")

	run, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, run.Payments, 1)
	assert.Equal(t, provider, run.Payments[0].RecipientID)
	assert.True(t, run.Payments[0].Amount.Equal(money(5000)))
	assert.Equal(t, 1, run.OperationsMarked)

	got, err := f.cuttings.Get(ctx, op.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPaid)
	assert.Equal(t, "2024-06-15", got.PaymentDate.String())
}

func TestPayrollRunsOncePerPeriod(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	sites := site.NewService(f.env.Deps)
	e, err := employee.NewService(f.env.Deps, sites).Create(ctx,
		employee.NewEmployee("Halima", "Said", f.siteID, money(300000)))
	require.NoError(t, err)

	cfg := june(payments.EmployeePayroll)
	cfg.Payroll = map[string]payments.PayrollInput{e.ID: {Bonus: money(20000)}}

	preview, err := f.svc.Preview(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, preview.Payees, 1)
	line := preview.Payees[0].Payroll
	require.NotNil(t, line)
	assert.True(t, line.TotalGross.Equal(money(320000)))
	assert.True(t, line.TotalDeductions.Equal(money(32000)))
	assert.True(t, line.NetPay.Equal(money(288000)))

	run, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, run.Payments, 1)
	assert.Empty(t, run.Repayments)
	assert.Equal(t, payments.RecipientEmployee, run.Payments[0].RecipientType)

	again, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, again.Empty())

	july := cfg
	july.PeriodName = "2024-07"
	next, err := f.svc.Commit(ctx, july)
	require.NoError(t, err)
	assert.Len(t, next.Payments, 1)
}

func TestCommitValidatesConfig(t *testing.T) {
	f := setup(t)
	cfg := june("bonus")
	_, err := f.svc.Commit(context.Background(), cfg)
	assert.True(t, apperror.IsValidation(err))

	cfg = june(payments.FarmerWet)
	cfg.EndDate = types.MustDate("2024-05-01")
	_, err = f.svc.Commit(context.Background(), cfg)
	assert.True(t, apperror.IsValidation(err))
}

func (f *fixture) mobilePayment(t *testing.T) *payments.MonthlyPayment {
	t.Helper()
	ctx := context.Background()
	fs := farmer.NewService(f.env.Deps)
	fm, err := fs.Get(ctx, f.asha)
	require.NoError(t, err)
	fm.MobileMoneyNumber = "+255700000001"
	require.NoError(t, fs.Update(ctx, fm))

	f.harvested(t, f.asha, "M-1", 10, 0)
	cfg := june(payments.FarmerWet)
	cfg.Method = payments.MethodMobileMoney
	run, err := f.svc.Commit(ctx, cfg)
	require.NoError(t, err)
	require.Len(t, run.Payments, 1)
	assert.Equal(t, payments.StatusPending, run.Payments[0].Status)
	return run.Payments[0]
}

func TestDisburseCompletesPayment(t *testing.T) {
	f := setup(t)
	p := f.mobilePayment(t)
	f.disburser.result = payments.DisbursementResult{Success: true, TransactionID: "MM-42"}

	got, err := f.svc.Disburse(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusCompleted, got.Status)
	assert.Equal(t, "MM-42", got.TransactionID)

	require.Len(t, f.disburser.calls, 1)
	assert.Equal(t, "+255700000001", f.disburser.calls[0].PhoneNumber)
	assert.True(t, f.disburser.calls[0].Amount.Equal(money(4000)))

	_, err = f.svc.Disburse(context.Background(), p.ID)
	assert.True(t, apperror.IsInvalidTransition(err), "completed payments are not paid twice")
}

func TestDisburseFailureIsRecorded(t *testing.T) {
	f := setup(t)
	p := f.mobilePayment(t)
	f.disburser.err = errors.New("connection refused")

	got, err := f.svc.Disburse(context.Background(), p.ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeDisbursement, appErr.Code)
	require.NotNil(t, got)
	assert.Equal(t, payments.StatusFailed, got.Status)
	assert.Equal(t, "connection refused", got.FailureReason)

	// A failed payment can be retried.
	f.disburser.err = nil
	f.disburser.result = payments.DisbursementResult{Success: true, TransactionID: "MM-43"}
	got, err = f.svc.Disburse(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, payments.StatusCompleted, got.Status)
	assert.Empty(t, got.FailureReason)
}

func TestDisburseRejectsCash(t *testing.T) {
	f := setup(t)
	f.harvested(t, f.asha, "M-1", 10, 0)
	run, err := f.svc.Commit(context.Background(), june(payments.FarmerWet))
	require.NoError(t, err)

	_, err = f.svc.Disburse(context.Background(), run.Payments[0].ID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeBusinessRule, appErr.Code)
	assert.Empty(t, f.disburser.calls)
}

func TestUpdateAndDeletePayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.mobilePayment(t)

	edit := *p
	edit.Amount = money(1)
	edit.Notes = "paid at the office"
	edit.Status = payments.StatusCompleted
	got, err := f.svc.UpdatePayment(ctx, edit)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(p.Amount), "amount is fixed at commit")
	assert.Equal(t, "paid at the office", got.Notes)

	edit.Status = payments.StatusPending
	_, err = f.svc.UpdatePayment(ctx, edit)
	assert.True(t, apperror.IsInvalidTransition(err))

	list, err := f.svc.ListPayments(ctx, payments.ListFilter{Status: payments.StatusCompleted})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.svc.DeletePayment(ctx, p.ID))
	assert.True(t, apperror.IsNotFound(f.svc.DeletePayment(ctx, p.ID)))
}

func TestDeductClamp(t *testing.T) {
	pct := func(v float64) payments.DeductionConfig {
		return payments.DeductionConfig{Enabled: true, Type: payments.DeductionPercentage, Value: money(v)}
	}
	fixed := payments.DeductionConfig{Enabled: true, Type: payments.DeductionFixed, Value: money(800)}

	tests := []struct {
		name        string
		cfg         payments.DeductionConfig
		payable     float64
		outstanding float64
		want        float64
	}{
		{"configured", pct(50), 1000, 5000, 500},
		{"outstanding", pct(50), 1000, 300, 300},
		{"payable", fixed, 500, 5000, 500},
		{"fixed", fixed, 5000, 5000, 800},
		{"disabled", payments.DeductionConfig{}, 1000, 5000, 0},
		{"nothing owed", pct(100), 1000, 0, 0},
		{"overpaid", pct(100), 1000, -50, 0},
		{"nothing payable", pct(100), -100, 5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.Deduct(money(tt.payable), money(tt.outstanding))
			assert.True(t, got.Equal(money(tt.want)), got.String())
		})
	}
}
