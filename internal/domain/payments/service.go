package payments

import (
	"context"
	"fmt"

	"sealedger/internal/core/apperror"
	"sealedger/internal/core/types"
	"sealedger/internal/domain"
	"sealedger/internal/domain/catalogs/employee"
	"sealedger/internal/domain/catalogs/farmer"
	"sealedger/internal/domain/catalogs/seaweedtype"
	"sealedger/internal/domain/catalogs/serviceprovider"
	"sealedger/internal/domain/credit"
	"sealedger/internal/domain/cultivation"
	"sealedger/internal/domain/cutting"
	"sealedger/internal/domain/documents/delivery"
	"sealedger/pkg/logger"
)

// Service runs payment runs and tracks the resulting payments.
type Service struct {
	deps       domain.Deps
	repo       *Repository
	credits    *credit.Service
	cycles     *cultivation.Service
	deliveries *delivery.Service
	cuttings   *cutting.Service
	disburser  Disburser
	payroll    PayrollConfig

	farmers      *farmer.Repository
	employees    *employee.Repository
	providers    *serviceprovider.Repository
	seaweedTypes *seaweedtype.Repository
}

// NewService creates a payment run service. A nil disburser rejects every
// mobile money disbursement.
func NewService(
	deps domain.Deps,
	credits *credit.Service,
	cycles *cultivation.Service,
	deliveries *delivery.Service,
	cuttings *cutting.Service,
	disburser Disburser,
	payroll PayrollConfig,
) *Service {
	return &Service{
		deps:         deps,
		repo:         NewRepository(),
		credits:      credits,
		cycles:       cycles,
		deliveries:   deliveries,
		cuttings:     cuttings,
		disburser:    disburser,
		payroll:      payroll,
		farmers:      farmer.NewRepository(),
		employees:    employee.NewRepository(),
		providers:    serviceprovider.NewRepository(),
		seaweedTypes: seaweedtype.NewRepository(),
	}
}

// Preview computes the payees of a run without writing anything.
func (s *Service) Preview(ctx context.Context, cfg RunConfig) (*Preview, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var out *Preview
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.preview(ctx, cfg)
		return err
	})
	return out, err
}

// Run is the outcome of a committed payment run.
type Run struct {
	ID               string              `json:"id"`
	Date             types.Date          `json:"date"`
	Period           string              `json:"period"`
	Payments         []*MonthlyPayment   `json:"payments"`
	Repayments       []*credit.Repayment `json:"repayments"`
	CyclesMarked     int                 `json:"cyclesMarked"`
	DeliveriesMarked int                 `json:"deliveriesMarked"`
	OperationsMarked int                 `json:"operationsMarked"`
}

// Empty reports whether the run wrote nothing.
func (r *Run) Empty() bool {
	return len(r.Payments) == 0 && len(r.Repayments) == 0 &&
		r.CyclesMarked == 0 && r.DeliveriesMarked == 0 && r.OperationsMarked == 0
}

// Commit recomputes the run inside one transaction and settles it: a
// payment per selected line with a positive net, a repayment per farmer
// deduction, and paid markers on every contributing record. Records already
// marked are never selected again, so committing the same configuration
// twice writes nothing the second time.
func (s *Service) Commit(ctx context.Context, cfg RunConfig) (*Run, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	run := &Run{ID: s.deps.NewID(), Date: s.deps.Today(), Period: cfg.PeriodName}

	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		preview, err := s.preview(ctx, cfg)
		if err != nil {
			return err
		}

		var (
			payments   []*MonthlyPayment
			repayments []credit.Repayment
			cycleIDs   []string
			delivIDs   []string
			opIDs      []string
		)
		for _, p := range preview.Payees {
			if !p.Selected {
				continue
			}
			if !p.NetAmount.IsPositive() && !p.Deduction.IsPositive() {
				continue
			}
			if p.NetAmount.IsPositive() {
				payments = append(payments, s.newPayment(run, cfg, p))
			}
			if p.RecipientType == RecipientFarmer && p.Deduction.IsPositive() {
				repayments = append(repayments, credit.Repayment{
					Date:         run.Date,
					FarmerID:     p.RecipientID,
					Amount:       p.Deduction,
					Method:       credit.MethodHarvestDeduction,
					PaymentRunID: run.ID,
					Notes:        fmt.Sprintf("Deduction from payment run: %s", cfg.PeriodName),
				})
			}
			cycleIDs = append(cycleIDs, p.CycleIDs...)
			delivIDs = append(delivIDs, p.DeliveryIDs...)
			opIDs = append(opIDs, p.OperationIDs...)
		}

		for _, p := range payments {
			if err := p.Validate(ctx); err != nil {
				return err
			}
		}
		if err := s.repo.Insert(ctx, payments...); err != nil {
			return err
		}
		run.Payments = payments
		if run.Repayments, err = s.credits.AddRepayments(ctx, repayments); err != nil {
			return err
		}

		if run.CyclesMarked, err = s.cycles.MarkPaid(ctx, cycleIDs, run.ID); err != nil {
			return err
		}
		if run.DeliveriesMarked, err = s.deliveries.MarkPaid(ctx, delivIDs, run.ID); err != nil {
			return err
		}
		run.OperationsMarked, err = s.cuttings.MarkPaid(ctx, opIDs, run.Date)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment run committed",
		"run_id", run.ID,
		"period", run.Period,
		"class", string(cfg.PayeeClass),
		"payments", len(run.Payments),
		"repayments", len(run.Repayments),
		"cycles", run.CyclesMarked,
		"deliveries", run.DeliveriesMarked,
		"operations", run.OperationsMarked)
	return run, nil
}

func (s *Service) newPayment(run *Run, cfg RunConfig, p *Payee) *MonthlyPayment {
	status := StatusPending
	if cfg.Method != MethodMobileMoney {
		status = StatusCompleted
	}
	return &MonthlyPayment{
		ID:            s.deps.NewID(),
		Date:          run.Date,
		Period:        cfg.PeriodName,
		RecipientType: p.RecipientType,
		RecipientID:   p.RecipientID,
		Amount:        p.NetAmount,
		Method:        cfg.Method,
		Notes:         fmt.Sprintf("Payment for period: %s to %s", cfg.StartDate, cfg.EndDate),
		PaymentRunID:  run.ID,
		Status:        status,
		CreatedAt:     s.deps.Now(),
	}
}

// Disburse pays a pending or failed mobile money payment through the
// disburser. The provider is called outside any transaction; the payment
// is PROCESSING meanwhile. A declined or failed payout leaves the payment
// FAILED and returns a DISBURSEMENT_FAILED error alongside it.
func (s *Service) Disburse(ctx context.Context, paymentID string) (*MonthlyPayment, error) {
	var req DisbursementRequest
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, paymentID)
		if err != nil {
			return err
		}
		if p.Method != MethodMobileMoney {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "only mobile money payments are disbursed").
				WithDetail("method", string(p.Method))
		}
		if p.Status != StatusPending && p.Status != StatusFailed {
			return apperror.NewInvalidTransition("payment", p.Status, StatusProcessing)
		}
		if req, err = s.request(ctx, p); err != nil {
			return err
		}
		p.Status = StatusProcessing
		p.FailureReason = ""
		return s.repo.Put(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	var result DisbursementResult
	if s.disburser == nil {
		result.FailureReason = "mobile money is not configured"
	} else if result, err = s.disburser.Initiate(ctx, req); err != nil {
		result = DisbursementResult{FailureReason: err.Error()}
	}
	if !result.Success && result.FailureReason == "" {
		result.FailureReason = "declined by provider"
	}

	var out *MonthlyPayment
	err = s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, paymentID)
		if err != nil {
			return err
		}
		if result.Success {
			p.Status = StatusCompleted
			p.TransactionID = result.TransactionID
		} else {
			p.Status = StatusFailed
			p.FailureReason = result.FailureReason
		}
		out = p
		return s.repo.Put(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	if !result.Success {
		logger.Warn(ctx, "disbursement failed", "payment_id", paymentID, "reason", result.FailureReason)
		return out, apperror.NewDisbursementFailed(paymentID, result.FailureReason)
	}
	logger.Info(ctx, "payment disbursed", "payment_id", paymentID, "transaction_id", result.TransactionID)
	return out, nil
}

// request resolves the recipient's mobile money number.
func (s *Service) request(ctx context.Context, p *MonthlyPayment) (DisbursementRequest, error) {
	req := DisbursementRequest{
		PaymentID: p.ID,
		Reference: p.PaymentRunID,
		Amount:    p.Amount,
	}
	switch p.RecipientType {
	case RecipientFarmer:
		f, err := s.farmers.Get(ctx, p.RecipientID)
		if err != nil {
			return req, err
		}
		req.RecipientName, req.PhoneNumber = f.FullName(), firstNonEmpty(f.MobileMoneyNumber, f.Phone)
	case RecipientEmployee:
		e, err := s.employees.Get(ctx, p.RecipientID)
		if err != nil {
			return req, err
		}
		req.RecipientName, req.PhoneNumber = e.FullName(), firstNonEmpty(e.MobileMoneyNumber, e.Phone)
	case RecipientServiceProvider:
		sp, err := s.providers.Get(ctx, p.RecipientID)
		if err != nil {
			return req, err
		}
		req.RecipientName, req.PhoneNumber = sp.Name, firstNonEmpty(sp.MobileMoneyNumber, sp.Phone)
	}
	if req.PhoneNumber == "" {
		return req, apperror.NewBusinessRule(apperror.CodeBusinessRule, "recipient has no mobile money number").
			WithDetail("recipient_id", p.RecipientID)
	}
	return req, nil
}

// UpdatePayment changes the notes and status of a payment. Amount,
// recipient and run are fixed at commit.
func (s *Service) UpdatePayment(ctx context.Context, in MonthlyPayment) (*MonthlyPayment, error) {
	var out *MonthlyPayment
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, in.ID)
		if err != nil {
			return err
		}
		if in.Status != "" && in.Status != p.Status {
			if !p.Status.CanTransition(in.Status) {
				return apperror.NewInvalidTransition("payment", p.Status, in.Status)
			}
			p.Status = in.Status
			if in.TransactionID != "" {
				p.TransactionID = in.TransactionID
			}
			p.FailureReason = in.FailureReason
		}
		p.Notes = in.Notes
		out = p
		return s.repo.Put(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "payment updated", "payment_id", out.ID, "status", string(out.Status))
	return out, nil
}

// DeletePayment removes a payment. A payment being disbursed cannot be
// deleted. Production records stay marked as paid.
func (s *Service) DeletePayment(ctx context.Context, id string) error {
	err := s.deps.Tx.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Status == StatusProcessing {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "payment is being disbursed").
				WithDetail("payment_id", id)
		}
		_, err = s.repo.Delete(ctx, id)
		return err
	})
	if err != nil {
		return err
	}
	logger.Info(ctx, "payment deleted", "payment_id", id)
	return nil
}

// GetPayment returns a payment.
func (s *Service) GetPayment(ctx context.Context, id string) (*MonthlyPayment, error) {
	var out *MonthlyPayment
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Get(ctx, id)
		return err
	})
	return out, err
}

// ListPayments returns payments matching the filter in insertion order.
func (s *Service) ListPayments(ctx context.Context, f ListFilter) ([]*MonthlyPayment, error) {
	var out []*MonthlyPayment
	err := s.deps.Tx.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.repo.Find(ctx, f.Match)
		return err
	})
	return out, err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
