package handlers

import (
	"github.com/gin-gonic/gin"

	"sealedger/internal/core/apperror"
	"sealedger/internal/domain/payments"
	"sealedger/internal/infrastructure/http/v1/dto"
)

// PaymentHandler handles payment run and payment requests.
type PaymentHandler struct {
	*BaseHandler
	service *payments.Service
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(base *BaseHandler, service *payments.Service) *PaymentHandler {
	return &PaymentHandler{BaseHandler: base, service: service}
}

// Register mounts the payment routes on g.
func (h *PaymentHandler) Register(g *gin.RouterGroup) {
	g.POST("/runs/preview", h.Preview)
	g.POST("/runs", h.Commit)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/disburse", h.Disburse)
}

// Preview handles POST /payments/runs/preview. Nothing is written.
func (h *PaymentHandler) Preview(c *gin.Context) {
	var cfg payments.RunConfig
	if !h.BindJSON(c, &cfg) {
		return
	}
	p, err := h.service.Preview(c.Request.Context(), cfg)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Commit handles POST /payments/runs.
func (h *PaymentHandler) Commit(c *gin.Context) {
	var cfg payments.RunConfig
	if !h.BindJSON(c, &cfg) {
		return
	}
	run, err := h.service.Commit(c.Request.Context(), cfg)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, run)
}

// List handles GET /payments.
func (h *PaymentHandler) List(c *gin.Context) {
	items, err := h.service.ListPayments(c.Request.Context(), payments.ListFilter{
		Period:        c.Query("period"),
		PaymentRunID:  c.Query("paymentRunId"),
		RecipientType: payments.RecipientType(c.Query("recipientType")),
		RecipientID:   c.Query("recipientId"),
		Status:        payments.Status(c.Query("status")),
		Method:        payments.Method(c.Query("method")),
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Get handles GET /payments/:id.
func (h *PaymentHandler) Get(c *gin.Context) {
	p, err := h.service.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Update handles PUT /payments/:id.
func (h *PaymentHandler) Update(c *gin.Context) {
	var in payments.MonthlyPayment
	if !h.BindJSON(c, &in) {
		return
	}
	in.ID = c.Param("id")
	p, err := h.service.UpdatePayment(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// Delete handles DELETE /payments/:id.
func (h *PaymentHandler) Delete(c *gin.Context) {
	if err := h.service.DeletePayment(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Disburse handles POST /payments/:id/disburse. A failed payout answers
// with the error and the FAILED payment in its details.
func (h *PaymentHandler) Disburse(c *gin.Context) {
	p, err := h.service.Disburse(c.Request.Context(), c.Param("id"))
	if err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && p != nil {
			err = appErr.WithDetail("payment", p)
		}
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}
