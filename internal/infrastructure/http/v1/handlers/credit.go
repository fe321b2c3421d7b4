package handlers

import (
	"github.com/gin-gonic/gin"

	"sealedger/internal/domain/credit"
	"sealedger/internal/infrastructure/http/v1/dto"
)

// CreditHandler handles farmer credit and repayment requests.
type CreditHandler struct {
	*BaseHandler
	service *credit.Service
}

// NewCreditHandler creates a new credit handler.
func NewCreditHandler(base *BaseHandler, service *credit.Service) *CreditHandler {
	return &CreditHandler{BaseHandler: base, service: service}
}

// Register mounts the credit routes on g.
func (h *CreditHandler) Register(g *gin.RouterGroup) {
	g.GET("/credits", h.ListCredits)
	g.POST("/credits", h.AddCredits)
	g.DELETE("/credits/:id", h.DeleteCredit)
	g.GET("/repayments", h.ListRepayments)
	g.POST("/repayments", h.AddRepayments)
	g.DELETE("/repayments/:id", h.DeleteRepayment)
	g.GET("/balances", h.Balances)
	g.GET("/balances/:farmerId", h.Balance)
}

func (h *CreditHandler) filter(c *gin.Context) credit.Filter {
	return credit.Filter{
		FarmerID:           c.Query("farmerId"),
		RelatedOperationID: c.Query("operationId"),
		PaymentRunID:       c.Query("paymentRunId"),
	}
}

// ListCredits handles GET /credits.
func (h *CreditHandler) ListCredits(c *gin.Context) {
	items, err := h.service.Credits(c.Request.Context(), h.filter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// AddCredits handles POST /credits. The body is an array; all credits are
// recorded together or none.
func (h *CreditHandler) AddCredits(c *gin.Context) {
	var in []credit.Credit
	if !h.BindJSON(c, &in) {
		return
	}
	added, err := h.service.AddCredits(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewListResponse(added))
}

// DeleteCredit handles DELETE /credits/:id.
func (h *CreditHandler) DeleteCredit(c *gin.Context) {
	if err := h.service.DeleteCredit(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListRepayments handles GET /repayments.
func (h *CreditHandler) ListRepayments(c *gin.Context) {
	items, err := h.service.Repayments(c.Request.Context(), h.filter(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// AddRepayments handles POST /repayments with an array body.
func (h *CreditHandler) AddRepayments(c *gin.Context) {
	var in []credit.Repayment
	if !h.BindJSON(c, &in) {
		return
	}
	added, err := h.service.AddRepayments(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.NewListResponse(added))
}

// DeleteRepayment handles DELETE /repayments/:id.
func (h *CreditHandler) DeleteRepayment(c *gin.Context) {
	if err := h.service.DeleteRepayment(c.Request.Context(), c.Param("id")); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Balances handles GET /balances.
func (h *CreditHandler) Balances(c *gin.Context) {
	items, err := h.service.Balances(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(items))
}

// Balance handles GET /balances/:farmerId.
func (h *CreditHandler) Balance(c *gin.Context) {
	b, err := h.service.Balance(c.Request.Context(), c.Param("farmerId"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, b)
}
