package v1

import (
	"net/http"

	"github.com/flexprice/taxledger/internal/api/dto"
	"github.com/flexprice/taxledger/internal/domain/taxation"
	ierr "github.com/flexprice/taxledger/internal/errors"
	"github.com/flexprice/taxledger/internal/logger"
	"github.com/flexprice/taxledger/internal/service"
	"github.com/flexprice/taxledger/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type TaxHandler struct {
	service service.TaxationService
	logger  *logger.Logger
}

func NewTaxHandler(service service.TaxationService, logger *logger.Logger) *TaxHandler {
	return &TaxHandler{
		service: service,
		logger:  logger,
	}
}

// ComputeTax computes the tax items of one invoice
// POST /v1/tax/compute
func (h *TaxHandler) ComputeTax(c *gin.Context) {
	var req dto.ComputeTaxRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	result, err := h.service.Compute(ctx, req.ToComputeParams(types.GetTenantID(ctx)))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewComputeTaxResponse(result, req.DryRun))
}

// ComputeTaxBatch computes several invoices at once
// POST /v1/tax/compute/batch
func (h *TaxHandler) ComputeTaxBatch(c *gin.Context) {
	var req dto.ComputeTaxBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	ctx := c.Request.Context()
	tenantID := types.GetTenantID(ctx)
	params := lo.Map(req.Items, func(item *dto.ComputeTaxRequest, _ int) *service.ComputeParams {
		return item.ToComputeParams(tenantID)
	})

	results := h.service.ComputeBatch(ctx, params)
	resp := &dto.ComputeTaxBatchResponse{Items: make([]*dto.ComputeTaxResponse, len(results))}
	for i, result := range results {
		resp.Items[i] = dto.NewComputeTaxResponse(result, req.Items[i].DryRun)
	}
	c.JSON(http.StatusOK, resp)
}

// ListTaxations returns the ledger entries of an invoice
// GET /v1/tax/taxations?account_id=&invoice_id=
func (h *TaxHandler) ListTaxations(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := h.service.ListTaxations(ctx, types.GetTenantID(ctx), c.Query("account_id"), c.Query("invoice_id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, &dto.ListTaxationsResponse{
		Items: lo.Map(entries, func(t *taxation.Taxation, _ int) *dto.TaxationResponse {
			return dto.NewTaxationResponse(t)
		}),
	})
}
