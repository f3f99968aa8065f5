package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	partnerdomain "github.com/smallbiznis/debtbook/internal/partner/domain"
	"github.com/smallbiznis/debtbook/pkg/db/pagination"
)

type createPartnerRequest struct {
	Name           string `json:"name"`
	IsCustomer     bool   `json:"is_customer"`
	IsSupplier     bool   `json:"is_supplier"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
	OpeningBalance int64  `json:"opening_balance"`
}

func (s *Server) CreatePartner(c *gin.Context) {
	var req createPartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.partnerSvc.Create(c.Request.Context(), partnerdomain.CreatePartnerRequest{
		Name:           strings.TrimSpace(req.Name),
		IsCustomer:     req.IsCustomer,
		IsSupplier:     req.IsSupplier,
		Phone:          strings.TrimSpace(req.Phone),
		Address:        strings.TrimSpace(req.Address),
		OpeningBalance: req.OpeningBalance,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPartners(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Name       string `form:"name"`
		IsCustomer string `form:"is_customer"`
		IsSupplier string `form:"is_supplier"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isCustomer, err := parseOptionalBool(query.IsCustomer)
	if err != nil {
		AbortWithError(c, newValidationError("is_customer", "invalid_is_customer", "invalid is_customer"))
		return
	}

	isSupplier, err := parseOptionalBool(query.IsSupplier)
	if err != nil {
		AbortWithError(c, newValidationError("is_supplier", "invalid_is_supplier", "invalid is_supplier"))
		return
	}

	resp, err := s.partnerSvc.List(c.Request.Context(), partnerdomain.ListPartnerRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		Name:       strings.TrimSpace(query.Name),
		IsCustomer: isCustomer,
		IsSupplier: isSupplier,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPartnerByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.partnerSvc.GetByID(c.Request.Context(), partnerdomain.GetPartnerRequest{ID: id})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
