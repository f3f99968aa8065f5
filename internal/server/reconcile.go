package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	reconciledomain "github.com/smallbiznis/debtbook/internal/reconcile/domain"
)

func (s *Server) RecalculateDebt(c *gin.Context) {
	resp, err := s.reconcileSvc.Recalculate(c.Request.Context(), reconciledomain.RecalculateRequest{
		PartnerID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FixOpeningBalance(c *gin.Context) {
	resp, err := s.reconcileSvc.CheckAndFixOpeningBalance(c.Request.Context(), reconciledomain.FixOpeningBalanceRequest{
		PartnerID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
