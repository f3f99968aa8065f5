package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	ledgerdomain "github.com/smallbiznis/debtbook/internal/ledger/domain"
)

func (s *Server) GetStatement(c *gin.Context) {
	var query struct {
		From           string `form:"from"`
		To             string `form:"to"`
		Year           string `form:"year"`
		Month          string `form:"month"`
		Day            string `form:"day"`
		Quarter        string `form:"quarter"`
		PaymentMethod  string `form:"payment_method"`
		Category       string `form:"category"`
		ExcludeSettled string `form:"exclude_settled"`
		Order          string `form:"order"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	filter, err := s.buildStatementFilter(
		query.From, query.To,
		query.Year, query.Month, query.Day, query.Quarter,
		query.PaymentMethod, query.Category, query.ExcludeSettled,
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sort := ledgerdomain.SortAscending
	switch strings.ToLower(strings.TrimSpace(query.Order)) {
	case "", "asc":
	case "desc":
		sort = ledgerdomain.SortDescending
	default:
		AbortWithError(c, newValidationError("order", "invalid_order", "invalid order"))
		return
	}

	resp, err := s.ledgerSvc.GetStatement(c.Request.Context(), ledgerdomain.GetStatementRequest{
		PartnerID: strings.TrimSpace(c.Param("id")),
		Filter:    filter,
		Sort:      sort,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDebtCycles(c *gin.Context) {
	resp, err := s.ledgerSvc.GetCycles(c.Request.Context(), ledgerdomain.GetCyclesRequest{
		PartnerID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) buildStatementFilter(from, to, year, month, day, quarter, paymentMethod, category, excludeSettled string) (ledgerdomain.StatementFilter, error) {
	var filter ledgerdomain.StatementFilter

	fromTime, err := parseOptionalTime(from, false)
	if err != nil {
		return filter, newValidationError("from", "invalid_from", "invalid from")
	}
	if fromTime != nil {
		filter.From = *fromTime
	}

	toTime, err := parseOptionalTime(to, true)
	if err != nil {
		return filter, newValidationError("to", "invalid_to", "invalid to")
	}
	if toTime != nil {
		filter.To = *toTime
	}

	yearVal, err := parseOptionalInt(year)
	if err != nil {
		return filter, newValidationError("year", "invalid_year", "invalid year")
	}
	filter.Calendar.Year = yearVal

	monthVal, err := parseOptionalInt(month)
	if err != nil {
		return filter, newValidationError("month", "invalid_month", "invalid month")
	}
	filter.Calendar.Month = time.Month(monthVal)

	dayVal, err := parseOptionalInt(day)
	if err != nil {
		return filter, newValidationError("day", "invalid_day", "invalid day")
	}
	filter.Calendar.Day = dayVal

	quarterVal, err := parseOptionalInt(quarter)
	if err != nil {
		return filter, newValidationError("quarter", "invalid_quarter", "invalid quarter")
	}
	filter.Calendar.Quarter = quarterVal

	switch strings.ToLower(strings.TrimSpace(paymentMethod)) {
	case "":
		filter.PaymentMethod = ledgerdomain.PaymentMethodAll
	case "cash":
		filter.PaymentMethod = ledgerdomain.PaymentMethodCash
	case "debt":
		filter.PaymentMethod = ledgerdomain.PaymentMethodDebt
	default:
		return filter, newValidationError("payment_method", "invalid_payment_method", "invalid payment_method")
	}

	switch strings.ToLower(strings.TrimSpace(category)) {
	case "":
		filter.Category = ledgerdomain.CategoryAll
	case "order":
		filter.Category = ledgerdomain.CategoryOrder
	case "voucher":
		filter.Category = ledgerdomain.CategoryVoucher
	default:
		return filter, newValidationError("category", "invalid_category", "invalid category")
	}

	exclude, err := parseOptionalBool(excludeSettled)
	if err != nil {
		return filter, newValidationError("exclude_settled", "invalid_exclude_settled", "invalid exclude_settled")
	}
	if exclude != nil {
		filter.ExcludeSettled = *exclude
	}

	return filter, nil
}
