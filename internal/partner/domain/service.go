package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/debtbook/pkg/db/pagination"
)

type CreatePartnerRequest struct {
	Name       string
	IsCustomer bool
	IsSupplier bool
	Phone      string
	Address    string
	// OpeningBalance, when non-zero, is recorded as an opening-debt
	// posting so the ledger history reproduces the snapshot from day one.
	OpeningBalance int64
}

type ListPartnerRequest struct {
	PageToken  string
	PageSize   int32
	Name       string
	IsCustomer *bool
	IsSupplier *bool
}

type ListPartnerResponse struct {
	pagination.PageInfo
	Partners []Partner `json:"partners"`
}

type GetPartnerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreatePartnerRequest) (Partner, error)
	List(context.Context, ListPartnerRequest) (ListPartnerResponse, error)
	GetByID(context.Context, GetPartnerRequest) (Partner, error)
}

var (
	ErrInvalidName = errors.New("invalid_name")
	ErrInvalidRole = errors.New("invalid_role")
	ErrInvalidID   = errors.New("invalid_id")
	ErrNotFound    = errors.New("not_found")
)
