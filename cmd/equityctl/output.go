package main

import (
	"github.com/google/uuid"
	"github.com/lending/equity/internal/domain/equity"
	"github.com/shopspring/decimal"
)

// rejection is the JSON shape of a rejected mutation
type rejection struct {
	Error rejectionBody `json:"error"`
}

type rejectionBody struct {
	Code              string              `json:"code"`
	Kind              equity.ErrorKind    `json:"kind"`
	Message           string              `json:"message"`
	Fields            map[string][]string `json:"fields,omitempty"`
	RemainingCapacity *decimal.Decimal    `json:"remainingCapacity,omitempty"`
	ShareholderID     *uuid.UUID          `json:"shareholderId,omitempty"`
}

func newRejection(err *equity.MutationError) rejection {
	return rejection{Error: rejectionBody{
		Code:              err.Code(),
		Kind:              err.Kind,
		Message:           err.Error(),
		Fields:            err.Fields,
		RemainingCapacity: err.RemainingCapacity,
		ShareholderID:     err.ShareholderID,
	}}
}
