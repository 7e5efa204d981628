package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentMethodCard       PaymentMethod = "CARD"
	PaymentMethodUPI        PaymentMethod = "UPI"
	PaymentMethodNetbanking PaymentMethod = "NETBANKING"
	PaymentMethodCash       PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodNetbanking, PaymentMethodCash:
		return true
	}
	return false
}

// Payment is the 1:1 payment record for an order. ProviderPaymentID stays
// empty until the provider confirms the payment via webhook.
type Payment struct {
	ID                int64           `json:"id"`
	OrderID           int64           `json:"order_id"`
	Method            PaymentMethod   `json:"payment_method"`
	Amount            decimal.Decimal `json:"amount"`
	ProviderOrderID   string          `json:"provider_order_id"`
	ProviderPaymentID string          `json:"provider_payment_id,omitempty"`
	Status            PaymentStatus   `json:"status"`
	PaymentDate       time.Time       `json:"payment_date"`
}
