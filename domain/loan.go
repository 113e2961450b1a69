package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OpenLoanInput struct {
	LenderName         string          `json:"lender_name"`
	AccountNumber      string          `json:"account_number"`
	Principal          decimal.Decimal `json:"principal"`
	APR                decimal.Decimal `json:"apr"`
	MinimumPayment     decimal.Decimal `json:"minimum_payment"`
	CompoundingPeriods int             `json:"compounding_periods"`
}

type PaymentInput struct {
	Payment decimal.Decimal `json:"payment"`
}

// LoanRecord is what the repository stores for an open loan.
type LoanRecord struct {
	ID            string    `json:"id"`
	LenderName    string    `json:"lender_name"`
	AccountNumber string    `json:"account_number"`
	OpenedAt      time.Time `json:"opened_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	PaymentsMade  int       `json:"payments_made"`
	Loan          Snapshot  `json:"loan"`
}

type LoanView struct {
	ID                 string          `json:"id"`
	LenderName         string          `json:"lender_name,omitempty"`
	AccountNumber      string          `json:"account_number,omitempty"`
	Principal          decimal.Decimal `json:"principal"`
	APR                decimal.Decimal `json:"apr"`
	MinimumPayment     decimal.Decimal `json:"minimum_payment"`
	CompoundingPeriods int             `json:"compounding_periods"`
	PayoffAmount       decimal.Decimal `json:"payoff_amount"`
	PaidOff            bool            `json:"paid_off"`
	PaymentsMade       int             `json:"payments_made"`
	LastPayment        PaymentDetails  `json:"last_payment"`
	OpenedAt           time.Time       `json:"opened_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type InterestQuote struct {
	LoanID         string          `json:"loan_id"`
	Principal      decimal.Decimal `json:"principal"`
	PeriodInterest decimal.Decimal `json:"period_interest"`
	PayoffAmount   decimal.Decimal `json:"payoff_amount"`
}

type PaymentResult struct {
	LoanID       string          `json:"loan_id"`
	Details      PaymentDetails  `json:"details"`
	Principal    decimal.Decimal `json:"principal"`
	PaidOff      bool            `json:"paid_off"`
	PaymentsMade int             `json:"payments_made"`
}
