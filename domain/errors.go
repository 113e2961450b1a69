package domain

import "errors"

var (
	// ErrOverpayment is returned when a payment exceeds principal plus
	// the current period's interest.
	ErrOverpayment = errors.New("over payment")

	// ErrUnderpayment is returned when a payment is below the minimum
	// while the minimum is still below the payoff amount.
	ErrUnderpayment = errors.New("must pay minimum")

	ErrInvalidPayment = errors.New("invalid payment")
	ErrInvalidLoan    = errors.New("invalid loan")
)
