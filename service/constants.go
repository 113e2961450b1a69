package service

import "student-loan/domain"

const (
	MaxPrincipal          = 1_000_000_000 // 1 billion
	MaxInterestRate       = 100           // 100% APR
	MaxMinimumPayment     = MaxPrincipal
	MaxPayment            = 2 * MaxPrincipal
	MaxCompoundingPeriods = domain.MaxCompoundingPeriods
	MaxNameLength         = 128

	// Amounts are bounded by shape before any comparison: comparing
	// decimals rescales them, which costs time proportional to the exponent.
	MaxAmountDigits  = 34
	MaxAmountScale   = 18 // digits after the decimal point
	MaxIntegerDigits = 19
)
