package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MonthsPerYear is the compounding period count used when none is given.
	MonthsPerYear = 12

	MaxCompoundingPeriods = 365 // daily
)

var hundred = decimal.NewFromInt(100)

// PaymentDetails records how the last accepted payment was split.
type PaymentDetails struct {
	Payment            decimal.Decimal `json:"payment"`
	InterestPaid       decimal.Decimal `json:"interest_paid"`
	PrincipalReduction decimal.Decimal `json:"principal_reduction"`
}

// StudentLoan is a single loan whose principal is reduced one payment at
// a time. It is not safe for concurrent use.
type StudentLoan struct {
	principal          decimal.Decimal
	apr                decimal.Decimal
	minimumPayment     decimal.Decimal
	compoundingPeriods int
	lastPayment        PaymentDetails
}

// Option configures optional loan terms.
type Option func(*StudentLoan)

// WithMinimumPayment sets the lender-imposed payment floor. Zero disables it.
func WithMinimumPayment(minimum decimal.Decimal) Option {
	return func(l *StudentLoan) {
		l.minimumPayment = minimum
	}
}

// WithCompoundingPeriods sets how many times per year interest compounds.
func WithCompoundingPeriods(periods int) Option {
	return func(l *StudentLoan) {
		l.compoundingPeriods = periods
	}
}

// NewStudentLoan creates a loan. apr is a percentage: 12 means 12%.
// Without options interest compounds monthly and no minimum is enforced.
func NewStudentLoan(principal, apr decimal.Decimal, opts ...Option) (*StudentLoan, error) {
	l := &StudentLoan{
		principal:          principal,
		apr:                apr,
		minimumPayment:     decimal.Zero,
		compoundingPeriods: MonthsPerYear,
	}
	for _, opt := range opts {
		opt(l)
	}

	if err := l.validate(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *StudentLoan) validate() error {
	if l.principal.IsNegative() {
		return fmt.Errorf("%w: negative principal %s", ErrInvalidLoan, l.principal)
	}
	if l.apr.IsNegative() {
		return fmt.Errorf("%w: negative apr %s", ErrInvalidLoan, l.apr)
	}
	if l.minimumPayment.IsNegative() {
		return fmt.Errorf("%w: negative minimum payment %s", ErrInvalidLoan, l.minimumPayment)
	}
	if l.compoundingPeriods <= 0 {
		return fmt.Errorf("%w: compounding periods must be positive, got %d", ErrInvalidLoan, l.compoundingPeriods)
	}
	return nil
}

func (l *StudentLoan) Principal() decimal.Decimal      { return l.principal }
func (l *StudentLoan) APR() decimal.Decimal            { return l.apr }
func (l *StudentLoan) MinimumPayment() decimal.Decimal { return l.minimumPayment }
func (l *StudentLoan) CompoundingPeriods() int         { return l.compoundingPeriods }
func (l *StudentLoan) LastPayment() PaymentDetails     { return l.lastPayment }

// CalculatePeriodInterest returns the interest accrued over one
// compounding period on the current principal.
func (l *StudentLoan) CalculatePeriodInterest() decimal.Decimal {
	divisor := hundred.Mul(decimal.NewFromInt(int64(l.compoundingPeriods)))
	return l.principal.Mul(l.apr).Div(divisor)
}

// PayoffAmount is the payment that brings the principal to zero this period.
func (l *StudentLoan) PayoffAmount() decimal.Decimal {
	return l.principal.Add(l.CalculatePeriodInterest())
}

func (l *StudentLoan) PaidOff() bool {
	return l.principal.IsZero()
}

// ApplyPayment pays this period's interest first and the remainder off the
// principal. On error the loan is left untouched.
func (l *StudentLoan) ApplyPayment(payment decimal.Decimal) (PaymentDetails, error) {
	if payment.IsNegative() {
		return PaymentDetails{}, fmt.Errorf("%w: negative payment %s", ErrInvalidPayment, payment)
	}

	interest := l.CalculatePeriodInterest()
	payoff := l.principal.Add(interest)

	if payment.GreaterThan(payoff) {
		return PaymentDetails{}, fmt.Errorf("%w: payment %s exceeds payoff %s", ErrOverpayment, payment, payoff)
	}
	// a payoff below the minimum is always accepted
	if payment.LessThan(l.minimumPayment) && l.minimumPayment.LessThan(payoff) {
		return PaymentDetails{}, fmt.Errorf("%w: payment %s is below minimum %s", ErrUnderpayment, payment, l.minimumPayment)
	}

	details := PaymentDetails{
		Payment:            payment,
		InterestPaid:       interest,
		PrincipalReduction: payment.Sub(interest),
	}
	l.lastPayment = details
	l.principal = l.principal.Sub(details.PrincipalReduction)

	return details, nil
}

// Snapshot captures the loan state for storage.
type Snapshot struct {
	Principal          decimal.Decimal `json:"principal"`
	APR                decimal.Decimal `json:"apr"`
	MinimumPayment     decimal.Decimal `json:"minimum_payment"`
	CompoundingPeriods int             `json:"compounding_periods"`
	LastPayment        PaymentDetails  `json:"last_payment"`
}

func (l *StudentLoan) Snapshot() Snapshot {
	return Snapshot{
		Principal:          l.principal,
		APR:                l.apr,
		MinimumPayment:     l.minimumPayment,
		CompoundingPeriods: l.compoundingPeriods,
		LastPayment:        l.lastPayment,
	}
}

// RestoreStudentLoan rebuilds a loan from a snapshot, applying the same
// validation as NewStudentLoan.
func RestoreStudentLoan(s Snapshot) (*StudentLoan, error) {
	l, err := NewStudentLoan(
		s.Principal,
		s.APR,
		WithMinimumPayment(s.MinimumPayment),
		WithCompoundingPeriods(s.CompoundingPeriods),
	)
	if err != nil {
		return nil, err
	}
	l.lastPayment = s.LastPayment
	return l, nil
}
