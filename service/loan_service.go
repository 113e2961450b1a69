package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"student-loan/domain"
	"student-loan/repository"
)

// ErrValidation marks input rejected before it reaches the loan.
var ErrValidation = errors.New("invalid input")

var (
	maxPrincipal      = decimal.NewFromInt(MaxPrincipal)
	maxInterestRate   = decimal.NewFromInt(MaxInterestRate)
	maxMinimumPayment = decimal.NewFromInt(MaxMinimumPayment)
	maxPayment        = decimal.NewFromInt(MaxPayment)
)

// maxCoefficientBits bounds MaxAmountDigits decimal digits.
const maxCoefficientBits = 113

type LoanService struct {
	repo           repository.LoanRepository
	logger         *zap.Logger
	defaultPeriods int

	now   func() time.Time
	newID func() string
}

// NewLoanService creates a LoanService. defaultPeriods is used when a new
// loan does not name its compounding period count.
func NewLoanService(
	repo repository.LoanRepository,
	logger *zap.Logger,
	defaultPeriods int,
) *LoanService {
	if defaultPeriods <= 0 || defaultPeriods > MaxCompoundingPeriods {
		defaultPeriods = domain.MonthsPerYear
	}
	return &LoanService{
		repo:           repo,
		logger:         logger,
		defaultPeriods: defaultPeriods,
		now:            time.Now,
		newID:          uuid.NewString,
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// checkAmount rejects values whose shape makes arithmetic expensive, then
// values above max. Only the exponent and coefficient size are inspected
// before the comparison.
func checkAmount(name string, v, max decimal.Decimal) error {
	coefficient := v.Coefficient()
	if coefficient.BitLen() > maxCoefficientBits {
		return validationError("%s has more than %d digits", name, MaxAmountDigits)
	}

	exp := int(v.Exponent())
	digits := v.NumDigits()
	switch {
	case digits > MaxAmountDigits:
		return validationError("%s has more than %d digits", name, MaxAmountDigits)
	case exp < -MaxAmountScale:
		return validationError("%s has more than %d decimal places", name, MaxAmountScale)
	case digits+exp > MaxIntegerDigits:
		return validationError("%s is out of range", name)
	}

	if v.GreaterThan(max) {
		return validationError("%s exceeds the maximum of %s", name, max)
	}
	return nil
}

func (s *LoanService) validateOpen(input domain.OpenLoanInput) error {
	if err := checkAmount("principal", input.Principal, maxPrincipal); err != nil {
		return err
	}
	if err := checkAmount("apr", input.APR, maxInterestRate); err != nil {
		return err
	}
	if err := checkAmount("minimum payment", input.MinimumPayment, maxMinimumPayment); err != nil {
		return err
	}
	if input.CompoundingPeriods < 0 || input.CompoundingPeriods > MaxCompoundingPeriods {
		return validationError("compounding periods must be between 1 and %d", MaxCompoundingPeriods)
	}
	if len(input.LenderName) > MaxNameLength || len(input.AccountNumber) > MaxNameLength {
		return validationError("lender name and account number are limited to %d characters", MaxNameLength)
	}
	return nil
}

// OpenLoan validates the terms, creates the loan and stores it.
func (s *LoanService) OpenLoan(
	ctx context.Context,
	input domain.OpenLoanInput,
) (domain.LoanView, error) {

	if err := s.validateOpen(input); err != nil {
		return domain.LoanView{}, err
	}

	periods := input.CompoundingPeriods
	if periods == 0 {
		periods = s.defaultPeriods
	}

	loan, err := domain.NewStudentLoan(
		input.Principal,
		input.APR,
		domain.WithMinimumPayment(input.MinimumPayment),
		domain.WithCompoundingPeriods(periods),
	)
	if err != nil {
		return domain.LoanView{}, err
	}

	now := s.now().UTC()
	record := domain.LoanRecord{
		ID:            s.newID(),
		LenderName:    input.LenderName,
		AccountNumber: input.AccountNumber,
		OpenedAt:      now,
		UpdatedAt:     now,
		Loan:          loan.Snapshot(),
	}

	if err := s.repo.Save(ctx, record); err != nil {
		return domain.LoanView{}, fmt.Errorf("save loan: %w", err)
	}

	s.logger.Info("loan opened",
		zap.String("loan_id", record.ID),
		zap.Stringer("principal", loan.Principal()),
		zap.Stringer("apr", loan.APR()),
		zap.Int("compounding_periods", periods),
	)

	return toView(record, loan), nil
}

func (s *LoanService) load(ctx context.Context, id string) (domain.LoanRecord, *domain.StudentLoan, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.LoanRecord{}, nil, err
	}
	loan, err := domain.RestoreStudentLoan(record.Loan)
	if err != nil {
		return domain.LoanRecord{}, nil, fmt.Errorf("restore loan %s: %w", id, err)
	}
	return record, loan, nil
}

func (s *LoanService) GetLoan(ctx context.Context, id string) (domain.LoanView, error) {
	record, loan, err := s.load(ctx, id)
	if err != nil {
		return domain.LoanView{}, err
	}
	return toView(record, loan), nil
}

// QuoteInterest reports the interest the loan accrues this period and the
// amount that would pay it off.
func (s *LoanService) QuoteInterest(ctx context.Context, id string) (domain.InterestQuote, error) {
	_, loan, err := s.load(ctx, id)
	if err != nil {
		return domain.InterestQuote{}, err
	}
	return domain.InterestQuote{
		LoanID:         id,
		Principal:      loan.Principal(),
		PeriodInterest: loan.CalculatePeriodInterest(),
		PayoffAmount:   loan.PayoffAmount(),
	}, nil
}

// ApplyPayment applies one period's payment. A rejected payment leaves the
// stored loan unchanged.
func (s *LoanService) ApplyPayment(
	ctx context.Context,
	id string,
	input domain.PaymentInput,
) (domain.PaymentResult, error) {

	if err := checkAmount("payment", input.Payment, maxPayment); err != nil {
		return domain.PaymentResult{}, err
	}

	var result domain.PaymentResult
	// the repository reruns this on a concurrent write to the same loan
	err := s.repo.Update(ctx, id, func(record *domain.LoanRecord) error {
		loan, err := domain.RestoreStudentLoan(record.Loan)
		if err != nil {
			return fmt.Errorf("restore loan %s: %w", id, err)
		}

		details, err := loan.ApplyPayment(input.Payment)
		if err != nil {
			return err
		}

		record.Loan = loan.Snapshot()
		record.PaymentsMade++
		record.UpdatedAt = s.now().UTC()

		result = domain.PaymentResult{
			LoanID:       id,
			Details:      details,
			Principal:    loan.Principal(),
			PaidOff:      loan.PaidOff(),
			PaymentsMade: record.PaymentsMade,
		}
		return nil
	})
	if err != nil {
		if isPaymentRejection(err) {
			s.logger.Warn("payment rejected",
				zap.String("loan_id", id),
				zap.Stringer("payment", input.Payment),
				zap.Error(err),
			)
			return domain.PaymentResult{}, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return domain.PaymentResult{}, err
		}
		return domain.PaymentResult{}, fmt.Errorf("update loan: %w", err)
	}

	s.logger.Info("payment applied",
		zap.String("loan_id", id),
		zap.Stringer("payment", result.Details.Payment),
		zap.Stringer("interest_paid", result.Details.InterestPaid),
		zap.Stringer("principal_reduction", result.Details.PrincipalReduction),
		zap.Stringer("principal", result.Principal),
	)
	if result.PaidOff {
		s.logger.Info("loan paid off", zap.String("loan_id", id), zap.Int("payments_made", result.PaymentsMade))
	}

	return result, nil
}

func isPaymentRejection(err error) bool {
	return errors.Is(err, domain.ErrOverpayment) ||
		errors.Is(err, domain.ErrUnderpayment) ||
		errors.Is(err, domain.ErrInvalidPayment)
}

func toView(record domain.LoanRecord, loan *domain.StudentLoan) domain.LoanView {
	return domain.LoanView{
		ID:                 record.ID,
		LenderName:         record.LenderName,
		AccountNumber:      record.AccountNumber,
		Principal:          loan.Principal(),
		APR:                loan.APR(),
		MinimumPayment:     loan.MinimumPayment(),
		CompoundingPeriods: loan.CompoundingPeriods(),
		PayoffAmount:       loan.PayoffAmount(),
		PaidOff:            loan.PaidOff(),
		PaymentsMade:       record.PaymentsMade,
		LastPayment:        loan.LastPayment(),
		OpenedAt:           record.OpenedAt,
		UpdatedAt:          record.UpdatedAt,
	}
}
