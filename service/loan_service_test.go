package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"student-loan/domain"
	"student-loan/repository"
)

type MockLoanRepository struct {
	mu         sync.Mutex
	records    map[string]domain.LoanRecord
	SaveCalls  int
	ForceError bool
}

func NewMockLoanRepository() *MockLoanRepository {
	return &MockLoanRepository{records: make(map[string]domain.LoanRecord)}
}

func (m *MockLoanRepository) Save(_ context.Context, record domain.LoanRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls++
	if m.ForceError {
		return errors.New("save error")
	}
	m.records[record.ID] = record
	return nil
}

func (m *MockLoanRepository) Get(_ context.Context, id string) (domain.LoanRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return domain.LoanRecord{}, repository.ErrNotFound
	}
	return record, nil
}

func (m *MockLoanRepository) Update(
	_ context.Context,
	id string,
	fn func(record *domain.LoanRecord) error,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := fn(&record); err != nil {
		return err
	}
	m.SaveCalls++
	if m.ForceError {
		return errors.New("save error")
	}
	m.records[id] = record
	return nil
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(repo repository.LoanRepository) *LoanService {
	s := NewLoanService(repo, zap.NewNop(), 0)
	s.now = func() time.Time { return time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC) }
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("loan-%d", n)
	}
	return s
}

func TestOpenLoan(t *testing.T) {
	repo := NewMockLoanRepository()
	svc := newTestService(repo)

	view, err := svc.OpenLoan(context.Background(), domain.OpenLoanInput{
		LenderName:     "Test Lender",
		AccountNumber:  "123456-1111",
		Principal:      d("10000"),
		APR:            d("12"),
		MinimumPayment: d("150"),
	})

	require.NoError(t, err)
	assert.Equal(t, "loan-1", view.ID)
	assert.Equal(t, 12, view.CompoundingPeriods)
	assert.True(t, view.PayoffAmount.Equal(d("10100")))
	assert.False(t, view.PaidOff)
	assert.Equal(t, 1, repo.SaveCalls)
	assert.Equal(t, "Test Lender", repo.records["loan-1"].LenderName)
}

func TestOpenLoan_DefaultPeriodsFromConfig(t *testing.T) {
	svc := NewLoanService(NewMockLoanRepository(), zap.NewNop(), 4)

	view, err := svc.OpenLoan(context.Background(), domain.OpenLoanInput{
		Principal: d("10000"),
		APR:       d("12"),
	})

	require.NoError(t, err)
	assert.Equal(t, 4, view.CompoundingPeriods)
	assert.NotEmpty(t, view.ID)
}

func TestOpenLoan_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input domain.OpenLoanInput
		want  error
	}{
		{"principal too large", domain.OpenLoanInput{Principal: d("1000000001"), APR: d("5")}, ErrValidation},
		{"rate too large", domain.OpenLoanInput{Principal: d("100"), APR: d("101")}, ErrValidation},
		{"too many periods", domain.OpenLoanInput{Principal: d("100"), APR: d("5"), CompoundingPeriods: 366}, ErrValidation},
		{"negative periods", domain.OpenLoanInput{Principal: d("100"), APR: d("5"), CompoundingPeriods: -1}, ErrValidation},
		{"negative principal", domain.OpenLoanInput{Principal: d("-100"), APR: d("5")}, domain.ErrInvalidLoan},
		{"negative minimum", domain.OpenLoanInput{Principal: d("100"), APR: d("5"), MinimumPayment: d("-1")}, domain.ErrInvalidLoan},
		{"minimum too large", domain.OpenLoanInput{Principal: d("100"), APR: d("5"), MinimumPayment: d("1000000001")}, ErrValidation},
		{"principal huge exponent", domain.OpenLoanInput{Principal: d("1e30000000"), APR: d("5")}, ErrValidation},
		{"principal tiny exponent", domain.OpenLoanInput{Principal: d("1e-30000000"), APR: d("5")}, ErrValidation},
		{"zero principal huge exponent", domain.OpenLoanInput{Principal: d("0e30000000"), APR: d("5")}, ErrValidation},
		{"apr huge exponent", domain.OpenLoanInput{Principal: d("100"), APR: d("1e30000000")}, ErrValidation},
		{"minimum huge exponent", domain.OpenLoanInput{Principal: d("100"), APR: d("5"), MinimumPayment: d("1e30000000")}, ErrValidation},
		{"principal too many digits", domain.OpenLoanInput{Principal: d("0.1234567890123456789012345678901234567"), APR: d("5")}, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewMockLoanRepository()
			svc := newTestService(repo)

			_, err := svc.OpenLoan(context.Background(), tt.input)

			assert.ErrorIs(t, err, tt.want)
			assert.Zero(t, repo.SaveCalls, "repository Save should NOT be called")
		})
	}
}

func TestOpenLoan_LargeDefaultPeriodsIgnored(t *testing.T) {
	svc := NewLoanService(NewMockLoanRepository(), zap.NewNop(), MaxCompoundingPeriods+1)

	view, err := svc.OpenLoan(context.Background(), domain.OpenLoanInput{Principal: d("100"), APR: d("12")})

	require.NoError(t, err)
	assert.Equal(t, domain.MonthsPerYear, view.CompoundingPeriods)
}

func TestOpenLoan_AcceptsBoundaryAmounts(t *testing.T) {
	svc := newTestService(NewMockLoanRepository())

	_, err := svc.OpenLoan(context.Background(), domain.OpenLoanInput{
		Principal:      d("1e9"),
		APR:            d("3.125"),
		MinimumPayment: d("0.000000000000000001"),
	})

	assert.NoError(t, err)
}

func TestOpenLoan_SaveError(t *testing.T) {
	repo := NewMockLoanRepository()
	repo.ForceError = true

	_, err := newTestService(repo).OpenLoan(context.Background(), domain.OpenLoanInput{
		Principal: d("100"),
		APR:       d("12"),
	})

	assert.Error(t, err)
}

func TestQuoteInterest(t *testing.T) {
	svc := newTestService(NewMockLoanRepository())
	view, err := svc.OpenLoan(context.Background(), domain.OpenLoanInput{Principal: d("10000"), APR: d("12")})
	require.NoError(t, err)

	quote, err := svc.QuoteInterest(context.Background(), view.ID)

	require.NoError(t, err)
	assert.True(t, quote.PeriodInterest.Equal(d("100")))
	assert.True(t, quote.PayoffAmount.Equal(d("10100")))
}

func TestApplyPayment(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMockLoanRepository())
	view, err := svc.OpenLoan(ctx, domain.OpenLoanInput{Principal: d("10000"), APR: d("12")})
	require.NoError(t, err)

	result, err := svc.ApplyPayment(ctx, view.ID, domain.PaymentInput{Payment: d("250")})

	require.NoError(t, err)
	assert.True(t, result.Details.InterestPaid.Equal(d("100")))
	assert.True(t, result.Details.PrincipalReduction.Equal(d("150")))
	assert.True(t, result.Principal.Equal(d("9850")))
	assert.Equal(t, 1, result.PaymentsMade)

	stored, err := svc.GetLoan(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, stored.Principal.Equal(d("9850")))
	assert.True(t, stored.LastPayment.Payment.Equal(d("250")))
}

func TestApplyPayment_RejectedLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := NewMockLoanRepository()
	svc := newTestService(repo)
	view, err := svc.OpenLoan(ctx, domain.OpenLoanInput{
		Principal:      d("100"),
		APR:            d("12"),
		MinimumPayment: d("40"),
	})
	require.NoError(t, err)

	_, err = svc.ApplyPayment(ctx, view.ID, domain.PaymentInput{Payment: d("200")})
	assert.ErrorIs(t, err, domain.ErrOverpayment)

	_, err = svc.ApplyPayment(ctx, view.ID, domain.PaymentInput{Payment: d("20")})
	assert.ErrorIs(t, err, domain.ErrUnderpayment)

	assert.Equal(t, 1, repo.SaveCalls)
	stored, err := svc.GetLoan(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, stored.Principal.Equal(d("100")))
	assert.Zero(t, stored.PaymentsMade)
}

func TestApplyPayment_PayoffBelowMinimum(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(NewMockLoanRepository())
	view, err := svc.OpenLoan(ctx, domain.OpenLoanInput{
		Principal:      d("10"),
		APR:            d("12"),
		MinimumPayment: d("50"),
	})
	require.NoError(t, err)

	result, err := svc.ApplyPayment(ctx, view.ID, domain.PaymentInput{Payment: view.PayoffAmount})

	require.NoError(t, err)
	assert.True(t, result.PaidOff)
	assert.True(t, result.Principal.IsZero())

	quote, err := svc.QuoteInterest(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, quote.PeriodInterest.IsZero())
}

func TestApplyPayment_OutOfRangeAmount(t *testing.T) {
	ctx := context.Background()
	repo := NewMockLoanRepository()
	svc := newTestService(repo)
	view, err := svc.OpenLoan(ctx, domain.OpenLoanInput{Principal: d("10000"), APR: d("12")})
	require.NoError(t, err)

	for _, payment := range []string{"1e30000000", "1e-30000000", "0e30000000", "2000000001", "1e20"} {
		t.Run(payment, func(t *testing.T) {
			start := time.Now()
			_, err := svc.ApplyPayment(ctx, view.ID, domain.PaymentInput{Payment: d(payment)})

			assert.ErrorIs(t, err, ErrValidation)
			assert.Less(t, time.Since(start), time.Second)
		})
	}

	assert.Equal(t, 1, repo.SaveCalls)
	stored, err := svc.GetLoan(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, stored.Principal.Equal(d("10000")))
}

func TestApplyPayment_UnknownLoan(t *testing.T) {
	svc := newTestService(NewMockLoanRepository())

	_, err := svc.ApplyPayment(context.Background(), "nope", domain.PaymentInput{Payment: d("1")})

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestApplyPayment_SaveError(t *testing.T) {
	ctx := context.Background()
	repo := NewMockLoanRepository()
	svc := newTestService(repo)
	view, err := svc.OpenLoan(ctx, domain.OpenLoanInput{Principal: d("10000"), APR: d("12")})
	require.NoError(t, err)

	repo.ForceError = true
	_, err = svc.ApplyPayment(ctx, view.ID, domain.PaymentInput{Payment: d("250")})
	assert.Error(t, err)

	repo.ForceError = false
	stored, err := svc.GetLoan(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, stored.Principal.Equal(d("10000")))
}

func TestApplyPayment_Concurrent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewCacheLoanRepository(repository.NewMemoryCache()))
	view, err := svc.OpenLoan(ctx, domain.OpenLoanInput{Principal: d("10000"), APR: d("0")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyPayment(ctx, view.ID, domain.PaymentInput{Payment: d("100")})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.GetLoan(ctx, view.ID)
	require.NoError(t, err)
	assert.True(t, stored.Principal.Equal(d("8000")), "principal %s", stored.Principal)
	assert.Equal(t, 20, stored.PaymentsMade)
}
