package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"student-loan/domain"
)

func (f *loanFlags) build() (*domain.StudentLoan, error) {
	principal, err := parseDecimal("principal", f.principal)
	if err != nil {
		return nil, err
	}
	apr, err := parseDecimal("apr", f.apr)
	if err != nil {
		return nil, err
	}
	minimum, err := parseDecimal("minimum", f.minimum)
	if err != nil {
		return nil, err
	}
	return domain.NewStudentLoan(
		principal,
		apr,
		domain.WithMinimumPayment(minimum),
		domain.WithCompoundingPeriods(f.periods),
	)
}

func newInterestCmd() *cobra.Command {
	var flags loanFlags

	cmd := &cobra.Command{
		Use:   "interest",
		Short: "Show the interest accrued over one period",
		Example: `  student-loan interest --principal 10000 --apr 12
  student-loan interest --principal 10000 --apr 12 --periods 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := flags.build()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Principal:       %s\n", loan.Principal())
			fmt.Fprintf(out, "Period interest: %s\n", loan.CalculatePeriodInterest())
			fmt.Fprintf(out, "Payoff amount:   %s\n", loan.PayoffAmount())
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newPayCmd() *cobra.Command {
	var (
		flags   loanFlags
		payment string
	)

	cmd := &cobra.Command{
		Use:     "pay",
		Short:   "Apply one payment and show how it was split",
		Example: `  student-loan pay --principal 10000 --apr 12 --minimum 150 --payment 250`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loan, err := flags.build()
			if err != nil {
				return err
			}
			amount, err := parseDecimal("payment", payment)
			if err != nil {
				return err
			}

			details, err := loan.ApplyPayment(amount)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Payment:             %s\n", details.Payment)
			fmt.Fprintf(out, "Interest paid:       %s\n", details.InterestPaid)
			fmt.Fprintf(out, "Principal reduction: %s\n", details.PrincipalReduction)
			fmt.Fprintf(out, "Remaining principal: %s\n", loan.Principal())
			if loan.PaidOff() {
				fmt.Fprintln(out, "Loan paid off")
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&payment, "payment", "", "payment amount")
	_ = cmd.MarkFlagRequired("payment")
	return cmd
}
