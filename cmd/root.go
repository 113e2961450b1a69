package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"student-loan/config"
)

// NewRootCmd builds the student-loan command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "student-loan",
		Short: "Month-by-month student loan calculator",
		Long: `student-loan computes the interest a loan accrues in one period and
applies payments against it, rejecting payments above the payoff amount or
below the lender's minimum.

Commands:
  serve     - HTTP API for open loans
  interest  - interest accrued in one period
  pay       - apply a single payment`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $"+config.EnvConfigPath+" or ./config.toml)")

	loadConfig := func() (*config.Config, error) {
		if cfgFile != "" {
			return config.Load(cfgFile)
		}
		return config.LoadFromEnv()
	}

	root.AddCommand(
		newServeCmd(loadConfig),
		newInterestCmd(),
		newPayCmd(),
		newVersionCmd(),
	)
	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

// loanFlags are the loan terms shared by the one-shot commands.
type loanFlags struct {
	principal string
	apr       string
	minimum   string
	periods   int
}

func (f *loanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.principal, "principal", "", "outstanding principal")
	cmd.Flags().StringVar(&f.apr, "apr", "", "annual percentage rate, 12 means 12%")
	cmd.Flags().StringVar(&f.minimum, "minimum", "0", "minimum payment, 0 for none")
	cmd.Flags().IntVar(&f.periods, "periods", 12, "compounding periods per year")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("apr")
}

func parseDecimal(name, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid --%s %q: %w", name, value, err)
	}
	return d, nil
}
