package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ablab/experimentutils"
)

var (
	// Global flags
	cfgFile       string
	alpha         float64
	tailName      string
	practicalDiff float64
	verbose       bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "expstat",
	Short: "Utilities for experiment design and analysis",
	Long: `expstat analyzes A/B experiments from the command line.

It runs two-sample significance tests on conversion counts and metric
values, bootstrap-resamples metric samples, and streams raw experiment
observations into ClickHouse for later analysis.

Defaults for --alpha and --tail can be set in a config file
(.expstat.yaml in the home or working directory) or through
EXPSTAT_* environment variables.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd); err != nil {
			return err
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func loadConfig(cmd *cobra.Command) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".expstat")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("EXPSTAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return err
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	// Flags beat config, config beats defaults.
	if !cmd.Flags().Changed("alpha") && viper.IsSet("alpha") {
		alpha = viper.GetFloat64("alpha")
	}
	if !cmd.Flags().Changed("tail") && viper.IsSet("tail") {
		tailName = viper.GetString("tail")
	}

	return nil
}

func newABTest() (*experimentutils.ABTest, error) {
	tail, err := experimentutils.ParseTail(tailName)
	if err != nil {
		return nil, err
	}

	return experimentutils.NewABTest(experimentutils.Config{
		Alpha:   alpha,
		Tail:    tail,
		Logger:  logger.Sugar(),
		Verbose: verbose,
	}), nil
}

func printResult(cmd *cobra.Command, r *experimentutils.Result) {
	cmd.Printf("Sample size in treatment group: %d\n", r.ExpSize)
	cmd.Printf("Observed estimate in treatment group: %.4f\n", r.ExpEstimate)
	cmd.Printf("Sample size in control group: %d\n", r.CtrlSize)
	cmd.Printf("Observed estimate in control group: %.4f\n", r.CtrlEstimate)
	cmd.Printf("Observed difference (treatment - control): %.4f\n", r.Diff)
	cmd.Printf("Confidence interval: %s\n", r.Interval)
	cmd.Printf("Statistically significant: %v\n", r.StatSignificant)
	cmd.Printf("Practically significant (%.4f): %v\n", r.PracticalDiff, r.PracticalSignificant)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .expstat.yaml)")
	rootCmd.PersistentFlags().Float64Var(&alpha, "alpha", 0.05, "significance level of the test")
	rootCmd.PersistentFlags().StringVar(&tailName, "tail", "two-tailed", "test tail: two-tailed, left-tailed or right-tailed")
	rootCmd.PersistentFlags().Float64Var(&practicalDiff, "practical-diff", 0, "difference required for practical significance")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log test summaries")

	rootCmd.AddCommand(probCmd)
	rootCmd.AddCommand(meanCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(recordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
