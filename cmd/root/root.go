// Package root contains the root command for the application
package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/amountutils"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/categorizer"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/common"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/config"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/ledgerparser"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/report"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/ruleextractor"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/statementparser"
	"github.com/reinlemmens/Zelfstandige-vroedvrouw-boekhouden/internal/store"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	DataDir    string
	FiscalYear int
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "boekhouden",
		Short: "Bookkeeping for a self-employed midwife practice: import, categorize and report.",
		Long: `boekhouden imports Belfius bank exports and Mastercard statements,
deduplicates repeated imports, assigns bookkeeping categories through
priority-ordered rules and produces the yearly profit-and-loss overview.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to boekhouden!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnv()
			Log = config.ConfigureLogging()

			// Set the configured logger for all packages
			amountutils.SetLogger(Log)
			ledgerparser.SetLogger(Log)
			statementparser.SetLogger(Log)
			categorizer.SetLogger(Log)
			ruleextractor.SetLogger(Log)
			store.SetLogger(Log)
			common.SetLogger(Log)
			report.SetLogger(Log)

			loaded, err := config.InitializeConfig()
			if err != nil {
				Log.WithError(err).Warn("Configuration invalid, using defaults")
			} else {
				AppConfig = loaded
			}

			// Flags win over config file values
			if AppConfig != nil {
				if !cmd.Flags().Changed("data-dir") && AppConfig.Data.Directory != "" {
					SharedFlags.DataDir = AppConfig.Data.Directory
				}
				if !cmd.Flags().Changed("year") && AppConfig.Import.FiscalYear != 0 {
					SharedFlags.FiscalYear = AppConfig.Import.FiscalYear
				}
			}
		},
	}

	// SharedFlags are accessible to all commands
	SharedFlags = CommonFlags{}

	// AppConfig holds the loaded application configuration
	AppConfig *config.Config
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.DataDir, "data-dir", "d", "data", "Data directory")
	Cmd.PersistentFlags().IntVarP(&SharedFlags.FiscalYear, "year", "y", 0, "Fiscal year filter")
}

// NewStore creates a store rooted at the configured data directory.
func NewStore() *store.Store {
	return store.NewStore(SharedFlags.DataDir)
}
