// Package cmd wires the flowdag binary's command tree. It is a thin layer:
// flag parsing, config merging, and presentation live here, never in
// dagcore, batch, loader, or callable.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/flowdag/observability"
)

var (
	verboseFlag bool
	configFlag  string
	envFileFlag string

	logger observability.Logger
)

var rootCmd = &cobra.Command{
	Use:   "flowdag",
	Short: "flowdag runs prompt-flow DAG definitions over a row source",
	Long: `flowdag loads a flow definition, validates it, and drives it over a
batch of input rows through the DAG scheduler, writing one output record
per row plus an aggregation pass across the whole batch.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug-level diagnostic logging")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Path to a flowdag.yaml profile (default: searches ./flowdag.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", ".env", "Path to a .env file for local development")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

// initConfig layers configuration: flags (already parsed by cobra) > .env >
// flowdag.yaml > defaults. It never merges domain behavior, only values
// read back out via viper.Get* in the subcommands.
func initConfig() error {
	if envFileFlag != "" {
		if _, err := os.Stat(envFileFlag); err == nil {
			if err := godotenv.Load(envFileFlag); err != nil {
				return fmt.Errorf("load env file %s: %w", envFileFlag, err)
			}
		}
	}

	viper.SetConfigName("flowdag")
	viper.SetConfigType("yaml")
	if configFlag != "" {
		viper.SetConfigFile(configFlag)
	} else {
		viper.AddConfigPath(".")
	}
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return fmt.Errorf("read config: %w", err)
		}
	}

	var err error
	if verboseFlag {
		logger, err = observability.NewProductionLogger()
	} else {
		logger = observability.NewNopLogger()
	}
	return err
}
