// Copyright © 2018 The ELPS authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tdl",
	Short: "tdl — incremental checker for test definition modules",
	Long: `tdl checks, edits and translates test definition modules. Modules are
kept in an incremental workspace: edits reparse only the damaged part of a
module and checks revisit only the definitions the edit invalidated.

Getting started:
  tdl check                    Check the project of the nearest tdl.toml
  tdl check src/...            Check every .tdl file below src
  tdl repl main.tdl            Edit a module interactively
  tdl replay main.tdl edits    Replay an edit script against a module
  tdl emit main.tdl            Print the Go translation of a module
  tdl explain undefined        Describe a diagnostic code
  tdl lsp                      Start the language server

Configuration is read from $HOME/.tdl.yaml, TDL_* environment variables
and flags, in increasing order of precedence. Keys: color, jobs,
log-level, cache-dir, trace, lsp.debounce.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tdl.yaml)")
	flags.String("color", "auto", `Control colored output: "auto", "always", or "never".`)
	flags.Int("jobs", 0, "Maximum number of modules checked concurrently (0 uses GOMAXPROCS)")
	flags.String("log-level", "warning", "Log level: panic, fatal, error, warning, info, debug or trace")
	flags.String("cache-dir", "", "Directory of the check cache (default $XDG_CACHE_HOME/tdl)")
	flags.String("trace", "", `Trace engine operations: "otel", "opencensus" or "pprof".`)

	for _, key := range []string{"color", "jobs", "log-level", "cache-dir", "trace"} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		// Search config in home directory with name ".tdl" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".tdl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("tdl")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Standard output may carry the language server protocol, so the
	// config file in use is only logged.
	if err := viper.ReadInConfig(); err == nil {
		newLogger().WithField("config", viper.ConfigFileUsed()).Debug("using config file")
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
