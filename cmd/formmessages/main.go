package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "formmessages",
		Short: "Preview form validation messages",
		Long: `formmessages selects which validation messages a form field shows for a
set of error flags. Messages come from an included template (file, fs, http or
s3) merged with inline overrides.`,
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return configureLogging()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./formmessages.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text or json)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(
		renderCmd(),
		watchCmd(),
		interactiveCmd(),
		openapiCmd(),
	)
	return rootCmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("formmessages")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("FORMMESSAGES")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log.Debugf("Using config file %s", viper.ConfigFileUsed())
	}
}

func configureLogging() error {
	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	if viper.GetString("log.format") == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}
