package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pryvon/mailtm-go"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
	printer *Printer
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mailtm",
	Short: "Disposable mailbox console client",
	Long: `mailtm manages throwaway email accounts and their mailboxes from
the command line.

Example usage:
  mailtm account create --auto-login   # Create a random account and log in
  mailtm messages                      # List the inbox
  mailtm message view <id>             # Show a message's full content
  mailtm refresh                       # Bypass the cache and refetch the inbox
  mailtm domains                       # List domains available for new addresses`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.mailtm.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("base-url", "", "provider base URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "per-request timeout")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable response caching")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("cache.disabled", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("output.no_color", rootCmd.PersistentFlags().Lookup("no-color"))
}

// initConfig reads .env, the config file and MAILTM_* environment
// variables, then sets up the logger and printer.
func initConfig() error {
	// Credentials often live in a local .env during testing.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".mailtm")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MAILTM")
	viper.AutomaticEnv()

	viper.SetDefault("timeout", 30*time.Second)
	viper.SetDefault("retries.attempts", 3)
	viper.SetDefault("min_request_interval", 100*time.Millisecond)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	printer = NewPrinter(!viper.GetBool("output.no_color"))
	return nil
}

// newClient builds a client from the resolved configuration.
func newClient() (*mailtm.Client, error) {
	opts := []mailtm.Option{
		mailtm.WithLogger(logger),
		mailtm.WithUserAgent("mailtm-cli/" + version),
	}
	if url := viper.GetString("base_url"); url != "" {
		opts = append(opts, mailtm.WithBaseURL(url))
	}
	if timeout := viper.GetDuration("timeout"); timeout > 0 {
		opts = append(opts, mailtm.WithTimeout(timeout))
	}
	if attempts := viper.GetInt("retries.attempts"); attempts > 0 {
		opts = append(opts, mailtm.WithRetries(attempts))
	}
	if viper.GetBool("cache.disabled") {
		opts = append(opts, mailtm.WithCacheDisabled())
	}
	if viper.IsSet("min_request_interval") {
		opts = append(opts, mailtm.WithMinRequestInterval(viper.GetDuration("min_request_interval")))
	}
	return mailtm.New(opts...)
}

// savedCredentials returns the stored account credentials, if any.
func savedCredentials() (address, password string, ok bool) {
	address = viper.GetString("account.address")
	password = viper.GetString("account.password")
	return address, password, address != "" && password != ""
}

// ensureLogin builds a client and logs into the stored account.
func ensureLogin(ctx context.Context) (*mailtm.Client, error) {
	address, password, ok := savedCredentials()
	if !ok {
		return nil, errors.New("no account configured; run 'mailtm account create' or 'mailtm account login'")
	}

	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if _, err := client.Login(ctx, address, password); err != nil {
		return nil, fmt.Errorf("logging in as %s: %w", address, err)
	}
	return client, nil
}

// saveCredentials persists the account credentials to the config file
// so later invocations can log in without re-prompting.
func saveCredentials(address, password string) error {
	viper.Set("account.address", address)
	viper.Set("account.password", password)
	return writeConfig()
}

// clearCredentials removes the stored account from the config file.
func clearCredentials() error {
	viper.Set("account.address", "")
	viper.Set("account.password", "")
	return writeConfig()
}

func writeConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		if cfgFile != "" {
			path = cfgFile
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolving config path: %w", err)
			}
			path = filepath.Join(home, ".mailtm.yaml")
		}
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
