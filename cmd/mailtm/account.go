package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pryvon/mailtm-go"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage the disposable account",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new account",
	Long: `Create a new account on the provider.

With no flags, a random address on an available domain and a random
password are generated.

Examples:
  mailtm account create                        # Random identity
  mailtm account create --auto-login           # Create, log in and save
  mailtm account create --address me@punkproof.com --password s3cretpw`,
	RunE: runAccountCreate,
}

var accountLoginCmd = &cobra.Command{
	Use:   "login <address>",
	Short: "Log into an existing account and save its credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountLogin,
}

var accountLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved account credentials",
	RunE:  runAccountLogout,
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the saved account on the provider",
	RunE:  runAccountDelete,
}

var accountStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show quota usage and client counters",
	RunE:  runAccountStats,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	accountCmd.AddCommand(accountCreateCmd)
	accountCmd.AddCommand(accountLoginCmd)
	accountCmd.AddCommand(accountLogoutCmd)
	accountCmd.AddCommand(accountDeleteCmd)
	accountCmd.AddCommand(accountStatsCmd)

	accountCreateCmd.Flags().String("address", "", "full address (default: random local part)")
	accountCreateCmd.Flags().String("domain", "", "domain for the random address (default: first available)")
	accountCreateCmd.Flags().String("password", "", "password (default: random)")
	accountCreateCmd.Flags().Bool("auto-login", false, "log in and save credentials after creating")

	accountLoginCmd.Flags().String("password", "", "account password (default: MAILTM_PASSWORD)")
}

func runAccountCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := newClient()
	if err != nil {
		return err
	}

	address, _ := cmd.Flags().GetString("address")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = randomPassword()
	}
	if address == "" {
		domain, _ := cmd.Flags().GetString("domain")
		address, err = randomAddress(ctx, client, domain)
		if err != nil {
			return err
		}
	}

	autoLogin, _ := cmd.Flags().GetBool("auto-login")
	var account *mailtm.Account
	if autoLogin {
		account, err = client.Register(ctx, address, password)
	} else {
		account, err = client.CreateAccount(ctx, address, password)
	}
	if err != nil {
		return err
	}

	printer.Success("account created: %s", printer.Bold(account.Address))
	printer.Print("password: %s", password)

	if autoLogin {
		if err := saveCredentials(account.Address, password); err != nil {
			return err
		}
		printer.Info("credentials saved; subsequent commands use this account")
	}
	return nil
}

func runAccountLogin(cmd *cobra.Command, args []string) error {
	address := args[0]
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = viper.GetString("password")
	}
	if password == "" {
		return errors.New("no password given; use --password or MAILTM_PASSWORD")
	}

	client, err := newClient()
	if err != nil {
		return err
	}
	account, err := client.Login(context.Background(), address, password)
	if err != nil {
		if errors.Is(err, mailtm.ErrInvalidCredentials) {
			return fmt.Errorf("provider rejected the credentials for %s", address)
		}
		return err
	}

	if err := saveCredentials(account.Address, password); err != nil {
		return err
	}
	printer.Success("logged in as %s", printer.Bold(account.Address))
	return nil
}

func runAccountLogout(cmd *cobra.Command, args []string) error {
	address, _, ok := savedCredentials()
	if !ok {
		printer.Info("no account configured")
		return nil
	}
	if err := clearCredentials(); err != nil {
		return err
	}
	printer.Success("forgot credentials for %s", address)
	return nil
}

func runAccountDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := ensureLogin(ctx)
	if err != nil {
		return err
	}

	session, _ := client.CurrentSession()
	if err := client.DeleteAccount(ctx); err != nil {
		return err
	}
	if err := clearCredentials(); err != nil {
		return err
	}
	printer.Success("deleted account %s", session.Address)
	return nil
}

func runAccountStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client, err := ensureLogin(ctx)
	if err != nil {
		return err
	}

	stats, err := client.AccountStats(ctx)
	if err != nil {
		return err
	}

	printer.Header("Account")
	printer.Print("address:  %s", printer.Bold(stats.Address))
	printer.Print("quota:    %d / %d bytes (%.1f%%)", stats.QuotaUsed, stats.QuotaTotal, stats.QuotaPercentage)
	if !stats.CreatedAt.IsZero() {
		printer.Print("created:  %s", stats.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	printer.Header("Client")
	printer.Print("requests:        %d", stats.RequestCount)
	printer.Print("cache hits:      %d", stats.Cache.Hits)
	printer.Print("cache misses:    %d", stats.Cache.Misses)
	printer.Print("cache evictions: %d", stats.Cache.Evictions)
	printer.Print("cache entries:   %d", stats.Cache.Size)
	return nil
}

// randomAddress picks a domain and generates a random local part.
func randomAddress(ctx context.Context, client *mailtm.Client, domain string) (string, error) {
	if domain == "" {
		domains, err := client.Domains(ctx)
		if err != nil {
			return "", fmt.Errorf("listing domains: %w", err)
		}
		for _, d := range domains {
			if d.IsActive {
				domain = d.Domain
				break
			}
		}
		if domain == "" {
			return "", errors.New("provider reports no active domains")
		}
	}
	local := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return local + "@" + domain, nil
}

func randomPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
