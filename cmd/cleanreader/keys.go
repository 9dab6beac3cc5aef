package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/artpar/cleanreader/adapters/sqlite"
	"github.com/artpar/cleanreader/bootstrap"
	"github.com/artpar/cleanreader/config"
	"github.com/artpar/cleanreader/domain/account"
	"github.com/artpar/cleanreader/domain/tier"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage accounts and API keys",
	Long: `Manage cleanreader accounts and their API keys.

Every account has exactly one API key. The raw key is shown once at
creation; only a bcrypt hash is stored.

Examples:
  cleanreader keys create --email=dev@example.com --tier=pro
  cleanreader keys list
  cleanreader keys disable 42
  cleanreader keys enable 42`,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	RunE:  runKeysList,
}

var keysCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account and its API key",
	RunE:  runKeysCreate,
}

var keysDisableCmd = &cobra.Command{
	Use:   "disable <account-id>",
	Short: "Disable an account's API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysDisable,
}

var keysEnableCmd = &cobra.Command{
	Use:   "enable <account-id>",
	Short: "Re-enable an account's API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysEnable,
}

var (
	keyEmail        string
	keyTier         string
	keyMonthlyLimit int64
)

func init() {
	rootCmd.AddCommand(keysCmd)

	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysDisableCmd)
	keysCmd.AddCommand(keysEnableCmd)

	keysCreateCmd.Flags().StringVar(&keyEmail, "email", "", "account email (required)")
	keysCreateCmd.Flags().StringVar(&keyTier, "tier", "free", "subscription tier")
	keysCreateCmd.Flags().Int64Var(&keyMonthlyLimit, "monthly-limit", -1, "override the tier's monthly quota (0 = unlimited)")
	keysCreateCmd.MarkFlagRequired("email")
}

func runKeysList(cmd *cobra.Command, args []string) error {
	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqlite.NewAccountStore(db)
	accounts, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	if len(accounts) == 0 {
		fmt.Println("No accounts found.")
		fmt.Println()
		fmt.Println("Create one with: cleanreader keys create --email=<email> --tier=<tier>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPREFIX\tEMAIL\tTIER\tSTATUS\tUSED\tLIMIT\tCREATED")
	fmt.Fprintln(w, "--\t------\t-----\t----\t------\t----\t-----\t-------")

	for _, a := range accounts {
		status := "active"
		if !a.Active {
			status = "disabled"
		}
		limit := "unlimited"
		if a.MonthlyLimit != nil {
			limit = strconv.FormatInt(*a.MonthlyLimit, 10)
		}
		fmt.Fprintf(w, "%d\t%s...\t%s\t%s\t%s\t%d\t%s\t%s\n",
			a.ID, a.KeyPrefix, a.Email, a.Tier, status,
			a.RequestsThisMonth, limit, a.CreatedAt.Format("2006-01-02"))
	}

	w.Flush()
	return nil
}

func runKeysCreate(cmd *cobra.Command, args []string) error {
	name := tier.Tier(keyTier)
	if !tier.Valid(name) {
		return fmt.Errorf("unknown tier %q (valid: free, developer, standard, pro, business, enterprise)", keyTier)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	raw, prefix, hash, err := account.GenerateKey()
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	acct := account.Account{
		KeyPrefix: prefix,
		KeyHash:   hash,
		Email:     keyEmail,
		Tier:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	// Quota: explicit flag wins, otherwise the deployment's tier
	// default. Zero in either place means unlimited.
	limit := keyMonthlyLimit
	if limit < 0 {
		cfg, err := config.LoadWithFallback(cfgFile)
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		catalog, err := bootstrap.CatalogFrom(cfg)
		if err != nil {
			return fmt.Errorf("invalid tier configuration: %w", err)
		}
		def, _ := catalog.Find(name)
		limit = def.MonthlyLimit
	}
	if limit > 0 {
		acct.MonthlyLimit = &limit
	}

	store := sqlite.NewAccountStore(db)
	created, err := store.Create(context.Background(), acct)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	fmt.Printf("%s Created %s account for %s (id %d)\n", checkMark, name, keyEmail, created.ID)
	fmt.Println()
	fmt.Println("API Key (save this, shown once):")
	fmt.Printf("  %s\n", raw)

	return nil
}

func runKeysDisable(cmd *cobra.Command, args []string) error {
	return setAccountActive(args[0], false)
}

func runKeysEnable(cmd *cobra.Command, args []string) error {
	return setAccountActive(args[0], true)
}

func setAccountActive(arg string, active bool) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid account id %q", arg)
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqlite.NewAccountStore(db)
	acct, err := store.GetByID(context.Background(), id)
	if err != nil {
		return fmt.Errorf("account not found: %d", id)
	}

	if acct.Active == active {
		if active {
			fmt.Printf("Account %d is already active.\n", id)
		} else {
			fmt.Printf("Account %d is already disabled.\n", id)
		}
		return nil
	}

	if !active && !confirm(fmt.Sprintf("Disable account %d (%s)?", id, acct.Email)) {
		fmt.Println("Aborted.")
		return nil
	}

	if err := store.SetActive(context.Background(), id, active); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	verb := "Enabled"
	if !active {
		verb = "Disabled"
	}
	fmt.Printf("%s %s account %d (%s)\n", checkMark, verb, id, acct.Email)
	return nil
}
