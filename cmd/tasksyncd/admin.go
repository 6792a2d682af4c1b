package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/marcus/tasksync/internal/api"
	"github.com/marcus/tasksync/internal/store"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Administrative commands against the server database",
}

var (
	adminEmail    string
	adminPassword string
	adminTier     string
	tokenName     string
	tokenTTL      time.Duration
)

var adminCreateUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Long: `Create a user account directly in the database.

Run interactively from a terminal with no flags, or supply --email and
--password for scripted use.`,
	RunE: runAdminCreateUser,
}

var adminCreateTokenCmd = &cobra.Command{
	Use:   "create-token",
	Short: "Issue a bearer token for a user",
	RunE:  runAdminCreateToken,
}

var adminPurgeTokensCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete expired tokens",
	RunE:  runAdminPurgeTokens,
}

func init() {
	adminCreateUserCmd.Flags().StringVar(&adminEmail, "email", "", "user email address")
	adminCreateUserCmd.Flags().StringVar(&adminPassword, "password", "", "account password (min 8 characters)")
	adminCreateUserCmd.Flags().StringVar(&adminTier, "tier", store.TierFree, "account tier (free, basic, pro, premium, teams)")

	adminCreateTokenCmd.Flags().StringVar(&adminEmail, "email", "", "user email address")
	adminCreateTokenCmd.Flags().StringVar(&tokenName, "name", "", "token name (e.g. laptop, ci)")
	adminCreateTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (0 = never expires)")

	adminCmd.AddCommand(adminCreateUserCmd)
	adminCmd.AddCommand(adminCreateTokenCmd)
	adminCmd.AddCommand(adminPurgeTokensCmd)
}

// openStore opens the server database using the same configuration the
// serve command reads.
func openStore() (*store.Store, error) {
	cfg := api.LoadConfig()
	st, err := store.Open(cfg.StoreConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func runAdminCreateUser(cmd *cobra.Command, args []string) error {
	// Interactive form when flags are omitted and stdin is a terminal.
	if adminEmail == "" && adminPassword == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		if err := createUserForm(); err != nil {
			return err
		}
	}

	if adminEmail == "" {
		return errors.New("--email is required")
	}
	if len(adminPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	switch adminTier {
	case store.TierFree, store.TierBasic, store.TierPro, store.TierPremium, store.TierTeams:
	default:
		return fmt.Errorf("unknown tier: %s", adminTier)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	hashStr := string(hash)

	user, err := st.CreateUser(adminEmail, &hashStr, nil, adminTier)
	if err != nil {
		return err
	}

	fmt.Printf("created user %s (%s, tier %s)\n", user.Email, user.ID, user.Tier)
	return nil
}

func createUserForm() error {
	tierOptions := []huh.Option[string]{
		huh.NewOption("Free", store.TierFree),
		huh.NewOption("Basic", store.TierBasic),
		huh.NewOption("Pro", store.TierPro),
		huh.NewOption("Premium", store.TierPremium),
		huh.NewOption("Teams", store.TierTeams),
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&adminEmail).
				Placeholder("user@example.com").
				Validate(func(s string) error {
					if !strings.Contains(s, "@") {
						return errors.New("enter a valid email address")
					}
					return nil
				}),
			huh.NewInput().
				Title("Password").
				Value(&adminPassword).
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if len(s) < 8 {
						return errors.New("at least 8 characters")
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Tier").
				Options(tierOptions...).
				Value(&adminTier),
		),
	)

	return form.Run()
}

func runAdminCreateToken(cmd *cobra.Command, args []string) error {
	if adminEmail == "" {
		return errors.New("--email is required")
	}
	if tokenName == "" {
		return errors.New("--name is required")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	user, err := st.UserByEmail(adminEmail)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user not found: %s", adminEmail)
	}

	plaintext, tok, err := st.GenerateToken(user.ID, tokenName, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Printf("token %s for %s\n", tok.ID, user.Email)
	if tok.ExpiresAt != nil {
		fmt.Printf("expires %s\n", tok.ExpiresAt.Format(time.RFC3339))
	} else {
		fmt.Println("never expires")
	}
	fmt.Println()
	// Shown once; only a hash is stored.
	fmt.Println(plaintext)
	return nil
}

func runAdminPurgeTokens(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.PurgeExpiredTokens(time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("purged %d expired tokens\n", n)
	return nil
}
