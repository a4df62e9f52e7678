package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/credential"
	"github.com/hms/hms/internal/platform/idgen"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	createAdminCmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password are required")
			}

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := context.Background()
			st, err := openStores(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.close()

			svc, err := adminService(st.identities, cfg.JWTSecret, cfg.BcryptCost, cfg.IDMaxAttempts)
			if err != nil {
				return err
			}
			u, err := svc.CreateAdmin(ctx, name, email, password)
			if err != nil {
				return err
			}
			logger.Info().Str("public_id", u.PublicID).Msg("admin created")
			fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s).\n", u.PublicID, u.Email)
			return nil
		},
	}
	createAdminCmd.Flags().String("name", "Administrator", "Display name")
	createAdminCmd.Flags().String("email", "", "Login email")
	createAdminCmd.Flags().String("password", "", "Login password")

	cmd.AddCommand(createAdminCmd)
	return cmd
}

func adminService(users identity.Repository, secret string, cost, attempts int) (*identity.Service, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{Secret: []byte(secret)})
	if err != nil {
		return nil, err
	}
	return identity.NewService(users, credential.New(cost), tokens, idgen.New(attempts)), nil
}
