package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(db); err != nil {
				return err
			}
			success(cmd, "Schema is up to date")
			return nil
		},
	}
}

func newCreateSuperuserCmd() *cobra.Command {
	var username, email string

	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "Create an admin account, or promote the existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users := service.NewUserService(repository.NewUserRepository(db))
			user, err := users.CreateSuperuser(cmd.Context(), username, email)
			if err != nil {
				return fmt.Errorf("failed to create superuser: %w", err)
			}

			success(cmd, "Superuser ready")
			fmt.Fprintf(cmd.OutOrStdout(), "Username: %s\nEmail: %s\n", user.Username, user.Email)
			fmt.Fprintln(cmd.OutOrStdout(), "Sign up with the same username and email to receive a confirmation code.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "superuser username")
	cmd.Flags().StringVar(&email, "email", "", "superuser email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newSetRoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setrole [username] [user|moderator|admin]",
		Short: "Change the role of an existing user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := models.ParseRole(args[1])
			if err != nil {
				return err
			}

			users := service.NewUserService(repository.NewUserRepository(db))
			if err := users.SetRole(cmd.Context(), args[0], role); err != nil {
				return fmt.Errorf("failed to set role: %w", err)
			}

			success(cmd, "%s is now %s", args[0], role)
			return nil
		},
	}
}
