package command

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

var (
	suUsername string
	suEmail    string
)

var createSuperuserCmd = &cobra.Command{
	Use:   "createsuperuser",
	Short: "Create a superuser or promote an existing user",
	Long: `Creates an admin with the superuser flag. If the username exists the user is
promoted instead. Superusers obtain tokens through the normal signup/token flow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if suUsername == models.ReservedUsername {
			return fmt.Errorf("username %q is reserved", models.ReservedUsername)
		}
		db, _, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		users := repository.NewUserRepository(db)
		ctx := cmd.Context()

		user, err := users.FindByUsername(ctx, suUsername)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			if suEmail == "" {
				return errors.New("--email is required for a new user")
			}
			user = &models.User{Username: suUsername, Email: suEmail, Role: models.RoleAdmin, IsSuperuser: true}
			if err := users.Create(ctx, user); err != nil {
				return err
			}
			color.Green("✓ Superuser %s created", user.Username)
		case err != nil:
			return err
		default:
			user.Role = models.RoleAdmin
			user.IsSuperuser = true
			if err := users.Update(ctx, user); err != nil {
				return err
			}
			color.Yellow("✓ Existing user %s promoted to superuser", user.Username)
		}

		fmt.Printf("Request a code with POST /v1/auth/signup/ {\"username\": %q, \"email\": %q}\n", user.Username, user.Email)
		return nil
	},
}

func init() {
	createSuperuserCmd.Flags().StringVar(&suUsername, "username", "", "superuser username")
	createSuperuserCmd.Flags().StringVar(&suEmail, "email", "", "superuser email (required when creating)")
	_ = createSuperuserCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(createSuperuserCmd)
}
