package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zenGate-Global/hello-audit/platform/go/auth/devtoken"
)

func devTokenCommand() *cobra.Command {
	var params devtoken.Params
	var secretEnv string

	cmd := &cobra.Command{
		Use:   "devtoken",
		Short: "Generate a JWT accepted by AUTH_PROVIDER=dev",
		Long: "Generate a JWT with OIDC-shaped claims for AUTH_PROVIDER=dev. The token is signed with HS256\n" +
			"when the secret environment variable is set, unsigned otherwise.",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now().UTC()

			var (
				token string
				err   error
			)
			if secret := os.Getenv(secretEnv); secret != "" {
				token, err = devtoken.BuildSignedToken(params, []byte(secret), now)
			} else {
				token, err = devtoken.BuildUnsignedToken(params, now)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	// Required claims
	cmd.Flags().StringVar(&params.Subject, "sub", "", "sub claim")

	// Optional claims
	cmd.Flags().StringVar(&params.PreferredUsername, "preferred-username", "", "preferred_username claim")
	cmd.Flags().StringVar(&params.Name, "name", "", "name claim")
	cmd.Flags().StringVar(&params.Email, "email", "", "email claim")
	cmd.Flags().DurationVar(&params.ExpiresIn, "expires-in", time.Hour, "token lifetime (e.g. 30m, 2h)")
	cmd.Flags().StringVar(&params.Audience, "audience", "", "override aud")
	cmd.Flags().StringVar(&params.Issuer, "issuer", "", "override iss")
	cmd.Flags().StringVar(&secretEnv, "secret-env", "DEV_JWT_SECRET", "environment variable holding the HS256 secret")

	_ = cmd.MarkFlagRequired("sub")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if params.ExpiresIn <= 0 {
			return errors.New("--expires-in must be positive")
		}
		return nil
	}

	return cmd
}
