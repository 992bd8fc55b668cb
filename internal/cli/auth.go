package cli

import (
	"time"

	"github.com/spf13/cobra"

	"opsconsole/internal/auth"
	"opsconsole/internal/infra/storage"
	"opsconsole/internal/otp"
)

func newLoginCmd(a *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Send credentials; the server emails a verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.Flow(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			if err := flow.Login(cmd.Context(), email, password); err != nil {
				return a.fail(err)
			}
			a.printf("%s\n", flow.Message())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newVerifyCmd(a *App) *cobra.Command {
	var email, code string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Exchange the emailed verification code for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.Flow(cmd.Context())
			if err != nil {
				return a.fail(err)
			}

			// the code goes through the widget as a paste so separators are dropped
			widget, err := otp.New(otp.DefaultLength)
			if err != nil {
				return err
			}
			widget.Paste(code)

			s, err := flow.VerifyOTP(cmd.Context(), email, widget.Value())
			if err != nil {
				if msg := flow.Message(); msg != "" {
					a.printf("%s\n", msg)
				}
				return a.fail(err)
			}
			a.printf("Signed in to %s\n", s.Tenant)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&code, "code", "", "Verification code")
	return cmd
}

func newResendCmd(a *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Ask for a new verification code",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.Flow(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			flow.ResendOTP(cmd.Context(), email)
			a.printf("%s\n", flow.Message())
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			flow, err := a.Flow(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			return a.fail(flow.Logout(cmd.Context()))
		},
	}
}

func newStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			tenant, err := a.Tenant(ctx)
			if err != nil {
				return a.fail(err)
			}

			access, _, err := storage.GetJSON[string](ctx, a.Storage, storage.KeyAccessToken)
			if err != nil {
				return a.fail(err)
			}
			refresh, _, err := storage.GetJSON[string](ctx, a.Storage, storage.KeyRefreshToken)
			if err != nil {
				return a.fail(err)
			}

			a.printf("tenant: %s\n", tenant)
			if access == "" || refresh == "" {
				a.printf("session: signed out\n")
				return nil
			}
			if auth.Expired(refresh, a.Clock.Now()) {
				a.printf("session: expired\n")
				return nil
			}
			a.printf("session: signed in\n")
			if exp, ok := auth.TokenExpiry(access); ok {
				a.printf("access token expires: %s\n", exp.Local().Format(time.RFC3339))
			}
			if millis, found, err := storage.GetJSON[int64](ctx, a.Storage, storage.KeyLastActivityTime); err == nil && found {
				a.printf("last activity: %s\n", time.UnixMilli(millis).Local().Format(time.RFC3339))
			}
			return nil
		},
	}
}
