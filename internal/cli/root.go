package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"opsconsole/internal/infra/node"
)

var titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

func NewRootCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:               "opsconsole <command> [flags]",
		Short:             "Operations console for tenant inventory, purchasing and access",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.prepare()
		},
		Run: func(cmd *cobra.Command, args []string) {
			a.printf("%s\n%s\n", titleStyle.Render("opsconsole"), cmd.UsageString())
		},
	}

	bindFlags(cmd.PersistentFlags(), a)

	cmd.AddCommand(
		newLoginCmd(a),
		newVerifyCmd(a),
		newResendCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newDeleteCmd(a),
		newActionCmd(a),
		newTransferCmd(a),
		newScrapCmd(a),
		newPurchaseRequestCmd(a),
		newWatchCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// bindFlags lets flags override the loaded configuration in place.
func bindFlags(fs *pflag.FlagSet, a *App) {
	cfg := &a.Config
	fs.StringVar(&a.tenant, "tenant", "", "Tenant schema name (defaults to the signed-in tenant)")
	fs.StringVar(&cfg.API.BaseURLTemplate, "base-url", cfg.API.BaseURLTemplate, "Tenant API url template containing {tenant}")
	fs.StringVar(&cfg.Storage.Backend, "storage", cfg.Storage.Backend, "Session storage backend: file, memory or redis")
	fs.StringVar(&cfg.Storage.Path, "storage-path", cfg.Storage.Path, "Session file of the file backend")
	fs.StringVar(&cfg.General.LogLevel, "log-level", cfg.General.LogLevel, "Log level: debug, info, warn or error")
	fs.DurationVar(&cfg.Session.IdleTimeout, "idle-timeout", cfg.Session.IdleTimeout, "Idle time before automatic logout")
}

func newVersionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		// the logger and storage are not needed here
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			info := node.GetNodeInfo()
			a.printf("opsconsole %s (%s)\n", info.Version, info.CommitHash)
		},
	}
}
