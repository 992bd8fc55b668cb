package cli

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"opsconsole/internal/console"
	"opsconsole/internal/form"
	"opsconsole/internal/inventory"
	"opsconsole/internal/session"
)

const stayCommand = "stay"

func newWatchCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep the session open while input shows activity",
		Long: "Reads one activity event per input line (mousemove, keydown, click, ...). " +
			"Typing \"stay\" after the expiry warning keeps the session. " +
			"The session is signed out after the idle timeout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			client, err := a.Client(ctx)
			if err != nil {
				return a.fail(err)
			}
			tenant := client.Tenant()

			cat, err := a.newCatalog(inventory.NewProviders(client))
			if err != nil {
				return a.fail(err)
			}
			defer cat.Close()

			refresher, err := form.NewOptionRefresher(a.Config.Options.RefreshSchedule, cat.products, cat.locations)
			if err != nil {
				return a.fail(err)
			}
			var wg sync.WaitGroup
			wg.Add(1)
			go refresher.Run(ctx, wg.Done)
			defer wg.Wait()
			defer refresher.Shutdown()

			var (
				mu        sync.Mutex
				countdown *session.Countdown
			)
			stopCountdown := func() {
				mu.Lock()
				defer mu.Unlock()
				if countdown != nil {
					countdown.Stop()
					countdown = nil
				}
			}

			loggedOut := make(chan struct{})
			manager, err := session.NewManagerBuilder().
				WithClock(a.Clock).
				WithStorage(a.Storage).
				WithConfig(session.Config{
					IdleTimeout:     a.Config.Session.IdleTimeout,
					WarningDuration: a.Config.Session.WarningDuration,
					Events:          a.Config.Session.Events,
				}).
				WithOnWarning(func(remaining time.Duration) {
					c := session.NewCountdown(a.Clock, remaining, func(seconds int) {
						a.printf("Session expires in %ds. Type %q to keep it.\n", seconds, stayCommand)
					})
					mu.Lock()
					countdown = c
					mu.Unlock()
					c.Start()
				}).
				WithOnLogout(func() {
					stopCountdown()
					a.printf("Signed out after inactivity\n")
					a.Navigator.Navigate(console.Login(tenant))
					close(loggedOut)
				}).
				Build()
			if err != nil {
				return a.fail(err)
			}
			if err := manager.Start(ctx); err != nil {
				return a.fail(err)
			}
			defer manager.Stop()

			a.Navigator.Navigate(console.Dashboard(tenant))
			lines := readLines(ctx, a.In)
			for {
				select {
				case <-loggedOut:
					return nil
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						lines = nil
						continue
					}
					if line == stayCommand {
						stopCountdown()
						if err := manager.StayLoggedIn(ctx); err != nil {
							slog.Warn("keeping session", slog.String("error", err.Error()))
						}
						continue
					}
					if manager.Activity(ctx, line) {
						stopCountdown()
					}
				}
			}
		},
	}
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.TrimSpace(scanner.Text()):
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
