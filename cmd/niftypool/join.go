package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/itsharshx/niftypool/internal/account"
	"github.com/itsharshx/niftypool/internal/config"
	"github.com/itsharshx/niftypool/internal/history"
	"github.com/itsharshx/niftypool/internal/joiner"
	"github.com/itsharshx/niftypool/internal/links"
	"github.com/itsharshx/niftypool/internal/logging"
	"github.com/itsharshx/niftypool/internal/results"
	"github.com/itsharshx/niftypool/internal/telegram"
)

func joinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join all groups listed in the links file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			applyJoinFlags(cmd, settings)

			batch, _ := cmd.Flags().GetBool("batch")
			if !batch {
				if err := interactiveSetup(cmd, settings); err != nil {
					return err
				}
				if err := confirmRun(settings); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return runBatch(ctx, settings, !batch)
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session name to use")
	cmd.Flags().Float64P("interval", "i", 0, "Base interval between joins in minutes")
	cmd.Flags().StringP("links-file", "f", "", "File containing group links")
	cmd.Flags().Bool("no-randomize", false, "Disable interval randomization")
	cmd.Flags().Bool("batch", false, "Run non-interactively (no prompts)")
	return cmd
}

// applyJoinFlags overlays explicit flags onto the loaded settings.
func applyJoinFlags(cmd *cobra.Command, s *config.Settings) {
	if v, _ := cmd.Flags().GetString("session"); v != "" {
		s.Session = v
	}
	if v, _ := cmd.Flags().GetFloat64("interval"); v > 0 {
		s.IntervalMinutes = v
	}
	if v, _ := cmd.Flags().GetString("links-file"); v != "" {
		s.LinksFile = v
	}
	if v, _ := cmd.Flags().GetBool("no-randomize"); v {
		s.Randomize = false
	}
}

// interactiveSetup lets the user pick a session and adjust pacing before
// the run. Values set explicitly via flags are not prompted again.
func interactiveSetup(cmd *cobra.Command, s *config.Settings) error {
	if !cmd.Flags().Changed("session") {
		accounts, err := account.NewStore(credentialsPath(s)).List()
		if err != nil {
			return err
		}
		if len(accounts) > 1 {
			options := make([]huh.Option[string], 0, len(accounts))
			for _, acct := range accounts {
				label := acct.SessionName
				if acct.Username != "" {
					label += " (@" + acct.Username + ")"
				}
				options = append(options, huh.NewOption(label, acct.SessionName))
			}
			form := huh.NewForm(huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which account?").
					Options(options...).
					Value(&s.Session),
			))
			if err := form.Run(); err != nil {
				return err
			}
		}
	}

	interval := strconv.FormatFloat(s.IntervalMinutes, 'f', -1, 64)
	var fields []huh.Field
	if !cmd.Flags().Changed("interval") {
		fields = append(fields, huh.NewInput().
			Title("Interval between joins (minutes)").
			Validate(func(v string) error {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return errors.New("enter a number")
				}
				if f < 0 {
					return errors.New("must be >= 0")
				}
				return nil
			}).
			Value(&interval))
	}
	if !cmd.Flags().Changed("no-randomize") {
		fields = append(fields, huh.NewConfirm().
			Title("Randomize intervals?").
			Value(&s.Randomize))
	}
	if len(fields) > 0 {
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return err
		}
		s.IntervalMinutes, _ = strconv.ParseFloat(interval, 64)
	}

	return nil
}

// confirmRun shows the run parameters and asks before starting.
func confirmRun(s *config.Settings) error {
	reqs, err := loadLinks(s.LinksFile)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return nil
	}

	proceed := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Start joining %d groups? (interval %.1f min, session %q)",
				len(reqs), s.IntervalMinutes, s.Session)).
			Value(&proceed),
	))
	if err := form.Run(); err != nil {
		return err
	}
	if !proceed {
		return errors.New("cancelled")
	}
	return nil
}

// loadLinks loads the links file, materializing a template when missing.
func loadLinks(path string) ([]links.Request, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := links.WriteTemplate(path); err != nil {
			return nil, err
		}
		color.Yellowln("Template", path, "created. Add your group links and try again.")
		return nil, nil
	}
	return links.Load(path)
}

// runBatch executes one full join batch: authenticate, join every link,
// export results, print the summary. Interactive mode wires a one-shot
// second-factor prompt into the runner.
func runBatch(ctx context.Context, settings *config.Settings, interactive bool) error {
	logger, closeLog, err := logging.Setup(settings.LogDir, slog.LevelInfo, time.Now())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	reqs, err := loadLinks(settings.LinksFile)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		logger.Info("no links to join", "file", settings.LinksFile)
		return nil
	}

	store := account.NewStore(credentialsPath(settings))
	acct, err := store.Get(settings.Session)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			return fmt.Errorf("no saved credentials for session %q — run \"niftypool login\" first", settings.Session)
		}
		return err
	}

	client := telegram.NewClient(settings.Session, settings.GatewayURL)
	state, err := client.Start(ctx, acct.APIID, acct.APIHash)
	if err != nil {
		if telegram.IsUnauthorized(err) {
			return fmt.Errorf("session %q is no longer authorized — run \"niftypool login\" again", settings.Session)
		}
		return fmt.Errorf("cannot open session %q: %w", settings.Session, err)
	}
	if !state.Authorized {
		return fmt.Errorf("session %q is not authorized — run \"niftypool login\" first", settings.Session)
	}
	if err := store.Touch(settings.Session, time.Now().UTC()); err != nil {
		logger.Warn("failed to update last-used timestamp", "error", err)
	}

	hist, err := history.Open(historyPath(settings))
	if err != nil {
		return err
	}
	defer func() { _ = hist.Close() }()

	cfg := joiner.Config{
		Interval:  time.Duration(settings.IntervalMinutes * float64(time.Minute)),
		Randomize: settings.Randomize,
		Logger:    logger,
		OnResult: func(r results.Result) {
			results.PrintStatus(os.Stdout, r)
			// Record even when the run context was just cancelled: the
			// attempt already happened.
			if err := hist.Record(context.Background(), settings.Session, r); err != nil {
				logger.Warn("failed to record attempt", "error", err)
			}
		},
	}
	if interactive {
		cfg.SecondFactor = promptSecondFactor
	}

	runner := joiner.New(client, cfg)
	out, runErr := runner.Run(ctx, reqs)
	if errors.Is(runErr, joiner.ErrAuth) {
		return runErr
	}

	// Flush whatever was accumulated, interrupted or not.
	if len(out) > 0 {
		path, err := results.Export(settings.ResultsDir, out, time.Now())
		if err != nil {
			logger.Error("failed to export results", "error", err)
		} else {
			logger.Info("results saved", "file", path)
		}
		fmt.Println()
		results.PrintSummary(os.Stdout, out)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if errors.Is(runErr, context.Canceled) {
		color.Yellowln("Run interrupted; results flushed.")
	}
	return nil
}

// promptSecondFactor asks for the two-step verification password.
func promptSecondFactor(_ context.Context) (string, error) {
	var password string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Enter 2FA password").
			EchoMode(huh.EchoModePassword).
			Value(&password),
	))
	if err := form.Run(); err != nil {
		return "", err
	}
	return password, nil
}
