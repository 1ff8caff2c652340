package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/itsharshx/niftypool/internal/account"
	"github.com/itsharshx/niftypool/internal/telegram"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to Telegram and save the session credentials",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("session"); v != "" {
				settings.Session = v
			}

			store := account.NewStore(credentialsPath(settings))
			return login(cmd.Context(), store, settings.GatewayURL, settings.Session)
		},
	}
	cmd.Flags().StringP("session", "s", "", "Session name to use")
	return cmd
}

// login drives the full login flow: credentials, connection, code, and
// the optional second factor. On success the profile is saved.
func login(ctx context.Context, store *account.Store, gatewayURL, sessionName string) error {
	acct, err := resolveCredentials(store, sessionName)
	if err != nil {
		return err
	}

	client := telegram.NewClient(sessionName, gatewayURL)
	state, err := client.Start(ctx, acct.APIID, acct.APIHash)
	if err != nil {
		return fmt.Errorf("connect failed: %w", err)
	}

	if !state.Authorized {
		if err := signIn(ctx, client, &acct); err != nil {
			return err
		}
	}

	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("login verification failed: %w", err)
	}

	acct.Phone = me.Phone
	acct.FirstName = me.FirstName
	acct.Username = me.Username
	now := time.Now().UTC()
	acct.LastUsed = &now
	if err := store.Put(acct); err != nil {
		return err
	}

	color.Greenln("Logged in as", me.FirstName, "(@"+me.Username+")")
	return nil
}

// resolveCredentials loads saved credentials for the session or prompts
// for new ones, offering to reuse what is on disk.
func resolveCredentials(store *account.Store, sessionName string) (account.Account, error) {
	saved, err := store.Get(sessionName)
	if err == nil {
		use := true
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Found saved credentials for %q. Use them?", sessionName)).
				Value(&use),
		))
		if err := form.Run(); err != nil {
			return account.Account{}, err
		}
		if use {
			return saved, nil
		}
	} else if !errors.Is(err, account.ErrNotFound) {
		return account.Account{}, err
	}

	var apiIDStr, apiHash string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Enter API ID").
			Validate(func(s string) error {
				_, err := strconv.Atoi(s)
				return err
			}).
			Value(&apiIDStr),
		huh.NewInput().
			Title("Enter API Hash").
			Value(&apiHash),
	))
	if err := form.Run(); err != nil {
		return account.Account{}, err
	}

	apiID, _ := strconv.Atoi(apiIDStr)
	return account.Account{
		SessionName: sessionName,
		APIID:       apiID,
		APIHash:     apiHash,
	}, nil
}

// signIn runs the phone/code exchange, falling back to the two-step
// verification password when the gateway demands it.
func signIn(ctx context.Context, client *telegram.Client, acct *account.Account) error {
	phone := acct.Phone
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Enter phone number (with country code)").
			Value(&phone),
	))
	if err := form.Run(); err != nil {
		return err
	}

	state, err := client.SendCode(ctx, phone)
	if err != nil {
		return fmt.Errorf("send code failed: %w", err)
	}

	var code string
	form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Enter the verification code").
			Value(&code),
	))
	if err := form.Run(); err != nil {
		return err
	}

	_, err = client.SignIn(ctx, phone, code, state.PhoneCodeHash)
	if telegram.IsPasswordNeeded(err) {
		password, perr := promptSecondFactor(ctx)
		if perr != nil {
			return perr
		}
		if _, err := client.CheckPassword(ctx, password); err != nil {
			return fmt.Errorf("second factor rejected: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	acct.Phone = phone
	return nil
}
