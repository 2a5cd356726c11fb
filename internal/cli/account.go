package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mima/internal/common"
)

// readPassphrase prompts for a passphrase and wipes the raw bytes once they
// are copied into the returned string.
func (a *App) readPassphrase(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}

// Init chooses the vault passphrase. It asks twice and refuses a mismatch.
func (a *App) Init(ctx context.Context, _ []string) error {
	first, err := a.readPassphrase("Choose a passphrase")
	if err != nil {
		return err
	}
	second, err := a.readPassphrase("Repeat the passphrase")
	if err != nil {
		return err
	}
	if first != second {
		return fmt.Errorf("%w: passphrases do not match", common.ErrValidation)
	}

	if err := a.vault.InitAccount(ctx, first); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Vault created, you are logged in.")
	return nil
}

// Login asks for the passphrase and prints the probe text on success.
func (a *App) Login(ctx context.Context, _ []string) error {
	passphrase, err := a.readPassphrase("Passphrase")
	if err != nil {
		return err
	}
	probe, err := a.vault.Login(ctx, passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, probe)
	return nil
}

// Passwd changes the vault passphrase. The new one is asked twice.
func (a *App) Passwd(ctx context.Context, _ []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	current, err := a.readPassphrase("Current passphrase")
	if err != nil {
		return err
	}
	first, err := a.readPassphrase("New passphrase")
	if err != nil {
		return err
	}
	second, err := a.readPassphrase("Repeat the new passphrase")
	if err != nil {
		return err
	}
	if first != second {
		return fmt.Errorf("%w: passphrases do not match", common.ErrValidation)
	}

	if err := a.vault.ChangePassphrase(ctx, current, first); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Passphrase changed.")
	return nil
}

func (a *App) Logout(ctx context.Context, _ []string) error {
	a.vault.Logout(ctx)
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Status(ctx context.Context, _ []string) error {
	st, err := a.vault.State(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Session:", st)
	return nil
}
