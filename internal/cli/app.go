package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/logging"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/dmitrijs2005/mima/internal/services"
	"github.com/dmitrijs2005/mima/internal/session"
)

// Vault is the service surface the CLI drives. *services.VaultService
// implements it.
type Vault interface {
	State(ctx context.Context) (session.State, error)
	InitAccount(ctx context.Context, passphrase string) error
	Login(ctx context.Context, passphrase string) (string, error)
	Logout(ctx context.Context)
	ChangePassphrase(ctx context.Context, oldPass, newPass string) error

	Create(ctx context.Context, f models.Fields) (*models.RecordView, error)
	Edit(ctx context.Context, id string, f models.Fields) (*models.RecordView, error)
	List(ctx context.Context) ([]models.RecordView, error)
	Search(ctx context.Context, pattern string) ([]models.RecordView, error)
	RecycleBin(ctx context.Context) ([]models.RecordView, error)
	Get(ctx context.Context, id string) (*models.RecordView, error)
	SetFavorite(ctx context.Context, id string, favorite bool) error
	Delete(ctx context.Context, id string) error
	Recover(ctx context.Context, id string) (*models.RecordView, error)
	Purge(ctx context.Context, id string) error

	History(ctx context.Context, recordID string) ([]models.HistoryView, error)
	HistoryEntry(ctx context.Context, id string) (*models.HistoryView, error)
	PurgeHistory(ctx context.Context, id string) error

	Backup(ctx context.Context) (string, error)
	Restore(ctx context.Context, data []byte) (int, error)
}

var _ Vault = (*services.VaultService)(nil)

// App holds the vault and the terminal streams of one CLI session.
type App struct {
	vault  Vault
	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger
}

func NewApp(v Vault, in io.Reader, out io.Writer, log logging.Logger) *App {
	return &App{vault: v, reader: bufio.NewReader(in), out: out, log: log}
}

// Run greets the user, asks for the passphrase when the vault exists and
// then serves commands until exit or EOF.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to mima (type 'help' for commands)")

	switch st, err := a.vault.State(ctx); {
	case err != nil:
		a.report(err)
	case st == session.StateUninitialized:
		fmt.Fprintln(a.out, "No vault yet: run 'init' to choose a passphrase.")
	default:
		a.report(a.Login(ctx, nil))
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	st, err := a.vault.State(ctx)
	return err == nil && st == session.StateLoggedIn
}

// requireSession fails early, before any prompting, when the vault would
// reject the command anyway.
func (a *App) requireSession(ctx context.Context) error {
	st, err := a.vault.State(ctx)
	if err != nil {
		return err
	}
	switch st {
	case session.StateLoggedIn:
		return nil
	case session.StateExpired:
		return common.ErrSessionExpired
	case session.StateUninitialized:
		return common.ErrUninitialized
	default:
		return common.ErrNotLoggedIn
	}
}

func (a *App) status() string {
	st, err := a.vault.State(context.Background())
	if err != nil {
		return "error"
	}
	return st.String()
}

// report prints err in user terms. Recoverable errors get a hint, anything
// else is shown as is and logged.
func (a *App) report(err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, common.ErrNotLoggedIn):
		fmt.Fprintln(a.out, "Not logged in: use 'login' first.")
	case errors.Is(err, common.ErrSessionExpired):
		fmt.Fprintln(a.out, "Session expired: use 'login' again.")
	case errors.Is(err, common.ErrWrongPassphrase):
		fmt.Fprintln(a.out, "Wrong passphrase.")
	case errors.Is(err, common.ErrUninitialized):
		fmt.Fprintln(a.out, "No vault yet: run 'init' first.")
	case errors.Is(err, common.ErrAlreadyInitialized):
		fmt.Fprintln(a.out, "The vault is already initialized.")
	case errors.Is(err, common.ErrorNotFound):
		fmt.Fprintln(a.out, "Not found.")
	case errors.Is(err, services.ErrForeignBackup):
		fmt.Fprintln(a.out, "This backup was made with a different passphrase.")
	case errors.Is(err, common.ErrDuplicateRecord):
		fmt.Fprintln(a.out, "A record with this title and username already exists.")
	case errors.Is(err, common.ErrValidation), errors.Is(err, errUsage), errors.Is(err, errAborted):
		fmt.Fprintln(a.out, err.Error())
	case errors.Is(err, common.ErrDecryption):
		a.log.Error(context.Background(), "decryption failed", "error", err)
		fmt.Fprintln(a.out, "Could not decrypt:", err)
	default:
		a.log.Error(context.Background(), "command failed", "error", err)
		fmt.Fprintln(a.out, "Error:", err)
	}
}

var (
	errUsage   = errors.New("usage")
	errAborted = errors.New("aborted")
)

func usage(text string) error {
	return fmt.Errorf("%w: %s", errUsage, text)
}

// idArg returns args[0] or prompts for an id.
func (a *App) idArg(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", usage("an id is required")
	}
	return id, nil
}

// confirm asks a yes/no question; only "y" or "yes" count as yes.
func (a *App) confirm(question string) (bool, error) {
	answer, err := getSimpleText(a.reader, question+" [y/N]", a.out)
	if err != nil {
		return false, err
	}
	return answer == "y" || answer == "yes", nil
}
