package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/dmitrijs2005/mima/internal/services"
)

// clearMarker entered at an edit prompt empties the field.
const clearMarker = "-"

func withDefault(input, def string) string {
	switch input {
	case "":
		return def
	case clearMarker:
		return ""
	default:
		return input
	}
}

func hint(def string) string {
	if def == "" {
		return ""
	}
	return fmt.Sprintf(" [%s]", def)
}

// promptFields asks for every record field. Enter keeps the value from
// defaults and "-" clears it.
func (a *App) promptFields(defaults models.Fields) (models.Fields, error) {
	var f models.Fields

	title, err := getSimpleText(a.reader, "Title"+hint(defaults.Title), a.out)
	if err != nil {
		return f, err
	}
	f.Title = withDefault(title, defaults.Title)
	if strings.TrimSpace(f.Title) == "" {
		return f, fmt.Errorf("%w: title is required", common.ErrValidation)
	}

	username, err := getSimpleText(a.reader, "Username"+hint(defaults.Username), a.out)
	if err != nil {
		return f, err
	}
	f.Username = withDefault(username, defaults.Username)

	prompt := "Password (Enter for none)"
	if defaults.Password != "" {
		prompt = "Password (Enter keeps the current one, '-' clears it)"
	}
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return f, err
	}
	f.Password = withDefault(string(pw), defaults.Password)
	common.WipeByteArray(pw)

	notesPrompt := "Notes" + hint(firstLine(defaults.Notes))
	if defaults.Notes != "" {
		notesPrompt += " (empty keeps them, '-' clears them)"
	}
	notes, err := getMultiline(a.reader, notesPrompt, a.out)
	if err != nil {
		return f, err
	}
	f.Notes = withDefault(notes, defaults.Notes)

	return f, nil
}

func firstLine(s string) string {
	line, _, found := strings.Cut(s, "\n")
	if found {
		return line + " ..."
	}
	return line
}

// saveFields runs save until it succeeds, fails for good, or the user gives
// up after a duplicate. A rejected input becomes the defaults of the next
// round, so nothing typed is lost.
func (a *App) saveFields(defaults models.Fields, save func(models.Fields) (*models.RecordView, error)) (*models.RecordView, error) {
	for {
		f, err := a.promptFields(defaults)
		if err != nil {
			return nil, err
		}

		v, err := save(f)
		var inErr *services.InputError
		if !errors.As(err, &inErr) {
			return v, err
		}

		a.report(err)
		again, err := a.confirm("Change the input and try again?")
		if err != nil {
			return nil, err
		}
		if !again {
			return nil, errAborted
		}
		defaults = inErr.Input
	}
}

func (a *App) List(ctx context.Context, _ []string) error {
	views, err := a.vault.List(ctx)
	if err != nil {
		return err
	}
	printRecords(a.out, views)
	return nil
}

func (a *App) Search(ctx context.Context, args []string) error {
	pattern := strings.Join(args, " ")
	if pattern == "" {
		var err error
		if pattern, err = getSimpleText(a.reader, "Search titles for", a.out); err != nil {
			return err
		}
	}
	views, err := a.vault.Search(ctx, pattern)
	if err != nil {
		return err
	}
	printRecords(a.out, views)
	return nil
}

func (a *App) Add(ctx context.Context, _ []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	v, err := a.saveFields(models.Fields{}, func(f models.Fields) (*models.RecordView, error) {
		return a.vault.Create(ctx, f)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Created", v.ID)
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Record id to edit")
	if err != nil {
		return err
	}
	current, err := a.vault.Get(ctx, id)
	if err != nil {
		return err
	}
	if current.DeletedAt != nil {
		return fmt.Errorf("%w: recover the record before editing it", common.ErrValidation)
	}

	v, err := a.saveFields(current.Fields(), func(f models.Fields) (*models.RecordView, error) {
		return a.vault.Edit(ctx, id, f)
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved", v.ID)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Record id to show")
	if err != nil {
		return err
	}
	v, err := a.vault.Get(ctx, id)
	if err != nil {
		return err
	}
	printRecord(a.out, v)
	return nil
}

// Favorite takes "fav <id> [on|off]"; the flag defaults to on.
func (a *App) Favorite(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Record id")
	if err != nil {
		return err
	}
	on := true
	if len(args) > 1 {
		switch args[1] {
		case "on", "yes", "true":
		case "off", "no", "false":
			on = false
		default:
			return usage("fav <id> [on|off]")
		}
	}
	if err := a.vault.SetFavorite(ctx, id, on); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Record id to delete")
	if err != nil {
		return err
	}
	if err := a.vault.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Moved to the recycle bin.")
	return nil
}

func (a *App) Bin(ctx context.Context, _ []string) error {
	views, err := a.vault.RecycleBin(ctx)
	if err != nil {
		return err
	}
	printRecords(a.out, views)
	return nil
}

func (a *App) Recover(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Record id to recover")
	if err != nil {
		return err
	}
	v, err := a.vault.Recover(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recovered as %q.\n", v.Title)
	return nil
}

func (a *App) Purge(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Record id to purge")
	if err != nil {
		return err
	}
	ok, err := a.confirm("Remove the record for good?")
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	if err := a.vault.Purge(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Purged.")
	return nil
}
