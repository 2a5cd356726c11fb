package cli

import (
	"context"
	"fmt"
	"os"
)

func (a *App) History(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "Record id")
	if err != nil {
		return err
	}
	views, err := a.vault.History(ctx, id)
	if err != nil {
		return err
	}
	printHistory(a.out, views)
	return nil
}

func (a *App) HistoryShow(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "History entry id")
	if err != nil {
		return err
	}
	v, err := a.vault.HistoryEntry(ctx, id)
	if err != nil {
		return err
	}
	printHistoryEntry(a.out, v)
	return nil
}

func (a *App) HistoryPurge(ctx context.Context, args []string) error {
	id, err := a.idArg(args, "History entry id")
	if err != nil {
		return err
	}
	ok, err := a.confirm("Remove the history entry for good?")
	if err != nil {
		return err
	}
	if !ok {
		return errAborted
	}
	if err := a.vault.PurgeHistory(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Purged.")
	return nil
}

func (a *App) Backup(ctx context.Context, _ []string) error {
	name, err := a.vault.Backup(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Backup written:", name)
	return nil
}

// Restore reads a backup document from a local file and adds its records
// to the vault.
func (a *App) Restore(ctx context.Context, args []string) error {
	if err := a.requireSession(ctx); err != nil {
		return err
	}
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		var err error
		if path, err = getSimpleText(a.reader, "Backup file", a.out); err != nil {
			return err
		}
	}
	if path == "" {
		return usage("restore <file>")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	n, err := a.vault.Restore(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Restored %d records.\n", n)
	return nil
}
