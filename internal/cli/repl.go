package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	report(err error)

	Init(ctx context.Context, args []string) error
	Login(ctx context.Context, args []string) error
	Logout(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Passwd(ctx context.Context, args []string) error

	List(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Favorite(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Bin(ctx context.Context, args []string) error
	Recover(ctx context.Context, args []string) error
	Purge(ctx context.Context, args []string) error

	History(ctx context.Context, args []string) error
	HistoryShow(ctx context.Context, args []string) error
	HistoryPurge(ctx context.Context, args []string) error

	Backup(ctx context.Context, args []string) error
	Restore(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: init, login, status, (l)ist, search, help, exit"
	helpLoggedIn  = "Available commands: (l)ist, search, add, edit, show, fav, delete, bin, recover, purge, " +
		"history, hshow, hpurge, backup, restore, passwd, status, logout, help, exit"
)

// runREPL reads one command per line from reader, dispatches it to a and
// prints what went wrong, if anything. The prompt carries the session state
// from statusFn. The loop ends on EOF, on "exit"/"quit", or when ctx is done.
//
// The same reader feeds command prompts, so no input is lost to a second
// buffer.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("mima (%s)> ", statusFn()))

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "init":
			cmdErr = a.Init(ctx, args)
		case "login":
			cmdErr = a.Login(ctx, args)
		case "logout":
			cmdErr = a.Logout(ctx, args)
		case "status":
			cmdErr = a.Status(ctx, args)
		case "passwd":
			cmdErr = a.Passwd(ctx, args)

		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "search":
			cmdErr = a.Search(ctx, args)
		case "add":
			cmdErr = a.Add(ctx, args)
		case "edit":
			cmdErr = a.Edit(ctx, args)
		case "show":
			cmdErr = a.Show(ctx, args)
		case "fav":
			cmdErr = a.Favorite(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "bin":
			cmdErr = a.Bin(ctx, args)
		case "recover":
			cmdErr = a.Recover(ctx, args)
		case "purge":
			cmdErr = a.Purge(ctx, args)

		case "history":
			cmdErr = a.History(ctx, args)
		case "hshow":
			cmdErr = a.HistoryShow(ctx, args)
		case "hpurge":
			cmdErr = a.HistoryPurge(ctx, args)

		case "backup":
			cmdErr = a.Backup(ctx, args)
		case "restore":
			cmdErr = a.Restore(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
		a.report(cmdErr)
	}
}
