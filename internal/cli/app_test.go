package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/mima/internal/backup"
	"github.com/dmitrijs2005/mima/internal/common"
	"github.com/dmitrijs2005/mima/internal/config"
	"github.com/dmitrijs2005/mima/internal/logging"
	"github.com/dmitrijs2005/mima/internal/models"
	"github.com/dmitrijs2005/mima/internal/repositories/repomanager"
	"github.com/dmitrijs2005/mima/internal/services"
	"github.com/dmitrijs2005/mima/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPassphrase = "pw"

type harness struct {
	svc       *services.VaultService
	out       *bytes.Buffer
	backupDir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	stubTerminal(t, false)

	repos, err := repomanager.Open(context.Background(), config.DriverSQLite, filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repos.Close() })

	dir := filepath.Join(t.TempDir(), "backups")
	svc := services.NewVaultService(repos, session.NewManager(0), backup.NewFileStore(dir), logging.Discard())
	return &harness{svc: svc, out: &bytes.Buffer{}, backupDir: dir}
}

// app builds an App whose input is the given lines.
func (h *harness) app(lines ...string) *App {
	in := strings.Join(lines, "\n") + "\n"
	return NewApp(h.svc, strings.NewReader(in), h.out, logging.Discard())
}

func (h *harness) initialized(t *testing.T) *harness {
	t.Helper()
	require.NoError(t, h.svc.InitAccount(context.Background(), testPassphrase))
	return h
}

func (h *harness) record(t *testing.T, title, user, pw, notes string) *models.RecordView {
	t.Helper()
	v, err := h.svc.Create(context.Background(), models.Fields{Title: title, Username: user, Password: pw, Notes: notes})
	require.NoError(t, err)
	return v
}

func TestRun_InitAddListExit(t *testing.T) {
	h := newHarness(t)
	repl := capturePrintln(t)

	h.app(
		"init", "secret", "secret",
		"add", "mail", "me", "hunter2", "first line", "second line", "",
		"list",
		"exit",
	).Run(context.Background())

	out := h.out.String()
	assert.Contains(t, out, "No vault yet")
	assert.Contains(t, out, "Vault created")
	assert.Contains(t, out, "Created ")
	assert.Contains(t, out, "mail")
	assert.Contains(t, out, models.Mask)
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, repl.String(), "Bye!")

	views, err := h.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 1)
	got, err := h.svc.Get(context.Background(), views[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", got.Notes)
	assert.Equal(t, "hunter2", got.Password)
}

func TestRun_ExistingVaultAsksForPassphrase(t *testing.T) {
	h := newHarness(t).initialized(t)
	h.svc.Logout(context.Background())
	capturePrintln(t)

	h.app("wrong", "login", testPassphrase, "status").Run(context.Background())

	out := h.out.String()
	assert.Contains(t, out, "Wrong passphrase.")
	assert.Contains(t, out, models.ProbeText)
	assert.Contains(t, out, "Session: logged in")
}

func TestInit_MismatchedPassphrases(t *testing.T) {
	h := newHarness(t)
	err := h.app("one", "two").Init(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrValidation)

	st, err := h.svc.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StateUninitialized, st)
}

func TestAdd_RequiresSessionBeforePrompting(t *testing.T) {
	h := newHarness(t).initialized(t)
	h.svc.Logout(context.Background())

	err := h.app("mail").Add(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrNotLoggedIn)
	assert.Empty(t, h.out.String())
}

func TestAdd_TitleRequired(t *testing.T) {
	h := newHarness(t).initialized(t)
	err := h.app("").Add(context.Background(), nil)
	require.ErrorIs(t, err, common.ErrValidation)
}

func TestAdd_DuplicateRepromptsWithRejectedInput(t *testing.T) {
	h := newHarness(t).initialized(t)
	h.record(t, "mail", "me", "", "")

	err := h.app(
		"mail", "me", "pw", "kept notes", "",
		"y",
		"mail2", "", "", "",
	).Add(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, h.out.String(), "already exists")
	assert.Contains(t, h.out.String(), "Title [mail]")

	found, err := h.svc.Search(context.Background(), "mail2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	got, err := h.svc.Get(context.Background(), found[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.Fields{Title: "mail2", Username: "me", Password: "pw", Notes: "kept notes"}, got.Fields())
}

func TestAdd_DuplicateGiveUp(t *testing.T) {
	h := newHarness(t).initialized(t)
	h.record(t, "mail", "me", "", "")

	err := h.app("mail", "me", "", "", "n").Add(context.Background(), nil)
	require.ErrorIs(t, err, errAborted)
}

func TestEdit_KeepsAndClearsFields(t *testing.T) {
	h := newHarness(t).initialized(t)
	v := h.record(t, "mail", "me", "pw", "notes")

	err := h.app("", "-", "", "").Edit(context.Background(), []string{v.ID})
	require.NoError(t, err)

	got, err := h.svc.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Fields{Title: "mail", Username: "", Password: "pw", Notes: "notes"}, got.Fields())

	hist, err := h.svc.History(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestEdit_PromptsForID(t *testing.T) {
	h := newHarness(t).initialized(t)
	v := h.record(t, "mail", "me", "pw", "")

	err := h.app(v.ID, "renamed", "", "", "").Edit(context.Background(), nil)
	require.NoError(t, err)

	got, err := h.svc.Get(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
}

func TestShowFavoriteAndSearch(t *testing.T) {
	h := newHarness(t).initialized(t)
	v := h.record(t, "Mailbox", "me", "pw", "line1\nline2")
	a := h.app()
	ctx := context.Background()

	require.NoError(t, a.Show(ctx, []string{v.ID}))
	out := h.out.String()
	assert.Contains(t, out, "Password: pw")
	assert.Contains(t, out, "  line2")

	require.NoError(t, a.Favorite(ctx, []string{v.ID}))
	got, err := h.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, got.Favorite)

	require.NoError(t, a.Favorite(ctx, []string{v.ID, "off"}))
	got, err = h.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, got.Favorite)

	require.ErrorIs(t, a.Favorite(ctx, []string{v.ID, "maybe"}), errUsage)

	h.out.Reset()
	require.NoError(t, a.Search(ctx, []string{"box"}))
	assert.Contains(t, h.out.String(), "Mailbox")

	require.ErrorIs(t, a.Show(ctx, []string{"missing"}), common.ErrorNotFound)
}

func TestDeleteBinRecoverPurge(t *testing.T) {
	h := newHarness(t).initialized(t)
	v := h.record(t, "mail", "me", "pw", "")
	ctx := context.Background()

	require.NoError(t, h.app().Delete(ctx, []string{v.ID}))

	h.out.Reset()
	require.NoError(t, h.app().Bin(ctx, nil))
	assert.Contains(t, h.out.String(), v.ID)
	assert.Contains(t, h.out.String(), "pw")

	require.ErrorIs(t, h.app().Edit(ctx, []string{v.ID}), common.ErrValidation)

	require.NoError(t, h.app().Recover(ctx, []string{v.ID}))
	assert.Contains(t, h.out.String(), "Recovered as \"mail (")

	require.ErrorIs(t, h.app("n").Purge(ctx, []string{v.ID}), errAborted)
	require.NoError(t, h.app("y").Purge(ctx, []string{v.ID}))
	_, err := h.svc.Get(ctx, v.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestHistoryCommands(t *testing.T) {
	h := newHarness(t).initialized(t)
	v := h.record(t, "mail", "me", "pw", "")
	ctx := context.Background()
	require.NoError(t, h.svc.Delete(ctx, v.ID))

	hist, err := h.svc.History(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	hid := hist[0].ID

	require.NoError(t, h.app().History(ctx, []string{v.ID}))
	assert.Contains(t, h.out.String(), hid)

	h.out.Reset()
	require.NoError(t, h.app(hid).HistoryShow(ctx, nil))
	assert.Contains(t, h.out.String(), "Record:   "+v.ID)

	require.NoError(t, h.app("yes").HistoryPurge(ctx, []string{hid}))
	_, err = h.svc.HistoryEntry(ctx, hid)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestBackupCommand(t *testing.T) {
	h := newHarness(t).initialized(t)
	h.record(t, "mail", "me", "hunter2", "")

	require.NoError(t, h.app().Backup(context.Background(), nil))
	assert.Contains(t, h.out.String(), "Backup written: mima-backup-")

	entries, err := os.ReadDir(h.backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	data, err := os.ReadFile(filepath.Join(h.backupDir, entries[0].Name()))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hunter2")
}

func TestPasswdCommand(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t).initialized(t)
	v := h.record(t, "mail", "me", "hunter2", "")

	require.ErrorIs(t, h.app(testPassphrase, "a", "b").Passwd(ctx, nil), common.ErrValidation)
	require.ErrorIs(t, h.app("nope", "new", "new").Passwd(ctx, nil), common.ErrWrongPassphrase)

	require.NoError(t, h.app(testPassphrase, "new", "new").Passwd(ctx, nil))
	assert.Contains(t, h.out.String(), "Passphrase changed.")

	h.svc.Logout(ctx)
	_, err := h.svc.Login(ctx, testPassphrase)
	require.ErrorIs(t, err, common.ErrWrongPassphrase)
	_, err = h.svc.Login(ctx, "new")
	require.NoError(t, err)
	got, err := h.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Password)
}

func TestPasswd_RequiresSession(t *testing.T) {
	h := newHarness(t).initialized(t)
	h.svc.Logout(context.Background())

	require.ErrorIs(t, h.app().Passwd(context.Background(), nil), common.ErrNotLoggedIn)
}

func TestRestoreCommand(t *testing.T) {
	ctx := context.Background()
	src := newHarness(t).initialized(t)
	v := src.record(t, "mail", "me", "hunter2", "notes")
	require.NoError(t, src.app().Backup(ctx, nil))
	entries, err := os.ReadDir(src.backupDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	path := filepath.Join(src.backupDir, entries[0].Name())

	dst := newHarness(t).initialized(t)
	require.NoError(t, dst.app(path).Restore(ctx, nil))
	assert.Contains(t, dst.out.String(), "Restored 1 records.")

	got, err := dst.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Fields{Title: "mail", Username: "me", Password: "hunter2", Notes: "notes"}, got.Fields())

	require.ErrorIs(t, dst.app().Restore(ctx, []string{path}), common.ErrDuplicateRecord)
	require.ErrorIs(t, dst.app().Restore(ctx, []string{filepath.Join(t.TempDir(), "nope.json")}), os.ErrNotExist)
	require.ErrorIs(t, dst.app("").Restore(ctx, nil), errUsage)
}

func TestEdit_ClearsSecretsWithMarker(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t).initialized(t)
	v := h.record(t, "mail", "me", "pw", "notes")

	require.NoError(t, h.app("", "", clearMarker, clearMarker, "").Edit(ctx, []string{v.ID}))

	got, err := h.svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Fields{Title: "mail", Username: "me"}, got.Fields())

	list, err := h.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Password)
	assert.Empty(t, list[0].Notes)
}

func TestReport(t *testing.T) {
	h := newHarness(t)
	a := h.app()

	cases := map[error]string{
		common.ErrNotLoggedIn:        "Not logged in",
		common.ErrSessionExpired:     "Session expired",
		common.ErrUninitialized:      "No vault yet",
		common.ErrAlreadyInitialized: "already initialized",
		common.ErrorNotFound:         "Not found.",
		usage("fav <id>"):            "fav <id>",
		services.ErrForeignBackup:    "different passphrase",
		assert.AnError:               "Error: ",
	}
	for err, want := range cases {
		h.out.Reset()
		a.report(err)
		assert.Contains(t, h.out.String(), want)
	}

	h.out.Reset()
	a.report(nil)
	assert.Empty(t, h.out.String())
}
