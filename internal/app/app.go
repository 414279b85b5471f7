package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"cfgbk-go/internal/archive"
	"cfgbk-go/internal/bk"
	"cfgbk-go/internal/config"
	"cfgbk-go/internal/database"
	"cfgbk-go/internal/fs"
	"cfgbk-go/internal/input"
	"cfgbk-go/internal/staging"
	"cfgbk-go/internal/taskfile"
)

// Options carries the per-invocation settings shared by every command.
type Options struct {
	Verbose bool
	In      io.Reader // confirmation answers; defaults to os.Stdin
	Out     io.Writer // tables and summaries; defaults to os.Stdout
}

// Request holds the command arguments for one Run. Empty fields fall back
// to the settings file.
type Request struct {
	TasksPath   string // backup: task document
	ArchiveName string // backup: archive label
	ArchivePath string // restore, status: archive to read
	GroupFilter string // restore, status: only this task
	OutputDir   string // backup, restore: where bundles are written
}

// params renders the request for the operation history.
func (r Request) params() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("tasks", r.TasksPath)
	add("name", r.ArchiveName)
	add("archive", r.ArchivePath)
	add("group", r.GroupFilter)
	add("output", r.OutputDir)
	return strings.Join(parts, " ")
}

// App is the application layer between the CLI and bk.Service.
// It constructs all dependencies from config, runs one mode per invocation,
// and records mutating runs in the operation history on Close.
type App struct {
	cfg     *config.Config
	db      bk.Database
	service *bk.Service
	tasks   bk.TaskLoader
	clock   bk.Clock
	logger  *slog.Logger
	logFile *os.File
	out     io.Writer
	op      *Operation
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Backup", "History").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string, opts Options) (*App, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	db, err := database.NewDatabaseFromConfig(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID, level)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	bkLogger := &slogAdapter{l: logger}

	clock := bk.RealClock{}
	idgen := bk.UUIDGenerator{}
	tasks := taskfile.Loader{}

	svc := bk.NewService(bk.Deps{
		Filesystem: fs.NewOSFilesystemManager(cfg.Filesystem.Ignore),
		Archiver:   archive.NewTarGz(bkLogger),
		Staging:    staging.NewArea(idgen),
		Tasks:      tasks,
		Catalog:    db,
		Confirmer:  input.NewLineConfirmer(opts.In, opts.Out),
		Logger:     bkLogger,
		Clock:      clock,
		IDGen:      idgen,
		Out:        opts.Out,
		TableWidth: terminalWidth(opts.Out),
		TempRoot:   cfg.Staging.TempDir,
	})

	return &App{
		cfg:     cfg,
		db:      db,
		service: svc,
		tasks:   tasks,
		clock:   clock,
		logger:  logger,
		logFile: logFile,
		out:     opts.Out,
		op:      NewOperation(operation, ""),
	}, nil
}

// terminalWidth returns the width of w if it is a terminal, else 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// persistOperation saves the operation to the database, giving it an auto-increment ID.
// This should only be called for mutating commands.
func (a *App) persistOperation() error {
	if a.op.Persisted() {
		return nil
	}
	rec, err := a.db.CreateOperation(a.op.Operation, a.op.Parameters, a.clock.Now())
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = rec.ID
	return nil
}

// Run executes one mode. Backup and restore are recorded in the operation
// history; the outcome is written when the App is closed.
func (a *App) Run(ctx context.Context, mode bk.Mode, req Request) error {
	a.op.Operation = mode.String()
	a.op.Parameters = req.params()
	if mode.Mutating() {
		if err := a.persistOperation(); err != nil {
			return err
		}
	}

	a.logger.Debug("operation started", "operation", a.op.Operation, "params", a.op.Parameters)

	var err error
	switch mode {
	case bk.ModeBackup:
		err = a.backup(ctx, req)
	case bk.ModeRestore:
		err = a.restore(ctx, req)
	case bk.ModeStatus:
		err = a.status(ctx, req)
	default:
		err = fmt.Errorf("unsupported mode %v", mode)
	}
	a.op.Status = statusFor(err)
	if a.op.Status == StatusError {
		a.logger.Error("operation failed", "operation", a.op.Operation, "error", err)
	}
	return err
}

func (a *App) outputDir(req Request) string {
	if req.OutputDir != "" {
		return req.OutputDir
	}
	return a.cfg.OutputDir
}

func (a *App) backup(ctx context.Context, req Request) error {
	tasksPath := req.TasksPath
	if tasksPath == "" {
		tasksPath = a.cfg.TasksPath
	}

	tasks, err := a.tasks.Load(tasksPath)
	if err != nil {
		return err
	}

	res, err := a.service.Backup(ctx, bk.BackupRequest{
		Tasks:        tasks,
		ConfigSource: tasksPath,
		OutputDir:    a.outputDir(req),
		Name:         req.ArchiveName,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Backed up %d task(s) to %s\n", res.TaskCount, res.ArchivePath)
	return nil
}

func (a *App) restore(ctx context.Context, req Request) error {
	res, err := a.service.Restore(ctx, bk.RestoreRequest{
		ArchivePath: req.ArchivePath,
		GroupFilter: req.GroupFilter,
		OutputDir:   a.outputDir(req),
	})
	if err != nil {
		if res != nil && res.SafetyArchive != "" {
			fmt.Fprintf(a.out, "Restore stopped. State before the restore saved to %s\n", res.SafetyArchive)
		}
		return err
	}

	restored := 0
	for _, t := range res.Tasks {
		restored += t.Restored
	}
	fmt.Fprintf(a.out, "Restored %d path(s). Previous state saved to %s\n", restored, res.SafetyArchive)
	if failed := res.Failed(); failed > 0 {
		fmt.Fprintf(a.out, "%d path(s) could not be restored; see %s\n", failed, a.cfg.LogDir)
	}
	return nil
}

func (a *App) status(ctx context.Context, req Request) error {
	rows, err := a.service.Status(ctx, req.ArchivePath, req.GroupFilter)
	if err != nil {
		return err
	}
	bk.RenderStatus(a.out, rows, terminalWidth(a.out))
	return nil
}

// History returns the most recent operations and archives.
func (a *App) History(limit int) ([]*bk.OperationRecord, []*bk.ArchiveRecord, error) {
	ops, err := a.db.ListOperations(limit)
	if err != nil {
		return nil, nil, err
	}
	archives, err := a.db.ListArchives(limit)
	if err != nil {
		return nil, nil, err
	}
	return ops, archives, nil
}

// Close finalizes the operation and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.db.FinishOperation(a.op.ID, a.op.Status, a.clock.Now()); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.db.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing database: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
