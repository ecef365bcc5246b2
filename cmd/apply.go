package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/adalundhe/codemod/core/config"
	"github.com/adalundhe/codemod/core/files"
	"github.com/adalundhe/codemod/core/plan"
	"github.com/adalundhe/codemod/core/storage"
	"github.com/adalundhe/codemod/core/transaction"
	"github.com/adalundhe/codemod/core/vcs"
	"github.com/spf13/cobra"
)

var errDirtyWorktree = errors.New("worktree has uncommitted changes")

var (
	applyDryRun          bool
	applyOnly            []string
	applyMaxTransactions int
	applyMaxDuration     time.Duration
	applyRequireClean    bool
	applyFormat          string
)

var applyCmd = &cobra.Command{
	Use:   "apply <plan.yaml>",
	Short: "Queue and commit the edits of a plan",
	Long: `Queue every edit of a plan, resolve conflicts between them, then commit
the affected files. Limit errors stop queueing but still commit what was queued;
conflict errors abort without touching any file.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Print the resolved queue without committing")
	applyCmd.Flags().StringSliceVar(&applyOnly, "only", nil, "Only commit files matching these glob patterns")
	applyCmd.Flags().IntVar(&applyMaxTransactions, "max-transactions", 0, "Cap on queued transactions (0 disables)")
	applyCmd.Flags().DurationVar(&applyMaxDuration, "max-duration", 0, "Deadline for queueing the plan (0 disables)")
	applyCmd.Flags().BoolVar(&applyRequireClean, "require-clean", false, "Refuse to apply on a dirty git worktree")
	applyCmd.Flags().StringVarP(&applyFormat, "format", "f", "text", "Output format (text, json)")
}

type applyOptions struct {
	DryRun bool
	Format OutputFormat
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("max-transactions") {
		cfg.Transactions.MaxTransactions = applyMaxTransactions
	}
	if flags.Changed("max-duration") {
		cfg.Transactions.MaxDuration = applyMaxDuration
	}
	if flags.Changed("require-clean") {
		cfg.Commit.RequireClean = applyRequireClean
	}
	if flags.Changed("only") {
		cfg.Commit.Include = applyOnly
	}

	logger := newLogger(cfg.Log, cmd.ErrOrStderr())
	opts := applyOptions{DryRun: applyDryRun, Format: parseOutputFormat(applyFormat)}
	return applyPlan(cmd.Context(), cfg, logger, rootDir, args[0], opts, cmd.OutOrStdout())
}

func loadConfig(root string) (*config.Config, error) {
	m := config.NewManager(storage.ResolveDirs(), root)
	if err := m.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := *m.Get()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return &cfg, nil
}

func applyPlan(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	root, planPath string,
	opts applyOptions,
	out io.Writer,
) error {
	if cfg.Commit.RequireClean {
		if err := requireClean(root); err != nil {
			return err
		}
	}

	p, err := plan.Load(planPath)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg.Files, root, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr := newManager(cfg.Transactions, store, logger)
	if err := queuePlan(p, mgr, store, logger); err != nil {
		return err
	}

	if opts.DryRun {
		_, err := fmt.Fprint(out, mgr.TransactionsString())
		mgr.RevertAll()
		return err
	}

	paths, err := selectFiles(mgr, cfg.Commit.Include)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		logger.Warn("no queued files match the include patterns", "include", cfg.Commit.Include)
		mgr.RevertAll()
		return writeDiffs(out, opts.Format, nil)
	}

	diffs, err := mgr.Commit(paths)
	if err != nil {
		_ = writeDiffs(out, opts.Format, diffs)
		return fmt.Errorf("commit: %w", err)
	}
	return writeDiffs(out, opts.Format, diffs)
}

func requireClean(root string) error {
	repo, err := vcs.Open(root)
	if err != nil {
		return fmt.Errorf("require clean worktree: %w", err)
	}

	dirty, err := repo.DirtyFiles()
	if err != nil {
		return err
	}
	if len(dirty) > 0 {
		return fmt.Errorf("%w: %s", errDirtyWorktree, strings.Join(dirty, ", "))
	}
	return nil
}

func openStore(ctx context.Context, cfg config.FilesConfig, root string, logger *slog.Logger) (*files.DiskStore, func(), error) {
	store, err := files.NewDiskStore(files.DiskConfig{
		Root:        root,
		MaxFileSize: cfg.MaxFileSize,
		CacheSize:   cfg.CacheSize,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}

	if !cfg.Watch {
		return store, func() {}, nil
	}

	cw, err := store.Watch(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("watch %s: %w", store.Root(), err)
	}
	return store, func() { _ = cw.Close() }, nil
}

func newManager(cfg config.TransactionsConfig, store files.Store, logger *slog.Logger) *transaction.Manager {
	return transaction.NewManager(transaction.ManagerConfig{
		Store:           store,
		Logger:          logger,
		MaxTransactions: cfg.MaxTransactions,
		MaxDuration:     cfg.MaxDuration,
	})
}

// queuePlan queues p into mgr. Limit errors end queueing but keep what was
// queued; any other error discards the queue.
func queuePlan(p *plan.Plan, mgr *transaction.Manager, store files.Store, logger *slog.Logger) error {
	accepted, err := p.Queue(mgr, store)
	switch {
	case err == nil:
	case errors.Is(err, transaction.ErrMaxTransactionsExceeded), errors.Is(err, transaction.ErrMaxPreviewTimeExceeded):
		logger.Warn("limit reached, keeping queued edits", "error", err, "queued", mgr.NumTransactions())
	default:
		mgr.RevertAll()
		return fmt.Errorf("queue plan: %w", err)
	}

	logger.Info("plan queued",
		"edits", len(p.Edits),
		"accepted", accepted,
		"transactions", mgr.NumTransactions(),
		"files", len(mgr.ToCommit()),
	)
	return nil
}

func selectFiles(mgr *transaction.Manager, include []string) ([]string, error) {
	if len(include) == 0 {
		return mgr.ToCommit(), nil
	}
	return mgr.ToCommitMatching(include...)
}
