package cmd

import (
	"fmt"

	"github.com/adalundhe/codemod/core/plan"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Inspect edit plans",
}

var planCheckCmd = &cobra.Command{
	Use:   "check <plan.yaml>",
	Short: "Validate a plan and resolve its conflicts without committing",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlanCheck,
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.AddCommand(planCheckCmd)
}

func runPlanCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(rootDir)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr())

	p, err := plan.Load(args[0])
	if err != nil {
		return err
	}

	cfg.Files.Watch = false
	store, closeStore, err := openStore(cmd.Context(), cfg.Files, rootDir, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	mgr := newManager(cfg.Transactions, store, logger)
	defer mgr.RevertAll()

	if err := queuePlan(p, mgr, store, logger); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "plan OK: %d transaction(s) across %d file(s)\n",
		mgr.NumTransactions(), len(mgr.ToCommit()))
	return err
}
