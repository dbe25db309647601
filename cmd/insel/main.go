package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pg-sharding/spqr-insel/pkg/config"
	"github.com/pg-sharding/spqr-insel/pkg/datashard"
	"github.com/pg-sharding/spqr-insel/pkg/meta"
	"github.com/pg-sharding/spqr-insel/pkg/plan"
	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
	"github.com/pg-sharding/spqr-insel/pkg/xact"
	"github.com/pg-sharding/spqr-insel/qdb"
	"github.com/pg-sharding/spqr-insel/router/dispatch"
	"github.com/pg-sharding/spqr-insel/router/insertselect"
	"github.com/pg-sharding/spqr-insel/router/selectinto"
	"github.com/pg-sharding/spqr-insel/router/twopc"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	planPath string
	dryRun   bool
)

var rootCmd = &cobra.Command{
	Use:   "spqr-insel run --config `path-to-config` --plan `path-to-plan`",
	Short: "spqr-insel",
	Long:  "Coordinator-side INSERT ... SELECT over a sharded PostgreSQL installation",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		spqrlog.Zero.Fatal().Err(err).Msg("")
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "/etc/spqr-insel/config.yaml", "path to config file")

	runCmd.Flags().StringVarP(&planPath, "plan", "p", "", "path to distributed plan file")
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve the plan against metadata without touching shards")
	_ = runCmd.MarkFlagRequired("plan")

	planCmd.AddCommand(planValidateCmd)
	metaCmd.AddCommand(metaApplyCmd)
	metaCmd.AddCommand(metaShowCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(metaCmd)
}

func loadConfig() (*config.Coordinator, error) {
	cfgStr, err := config.LoadCoordinatorCfg(cfgPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	cfg := config.CoordinatorConfig()

	spqrlog.ReloadLogger(cfg.LogFile, cfg.LogLevel, cfg.PrettyLog)
	spqrlog.ReloadSLogger(cfg.LogMinDurationStatement)
	spqrlog.Zero.Debug().Str("config", cfgStr).Msg("loaded config")
	return cfg, nil
}

func openQDB(cfg *config.Coordinator) (qdb.QDB, error) {
	db, err := qdb.NewQDB(qdb.Config{
		Type:       cfg.Qdb.Type,
		Addr:       cfg.Qdb.Addr,
		BackupPath: cfg.Qdb.BackupPath,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open qdb")
	}
	return db, nil
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "execute INSERT ... SELECT plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		p, err := plan.LoadPlan(planPath)
		if err != nil {
			return errors.Wrap(err, "failed to load plan")
		}

		db, err := openQDB(cfg)
		if err != nil {
			return err
		}
		mgr := meta.NewQdbEntityMgr(db)

		if dryRun {
			return describe(ctx, cmd, mgr, p)
		}

		if cfg.Executor.CommitStrategy == config.CommitStrategy2PC && p.WorkerJob != nil {
			spqrlog.Zero.Warn().
				Str("relation", p.TargetRelationID).
				Msg("intermediate results are temporary tables, the statement fails to commit if it touches more than one shard")
		}

		if cfg.Source == nil {
			return errors.New("source connection is not configured")
		}
		src, err := datashard.Connect(ctx, "source", cfg.Source)
		if err != nil {
			return errors.Wrap(err, "failed to connect to source")
		}
		defer func() {
			if err := src.Close(context.Background()); err != nil {
				spqrlog.Zero.Error().Err(err).Msg("failed to close source connection")
			}
		}()

		pool := datashard.NewConnPool(cfg.Shards)
		defer pool.Close(context.Background())

		txCtx := xact.NewTxContext(pool)
		driver := selectinto.NewDriver(
			mgr,
			selectinto.NewPgxQueryExecutor("source", src),
			datashard.NewCopyProvider(txCtx, cfg.Executor.WriterQueueDepth),
			txCtx,
			cfg.Executor.BatchSize,
		)

		scan := insertselect.NewScanState(p, insertselect.Deps{
			Inserter: driver,
			Metadata: mgr,
			Locker:   mgr,
			Executor: dispatch.NewPgxExecutor(txCtx, cfg.Executor.MaxParallelTasks),
			Tx:       txCtx,
		})

		out := cmd.OutOrStdout()
		header := false
		for {
			row, ok, err := scan.Next(ctx)
			if err != nil {
				if rerr := txCtx.Rollback(context.Background()); rerr != nil {
					spqrlog.Zero.Error().Err(rerr).Msg("failed to rollback")
				}
				return errors.Wrap(err, "INSERT ... SELECT failed")
			}
			if !ok {
				break
			}
			if !header {
				_, _ = fmt.Fprintln(out, strings.Join(scan.Columns(), "\t"))
				header = true
			}
			vals := make([]string, len(row))
			for i, v := range row {
				vals[i] = fmt.Sprint(v)
			}
			_, _ = fmt.Fprintln(out, strings.Join(vals, "\t"))
		}

		spqrlog.Zero.Debug().
			Strs("shards", txCtx.Shards()).
			Bool("data-modified", txCtx.DataModified()).
			Msg("statement finished")

		if err := txCtx.Commit(ctx, twopc.NewCommitter(cfg.Executor.CommitStrategy, db)); err != nil {
			return errors.Wrap(err, "failed to commit")
		}

		_, err = fmt.Fprintf(out, "INSERT 0 %d\n", scan.RowsProcessed())
		return err
	},
}

// describe prints how the plan maps to shards of the target relation.
func describe(ctx context.Context, cmd *cobra.Command, mgr meta.EntityMgr, p *plan.DistributedPlan) error {
	target, err := mgr.TargetRelation(ctx, p.TargetRelationID)
	if err != nil {
		return err
	}
	idx, err := selectinto.PartitionColumnIndex(ctx, mgr, target, p.InsertTargetList)
	if err != nil {
		return err
	}
	krs, err := mgr.ListShardIntervals(ctx, target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "relation: %s\nmethod: %s\ncolumns: %s\npartition column position: %d\n",
		target.ID, target.Method, strings.Join(p.ColumnNames(), ", "), idx)
	for _, krg := range krs {
		_, _ = fmt.Fprintf(out, "key range %s: shard %s from %v\n", krg.ID, krg.ShardID, krg.LowerBound)
	}
	if p.WorkerJob != nil {
		for _, t := range p.WorkerJob.TaskList {
			_, _ = fmt.Fprintf(out, "task %d: shard %s\n", t.TaskID, t.AnchorShardID)
		}
	}
	return nil
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "inspect distributed plans",
}

var planValidateCmd = &cobra.Command{
	Use:   "validate `path-to-plan`",
	Short: "check that a plan file is well formed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.LoadPlan(args[0])
		if err != nil {
			return errors.Wrap(err, "invalid plan")
		}
		if err := selectinto.CheckSelect(p.InsertSelectSubquery.Text); err != nil {
			return errors.Wrap(err, "invalid plan")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "plan for relation %s is valid\n", p.TargetRelationID)
		return err
	},
}

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "manage sharding metadata in qdb",
}

var metaApplyCmd = &cobra.Command{
	Use:   "apply `path-to-manifest`",
	Short: "create shards, distributions, relations and key ranges from a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mf, err := meta.LoadManifest(args[0])
		if err != nil {
			return errors.Wrap(err, "failed to load manifest")
		}
		db, err := openQDB(cfg)
		if err != nil {
			return err
		}
		if err := meta.NewQdbEntityMgr(db).ApplyManifest(cmd.Context(), mf); err != nil {
			return errors.Wrap(err, "failed to apply manifest")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "applied %d shards and %d distributions\n", len(mf.Shards), len(mf.Distributions))
		return err
	},
}

var metaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print shards, distributions and key ranges stored in qdb",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := openQDB(cfg)
		if err != nil {
			return err
		}
		return showMeta(cmd.Context(), cmd, meta.NewQdbEntityMgr(db))
	},
}

func showMeta(ctx context.Context, cmd *cobra.Command, mgr meta.EntityMgr) error {
	out := cmd.OutOrStdout()

	shards, err := mgr.ListShards(ctx)
	if err != nil {
		return err
	}
	for _, sh := range shards {
		_, _ = fmt.Fprintf(out, "shard %s: %s\n", sh.ID, strings.Join(sh.Cfg.Hosts, ", "))
	}

	dss, err := mgr.ListDistributions(ctx)
	if err != nil {
		return err
	}
	for _, ds := range dss {
		_, _ = fmt.Fprintf(out, "distribution %s (%s)\n", ds.Id, strings.Join(ds.ColTypes, ", "))
		for name, rel := range ds.Relations {
			_, _ = fmt.Fprintf(out, "  relation %s: %s\n", name, rel.Method)
		}
		krs, err := mgr.ListKeyRanges(ctx, ds.Id)
		if err != nil {
			return err
		}
		for _, krg := range krs {
			_, _ = fmt.Fprintf(out, "  key range %s: shard %s from %v\n", krg.ID, krg.ShardID, krg.LowerBound)
		}
	}
	return nil
}

func main() {
	Execute()
}
