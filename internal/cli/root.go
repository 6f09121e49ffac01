// Package cli provides the command-line interface for rowkit.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/coderi421/rowkit/internal/config"
	"github.com/coderi421/rowkit/orm"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var Version = "0.1.0"

// app 一次命令执行需要的全部状态，PersistentPreRunE 里面初始化
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
	db      *orm.DB
	closers []closer
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "rowkit",
		Short:         "rowkit - inspect databases managed by the rowkit ORM",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return a.setup(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./rowkit.yaml)")
	pf.String("driver", config.DriverSQLite, "database driver: sqlite3 or mysql")
	pf.String("dsn", "", "data source name")
	pf.BoolP("verbose", "v", false, "log every statement")

	rootCmd.AddCommand(newTablesCmd(a), newExistsCmd(a))
	// RunE 返回 error 的时候 cobra 不会执行 PersistentPostRunE，所以在 RunE 里面关闭
	for _, sub := range rootCmd.Commands() {
		if run := sub.RunE; run != nil {
			sub.RunE = func(cmd *cobra.Command, args []string) error {
				return errors.Join(run(cmd, args), a.close(cmd.Context()))
			}
		}
	}
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	a.db, a.closers, err = openDB(cmd.Context(), cfg, a.logger)
	return err
}

func (a *app) close(ctx context.Context) error {
	var err error
	// 倒序关闭，DB 是最后一个打开的
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, a.closers[i](ctx))
	}
	a.closers = nil
	return err
}

// Execute runs the root command and exits with a non-zero code on failure.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
