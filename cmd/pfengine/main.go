/*
main.go - pfengine command line entry point

PURPOSE:
  One binary for the HTTP API, the scheduled jobs and ad-hoc calculations.
  Configuration comes from an optional file, PF_ environment variables and
  flags, in increasing precedence.

COMMANDS:
  serve      Run the API server and job scheduler
  detect     Run exception detection once
  cycle      Create pending reconciliations for a month
  calc       SDA and MRRC calculators
  parse      Parse a rental statement text file
  classify   Classify a document text file
  token      Issue a bearer token for the cron endpoints

GRACEFUL SHUTDOWN:
  SIGINT/SIGTERM cancel the command context. serve then stops the scheduler,
  drains requests for up to 30s and closes the database.

SEE ALSO:
  - config/config.go: keys and defaults
  - api/server.go: router
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/propertyfriends/pf-engine/config"
	"github.com/propertyfriends/pf-engine/store/sqlstore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var version = "dev"

// app is the state shared by every command once configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *logrus.Logger
	now     func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), now: time.Now}
	root := &cobra.Command{
		Use:   "pfengine",
		Short: "SDA property financial engine",
		Long: `pfengine prices SDA dwellings, drafts NDIS claims, reconciles rental
statements and raises exceptions for the operations team.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (YAML or JSON)")
	flags.String("db", "pf.db", "database DSN: SQLite path or postgres:// URL")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	_ = a.v.BindPFlag("database.dsn", flags.Lookup("db"))
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(serveCmd(a))
	root.AddCommand(detectCmd(a))
	root.AddCommand(cycleCmd(a))
	root.AddCommand(calcCmd(a))
	root.AddCommand(parseCmd(a))
	root.AddCommand(classifyCmd(a))
	root.AddCommand(tokenCmd(a))
	root.AddCommand(versionCmd())
	return root
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) initConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.LoadViper(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger()
	return nil
}

// openStore opens the configured database. Callers close it.
func (a *app) openStore() (*sqlstore.Store, error) {
	return sqlstore.New(a.cfg.Database.DSN, a.logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pfengine", version)
		},
	}
}
