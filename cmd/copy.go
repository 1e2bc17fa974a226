package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/D3f0/dbglue/internal/copier"
	"github.com/D3f0/dbglue/internal/server"
	"github.com/D3f0/dbglue/internal/utils"
)

// copyOptions holds the parsed copy flags
type copyOptions struct {
	config      copier.Config
	update      bool
	monitorPort int
}

// copyCmd represents the copy command
var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy table data from source to destination database",
	Long: `Copy rows of the selected tables from the source database to the destination.
Only columns present in both tables are copied. Rows are read and written in batches;
each batch is committed in its own transaction.

By default any missing table, schema mismatch or failed batch aborts the run.
With --warn-only the problem is logged, the table is skipped and the run continues.

Examples:
  dbglue copy -s postgresql://u:p@host1/app -d sqlite:////tmp/app.db -t users -t orders
  dbglue -S mysql://u:p@host/shop -D postgres://u:p@host/shop copy --all-tables --exclude-tables "tmp_*"
  dbglue copy --source-file source.conn --dest-file dest.conn -a -w -b 5000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sourceConn, _ := cmd.Flags().GetString("source")
		destConn, _ := cmd.Flags().GetString("destination")
		sourceFile, _ := cmd.Flags().GetString("source-file")
		destFile, _ := cmd.Flags().GetString("dest-file")
		tables, _ := cmd.Flags().GetStringArray("table")
		allTables, _ := cmd.Flags().GetBool("all-tables")
		excludeTables, _ := cmd.Flags().GetStringSlice("exclude-tables")
		warnOnly, _ := cmd.Flags().GetBool("warn-only")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		update, _ := cmd.Flags().GetBool("update")
		monitorPort, _ := cmd.Flags().GetInt("monitor-port")

		opts := copyOptions{
			config: copier.Config{
				SourceConn:    connectionURL(sourceConn, sourceKey),
				DestConn:      connectionURL(destConn, destinationKey),
				SourceFile:    sourceFile,
				DestFile:      destFile,
				Tables:        tables,
				AllTables:     allTables,
				ExcludeTables: excludeTables,
				WarnOnly:      warnOnly,
				BatchSize:     batchSize,
				Mode:          copier.InsertOnly,
			},
			update:      update,
			monitorPort: monitorPort,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runCopy(ctx, opts, logger, cmd.OutOrStdout())
	},
}

// runCopy executes one copy run and writes the statistics box to out.
func runCopy(ctx context.Context, opts copyOptions, logger *utils.Logger, out io.Writer) error {
	start := time.Now()
	config := opts.config

	if missing := missingEndpoint(&config); missing != "" {
		if config.WarnOnly {
			logger.Warn("No %s database given, nothing to copy", missing)
			return nil
		}
		return fmt.Errorf("%w: no %s database given, use --%s, -%s or %s",
			utils.ErrInvalidConfig, missing, missing, globalShorthand(missing), globalEnv(missing))
	}
	if opts.update {
		logger.Warn("Update mode is not supported yet, rows are inserted only")
	}

	c, err := copier.Open(ctx, &config, copier.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			logger.Warn("Failed to close connections: %v", cerr)
		}
	}()

	if opts.monitorPort > 0 {
		monitor := server.NewMonitor(c.State(), fmt.Sprintf(":%d", opts.monitorPort), logger)
		if err := monitor.Start(ctx); err != nil {
			logger.Warn("Monitor disabled: %v", err)
		} else {
			defer func() { _ = monitor.Shutdown(context.Background()) }()
		}
	}

	result, err := c.Run(ctx)
	if result != nil {
		copier.PrintStats(out, result)
	}
	if err != nil {
		logger.Error("Copy stopped after %s: %v", utils.FormatDuration(time.Since(start)), err)
		return err
	}
	logger.Elapsed(time.Since(start), "Copy finished")
	return nil
}

func missingEndpoint(config *copier.Config) string {
	if config.SourceConn == "" && config.SourceFile == "" {
		return "source"
	}
	if config.DestConn == "" && config.DestFile == "" {
		return "destination"
	}
	return ""
}

func globalShorthand(endpoint string) string {
	if endpoint == "source" {
		return "S"
	}
	return "D"
}

func globalEnv(endpoint string) string {
	if endpoint == "source" {
		return "SOURCE_DB"
	}
	return "DEST_DB"
}

func init() {
	rootCmd.AddCommand(copyCmd)

	copyCmd.Flags().StringP("source", "s", "", "Source database URL (postgresql://, mysql://, sqlite:///path)")
	copyCmd.Flags().StringP("destination", "d", "", "Destination database URL")
	copyCmd.Flags().String("source-file", "", "File containing the source database URL")
	copyCmd.Flags().String("dest-file", "", "File containing the destination database URL")
	copyCmd.Flags().StringArrayP("table", "t", nil, "Table to copy (repeatable, processed in order)")
	copyCmd.Flags().BoolP("all-tables", "a", false, "Copy every table of the source database")
	copyCmd.Flags().StringSlice("exclude-tables", []string{}, "Tables to exclude with --all-tables (supports wildcards: temp_*,*_logs)")
	copyCmd.Flags().BoolP("warn-only", "w", false, "Log and skip failing tables instead of aborting")
	copyCmd.Flags().IntP("batch-size", "b", copier.DefaultBatchSize, "Rows per batch and per transaction")
	copyCmd.Flags().BoolP("update", "u", false, "Update existing rows (not supported yet, rows are inserted)")
	copyCmd.Flags().Int("monitor-port", 0, "Serve a live progress monitor on this port (0 disables it)")
}
