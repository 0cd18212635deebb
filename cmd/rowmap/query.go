package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/rowmap/pkg/config"
	"github.com/ajitpratap0/rowmap/pkg/errors"
	"github.com/ajitpratap0/rowmap/pkg/json"
	"github.com/ajitpratap0/rowmap/pkg/logger"
	"github.com/ajitpratap0/rowmap/pkg/models"
	"github.com/ajitpratap0/rowmap/pkg/observability"
	"github.com/ajitpratap0/rowmap/pkg/query"
	"github.com/ajitpratap0/rowmap/pkg/structure"
)

// RecordList is the materialized output of the query command.
type RecordList = structure.List[*models.Record]

func newQueryCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ROWMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query and print composed records as JSON lines",
		Long: `Run a query and print one JSON object per composed row.

Example:
  rowmap query --driver pgx --dsn "$DATABASE_URL" --split-on id \
    "SELECT o.id, o.total, c.id, c.name FROM orders o JOIN customers c ON c.id = o.customer_id"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			format, err := outputFormat(v.GetString("format"))
			if err != nil {
				return err
			}
			statement, err := readStatement(args, v.GetString("file"), cmd.InOrStdin())
			if err != nil {
				return err
			}
			return runQuery(cmd.Context(), cfg, v, statement, format, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "Path to a YAML configuration file")
	flags.String("driver", "", "Database driver (pgx, mysql, snowflake)")
	flags.String("dsn", "", "Data source name")
	flags.StringP("file", "f", "", "Read the statement from a file ('-' for stdin)")
	flags.StringSlice("split-on", nil, "First column of each child record, in order")
	flags.Bool("strict", false, "Fail when a column maps to no record")
	flags.Duration("timeout", 0, "Cancel the read after this long; rows read so far are still printed")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.Bool("trace", false, "Print OpenTelemetry spans to stderr")
	flags.String("format", string(json.FormatLines), "Output format (lines, array)")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address while running")

	return cmd
}

// loadConfig layers flags and ROWMAP_* variables over the YAML file or the
// defaults.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if s := v.GetString("driver"); s != "" {
		cfg.Database.Driver = s
	}
	if s := v.GetString("dsn"); s != "" {
		cfg.Database.DSN = s
	}
	if split := v.GetStringSlice("split-on"); len(split) > 0 {
		cfg.Reader.SplitOn = split
	}
	if v.GetBool("strict") {
		cfg.Reader.StrictColumns = true
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.Logging.Level = s
	}
	if s := v.GetString("metrics-addr"); s != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = s
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid configuration")
	}
	if err := cfg.Database.ValidateDatabase(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid database configuration")
	}
	return cfg, nil
}

func outputFormat(s string) (json.Format, error) {
	switch f := json.Format(strings.ToLower(s)); f {
	case "", json.FormatLines:
		return json.FormatLines, nil
	case json.FormatArray:
		return f, nil
	default:
		return "", errors.New(errors.ErrorTypeValidation, fmt.Sprintf("unknown output format %q", s))
	}
}

func readStatement(args []string, file string, stdin io.Reader) (string, error) {
	switch {
	case len(args) == 1 && file != "":
		return "", errors.New(errors.ErrorTypeValidation, "give the statement as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], nil
	case file == "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read statement file %s: %w", file, err)
		}
		return string(b), nil
	default:
		return "", errors.New(errors.ErrorTypeValidation, "a statement is required")
	}
}

// newRecordReader composes one record per split segment and attaches the
// later records as children of the first.
func newRecordReader(cfg *config.Config) (*structure.ListReader[*models.Record], error) {
	children := make([]reflect.Type, len(cfg.Reader.SplitOn))
	for i := range children {
		children[i] = structure.TypeOf[*models.Record]()
	}
	return structure.NewListReader[*models.Record](
		structure.WithComponents(children...),
		structure.WithMerger(structure.MergeFunc(models.AttachChildren)),
		structure.WithConfig(cfg),
		structure.WithName("cli"),
	)
}

func runQuery(parent context.Context, cfg *config.Config, v *viper.Viper, statement string, format json.Format, out io.Writer) error {
	if parent == nil {
		parent = context.Background()
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("component", "rowmap-cli"), zap.String("driver", cfg.Database.Driver))

	if v.GetBool("trace") {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:  "rowmap",
			SamplingRate: 1,
			Writer:       os.Stderr,
		})
		if err != nil {
			return err
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Address, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := v.GetDuration("timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	queryID := uuid.NewString()
	ctx = logger.ContextWithQueryID(ctx, queryID)
	log = log.With(zap.String("query_id", queryID))

	reader, err := newRecordReader(cfg)
	if err != nil {
		return err
	}
	executor := query.NewExecutor(query.WithRetryPolicy(query.NewRetryPolicy(cfg.Retry)))

	log.Debug("running query", zap.Int("arity", reader.Arity()))
	start := time.Now()

	records, err := execute(ctx, cfg, executor, reader, statement)
	if werr := writeRecords(out, records, format); werr != nil {
		return werr
	}
	if errors.IsCancelled(err) {
		log.Warn("query cancelled, output is partial", zap.Int("rows", records.Len()))
		return err
	}
	if err != nil {
		return err
	}
	log.Info("query completed",
		zap.Int("rows", records.Len()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func execute(ctx context.Context, cfg *config.Config, executor *query.Executor, reader *structure.ListReader[*models.Record], statement string) (*RecordList, error) {
	if cfg.Database.Driver == config.DriverPgx {
		pool, err := query.OpenPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		return query.QueryPgx[*RecordList](ctx, executor, pool, reader, statement)
	}

	db, err := query.OpenDB(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return query.Query[*RecordList](ctx, executor, db, reader, statement)
}

// writeRecords prints the records as JSON lines or as one JSON array.
func writeRecords(out io.Writer, records *RecordList, format json.Format) error {
	enc := json.NewStreamingEncoder(out, format)
	for rec := range records.All() {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return enc.Close()
}
