package dam

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dtnitsch/dam-storage/models"
	"github.com/dtnitsch/dam-storage/pkg/fetcher"
	"github.com/dtnitsch/dam-storage/pkg/resolver"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

type env struct {
	cfg      models.Config
	dams     *models.DamTable
	resolver *resolver.Resolver
	logger   *slog.Logger
	format   string
	quiet    bool
}

func setup(c *cli.Context) (*env, error) {
	format := strings.ToLower(c.String("format"))
	switch format {
	case "text", "json", "yaml":
	default:
		return nil, cli.Exit(fmt.Sprintf("unknown --format %q (text, json, yaml)", format), 2)
	}

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	logLevel := slog.LevelInfo
	if strings.EqualFold(cfg.LogLevel, "debug") {
		logLevel = slog.LevelDebug
	}
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: logLevel}))

	dams, err := loadDams(c.String("dams"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	f, err := fetcher.NewFetcher(cfg.Timeout).WithTextEncoding(cfg.DataEncoding)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	r, err := resolver.New(cfg, f, logger)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	return &env{
		cfg:      cfg,
		dams:     dams,
		resolver: r,
		logger:   logger,
		format:   format,
		quiet:    c.Bool("quiet"),
	}, nil
}

func loadDams(path string) (*models.DamTable, error) {
	if path == "" {
		return models.DefaultDamTable()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dam table: %w", err)
	}
	defer file.Close()
	return models.LoadDamTable(file)
}

func (e *env) progress(c *cli.Context, format string, args ...any) {
	if !e.quiet {
		fmt.Fprintf(c.App.ErrWriter, format+"\n", args...)
	}
}

// GetAction resolves one or more named dams. Every name is checked against the table
// before any request is made.
func GetAction(c *cli.Context) error {
	names := c.Args().Slice()
	if len(names) == 0 {
		return cli.Exit("ダム名を指定してください。例: dam get 矢木沢", 1)
	}

	e, err := setup(c)
	if err != nil {
		return err
	}

	dams := make([]models.Dam, len(names))
	var unknown []string
	for i, name := range names {
		d, err := e.dams.Find(name)
		if err != nil {
			unknown = append(unknown, name)
			continue
		}
		dams[i] = d
	}
	if len(unknown) > 0 {
		return cli.Exit(fmt.Sprintf("%s: %s\n対応ダム: %s",
			errorMessages[errTypeUnknownDam], strings.Join(unknown, ", "), strings.Join(e.dams.Names(), ", ")), 1)
	}

	results := make([]Result, len(dams))
	var g errgroup.Group
	g.SetLimit(e.cfg.WorkerCount)
	for _, d := range dams {
		e.progress(c, "%sダムの貯水率を取得します…", d.Name)
	}
	for i, d := range dams {
		g.Go(func() error {
			reading, err := e.resolver.ResolveStation(c.Context, d.StationID)
			if err != nil {
				e.logger.Debug("failed to resolve station", "dam", d.Name, "station_id", d.StationID, "error", err)
			}
			results[i] = buildResult(d.Name, reading, err)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return e.write(c, results)
}

// AllAction resolves the combined storage rate from the aggregate summary page.
func AllAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}

	e.progress(c, "9ダム合計の貯水率を取得します…")
	reading, err := e.resolver.ResolveAggregate(c.Context)
	if err != nil {
		e.logger.Debug("failed to resolve aggregate", "error", err)
	}
	return e.write(c, []Result{buildResult(aggregateName, reading, err)})
}

// ListAction prints the supported dams.
func ListAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}

	if e.format != "text" {
		return e.encode(c, struct {
			Dams []models.Dam `json:"dams" yaml:"dams"`
		}{Dams: e.dams.Dams()})
	}

	fmt.Fprintln(c.App.Writer, "対応ダム一覧:")
	for _, name := range e.dams.Names() {
		fmt.Fprintf(c.App.Writer, "・%s\n", name)
	}
	return nil
}
