package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"realtor-agents-scraper/config"
	"realtor-agents-scraper/models"
	"realtor-agents-scraper/scraper/realtor"
	"realtor-agents-scraper/services"
	"realtor-agents-scraper/storage"
	"realtor-agents-scraper/utils"
)

type cliOptions struct {
	zipCodes     string
	zipFile      string
	settingsPath string
	outputFormat string
	outputPath   string
	trialLimit   int
	maxPerZip    int
	cookie       string
	userAgent    string
	logLevel     string
	summary      bool

	trialLimitSet bool
	maxPerZipSet  bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	cmd := &cobra.Command{
		Use:   "realtor-agents",
		Short: "Scrapes realtor.com agent listings for a set of zip codes.",
		Long: "Fetches realtor.com agent search results for each zip code, normalizes the\n" +
			"agent cards and exports them as JSON, CSV or PostgreSQL rows.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.trialLimitSet = cmd.Flags().Changed("trial-limit")
			opts.maxPerZipSet = cmd.Flags().Changed("max-per-zip")
			return run(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.zipCodes, "zip-codes", "", "Comma-separated zip codes to scrape (e.g. 90049,90210)")
	f.StringVar(&opts.zipFile, "zip-file", "", "Path to a JSON file containing a list of zip codes")
	f.StringVar(&opts.settingsPath, "settings", "", "Path to a YAML settings file")
	f.StringVar(&opts.outputFormat, "output-format", storage.FormatJSON, "Output format: json, csv or postgres")
	f.StringVar(&opts.outputPath, "output-path", "", "Output file path (default <output_dir>/agents.<format>)")
	f.IntVar(&opts.trialLimit, "trial-limit", 0, "Stop after this many agents in total")
	f.IntVar(&opts.maxPerZip, "max-per-zip", 0, "Stop each zip code after this many agents")
	f.StringVar(&opts.cookie, "cookie", "", "Value of the "+realtor.SessionCookieName+" session cookie")
	f.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header override")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	f.BoolVar(&opts.summary, "summary", false, "Print a summary table after exporting")
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *cliOptions, stdout, stderr io.Writer) error {
	settings, err := config.Load(opts.settingsPath)
	if err != nil {
		return err
	}
	applyFlags(settings, opts)

	logger := utils.NewLoggerTo(stdout, stderr, utils.ParseLevel(settings.LogLevel))
	logger.Info("=== realtor.com agent scraper starting ===")
	if settings.Source != "" {
		logger.Debug("[config] settings read from %s", settings.Source)
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	if opts.maxPerZipSet && opts.maxPerZip < 0 {
		return fmt.Errorf("%w: --max-per-zip must not be negative, got %d", config.ErrInvalidSettings, opts.maxPerZip)
	}
	zipCodes, err := config.LoadZipCodes(config.ZipSource{List: opts.zipCodes, File: opts.zipFile})
	if err != nil {
		return err
	}

	format := strings.ToLower(strings.TrimSpace(opts.outputFormat))
	outputPath := resolveOutputPath(opts.outputPath, settings.OutputDir, format)
	writer, err := storage.NewWriter(format, outputPath, settings, logger)
	if err != nil {
		return err
	}
	defer writer.Close()

	limiter, err := utils.NewRateLimiter(settings.RateLimitRPM)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	client := realtor.NewClient(realtor.ClientOptions{
		BaseURL:   settings.BaseURL,
		UserAgent: settings.UserAgent,
		Cookie:    settings.Cookie,
	}, limiter, logger)
	extractor := services.NewExtractor(client, services.NewNormalizer(), logger)

	var maxPerZip *int
	if opts.maxPerZipSet {
		maxPerZip = &opts.maxPerZip
	}

	logger.Info("Scraping %d zip code(s): %s | rate: %d/min (%v between requests)",
		len(zipCodes), strings.Join(zipCodes, ", "), settings.RateLimitRPM, limiter.Interval().Round(time.Millisecond))
	if settings.TrialLimit != nil {
		logger.Info("Trial limit: %d agent(s)", *settings.TrialLimit)
	}

	agents := extractor.ExtractForZipCodes(ctx, zipCodes, maxPerZip, settings.TrialLimit)
	if len(agents) == 0 {
		logger.Warn("No agents were extracted. Exiting without writing output.")
		return nil
	}

	if err := writer.Write(agents); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if format == storage.FormatPostgres {
		logger.Info("Scraping complete. Stored %d agents in PostgreSQL (table: agents)", len(agents))
	} else {
		logger.Info("Scraping complete. Wrote %d agents to %s", len(agents), outputPath)
	}

	if opts.summary {
		printSummary(writer, agents, stdout, logger)
	}
	return nil
}

// applyFlags lets explicitly passed CLI flags override loaded settings.
func applyFlags(s *config.Settings, opts *cliOptions) {
	if opts.trialLimitSet {
		limit := opts.trialLimit
		s.TrialLimit = &limit
	}
	if opts.cookie != "" {
		s.Cookie = opts.cookie
	}
	if opts.userAgent != "" {
		s.UserAgent = opts.userAgent
	}
	if opts.logLevel != "" {
		s.LogLevel = opts.logLevel
	}
}

func resolveOutputPath(explicit, outputDir, format string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(outputDir, "agents."+format)
}

// printSummary reports on what the backend stored when it can be read back,
// otherwise on the in-memory agents.
func printSummary(writer storage.AgentWriter, agents []models.Agent, out io.Writer, logger *utils.Logger) {
	if reader, ok := writer.(storage.AgentReader); ok {
		stored, err := reader.FetchAll()
		if err != nil {
			logger.Error("Failed to read stored agents for the summary: %v", err)
		} else {
			agents = stored
		}
	}
	svc := services.NewSummaryService(logger)
	svc.Print(svc.Generate(agents), out)
}
