// Command bundle-import uploads a STIX bundle to an OpenCTI GraphQL endpoint
// and, when the server offers it, validates the resulting import.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/happon/Crawl-Server/internal/bundle"
	"github.com/happon/Crawl-Server/internal/config"
	"github.com/happon/Crawl-Server/internal/importer"
)

type cli struct {
	endpoint   string
	envFile    string
	noValidate bool
	timeout    time.Duration
	insecure   bool
	verbose    bool
	output     string

	logger *zap.Logger
	// newLogger builds the logger once flags are parsed.
	newLogger func(verbose bool) (*zap.Logger, error)
}

func productionLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func newRootCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle-import [bundle]",
		Short: "Upload a STIX bundle to OpenCTI and validate the import",
		Long: `bundle-import sends a bundle file to an OpenCTI GraphQL endpoint with the
multipart upload convention and checks that the server accepted it.

When validation is enabled the server's mutation catalog is introspected and
a matching validation mutation is called for the new import. Validation
problems are reported as warnings; only a rejected upload is a failure.

Settings come from the environment and an optional .env file:
  OPENCTI_URL, OPENCTI_TOKEN, OPENCTI_GRAPHQL_URL, OPENCTI_SSL_VERIFY,
  OPENCTI_TIMEOUT, OPENCTI_PROBE_TIMEOUT, OPENCTI_VALIDATE,
  OPENCTI_BUNDLE, CRAWL_SERVER_ROOT`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.logger != nil {
				return nil
			}
			logger, err := c.newLogger(c.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		RunE: c.run,
	}

	flags := cmd.Flags()
	flags.StringVar(&c.endpoint, "endpoint", "", "GraphQL endpoint URL (overrides OPENCTI_GRAPHQL_URL and OPENCTI_URL)")
	flags.StringVar(&c.envFile, "env-file", "", "dotenv file to read (default .env when present)")
	flags.BoolVar(&c.noValidate, "no-validate", false, "skip introspection and validation after the upload")
	flags.DurationVar(&c.timeout, "timeout", 0, "per-request timeout (overrides OPENCTI_TIMEOUT)")
	flags.BoolVar(&c.insecure, "insecure", false, "skip TLS certificate verification")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	flags.StringVarP(&c.output, "output", "o", outputText, "result format: text, json or yaml")
	return cmd
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	switch c.output {
	case outputText, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", c.output)
	}

	opts := config.Options{EnvFile: c.envFile, Endpoint: c.endpoint}
	if len(args) == 1 {
		opts.BundlePath = args[0]
	}
	settings, err := config.Load(opts)
	if err != nil {
		return err
	}
	if c.noValidate {
		settings.Validate = false
	}
	if c.insecure {
		settings.SSLVerify = false
	}
	if cmd.Flags().Changed("timeout") {
		settings.Timeout = c.timeout
	}

	im, err := importer.New(settings.Importer(), importer.WithLogger(c.logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	text := c.output == outputText
	if text {
		fmt.Fprintf(out, "Endpoint: %s\n", im.Endpoint())
	}

	var res *importer.Result
	file, loadErr := bundle.Load(settings.BundlePath)
	if loadErr != nil {
		res, err = im.Run(cmd.Context(), settings.BundlePath)
	} else {
		if text {
			printSummary(out, file)
		}
		res, err = im.RunFile(cmd.Context(), file)
	}

	if text {
		printResult(out, res)
		return err
	}
	if encErr := writeReport(out, c.output, newReport(im.Endpoint(), settings.BundlePath, res)); encErr != nil {
		return encErr
	}
	return err
}

func printSummary(w io.Writer, file *bundle.File) {
	fmt.Fprintf(w, "Bundle: %s (%d bytes)\n", file.Path, file.Size())
	summary, ok := bundle.Summarize(file.Content)
	if !ok {
		return
	}
	types := make([]string, 0, len(summary.Types))
	for _, tc := range summary.Types {
		types = append(types, fmt.Sprintf("%s=%d", tc.Type, tc.Count))
	}
	fmt.Fprintf(w, "  type=%s objects=%d types={%s}\n", summary.Type, summary.ObjectCount, strings.Join(types, ", "))
}

func printResult(w io.Writer, res *importer.Result) {
	if res == nil {
		return
	}
	if !res.Succeeded() {
		fmt.Fprintf(w, "Import failed: %v\n", res.Err)
		for _, gqlErr := range res.Err.GraphQLErrors {
			fmt.Fprintf(w, "  server error: %s\n", gqlErr.Message)
		}
		return
	}

	fmt.Fprintf(w, "Import accepted: id=%s name=%s status=%s\n", res.ImportID, res.ImportName, res.UploadStatus)
	switch res.Validation {
	case importer.ValidationSucceeded:
		fmt.Fprintf(w, "Validation: triggered via %s(%s)\n", res.Capability.Operation, res.Capability.Argument)
	case importer.ValidationUnsupported:
		fmt.Fprintf(w, "Validation: manual validation required (%s)\n", res.Capability.Reason)
	default:
		fmt.Fprintf(w, "Validation: %s\n", res.Validation)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "Warning: %v\n", warn)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := &cli{newLogger: productionLogger}
	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
