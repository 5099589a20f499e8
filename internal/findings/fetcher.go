package findings

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Afrawles/findingsfetch/internal/config"
	"github.com/Afrawles/findingsfetch/internal/semgrep"
)

type Outcome int

const (
	OutcomeMissingCredentials Outcome = iota + 1
	OutcomeInvalidStartDate
	OutcomeRequestFailed
	OutcomeHTTPError
	OutcomeWriteFailed
	OutcomeWritten
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMissingCredentials:
		return "missing_credentials"
	case OutcomeInvalidStartDate:
		return "invalid_start_date"
	case OutcomeRequestFailed:
		return "request_failed"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeWriteFailed:
		return "write_failed"
	case OutcomeWritten:
		return "written"
	default:
		return "unknown"
	}
}

// Result describes how a run ended. Err is set for every outcome except
// OutcomeWritten and OutcomeHTTPError.
type Result struct {
	Outcome    Outcome
	URL        string
	StatusCode int
	OutputPath string
	Err        error
}

type Fetcher struct {
	Out        io.Writer
	Logger     *slog.Logger
	Location   *time.Location
	HTTPClient *http.Client
	// Spinner, when set, is started around the network call and the
	// returned func stops it.
	Spinner func(description string) func()
}

func New(out io.Writer, logger *slog.Logger) *Fetcher {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		Out:      out,
		Logger:   logger,
		Location: time.Local,
	}
}

// Run fetches the deployment's findings and writes them to cfg.Output.File
// when the API answers with a 2xx status. Failures are reported and logged,
// never returned. Once the inputs are accepted, "Process completed" is
// always the last line printed.
func (f *Fetcher) Run(ctx context.Context, cfg *config.Config) (res Result) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(f.Out, "Your Semgrep token and deployment slug are required to fetch findings")
		return Result{Outcome: OutcomeMissingCredentials, Err: err}
	}

	secs, hasSince, err := EpochSeconds(cfg.Semgrep.StartDate, f.Location)
	if err != nil {
		fmt.Fprintf(f.Out, "Invalid start date: %v\n", err)
		f.Logger.Error("invalid start date", "start_date", cfg.Semgrep.StartDate, "error", err)
		return Result{Outcome: OutcomeInvalidStartDate, Err: err}
	}

	defer fmt.Fprintln(f.Out, "Process completed")

	var since *int64
	if hasSince {
		since = &secs
	}

	client := semgrep.NewClient(cfg.Semgrep.Token,
		semgrep.WithBaseURL(cfg.Semgrep.APIURL),
		semgrep.WithHTTPClient(f.HTTPClient),
	)
	res.URL = client.FindingsURL(cfg.Semgrep.DeploymentSlug, since)

	f.Logger.Info("fetching findings",
		"deployment", cfg.Semgrep.DeploymentSlug,
		"since", cfg.Semgrep.StartDate,
	)

	stop := func() {}
	if f.Spinner != nil {
		stop = f.Spinner("Fetching findings")
	}
	resp, err := client.Findings(ctx, cfg.Semgrep.DeploymentSlug, since)
	stop()

	if err != nil {
		fmt.Fprintln(f.Out, err)
		f.Logger.Error("failed to fetch findings", "url", res.URL, "error", err)
		res.Outcome = OutcomeRequestFailed
		res.Err = err
		return res
	}
	res.StatusCode = resp.StatusCode

	pretty, err := Stringify(resp.Body)
	if err != nil {
		fmt.Fprintln(f.Out, err)
		f.Logger.Error("failed to format response", "error", err)
		res.Outcome = OutcomeRequestFailed
		res.Err = err
		return res
	}

	fmt.Fprintln(f.Out, string(pretty))

	if !resp.OK() {
		f.Logger.Warn("findings request was not successful", "status", resp.StatusCode)
		res.Outcome = OutcomeHTTPError
		return res
	}

	if err := os.WriteFile(cfg.Output.File, pretty, 0644); err != nil {
		fmt.Fprintln(f.Out, err)
		f.Logger.Error("failed to write findings", "file", cfg.Output.File, "error", err)
		res.Outcome = OutcomeWriteFailed
		res.Err = err
		return res
	}

	fmt.Fprintf(f.Out, "Data written to %s file\n", cfg.Output.File)
	f.Logger.Info("findings written", "file", cfg.Output.File, "status", resp.StatusCode)

	res.Outcome = OutcomeWritten
	res.OutputPath = cfg.Output.File
	return res
}
