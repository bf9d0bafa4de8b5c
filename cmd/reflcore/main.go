// Command reflcore assembles neutron-reflectometry measurement artifacts
// into linked lakehouse records.
//
//	reflcore ingest   -reduced FILE [-metadata FILE] [-model FILE] [-store] [-export FORMATS]
//	reflcore validate -reduced FILE [-metadata FILE] [-model FILE]
//	reflcore detect   -reduced FILE -model FILE
package main

import (
	"context"
	"encoding/json"
	"expvar"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reflcore/internal/assembly"
	"reflcore/internal/blob"
	"reflcore/internal/catalog"
	"reflcore/internal/export"
	"reflcore/internal/infra/persistence"
	"reflcore/internal/instruments"
	"reflcore/internal/reduced"
	"reflcore/internal/refl1d"
	"reflcore/internal/validation"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "ingest":
		err = runIngest(os.Args[2:], log)
	case "validate":
		err = runValidate(os.Args[2:], log)
	case "detect":
		err = runDetect(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: reflcore <command> [flags]

commands:
  ingest     assemble records from input files, optionally store and export
  validate   assemble and report validation issues (exit 1 on errors)
  detect     report which model experiment matches a reduced curve`)
}

type inputFlags struct {
	reduced  string
	metadata string
	model    string
}

func bindInputFlags(fs *flag.FlagSet) *inputFlags {
	in := &inputFlags{}
	fs.StringVar(&in.reduced, "reduced", "", "reduced reflectivity data file (required)")
	fs.StringVar(&in.metadata, "metadata", "", "instrument metadata JSON file")
	fs.StringVar(&in.model, "model", "", "refl1d model JSON file")
	return in
}

func (in *inputFlags) assemble(ctx context.Context, log *slog.Logger) (*assembly.Outcome, error) {
	if in.reduced == "" {
		return nil, fmt.Errorf("-reduced is required")
	}
	asm := assembly.New(instruments.DefaultRegistry(), metricsOptions(log)...)
	return asm.Assemble(ctx, assembly.Inputs{
		ReducedPath:  in.reduced,
		MetadataPath: in.metadata,
		ModelPath:    in.model,
	})
}

// metricsOptions wires assembly metrics when REFLCORE_METRICS_ADDR names a
// listen address: a prometheus registry served on /metrics, with the
// process expvar surface on /debug/vars.
func metricsOptions(log *slog.Logger) []assembly.Option {
	addr := os.Getenv("REFLCORE_METRICS_ADDR")
	if addr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics listener stopped", "error", err)
		}
	}()
	return []assembly.Option{assembly.WithMetrics(assembly.NewPrometheusMetrics(reg))}
}

func runIngest(args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	in := bindInputFlags(fs)
	store := fs.Bool("store", false, "persist records to the configured catalog backend")
	exportFormats := fs.String("export", "", "comma-separated export formats (json,csv,parquet)")
	asJSON := fs.Bool("json", false, "print the full outcome as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	out, err := in.assemble(ctx, log)
	if err != nil {
		return err
	}

	report := validation.Validate(out)
	if *asJSON {
		payload, err := json.MarshalIndent(map[string]any{
			"outcome":    out,
			"validation": report,
			"valid":      report.IsValid(),
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(payload))
	} else {
		fmt.Println(out.Summary())
	}
	for _, issue := range report.Issues {
		log.Warn("validation issue", "severity", issue.Severity, "field", issue.Field, "message", issue.Message)
	}

	if *store {
		cat, err := persistence.Open(ctx)
		if err != nil {
			return fmt.Errorf("open catalog: %w", err)
		}
		defer func() { _ = cat.Close() }()
		if err := catalog.SaveOutcome(ctx, cat, out); err != nil {
			return err
		}
		log.Info("records stored", "driver", os.Getenv("REFLCORE_STORAGE_DRIVER"))
	}

	if *exportFormats != "" {
		if err := runExport(ctx, out, *exportFormats, log); err != nil {
			return err
		}
	}

	if !report.IsValid() {
		return fmt.Errorf("assembly has %d validation error(s)", len(report.Errors()))
	}
	return nil
}

func runExport(ctx context.Context, out *assembly.Outcome, formats string, log *slog.Logger) error {
	store, err := blob.Open(ctx)
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	var list []export.Format
	for _, name := range strings.Split(formats, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			list = append(list, export.Format(name))
		}
	}

	worker := export.NewWorker(store, &export.MemoryAuditLog{}, log)
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	record, err := worker.Enqueue(ctx, export.Request{Outcome: out, Formats: list, RequestedBy: "reflcore-cli"})
	if err != nil {
		return err
	}
	deadline := time.Now().Add(time.Minute)
	for time.Now().Before(deadline) {
		current, ok := worker.Get(record.ID)
		if ok && current.Status == export.StatusSucceeded {
			for _, artifact := range current.Artifacts {
				log.Info("artifact written", "key", artifact.Key, "format", artifact.Format, "bytes", artifact.SizeBytes)
			}
			return nil
		}
		if ok && current.Status == export.StatusFailed {
			return fmt.Errorf("export failed: %s", current.Error)
		}
		time.Sleep(20 * time.Millisecond)
	}
	return fmt.Errorf("export timed out")
}

func runValidate(args []string, log *slog.Logger) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := bindInputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	out, err := in.assemble(context.Background(), log)
	if err != nil {
		return err
	}
	report := validation.Validate(out)
	for _, issue := range report.Issues {
		fmt.Printf("%-7s %s: %s\n", issue.Severity, issue.Field, issue.Message)
	}
	for field, reason := range out.NeedsReview {
		fmt.Printf("review  %s: %s\n", field, reason)
	}
	if !report.IsValid() {
		return fmt.Errorf("%d validation error(s)", len(report.Errors()))
	}
	log.Info("validation passed", "warnings", len(report.Warnings()))
	return nil
}

func runDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	reducedPath := fs.String("reduced", "", "reduced reflectivity data file (required)")
	modelPath := fs.String("model", "", "refl1d model JSON file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *reducedPath == "" || *modelPath == "" {
		return fmt.Errorf("-reduced and -model are required")
	}

	curve, err := reduced.ParseFile(*reducedPath)
	if err != nil {
		return err
	}
	model, err := refl1d.ParseFile(*modelPath)
	if err != nil {
		return err
	}
	if len(model.Experiments) == 0 {
		return fmt.Errorf("model has no experiments")
	}

	match := refl1d.MatchDataset(curve.Q, curve.R, model.Experiments)
	name := model.Experiments[match.Index].Name
	if name == "" {
		name = fmt.Sprintf("experiment %d", match.Index)
	}
	if match.Confident {
		fmt.Printf("matched dataset %d (%s), score %.4g\n", match.Index, name, match.Score)
	} else {
		fmt.Printf("no confident match among %d experiments (best score %.4g); defaulting to dataset 0\n",
			len(model.Experiments), match.Score)
	}
	return nil
}
