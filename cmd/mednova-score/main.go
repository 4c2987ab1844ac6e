// mednova-score scores every sample of a feature table into per-sample JSON
// report records, the input the report assembler consumes. In watch mode it
// scores feature tables dropped into a directory as they arrive and
// hot-reloads panel definitions on edit.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/artifact"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/logging"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/otelinit"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/panel"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/refstats"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/score"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/weights"
)

type app struct {
	ref         *refstats.Reference
	wt          weights.Table
	mapper      *abundance.Mapper
	outdir      string
	instruments otelinit.Metrics

	// panels returns the currently active config; in watch mode this is
	// backed by the hot-reloading watcher.
	panels func() panel.Config
}

// engine builds a scoring engine against the currently active panels.
func (a *app) engine() (*score.Engine, error) {
	return score.NewEngine(a.ref, a.panels(), a.wt, score.DefaultWeights(), score.DefaultCalibration())
}

// scoreTable scores every sample of one feature table into the output dir.
func (a *app) scoreTable(ctx context.Context, path string) error {
	eng, err := a.engine()
	if err != nil {
		return err
	}
	raw, err := abundance.ParseTSVFile(path)
	if err != nil {
		return err
	}
	table, err := raw.ToGenus(a.mapper)
	if err != nil {
		return err
	}
	for _, sampleID := range table.Samples() {
		t0 := time.Now()
		v, err := table.Vector(sampleID)
		if err != nil {
			return err
		}
		res, err := eng.Score(sampleID, v)
		if err != nil {
			return err
		}
		out := filepath.Join(a.outdir, fmt.Sprintf("%s_report_data.json", sampleID))
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("write report %s: %w", out, err)
		}
		a.instruments.SamplesScored.Add(ctx, 1)
		a.instruments.PanelsFired.Add(ctx, int64(res.FiredPanels()))
		a.instruments.ScoreLatency.Record(ctx, float64(time.Since(t0).Milliseconds()))
		slog.Info("sample scored", "sample", sampleID, "chi", res.CHI, "category", res.Category.Label, "out", out)
	}
	return nil
}

func run(ctx context.Context) error {
	featureTSV := flag.String("feature_tsv", "feature-table.tsv", "BIOM-style feature table")
	asvMap := flag.String("asv_map", "asv_to_genus_map.json", "ASV to genus JSON map")
	weightsCSV := flag.String("weights_csv", "salivadb_genus_weights.csv", "genus health weights CSV")
	percentiles := flag.String("genus_percentiles", "genus_percentiles.json", "genus percentile table")
	refStats := flag.String("ref_stats", "reference_stats.json", "global reference stats")
	storePath := flag.String("store", "", "load reference from a BoltDB artifact store instead of JSON files")
	refVersion := flag.String("ref_version", "", "cohort version in the store (default latest)")
	panelsPath := flag.String("panels", "", "panels JSON file (default: built-in clinical panels)")
	outdir := flag.String("outdir", "patient_reports", "output directory for report records")
	watchDir := flag.String("watch", "", "watch a directory and score dropped .tsv tables")
	allowUnmapped := flag.Bool("allow_unmapped", true, "bucket unmapped ASVs as Unknown instead of failing")
	flag.Parse()

	shutdownTrace := otelinit.InitTracer(ctx, "mednova-score")
	shutdownMetrics, instruments := otelinit.InitMetrics(ctx, "mednova-score")
	defer func() {
		otelinit.Flush(context.Background(), shutdownTrace)
		_ = shutdownMetrics(context.Background())
	}()

	if err := os.MkdirAll(*outdir, 0o755); err != nil {
		return err
	}

	var ref *refstats.Reference
	if *storePath != "" {
		store, err := artifact.Open(*storePath, otel.Meter("mednova-go"))
		if err != nil {
			return err
		}
		r, found, err := store.GetReference(ctx, *refVersion)
		store.Close()
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no reference version %q in %s", *refVersion, *storePath)
		}
		ref = r
	} else {
		r, err := artifact.LoadReference(*percentiles, *refStats)
		if err != nil {
			return err
		}
		ref = r
	}
	if ref.Degraded {
		slog.Warn("reference was built in degraded mode (full cohort, no healthy subset)")
	}

	wt, err := weights.Load(*weightsCSV)
	if err != nil {
		return err
	}
	mapper, err := abundance.LoadMapper(*asvMap, *allowUnmapped)
	if err != nil {
		return err
	}

	a := &app{ref: ref, wt: wt, mapper: mapper, outdir: *outdir, instruments: instruments}

	if *watchDir != "" {
		var watcher *panel.Watcher
		if *panelsPath != "" {
			watcher, err = panel.NewWatcher(*panelsPath)
			if err != nil {
				return err
			}
			defer watcher.Close()
			a.panels = watcher.Config
		} else {
			cfg := panel.DefaultConfig()
			a.panels = func() panel.Config { return cfg }
		}
		return watchAndScore(ctx, a, *watchDir)
	}

	cfg := panel.DefaultConfig()
	if *panelsPath != "" {
		cfg, err = panel.Load(*panelsPath)
		if err != nil {
			return err
		}
	}
	a.panels = func() panel.Config { return cfg }
	return a.scoreTable(ctx, *featureTSV)
}

func main() {
	logging.Init("mednova-score")
	ctx, cancel := signalContext()
	defer cancel()
	if err := run(ctx); err != nil {
		slog.Error("scoring failed", "error", err)
		os.Exit(1)
	}
}
