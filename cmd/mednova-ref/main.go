// mednova-ref builds the cohort reference artifacts: per-genus percentile
// anchors and robust global stats for the composite metrics. Run once per
// cohort version, or on a cron schedule when the cohort table is refreshed in
// place.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/abundance"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/artifact"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/logging"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/otelinit"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/score"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/weights"
)

func main() {
	featureTSV := flag.String("feature_tsv", "feature-table.tsv", "BIOM-style feature table")
	asvMap := flag.String("asv_map", "asv_to_genus_map.json", "ASV to genus JSON map")
	weightsCSV := flag.String("weights_csv", "salivadb_genus_weights.csv", "genus health weights CSV")
	healthyIDs := flag.String("healthy_ids", "", "newline-delimited healthy sample ids (optional)")
	minEvidence := flag.Int("min_evidence", score.DefaultMinEvidence, "healthy samples a genus needs for a percentile entry")
	outPercentiles := flag.String("out_percentiles", "genus_percentiles.json", "output percentile table")
	outRefStats := flag.String("out_refstats", "reference_stats.json", "output global stats")
	storePath := flag.String("store", "", "optional BoltDB artifact store path")
	version := flag.String("version", "", "cohort version label for the store (default: build date)")
	schedule := flag.String("schedule", "", "optional cron expression for periodic rebuild")
	allowUnmapped := flag.Bool("allow_unmapped", true, "bucket unmapped ASVs as Unknown instead of failing")
	flag.Parse()

	logging.Init("mednova-ref")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	shutdownTrace := otelinit.InitTracer(ctx, "mednova-ref")
	shutdownMetrics, instruments := otelinit.InitMetrics(ctx, "mednova-ref")

	var store *artifact.Store
	if *storePath != "" {
		var err error
		store, err = artifact.Open(*storePath, otel.Meter("mednova-go"))
		if err != nil {
			slog.Error("open artifact store", "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	build := func() error {
		ctx, end := otelinit.WithSpan(ctx, "refbuild")
		defer end()
		t0 := time.Now()

		raw, err := abundance.ParseTSVFile(*featureTSV)
		if err != nil {
			return err
		}
		mapper, err := abundance.LoadMapper(*asvMap, *allowUnmapped)
		if err != nil {
			return err
		}
		table, err := raw.ToGenus(mapper)
		if err != nil {
			return err
		}
		wt, err := weights.Load(*weightsCSV)
		if err != nil {
			return err
		}
		ids, err := loadIDSet(*healthyIDs)
		if err != nil {
			return err
		}

		ref, err := score.BuildReference(table, score.BuildOptions{
			HealthyIDs:  ids,
			MinEvidence: *minEvidence,
			Weights:     wt,
		})
		if err != nil {
			return err
		}
		if err := artifact.SaveReference(*outPercentiles, *outRefStats, ref); err != nil {
			return err
		}
		if store != nil {
			v := *version
			if v == "" {
				v = time.Now().UTC().Format("2006-01-02")
			}
			if err := store.PutReference(ctx, v, ref); err != nil {
				return err
			}
			slog.Info("reference stored", "version", v)
		}

		instruments.RefBuildDur.Record(ctx, float64(time.Since(t0).Milliseconds()))
		slog.Info("reference built",
			"healthy_n", ref.HealthyN,
			"genera", len(ref.Genera),
			"degraded", ref.Degraded,
			"percentiles", *outPercentiles,
			"refstats", *outRefStats)
		return nil
	}

	if *schedule == "" {
		if err := build(); err != nil {
			slog.Error("reference build failed", "error", err)
			os.Exit(1)
		}
	} else {
		c := cron.New(cron.WithSeconds())
		if _, err := c.AddFunc(*schedule, func() {
			if err := build(); err != nil {
				slog.Error("scheduled reference build failed", "error", err)
			}
		}); err != nil {
			slog.Error("bad cron expression", "schedule", *schedule, "error", err)
			os.Exit(1)
		}
		// First build immediately, then on schedule.
		if err := build(); err != nil {
			slog.Error("reference build failed", "error", err)
		}
		c.Start()
		slog.Info("rebuild scheduler started", "schedule", *schedule)
		<-ctx.Done()
		<-c.Stop().Done()
	}

	otelinit.Flush(context.Background(), shutdownTrace)
	_ = shutdownMetrics(context.Background())
}

// loadIDSet reads a newline-delimited id file into a set. Empty path → nil.
func loadIDSet(path string) (map[string]struct{}, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	ids := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if id := strings.TrimSpace(sc.Text()); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, sc.Err()
}
