// mednova-weights derives evidence-weighted genus health scores from a
// SalivaDB biomarker export. Output is the weights CSV plus a provenance
// sidecar; the weights act as a soft prior for the scoring pipeline.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/logging"
	"github.com/akashsingh918/medNova-pipeline-salivary-microbiome/internal/weights"
)

func main() {
	csvPath := flag.String("csv", "", "SalivaDB biomarker CSV (required)")
	out := flag.String("out", "salivadb_genus_weights.csv", "output weights CSV")
	minEvidence := flag.Int("min_evidence", 3, "minimum biomarker records per genus")
	flag.Parse()

	logging.Init("mednova-weights")
	if *csvPath == "" {
		slog.Error("--csv is required")
		os.Exit(2)
	}

	t, meta, err := weights.BuildFile(*csvPath, *out, *minEvidence)
	if err != nil {
		slog.Error("weights build failed", "error", err)
		os.Exit(1)
	}
	slog.Info("weights written", "out", *out, "genera", len(t), "min_evidence", meta.MinEvidence)
}
