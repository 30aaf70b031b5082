package scrape

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"matchworker/helpers"
	"matchworker/pkg/errors"
)

// WriteArtifacts saves the harvest result as a JSON summary plus a plain-text
// ID list, named {slug}_{yyyymmdd}, and returns both paths.
func WriteArtifacts(result *HarvestResult, outputDir string) (string, string, error) {
	if err := helpers.EnsureDir(outputDir); err != nil {
		return "", "", errors.New(errors.ErrorTypeConfiguration, "results", "failed to create output dir", err)
	}

	stamp, err := time.Parse(time.RFC3339, result.ScrapeTimestamp)
	if err != nil {
		stamp = time.Now().UTC()
	}
	jsonPath, idsPath := helpers.ResultPaths(outputDir, result.LeagueSlug, stamp)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", "", errors.NewParsing("results", "failed to encode result", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", errors.New(errors.ErrorTypeConfiguration, "results", fmt.Sprintf("failed to write %s", jsonPath), err)
	}

	var sb strings.Builder
	for _, id := range result.MatchIDs {
		fmt.Fprintf(&sb, "%d\n", id)
	}
	if err := os.WriteFile(idsPath, []byte(sb.String()), 0644); err != nil {
		return "", "", errors.New(errors.ErrorTypeConfiguration, "results", fmt.Sprintf("failed to write %s", idsPath), err)
	}

	return jsonPath, idsPath, nil
}
