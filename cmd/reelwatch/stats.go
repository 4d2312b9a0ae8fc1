package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/amaumene/reelwatch/internal/models"
	"github.com/spf13/cobra"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show stored update statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
			return nil
		},
	}
}

func renderStats(stats *models.Stats) string {
	rows := [][]string{
		{"total", "", strconv.FormatInt(stats.TotalUpdates, 10)},
		{"today", "", strconv.FormatInt(stats.TodayUpdates, 10)},
		{"last 7 days", "", strconv.FormatInt(stats.WeekUpdates, 10)},
		{"active accounts", "", strconv.FormatInt(stats.ActiveAccounts, 10)},
	}
	rows = append(rows, breakdownRows("platform", stats.ByPlatform)...)
	rows = append(rows, breakdownRows("language", stats.ByLanguage)...)
	rows = append(rows, breakdownRows("update type", stats.ByUpdateType)...)

	return renderTable([]string{"Metric", "Value", "Count"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight})
}

func breakdownRows(metric string, counts map[string]int64) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{metric, strings.ReplaceAll(k, "_", " "), strconv.FormatInt(counts[k], 10)})
	}
	return rows
}
