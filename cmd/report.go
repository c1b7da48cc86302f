// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/pvwarehouse/warehouse"
)

var reportLimit int

var reportTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("63")).
	MarginTop(1)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print analytical reports from the warehouse",
	Long: `report queries the fact tables as of the latest trading day and
prints market cap rankings, a sector breakdown, and key financial metrics
for the largest companies.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		db, err := warehouse.Connect(ctx, connectionInfoFromConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		rankings, err := warehouse.MarketCapRankings(ctx, db, reportLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("market cap ranking query failed")
		}

		sectors, err := warehouse.SectorBreakdowns(ctx, db)
		if err != nil {
			log.Fatal().Err(err).Msg("sector breakdown query failed")
		}

		metrics, err := warehouse.FinancialMetrics(ctx, db, reportLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("financial metrics query failed")
		}

		var doc strings.Builder

		doc.WriteString("| Rank | Ticker | Company | Sector | Market Cap ($T) |\n")
		doc.WriteString("|-----:|--------|---------|--------|----------------:|\n")
		for _, row := range rankings {
			fmt.Fprintf(&doc, "| %d | %s | %s | %s | %.3f |\n",
				row.Rank, row.Ticker, row.CompanyName, row.Sector, row.MarketCapT)
		}

		doc.WriteString("\n| Sector | Companies | Total Market Cap ($T) |\n")
		doc.WriteString("|--------|----------:|----------------------:|\n")
		for _, row := range sectors {
			fmt.Fprintf(&doc, "| %s | %d | %.3f |\n",
				row.Sector, row.Companies, row.TotalMarketCapT)
		}

		doc.WriteString("\n| Ticker | Company | Revenue ($B) | Net Income ($B) | Gross Margin | Net Margin | ROE | ROA |\n")
		doc.WriteString("|--------|---------|-------------:|----------------:|-------------:|-----------:|----:|----:|\n")
		for _, row := range metrics {
			fmt.Fprintf(&doc, "| %s | %s | %.2f | %.2f | %.1f%% | %.1f%% | %.1f%% | %.1f%% |\n",
				row.Ticker, row.CompanyName, row.RevenueB, row.NetIncomeB,
				row.GrossMargin*100, row.NetMargin*100, row.ROE*100, row.ROA*100)
		}

		r, _ := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(120),
		)

		out, err := r.Render(doc.String())
		if err != nil {
			log.Fatal().Err(err).Msg("could not render report")
		}

		fmt.Println(reportTitleStyle.Render("Market Warehouse Report"))
		fmt.Print(out)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().IntVar(&reportLimit, "limit", 10, "number of companies to include")
}
