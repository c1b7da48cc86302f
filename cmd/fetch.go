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

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pvwarehouse/extract"
	"github.com/penny-vault/pvwarehouse/fetch"
	"github.com/penny-vault/pvwarehouse/warehouse"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <ticker> [ticker...]",
	Short: "Download extract files from Alpha Vantage",
	Long: `fetch downloads company profiles, daily quotes, quarterly
financials, and valuation metrics for the given tickers and writes them as
CSV extract files ready for the load command. The free Alpha Vantage tier
allows 5 requests per minute, so expect roughly a minute per ticker.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		apiKey := viper.GetString("alphavantage.apikey")
		if apiKey == "" {
			log.Fatal().Msg("no Alpha Vantage API key; set alphavantage.apikey in the config file")
		}
		client := fetch.New(apiKey)

		var (
			companies  []warehouse.Company
			stocks     []warehouse.StockFact
			financials []warehouse.FinancialFact
			valuations []warehouse.ValuationFact
		)

		for _, ticker := range args {
			logger := log.With().Str("Ticker", ticker).Logger()

			overview, err := client.CompanyOverview(ctx, ticker)
			if err != nil {
				logger.Error().Err(err).Msg("fetch company overview failed")
				continue
			}
			companies = append(companies, overview.Company())

			quotes, err := client.DailyQuotes(ctx, ticker)
			if err != nil {
				logger.Error().Err(err).Msg("fetch daily quotes failed")
			} else {
				stocks = append(stocks, quotes...)
				// Valuation metrics are a point-in-time snapshot; date them
				// at the latest trading day in the quote series.
				valuations = append(valuations, overview.Valuation(quotes[0].Date))
			}

			quarters, err := client.QuarterlyFinancials(ctx, ticker)
			if err != nil {
				logger.Error().Err(err).Msg("fetch quarterly financials failed")
			} else {
				financials = append(financials, quarters...)
			}
		}

		if len(companies) == 0 {
			log.Fatal().Msg("no data fetched for any ticker")
		}

		for _, write := range []struct {
			fn  string
			run func() error
		}{
			{companiesFn, func() error { return extract.WriteCompanies(extractPath(companiesFn), companies) }},
			{stockFn, func() error { return extract.WriteStockFacts(extractPath(stockFn), stocks) }},
			{financialsFn, func() error { return extract.WriteFinancialFacts(extractPath(financialsFn), financials) }},
			{valuationFn, func() error { return extract.WriteValuationFacts(extractPath(valuationFn), valuations) }},
		} {
			if err := write.run(); err != nil {
				log.Fatal().Err(err).Str("FileName", write.fn).Msg("could not write extract")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&extractDir, "extract-dir", "", "directory to write the CSV extracts to")
	fetchCmd.Flags().StringVar(&companiesFn, "companies", "companies.csv", "companies extract file name")
	fetchCmd.Flags().StringVar(&stockFn, "stock", "stock_data.csv", "daily stock extract file name")
	fetchCmd.Flags().StringVar(&financialsFn, "financials", "financials.csv", "quarterly financials extract file name")
	fetchCmd.Flags().StringVar(&valuationFn, "valuation", "valuation.csv", "valuation extract file name")
}
