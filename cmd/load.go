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
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pvwarehouse/extract"
	"github.com/penny-vault/pvwarehouse/healthcheck"
	"github.com/penny-vault/pvwarehouse/warehouse"
)

var (
	deleteAll     bool
	extractDir    string
	startYear     int
	endYear       int
	companiesFn   string
	stockFn       string
	financialsFn  string
	valuationFn   string
	skipValuation bool
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the full warehouse load pipeline",
	Long: `load runs the complete ETL pipeline: create the schema if missing,
repair any incomplete company revisions, populate the date dimension, load
companies with SCD Type 2 history, then load the daily stock, quarterly
financial, and valuation fact tables from CSV extracts. Reruns are
idempotent; rows already present are skipped.

With --delete the run is a bulk reset instead: every fact table and then
every dimension table is emptied, and the command exits without loading
anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		runID := uuid.New().String()
		logger := log.With().Str("RunID", runID).Logger()

		info := connectionInfoFromConfig()
		logger.Info().Str("Server", info.Server).Str("Database", info.Database).Msg("starting warehouse run")

		db, err := warehouse.Connect(ctx, info)
		if err != nil {
			logger.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		if err := runLoad(ctx, db, logger, deleteAll); err != nil {
			notifyFailure(runID, err)
			logger.Fatal().Err(err).Msg("warehouse run failed")
		}

		// the check monitors scheduled loads; a manual reset does not ping
		if checkID := viper.GetString("healthchecks.id"); checkID != "" && !deleteAll {
			if err := healthcheck.Ping(checkID, fmt.Sprintf("run %s complete", runID)); err != nil {
				logger.Error().Err(err).Msg("healthcheck ping failed")
			}
		}
	},
}

// runLoad dispatches one warehouse run against an open store. A reset run
// only empties the tables; it never proceeds into the load pipeline.
func runLoad(ctx context.Context, db warehouse.Store, logger zerolog.Logger, reset bool) error {
	if reset {
		logger.Info().Msg("deleting all warehouse data")
		if err := warehouse.DeleteAllData(ctx, db); err != nil {
			return err
		}
		logger.Info().Msg("warehouse reset complete")
		return nil
	}

	if err := warehouse.CreateSchema(ctx, db); err != nil {
		return err
	}

	repaired, err := warehouse.RepairOrphans(ctx, db)
	if err != nil {
		logger.Error().Err(err).Msg("orphan repair failed")
	} else if repaired > 0 {
		logger.Warn().Int("Repaired", repaired).Msg("restored current flag on orphaned companies")
	}

	dates := warehouse.LoadDateDimension(ctx, db, startYear, endYear)
	logResult(logger, "DimDate", dates)

	companies, skipped, err := extract.Companies(extractPath(companiesFn))
	if err != nil {
		return err
	}
	if skipped > 0 {
		logger.Warn().Int("Skipped", skipped).Msg("companies extract had short rows")
	}
	logResult(logger, "DimCompany", warehouse.LoadCompanies(ctx, db, companies))

	// Preload the ticker to surrogate key map once; fact loads resolve
	// against the cache instead of querying per row.
	keys := warehouse.NewCachedResolver(db)
	if err := keys.Refresh(ctx); err != nil {
		return err
	}

	stockFacts, skipped, err := extract.StockFacts(extractPath(stockFn))
	if err != nil {
		return err
	}
	if skipped > 0 {
		logger.Warn().Int("Skipped", skipped).Msg("stock extract had short rows")
	}
	logResult(logger, "FactDailyStock", warehouse.LoadStockFacts(ctx, db, keys, stockFacts))

	financialFacts, skipped, err := extract.FinancialFacts(extractPath(financialsFn))
	if err != nil {
		return err
	}
	if skipped > 0 {
		logger.Warn().Int("Skipped", skipped).Msg("financials extract had short rows")
	}
	logResult(logger, "FactFinancials", warehouse.LoadFinancialFacts(ctx, db, keys, financialFacts))

	// The valuation extract is optional; skip quietly when absent.
	valuationPath := extractPath(valuationFn)
	if _, err := os.Stat(valuationPath); err == nil && !skipValuation {
		valuationFacts, skipped, err := extract.ValuationFacts(valuationPath)
		if err != nil {
			return err
		}
		if skipped > 0 {
			logger.Warn().Int("Skipped", skipped).Msg("valuation extract had short rows")
		}
		logResult(logger, "FactValuation", warehouse.LoadValuationFacts(ctx, db, keys, valuationFacts))
	} else {
		logger.Info().Str("FileName", valuationPath).Msg("valuation extract not loaded")
	}

	logger.Info().Msg("warehouse load complete")
	return nil
}

func extractPath(fn string) string {
	if extractDir == "" {
		return fn
	}
	return fmt.Sprintf("%s/%s", extractDir, fn)
}

func logResult(logger zerolog.Logger, table string, result warehouse.Result) {
	logger.Info().
		Str("Table", table).
		Int("Loaded", result.Loaded).
		Int("Skipped", result.Skipped).
		Int("Errors", result.Errors).
		Msg("table load finished")
}

func notifyFailure(runID string, err error) {
	if checkID := viper.GetString("healthchecks.id"); checkID != "" {
		if pingErr := healthcheck.Fail(checkID, fmt.Sprintf("run %s failed: %v", runID, err)); pingErr != nil {
			log.Error().Err(pingErr).Msg("healthcheck failure ping failed")
		}
	}
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().BoolVar(&deleteAll, "delete", false, "empty every warehouse table and exit instead of loading")
	loadCmd.Flags().StringVar(&extractDir, "extract-dir", "", "directory containing the CSV extracts")
	loadCmd.Flags().IntVar(&startYear, "start-year", 2020, "first calendar year to populate in DimDate")
	loadCmd.Flags().IntVar(&endYear, "end-year", 2026, "last calendar year to populate in DimDate")
	loadCmd.Flags().StringVar(&companiesFn, "companies", "companies.csv", "companies extract file name")
	loadCmd.Flags().StringVar(&stockFn, "stock", "stock_data.csv", "daily stock extract file name")
	loadCmd.Flags().StringVar(&financialsFn, "financials", "financials.csv", "quarterly financials extract file name")
	loadCmd.Flags().StringVar(&valuationFn, "valuation", "valuation.csv", "valuation extract file name")
	loadCmd.Flags().BoolVar(&skipValuation, "skip-valuation", false, "do not load the valuation fact table")
}
