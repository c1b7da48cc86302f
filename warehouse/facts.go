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
package warehouse

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// StockFact is one trading day for one company.
type StockFact struct {
	Ticker      string  `csv:"Ticker"`
	Date        string  `csv:"Date"`
	OpenPrice   float64 `csv:"OpenPrice"`
	HighPrice   float64 `csv:"HighPrice"`
	LowPrice    float64 `csv:"LowPrice"`
	ClosePrice  float64 `csv:"ClosePrice"`
	Volume      int64   `csv:"Volume"`
	MarketCap   float64 `csv:"MarketCap"`
	DailyReturn float64 `csv:"DailyReturn"`
}

// FinancialFact is one fiscal quarter of statement measures for one company.
// Margins and return ratios arrive pre-computed from the upstream extract.
type FinancialFact struct {
	Ticker             string  `csv:"Ticker"`
	QuarterEnd         string  `csv:"QuarterEnd"`
	Revenue            float64 `csv:"Revenue"`
	GrossProfit        float64 `csv:"GrossProfit"`
	OperatingIncome    float64 `csv:"OperatingIncome"`
	NetIncome          float64 `csv:"NetIncome"`
	EPS                float64 `csv:"EPS"`
	EBITDA             float64 `csv:"EBITDA"`
	TotalAssets        float64 `csv:"TotalAssets"`
	TotalLiabilities   float64 `csv:"TotalLiabilities"`
	CashAndEquivalents float64 `csv:"CashAndEquivalents"`
	TotalDebt          float64 `csv:"TotalDebt"`
	FreeCashFlow       float64 `csv:"FreeCashFlow"`
	RnDExpense         float64 `csv:"RnDExpense"`
	GrossMargin        float64 `csv:"GrossMargin"`
	OperatingMargin    float64 `csv:"OperatingMargin"`
	NetMargin          float64 `csv:"NetMargin"`
	ROE                float64 `csv:"ROE"`
	ROA                float64 `csv:"ROA"`
}

// ValuationFact is one day of valuation ratios for one company.
type ValuationFact struct {
	Ticker        string  `csv:"Ticker"`
	Date          string  `csv:"Date"`
	PERatio       float64 `csv:"PERatio"`
	ForwardPE     float64 `csv:"ForwardPE"`
	PEGRatio      float64 `csv:"PEGRatio"`
	PriceToSales  float64 `csv:"PriceToSales"`
	PriceToBook   float64 `csv:"PriceToBook"`
	EVToEBITDA    float64 `csv:"EVToEBITDA"`
	EVToRevenue   float64 `csv:"EVToRevenue"`
	DividendYield float64 `csv:"DividendYield"`
	Beta          float64 `csv:"Beta"`
	ShortRatio    float64 `csv:"ShortRatio"`
}

const sqlSelectStockFact = `SELECT StockFactKey FROM FactDailyStock WHERE DateKey=$1 AND CompanyKey=$2`

const sqlInsertStockFact = `INSERT INTO FactDailyStock (
	DateKey, CompanyKey, OpenPrice, HighPrice, LowPrice, ClosePrice,
	Volume, MarketCap, DailyReturn
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const sqlSelectFinancialFact = `SELECT FinancialKey FROM FactFinancials WHERE DateKey=$1 AND CompanyKey=$2`

const sqlInsertFinancialFact = `INSERT INTO FactFinancials (
	DateKey, CompanyKey, Revenue, GrossProfit, OperatingIncome, NetIncome,
	EPS, EBITDA, TotalAssets, TotalLiabilities, CashAndEquivalents,
	TotalDebt, FreeCashFlow, RnDExpense, GrossMargin, OperatingMargin,
	NetMargin, ROE, ROA
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

const sqlSelectValuationFact = `SELECT ValuationKey FROM FactValuation WHERE DateKey=$1 AND CompanyKey=$2`

const sqlInsertValuationFact = `INSERT INTO FactValuation (
	DateKey, CompanyKey, PERatio, ForwardPE, PEGRatio, PriceToSales,
	PriceToBook, EVToEBITDA, EVToRevenue, DividendYield, Beta, ShortRatio
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// resolveFactKeys turns a (ticker, date) pair into surrogate keys. A false
// return means the row should be counted as an error and skipped.
func resolveFactKeys(ctx context.Context, keys KeyResolver, ticker, date string) (int, int, bool) {
	companyKey, err := keys.CompanyKey(ctx, ticker)
	if err != nil {
		log.Warn().Err(err).Str("Ticker", ticker).Msg("could not resolve company key")
		return 0, 0, false
	}

	dateKey, err := keys.DateKey(date)
	if err != nil {
		log.Warn().Err(err).Str("Ticker", ticker).Str("Date", date).Msg("could not resolve date key")
		return 0, 0, false
	}

	return dateKey, companyKey, true
}

// factExists reports whether a fact row already occupies the
// (DateKey, CompanyKey) grain. Lookup failures count as row errors.
func factExists(ctx context.Context, db Store, checkSQL string, dateKey, companyKey int) (bool, error) {
	var factKey int64
	err := db.QueryRow(ctx, checkSQL, dateKey, companyKey).Scan(&factKey)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return false, err
}

// LoadStockFacts inserts daily price rows into FactDailyStock. Rows whose
// ticker or date cannot be resolved are counted as errors; rows already at
// the (day, company) grain are idempotent no-ops. The batch never aborts on
// a row-level failure.
func LoadStockFacts(ctx context.Context, db Store, keys KeyResolver, facts []StockFact) Result {
	var result Result

	for _, fact := range facts {
		dateKey, companyKey, ok := resolveFactKeys(ctx, keys, fact.Ticker, fact.Date)
		if !ok {
			result.Errors++
			continue
		}

		exists, err := factExists(ctx, db, sqlSelectStockFact, dateKey, companyKey)
		if err != nil {
			log.Error().Err(err).Str("Ticker", fact.Ticker).Msg("stock fact lookup failed")
			result.Errors++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		_, err = db.Exec(ctx, sqlInsertStockFact, dateKey, companyKey,
			fact.OpenPrice, fact.HighPrice, fact.LowPrice, fact.ClosePrice,
			fact.Volume, fact.MarketCap, fact.DailyReturn)
		if err != nil {
			log.Error().Err(err).Str("Ticker", fact.Ticker).Int("DateKey", dateKey).
				Msg("could not insert stock fact")
			result.Errors++
			continue
		}

		result.Loaded++
	}

	log.Info().Int("Loaded", result.Loaded).Int("Errors", result.Errors).Msg("stock facts loaded")
	return result
}

// LoadFinancialFacts inserts quarterly statement rows into FactFinancials
// under the same per-row policy as LoadStockFacts.
func LoadFinancialFacts(ctx context.Context, db Store, keys KeyResolver, facts []FinancialFact) Result {
	var result Result

	for _, fact := range facts {
		dateKey, companyKey, ok := resolveFactKeys(ctx, keys, fact.Ticker, fact.QuarterEnd)
		if !ok {
			result.Errors++
			continue
		}

		exists, err := factExists(ctx, db, sqlSelectFinancialFact, dateKey, companyKey)
		if err != nil {
			log.Error().Err(err).Str("Ticker", fact.Ticker).Msg("financial fact lookup failed")
			result.Errors++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		_, err = db.Exec(ctx, sqlInsertFinancialFact, dateKey, companyKey,
			fact.Revenue, fact.GrossProfit, fact.OperatingIncome, fact.NetIncome,
			fact.EPS, fact.EBITDA, fact.TotalAssets, fact.TotalLiabilities,
			fact.CashAndEquivalents, fact.TotalDebt, fact.FreeCashFlow,
			fact.RnDExpense, fact.GrossMargin, fact.OperatingMargin,
			fact.NetMargin, fact.ROE, fact.ROA)
		if err != nil {
			log.Error().Err(err).Str("Ticker", fact.Ticker).Int("DateKey", dateKey).
				Msg("could not insert financial fact")
			result.Errors++
			continue
		}

		result.Loaded++
	}

	log.Info().Int("Loaded", result.Loaded).Int("Errors", result.Errors).Msg("financial facts loaded")
	return result
}

// LoadValuationFacts inserts valuation ratio rows into FactValuation under
// the same per-row policy as LoadStockFacts.
func LoadValuationFacts(ctx context.Context, db Store, keys KeyResolver, facts []ValuationFact) Result {
	var result Result

	for _, fact := range facts {
		dateKey, companyKey, ok := resolveFactKeys(ctx, keys, fact.Ticker, fact.Date)
		if !ok {
			result.Errors++
			continue
		}

		exists, err := factExists(ctx, db, sqlSelectValuationFact, dateKey, companyKey)
		if err != nil {
			log.Error().Err(err).Str("Ticker", fact.Ticker).Msg("valuation fact lookup failed")
			result.Errors++
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		_, err = db.Exec(ctx, sqlInsertValuationFact, dateKey, companyKey,
			fact.PERatio, fact.ForwardPE, fact.PEGRatio, fact.PriceToSales,
			fact.PriceToBook, fact.EVToEBITDA, fact.EVToRevenue,
			fact.DividendYield, fact.Beta, fact.ShortRatio)
		if err != nil {
			log.Error().Err(err).Str("Ticker", fact.Ticker).Int("DateKey", dateKey).
				Msg("could not insert valuation fact")
			result.Errors++
			continue
		}

		result.Loaded++
	}

	log.Info().Int("Loaded", result.Loaded).Int("Errors", result.Errors).Msg("valuation facts loaded")
	return result
}
