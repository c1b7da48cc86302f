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
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
)

// MarketCapRank is one row of the market capitalization ranking on the most
// recent trading day.
type MarketCapRank struct {
	Rank        int     `db:"rank"`
	Ticker      string  `db:"ticker"`
	CompanyName string  `db:"company_name"`
	Sector      string  `db:"sector"`
	MarketCapT  float64 `db:"market_cap_t"`
}

const sqlMarketCapRankings = `SELECT c.Ticker AS ticker, c.CompanyName AS company_name,
	c.Sector AS sector, f.MarketCap/1e12 AS market_cap_t,
	RANK() OVER (ORDER BY f.MarketCap DESC) AS rank
FROM FactDailyStock f
JOIN DimCompany c ON f.CompanyKey = c.CompanyKey
WHERE c.IsCurrent = true
	AND f.DateKey = (SELECT max(DateKey) FROM FactDailyStock)
ORDER BY rank
LIMIT $1`

// MarketCapRankings ranks companies by market capitalization on the most
// recent trading day. Ties share a rank.
func MarketCapRankings(ctx context.Context, db Store, limit int) ([]MarketCapRank, error) {
	var rankings []MarketCapRank
	if err := pgxscan.Select(ctx, db, &rankings, sqlMarketCapRankings, limit); err != nil {
		return nil, fmt.Errorf("market cap rankings: %w", err)
	}
	return rankings, nil
}

// SectorBreakdown aggregates company count and market capitalization for
// one sector on the most recent trading day.
type SectorBreakdown struct {
	Sector          string  `db:"sector"`
	Companies       int     `db:"companies"`
	TotalMarketCapT float64 `db:"total_market_cap_t"`
}

const sqlSectorBreakdown = `SELECT c.Sector AS sector,
	count(DISTINCT c.Ticker) AS companies,
	sum(f.MarketCap)/1e12 AS total_market_cap_t
FROM FactDailyStock f
JOIN DimCompany c ON f.CompanyKey = c.CompanyKey
WHERE c.IsCurrent = true
	AND f.DateKey = (SELECT max(DateKey) FROM FactDailyStock)
GROUP BY c.Sector
ORDER BY total_market_cap_t DESC`

func SectorBreakdowns(ctx context.Context, db Store) ([]SectorBreakdown, error) {
	var sectors []SectorBreakdown
	if err := pgxscan.Select(ctx, db, &sectors, sqlSectorBreakdown); err != nil {
		return nil, fmt.Errorf("sector breakdown: %w", err)
	}
	return sectors, nil
}

// FinancialMetric is one company's latest-quarter statement highlights.
type FinancialMetric struct {
	Ticker      string  `db:"ticker"`
	CompanyName string  `db:"company_name"`
	RevenueB    float64 `db:"revenue_b"`
	NetIncomeB  float64 `db:"net_income_b"`
	GrossMargin float64 `db:"gross_margin"`
	NetMargin   float64 `db:"net_margin"`
	ROE         float64 `db:"roe"`
	ROA         float64 `db:"roa"`
}

const sqlFinancialMetrics = `SELECT c.Ticker AS ticker, c.CompanyName AS company_name,
	ff.Revenue/1e9 AS revenue_b, ff.NetIncome/1e9 AS net_income_b,
	ff.GrossMargin AS gross_margin, ff.NetMargin AS net_margin,
	ff.ROE AS roe, ff.ROA AS roa
FROM FactFinancials ff
JOIN DimCompany c ON ff.CompanyKey = c.CompanyKey
WHERE c.IsCurrent = true
	AND ff.DateKey = (SELECT max(DateKey) FROM FactFinancials)
ORDER BY ff.Revenue DESC
LIMIT $1`

func FinancialMetrics(ctx context.Context, db Store, limit int) ([]FinancialMetric, error) {
	var metrics []FinancialMetric
	if err := pgxscan.Select(ctx, db, &metrics, sqlFinancialMetrics, limit); err != nil {
		return nil, fmt.Errorf("financial metrics: %w", err)
	}
	return metrics, nil
}
