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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func factsFixture(t *testing.T) (*memStore, KeyResolver) {
	t.Helper()

	db := newMemStore()
	ctx := context.Background()

	LoadCompanies(ctx, db, testCompanies())

	keys := NewCachedResolver(db)
	require.NoError(t, keys.Refresh(ctx))

	return db, keys
}

func TestLoadStockFacts(t *testing.T) {
	db, keys := factsFixture(t)

	facts := []StockFact{
		{Ticker: "AAPL", Date: "2025-06-02", OpenPrice: 201.5, HighPrice: 205.1,
			LowPrice: 200.2, ClosePrice: 204.3, Volume: 51000000,
			MarketCap: 3.1e12, DailyReturn: 0.0139},
		{Ticker: "XOM", Date: "2025-06-02", OpenPrice: 110.0, HighPrice: 111.5,
			LowPrice: 108.9, ClosePrice: 109.4, Volume: 14000000,
			MarketCap: 4.8e11, DailyReturn: -0.0055},
	}

	result := LoadStockFacts(context.Background(), db, keys, facts)
	assert.Equal(t, 2, result.Loaded)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Errors)
	assert.Len(t, db.stockFacts, 2)
}

func TestLoadStockFactsUnresolvableTicker(t *testing.T) {
	db, keys := factsFixture(t)

	facts := []StockFact{
		{Ticker: "NOPE", Date: "2025-06-02", ClosePrice: 10},
	}

	result := LoadStockFacts(context.Background(), db, keys, facts)
	assert.Zero(t, result.Loaded)
	assert.Equal(t, 1, result.Errors)
	assert.Empty(t, db.stockFacts)
}

func TestLoadStockFactsBadDate(t *testing.T) {
	db, keys := factsFixture(t)

	facts := []StockFact{
		{Ticker: "AAPL", Date: "not-a-date", ClosePrice: 10},
	}

	result := LoadStockFacts(context.Background(), db, keys, facts)
	assert.Zero(t, result.Loaded)
	assert.Equal(t, 1, result.Errors)
}

func TestLoadStockFactsIdempotent(t *testing.T) {
	db, keys := factsFixture(t)
	ctx := context.Background()

	facts := []StockFact{
		{Ticker: "AAPL", Date: "2025-06-02", ClosePrice: 204.3},
	}

	first := LoadStockFacts(ctx, db, keys, facts)
	require.Equal(t, 1, first.Loaded)

	second := LoadStockFacts(ctx, db, keys, facts)
	assert.Zero(t, second.Loaded)
	assert.Equal(t, 1, second.Skipped)
	assert.Len(t, db.stockFacts, 1)
}

func TestLoadStockFactsMixedBatch(t *testing.T) {
	db, keys := factsFixture(t)

	// one good row and one bad row: the batch never aborts
	facts := []StockFact{
		{Ticker: "NOPE", Date: "2025-06-02", ClosePrice: 10},
		{Ticker: "AAPL", Date: "2025-06-02", ClosePrice: 204.3},
	}

	result := LoadStockFacts(context.Background(), db, keys, facts)
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 1, result.Errors)
	assert.Len(t, db.stockFacts, 1)
}

func TestLoadFinancialFacts(t *testing.T) {
	db, keys := factsFixture(t)
	ctx := context.Background()

	facts := []FinancialFact{
		{Ticker: "AAPL", QuarterEnd: "2025-03-31", Revenue: 95.4e9,
			NetIncome: 24.8e9, GrossMargin: 0.466},
	}

	result := LoadFinancialFacts(ctx, db, keys, facts)
	assert.Equal(t, 1, result.Loaded)
	assert.Len(t, db.financialFacts, 1)

	rerun := LoadFinancialFacts(ctx, db, keys, facts)
	assert.Equal(t, 1, rerun.Skipped)
}

func TestLoadValuationFacts(t *testing.T) {
	db, keys := factsFixture(t)
	ctx := context.Background()

	facts := []ValuationFact{
		{Ticker: "XOM", Date: "2025-06-02", PERatio: 13.9, DividendYield: 0.034},
	}

	result := LoadValuationFacts(ctx, db, keys, facts)
	assert.Equal(t, 1, result.Loaded)
	assert.Len(t, db.valuationFacts, 1)

	rerun := LoadValuationFacts(ctx, db, keys, facts)
	assert.Equal(t, 1, rerun.Skipped)
	assert.Zero(t, rerun.Loaded)
}
