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

// Package archive snapshots the warehouse fact tables to parquet files and
// optionally uploads them to Backblaze B2 for offsite retention.
package archive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/penny-vault/pvwarehouse/warehouse"
)

// StockRecord is a denormalized daily stock fact row.
type StockRecord struct {
	Ticker      string  `db:"ticker" parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	DateKey     int32   `db:"date_key" parquet:"name=date_key, type=INT32"`
	OpenPrice   float64 `db:"open_price" parquet:"name=open_price, type=DOUBLE"`
	HighPrice   float64 `db:"high_price" parquet:"name=high_price, type=DOUBLE"`
	LowPrice    float64 `db:"low_price" parquet:"name=low_price, type=DOUBLE"`
	ClosePrice  float64 `db:"close_price" parquet:"name=close_price, type=DOUBLE"`
	Volume      int64   `db:"volume" parquet:"name=volume, type=INT64"`
	MarketCap   float64 `db:"market_cap" parquet:"name=market_cap, type=DOUBLE"`
	DailyReturn float64 `db:"daily_return" parquet:"name=daily_return, type=DOUBLE"`
}

// FinancialRecord is a denormalized quarterly financial fact row.
type FinancialRecord struct {
	Ticker          string  `db:"ticker" parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	DateKey         int32   `db:"date_key" parquet:"name=date_key, type=INT32"`
	Revenue         float64 `db:"revenue" parquet:"name=revenue, type=DOUBLE"`
	GrossProfit     float64 `db:"gross_profit" parquet:"name=gross_profit, type=DOUBLE"`
	OperatingIncome float64 `db:"operating_income" parquet:"name=operating_income, type=DOUBLE"`
	NetIncome       float64 `db:"net_income" parquet:"name=net_income, type=DOUBLE"`
	EPS             float64 `db:"eps" parquet:"name=eps, type=DOUBLE"`
	EBITDA          float64 `db:"ebitda" parquet:"name=ebitda, type=DOUBLE"`
	FreeCashFlow    float64 `db:"free_cash_flow" parquet:"name=free_cash_flow, type=DOUBLE"`
	NetMargin       float64 `db:"net_margin" parquet:"name=net_margin, type=DOUBLE"`
}

// ValuationRecord is a denormalized valuation fact row.
type ValuationRecord struct {
	Ticker        string  `db:"ticker" parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	DateKey       int32   `db:"date_key" parquet:"name=date_key, type=INT32"`
	PERatio       float64 `db:"pe_ratio" parquet:"name=pe_ratio, type=DOUBLE"`
	ForwardPE     float64 `db:"forward_pe" parquet:"name=forward_pe, type=DOUBLE"`
	PEGRatio      float64 `db:"peg_ratio" parquet:"name=peg_ratio, type=DOUBLE"`
	PriceToSales  float64 `db:"price_to_sales" parquet:"name=price_to_sales, type=DOUBLE"`
	PriceToBook   float64 `db:"price_to_book" parquet:"name=price_to_book, type=DOUBLE"`
	DividendYield float64 `db:"dividend_yield" parquet:"name=dividend_yield, type=DOUBLE"`
	Beta          float64 `db:"beta" parquet:"name=beta, type=DOUBLE"`
}

const (
	sqlArchiveStock = `SELECT c.Ticker AS ticker, f.DateKey AS date_key,
    f.OpenPrice AS open_price, f.HighPrice AS high_price,
    f.LowPrice AS low_price, f.ClosePrice AS close_price,
    f.Volume AS volume, f.MarketCap AS market_cap,
    f.DailyReturn AS daily_return
  FROM FactDailyStock f JOIN DimCompany c ON c.CompanyKey = f.CompanyKey
  ORDER BY f.DateKey, c.Ticker`

	sqlArchiveFinancials = `SELECT c.Ticker AS ticker, f.DateKey AS date_key,
    f.Revenue AS revenue, f.GrossProfit AS gross_profit,
    f.OperatingIncome AS operating_income, f.NetIncome AS net_income,
    f.EPS AS eps, f.EBITDA AS ebitda, f.FreeCashFlow AS free_cash_flow,
    f.NetMargin AS net_margin
  FROM FactFinancials f JOIN DimCompany c ON c.CompanyKey = f.CompanyKey
  ORDER BY f.DateKey, c.Ticker`

	sqlArchiveValuation = `SELECT c.Ticker AS ticker, f.DateKey AS date_key,
    f.PERatio AS pe_ratio, f.ForwardPE AS forward_pe,
    f.PEGRatio AS peg_ratio, f.PriceToSales AS price_to_sales,
    f.PriceToBook AS price_to_book, f.DividendYield AS dividend_yield,
    f.Beta AS beta
  FROM FactValuation f JOIN DimCompany c ON c.CompanyKey = f.CompanyKey
  ORDER BY f.DateKey, c.Ticker`
)

func saveToParquet[T any](records []*T, fn string) error {
	fh, err := local.NewLocalFileWriter(fn)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("cannot create local file")
		return err
	}
	defer fh.Close()

	pw, err := writer.NewParquetWriter(fh, new(T), 4)
	if err != nil {
		log.Error().Err(err).Str("FileName", fn).Msg("create parquet writer failed")
		return err
	}

	pw.RowGroupSize = 128 * 1024 * 1024 // 128M
	pw.PageSize = 8 * 1024              // 8k
	pw.CompressionType = parquet.CompressionCodec_ZSTD

	for _, record := range records {
		if err := pw.Write(record); err != nil {
			log.Error().Err(err).Str("FileName", fn).Msg("parquet write failed for record")
		}
	}

	if err := pw.WriteStop(); err != nil {
		log.Error().Err(err).Msg("parquet write failed")
		return err
	}

	return nil
}

func archiveTable[T any](ctx context.Context, db warehouse.Store, sql, table, dir, database string) (string, error) {
	records := []*T{}
	if err := pgxscan.Select(ctx, db, &records, sql); err != nil {
		return "", fmt.Errorf("select %s rows: %w", table, err)
	}

	fn := fmt.Sprintf("%s/%s-%s-%s.parquet", dir, slug.Make(database), table,
		time.Now().Format("20060102"))
	if err := saveToParquet(records, fn); err != nil {
		return "", err
	}

	log.Info().Str("FileName", fn).Int("Rows", len(records)).Msg("wrote archive")
	return fn, nil
}

// Snapshot writes one parquet file per fact table to a temporary directory
// and returns the file names.
func Snapshot(ctx context.Context, db warehouse.Store, database string) ([]string, error) {
	tmpdir, err := os.MkdirTemp(os.TempDir(), "pvwarehouse-archive")
	if err != nil {
		return nil, fmt.Errorf("create tempdir: %w", err)
	}

	stockFn, err := archiveTable[StockRecord](ctx, db, sqlArchiveStock, "daily-stock", tmpdir, database)
	if err != nil {
		return nil, err
	}

	financialFn, err := archiveTable[FinancialRecord](ctx, db, sqlArchiveFinancials, "financials", tmpdir, database)
	if err != nil {
		return nil, err
	}

	valuationFn, err := archiveTable[ValuationRecord](ctx, db, sqlArchiveValuation, "valuation", tmpdir, database)
	if err != nil {
		return nil, err
	}

	return []string{stockFn, financialFn, valuationFn}, nil
}
