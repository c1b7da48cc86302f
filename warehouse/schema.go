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

	"github.com/rs/zerolog/log"
)

const sqlCreateDimDate = `CREATE TABLE IF NOT EXISTS DimDate (
	DateKey INT PRIMARY KEY,
	FullDate DATE,
	Year INT,
	Quarter INT,
	Month INT,
	MonthName VARCHAR(15),
	Week INT,
	DayOfWeek VARCHAR(10),
	IsWeekend BOOLEAN,
	FiscalYear INT,
	FiscalQuarter INT
)`

const sqlCreateDimCompany = `CREATE TABLE IF NOT EXISTS DimCompany (
	CompanyKey INT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	Ticker VARCHAR(10),
	CompanyName VARCHAR(100),
	Sector VARCHAR(50),
	Industry VARCHAR(100),
	CEO VARCHAR(100),
	Founded INT,
	Headquarters VARCHAR(100),
	Employees INT,
	MarketCapTier VARCHAR(20),
	EffectiveDate DATE,
	ExpiryDate DATE,
	IsCurrent BOOLEAN NOT NULL DEFAULT true
)`

const sqlCreateDimSector = `CREATE TABLE IF NOT EXISTS DimSector (
	SectorKey INT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	SectorName VARCHAR(50),
	SectorDescription VARCHAR(200)
)`

const sqlCreateFactDailyStock = `CREATE TABLE IF NOT EXISTS FactDailyStock (
	StockFactKey BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	DateKey INT REFERENCES DimDate (DateKey),
	CompanyKey INT REFERENCES DimCompany (CompanyKey),
	OpenPrice NUMERIC(12,2),
	HighPrice NUMERIC(12,2),
	LowPrice NUMERIC(12,2),
	ClosePrice NUMERIC(12,2),
	Volume BIGINT,
	MarketCap NUMERIC(18,2),
	DailyReturn NUMERIC(8,6),
	MovingAvg50 NUMERIC(12,2),
	MovingAvg200 NUMERIC(12,2),
	RSI NUMERIC(6,2)
)`

const sqlCreateFactFinancials = `CREATE TABLE IF NOT EXISTS FactFinancials (
	FinancialKey BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	DateKey INT REFERENCES DimDate (DateKey),
	CompanyKey INT REFERENCES DimCompany (CompanyKey),
	Revenue NUMERIC(18,2),
	GrossProfit NUMERIC(18,2),
	OperatingIncome NUMERIC(18,2),
	NetIncome NUMERIC(18,2),
	EPS NUMERIC(10,4),
	EBITDA NUMERIC(18,2),
	TotalAssets NUMERIC(18,2),
	TotalLiabilities NUMERIC(18,2),
	CashAndEquivalents NUMERIC(18,2),
	TotalDebt NUMERIC(18,2),
	FreeCashFlow NUMERIC(18,2),
	RnDExpense NUMERIC(18,2),
	GrossMargin NUMERIC(8,4),
	OperatingMargin NUMERIC(8,4),
	NetMargin NUMERIC(8,4),
	ROE NUMERIC(8,4),
	ROA NUMERIC(8,4)
)`

const sqlCreateFactValuation = `CREATE TABLE IF NOT EXISTS FactValuation (
	ValuationKey BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	DateKey INT REFERENCES DimDate (DateKey),
	CompanyKey INT REFERENCES DimCompany (CompanyKey),
	PERatio NUMERIC(10,2),
	ForwardPE NUMERIC(10,2),
	PEGRatio NUMERIC(10,4),
	PriceToSales NUMERIC(10,2),
	PriceToBook NUMERIC(10,2),
	EVToEBITDA NUMERIC(10,2),
	EVToRevenue NUMERIC(10,2),
	DividendYield NUMERIC(8,4),
	Beta NUMERIC(6,4),
	ShortRatio NUMERIC(8,2)
)`

// createStatements lists the schema in dependency order: dimensions first,
// then the facts that reference them.
var createStatements = []struct {
	table string
	sql   string
}{
	{"DimDate", sqlCreateDimDate},
	{"DimCompany", sqlCreateDimCompany},
	{"DimSector", sqlCreateDimSector},
	{"FactDailyStock", sqlCreateFactDailyStock},
	{"FactFinancials", sqlCreateFactFinancials},
	{"FactValuation", sqlCreateFactValuation},
}

// CreateSchema creates every dimension and fact table if it does not already
// exist. Each statement is independently idempotent, so a partially created
// schema from a prior failed run is safe to re-run over. Any failure is
// fatal to the run.
func CreateSchema(ctx context.Context, db Store) error {
	for _, stmt := range createStatements {
		if _, err := db.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("create table %s: %w", stmt.table, err)
		}
		log.Debug().Str("Table", stmt.table).Msg("ensured table exists")
	}

	return nil
}
