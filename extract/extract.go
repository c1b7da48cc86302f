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

// Package extract reads and writes the CSV extract files consumed and
// produced by the warehouse loader. Readers are row-tolerant: a record with
// too few fields is skipped and counted, never fatal to the file.
package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pvwarehouse/warehouse"
)

// Field-count minimums for each extract type. Records below the minimum are
// skipped silently.
const (
	companyFieldCount   = 9
	stockFieldCount     = 9
	financialFieldCount = 19
	valuationFieldCount = 12
)

// parseFloat normalizes upstream placeholder values ("Unknown", "None",
// "null", "-", empty) to zero instead of rejecting the row.
func parseFloat(value string) float64 {
	switch value {
	case "", "Unknown", "None", "null", "-":
		return 0
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseInt(value string) int64 {
	switch value {
	case "", "Unknown", "None", "null", "-":
		return 0
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// readRecords opens a CSV extract, skips the header row, and returns every
// data record. Records may have varying field counts; validation happens at
// the caller. The skipped count covers malformed records the csv reader
// could not split.
func readRecords(fn string) ([][]string, int, error) {
	fh, err := os.Open(fn)
	if err != nil {
		return nil, 0, fmt.Errorf("open extract %s: %w", fn, err)
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	// header row
	if _, err := reader.Read(); err != nil {
		return nil, 0, fmt.Errorf("read header of %s: %w", fn, err)
	}

	var records [][]string
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		records = append(records, record)
	}

	return records, skipped, nil
}

// Companies reads a companies.csv extract. Returns the parsed rows and the
// count of skipped records.
func Companies(fn string) ([]warehouse.Company, int, error) {
	records, skipped, err := readRecords(fn)
	if err != nil {
		return nil, 0, err
	}

	companies := make([]warehouse.Company, 0, len(records))
	for _, record := range records {
		if len(record) < companyFieldCount {
			skipped++
			continue
		}

		companies = append(companies, warehouse.Company{
			Ticker:        record[0],
			CompanyName:   record[1],
			Sector:        record[2],
			Industry:      record[3],
			CEO:           record[4],
			Founded:       int(parseInt(record[5])),
			Headquarters:  record[6],
			Employees:     int(parseInt(record[7])),
			MarketCapTier: record[8],
		})
	}

	logExtract(fn, len(companies), skipped)
	return companies, skipped, nil
}

// StockFacts reads a stock_data.csv extract.
func StockFacts(fn string) ([]warehouse.StockFact, int, error) {
	records, skipped, err := readRecords(fn)
	if err != nil {
		return nil, 0, err
	}

	facts := make([]warehouse.StockFact, 0, len(records))
	for _, record := range records {
		if len(record) < stockFieldCount {
			skipped++
			continue
		}

		facts = append(facts, warehouse.StockFact{
			Ticker:      record[0],
			Date:        record[1],
			OpenPrice:   parseFloat(record[2]),
			HighPrice:   parseFloat(record[3]),
			LowPrice:    parseFloat(record[4]),
			ClosePrice:  parseFloat(record[5]),
			Volume:      parseInt(record[6]),
			MarketCap:   parseFloat(record[7]),
			DailyReturn: parseFloat(record[8]),
		})
	}

	logExtract(fn, len(facts), skipped)
	return facts, skipped, nil
}

// FinancialFacts reads a financials.csv extract.
func FinancialFacts(fn string) ([]warehouse.FinancialFact, int, error) {
	records, skipped, err := readRecords(fn)
	if err != nil {
		return nil, 0, err
	}

	facts := make([]warehouse.FinancialFact, 0, len(records))
	for _, record := range records {
		if len(record) < financialFieldCount {
			skipped++
			continue
		}

		facts = append(facts, warehouse.FinancialFact{
			Ticker:             record[0],
			QuarterEnd:         record[1],
			Revenue:            parseFloat(record[2]),
			GrossProfit:        parseFloat(record[3]),
			OperatingIncome:    parseFloat(record[4]),
			NetIncome:          parseFloat(record[5]),
			EPS:                parseFloat(record[6]),
			EBITDA:             parseFloat(record[7]),
			TotalAssets:        parseFloat(record[8]),
			TotalLiabilities:   parseFloat(record[9]),
			CashAndEquivalents: parseFloat(record[10]),
			TotalDebt:          parseFloat(record[11]),
			FreeCashFlow:       parseFloat(record[12]),
			RnDExpense:         parseFloat(record[13]),
			GrossMargin:        parseFloat(record[14]),
			OperatingMargin:    parseFloat(record[15]),
			NetMargin:          parseFloat(record[16]),
			ROE:                parseFloat(record[17]),
			ROA:                parseFloat(record[18]),
		})
	}

	logExtract(fn, len(facts), skipped)
	return facts, skipped, nil
}

// ValuationFacts reads a valuation.csv extract.
func ValuationFacts(fn string) ([]warehouse.ValuationFact, int, error) {
	records, skipped, err := readRecords(fn)
	if err != nil {
		return nil, 0, err
	}

	facts := make([]warehouse.ValuationFact, 0, len(records))
	for _, record := range records {
		if len(record) < valuationFieldCount {
			skipped++
			continue
		}

		facts = append(facts, warehouse.ValuationFact{
			Ticker:        record[0],
			Date:          record[1],
			PERatio:       parseFloat(record[2]),
			ForwardPE:     parseFloat(record[3]),
			PEGRatio:      parseFloat(record[4]),
			PriceToSales:  parseFloat(record[5]),
			PriceToBook:   parseFloat(record[6]),
			EVToEBITDA:    parseFloat(record[7]),
			EVToRevenue:   parseFloat(record[8]),
			DividendYield: parseFloat(record[9]),
			Beta:          parseFloat(record[10]),
			ShortRatio:    parseFloat(record[11]),
		})
	}

	logExtract(fn, len(facts), skipped)
	return facts, skipped, nil
}

func logExtract(fn string, rows, skipped int) {
	log.Debug().Str("FileName", fn).Int("Rows", rows).Int("Skipped", skipped).Msg("extract read")
}
