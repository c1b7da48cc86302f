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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// Company is one descriptive row for a ticker. Founded == 0 and
// Employees == 0 are the normalized placeholders for unknown values;
// Founded is stored as NULL.
type Company struct {
	Ticker        string `csv:"Ticker"`
	CompanyName   string `csv:"CompanyName"`
	Sector        string `csv:"Sector"`
	Industry      string `csv:"Industry"`
	CEO           string `csv:"CEO"`
	Founded       int    `csv:"Founded"`
	Headquarters  string `csv:"Headquarters"`
	Employees     int    `csv:"Employees"`
	MarketCapTier string `csv:"MarketCapTier"`
}

const sqlSelectCompanyKey = `SELECT CompanyKey FROM DimCompany WHERE Ticker=$1 AND IsCurrent=true`

const sqlInsertCompany = `INSERT INTO DimCompany (
	Ticker, CompanyName, Sector, Industry, CEO, Founded, Headquarters,
	Employees, MarketCapTier, EffectiveDate, ExpiryDate, IsCurrent
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULL, true)`

const sqlSelectSectorKey = `SELECT SectorKey FROM DimSector WHERE SectorName=$1`

const sqlInsertSector = `INSERT INTO DimSector (SectorName, SectorDescription) VALUES ($1, $2)`

const sqlSelectCurrentCompany = `SELECT Ticker, CompanyName, Sector, Industry, CEO,
	coalesce(Founded, 0), Headquarters, Employees, MarketCapTier
FROM DimCompany WHERE Ticker=$1 AND IsCurrent=true`

const sqlExpireCompany = `UPDATE DimCompany SET ExpiryDate=$2, IsCurrent=false
WHERE Ticker=$1 AND IsCurrent=true`

const sqlSelectOrphanTickers = `SELECT DISTINCT Ticker AS ticker FROM DimCompany dc
WHERE NOT EXISTS (
	SELECT 1 FROM DimCompany cur WHERE cur.Ticker=dc.Ticker AND cur.IsCurrent=true
)`

const sqlRepairCompany = `UPDATE DimCompany SET IsCurrent=true, ExpiryDate=NULL
WHERE CompanyKey = (
	SELECT CompanyKey FROM DimCompany WHERE Ticker=$1
	ORDER BY EffectiveDate DESC, CompanyKey DESC LIMIT 1
)`

// LoadCompanies adds new companies to DimCompany. A ticker that already has
// a current row is skipped untouched: this operation only adds entities,
// revisions go through ReviseCompany. Unseen sectors are seeded into
// DimSector as a side effect.
func LoadCompanies(ctx context.Context, db Store, companies []Company) Result {
	var result Result
	now := time.Now()

	for _, company := range companies {
		var existingKey int
		err := db.QueryRow(ctx, sqlSelectCompanyKey, company.Ticker).Scan(&existingKey)
		switch {
		case err == nil:
			result.Skipped++
			continue
		case !errors.Is(err, pgx.ErrNoRows):
			log.Error().Err(err).Str("Ticker", company.Ticker).Msg("company lookup failed")
			result.Errors++
			continue
		}

		if err := ensureSector(ctx, db, company.Sector); err != nil {
			log.Warn().Err(err).Str("Sector", company.Sector).Msg("could not seed sector dimension")
		}

		var founded *int
		if company.Founded != 0 {
			founded = &company.Founded
		}

		_, err = db.Exec(ctx, sqlInsertCompany, company.Ticker, company.CompanyName,
			company.Sector, company.Industry, company.CEO, founded,
			company.Headquarters, company.Employees, company.MarketCapTier, now)
		if err != nil {
			log.Error().Err(err).Str("Ticker", company.Ticker).Msg("could not insert company")
			result.Errors++
			continue
		}

		result.Loaded++
	}

	log.Info().Int("Loaded", result.Loaded).Int("Errors", result.Errors).Msg("companies loaded")
	return result
}

func ensureSector(ctx context.Context, db Store, name string) error {
	if name == "" {
		return nil
	}

	var sectorKey int
	err := db.QueryRow(ctx, sqlSelectSectorKey, name).Scan(&sectorKey)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	_, err = db.Exec(ctx, sqlInsertSector, name, fmt.Sprintf("%s sector", name))
	return err
}

// ReviseCompany performs an SCD Type 2 revision of one tracked attribute:
// the current row for the ticker is expired, then a copy with the new value
// becomes the current row. The two statements are not atomic; an
// interruption between them leaves the ticker with zero current rows until
// RepairOrphans runs.
func ReviseCompany(ctx context.Context, db Store, ticker, field, value string) error {
	var company Company
	err := db.QueryRow(ctx, sqlSelectCurrentCompany, ticker).Scan(
		&company.Ticker, &company.CompanyName, &company.Sector,
		&company.Industry, &company.CEO, &company.Founded,
		&company.Headquarters, &company.Employees, &company.MarketCapTier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: ticker %s", ErrNotFound, ticker)
		}
		return fmt.Errorf("fetch current row for %s: %w", ticker, err)
	}

	if err := company.setField(field, value); err != nil {
		return err
	}

	now := time.Now()

	if _, err := db.Exec(ctx, sqlExpireCompany, ticker, now); err != nil {
		return fmt.Errorf("expire current row for %s: %w", ticker, err)
	}

	var founded *int
	if company.Founded != 0 {
		founded = &company.Founded
	}

	// IsCurrent is assigned by the statement rather than left to the
	// column default.
	_, err = db.Exec(ctx, sqlInsertCompany, company.Ticker, company.CompanyName,
		company.Sector, company.Industry, company.CEO, founded,
		company.Headquarters, company.Employees, company.MarketCapTier, now)
	if err != nil {
		return fmt.Errorf("insert revised row for %s: %w", ticker, err)
	}

	log.Info().Str("Ticker", ticker).Str("Field", field).Msg("company attribute revised")
	return nil
}

func (company *Company) setField(field, value string) error {
	switch strings.ToLower(field) {
	case "companyname":
		company.CompanyName = value
	case "sector":
		company.Sector = value
	case "industry":
		company.Industry = value
	case "ceo":
		company.CEO = value
	case "headquarters":
		company.Headquarters = value
	case "marketcaptier":
		company.MarketCapTier = value
	case "founded":
		founded, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("founded must be a year: %w", err)
		}
		company.Founded = founded
	case "employees":
		employees, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("employees must be an integer: %w", err)
		}
		company.Employees = employees
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	return nil
}

// RepairOrphans restores the single-current invariant for any ticker whose
// revision was interrupted between the expire and insert steps: the most
// recent row for each orphaned ticker is made current again. Run at startup
// before loading. Returns the number of tickers repaired.
func RepairOrphans(ctx context.Context, db Store) (int, error) {
	rows, err := db.Query(ctx, sqlSelectOrphanTickers)
	if err != nil {
		return 0, fmt.Errorf("find orphaned tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return 0, fmt.Errorf("scan orphaned ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("find orphaned tickers: %w", err)
	}

	repaired := 0
	for _, ticker := range tickers {
		if _, err := db.Exec(ctx, sqlRepairCompany, ticker); err != nil {
			return repaired, fmt.Errorf("repair ticker %s: %w", ticker, err)
		}
		log.Warn().Str("Ticker", ticker).Msg("repaired interrupted revision")
		repaired++
	}

	return repaired, nil
}
