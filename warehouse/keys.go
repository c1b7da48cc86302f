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

	"github.com/alphadose/haxmap"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
)

// KeyResolver maps natural keys (ticker symbols, YYYY-MM-DD dates) to
// warehouse surrogate keys. Both lookups are read-only and idempotent.
type KeyResolver interface {
	CompanyKey(ctx context.Context, ticker string) (int, error)
	DateKey(value string) (int, error)
}

// ParseDateKey converts a YYYY-MM-DD string into its integer date key
// (Year*10000 + Month*100 + Day). The only contract is decomposition into
// exactly three integer components.
func ParseDateKey(value string) (int, error) {
	parts := strings.Split(value, "-")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrBadDate, value)
	}

	var components [3]int
	for idx, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadDate, value)
		}
		components[idx] = n
	}

	return components[0]*10000 + components[1]*100 + components[2], nil
}

// StoreResolver resolves company keys with one database round trip per call.
type StoreResolver struct {
	DB Store
}

func (resolver *StoreResolver) CompanyKey(ctx context.Context, ticker string) (int, error) {
	var companyKey int
	err := resolver.DB.QueryRow(ctx, sqlSelectCompanyKey, ticker).Scan(&companyKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: ticker %s", ErrNotFound, ticker)
		}
		return 0, err
	}

	return companyKey, nil
}

func (resolver *StoreResolver) DateKey(value string) (int, error) {
	return ParseDateKey(value)
}

const sqlSelectCurrentKeys = `SELECT Ticker AS ticker, CompanyKey AS company_key
FROM DimCompany WHERE IsCurrent=true`

type currentKeyRow struct {
	Ticker     string `db:"ticker"`
	CompanyKey int    `db:"company_key"`
}

// CachedResolver resolves company keys from an in-memory map preloaded once
// per run, instead of one round trip per input row. Refresh after any SCD2
// revision so new surrogate keys become visible. Date keys are computed
// directly and need no lookup at all.
type CachedResolver struct {
	db   Store
	keys *haxmap.Map[string, int]
}

func NewCachedResolver(db Store) *CachedResolver {
	return &CachedResolver{
		db:   db,
		keys: haxmap.New[string, int](),
	}
}

// Refresh replaces the cached map with the current ticker -> surrogate key
// assignments from DimCompany.
func (resolver *CachedResolver) Refresh(ctx context.Context) error {
	var rows []currentKeyRow
	if err := pgxscan.Select(ctx, resolver.db, &rows, sqlSelectCurrentKeys); err != nil {
		return fmt.Errorf("preload company keys: %w", err)
	}

	keys := haxmap.New[string, int](uintptr(len(rows)))
	for _, row := range rows {
		keys.Set(row.Ticker, row.CompanyKey)
	}
	resolver.keys = keys

	return nil
}

func (resolver *CachedResolver) CompanyKey(_ context.Context, ticker string) (int, error) {
	if companyKey, ok := resolver.keys.Get(ticker); ok {
		return companyKey, nil
	}
	return 0, fmt.Errorf("%w: ticker %s", ErrNotFound, ticker)
}

func (resolver *CachedResolver) DateKey(value string) (int, error) {
	return ParseDateKey(value)
}
