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
	"reflect"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// memStore is an in-memory Store that understands the SQL this package
// issues. It records every DDL and DELETE statement in order so tests can
// assert on statement sequencing.
type memStore struct {
	dates      map[int]bool
	companies  []*memCompany
	nextKey    int
	sectors    map[string]int
	nextSector int

	stockFacts     map[[2]int][]any
	financialFacts map[[2]int][]any
	valuationFacts map[[2]int][]any

	// table names of CREATE and DELETE statements in execution order
	statements []string
}

type memCompany struct {
	key       int
	company   Company
	effective time.Time
	expiry    *time.Time
	current   bool
}

func newMemStore() *memStore {
	return &memStore{
		dates:          make(map[int]bool),
		sectors:        make(map[string]int),
		stockFacts:     make(map[[2]int][]any),
		financialFacts: make(map[[2]int][]any),
		valuationFacts: make(map[[2]int][]any),
	}
}

func (m *memStore) currentCompany(ticker string) *memCompany {
	for _, row := range m.companies {
		if row.company.Ticker == ticker && row.current {
			return row
		}
	}
	return nil
}

func (m *memStore) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.HasPrefix(sql, "CREATE TABLE IF NOT EXISTS"):
		m.statements = append(m.statements, "CREATE "+strings.Fields(sql)[5])
		return pgconn.NewCommandTag("CREATE TABLE"), nil

	case strings.HasPrefix(sql, "DELETE FROM"):
		table := strings.Fields(sql)[2]
		m.statements = append(m.statements, "DELETE "+table)
		return pgconn.NewCommandTag(fmt.Sprintf("DELETE %d", m.truncate(table))), nil

	case sql == sqlInsertDate:
		dateKey := args[0].(int)
		if m.dates[dateKey] {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		m.dates[dateKey] = true
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case sql == sqlInsertCompany:
		founded := 0
		if p, ok := args[5].(*int); ok && p != nil {
			founded = *p
		}
		m.nextKey++
		m.companies = append(m.companies, &memCompany{
			key: m.nextKey,
			company: Company{
				Ticker:        args[0].(string),
				CompanyName:   args[1].(string),
				Sector:        args[2].(string),
				Industry:      args[3].(string),
				CEO:           args[4].(string),
				Founded:       founded,
				Headquarters:  args[6].(string),
				Employees:     args[7].(int),
				MarketCapTier: args[8].(string),
			},
			effective: args[9].(time.Time),
			current:   true,
		})
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case sql == sqlInsertSector:
		m.nextSector++
		m.sectors[args[0].(string)] = m.nextSector
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case sql == sqlExpireCompany:
		ticker := args[0].(string)
		expiry := args[1].(time.Time)
		n := 0
		for _, row := range m.companies {
			if row.company.Ticker == ticker && row.current {
				row.current = false
				row.expiry = &expiry
				n++
			}
		}
		return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", n)), nil

	case sql == sqlRepairCompany:
		ticker := args[0].(string)
		var newest *memCompany
		for _, row := range m.companies {
			if row.company.Ticker != ticker {
				continue
			}
			if newest == nil || row.effective.After(newest.effective) ||
				(row.effective.Equal(newest.effective) && row.key > newest.key) {
				newest = row
			}
		}
		if newest == nil {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		}
		newest.current = true
		newest.expiry = nil
		return pgconn.NewCommandTag("UPDATE 1"), nil

	case sql == sqlInsertStockFact:
		m.stockFacts[[2]int{args[0].(int), args[1].(int)}] = args
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case sql == sqlInsertFinancialFact:
		m.financialFacts[[2]int{args[0].(int), args[1].(int)}] = args
		return pgconn.NewCommandTag("INSERT 0 1"), nil

	case sql == sqlInsertValuationFact:
		m.valuationFacts[[2]int{args[0].(int), args[1].(int)}] = args
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}

	return pgconn.CommandTag{}, fmt.Errorf("memStore: unhandled exec %q", sql)
}

func (m *memStore) truncate(table string) int {
	switch table {
	case "FactDailyStock":
		n := len(m.stockFacts)
		m.stockFacts = make(map[[2]int][]any)
		return n
	case "FactFinancials":
		n := len(m.financialFacts)
		m.financialFacts = make(map[[2]int][]any)
		return n
	case "FactValuation":
		n := len(m.valuationFacts)
		m.valuationFacts = make(map[[2]int][]any)
		return n
	case "DimCompany":
		n := len(m.companies)
		m.companies = nil
		return n
	case "DimSector":
		n := len(m.sectors)
		m.sectors = make(map[string]int)
		return n
	case "DimDate":
		n := len(m.dates)
		m.dates = make(map[int]bool)
		return n
	}
	return 0
}

func (m *memStore) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	switch sql {
	case sqlSelectCompanyKey:
		if row := m.currentCompany(args[0].(string)); row != nil {
			return &memRow{values: []any{row.key}}
		}
		return &memRow{err: pgx.ErrNoRows}

	case sqlSelectSectorKey:
		if key, ok := m.sectors[args[0].(string)]; ok {
			return &memRow{values: []any{key}}
		}
		return &memRow{err: pgx.ErrNoRows}

	case sqlSelectCurrentCompany:
		if row := m.currentCompany(args[0].(string)); row != nil {
			c := row.company
			return &memRow{values: []any{c.Ticker, c.CompanyName, c.Sector,
				c.Industry, c.CEO, c.Founded, c.Headquarters, c.Employees,
				c.MarketCapTier}}
		}
		return &memRow{err: pgx.ErrNoRows}

	case sqlSelectStockFact:
		return m.factRow(m.stockFacts, args)
	case sqlSelectFinancialFact:
		return m.factRow(m.financialFacts, args)
	case sqlSelectValuationFact:
		return m.factRow(m.valuationFacts, args)
	}

	return &memRow{err: fmt.Errorf("memStore: unhandled query row %q", sql)}
}

func (m *memStore) factRow(facts map[[2]int][]any, args []any) pgx.Row {
	if _, ok := facts[[2]int{args[0].(int), args[1].(int)}]; ok {
		return &memRow{values: []any{int64(1)}}
	}
	return &memRow{err: pgx.ErrNoRows}
}

func (m *memStore) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	switch sql {
	case sqlSelectOrphanTickers:
		seen := make(map[string]bool)
		var rows [][]any
		for _, row := range m.companies {
			ticker := row.company.Ticker
			if seen[ticker] {
				continue
			}
			seen[ticker] = true
			if m.currentCompany(ticker) == nil {
				rows = append(rows, []any{ticker})
			}
		}
		return &fakeRows{cols: []string{"ticker"}, rows: rows}, nil

	case sqlSelectCurrentKeys:
		var rows [][]any
		for _, row := range m.companies {
			if row.current {
				rows = append(rows, []any{row.company.Ticker, row.key})
			}
		}
		return &fakeRows{cols: []string{"ticker", "company_key"}, rows: rows}, nil
	}

	return nil, fmt.Errorf("memStore: unhandled query %q", sql)
}

// memRow satisfies pgx.Row for single-row lookups.
type memRow struct {
	values []any
	err    error
}

func (r *memRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assignValues(dest, r.values)
}

// fakeRows satisfies pgx.Rows over an in-memory result set so both manual
// iteration and pgxscan work against it.
type fakeRows struct {
	cols []string
	rows [][]any
	idx  int
	err  error
}

func (r *fakeRows) Close()     {}
func (r *fakeRows) Err() error { return r.err }

func (r *fakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.NewCommandTag(fmt.Sprintf("SELECT %d", len(r.rows)))
}

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.cols))
	for idx, col := range r.cols {
		fields[idx] = pgconn.FieldDescription{Name: col}
	}
	return fields
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assignValues(dest, r.rows[r.idx-1])
}

func (r *fakeRows) Values() ([]any, error) { return r.rows[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

func assignValues(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan expected %d destinations, got %d", len(values), len(dest))
	}

	for idx, d := range dest {
		target := reflect.ValueOf(d).Elem()
		value := reflect.ValueOf(values[idx])
		if !value.IsValid() {
			target.SetZero()
			continue
		}
		if !value.Type().ConvertibleTo(target.Type()) {
			return fmt.Errorf("cannot scan %T into %T", values[idx], d)
		}
		target.Set(value.Convert(target.Type()))
	}

	return nil
}
