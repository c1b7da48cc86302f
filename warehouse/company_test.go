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

func testCompanies() []Company {
	return []Company{
		{
			Ticker:        "AAPL",
			CompanyName:   "Apple Inc.",
			Sector:        "Technology",
			Industry:      "Consumer Electronics",
			CEO:           "Tim Cook",
			Founded:       1976,
			Headquarters:  "Cupertino, CA",
			Employees:     164000,
			MarketCapTier: "Mega",
		},
		{
			Ticker:        "XOM",
			CompanyName:   "Exxon Mobil",
			Sector:        "Energy",
			Industry:      "Oil & Gas Integrated",
			CEO:           "Darren Woods",
			Founded:       1999,
			Headquarters:  "Spring, TX",
			Employees:     62000,
			MarketCapTier: "Large",
		},
	}
}

func TestLoadCompanies(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	result := LoadCompanies(ctx, db, testCompanies())
	assert.Equal(t, 2, result.Loaded)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Errors)

	require.Len(t, db.companies, 2)
	assert.True(t, db.companies[0].current)
	assert.Nil(t, db.companies[0].expiry)

	// sectors seeded as a side effect
	assert.Contains(t, db.sectors, "Technology")
	assert.Contains(t, db.sectors, "Energy")
}

func TestLoadCompaniesSkipsExisting(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	LoadCompanies(ctx, db, testCompanies())
	result := LoadCompanies(ctx, db, testCompanies())

	assert.Zero(t, result.Loaded)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, db.companies, 2)
}

func TestLoadCompaniesUnknownFounded(t *testing.T) {
	db := newMemStore()

	companies := testCompanies()
	companies[0].Founded = 0
	LoadCompanies(context.Background(), db, companies[:1])

	require.Len(t, db.companies, 1)
	assert.Zero(t, db.companies[0].company.Founded)
}

func TestReviseCompany(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	LoadCompanies(ctx, db, testCompanies())

	err := ReviseCompany(ctx, db, "AAPL", "ceo", "Jane Smith")
	require.NoError(t, err)

	// the old row is expired, the new row is current
	var history []*memCompany
	for _, row := range db.companies {
		if row.company.Ticker == "AAPL" {
			history = append(history, row)
		}
	}
	require.Len(t, history, 2)

	assert.False(t, history[0].current)
	require.NotNil(t, history[0].expiry)
	assert.Equal(t, "Tim Cook", history[0].company.CEO)

	assert.True(t, history[1].current)
	assert.Nil(t, history[1].expiry)
	assert.Equal(t, "Jane Smith", history[1].company.CEO)

	// untouched attributes carry over
	assert.Equal(t, "Apple Inc.", history[1].company.CompanyName)
	assert.Equal(t, 1976, history[1].company.Founded)
}

func TestReviseCompanyNumericFields(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	LoadCompanies(ctx, db, testCompanies())

	require.NoError(t, ReviseCompany(ctx, db, "XOM", "employees", "65000"))
	current := db.currentCompany("XOM")
	require.NotNil(t, current)
	assert.Equal(t, 65000, current.company.Employees)

	err := ReviseCompany(ctx, db, "XOM", "employees", "lots")
	assert.Error(t, err)
}

func TestReviseCompanyUnknownTicker(t *testing.T) {
	db := newMemStore()

	err := ReviseCompany(context.Background(), db, "ZZZZ", "ceo", "Nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviseCompanyUnknownField(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	LoadCompanies(ctx, db, testCompanies())

	err := ReviseCompany(ctx, db, "AAPL", "favoritecolor", "blue")
	assert.ErrorIs(t, err, ErrUnknownField)

	// a rejected field leaves the dimension untouched
	assert.Len(t, db.companies, 2)
	assert.True(t, db.currentCompany("AAPL").current)
}

func TestRepairOrphans(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	LoadCompanies(ctx, db, testCompanies())

	// simulate a revision interrupted after the expire step
	_, err := db.Exec(ctx, sqlExpireCompany, "AAPL", db.companies[0].effective)
	require.NoError(t, err)
	require.Nil(t, db.currentCompany("AAPL"))

	repaired, err := RepairOrphans(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)

	current := db.currentCompany("AAPL")
	require.NotNil(t, current)
	assert.Nil(t, current.expiry)
}

func TestRepairOrphansNoOrphans(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	LoadCompanies(ctx, db, testCompanies())

	repaired, err := RepairOrphans(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, repaired)
}
