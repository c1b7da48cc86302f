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

func TestLoadDateDimensionLeapYear(t *testing.T) {
	db := newMemStore()

	result := LoadDateDimension(context.Background(), db, 2024, 2024)

	assert.Equal(t, 366, result.Loaded)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Errors)

	assert.True(t, db.dates[20240101])
	assert.True(t, db.dates[20240229])
	assert.True(t, db.dates[20241231])
	assert.False(t, db.dates[20230101])
}

func TestLoadDateDimensionIdempotent(t *testing.T) {
	db := newMemStore()
	ctx := context.Background()

	first := LoadDateDimension(ctx, db, 2025, 2025)
	require.Equal(t, 365, first.Loaded)

	second := LoadDateDimension(ctx, db, 2025, 2025)
	assert.Zero(t, second.Loaded)
	assert.Equal(t, 365, second.Skipped)
	assert.Zero(t, second.Errors)
}

func TestLoadDateDimensionMultiYear(t *testing.T) {
	db := newMemStore()

	result := LoadDateDimension(context.Background(), db, 2023, 2024)

	// 2023 is a common year, 2024 a leap year
	assert.Equal(t, 365+366, result.Loaded)
}

func TestFiscalYear(t *testing.T) {
	// October through December roll into the next fiscal year
	assert.Equal(t, 2026, fiscalYear(2025, 10))
	assert.Equal(t, 2026, fiscalYear(2025, 11))
	assert.Equal(t, 2026, fiscalYear(2025, 12))
	assert.Equal(t, 2025, fiscalYear(2025, 9))
	assert.Equal(t, 2025, fiscalYear(2025, 1))
}

func TestFiscalQuarter(t *testing.T) {
	expected := map[int]int{
		10: 1, 11: 1, 12: 1,
		1: 2, 2: 2, 3: 2,
		4: 3, 5: 3, 6: 3,
		7: 4, 8: 4, 9: 4,
	}

	for month, quarter := range expected {
		assert.Equal(t, quarter, fiscalQuarter(month), "month %d", month)
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 29, daysInMonth(2024, 2))
	assert.Equal(t, 28, daysInMonth(2025, 2))
	assert.Equal(t, 28, daysInMonth(2100, 2))
	assert.Equal(t, 29, daysInMonth(2000, 2))
	assert.Equal(t, 30, daysInMonth(2025, 4))
	assert.Equal(t, 31, daysInMonth(2025, 12))
}
