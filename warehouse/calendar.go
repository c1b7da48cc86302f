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
	"time"

	"github.com/rs/zerolog/log"
)

const sqlInsertDate = `INSERT INTO DimDate (
	DateKey, FullDate, Year, Quarter, Month, MonthName,
	Week, DayOfWeek, IsWeekend, FiscalYear, FiscalQuarter
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (DateKey) DO NOTHING`

var monthNames = [...]string{"", "January", "February", "March", "April",
	"May", "June", "July", "August", "September", "October", "November",
	"December"}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInMonth(year, month int) int {
	switch month {
	case 2:
		if isLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

// fiscalYear maps a calendar month to the US federal fiscal year, which runs
// October through September: Oct-Dec belong to the next numeric fiscal year.
func fiscalYear(year, month int) int {
	if month >= 10 {
		return year + 1
	}
	return year
}

// fiscalQuarter numbers quarters by the federal convention:
// Q1 = Oct-Dec, Q2 = Jan-Mar, Q3 = Apr-Jun, Q4 = Jul-Sep.
func fiscalQuarter(month int) int {
	return (month+2)/3%4 + 1
}

// LoadDateDimension populates DimDate for every calendar day from Jan 1 of
// startYear through Dec 31 of endYear inclusive. Days already present are
// skipped, so overlapping year ranges are safe to re-run. A failed insert
// for one day is counted, never fatal to the range.
func LoadDateDimension(ctx context.Context, db Store, startYear, endYear int) Result {
	var result Result

	for year := startYear; year <= endYear; year++ {
		for month := 1; month <= 12; month++ {
			for day := 1; day <= daysInMonth(year, month); day++ {
				dateKey := year*10000 + month*100 + day
				date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

				dayOfWeek := date.Weekday()
				week := (date.YearDay()-1)/7 + 1
				quarter := (month-1)/3 + 1
				isWeekend := dayOfWeek == time.Saturday || dayOfWeek == time.Sunday

				tag, err := db.Exec(ctx, sqlInsertDate, dateKey, date, year,
					quarter, month, monthNames[month], week, dayOfWeek.String(),
					isWeekend, fiscalYear(year, month), fiscalQuarter(month))
				if err != nil {
					log.Warn().Err(err).Int("DateKey", dateKey).Msg("could not insert date row")
					result.Errors++
					continue
				}

				if tag.RowsAffected() > 0 {
					result.Loaded++
				} else {
					result.Skipped++
				}
			}
		}
	}

	log.Info().Int("Loaded", result.Loaded).Int("Errors", result.Errors).
		Int("StartYear", startYear).Int("EndYear", endYear).
		Msg("date dimension loaded")

	return result
}
