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
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func tableCount(ctx context.Context, db Store, table string) (int, error) {
	count := 0
	err := db.QueryRow(ctx, fmt.Sprintf("SELECT count(*) FROM %s", table)).Scan(&count)
	return count, err
}

// Summary returns a description of the warehouse in markdown.
func Summary(ctx context.Context, db Store, server, database string) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString(fmt.Sprintf("# %s\n\n", database))
	builder.WriteString(fmt.Sprintf("Server: %s\n\n", server))
	builder.WriteString("## Row Counts\n\n")

	for _, table := range []string{"DimDate", "DimCompany", "DimSector",
		"FactDailyStock", "FactFinancials", "FactValuation"} {
		count, err := tableCount(ctx, db, table)
		if err != nil {
			return "", fmt.Errorf("count %s: %w", table, err)
		}
		builder.WriteString(p.Sprintf("  * %s: %d\n", table, count))
	}

	currentCompanies := 0
	if err := db.QueryRow(ctx,
		"SELECT count(*) FROM DimCompany WHERE IsCurrent=true").Scan(&currentCompanies); err != nil {
		return "", fmt.Errorf("count current companies: %w", err)
	}
	builder.WriteString(p.Sprintf("\nCompanies Tracked: %d\n\n", currentCompanies))

	lastDateKey := 0
	if err := db.QueryRow(ctx,
		"SELECT coalesce(max(DateKey), 0) FROM FactDailyStock").Scan(&lastDateKey); err != nil {
		return "", fmt.Errorf("latest trading day: %w", err)
	}
	if lastDateKey > 0 {
		builder.WriteString(fmt.Sprintf("Latest Trading Day: %04d-%02d-%02d\n\n",
			lastDateKey/10000, lastDateKey/100%100, lastDateKey%100))
	}

	var lastUpdated time.Time
	if err := db.QueryRow(ctx,
		"SELECT coalesce(max(EffectiveDate), '0001-01-01'::date) FROM DimCompany").Scan(&lastUpdated); err != nil {
		return "", fmt.Errorf("last updated: %w", err)
	}

	if lastUpdated.Year() <= 1 {
		builder.WriteString("Last Updated: Never\n")
	} else {
		builder.WriteString(fmt.Sprintf("Last Updated: %s (%s)\n",
			timeago.English.Format(lastUpdated), lastUpdated.Local().Format("01/02/2006")))
	}

	return builder.String(), nil
}
