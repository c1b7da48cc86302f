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

// deleteStatements must run facts before dimensions: the fact tables hold
// foreign keys into DimDate and DimCompany.
var deleteStatements = []struct {
	table string
	sql   string
}{
	{"FactFinancials", "DELETE FROM FactFinancials"},
	{"FactValuation", "DELETE FROM FactValuation"},
	{"FactDailyStock", "DELETE FROM FactDailyStock"},
	{"DimCompany", "DELETE FROM DimCompany"},
	{"DimSector", "DELETE FROM DimSector"},
	{"DimDate", "DELETE FROM DimDate"},
}

// DeleteAllData empties every fact table, then every dimension table. Any
// failure is fatal: the run must abort loudly because the store may be left
// with partially deleted data.
func DeleteAllData(ctx context.Context, db Store) error {
	for _, stmt := range deleteStatements {
		tag, err := db.Exec(ctx, stmt.sql)
		if err != nil {
			return fmt.Errorf("delete from %s: %w", stmt.table, err)
		}
		log.Info().Str("Table", stmt.table).Int64("Rows", tag.RowsAffected()).Msg("table emptied")
	}

	return nil
}
