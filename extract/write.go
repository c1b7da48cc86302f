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

package extract

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/pvwarehouse/warehouse"
)

// writeFile marshals rows to a CSV extract at fn, replacing any existing
// file. rows must be a slice of structs carrying csv tags.
func writeFile(fn string, rows any) error {
	fh, err := os.OpenFile(fn, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("create extract %s: %w", fn, err)
	}
	defer fh.Close()

	if err := gocsv.MarshalFile(rows, fh); err != nil {
		return fmt.Errorf("marshal extract %s: %w", fn, err)
	}

	log.Info().Str("FileName", fn).Msg("wrote extract")
	return nil
}

// WriteCompanies writes a companies extract to fn.
func WriteCompanies(fn string, rows []warehouse.Company) error {
	return writeFile(fn, &rows)
}

// WriteStockFacts writes a daily stock extract to fn.
func WriteStockFacts(fn string, rows []warehouse.StockFact) error {
	return writeFile(fn, &rows)
}

// WriteFinancialFacts writes a quarterly financials extract to fn.
func WriteFinancialFacts(fn string, rows []warehouse.FinancialFact) error {
	return writeFile(fn, &rows)
}

// WriteValuationFacts writes a valuation extract to fn.
func WriteValuationFacts(fn string, rows []warehouse.ValuationFact) error {
	return writeFile(fn, &rows)
}
