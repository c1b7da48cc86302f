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
package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/pvwarehouse/warehouse"
)

// reviseCmd represents the revise command
var reviseCmd = &cobra.Command{
	Use:   "revise <ticker> <field> <value>",
	Short: "Revise a company attribute, preserving history",
	Long: `revise updates a single attribute of a company's current dimension
row. The existing row is expired rather than overwritten: its validity is
closed as of today and a new current row is inserted with the changed value,
so point-in-time queries continue to see the old attribute.

Revisable fields: name, sector, industry, ceo, founded, headquarters,
employees, tier.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		ticker, field, value := args[0], args[1], args[2]

		db, err := warehouse.Connect(ctx, connectionInfoFromConfig())
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		if err := warehouse.ReviseCompany(ctx, db, ticker, field, value); err != nil {
			log.Fatal().Err(err).Str("Ticker", ticker).Str("Field", field).Msg("company revision failed")
		}

		log.Info().Str("Ticker", ticker).Str("Field", field).Str("Value", value).Msg("company revised")
	},
}

func init() {
	rootCmd.AddCommand(reviseCmd)
}
