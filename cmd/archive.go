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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pvwarehouse/archive"
	"github.com/penny-vault/pvwarehouse/warehouse"
)

// archiveCmd represents the archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Snapshot the fact tables to parquet and upload to Backblaze",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		info := connectionInfoFromConfig()
		db, err := warehouse.Connect(ctx, info)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		files, err := archive.Snapshot(ctx, db, info.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("archive snapshot failed")
		}

		if viper.GetString("backblaze.application_id") == "" {
			log.Info().Msg("skipping upload to backblaze because backblaze credentials are missing")
			return
		}

		year := time.Now().Format("2006")
		bucket := viper.GetString("backblaze.bucket")
		for _, fn := range files {
			if err := archive.Upload(fn, bucket, year); err != nil {
				log.Error().Err(err).Str("FileName", fn).Msg("failed uploading parquet file to Backblaze")
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
