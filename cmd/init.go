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
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/pvwarehouse/healthcheck"
	"github.com/penny-vault/pvwarehouse/warehouse"
)

type configFile struct {
	Database     warehouse.ConnectionInfo `toml:"database"`
	AlphaVantage struct {
		APIKey string `toml:"apikey,omitempty"`
	} `toml:"alphavantage,omitempty"`
	Healthchecks struct {
		APIKey string `toml:"apikey,omitempty"`
		ID     string `toml:"id,omitempty"`
	} `toml:"healthchecks,omitempty"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and create the warehouse schema",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		config := configFile{}

		form := huh.NewForm(
			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Database server host:").
					Value(&config.Database.Server),

				huh.NewInput().
					Title("Database name:").
					Value(&config.Database.Database),

				huh.NewInput().
					Title("Database user (leave blank for trusted authentication):").
					Value(&config.Database.User),

				huh.NewInput().
					Title("Database password:").
					EchoMode(huh.EchoModePassword).
					Value(&config.Database.Password),
			),

			huh.NewGroup(
				huh.NewInput().
					Title("Alpha Vantage API key (optional, used by the fetch command):").
					Value(&config.AlphaVantage.APIKey),

				huh.NewInput().
					Title("healthchecks.io API key (optional, monitors scheduled loads):").
					Value(&config.Healthchecks.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		if _, err := pgx.ParseConfig(config.Database.DSN()); err != nil {
			log.Fatal().Err(err).Msg("database settings do not form a valid connection string")
		}

		log.Info().Msg("creating warehouse tables")

		db, err := warehouse.Connect(ctx, config.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer db.Close()

		if err := warehouse.CreateSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("error creating warehouse schema")
		}

		log.Info().Msg("warehouse tables created")

		// provision a healthchecks.io check for the nightly load so its id
		// lands in the config before the first scheduled run
		if config.Healthchecks.APIKey != "" {
			checkID, err := healthcheck.Create(config.Healthchecks.APIKey,
				"pvwarehouse load", "pvwarehouse-load",
				[]string{"pvwarehouse"}, "0 6 * * 1-5")
			if err != nil {
				log.Error().Err(err).Msg("could not create healthchecks.io check")
			} else {
				config.Healthchecks.ID = checkID
				log.Info().Str("CheckID", checkID).Msg("created healthchecks.io check")
			}
		}

		// save database settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvwarehouse.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your warehouse has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
