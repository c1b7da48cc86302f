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
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/pvwarehouse/warehouse"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvwarehouse",
	Short: "pvwarehouse loads the stock market dimensional warehouse",
	Long: `pvwarehouse builds and maintains a dimensional (star schema) data
warehouse of stock market data in PostgreSQL. The warehouse tracks daily
prices, quarterly financials, and valuation metrics against conformed date
and company dimensions, with full SCD Type 2 company history.

Source data arrives as CSV extracts (companies, daily stock data, quarterly
financials, valuation metrics). The load pipeline creates the schema if
needed, populates the date dimension, resolves natural keys to surrogate
keys, and loads each fact table idempotently so reruns never duplicate
rows.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvwarehouse.toml)")
	rootCmd.PersistentFlags().StringP("server", "S", "", "database server host")
	rootCmd.PersistentFlags().StringP("database", "d", "", "database name")
	rootCmd.PersistentFlags().StringP("user", "U", "", "database user (omit for trusted authentication)")
	rootCmd.PersistentFlags().StringP("password", "P", "", "database password")

	for flag, key := range map[string]string{
		"server":   "database.server",
		"database": "database.name",
		"user":     "database.user",
		"password": "database.password",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			log.Panic().Err(err).Str("Flag", flag).Msg("BindPFlag failed")
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvwarehouse" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvwarehouse")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}

// connectionInfoFromConfig assembles connection settings from flags, the
// environment, and the config file. Server and database are required;
// omitting the user selects trusted authentication.
func connectionInfoFromConfig() warehouse.ConnectionInfo {
	info := warehouse.ConnectionInfo{
		Server:   viper.GetString("database.server"),
		Database: viper.GetString("database.name"),
		User:     viper.GetString("database.user"),
		Password: viper.GetString("database.password"),
	}

	if info.Server == "" {
		log.Fatal().Msg("no database server specified; use -S or set database.server in the config file")
	}
	if info.Database == "" {
		log.Fatal().Msg("no database specified; use -d or set database.name in the config file")
	}

	return info
}
