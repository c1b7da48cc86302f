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

// Package warehouse loads a Kimball star schema of US company data into
// PostgreSQL. Dimensions are loaded before facts; company history is kept
// with SCD Type 2 rows; every insert is guarded so re-runs are idempotent.
package warehouse

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the slice of pgxpool.Pool the loaders use. Keeping it narrow lets
// tests substitute an in-memory double that records statement order.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Result holds the per-batch counters reported at the end of a load stage.
type Result struct {
	Loaded  int
	Skipped int
	Errors  int
}

// ConnectionInfo describes how to reach the warehouse database. An empty
// User means a trusted connection (no credentials in the DSN).
type ConnectionInfo struct {
	Server   string `toml:"server"`
	Database string `toml:"name"`
	User     string `toml:"user,omitempty"`
	Password string `toml:"password,omitempty"`
}

// DSN builds a postgres:// connection string from the connection info.
func (info ConnectionInfo) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   info.Server,
		Path:   "/" + info.Database,
	}

	if info.User != "" {
		if info.Password != "" {
			u.User = url.UserPassword(info.User, info.Password)
		} else {
			u.User = url.User(info.User)
		}
	}

	return u.String()
}

// Connect opens a connection pool for the warehouse and verifies it with a
// ping. Callers own the pool and must Close it on every exit path.
func Connect(ctx context.Context, info ConnectionInfo) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, info.DSN())
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s: %w", info.Server, err)
	}

	return pool, nil
}
