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
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore captures every statement so tests can assert on what a run
// actually executed against the database.
type recordingStore struct {
	statements []string
	execErr    error
}

func (s *recordingStore) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	s.statements = append(s.statements, sql)
	if s.execErr != nil {
		return pgconn.CommandTag{}, s.execErr
	}
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (s *recordingStore) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	s.statements = append(s.statements, sql)
	return nil, errors.New("recordingStore: no result sets")
}

func (s *recordingStore) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	s.statements = append(s.statements, sql)
	return errRow{}
}

type errRow struct{}

func (errRow) Scan(...any) error { return errors.New("recordingStore: no rows") }

func TestRunLoadResetOnlyDeletes(t *testing.T) {
	db := &recordingStore{}
	logger := zerolog.Nop()

	err := runLoad(context.Background(), db, logger, true)
	require.NoError(t, err)

	// a reset empties every table and stops: no schema creation, no date
	// generation, no extract loading afterward
	require.Len(t, db.statements, 6)
	for _, stmt := range db.statements {
		assert.True(t, strings.HasPrefix(stmt, "DELETE FROM"), "unexpected statement %q", stmt)
	}
	assert.Equal(t, "DELETE FROM FactFinancials", db.statements[0])
	assert.Equal(t, "DELETE FROM DimDate", db.statements[5])
}

func TestRunLoadResetDoesNotReadExtracts(t *testing.T) {
	prevDir := extractDir
	extractDir = t.TempDir()
	t.Cleanup(func() { extractDir = prevDir })

	db := &recordingStore{}

	// no extract files exist; a reset must still succeed
	err := runLoad(context.Background(), db, zerolog.Nop(), true)
	assert.NoError(t, err)
}

func TestRunLoadResetPropagatesDeleteFailure(t *testing.T) {
	db := &recordingStore{execErr: errors.New("connection lost")}

	err := runLoad(context.Background(), db, zerolog.Nop(), true)
	assert.Error(t, err)
}

func TestRunLoadWithoutResetDeletesNothing(t *testing.T) {
	prevDir := extractDir
	extractDir = t.TempDir()
	t.Cleanup(func() { extractDir = prevDir })

	db := &recordingStore{}

	// extracts are absent so the load fails, but no table may be emptied
	// on the way there
	err := runLoad(context.Background(), db, zerolog.Nop(), false)
	assert.Error(t, err)

	for _, stmt := range db.statements {
		assert.False(t, strings.HasPrefix(stmt, "DELETE FROM"), "load run issued %q", stmt)
	}
}
