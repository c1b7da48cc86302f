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

import "errors"

var (
	// ErrNotFound indicates a natural key has no current dimension row.
	// Row-level: loaders count it and move on.
	ErrNotFound = errors.New("no current dimension row for key")

	// ErrBadDate indicates a date string does not decompose into exactly
	// three integer components (YYYY-MM-DD). Row-level.
	ErrBadDate = errors.New("date does not decompose into year-month-day")

	// ErrUnknownField indicates a revision names an attribute that is not
	// tracked on the company dimension.
	ErrUnknownField = errors.New("not a tracked company attribute")
)
