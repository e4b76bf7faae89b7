/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawCommand is a validated withdraw request ready for the workflow
type WithdrawCommand struct {
	Method       string
	Amount       decimal.Decimal
	ScheduledFor *time.Time
	Pix          *PixCommand
}

// PixCommand carries the PIX destination of a withdraw command
type PixCommand struct {
	Type string
	Key  string
}

// WithdrawResult represents the outcome of creating a withdraw
type WithdrawResult struct {
	WithdrawId string          `json:"withdraw_id"`
	AccountId  string          `json:"account_id"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// SweepError records one scheduled withdraw the sweep could not settle
type SweepError struct {
	WithdrawId string `json:"withdraw_id"`
	Error      string `json:"error"`
}

// SweepResult summarizes one settlement pass
type SweepResult struct {
	Processed int          `json:"processed"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Errors    []SweepError `json:"errors"`
}
