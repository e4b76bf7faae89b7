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

package listener

import (
	"context"
	"time"

	"pix-withdraw-go/internal/lock"
	"pix-withdraw-go/internal/models"
)

// Sweeper settles the scheduled withdraws that are due.
type Sweeper interface {
	ProcessScheduledWithdraws(ctx context.Context) (*models.SweepResult, error)
}

// SettlementListenerConfig contains configuration for SettlementListener
type SettlementListenerConfig struct {
	Sweeper         Sweeper
	Locker          lock.Locker // optional, defaults to lock.NoopLocker
	PollingInterval time.Duration
	LockTTL         time.Duration
}

// SettlementListener periodically sweeps scheduled withdraws
type SettlementListener struct {
	sweeper         Sweeper
	locker          lock.Locker
	pollingInterval time.Duration
	lockTTL         time.Duration

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewSettlementListener creates a new settlement listener
func NewSettlementListener(cfg SettlementListenerConfig) *SettlementListener {
	locker := cfg.Locker
	if locker == nil {
		locker = lock.NoopLocker{}
	}
	pollingInterval := cfg.PollingInterval
	if pollingInterval <= 0 {
		pollingInterval = time.Minute
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}

	return &SettlementListener{
		sweeper:         cfg.Sweeper,
		locker:          locker,
		pollingInterval: pollingInterval,
		lockTTL:         lockTTL,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}
