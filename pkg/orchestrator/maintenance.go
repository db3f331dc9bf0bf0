// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Maintenance runs the periodic housekeeping jobs: sweeping expired
// cache entries and garbage-collecting unused fallback rules.
type Maintenance struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// MaintenanceConfig configures the schedules. Cron expressions use the
// standard five-field form.
type MaintenanceConfig struct {
	// CacheSweepSpec defaults to every 10 minutes.
	CacheSweepSpec string

	// RuleCleanupSpec defaults to daily at 03:00.
	RuleCleanupSpec string

	Logger *zap.Logger
}

// NewMaintenance schedules housekeeping for the orchestrator. Call
// Start to begin and Stop to halt.
func NewMaintenance(o *Orchestrator, cfg MaintenanceConfig) (*Maintenance, error) {
	if cfg.CacheSweepSpec == "" {
		cfg.CacheSweepSpec = "*/10 * * * *"
	}
	if cfg.RuleCleanupSpec == "" {
		cfg.RuleCleanupSpec = "0 3 * * *"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	m := &Maintenance{
		cron:   cron.New(),
		logger: cfg.Logger,
	}

	if _, err := m.cron.AddFunc(cfg.CacheSweepSpec, func() {
		swept := o.responseCache.Sweep() + o.intentCache.Sweep()
		if swept > 0 {
			m.logger.Info("cache sweep", zap.Int("expired", swept))
		}
	}); err != nil {
		return nil, fmt.Errorf("scheduling cache sweep: %w", err)
	}

	if o.fallback != nil {
		if _, err := m.cron.AddFunc(cfg.RuleCleanupSpec, func() {
			if removed := o.fallback.Cleanup(); removed > 0 {
				m.logger.Info("fallback rule cleanup", zap.Int("removed", removed))
			}
		}); err != nil {
			return nil, fmt.Errorf("scheduling rule cleanup: %w", err)
		}
	}

	return m, nil
}

// Start begins the schedules in a background goroutine.
func (m *Maintenance) Start() { m.cron.Start() }

// Stop halts scheduling and waits for running jobs.
func (m *Maintenance) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
}
