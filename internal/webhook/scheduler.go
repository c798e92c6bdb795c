// Copyright (C) 2026  Danish Fareed <danish.fareed@pm.me>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package webhook

import (
	"sync"
	"time"

	"github.com/spf13/viper"
)

func init() {
	viper.SetDefault("webhook.retry.ttl", "24h")
}

type attemptState struct {
	count   int
	expires time.Time
}

// Scheduler tracks in-process retry chains. Attempt counters are held per webhook and expire
// after a ttl, so a chain interrupted by a restart does not pin a stale count forever.
type Scheduler struct {
	mu       sync.Mutex
	attempts map[int64]*attemptState
	clock    func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		attempts: make(map[int64]*attemptState),
		clock:    time.Now,
	}
}

// NextAttempt increments the counter for the key and reports whether another attempt is within
// the budget. An exhausted counter is cleared, the next failure starts a fresh chain.
func (s *Scheduler) NextAttempt(key int64, max int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()

	state := s.attempts[key]
	if state == nil || now.After(state.expires) {
		state = &attemptState{}
		s.attempts[key] = state
	}

	if state.count >= max {
		delete(s.attempts, key)
		return 0, false
	}

	state.count++
	state.expires = now.Add(viper.GetDuration("webhook.retry.ttl"))

	return state.count, true
}

// Clear drops the counter for the key.
func (s *Scheduler) Clear(key int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attempts, key)
}

// After arms a one-shot timer.
func (s *Scheduler) After(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// Sweep drops expired counters. Called periodically alongside the other janitors.
func (s *Scheduler) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()

	for key, state := range s.attempts {
		if now.After(state.expires) {
			delete(s.attempts, key)
		}
	}
}
