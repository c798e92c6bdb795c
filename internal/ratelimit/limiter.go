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

// Package ratelimit implements fixed-window admission control per client identity. Buckets are
// addressed by a salted hash of the client ip and expire after the window length. The increment
// happens under the store lock, so concurrent requests from the same client cannot observe the
// same count.
package ratelimit

import (
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/danishfareed/formgate/internal/crypto"
)

func init() {
	viper.SetDefault("ratelimit.limit", 5)
	viper.SetDefault("ratelimit.window", "60s")
	viper.SetDefault("ratelimit.salt", "formgate")
}

// Result is the outcome of an admission check, including the values exposed as rate limit
// response headers.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

// Limiter decides whether a client identity may submit.
type Limiter interface {
	// Allow accounts one request for the identity and reports whether it is admitted.
	Allow(identity string) Result
	// Sweep drops expired window state.
	Sweep()
}

type window struct {
	count int
	start time.Time
}

type memoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*window

	limit  int
	length time.Duration
	salt   string
	now    func() time.Time
}

// NewLimiter creates an in-memory limiter from the ratelimit configuration in viper.
func NewLimiter() Limiter {
	return &memoryLimiter{
		buckets: make(map[string]*window),
		limit:   viper.GetInt("ratelimit.limit"),
		length:  viper.GetDuration("ratelimit.window"),
		salt:    viper.GetString("ratelimit.salt"),
		now:     time.Now,
	}
}

func (m *memoryLimiter) Allow(identity string) Result {
	key := crypto.HashIdentity(m.salt, identity)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.buckets[key]
	if !ok || now.Sub(bucket.start) >= m.length {
		// A missing or expired bucket starts a fresh window. The window keeps its original
		// start, it is a fixed-size bucket and not a rolling reset.
		m.buckets[key] = &window{count: 1, start: now}

		return Result{
			Allowed:   true,
			Limit:     m.limit,
			Remaining: m.limit - 1,
			Reset:     now.Add(m.length),
		}
	}

	reset := bucket.start.Add(m.length)

	if bucket.count >= m.limit {
		return Result{
			Limit:      m.limit,
			Remaining:  0,
			Reset:      reset,
			RetryAfter: reset.Sub(now),
		}
	}

	bucket.count++

	return Result{
		Allowed:   true,
		Limit:     m.limit,
		Remaining: m.limit - bucket.count,
		Reset:     reset,
	}
}

// Sweep drops expired buckets. Expired buckets are also replaced lazily on access, the sweep
// only bounds memory for identities that never return.
func (m *memoryLimiter) Sweep() {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, bucket := range m.buckets {
		if now.Sub(bucket.start) >= m.length {
			delete(m.buckets, key)
		}
	}
}
