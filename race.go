// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// race runs op against two interrupting triggers: cancellation of ctx and
// expiry of timeout. Whichever of the three settles first wins a single
// compare-and-swap; the others become no-ops.
//
// op receives its own attempt context. It is detached from ctx's
// cancellation so that the only way op gets aborted is by losing the race,
// and the result is always classified by the winning trigger, never by the
// error op returns after the abort.
//
// If ctx or the timer wins, the attempt context is cancelled and race returns
// right away without waiting for op. op keeps running in the background; if
// it still produces a value, discard receives it.
//
// The timer and the cancellation registration are released before race
// returns, on every path.
func race[T any](ctx context.Context, clk clock.Clock, m *metrics, timeout time.Duration, op func(context.Context) (T, error), discard func(T)) (T, OutcomeKind, error) {
	var zero T
	if ctx.Err() != nil {
		return zero, Cancelled, context.Cause(ctx)
	}

	attemptCtx, abort := context.WithCancel(context.WithoutCancel(ctx))
	defer abort()

	var state atomic.Int32
	settle := func(k OutcomeKind) bool {
		return state.CompareAndSwap(int32(pending), int32(k))
	}

	// aborted is closed only by an interrupting winner.
	aborted := make(chan struct{})
	interrupt := func(k OutcomeKind) {
		if settle(k) {
			abort()
			close(aborted)
		}
	}

	stop := context.AfterFunc(ctx, func() { interrupt(Cancelled) })
	m.registrations.Inc()
	defer func() {
		stop()
		m.registrations.Dec()
	}()

	if timeout != InfiniteTimeout {
		timer := clk.AfterFunc(timeout, func() { interrupt(TimedOut) })
		m.timers.Inc()
		defer func() {
			timer.Stop()
			m.timers.Dec()
		}()
	}

	type result struct {
		value T
		err   error
	}

	// Buffered so op's goroutine never blocks after the race was lost.
	done := make(chan result, 1)
	go func() {
		value, err := op(attemptCtx)
		if err != nil {
			if settle(Failed) {
				done <- result{err: err}
			}
			return
		}
		if settle(Connected) {
			done <- result{value: value}
			return
		}
		discard(value)
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return zero, Failed, res.err
		}
		return res.value, Connected, nil
	case <-aborted:
		if OutcomeKind(state.Load()) == Cancelled {
			return zero, Cancelled, context.Cause(ctx)
		}
		return zero, TimedOut, nil
	}
}
