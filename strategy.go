// Copyright 2025 Bruno Schaatsbergen. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tcpstream

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// attemptFunc performs one raced connection attempt against one candidate.
type attemptFunc func(ctx context.Context, c Candidate) Outcome

// attemptAll tries candidates strictly in order, one at a time.
//
// The first Connected outcome is returned immediately and later candidates
// are never touched. Cancelled and TimedOut stop the iteration as well: they
// belong to the whole operation, not to the candidate that observed them.
// When every candidate fails, the result is Failed with an
// *AllAddressesFailedError that reports the last cause.
func attemptAll(ctx context.Context, target string, candidates []Candidate, attempt attemptFunc, logger Logger) Outcome {
	if len(candidates) == 0 {
		return Outcome{
			Kind: Failed,
			Err:  fmt.Errorf("%w for %s", ErrNoAddressesResolved, target),
		}
	}

	var causes error
	for i, c := range candidates {
		out := attempt(ctx, c)
		switch out.Kind {
		case Connected:
			logger.Debug("connected",
				Field{"candidate", c.String()},
				Field{"attempt", i + 1})
			return out
		case Failed:
			causes = multierr.Append(causes, fmt.Errorf("%s: %w", c, out.Err))
			logger.Debug("connection failed, trying next candidate",
				Field{"candidate", c.String()},
				Field{"remaining", len(candidates) - i - 1},
				Field{"error", out.Err.Error()})
		default:
			logger.Debug("attempt interrupted",
				Field{"candidate", c.String()},
				Field{"outcome", out.Kind.String()})
			return out
		}
	}

	return Outcome{
		Kind: Failed,
		Err:  newAllAddressesFailedError(target, causes),
	}
}
