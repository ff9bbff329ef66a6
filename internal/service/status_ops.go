// SPDX-License-Identifier: MIT

package service

import (
	"context"

	"github.com/simwire/omnigate/internal/envelope"
)

func (c *Controller) registerStatusOps() {
	c.registerInline("request_status", func(p map[string]any) (map[string]any, envelope.Envelope) {
		if env := require(p, "request_id"); env != nil {
			return nil, env
		}
		return p, nil
	}, c.requestStatus)
}

// requestStatus reports the tracked lifecycle of one queued request.
func (c *Controller) requestStatus(_ context.Context, p map[string]any) envelope.Envelope {
	id := str(p, "request_id")
	entry := c.Tracker.Get(id)
	if entry == nil {
		return envelope.ErrorWithDetails(envelope.CodeNotFound,
			"Unknown or expired request id",
			map[string]any{"request_id": id})
	}
	return envelope.OK(entry.Snapshot())
}
