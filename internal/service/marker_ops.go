// SPDX-License-Identifier: MIT

package service

import (
	"context"

	"github.com/simwire/omnigate/internal/envelope"
	"github.com/simwire/omnigate/internal/validate"
)

func (c *Controller) registerMarkerOps() {
	c.registerQueued("markers_visible", c.validateMarkersVisible, c.tickMarkersVisible)
	c.registerQueued("markers_individual", c.validateMarkerIndividual, c.tickMarkerIndividual)
	c.registerQueued("markers_selective", c.validateMarkersSelective, c.tickMarkersSelective)
	c.registerQueued("markers_debug", nil, c.tickMarkersDebug)
}

func (c *Controller) validateMarkersVisible(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "visible"); env != nil {
		return nil, env
	}
	v, err := validate.Bool("visible", p["visible"])
	if err != nil {
		return nil, invalidParam(err)
	}
	return map[string]any{"visible": v}, nil
}

func (c *Controller) tickMarkersVisible(_ context.Context, p map[string]any) envelope.Envelope {
	visible, _ := p["visible"].(bool)
	changed := c.Host.SetMarkersVisible(visible)
	return envelope.OK(map[string]any{"visible": visible, "changed": changed})
}

func (c *Controller) validateMarkerIndividual(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "waypoint_id", "visible"); env != nil {
		return nil, env
	}
	b := validate.NewBatch()
	out := map[string]any{
		"waypoint_id": b.String("waypoint_id", p["waypoint_id"], idOpts),
		"visible":     b.Bool("visible", p["visible"]),
	}
	if env := batchEnvelope(b); env != nil {
		return nil, env
	}
	if _, err := c.Store.GetWaypoint(out["waypoint_id"].(string)); err != nil {
		return nil, storeError("markers_individual", err)
	}
	return out, nil
}

func (c *Controller) tickMarkerIndividual(_ context.Context, p map[string]any) envelope.Envelope {
	visible, _ := p["visible"].(bool)
	c.Host.SetMarkerVisible(str(p, "waypoint_id"), visible)
	return envelope.OK(map[string]any{"waypoint_id": str(p, "waypoint_id"), "visible": visible})
}

func (c *Controller) validateMarkersSelective(p map[string]any) (map[string]any, envelope.Envelope) {
	if env := require(p, "waypoint_ids"); env != nil {
		return nil, env
	}
	ids, env := stringsOf(p, "waypoint_ids")
	if env != nil {
		return nil, env
	}
	return map[string]any{"waypoint_ids": ids}, nil
}

func (c *Controller) tickMarkersSelective(_ context.Context, p map[string]any) envelope.Envelope {
	ids, _ := p["waypoint_ids"].([]string)
	c.Host.SetMarkersSelective(ids)
	return envelope.OK(map[string]any{"visible_count": len(ids)})
}

func (c *Controller) tickMarkersDebug(_ context.Context, _ map[string]any) envelope.Envelope {
	return envelope.OK(c.Host.MarkerDebug())
}
