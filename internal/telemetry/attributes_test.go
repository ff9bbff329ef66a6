// SPDX-License-Identifier: MIT

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func attrMap(kvs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.Emit()
	}
	return out
}

func TestHTTPAttributes(t *testing.T) {
	got := attrMap(HTTPAttributes("POST", "/add_element", "http://x/add_element", 200))
	assert.Equal(t, "POST", got[AttrHTTPMethod])
	assert.Equal(t, "/add_element", got[AttrHTTPRoute])
	assert.Equal(t, "200", got[AttrHTTPStatus])

	// a zero status is omitted until the response is written
	got = attrMap(HTTPAttributes("GET", "/health", "http://x/health", 0))
	_, present := got[AttrHTTPStatus]
	assert.False(t, present)
}

func TestOperationAttributes(t *testing.T) {
	got := attrMap(OperationAttributes("add_element", "req-1", "elements", 41))
	assert.Equal(t, "add_element", got[AttrOperation])
	assert.Equal(t, "req-1", got[AttrOperationID])
	assert.Equal(t, "elements", got[AttrQueueChannel])
	assert.Equal(t, "41", got[AttrTickNumber])
}

func TestStreamAttributes(t *testing.T) {
	got := attrMap(StreamAttributes("srt", "x264"))
	assert.Equal(t, "srt", got[AttrStreamProtocol])
	assert.Equal(t, "x264", got[AttrStreamEncoder])
}
