// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the services.
const (
	AttrHTTPMethod = "http.method"
	AttrHTTPRoute  = "http.route"
	AttrHTTPURL    = "http.url"
	AttrHTTPStatus = "http.status_code"

	AttrOperation    = "op.name"
	AttrOperationID  = "op.request_id"
	AttrQueueChannel = "queue.channel"
	AttrTickNumber   = "tick.number"

	AttrStreamProtocol = "stream.protocol"
	AttrStreamEncoder  = "stream.encoder"
)

// HTTPAttributes returns span attributes for one HTTP request.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
		attribute.String(AttrHTTPURL, url),
	}
	if statusCode > 0 {
		attrs = append(attrs, attribute.Int(AttrHTTPStatus, statusCode))
	}
	return attrs
}

// OperationAttributes returns span attributes for one queued operation
// executed on the render tick.
func OperationAttributes(operation, requestID, channel string, tick int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrOperation, operation),
		attribute.String(AttrOperationID, requestID),
		attribute.String(AttrQueueChannel, channel),
		attribute.Int(AttrTickNumber, tick),
	}
}

// StreamAttributes returns span attributes for encoder pipeline work.
func StreamAttributes(protocol, encoder string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStreamProtocol, protocol),
		attribute.String(AttrStreamEncoder, encoder),
	}
}
