// SPDX-License-Identifier: MIT

package telemetry

import "go.opentelemetry.io/otel/attribute"

// Attribute keys used on daemon spans.
const (
	SessionIDKey    = "session.id"
	SessionStateKey = "session.state"
	SessionEventKey = "session.event"

	DeviceKindKey = "device.kind"
	DeviceIDKey   = "device.id"

	RecordingIDKey    = "recording.id"
	RecordingBytesKey = "recording.bytes"
	RecordingMIMEKey  = "recording.mime"

	RemoteCommandKey = "remote.command"

	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// SessionAttributes describes a capture session transition.
func SessionAttributes(id, state, event string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(SessionStateKey, state)}
	if id != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, id))
	}
	if event != "" {
		attrs = append(attrs, attribute.String(SessionEventKey, event))
	}
	return attrs
}

// DeviceAttributes describes a device acquisition.
func DeviceAttributes(kind, id string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DeviceKindKey, kind),
		attribute.String(DeviceIDKey, id),
	}
}

// RecordingAttributes describes a finished recording.
func RecordingAttributes(id, mime string, size int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RecordingIDKey, id),
		attribute.String(RecordingMIMEKey, mime),
		attribute.Int64(RecordingBytesKey, size),
	}
}

// ErrorAttributes marks a span as failed with a classified error type.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
