package metrics

import (
	"strconv"
	"time"

	obserrors "github.com/target/storefront-go/internal/observability/errors"
	"github.com/target/storefront-go/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// APIRequest captures one outbound backend call for metric emission.
type APIRequest struct {
	// Endpoint is "METHOD /path", e.g. "GET /cart".
	Endpoint string
	// Status is the HTTP status, 0 when no response was received.
	Status   int
	Duration time.Duration
	Err      error
}

// EmitAPIRequest emits the standard request counter and latency timing.
func EmitAPIRequest(sink statsd.Sink, in APIRequest) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	if in.Err != nil || in.Status >= 400 {
		result = ResultError
	}

	tags := map[string]string{
		"endpoint": in.Endpoint,
		"result":   result,
	}
	if in.Status > 0 {
		tags["status"] = strconv.Itoa(in.Status)
	}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("api.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("api.request.duration", in.Duration, CloneTags(tags))
	}
}

// EmitUnauthorized counts a 401 response for the endpoint.
func EmitUnauthorized(sink statsd.Sink, endpoint string) {
	if sink == nil {
		return
	}
	sink.Count("api.unauthorized", 1, map[string]string{"endpoint": endpoint})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
