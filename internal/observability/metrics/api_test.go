package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	kind  string
	name  string
	tags  map[string]string
	value any
}

type recordingSink struct {
	metrics []recordedMetric
}

func (r *recordingSink) Count(name string, value int64, tags map[string]string) {
	r.metrics = append(r.metrics, recordedMetric{kind: "count", name: name, tags: tags, value: value})
}

func (r *recordingSink) Timing(name string, value time.Duration, tags map[string]string) {
	r.metrics = append(r.metrics, recordedMetric{kind: "timing", name: name, tags: tags, value: value})
}

func TestEmitAPIRequest_Success(t *testing.T) {
	sink := &recordingSink{}
	EmitAPIRequest(sink, APIRequest{Endpoint: "GET /cart", Status: 200, Duration: 12 * time.Millisecond})

	require.Len(t, sink.metrics, 2)
	assert.Equal(t, "api.request", sink.metrics[0].name)
	assert.Equal(t, map[string]string{"endpoint": "GET /cart", "result": "success", "status": "200"}, sink.metrics[0].tags)
	assert.Equal(t, "api.request.duration", sink.metrics[1].name)
}

func TestEmitAPIRequest_TransportError(t *testing.T) {
	sink := &recordingSink{}
	EmitAPIRequest(sink, APIRequest{Endpoint: "POST /cart", Err: errors.New("refused")})

	require.Len(t, sink.metrics, 1)
	tags := sink.metrics[0].tags
	assert.Equal(t, "error", tags["result"])
	assert.Equal(t, "errors_errorstring", tags["error_class"])
	_, hasStatus := tags["status"]
	assert.False(t, hasStatus)
}

func TestEmitNilSink(t *testing.T) {
	EmitAPIRequest(nil, APIRequest{Endpoint: "GET /cart"})
	EmitUnauthorized(nil, "GET /cart")
}
