package server

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
)

var (
	farConnects     = metrics.GetOrCreateCounter(`toolbridge_far_connects_total`)
	farDisconnects  = metrics.GetOrCreateCounter(`toolbridge_far_disconnects_total`)
	nearParseFaults = metrics.GetOrCreateCounter(`toolbridge_near_parse_errors_total`)
	farFrameFaults  = metrics.GetOrCreateCounter(`toolbridge_far_frame_errors_total`)
)

// nearRequests counts inbound near-side calls per method
func nearRequests(method string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`toolbridge_near_requests_total{method=%q}`, method))
}

// nearFaults counts near-side error replies per code
func nearFaults(code int) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`toolbridge_near_faults_total{code="%d"}`, code))
}
