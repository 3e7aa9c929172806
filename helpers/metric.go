package helpers

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPRequestsTotal is a counter for HTTP requests total
var HTTPRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
		ConstLabels: map[string]string{
			"service": "Access Service",
		},
	},
	[]string{"path", "method"},
)

// HTTPRequestErrors is a counter for HTTP requests errors
var HTTPRequestErrors = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_request_errors_total",
		Help: "Total number of HTTP requests errors",
		ConstLabels: map[string]string{
			"service": "Access Service",
		},
	},
	[]string{"path", "method"},
)

// OTPGeneratedTotal counts issued OTPs by app and delivery channel
var OTPGeneratedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "otp_generated_total",
		Help: "Total number of OTP codes issued",
		ConstLabels: map[string]string{
			"service": "Access Service",
		},
	},
	[]string{"app_id", "channel"},
)

// OTPVerifiedTotal counts verification attempts by app and outcome
var OTPVerifiedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "otp_verified_total",
		Help: "Total number of OTP verification attempts",
		ConstLabels: map[string]string{
			"service": "Access Service",
		},
	},
	[]string{"app_id", "result"},
)

// CollectHTTPMetrics registers the service counters
func CollectHTTPMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal, HTTPRequestErrors, OTPGeneratedTotal, OTPVerifiedTotal)
}
