// File: internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what handlers and middleware record through.
type Recorder interface {
	RecordRequest(method, route string, status int, duration time.Duration)
	RecordOtpSent()
	RecordSignIn()
	RecordReply(duration time.Duration)
	RecordReplyFailure()
}

// Collector registers and records the server's Prometheus metrics.
type Collector struct {
	requests      *prometheus.CounterVec
	requestTime   prometheus.Histogram
	otpSent       prometheus.Counter
	signIns       prometheus.Counter
	replies       prometheus.Counter
	replyFailures prometheus.Counter
	replyTime     prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "refine_http_requests_total",
			Help: "HTTP requests by method, route template and status code.",
		}, []string{"method", "route", "status"}),
		requestTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "refine_http_request_duration_seconds",
			Help:    "Time spent handling HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}),
		otpSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refine_otp_sent_total",
			Help: "Login codes handed to the delivery channel.",
		}),
		signIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refine_sign_ins_total",
			Help: "Successful code verifications.",
		}),
		replies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refine_replies_total",
			Help: "Assistant replies delivered.",
		}),
		replyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "refine_reply_failures_total",
			Help: "Assistant replies that ended in an error.",
		}),
		replyTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "refine_reply_duration_seconds",
			Help:    "Time from user message to resolved reply.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestTime,
		c.otpSent,
		c.signIns,
		c.replies,
		c.replyFailures,
		c.replyTime,
	)

	return c
}

// RecordRequest records one handled HTTP request.
func (c *Collector) RecordRequest(method, route string, status int, duration time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestTime.Observe(duration.Seconds())
}

// RecordOtpSent records a delivered login code.
func (c *Collector) RecordOtpSent() {
	c.otpSent.Inc()
}

// RecordSignIn records a completed verification.
func (c *Collector) RecordSignIn() {
	c.signIns.Inc()
}

// RecordReply records a delivered assistant reply.
func (c *Collector) RecordReply(duration time.Duration) {
	c.replies.Inc()
	c.replyTime.Observe(duration.Seconds())
}

// RecordReplyFailure records a reply that could not be generated.
func (c *Collector) RecordReplyFailure() {
	c.replyFailures.Inc()
}

// Handler returns the Prometheus scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
