package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts handled requests by method, route and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration tracks request latency per route
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "community_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AIComments counts AI comment jobs by outcome
	AIComments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "community_ai_comments_total",
		Help: "AI comment jobs by outcome",
	}, []string{"outcome"})

	// RateLimited counts requests rejected by the rate limiter
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "community_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)
