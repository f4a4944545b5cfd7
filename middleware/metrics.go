package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	SigninSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signin_success_total",
		Help: "Total successful sign-in attempts",
	})

	SigninFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signin_failure_total",
		Help: "Total failed sign-in attempts",
	}, []string{"reason"})

	SignupSuccess = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signup_success_total",
		Help: "Total accounts created",
	})

	PostsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "posts_created_total",
		Help: "Total posts created",
	})

	Engagement = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_actions_total",
		Help: "Successful like, unlike, comment, follow and unfollow actions",
	}, []string{"action"})

	MediaUploaded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "media_uploaded_total",
		Help: "Uploaded media objects by type",
	}, []string{"type"})

	RateLimited = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Requests rejected by a rate limiter",
	}, []string{"scope"})
)

func init() {
	prometheus.MustRegister(RequestDuration, SigninSuccess, SigninFailure, SignupSuccess, PostsCreated, Engagement, MediaUploaded, RateLimited)
}

// Metrics records request duration by matched route template.
func Metrics() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler exposes the default registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
