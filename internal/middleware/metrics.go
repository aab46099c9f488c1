package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/RubachokBoss/quizspark/internal/metrics"
)

// Metrics пишет длительность запроса с меткой шаблона маршрута, а не
// сырого пути, чтобы коды квизов не раздували кардинальность.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.APIRequestDuration.WithLabelValues(
			route,
			r.Method,
			strconv.Itoa(status),
		).Observe(time.Since(start).Seconds())
	})
}
