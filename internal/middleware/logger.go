package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func RequestLogger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			start := time.Now()
			defer func() {
				event := log.Info()
				if ww.Status() >= http.StatusInternalServerError {
					event = log.Error()
				}
				event.
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("query", r.URL.RawQuery).
					Str("ip", r.RemoteAddr).
					Str("user_agent", r.UserAgent()).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// StructuredLogger кладет в контекст логгер с request_id, его достают через zerolog.Ctx.
func StructuredLogger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			reqID := middleware.GetReqID(ctx)
			if reqID == "" {
				reqID = strconv.FormatUint(middleware.NextRequestID(), 10)
				ctx = context.WithValue(ctx, middleware.RequestIDKey, reqID)
			}

			reqLog := log.With().Str("request_id", reqID).Logger()
			next.ServeHTTP(w, r.WithContext(reqLog.WithContext(ctx)))
		})
	}
}
