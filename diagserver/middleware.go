/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package diagserver

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/typstudio/editorkit/log"
)

const recoveryStackSize = 8192

func requestLogging(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			wrw := chimiddleware.NewWrapResponseWriter(rw, r.ProtoMajor)
			next.ServeHTTP(wrw, r)

			status := wrw.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info(fmt.Sprintf("response completed in %.3fs", time.Since(startTime).Seconds()),
				log.String("request_id", chimiddleware.GetReqID(r.Context())),
				log.String("method", r.Method),
				log.String("uri", r.RequestURI),
				log.Int("status", status),
				log.Int("bytes_sent", wrw.BytesWritten()),
				log.DurationIn(time.Since(startTime), time.Millisecond),
			)
		})
	}
}

func recovery(logger log.FieldLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					stack := make([]byte, recoveryStackSize)
					stack = stack[:runtime.Stack(stack, false)]
					logger.Error(fmt.Sprintf("Panic: %+v", p), log.String("stack", string(stack)))
					rw.WriteHeader(http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(rw, r)
		})
	}
}
