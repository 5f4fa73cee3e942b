package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"streamview_go/pkg/logger"
)

// Middleware envolve um http.Handler com comportamento adicional
type Middleware func(http.Handler) http.Handler

// Chain compõe middlewares em um único envoltório. O primeiro da lista é o
// mais externo, ou seja, vê a requisição antes dos demais.
func Chain(middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// RequestLogging registra cada requisição ao final do tratamento, com o
// código de resposta, o tamanho do corpo e a duração.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Infof("%s %s -> %d (%d bytes, %.3fs) de %s",
			r.Method, r.URL.Path, rec.status, rec.written,
			time.Since(start).Seconds(), r.RemoteAddr)
	})
}

// Recovery converte um panic do tratador em resposta 500, mantendo o
// servidor de pé e registrando a pilha para diagnóstico.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorf("Panic no tratamento de %s %s: %v\n%s",
					r.Method, r.URL.Path, err, debug.Stack())
				http.Error(w, "Erro interno do servidor", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// CORS libera o acesso de qualquer origem e responde pré-voos OPTIONS
// diretamente. Os clientes de visualização rodam em hosts arbitrários da
// rede local.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captura o código e o volume escritos na resposta
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.written += n
	return n, err
}
