package api

import (
	"net/http"
	"strings"

	"streamview_go/internal/redis"
	"streamview_go/internal/renderer"
	"streamview_go/pkg/logger"
)

// Router gerencia as rotas da API. Middlewares (CORS, logging, recovery)
// são aplicados uma única vez no servidor, em volta do mux raiz, não aqui.
type Router struct {
	handler  *Handler
	mux      *http.ServeMux
	basePath string
}

// NewRouter cria um novo router para a API
func NewRouter(coordinator *renderer.Coordinator, redisService *redis.Service, basePath string) *Router {
	handler := NewHandler(coordinator, redisService)

	// Normalizar base path
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if basePath != "" && strings.HasSuffix(basePath, "/") {
		basePath = basePath[:len(basePath)-1]
	}

	return &Router{
		handler:  handler,
		mux:      http.NewServeMux(),
		basePath: basePath,
	}
}

// Setup configura todas as rotas
func (r *Router) Setup() {
	// Estado das fontes e da exibição
	r.mux.Handle(r.path("/status"), http.HandlerFunc(r.handler.GetStatus))

	// Fontes ativas com estatísticas de transferência
	r.mux.Handle(r.path("/streams"), http.HandlerFunc(r.handler.GetStreams))

	// Estado e visibilidade de canais
	r.mux.Handle(r.path("/channels"), http.HandlerFunc(r.handler.GetChannels))
	r.mux.Handle(r.path("/channels/visible"), http.HandlerFunc(r.handler.SetChannelVisible))

	// Quadro atual de um fluxo
	r.mux.Handle(r.path("/frame/"), http.HandlerFunc(r.handler.GetFrame))

	// Congelamento da exibição
	r.mux.Handle(r.path("/freeze"), http.HandlerFunc(r.handler.Freeze))
	r.mux.Handle(r.path("/unfreeze"), http.HandlerFunc(r.handler.Unfreeze))

	// Estatísticas de transferência
	r.mux.Handle(r.path("/stats"), http.HandlerFunc(r.handler.GetStats))

	// Dados persistidos
	r.mux.Handle(r.path("/history/"), http.HandlerFunc(r.handler.GetChannelHistory))
	r.mux.Handle(r.path("/markers/"), http.HandlerFunc(r.handler.GetMarkers))

	logger.Infof("API configurada com base path: %s", r.basePath)
}

// path retorna o caminho completo para uma rota
func (r *Router) path(route string) string {
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return r.basePath + route
}

// ServeHTTP implementa a interface http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
