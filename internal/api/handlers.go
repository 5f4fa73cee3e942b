package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"streamview_go/internal/models"
	"streamview_go/internal/redis"
	"streamview_go/internal/renderer"
	"streamview_go/pkg/logger"
)

// Handler contém os handlers HTTP para a API
type Handler struct {
	coordinator  *renderer.Coordinator
	redisService *redis.Service
}

// NewHandler cria um novo handler de API
func NewHandler(coordinator *renderer.Coordinator, redisService *redis.Service) *Handler {
	return &Handler{
		coordinator:  coordinator,
		redisService: redisService,
	}
}

// GetStatus retorna o estado de todas as fontes
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	statuses := h.coordinator.Status()

	response := map[string]interface{}{
		"frozen":    h.coordinator.Frozen(),
		"sources":   statuses,
		"timestamp": time.Now().UnixNano() / int64(time.Millisecond),
	}

	h.respondWithJSON(w, http.StatusOK, response)
}

// GetStreams retorna as fontes ativas com suas taxas de transferência
func (h *Handler) GetStreams(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	statuses := h.coordinator.Status()
	rates := h.coordinator.XferRates()

	type streamInfo struct {
		models.StreamStatus
		XferRate float64 `json:"xferRate"`
	}

	streams := make([]streamInfo, 0, len(statuses))
	for _, st := range statuses {
		streams = append(streams, streamInfo{
			StreamStatus: st,
			XferRate:     rates[st.SourceID],
		})
	}

	h.respondWithJSON(w, http.StatusOK, streams)
}

// GetChannels retorna o estado de todos os canais
func (h *Handler) GetChannels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.coordinator.ChannelStates())
}

// SetChannelVisible altera a visibilidade de um canal
func (h *Handler) SetChannelVisible(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	var req struct {
		Name    string `json:"name"`
		Visible bool   `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Corpo da requisição inválido")
		return
	}
	if req.Name == "" {
		h.respondWithError(w, http.StatusBadRequest, "Nome do canal não fornecido")
		return
	}

	if !h.coordinator.SetChannelVisible(req.Name, req.Visible) {
		h.respondWithError(w, http.StatusNotFound, fmt.Sprintf("Canal %q não encontrado", req.Name))
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"name":    req.Name,
		"visible": req.Visible,
	})
}

// GetFrame retorna o quadro atual de um fluxo
func (h *Handler) GetFrame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	id := lastPathSegment(r.URL.Path)
	if id == "" || id == "frame" {
		h.respondWithError(w, http.StatusBadRequest, "Identificador de fluxo não fornecido")
		return
	}

	frame, ok := h.coordinator.Frame(id)
	if !ok {
		h.respondWithError(w, http.StatusNotFound, fmt.Sprintf("Fluxo %q não encontrado", id))
		return
	}

	h.respondWithJSON(w, http.StatusOK, frame)
}

// Freeze congela a exibição
func (h *Handler) Freeze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.coordinator.Freeze()
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"frozen": true})
}

// Unfreeze retoma a exibição
func (h *Handler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.coordinator.Unfreeze()
	h.respondWithJSON(w, http.StatusOK, map[string]bool{"frozen": false})
}

// GetStats retorna estatísticas de transferência por fonte
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	h.respondWithJSON(w, http.StatusOK, h.coordinator.XferRates())
}

// GetChannelHistory retorna o histórico persistido de um canal
func (h *Handler) GetChannelHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	name := lastPathSegment(r.URL.Path)
	if name == "" || name == "history" {
		h.respondWithError(w, http.StatusBadRequest, "Nome do canal não fornecido")
		return
	}

	var history []models.HistoryPoint

	if h.redisService != nil && h.redisService.IsConnected() {
		redisHistory, err := h.redisService.GetChannelHistory(name)
		if err == nil {
			history = redisHistory
		}
	}

	if history == nil {
		history = []models.HistoryPoint{}
	}

	h.respondWithJSON(w, http.StatusOK, history)
}

// GetMarkers retorna os marcadores persistidos de uma fonte
func (h *Handler) GetMarkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondWithError(w, http.StatusMethodNotAllowed, "Método não permitido")
		return
	}

	id := lastPathSegment(r.URL.Path)
	if id == "" || id == "markers" {
		h.respondWithError(w, http.StatusBadRequest, "Identificador de fonte não fornecido")
		return
	}

	var markers []models.Marker

	if h.redisService != nil && h.redisService.IsConnected() {
		redisMarkers, err := h.redisService.GetMarkers(id)
		if err == nil {
			markers = redisMarkers
		}
	}

	if markers == nil {
		markers = []models.Marker{}
	}

	h.respondWithJSON(w, http.StatusOK, markers)
}

// lastPathSegment extrai o último segmento não-vazio do caminho
func lastPathSegment(path string) string {
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// respondWithError responde com erro em formato JSON
func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithJSON responde com JSON. Serializa antes de escrever o cabeçalho
// para que uma falha de codificação ainda possa virar um 500 limpo.
func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Errorf("Erro ao codificar resposta JSON: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(w, `{"error":"Erro interno ao processar resposta"}`)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}
