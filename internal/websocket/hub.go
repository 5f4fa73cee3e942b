package websocket

import (
	"context"
	"sync"
	"time"

	"streamview_go/internal/models"
	"streamview_go/pkg/logger"
)

// throttleWindow limita a frequência de quadros por fluxo enviados aos
// clientes. Quadros que chegarem dentro da janela são descartados; o
// cliente sempre recebe o conteúdo completo no próximo quadro.
const throttleWindow = 50 * time.Millisecond

// CommandHandler processa comandos vindos dos clientes
type CommandHandler func(cmd models.ClientCommand)

// Hub gerencia todas as conexões WebSocket e distribuição de mensagens
type Hub struct {
	// Clientes registrados
	clients map[*Client]bool

	// Canal para registrar clientes
	register chan *Client

	// Canal para desregistrar clientes
	unregister chan *Client

	// Canal para mensagens de broadcast
	broadcast chan []byte

	// Comando recebido dos clientes
	commands chan models.ClientCommand

	// Mutex para operações concorrentes no mapa de clientes
	mu sync.RWMutex

	// Último envio de quadro por fluxo, para limitar a taxa
	lastFrameSent map[string]time.Time
	frameLock     sync.Mutex

	// Tratador de comandos dos clientes (freeze, visibilidade etc.)
	commandHandler CommandHandler
	handlerLock    sync.RWMutex

	// Estatísticas
	stats struct {
		totalMessages      int64
		totalClients       int64
		messagesPerSecond  float64
		lastStatsReset     time.Time
		messagesSinceReset int64
	}
	statsLock sync.Mutex

	// Sinal para encerramento do hub
	ctx    context.Context
	cancel context.CancelFunc
}

// NewHub cria uma nova instância do Hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan []byte, 256),
		commands:      make(chan models.ClientCommand, 100),
		lastFrameSent: make(map[string]time.Time),
		ctx:           ctx,
		cancel:        cancel,
	}

	h.stats.lastStatsReset = time.Now()

	return h
}

// SetCommandHandler define quem processa os comandos dos clientes
func (h *Hub) SetCommandHandler(handler CommandHandler) {
	h.handlerLock.Lock()
	defer h.handlerLock.Unlock()
	h.commandHandler = handler
}

// Run inicia o loop principal do hub para gerenciar clientes e mensagens
func (h *Hub) Run() {
	logger.Info("Iniciando WebSocket Hub")

	statsTicker := time.NewTicker(30 * time.Second)
	defer statsTicker.Stop()

	// Ticker para manter conexões ativas
	pingTicker := time.NewTicker(5 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			logger.Info("Encerrando WebSocket Hub")
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()

			logger.Infof("Novo cliente WebSocket conectado. ID: %s. Total: %d", client.id, clientCount)

			h.statsLock.Lock()
			h.stats.totalClients++
			h.statsLock.Unlock()

			go h.sendWelcome(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)

				logger.Infof("Cliente WebSocket desconectado. ID: %s. Total: %d", client.id, len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clientCount := len(h.clients)

			h.statsLock.Lock()
			h.stats.totalMessages++
			h.stats.messagesSinceReset++
			h.statsLock.Unlock()

			if clientCount == 0 {
				h.mu.RUnlock()
				continue
			}

			// Clientes com canal cheio são marcados para desconexão
			deadClients := make([]*Client, 0, 4)

			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					deadClients = append(deadClients, client)
				}
			}
			h.mu.RUnlock()

			// Remover clientes mortos aqui mesmo: enviar para h.unregister
			// de dentro do Run travaria, já que este laço é o único leitor.
			if len(deadClients) > 0 {
				h.mu.Lock()
				for _, client := range deadClients {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
						logger.Infof("Cliente WebSocket removido por canal cheio. ID: %s. Total: %d",
							client.id, len(h.clients))
					}
				}
				h.mu.Unlock()
			}

		case cmd := <-h.commands:
			go h.handleClientCommand(cmd)

		case <-statsTicker.C:
			h.statsLock.Lock()
			elapsed := time.Since(h.stats.lastStatsReset).Seconds()
			if elapsed > 0 {
				h.stats.messagesPerSecond = float64(h.stats.messagesSinceReset) / elapsed
			}
			h.stats.messagesSinceReset = 0
			h.stats.lastStatsReset = time.Now()
			mps := h.stats.messagesPerSecond
			total := h.stats.totalMessages
			h.statsLock.Unlock()

			h.mu.RLock()
			clientCount := len(h.clients)
			h.mu.RUnlock()

			logger.Infof("Estatísticas WebSocket: %d clientes, %.2f msgs/seg, total: %d mensagens",
				clientCount, mps, total)

		case <-pingTicker.C:
			h.sendPingToAllClients()
		}
	}
}

// PublishFrame envia um quadro de fluxo para todos os clientes,
// respeitando a janela de limitação por fluxo
func (h *Hub) PublishFrame(frame models.Frame) {
	h.frameLock.Lock()
	last, seen := h.lastFrameSent[frame.SourceID]
	now := time.Now()
	if seen && now.Sub(last) < throttleWindow {
		h.frameLock.Unlock()
		return
	}
	h.lastFrameSent[frame.SourceID] = now
	h.frameLock.Unlock()

	if jsonMessage, err := SerializeMessage(NewFrameMessage(frame)); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de quadro", err)
	}
}

// PublishSnapshot envia o instantâneo mesclado para todos os clientes
func (h *Hub) PublishSnapshot(snap models.Snapshot) {
	if jsonMessage, err := SerializeMessage(NewSnapshotMessage(snap)); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de instantâneo", err)
	}
}

// BroadcastStatus envia atualização de estado de uma fonte
func (h *Hub) BroadcastStatus(status models.StreamStatus) {
	if jsonMessage, err := SerializeMessage(NewStatusMessage(status)); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de status", err)
	}
}

// BroadcastMarkers envia eventos textuais recém-chegados
func (h *Hub) BroadcastMarkers(sourceID string, markers []models.Marker) {
	if len(markers) == 0 {
		return
	}

	if jsonMessage, err := SerializeMessage(NewMarkerMessage(sourceID, markers)); err == nil {
		h.broadcast <- jsonMessage
	} else {
		logger.Error("Erro ao serializar mensagem de marcadores", err)
	}
}

// handleClientCommand processa comandos recebidos dos clientes
func (h *Hub) handleClientCommand(cmd models.ClientCommand) {
	logger.Infof("Comando recebido do cliente %s: %s", cmd.ClientID, cmd.Command)

	switch cmd.Command {
	case "ping":
		h.sendPong(cmd.ClientID, cmd.Params)
	default:
		h.handlerLock.RLock()
		handler := h.commandHandler
		h.handlerLock.RUnlock()

		if handler != nil {
			handler(cmd)
		} else {
			logger.Warnf("Comando sem tratador registrado: %s", cmd.Command)
		}
	}
}

// sendPong envia resposta de pong para um cliente específico
func (h *Hub) sendPong(clientID string, params interface{}) {
	client := h.getClientByID(clientID)
	if client == nil {
		return
	}

	var pingTime int64
	if paramsMap, ok := params.(map[string]interface{}); ok {
		if timeVal, ok := paramsMap["time"].(float64); ok {
			pingTime = int64(timeVal)
		}
	}

	pong := models.PongMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "pong",
			Timestamp: time.Now(),
		},
		Time:       pingTime,
		ServerTime: time.Now().UnixNano() / int64(time.Millisecond),
	}

	if jsonMsg, err := SerializeMessage(pong); err == nil {
		client.send <- jsonMsg
	}
}

// sendWelcome envia a mensagem de boas-vindas para um novo cliente
func (h *Hub) sendWelcome(client *Client) {
	welcome := models.WebSocketMessage{
		Type:      "welcome",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message":  "Conectado ao servidor StreamView Monitor",
			"clientId": client.id,
		},
	}

	if jsonMsg, err := SerializeMessage(welcome); err == nil {
		client.send <- jsonMsg
	}
}

// Shutdown encerra graciosamente o hub
func (h *Hub) Shutdown() {
	h.cancel()
	// Aguardar um pequeno tempo para processamento finalizar
	time.Sleep(100 * time.Millisecond)
}

// closeAllClients fecha todas as conexões dos clientes
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("Fechando todas as conexões de clientes WebSocket")
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// ClientCount retorna o número atual de clientes conectados
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// getClientByID retorna um cliente pelo seu ID
func (h *Hub) getClientByID(clientID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		if client.id == clientID {
			return client
		}
	}
	return nil
}

// sendPingToAllClients envia ping para todos os clientes
func (h *Hub) sendPingToAllClients() {
	ping := models.PingMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "ping",
			Timestamp: time.Now(),
		},
		Time: time.Now().UnixNano() / int64(time.Millisecond),
	}

	if jsonMsg, err := SerializeMessage(ping); err == nil {
		h.mu.RLock()
		hasClients := len(h.clients) > 0
		h.mu.RUnlock()

		// Chamado de dentro do Run: um envio bloqueante em h.broadcast
		// cheio travaria o próprio laço que o drena.
		if hasClients {
			select {
			case h.broadcast <- jsonMsg:
			default:
			}
		}
	}
}
