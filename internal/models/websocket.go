package models

import "time"

// WebSocketMessage representa a estrutura base de todas as mensagens WebSocket
type WebSocketMessage struct {
	Type      string      `json:"type"`            // Tipo da mensagem: "frame", "snapshot", "status", etc.
	Timestamp time.Time   `json:"timestamp"`       // Timestamp da mensagem
	Data      interface{} `json:"data,omitempty"`  // Dados adicionais específicos do tipo
	Error     string      `json:"error,omitempty"` // Mensagem de erro, se houver
}

// FrameMessage carrega o conteúdo de um buffer de alinhamento para os clientes
type FrameMessage struct {
	WebSocketMessage
	Frame Frame `json:"frame"`
}

// SnapshotMessage carrega o vetor "agora" mesclado de todas as fontes
type SnapshotMessage struct {
	WebSocketMessage
	Snapshot Snapshot `json:"snapshot"`
}

// StatusMessage é uma mensagem específica para atualizações de status de fonte
type StatusMessage struct {
	WebSocketMessage
	SourceID   string `json:"sourceId"`
	Status     string `json:"status"`
	LastError  string `json:"lastError,omitempty"`
	ErrorCount int    `json:"errorCount,omitempty"`
}

// MarkerMessage carrega eventos textuais recém-chegados
type MarkerMessage struct {
	WebSocketMessage
	SourceID string   `json:"sourceId"`
	Markers  []Marker `json:"markers"`
}

// CommandMessage é uma mensagem de comando do cliente para o servidor
type CommandMessage struct {
	Type   string      `json:"type"`             // Tipo de comando: "get_status", "ping", etc.
	Params interface{} `json:"params,omitempty"` // Parâmetros adicionais
	ID     string      `json:"id,omitempty"`     // ID opcional para correlacionar solicitações/respostas
}

// ClientCommand representa um comando enviado pelo cliente
type ClientCommand struct {
	Command  string      `json:"command"`
	Params   interface{} `json:"params,omitempty"`
	ClientID string      `json:"-"` // Usado internamente, não enviado no JSON
}

// PingMessage representa um ping enviado pelo cliente
type PingMessage struct {
	WebSocketMessage
	Time int64 `json:"time"` // Timestamp em milissegundos
}

// PongMessage representa um pong enviado pelo servidor
type PongMessage struct {
	WebSocketMessage
	Time       int64 `json:"time"`       // Timestamp original do ping
	ServerTime int64 `json:"serverTime"` // Timestamp do servidor em milissegundos
}
