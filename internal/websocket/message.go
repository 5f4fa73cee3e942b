package websocket

import (
	"encoding/json"
	"time"

	"streamview_go/internal/models"
)

// Funções utilitárias para criação e processamento de mensagens WebSocket

// NewFrameMessage cria uma nova mensagem de quadro
func NewFrameMessage(frame models.Frame) *models.FrameMessage {
	return &models.FrameMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "frame",
			Timestamp: time.Now(),
		},
		Frame: frame,
	}
}

// NewSnapshotMessage cria uma nova mensagem de instantâneo
func NewSnapshotMessage(snap models.Snapshot) *models.SnapshotMessage {
	return &models.SnapshotMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "snapshot",
			Timestamp: time.Now(),
		},
		Snapshot: snap,
	}
}

// NewStatusMessage cria uma nova mensagem de status
func NewStatusMessage(status models.StreamStatus) *models.StatusMessage {
	return &models.StatusMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "status",
			Timestamp: time.Now(),
		},
		SourceID:   status.SourceID,
		Status:     status.Status,
		LastError:  status.LastError,
		ErrorCount: status.ErrorCount,
	}
}

// NewMarkerMessage cria uma nova mensagem de marcadores
func NewMarkerMessage(sourceID string, markers []models.Marker) *models.MarkerMessage {
	return &models.MarkerMessage{
		WebSocketMessage: models.WebSocketMessage{
			Type:      "markers",
			Timestamp: time.Now(),
		},
		SourceID: sourceID,
		Markers:  markers,
	}
}

// NewErrorMessage cria uma nova mensagem de erro
func NewErrorMessage(message string, errorCode string) models.WebSocketMessage {
	return models.WebSocketMessage{
		Type:      "error",
		Timestamp: time.Now(),
		Error:     message,
		Data: map[string]string{
			"code": errorCode,
		},
	}
}

// SerializeMessage serializa uma mensagem para JSON
func SerializeMessage(message interface{}) ([]byte, error) {
	return json.Marshal(message)
}

// ParseClientCommand analisa um comando recebido do cliente
func ParseClientCommand(data []byte) (models.CommandMessage, error) {
	var command models.CommandMessage
	err := json.Unmarshal(data, &command)
	return command, err
}
