package source

import (
	"fmt"
	"sync"
	"time"

	"streamview_go/internal/config"
	"streamview_go/pkg/logger"
	"streamview_go/pkg/utils"

	"github.com/robinson/gos7"
)

// s7Client encapsula a comunicação com um PLC S7-1500
type s7Client struct {
	client    gos7.Client
	handler   *gos7.TCPClientHandler
	config    config.PLCConfig
	connected bool
	mu        sync.Mutex
}

func newS7Client(cfg config.PLCConfig) *s7Client {
	return &s7Client{config: cfg}
}

// Connect estabelece conexão com o PLC
func (c *s7Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	// Desconectar se já houver conexão anterior
	if c.handler != nil {
		c.handler.Close()
	}

	handler := gos7.NewTCPClientHandler(c.config.Host, c.config.Rack, c.config.Slot)
	handler.Timeout = c.config.ReadTimeout
	handler.IdleTimeout = 70 * time.Second

	if err := handler.Connect(); err != nil {
		return fmt.Errorf("erro ao conectar ao PLC: %w", err)
	}

	c.handler = handler
	c.client = gos7.NewClient(handler)
	c.connected = true
	logger.Infof("Conectado ao PLC em %s (Rack: %d, Slot: %d)",
		c.config.Host, c.config.Rack, c.config.Slot)

	return nil
}

// Disconnect fecha a conexão com o PLC
func (c *s7Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handler != nil {
		c.handler.Close()
		c.handler = nil
		c.client = nil
		c.connected = false
		logger.Info("Desconectado do PLC")
	}
}

// IsConnected verifica se o cliente está conectado
func (c *s7Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ReadFloats lê uma sequência de valores REAL consecutivos de um DB
func (c *s7Client) ReadFloats(dbNumber, startOffset, count int) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil, fmt.Errorf("não conectado ao PLC")
	}

	buffer := make([]byte, count*4)
	if err := c.client.AGReadDB(dbNumber, startOffset, len(buffer), buffer); err != nil {
		c.connected = false
		return nil, fmt.Errorf("erro ao ler DB%d: %w", dbNumber, err)
	}

	values := make([]float64, count)
	for i := 0; i < count; i++ {
		values[i] = float64(utils.BytesToFloat32(buffer[i*4 : i*4+4]))
	}
	return values, nil
}
