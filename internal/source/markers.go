package source

import (
	"fmt"
	"sync"

	"streamview_go/internal/models"
	"streamview_go/pkg/logger"
	"streamview_go/pkg/utils"
)

// MarkerConfig define os parâmetros de uma fonte de eventos rotulados
type MarkerConfig struct {
	ID       string
	Channel  string   // nome do canal de eventos
	Interval float64  // segundos entre eventos
	Labels   []string // rótulos emitidos em sequência cíclica
}

// MarkerSource emite eventos rotulados em intervalos regulares. A fonte
// é irregular do ponto de vista do consumidor: não declara taxa nominal
// e cada amostra carrega um rótulo em vez de um valor numérico.
type MarkerSource struct {
	cfg MarkerConfig

	mu       sync.Mutex
	lastEmit float64
	labelIdx int
	closed   bool

	stateHandler StateHandler

	now func() float64
}

// NewMarkerSource cria uma fonte de eventos rotulados
func NewMarkerSource(cfg MarkerConfig) (*MarkerSource, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("intervalo de eventos inválido: %v", cfg.Interval)
	}
	if cfg.Channel == "" {
		cfg.Channel = "eventos"
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = []string{"evento"}
	}

	m := &MarkerSource{
		cfg: cfg,
		now: utils.NowSeconds,
	}
	m.lastEmit = m.now()

	logger.Infof("Fonte de eventos %s criada: intervalo %.1fs", cfg.ID, cfg.Interval)
	return m, nil
}

// ID retorna o identificador da fonte
func (m *MarkerSource) ID() string {
	return m.cfg.ID
}

// Fetch retorna os eventos ocorridos desde a última coleta
func (m *MarkerSource) Fetch() (models.SampleChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return models.SampleChunk{}, fmt.Errorf("fonte %s encerrada", m.cfg.ID)
	}

	tNow := m.now()
	n := int((tNow - m.lastEmit) / m.cfg.Interval)
	if n <= 0 {
		return models.SampleChunk{}, nil
	}

	chunk := models.SampleChunk{
		Data:       [][]float64{make([]float64, n)},
		Timestamps: make([]float64, n),
		Labels:     make([]string, n),
	}
	for i := 0; i < n; i++ {
		m.lastEmit += m.cfg.Interval
		chunk.Timestamps[i] = m.lastEmit
		chunk.Labels[i] = m.cfg.Labels[m.labelIdx%len(m.cfg.Labels)]
		m.labelIdx++
	}
	return chunk, nil
}

// Flush descarta os eventos pendentes e retorna quantos foram descartados
func (m *MarkerSource) Flush() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	tNow := m.now()
	n := int((tNow - m.lastEmit) / m.cfg.Interval)
	if n <= 0 {
		return 0
	}
	m.lastEmit += float64(n) * m.cfg.Interval
	m.labelIdx += n
	return n
}

// Stats retorna as características da fonte. Rate zero indica fonte
// irregular, sem taxa nominal conhecida.
func (m *MarkerSource) Stats() models.SourceStats {
	return models.SourceStats{
		Rate:         0,
		RateKnown:    true,
		ChannelCount: 1,
		Channels: []models.ChannelState{
			{Name: m.cfg.Channel, Kind: "marker", Visible: true},
		},
	}
}

// RegisterStateHandler registra callback de mudança de estado
func (m *MarkerSource) RegisterStateHandler(h StateHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateHandler = h
}

// Close encerra a fonte
func (m *MarkerSource) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
