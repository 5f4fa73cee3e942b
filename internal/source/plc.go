package source

import (
	"fmt"
	"sync"

	"streamview_go/internal/config"
	"streamview_go/internal/models"
	"streamview_go/pkg/logger"
	"streamview_go/pkg/utils"
)

const defaultMaxErrors = 5

// PLCSource coleta canais analógicos de um PLC S7 via leitura de DB.
// Cada canal ocupa 4 bytes (REAL) consecutivos a partir do offset
// configurado. A leitura é feita sob demanda, no máximo uma amostra
// por período nominal.
type PLCSource struct {
	cfg    config.PLCConfig
	client *s7Client

	mu         sync.Mutex
	lastSample float64
	errCount   int
	closed     bool

	stateHandler StateHandler

	now func() float64
}

// NewPLCSource cria uma fonte de dados ligada a um PLC S7
func NewPLCSource(cfg config.PLCConfig) (*PLCSource, error) {
	if cfg.ChannelCount <= 0 {
		return nil, fmt.Errorf("número de canais inválido: %d", cfg.ChannelCount)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("taxa de amostragem inválida: %v", cfg.SampleRate)
	}

	p := &PLCSource{
		cfg:    cfg,
		client: newS7Client(cfg),
		now:    utils.NowSeconds,
	}
	p.lastSample = p.now()

	if err := p.client.Connect(); err != nil {
		// A conexão será retentada a cada leitura
		logger.Warnf("PLC %s indisponível na inicialização: %v", cfg.Host, err)
	}
	return p, nil
}

// ID retorna o identificador da fonte
func (p *PLCSource) ID() string {
	return fmt.Sprintf("plc-%s-db%d", p.cfg.Host, p.cfg.DBNumber)
}

// Fetch lê os valores atuais do PLC. Retorna chunk vazio quando o
// período nominal ainda não passou ou em falha transitória. Erro só é
// retornado após falhas consecutivas demais, indicando desconexão.
func (p *PLCSource) Fetch() (models.SampleChunk, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return models.SampleChunk{}, fmt.Errorf("fonte %s encerrada", p.ID())
	}

	tNow := p.now()
	if tNow-p.lastSample < 1.0/p.cfg.SampleRate {
		return models.SampleChunk{}, nil
	}

	if !p.client.IsConnected() {
		if err := p.client.Connect(); err != nil {
			return models.SampleChunk{}, p.recordError(err)
		}
	}

	values, err := p.client.ReadFloats(p.cfg.DBNumber, p.cfg.StartOffset, p.cfg.ChannelCount)
	if err != nil {
		return models.SampleChunk{}, p.recordError(err)
	}
	p.errCount = 0
	p.lastSample = tNow

	chunk := models.SampleChunk{
		Data:       make([][]float64, p.cfg.ChannelCount),
		Timestamps: []float64{tNow},
	}
	for c := range chunk.Data {
		chunk.Data[c] = []float64{values[c]}
	}
	return chunk, nil
}

// recordError contabiliza a falha; deve ser chamado com o mutex preso
func (p *PLCSource) recordError(err error) error {
	p.errCount++
	if p.errCount >= p.maxErrors() {
		logger.Errorf("PLC %s: %d falhas consecutivas, marcando como desconectado",
			p.cfg.Host, p.errCount)
		if p.stateHandler != nil {
			go p.stateHandler(p)
		}
		return fmt.Errorf("desconectado do PLC %s: %w", p.cfg.Host, err)
	}
	logger.Warnf("Falha ao ler PLC %s (%d/%d): %v",
		p.cfg.Host, p.errCount, p.maxErrors(), err)
	return nil
}

func (p *PLCSource) maxErrors() int {
	if p.cfg.MaxErrors > 0 {
		return p.cfg.MaxErrors
	}
	return defaultMaxErrors
}

// Flush descarta o período acumulado sem ler o PLC
func (p *PLCSource) Flush() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	tNow := p.now()
	n := int((tNow - p.lastSample) * p.cfg.SampleRate)
	if n <= 0 {
		return 0
	}
	p.lastSample = tNow
	return n
}

// Stats retorna as características da fonte
func (p *PLCSource) Stats() models.SourceStats {
	chans := make([]models.ChannelState, p.cfg.ChannelCount)
	for i := range chans {
		chans[i] = models.ChannelState{
			Name:    fmt.Sprintf("db%d_real%02d", p.cfg.DBNumber, i),
			Kind:    "analog",
			Visible: true,
		}
	}
	return models.SourceStats{
		Rate:         p.cfg.SampleRate,
		RateKnown:    true,
		ChannelCount: p.cfg.ChannelCount,
		Channels:     chans,
	}
}

// RegisterStateHandler registra callback de mudança de estado
func (p *PLCSource) RegisterStateHandler(h StateHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stateHandler = h
}

// Close encerra a fonte e fecha a conexão com o PLC
func (p *PLCSource) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.client.Disconnect()
	return nil
}
