package source

import (
	"fmt"
	"math"
	"math/rand"
	"sync"

	"streamview_go/internal/models"
	"streamview_go/pkg/logger"
	"streamview_go/pkg/utils"
)

// SignalConfig define os parâmetros do gerador de sinais simulados
type SignalConfig struct {
	ID         string
	SampleRate float64  // amostras por segundo
	Channels   []string // nomes dos canais gerados
	Frequency  float64  // frequência base da senoide em Hz
	Amplitude  float64
	Noise      float64 // amplitude do ruído uniforme
}

// SignalSource gera canais senoidais contínuos a uma taxa nominal fixa.
// Cada Fetch entrega todas as amostras acumuladas desde a última chamada.
type SignalSource struct {
	cfg SignalConfig

	mu        sync.Mutex
	lastFetch float64 // instante da última coleta em segundos
	sampleIdx uint64  // contador global de amostras geradas
	rng       *rand.Rand

	stateHandler StateHandler
	closed       bool

	// relógio injetável para testes
	now func() float64
}

// NewSignalSource cria um gerador de sinais simulados
func NewSignalSource(cfg SignalConfig) (*SignalSource, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("taxa de amostragem inválida: %v", cfg.SampleRate)
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("fonte %s sem canais configurados", cfg.ID)
	}
	if cfg.Frequency <= 0 {
		cfg.Frequency = 1.0
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 1.0
	}

	s := &SignalSource{
		cfg: cfg,
		rng: rand.New(rand.NewSource(42)),
		now: utils.NowSeconds,
	}
	s.lastFetch = s.now()

	logger.Infof("Fonte simulada %s criada: %d canais a %.1f Hz",
		cfg.ID, len(cfg.Channels), cfg.SampleRate)
	return s, nil
}

// ID retorna o identificador da fonte
func (s *SignalSource) ID() string {
	return s.cfg.ID
}

// Fetch retorna as amostras geradas desde a última coleta
func (s *SignalSource) Fetch() (models.SampleChunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return models.SampleChunk{}, fmt.Errorf("fonte %s encerrada", s.cfg.ID)
	}

	tNow := s.now()
	n := int((tNow - s.lastFetch) * s.cfg.SampleRate)
	if n <= 0 {
		return models.SampleChunk{}, nil
	}

	nChans := len(s.cfg.Channels)
	chunk := models.SampleChunk{
		Data:       make([][]float64, nChans),
		Timestamps: make([]float64, n),
	}
	for c := range chunk.Data {
		chunk.Data[c] = make([]float64, n)
	}

	dt := 1.0 / s.cfg.SampleRate
	for i := 0; i < n; i++ {
		t := s.lastFetch + float64(i+1)*dt
		chunk.Timestamps[i] = t
		phase := 2 * math.Pi * s.cfg.Frequency * float64(s.sampleIdx) * dt
		for c := 0; c < nChans; c++ {
			// canais defasados entre si para facilitar a inspeção visual
			v := s.cfg.Amplitude * math.Sin(phase+float64(c)*math.Pi/4)
			if s.cfg.Noise > 0 {
				v += s.cfg.Noise * (s.rng.Float64() - 0.5)
			}
			chunk.Data[c][i] = v
		}
		s.sampleIdx++
	}
	s.lastFetch += float64(n) * dt

	return chunk, nil
}

// Flush descarta as amostras pendentes e retorna quantas foram descartadas
func (s *SignalSource) Flush() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	tNow := s.now()
	n := int((tNow - s.lastFetch) * s.cfg.SampleRate)
	if n <= 0 {
		return 0
	}
	s.lastFetch += float64(n) / s.cfg.SampleRate
	s.sampleIdx += uint64(n)
	return n
}

// Stats retorna as características da fonte
func (s *SignalSource) Stats() models.SourceStats {
	chans := make([]models.ChannelState, len(s.cfg.Channels))
	for i, name := range s.cfg.Channels {
		chans[i] = models.ChannelState{
			Name:    name,
			Unit:    "V",
			Kind:    "analog",
			Visible: true,
		}
	}
	return models.SourceStats{
		Rate:         s.cfg.SampleRate,
		RateKnown:    true,
		ChannelCount: len(s.cfg.Channels),
		Channels:     chans,
	}
}

// RegisterStateHandler registra callback de mudança de estado
func (s *SignalSource) RegisterStateHandler(h StateHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateHandler = h
}

// Close encerra a fonte
func (s *SignalSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
