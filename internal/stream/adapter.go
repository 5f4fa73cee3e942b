package stream

import (
	"math"
	"sync"

	"streamview_go/internal/buffer"
	"streamview_go/internal/filter"
	"streamview_go/internal/models"
	"streamview_go/internal/source"
	"streamview_go/pkg/logger"
	"streamview_go/pkg/utils"
)

// ScaleMode define como os valores do quadro são normalizados
type ScaleMode string

const (
	// ScaleNone entrega os valores crus
	ScaleNone ScaleMode = "none"
	// ScaleByChannel normaliza cada canal pelo seu próprio min/max
	ScaleByChannel ScaleMode = "by-channel"
	// ScaleByStream normaliza todos os canais pelo min/max global do fluxo
	ScaleByStream ScaleMode = "by-stream"
)

const (
	defaultMonitorInterval = 1.0  // segundos entre atualizações da taxa
	defaultMonitorDecay    = 10.0 // constante de tempo da média móvel
)

// Adapter liga uma fonte de dados ao seu buffer de alinhamento. A cada
// ciclo coleta as amostras pendentes, aplica o filtro passa-alta quando
// configurado e escreve no buffer. Mantém uma estimativa da taxa de
// transferência real por média móvel exponencial.
type Adapter struct {
	src source.Source
	buf *buffer.TimeSeriesBuffer
	hp  *filter.HighPass

	mu           sync.Mutex
	monitorMode  bool
	disconnected bool

	// estado da estimativa de taxa
	monitorInterval float64
	monitorDecay    float64
	xferRate        float64
	samplesSince    int
	lastRateCalc    float64

	now func() float64
}

// NewAdapter cria o adaptador de coleta para uma fonte
func NewAdapter(src source.Source, buf *buffer.TimeSeriesBuffer, hp *filter.HighPass) *Adapter {
	a := &Adapter{
		src:             src,
		buf:             buf,
		hp:              hp,
		monitorInterval: defaultMonitorInterval,
		monitorDecay:    defaultMonitorDecay,
		now:             utils.NowSeconds,
	}
	a.lastRateCalc = a.now()
	return a
}

// Source retorna a fonte associada
func (a *Adapter) Source() source.Source {
	return a.src
}

// Buffer retorna o buffer de alinhamento associado
func (a *Adapter) Buffer() *buffer.TimeSeriesBuffer {
	return a.buf
}

// SetMonitorMode liga ou desliga o modo de monitoramento. Em modo de
// monitoramento as amostras são descartadas sem tocar no buffer, mas a
// estimativa de taxa continua sendo atualizada.
func (a *Adapter) SetMonitorMode(on bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.monitorMode = on
}

// MonitorMode indica se o adaptador está em modo de monitoramento
func (a *Adapter) MonitorMode() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.monitorMode
}

// Disconnected indica se a fonte reportou desconexão definitiva
func (a *Adapter) Disconnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disconnected
}

// XferRate retorna a taxa de transferência estimada em amostras/s
func (a *Adapter) XferRate() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.xferRate
}

// Cycle executa um ciclo de coleta e retorna o bloco coletado. Em modo
// de monitoramento apenas drena a fonte; caso contrário filtra e
// escreve no buffer usando o estado de canais informado.
func (a *Adapter) Cycle(states []models.ChannelState) (models.SampleChunk, error) {
	a.mu.Lock()
	monitor := a.monitorMode
	a.mu.Unlock()

	if monitor {
		n := a.src.Flush()
		a.trackRate(n)
		return models.SampleChunk{}, nil
	}

	chunk, err := a.src.Fetch()
	if err != nil {
		a.mu.Lock()
		a.disconnected = true
		a.mu.Unlock()
		logger.Error("Falha na coleta da fonte "+a.src.ID(), err)
		return models.SampleChunk{}, err
	}
	a.trackRate(chunk.NumSamples())

	if chunk.Empty() {
		return chunk, nil
	}
	if a.hp != nil && len(chunk.Labels) == 0 {
		a.hp.Apply(chunk.Data)
	}
	if err := a.buf.Update(chunk, states); err != nil {
		return models.SampleChunk{}, err
	}
	return chunk, nil
}

// trackRate atualiza a média móvel exponencial da taxa de transferência
func (a *Adapter) trackRate(n int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.samplesSince += n
	tNow := a.now()
	elapsed := tNow - a.lastRateCalc
	if elapsed < a.monitorInterval {
		return
	}

	decay := a.monitorInterval / a.monitorDecay
	if decay > 0.99 {
		decay = 0.99
	}
	recent := float64(a.samplesSince) / elapsed
	a.xferRate = (1-decay)*a.xferRate + decay*recent

	a.samplesSince = 0
	a.lastRateCalc = tNow
}

// Frame monta o quadro de exibição atual, aplicando a normalização
// pedida. Valores NaN são preservados.
func (a *Adapter) Frame(mode ScaleMode) models.Frame {
	data, tvec, markers, markerTs := a.buf.Contents()

	out := make([][]float64, len(data))
	for c := range data {
		out[c] = append([]float64(nil), data[c]...)
	}

	switch mode {
	case ScaleByChannel:
		for c := range out {
			lo, hi := nanMinMax(out[c])
			scaleInto(out[c], lo, hi)
		}
	case ScaleByStream:
		lo, hi := math.Inf(1), math.Inf(-1)
		for c := range out {
			cLo, cHi := nanMinMax(out[c])
			if cLo < lo {
				lo = cLo
			}
			if cHi > hi {
				hi = cHi
			}
		}
		for c := range out {
			scaleInto(out[c], lo, hi)
		}
	}

	return models.Frame{
		SourceID:         a.src.ID(),
		Data:             out,
		Timestamps:       append([]float64(nil), tvec...),
		Markers:          append([]string(nil), markers...),
		MarkerTimestamps: append([]float64(nil), markerTs...),
	}
}

// nanMinMax retorna o mínimo e máximo ignorando NaN
func nanMinMax(v []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range v {
		if math.IsNaN(x) {
			continue
		}
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// scaleInto normaliza os valores para [0,1]. Faixa inválida ou
// degenerada resulta em 0.5 para todos os valores válidos.
func scaleInto(v []float64, lo, hi float64) {
	span := hi - lo
	valid := !math.IsInf(lo, 1) && !math.IsInf(hi, -1) && span > 0
	for i, x := range v {
		if math.IsNaN(x) {
			continue
		}
		if !valid {
			v[i] = 0.5
		} else {
			v[i] = (x - lo) / span
		}
	}
}
