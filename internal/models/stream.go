package models

import (
	"encoding/json"
	"math"
	"time"
)

// ChannelState descreve um canal físico de uma fonte de telemetria.
// O nome é único dentro de uma fonte, mas não globalmente.
type ChannelState struct {
	Name     string      `json:"name"`
	SourceID string      `json:"sourceId"`
	Unit     string      `json:"unit,omitempty"`
	Kind     string      `json:"kind,omitempty"`
	Pos      *[3]float64 `json:"pos,omitempty"` // Posição física (x,y,z), quando conhecida
	Visible  bool        `json:"visible"`
}

// SampleChunk é um bloco efêmero de amostras multi-canal produzido por uma
// fonte. Data tem formato (canais, amostras) e Timestamps é paralelo à
// segunda dimensão, em segundos. Labels não-nulo indica uma fonte de eventos
// (marcadores) com carga textual, uma etiqueta por timestamp.
type SampleChunk struct {
	Data       [][]float64
	Timestamps []float64
	Labels     []string
}

// Empty verifica se o bloco não contém amostras
func (c SampleChunk) Empty() bool {
	return len(c.Timestamps) == 0
}

// NumChannels retorna o número de canais do bloco
func (c SampleChunk) NumChannels() int {
	return len(c.Data)
}

// NumSamples retorna o número de amostras por canal
func (c SampleChunk) NumSamples() int {
	return len(c.Timestamps)
}

// SourceStats descreve as características atuais de uma fonte.
// Rate é a taxa nominal em Hz; 0 indica fonte irregular (eventos).
// RateKnown é falso enquanto a fonte ainda não resolveu seus metadados.
type SourceStats struct {
	Rate         float64        `json:"rate"`
	RateKnown    bool           `json:"rateKnown"`
	ChannelCount int            `json:"channelCount"`
	Channels     []ChannelState `json:"channels"`
}

// StreamStatus representa o estado operacional de uma fonte
type StreamStatus struct {
	SourceID   string    `json:"sourceId"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	LastError  string    `json:"lastError,omitempty"`
	ErrorCount int       `json:"errorCount,omitempty"`
}

// Frame é o retrato imutável do conteúdo de um buffer de alinhamento,
// pronto para ser desenhado ou publicado. O consumidor não deve mutá-lo.
type Frame struct {
	SourceID         string      `json:"sourceId"`
	Data             [][]float64 `json:"data"`
	Timestamps       []float64   `json:"timestamps"`
	Markers          []string    `json:"markers,omitempty"`
	MarkerTimestamps []float64   `json:"markerTimestamps,omitempty"`
}

// MarshalJSON serializa o quadro trocando NaN por null. O codificador JSON
// padrão rejeita NaN, e os dados do buffer usam NaN como sentinela de
// "sem amostra ainda".
func (f Frame) MarshalJSON() ([]byte, error) {
	data := make([][]*float64, len(f.Data))
	for c, row := range f.Data {
		data[c] = nullifyNaN(row)
	}
	return json.Marshal(struct {
		SourceID         string       `json:"sourceId"`
		Data             [][]*float64 `json:"data"`
		Timestamps       []float64    `json:"timestamps"`
		Markers          []string     `json:"markers,omitempty"`
		MarkerTimestamps []float64    `json:"markerTimestamps,omitempty"`
	}{f.SourceID, data, f.Timestamps, f.Markers, f.MarkerTimestamps})
}

// nullifyNaN converte uma linha de amostras em ponteiros, com nil no lugar
// de cada NaN, para que o JSON resultante carregue null nessas posições.
func nullifyNaN(row []float64) []*float64 {
	out := make([]*float64, len(row))
	for i := range row {
		if !math.IsNaN(row[i]) {
			v := row[i]
			out[i] = &v
		}
	}
	return out
}

// Snapshot é o vetor "agora" produzido pelo buffer de mesclagem:
// uma amostra por canal visível, com um único timestamp.
type Snapshot struct {
	Values    []float64 `json:"values"`
	Timestamp float64   `json:"timestamp"`
}

// MarshalJSON serializa o instantâneo trocando NaN por null, pela mesma
// razão do quadro: canais ainda sem amostra carregam a sentinela NaN.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Values    []*float64 `json:"values"`
		Timestamp float64    `json:"timestamp"`
	}{nullifyNaN(s.Values), s.Timestamp})
}

// Marker é um evento textual com seu timestamp em segundos
type Marker struct {
	Label     string  `json:"label"`
	Timestamp float64 `json:"timestamp"`
}

// HistoryPoint representa um ponto persistido do histórico de um canal
type HistoryPoint struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}
