package buffer

import (
	"fmt"

	"streamview_go/internal/models"
)

// MergeLastBuffer mescla a amostra mais recente de cada fonte em um único
// vetor de largura fixa (uma posição por canal visível global). Usado por
// renderizadores que só mostram o "agora": barras, mapas topográficos.
// Nenhum histórico é retido.
type MergeLastBuffer struct {
	values    []float64
	timestamp float64
	hasData   bool
}

// NewMergeLast cria um buffer de mesclagem vazio
func NewMergeLast() *MergeLastBuffer {
	return &MergeLastBuffer{}
}

// Reset realoca o vetor para nChans canais, zerado e sem timestamp
func (m *MergeLastBuffer) Reset(nChans int) {
	m.values = make([]float64, nChans)
	m.timestamp = 0
	m.hasData = false
}

// resetSeeded realoca e semeia o timestamp único com t0
func (m *MergeLastBuffer) resetSeeded(nChans int, t0 float64) {
	m.values = make([]float64, nChans)
	m.timestamp = t0
	m.hasData = true
}

// Update escreve o valor da última amostra do bloco nas posições que
// pertencem a sourceID (ou em todas as posições visíveis quando sourceID é
// vazio), deixando as posições das demais fontes intactas. É assim que
// instantâneos de fontes com relógios independentes se mesclam em um único
// vetor de exibição sem exigir chegada sincronizada.
//
// states são os estados de canal GLOBAIS (todas as fontes, em ordem de
// registro); as linhas de data correspondem a TODOS os canais da própria
// fonte, em ordem, inclusive os ocultos. Linhas de canais ocultos são
// consumidas e descartadas para que as demais não desalinhem.
func (m *MergeLastBuffer) Update(data [][]float64, timestamps []float64, states []models.ChannelState, sourceID string) error {
	if len(timestamps) == 0 {
		return nil
	}
	for c, row := range data {
		if len(row) != len(timestamps) {
			return fmt.Errorf("%w: canal %d tem %d amostras para %d timestamps",
				ErrDimensoes, c, len(row), len(timestamps))
		}
	}

	data, timestamps, _ = sortChunk(data, timestamps, nil)
	last := len(timestamps) - 1

	nVis := 0
	for _, st := range states {
		if st.Visible {
			nVis++
		}
	}
	if len(m.values) != nVis {
		m.resetSeeded(nVis, timestamps[last])
	}

	if sourceID != "" {
		// Percorrer os estados globais mantendo dois cursores: row avança
		// a cada canal da fonte (visível ou não), slot avança a cada
		// posição visível global. Só canais visíveis da fonte escrevem.
		row := 0
		slot := 0
		for _, st := range states {
			if st.SourceID == sourceID {
				if st.Visible && row < len(data) {
					m.values[slot] = data[row][last]
				}
				row++
			}
			if st.Visible {
				slot++
			}
		}
	} else {
		for slot := 0; slot < nVis && slot < len(data); slot++ {
			m.values[slot] = data[slot][last]
		}
	}

	m.timestamp = timestamps[last]
	m.hasData = true
	return nil
}

// Contents retorna o vetor mesclado e seu timestamp. O booleano indica se
// alguma amostra já foi escrita.
func (m *MergeLastBuffer) Contents() ([]float64, float64, bool) {
	return m.values, m.timestamp, m.hasData
}
