package buffer

import (
	"errors"
	"fmt"
	"sort"

	"streamview_go/internal/models"
)

// IrregRateOverride é a taxa usada para sintetizar uma linha do tempo densa
// quando a fonte tem taxa irregular (taxa nominal == 0).
const IrregRateOverride = 1000.0

// Mode define a disciplina de escrita do buffer de alinhamento
type Mode int

const (
	// ModeScroll desloca as amostras antigas para a esquerda e escreve as
	// novas na cauda, como um gráfico de rolagem contínua.
	ModeScroll Mode = iota
	// ModeSweep escreve na posição do cursor, que varre da esquerda para a
	// direita e dá a volta, como um osciloscópio.
	ModeSweep
)

// String retorna o nome do modo
func (m Mode) String() string {
	switch m {
	case ModeSweep:
		return "sweep"
	default:
		return "scroll"
	}
}

// ParseMode converte o nome textual de um modo (como vem da configuração)
func ParseMode(s string) (Mode, error) {
	switch s {
	case "scroll", "Scroll", "":
		return ModeScroll, nil
	case "sweep", "Sweep":
		return ModeSweep, nil
	}
	return ModeScroll, fmt.Errorf("modo de buffer desconhecido: %q", s)
}

var (
	// ErrConfiguracao indica taxa/duração incompatíveis na construção do
	// buffer. O buffer afetado fica desabilitado; a aplicação continua.
	ErrConfiguracao = errors.New("configuração de buffer inválida")

	// ErrDimensoes indica incompatibilidade entre as dimensões dos dados e
	// os estados de canal. É erro de programação e deve falhar imediatamente.
	ErrDimensoes = errors.New("dimensões de dados incompatíveis")
)

// searchRight retorna o índice de inserção à direita de t em vec (ordenado
// ascendente): o menor i tal que vec[i] > t.
func searchRight(vec []float64, t float64) int {
	return sort.Search(len(vec), func(i int) bool { return vec[i] > t })
}

// searchLeft retorna o índice de inserção à esquerda de t em vec:
// o menor i tal que vec[i] >= t.
func searchLeft(vec []float64, t float64) int {
	return sort.Search(len(vec), func(i int) bool { return vec[i] >= t })
}

// visibleRows filtra as linhas de dados correspondentes a canais visíveis.
// Retorna também a contagem de canais visíveis nos estados.
func visibleRows(data [][]float64, states []models.ChannelState) ([][]float64, int) {
	nVis := 0
	for _, st := range states {
		if st.Visible {
			nVis++
		}
	}
	if data == nil {
		return nil, nVis
	}
	rows := make([][]float64, 0, nVis)
	for i, st := range states {
		if st.Visible {
			rows = append(rows, data[i])
		}
	}
	return rows, nVis
}

// sortChunk ordena (dados, timestamps, etiquetas) conjuntamente por timestamp
// ascendente. As fontes não garantem entrega monotônica entre blocos.
// Retorna fatias novas; as originais não são mutadas.
func sortChunk(data [][]float64, timestamps []float64, labels []string) ([][]float64, []float64, []string) {
	n := len(timestamps)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		return timestamps[perm[a]] < timestamps[perm[b]]
	})

	ts := make([]float64, n)
	for i, p := range perm {
		ts[i] = timestamps[p]
	}
	var out [][]float64
	if data != nil {
		out = make([][]float64, len(data))
		for c := range data {
			row := make([]float64, n)
			for i, p := range perm {
				row[i] = data[c][p]
			}
			out[c] = row
		}
	}
	var lbl []string
	if labels != nil {
		lbl = make([]string, n)
		for i, p := range perm {
			lbl[i] = labels[p]
		}
	}
	return out, ts, lbl
}
