package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview_go/internal/models"
)

func mergeStates() []models.ChannelState {
	return []models.ChannelState{
		{Name: "a1", SourceID: "fonte-a", Visible: true},
		{Name: "a2", SourceID: "fonte-a", Visible: true},
		{Name: "b1", SourceID: "fonte-b", Visible: true},
	}
}

func TestMergeVazioSemDados(t *testing.T) {
	m := NewMergeLast()
	m.Reset(3)

	values, ts, ok := m.Contents()
	assert.False(t, ok)
	assert.Equal(t, 0.0, ts)
	assert.Len(t, values, 3)
}

func TestMergeRoteiaPorFonte(t *testing.T) {
	m := NewMergeLast()
	m.Reset(3)
	states := mergeStates()

	// A fonte A preenche suas duas posições; a posição de B fica intacta.
	err := m.Update([][]float64{{1, 2}, {3, 4}}, []float64{0.1, 0.2}, states, "fonte-a")
	require.NoError(t, err)

	values, ts, ok := m.Contents()
	require.True(t, ok)
	assert.Equal(t, []float64{2, 4, 0}, values)
	assert.InDelta(t, 0.2, ts, 1e-9)

	// A fonte B preenche a sua sem tocar nas de A.
	err = m.Update([][]float64{{9}}, []float64{0.3}, states, "fonte-b")
	require.NoError(t, err)

	values, ts, _ = m.Contents()
	assert.Equal(t, []float64{2, 4, 9}, values)
	assert.InDelta(t, 0.3, ts, 1e-9)
}

func TestMergeUltimaAmostraForaDeOrdem(t *testing.T) {
	m := NewMergeLast()
	m.Reset(3)

	// A última amostra em ordem de tempo vence, não a última do bloco.
	err := m.Update([][]float64{{30, 10, 20}, {31, 11, 21}}, []float64{0.3, 0.1, 0.2},
		mergeStates(), "fonte-a")
	require.NoError(t, err)

	values, ts, _ := m.Contents()
	assert.Equal(t, []float64{30, 31, 0}, values)
	assert.InDelta(t, 0.3, ts, 1e-9)
}

func TestMergeSemFonteEscreveTudo(t *testing.T) {
	m := NewMergeLast()
	m.Reset(3)

	err := m.Update([][]float64{{1}, {2}, {3}}, []float64{0.5}, mergeStates(), "")
	require.NoError(t, err)

	values, _, _ := m.Contents()
	assert.Equal(t, []float64{1, 2, 3}, values)
}

func TestMergeLarguraMudouResemeia(t *testing.T) {
	m := NewMergeLast()
	m.Reset(3)

	require.NoError(t, m.Update([][]float64{{1, 2}, {3, 4}}, []float64{0.1, 0.2},
		mergeStates(), "fonte-a"))

	// Um canal de A ficou oculto: o vetor encolhe e é resemeado do zero.
	// A fonte continua entregando as duas linhas; a do canal oculto é
	// descartada.
	states := mergeStates()
	states[1].Visible = false
	require.NoError(t, m.Update([][]float64{{7}, {8}}, []float64{0.4}, states, "fonte-a"))

	values, ts, ok := m.Contents()
	require.True(t, ok)
	assert.Equal(t, []float64{7, 0}, values)
	assert.InDelta(t, 0.4, ts, 1e-9)
}

func TestMergeCanalOcultoNaoDesloca(t *testing.T) {
	m := NewMergeLast()
	m.Reset(2)

	// O primeiro canal de A está oculto, mas sua linha ainda chega no
	// bloco. O canal visível deve receber o valor da própria linha, não
	// o da linha do canal oculto.
	states := mergeStates()
	states[0].Visible = false
	err := m.Update([][]float64{{111}, {222}}, []float64{0.1}, states, "fonte-a")
	require.NoError(t, err)

	values, _, ok := m.Contents()
	require.True(t, ok)
	assert.Equal(t, []float64{222, 0}, values)
}

func TestMergeDimensoesInvalidas(t *testing.T) {
	m := NewMergeLast()
	m.Reset(3)

	err := m.Update([][]float64{{1, 2}}, []float64{0.1}, mergeStates(), "fonte-a")
	assert.ErrorIs(t, err, ErrDimensoes)
}

func TestMergeBlocoVazioIgnorado(t *testing.T) {
	m := NewMergeLast()
	m.Reset(3)

	require.NoError(t, m.Update(nil, nil, mergeStates(), "fonte-a"))
	_, _, ok := m.Contents()
	assert.False(t, ok)
}
