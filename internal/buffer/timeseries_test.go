package buffer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview_go/internal/models"
)

func visibleStates(n int) []models.ChannelState {
	states := make([]models.ChannelState, n)
	for i := range states {
		states[i] = models.ChannelState{Name: "ch", Visible: true}
	}
	return states
}

func chunk1(values []float64, timestamps []float64) models.SampleChunk {
	return models.SampleChunk{
		Data:       [][]float64{values},
		Timestamps: timestamps,
	}
}

func TestNewValidacao(t *testing.T) {
	_, err := New(ModeScroll, 10, 0, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguracao)

	_, err = New(ModeScroll, 10, -1, false)
	assert.ErrorIs(t, err, ErrConfiguracao)

	_, err = New(ModeScroll, -1, 1, false)
	assert.ErrorIs(t, err, ErrConfiguracao)

	_, err = New(ModeSweep, math.NaN(), 1, false)
	assert.ErrorIs(t, err, ErrConfiguracao)

	b, err := New(ModeSweep, 0, 1, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Rate())
	assert.Equal(t, ModeSweep, b.Mode())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeScroll, m)

	m, err = ParseMode("sweep")
	require.NoError(t, err)
	assert.Equal(t, ModeSweep, m)

	_, err = ParseMode("circular")
	assert.Error(t, err)
}

func TestResetPreencheComNaN(t *testing.T) {
	b, err := New(ModeScroll, 10, 1, false)
	require.NoError(t, err)

	b.Reset(2)
	assert.Equal(t, 10, b.Capacity())

	data, tvec, _, _ := b.Contents()
	require.Len(t, data, 2)
	assert.Nil(t, tvec)
	for _, row := range data {
		require.Len(t, row, 10)
		for _, v := range row {
			assert.True(t, math.IsNaN(v))
		}
	}
}

func TestUpdateVazioNaoMuda(t *testing.T) {
	b, _ := New(ModeScroll, 10, 1, false)
	b.Reset(1)

	require.NoError(t, b.Update(models.SampleChunk{}, visibleStates(1)))

	_, tvec, _, _ := b.Contents()
	assert.Nil(t, tvec, "bloco vazio não deve ancorar o vetor de tempo")
}

func TestScrollEscritaBasica(t *testing.T) {
	b, _ := New(ModeScroll, 10, 1, false)
	b.Reset(1)

	err := b.Update(chunk1([]float64{1, 2, 3}, []float64{0.1, 0.2, 0.3}), visibleStates(1))
	require.NoError(t, err)

	data, tvec, _, _ := b.Contents()
	require.Len(t, tvec, 10)

	// O vetor de tempo termina no instante mais recente e é monotônico.
	assert.InDelta(t, 0.3, tvec[9], 1e-9)
	for i := 1; i < len(tvec); i++ {
		assert.Greater(t, tvec[i], tvec[i-1])
	}

	// As amostras novas vivem na cauda; o resto ainda é NaN.
	assert.InDelta(t, 1, data[0][7], 1e-9)
	assert.InDelta(t, 2, data[0][8], 1e-9)
	assert.InDelta(t, 3, data[0][9], 1e-9)
	for i := 0; i < 7; i++ {
		assert.True(t, math.IsNaN(data[0][i]))
	}

	// Segunda entrega desloca o conteúdo para a esquerda.
	require.NoError(t, b.Update(chunk1([]float64{4, 5}, []float64{0.4, 0.5}), visibleStates(1)))
	data, tvec, _, _ = b.Contents()
	assert.InDelta(t, 1, data[0][5], 1e-9)
	assert.InDelta(t, 5, data[0][9], 1e-9)
	assert.InDelta(t, 0.5, tvec[9], 1e-9)
}

func TestScrollForaDeOrdem(t *testing.T) {
	mk := func() *TimeSeriesBuffer {
		b, _ := New(ModeScroll, 10, 1, false)
		b.Reset(1)
		return b
	}

	desordenado := mk()
	require.NoError(t, desordenado.Update(
		chunk1([]float64{50, 30, 40}, []float64{0.5, 0.3, 0.4}), visibleStates(1)))

	ordenado := mk()
	require.NoError(t, ordenado.Update(
		chunk1([]float64{30, 40, 50}, []float64{0.3, 0.4, 0.5}), visibleStates(1)))

	d1, t1, _, _ := desordenado.Contents()
	d2, t2, _, _ := ordenado.Contents()
	assert.Equal(t, t2, t1)
	assert.Equal(t, d2[0][7:], d1[0][7:])
}

func TestScrollDescartaAmostrasVelhas(t *testing.T) {
	b, _ := New(ModeScroll, 10, 1, false)
	b.Reset(1)

	require.NoError(t, b.Update(chunk1([]float64{1, 2, 3}, []float64{0.1, 0.2, 0.3}), visibleStates(1)))

	// 0.25 é anterior à última escrita (0.3) e deve ser ignorado.
	require.NoError(t, b.Update(chunk1([]float64{99, 4}, []float64{0.25, 0.4}), visibleStates(1)))

	data, tvec, _, _ := b.Contents()
	assert.InDelta(t, 0.4, tvec[9], 1e-9)
	assert.InDelta(t, 4, data[0][9], 1e-9)
	assert.InDelta(t, 3, data[0][8], 1e-9)
	for _, v := range data[0] {
		if !math.IsNaN(v) {
			assert.NotEqual(t, 99.0, v)
		}
	}
}

func TestScrollEstouroRecupera(t *testing.T) {
	b, _ := New(ModeScroll, 10, 1, false)
	b.Reset(1)

	// 25 amostras para uma capacidade de 10: só a janela final sobrevive.
	n := 25
	values := make([]float64, n)
	timestamps := make([]float64, n)
	for i := range values {
		values[i] = float64(i + 1)
		timestamps[i] = float64(i+1) / 10
	}
	require.NoError(t, b.Update(chunk1(values, timestamps), visibleStates(1)))

	data, tvec, _, _ := b.Contents()
	for i := 0; i < 10; i++ {
		assert.InDelta(t, float64(16+i), data[0][i], 1e-9)
		assert.InDelta(t, float64(16+i)/10, tvec[i], 1e-9)
	}
}

func TestSweepEscreveNoSlotEsperado(t *testing.T) {
	b, _ := New(ModeSweep, 2, 2, true)
	b.Reset(1)

	require.NoError(t, b.Update(chunk1([]float64{6}, []float64{0.6}), visibleStates(1)))

	data, tvec, _, _ := b.Contents()
	require.Len(t, tvec, 4)

	// O vetor de tempo é ancorado no balde de parede que contém a âncora.
	assert.InDelta(t, 0.0, tvec[0], 1e-9)
	assert.InDelta(t, 0.5, tvec[1], 1e-9)
	assert.InDelta(t, 1.0, tvec[2], 1e-9)
	assert.InDelta(t, 1.5, tvec[3], 1e-9)

	// A amostra em 0.6 pertence ao slot de 0.5.
	assert.InDelta(t, 6, data[0][1], 1e-9)
	assert.Equal(t, 2, b.WriteIndex())
}

func TestSweepDaVoltaReancorado(t *testing.T) {
	b, _ := New(ModeSweep, 2, 2, true)
	b.Reset(1)

	require.NoError(t, b.Update(chunk1([]float64{6}, []float64{0.6}), visibleStates(1)))
	require.NoError(t, b.Update(chunk1([]float64{11, 16, 21}, []float64{1.1, 1.6, 2.1}), visibleStates(1)))

	data, tvec, _, _ := b.Contents()

	// 2.1 pertence à varredura seguinte: o vetor reancora no balde [2, 4).
	assert.InDelta(t, 2.0, tvec[0], 1e-9)
	assert.InDelta(t, 21, data[0][0], 1e-9)

	// As amostras da varredura anterior permanecem visíveis nos demais slots.
	assert.InDelta(t, 11, data[0][2], 1e-9)
	assert.InDelta(t, 16, data[0][3], 1e-9)

	// indicateWrite apaga o slot à frente do cursor.
	assert.Equal(t, 1, b.WriteIndex())
	assert.True(t, math.IsNaN(data[0][1]))
}

func TestSweepInterpolaPrimeiraLacuna(t *testing.T) {
	b, _ := New(ModeSweep, 10, 1, false)
	b.Reset(1)

	require.NoError(t, b.Update(chunk1([]float64{10}, []float64{0.15}), visibleStates(1)))
	require.NoError(t, b.Update(chunk1([]float64{20}, []float64{0.55}), visibleStates(1)))

	data, _, _, _ := b.Contents()

	// A amostra inicial vive no slot de 0.1 e a nova no de 0.5; a lacuna
	// entre o cursor (slot 2) e a nova escrita é interpolada linearmente.
	assert.InDelta(t, 10, data[0][1], 1e-9)
	assert.InDelta(t, 12.5, data[0][2], 1e-9)
	assert.InDelta(t, 15, data[0][3], 1e-9)
	assert.InDelta(t, 17.5, data[0][4], 1e-9)
	assert.InDelta(t, 20, data[0][5], 1e-9)
}

func TestSweepPreencheSlotsPulados(t *testing.T) {
	b, _ := New(ModeSweep, 10, 1, false)
	b.Reset(1)

	require.NoError(t, b.Update(chunk1([]float64{10}, []float64{0.15}), visibleStates(1)))
	require.NoError(t, b.Update(chunk1([]float64{20}, []float64{0.55}), visibleStates(1)))

	// Duas amostras no mesmo bloco com slots pulados entre elas: os slots
	// intermediários copiam o valor da amostra recebida mais próxima.
	require.NoError(t, b.Update(chunk1([]float64{30, 40}, []float64{0.65, 0.95}), visibleStates(1)))

	data, tvec, _, _ := b.Contents()
	assert.InDelta(t, 30, data[0][6], 1e-9)
	assert.InDelta(t, 40, data[0][7], 1e-9)
	assert.InDelta(t, 40, data[0][8], 1e-9)
	assert.InDelta(t, 40, data[0][9], 1e-9)

	// O cursor passou do fim: reancora na próxima varredura.
	assert.InDelta(t, 1.0, tvec[0], 1e-9)
	assert.Equal(t, 0, b.WriteIndex())
}

func TestIrregularRetencaoOrdemZero(t *testing.T) {
	b, _ := New(ModeScroll, 0, 0.1, false)
	b.Reset(1)
	require.Equal(t, 100, b.Capacity())

	require.NoError(t, b.Update(chunk1([]float64{5}, []float64{0.05}), visibleStates(1)))

	data, tvec, _, _ := b.Contents()
	assert.InDelta(t, 5, data[0][99], 1e-9)
	assert.InDelta(t, 0.05, tvec[99], 1e-9)

	// A próxima amostra chega 10 ms depois: os slots intermediários herdam
	// o último valor escrito (retenção de ordem zero).
	require.NoError(t, b.Update(chunk1([]float64{7}, []float64{0.06}), visibleStates(1)))

	data, tvec, _, _ = b.Contents()
	assert.InDelta(t, 7, data[0][99], 1e-9)
	assert.InDelta(t, 0.06, tvec[99], 1e-9)
	for i := 90; i < 99; i++ {
		assert.InDelta(t, 5, data[0][i], 1e-9, "slot %d deveria herdar o valor anterior", i)
	}
}

func TestIrregularMarcadores(t *testing.T) {
	b, _ := New(ModeSweep, 0, 1, false)
	b.Reset(1)

	evento := models.SampleChunk{
		Data:       [][]float64{{0}},
		Timestamps: []float64{0.35},
		Labels:     []string{"inicio"},
	}
	require.NoError(t, b.Update(evento, visibleStates(1)))

	data, _, markers, markerTs := b.Contents()
	require.Equal(t, []string{"inicio"}, markers)
	require.Len(t, markerTs, 1)
	assert.InDelta(t, 0.35, markerTs[0], 1e-9)

	// A carga textual marca presença com 1.0 no traço.
	achou := false
	for _, v := range data[0] {
		if v == 1.0 {
			achou = true
			break
		}
	}
	assert.True(t, achou, "evento deveria marcar presença no traço")
}

func TestIrregularMarcadoresPodados(t *testing.T) {
	b, _ := New(ModeSweep, 0, 1, false)
	b.Reset(1)

	primeiro := models.SampleChunk{
		Data:       [][]float64{{0}},
		Timestamps: []float64{0.35},
		Labels:     []string{"inicio"},
	}
	require.NoError(t, b.Update(primeiro, visibleStates(1)))

	// O segundo evento chega mais de uma duração depois do primeiro:
	// o marcador antigo sai da janela.
	segundo := models.SampleChunk{
		Data:       [][]float64{{0}},
		Timestamps: []float64{1.6},
		Labels:     []string{"ciclo"},
	}
	require.NoError(t, b.Update(segundo, visibleStates(1)))

	_, _, markers, markerTs := b.Contents()
	require.Equal(t, []string{"ciclo"}, markers)
	assert.InDelta(t, 1.6, markerTs[0], 1e-9)
}

func TestUpdateDimensoesInvalidas(t *testing.T) {
	b, _ := New(ModeScroll, 10, 1, false)
	b.Reset(1)

	// Linhas de dados não batem com os estados de canal.
	err := b.Update(models.SampleChunk{
		Data:       [][]float64{{1}, {2}},
		Timestamps: []float64{0.1},
	}, visibleStates(1))
	assert.ErrorIs(t, err, ErrDimensoes)

	// Comprimento de linha não bate com os timestamps.
	err = b.Update(models.SampleChunk{
		Data:       [][]float64{{1, 2}},
		Timestamps: []float64{0.1},
	}, visibleStates(1))
	assert.ErrorIs(t, err, ErrDimensoes)

	// Etiquetas não batem com os timestamps.
	err = b.Update(models.SampleChunk{
		Data:       [][]float64{{1}},
		Timestamps: []float64{0.1},
		Labels:     []string{"a", "b"},
	}, visibleStates(1))
	assert.ErrorIs(t, err, ErrDimensoes)

	// Buffer alocado para menos canais que os visíveis.
	err = b.Update(models.SampleChunk{
		Data:       [][]float64{{1}, {2}},
		Timestamps: []float64{0.1},
	}, visibleStates(2))
	assert.ErrorIs(t, err, ErrDimensoes)
}

func TestUpdateDescartaCanaisOcultos(t *testing.T) {
	b, _ := New(ModeScroll, 10, 1, false)
	b.Reset(1)

	states := []models.ChannelState{
		{Name: "visivel", Visible: true},
		{Name: "oculto", Visible: false},
	}
	chunk := models.SampleChunk{
		Data:       [][]float64{{1}, {99}},
		Timestamps: []float64{0.1},
	}
	require.NoError(t, b.Update(chunk, states))

	data, _, _, _ := b.Contents()
	require.Len(t, data, 1)
	assert.InDelta(t, 1, data[0][9], 1e-9)
}

func TestResetAnchoredDerivaCursorDoRelogio(t *testing.T) {
	b, _ := New(ModeSweep, 2, 2, false)
	b.ResetAnchored(1, 1.2)

	_, tvec, _, _ := b.Contents()
	assert.InDelta(t, 0.0, tvec[0], 1e-9)

	// 1.2 está entre os slots 1.0 e 1.5: o cursor aponta para o slot de 1.0.
	assert.Equal(t, 2, b.WriteIndex())
}

func TestSetIgnoreOldAceitaNaoMonotonico(t *testing.T) {
	b, _ := New(ModeScroll, 10, 1, false)
	b.SetIgnoreOld(false)
	b.Reset(1)

	require.NoError(t, b.Update(chunk1([]float64{1, 2}, []float64{0.1, 0.2}), visibleStates(1)))
	require.NoError(t, b.Update(chunk1([]float64{9}, []float64{0.15}), visibleStates(1)))

	data, tvec, _, _ := b.Contents()
	assert.InDelta(t, 9, data[0][9], 1e-9)
	assert.InDelta(t, 0.15, tvec[9], 1e-9)
}
