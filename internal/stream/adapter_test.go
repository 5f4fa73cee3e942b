package stream

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview_go/internal/buffer"
	"streamview_go/internal/models"
	"streamview_go/internal/source"
)

// fakeSource entrega blocos pré-programados em sequência
type fakeSource struct {
	id       string
	chunks   []models.SampleChunk
	fetchErr error
	fetches  int
	flushes  int
	flushN   int
}

func (f *fakeSource) ID() string { return f.id }

func (f *fakeSource) Fetch() (models.SampleChunk, error) {
	f.fetches++
	if f.fetchErr != nil {
		return models.SampleChunk{}, f.fetchErr
	}
	if len(f.chunks) == 0 {
		return models.SampleChunk{}, nil
	}
	chunk := f.chunks[0]
	f.chunks = f.chunks[1:]
	return chunk, nil
}

func (f *fakeSource) Flush() int {
	f.flushes++
	return f.flushN
}

func (f *fakeSource) Stats() models.SourceStats {
	return models.SourceStats{Rate: 1, RateKnown: true, ChannelCount: 1}
}

func (f *fakeSource) RegisterStateHandler(source.StateHandler) {}

func (f *fakeSource) Close() error { return nil }

func estados(n int) []models.ChannelState {
	states := make([]models.ChannelState, n)
	for i := range states {
		states[i] = models.ChannelState{Name: "ch", Visible: true}
	}
	return states
}

func novoBuffer(t *testing.T, rate, duration float64, nChans int) *buffer.TimeSeriesBuffer {
	t.Helper()
	buf, err := buffer.New(buffer.ModeScroll, rate, duration, false)
	require.NoError(t, err)
	buf.Reset(nChans)
	return buf
}

func TestCycleEscreveNoBuffer(t *testing.T) {
	src := &fakeSource{
		id: "teste",
		chunks: []models.SampleChunk{{
			Data:       [][]float64{{1, 2}},
			Timestamps: []float64{0.5, 1.0},
		}},
	}
	buf := novoBuffer(t, 2, 2, 1)
	a := NewAdapter(src, buf, nil)

	chunk, err := a.Cycle(estados(1))
	require.NoError(t, err)
	assert.Equal(t, 2, chunk.NumSamples())

	data, tvec, _, _ := buf.Contents()
	assert.InDelta(t, 1, data[0][2], 1e-9)
	assert.InDelta(t, 2, data[0][3], 1e-9)
	assert.InDelta(t, 1.0, tvec[3], 1e-9)
}

func TestCycleModoMonitorDrenaSemEscrever(t *testing.T) {
	src := &fakeSource{id: "teste", flushN: 7}
	buf := novoBuffer(t, 2, 2, 1)
	a := NewAdapter(src, buf, nil)

	a.SetMonitorMode(true)
	require.True(t, a.MonitorMode())

	chunk, err := a.Cycle(estados(1))
	require.NoError(t, err)
	assert.True(t, chunk.Empty())
	assert.Equal(t, 1, src.flushes)
	assert.Equal(t, 0, src.fetches)

	// O buffer não foi tocado.
	data, tvec, _, _ := buf.Contents()
	assert.Nil(t, tvec)
	for _, v := range data[0] {
		assert.True(t, math.IsNaN(v))
	}
}

func TestCycleErroMarcaDesconexao(t *testing.T) {
	falha := errors.New("conexão recusada")
	src := &fakeSource{id: "teste", fetchErr: falha}
	a := NewAdapter(src, novoBuffer(t, 2, 2, 1), nil)

	_, err := a.Cycle(estados(1))
	require.ErrorIs(t, err, falha)
	assert.True(t, a.Disconnected())
}

func TestTrackRateMediaMovel(t *testing.T) {
	src := &fakeSource{id: "teste"}
	a := NewAdapter(src, novoBuffer(t, 2, 2, 1), nil)

	clock := 0.0
	a.now = func() float64 { return clock }
	a.lastRateCalc = 0

	// Antes de completar o intervalo de monitoramento nada muda.
	clock = 0.5
	a.trackRate(100)
	assert.Equal(t, 0.0, a.XferRate())

	// Ao completar: 200 amostras em 1 s, decaimento 0.1.
	clock = 1.0
	a.trackRate(100)
	assert.InDelta(t, 20.0, a.XferRate(), 1e-9)

	// A média converge para a taxa sustentada.
	for i := 0; i < 200; i++ {
		clock += 1.0
		a.trackRate(100)
	}
	assert.InDelta(t, 100.0, a.XferRate(), 0.1)
}

func TestFrameSemEscala(t *testing.T) {
	src := &fakeSource{
		id: "teste",
		chunks: []models.SampleChunk{{
			Data:       [][]float64{{3, 9}},
			Timestamps: []float64{0.5, 1.0},
		}},
	}
	buf := novoBuffer(t, 2, 2, 1)
	a := NewAdapter(src, buf, nil)

	_, err := a.Cycle(estados(1))
	require.NoError(t, err)

	frame := a.Frame(ScaleNone)
	assert.Equal(t, "teste", frame.SourceID)
	require.Len(t, frame.Data, 1)
	assert.True(t, math.IsNaN(frame.Data[0][0]))
	assert.InDelta(t, 3, frame.Data[0][2], 1e-9)
	assert.InDelta(t, 9, frame.Data[0][3], 1e-9)

	// O quadro é uma cópia: mutá-lo não afeta o buffer.
	frame.Data[0][2] = -1
	data, _, _, _ := buf.Contents()
	assert.InDelta(t, 3, data[0][2], 1e-9)
}

func TestFrameEscalaPorCanal(t *testing.T) {
	src := &fakeSource{
		id: "teste",
		chunks: []models.SampleChunk{{
			Data:       [][]float64{{0, 10, 5, 10}},
			Timestamps: []float64{0.5, 1.0, 1.5, 2.0},
		}},
	}
	buf := novoBuffer(t, 2, 2, 1)
	a := NewAdapter(src, buf, nil)

	_, err := a.Cycle(estados(1))
	require.NoError(t, err)

	frame := a.Frame(ScaleByChannel)
	assert.InDelta(t, 0.0, frame.Data[0][0], 1e-9)
	assert.InDelta(t, 1.0, frame.Data[0][1], 1e-9)
	assert.InDelta(t, 0.5, frame.Data[0][2], 1e-9)
	assert.InDelta(t, 1.0, frame.Data[0][3], 1e-9)
}

func TestFrameEscalaPorFluxo(t *testing.T) {
	src := &fakeSource{
		id: "teste",
		chunks: []models.SampleChunk{{
			Data:       [][]float64{{0, 10}, {5, 20}},
			Timestamps: []float64{0.5, 1.0},
		}},
	}
	buf := novoBuffer(t, 1, 2, 2)
	a := NewAdapter(src, buf, nil)

	_, err := a.Cycle(estados(2))
	require.NoError(t, err)

	// Min/max globais (0 e 20) normalizam todos os canais juntos.
	frame := a.Frame(ScaleByStream)
	assert.InDelta(t, 0.0, frame.Data[0][0], 1e-9)
	assert.InDelta(t, 0.5, frame.Data[0][1], 1e-9)
	assert.InDelta(t, 0.25, frame.Data[1][0], 1e-9)
	assert.InDelta(t, 1.0, frame.Data[1][1], 1e-9)
}

func TestFrameEscalaDegenerada(t *testing.T) {
	src := &fakeSource{
		id: "teste",
		chunks: []models.SampleChunk{{
			Data:       [][]float64{{7, 7}},
			Timestamps: []float64{0.5, 1.0},
		}},
	}
	buf := novoBuffer(t, 1, 2, 1)
	a := NewAdapter(src, buf, nil)

	_, err := a.Cycle(estados(1))
	require.NoError(t, err)

	// Faixa degenerada: valores válidos colapsam em 0.5, NaN é preservado.
	frame := a.Frame(ScaleByChannel)
	assert.InDelta(t, 0.5, frame.Data[0][0], 1e-9)
	assert.InDelta(t, 0.5, frame.Data[0][1], 1e-9)
}
