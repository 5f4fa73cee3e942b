package renderer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview_go/internal/models"
)

// fakePublisher coleta tudo o que os displays publicam
type fakePublisher struct {
	frames []models.Frame
	snaps  []models.Snapshot
}

func (p *fakePublisher) PublishFrame(frame models.Frame) {
	p.frames = append(p.frames, frame)
}

func (p *fakePublisher) PublishSnapshot(snap models.Snapshot) {
	p.snaps = append(p.snaps, snap)
}

func TestRegistroDeDisplays(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "line")
	assert.Contains(t, names, "snapshot")

	pub := &fakePublisher{}
	d, err := NewDisplay("line", pub)
	require.NoError(t, err)
	assert.IsType(t, &LineDisplay{}, d)

	d, err = NewDisplay("snapshot", pub)
	require.NoError(t, err)
	assert.IsType(t, &SnapshotDisplay{}, d)

	_, err = NewDisplay("holograma", pub)
	assert.Error(t, err)
}

func TestLineDisplayPublicaQuadroIntegral(t *testing.T) {
	pub := &fakePublisher{}
	d, err := NewDisplay("line", pub)
	require.NoError(t, err)

	frame := models.Frame{
		SourceID:   "fonte-a",
		Data:       [][]float64{{1, 2, 3}},
		Timestamps: []float64{0.1, 0.2, 0.3},
	}
	d.Draw(frame)

	require.Len(t, pub.frames, 1)
	assert.Equal(t, frame, pub.frames[0])
	assert.Empty(t, pub.snaps)
}

func TestSnapshotDisplayReduzAoUltimoValorValido(t *testing.T) {
	pub := &fakePublisher{}
	d, err := NewDisplay("snapshot", pub)
	require.NoError(t, err)

	// O último slot do primeiro canal é NaN (cursor de escrita): o valor
	// publicado é o último válido antes dele.
	d.Draw(models.Frame{
		SourceID:   "fonte-a",
		Data:       [][]float64{{1, 2, math.NaN()}, {4, 5, 6}},
		Timestamps: []float64{0.1, 0.2, 0.3},
	})

	require.Len(t, pub.snaps, 1)
	snap := pub.snaps[0]
	require.Len(t, snap.Values, 2)
	assert.InDelta(t, 2, snap.Values[0], 1e-9)
	assert.InDelta(t, 6, snap.Values[1], 1e-9)
	assert.InDelta(t, 0.3, snap.Timestamp, 1e-9)
}

func TestSnapshotDisplayCanalSemDados(t *testing.T) {
	pub := &fakePublisher{}
	d, err := NewDisplay("snapshot", pub)
	require.NoError(t, err)

	d.Draw(models.Frame{
		SourceID:   "fonte-a",
		Data:       [][]float64{{math.NaN(), math.NaN()}},
		Timestamps: []float64{0.1, 0.2},
	})

	require.Len(t, pub.snaps, 1)
	assert.True(t, math.IsNaN(pub.snaps[0].Values[0]))

	// Quadro vazio não publica nada.
	d.Draw(models.Frame{SourceID: "fonte-a"})
	assert.Len(t, pub.snaps, 1)
}
