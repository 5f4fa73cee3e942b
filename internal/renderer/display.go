package renderer

import (
	"math"

	"streamview_go/internal/models"
)

// Publisher entrega quadros e instantâneos prontos aos consumidores
// finais (websocket, persistência)
type Publisher interface {
	PublishFrame(frame models.Frame)
	PublishSnapshot(snap models.Snapshot)
}

// Display transforma o conteúdo dos buffers em saída visualizável
type Display interface {
	// ResetView é chamado sempre que o conjunto de canais muda
	ResetView(states []models.ChannelState)
	// Draw recebe o quadro atual de um fluxo
	Draw(frame models.Frame)
}

func init() {
	Register("line", func(pub Publisher) Display {
		return &LineDisplay{pub: pub}
	})
	Register("snapshot", func(pub Publisher) Display {
		return &SnapshotDisplay{pub: pub}
	})
}

// LineDisplay publica o quadro completo, adequado para gráficos de
// linha contínuos no cliente
type LineDisplay struct {
	pub    Publisher
	states []models.ChannelState
}

// ResetView guarda o novo conjunto de canais
func (d *LineDisplay) ResetView(states []models.ChannelState) {
	d.states = states
}

// Draw publica o quadro como está
func (d *LineDisplay) Draw(frame models.Frame) {
	d.pub.PublishFrame(frame)
}

// SnapshotDisplay publica apenas o valor mais recente de cada canal,
// adequado para mostradores numéricos e barras
type SnapshotDisplay struct {
	pub    Publisher
	states []models.ChannelState
}

// ResetView guarda o novo conjunto de canais
func (d *SnapshotDisplay) ResetView(states []models.ChannelState) {
	d.states = states
}

// Draw reduz o quadro ao último valor válido de cada canal
func (d *SnapshotDisplay) Draw(frame models.Frame) {
	if len(frame.Data) == 0 {
		return
	}
	values := make([]float64, len(frame.Data))
	var ts float64
	for c, row := range frame.Data {
		values[c] = math.NaN()
		for i := len(row) - 1; i >= 0; i-- {
			if !math.IsNaN(row[i]) {
				values[c] = row[i]
				if frame.Timestamps[i] > ts {
					ts = frame.Timestamps[i]
				}
				break
			}
		}
	}
	d.pub.PublishSnapshot(models.Snapshot{Values: values, Timestamp: ts})
}
