package channels

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview_go/internal/models"
)

type fakeDescriptor struct {
	id    string
	stats models.SourceStats
}

func (f *fakeDescriptor) ID() string { return f.id }

func (f *fakeDescriptor) Stats() models.SourceStats { return f.stats }

func descritor(id string, canais ...string) *fakeDescriptor {
	chans := make([]models.ChannelState, len(canais))
	for i, name := range canais {
		chans[i] = models.ChannelState{Name: name, Visible: true}
	}
	return &fakeDescriptor{
		id: id,
		stats: models.SourceStats{
			ChannelCount: len(canais),
			Channels:     chans,
		},
	}
}

func TestRebuildConcatenaEEtiqueta(t *testing.T) {
	s := NewSelector()
	s.Rebuild([]Descriptor{
		descritor("fonte-a", "a1", "a2"),
		descritor("fonte-b", "b1"),
	})

	states := s.States()
	require.Len(t, states, 3)
	assert.Equal(t, "a1", states[0].Name)
	assert.Equal(t, "fonte-a", states[0].SourceID)
	assert.Equal(t, "a2", states[1].Name)
	assert.Equal(t, "b1", states[2].Name)
	assert.Equal(t, "fonte-b", states[2].SourceID)
	assert.Equal(t, 3, s.Len())
}

func TestRebuildVazioLimpaTabela(t *testing.T) {
	s := NewSelector()
	s.Rebuild([]Descriptor{descritor("fonte-a", "a1")})
	s.Rebuild(nil)

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.States())
}

func TestSetVisibleAtingeTodasAsFontes(t *testing.T) {
	s := NewSelector()
	s.Rebuild([]Descriptor{
		descritor("fonte-a", "temp", "pressao"),
		descritor("fonte-b", "temp"),
	})

	// O mesmo nome existe nas duas fontes: ambas as linhas mudam.
	assert.True(t, s.SetVisible("temp", false))
	assert.Equal(t, 1, s.VisibleCount())
	assert.Equal(t, 1, s.VisibleCountForSource("fonte-a"))
	assert.Equal(t, 0, s.VisibleCountForSource("fonte-b"))

	// Sem mudança de estado não há notificação de alteração.
	assert.False(t, s.SetVisible("temp", false))
	assert.False(t, s.SetVisible("inexistente", true))

	assert.True(t, s.SetVisible("temp", true))
	assert.Equal(t, 3, s.VisibleCount())
}

func TestForSourceMantemOrdem(t *testing.T) {
	s := NewSelector()
	s.Rebuild([]Descriptor{
		descritor("fonte-a", "a1", "a2"),
		descritor("fonte-b", "b1"),
	})

	deA := s.ForSource("fonte-a")
	require.Len(t, deA, 2)
	assert.Equal(t, "a1", deA[0].Name)
	assert.Equal(t, "a2", deA[1].Name)

	assert.Empty(t, s.ForSource("fonte-c"))
}

func TestStatesRetornaCopia(t *testing.T) {
	s := NewSelector()
	s.Rebuild([]Descriptor{descritor("fonte-a", "a1")})

	states := s.States()
	states[0].Visible = false

	assert.Equal(t, 1, s.VisibleCount(), "mutar a cópia não deve afetar a tabela")
}

func TestRebuildDescartaVisibilidadeAnterior(t *testing.T) {
	s := NewSelector()
	src := descritor("fonte-a", "a1")
	s.Rebuild([]Descriptor{src})

	require.True(t, s.SetVisible("a1", false))

	// A reconstrução parte dos descritores: a flag volta ao padrão da fonte.
	s.Rebuild([]Descriptor{src})
	assert.Equal(t, 1, s.VisibleCount())
}
