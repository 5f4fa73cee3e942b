package channels

import (
	"sync"

	"streamview_go/internal/models"
)

// Descriptor é o subconjunto de uma fonte necessário para reconstruir a
// tabela de canais.
type Descriptor interface {
	ID() string
	Stats() models.SourceStats
}

// Selector mantém a tabela de estados de canal de todas as fontes: nome,
// fonte dona, metadados físicos e a flag de visibilidade. A tabela é
// reconstruída por inteiro sempre que os metadados de alguma fonte mudam;
// apenas a flag de visibilidade é mutada no lugar.
type Selector struct {
	mu     sync.RWMutex
	states []models.ChannelState
}

// NewSelector cria um seletor vazio
func NewSelector() *Selector {
	return &Selector{}
}

// Rebuild reconstrói a tabela concatenando os descritores de cada fonte na
// ordem de registro, etiquetando cada canal com o identificador da fonte.
// Uma lista vazia de fontes resulta em uma tabela vazia.
func (s *Selector) Rebuild(sources []Descriptor) {
	states := make([]models.ChannelState, 0)
	for _, src := range sources {
		stats := src.Stats()
		for _, ch := range stats.Channels {
			ch.SourceID = src.ID()
			states = append(states, ch)
		}
	}

	s.mu.Lock()
	s.states = states
	s.mu.Unlock()
}

// SetVisible altera a visibilidade de todos os canais com o nome dado.
// Retorna verdadeiro se alguma linha mudou.
func (s *Selector) SetVisible(name string, visible bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for i := range s.states {
		if s.states[i].Name == name && s.states[i].Visible != visible {
			s.states[i].Visible = visible
			changed = true
		}
	}
	return changed
}

// States retorna uma cópia da tabela completa, em ordem estável
func (s *Selector) States() []models.ChannelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChannelState, len(s.states))
	copy(out, s.states)
	return out
}

// ForSource retorna os estados pertencentes a uma fonte, em ordem de inserção
func (s *Selector) ForSource(sourceID string) []models.ChannelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChannelState, 0)
	for _, st := range s.states {
		if st.SourceID == sourceID {
			out = append(out, st)
		}
	}
	return out
}

// VisibleCount retorna o total de canais visíveis em todas as fontes
func (s *Selector) VisibleCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, st := range s.states {
		if st.Visible {
			n++
		}
	}
	return n
}

// VisibleCountForSource retorna os canais visíveis de uma única fonte
func (s *Selector) VisibleCountForSource(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, st := range s.states {
		if st.SourceID == sourceID && st.Visible {
			n++
		}
	}
	return n
}

// Len retorna o número total de canais registrados
func (s *Selector) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
