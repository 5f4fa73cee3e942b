package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"streamview_go/internal/buffer"
	"streamview_go/internal/channels"
	"streamview_go/internal/config"
	"streamview_go/internal/filter"
	"streamview_go/internal/models"
	"streamview_go/internal/source"
	"streamview_go/internal/stream"
	"streamview_go/pkg/logger"
)

// FrameHandler recebe cada quadro publicado
type FrameHandler func(frame models.Frame)

// SnapshotHandler recebe cada instantâneo mesclado publicado
type SnapshotHandler func(snap models.Snapshot)

// StatusHandler recebe mudanças de estado das fontes
type StatusHandler func(status models.StreamStatus)

// Coordinator orquestra o ciclo de coleta e exibição: mantém o
// conjunto de fontes e seus adaptadores, o seletor de canais, o buffer
// de mesclagem e o display ativo. Um único ticker dirige todos os
// fluxos; congelar a exibição coloca os adaptadores em modo de
// monitoramento sem parar o ciclo.
type Coordinator struct {
	cfg       config.ViewerConfig
	mode      buffer.Mode
	scaleMode stream.ScaleMode
	display   Display

	mu       sync.RWMutex
	sources  []source.Source
	adapters map[string]*stream.Adapter
	selector *channels.Selector
	merge    *buffer.MergeLastBuffer
	status   map[string]models.StreamStatus
	frozen   bool
	running  bool

	frameHandlers    []FrameHandler
	snapshotHandlers []SnapshotHandler
	statusHandlers   []StatusHandler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCoordinator cria o coordenador de exibição
func NewCoordinator(cfg config.ViewerConfig, display Display) (*Coordinator, error) {
	mode, err := buffer.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duração de janela inválida: %v", cfg.Duration)
	}
	if display == nil {
		return nil, fmt.Errorf("display não pode ser nulo")
	}

	scale := stream.ScaleMode(cfg.AutoScale)
	switch scale {
	case stream.ScaleNone, stream.ScaleByChannel, stream.ScaleByStream:
	case "":
		scale = stream.ScaleNone
	default:
		return nil, fmt.Errorf("modo de escala desconhecido: %q", cfg.AutoScale)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cfg:       cfg,
		mode:      mode,
		scaleMode: scale,
		display:   display,
		adapters:  make(map[string]*stream.Adapter),
		selector:  channels.NewSelector(),
		merge:     buffer.NewMergeLast(),
		status:    make(map[string]models.StreamStatus),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddSource incorpora uma nova fonte ao ciclo de exibição. Os buffers
// de todos os fluxos são refeitos com o novo conjunto de canais.
func (c *Coordinator) AddSource(src source.Source) error {
	c.mu.Lock()

	id := src.ID()
	if _, exists := c.adapters[id]; exists {
		c.mu.Unlock()
		return fmt.Errorf("fonte %s já registrada", id)
	}

	stats := src.Stats()
	buf, err := buffer.New(c.mode, stats.Rate, c.cfg.Duration, c.cfg.IndicateWrite)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("erro ao criar buffer para %s: %w", id, err)
	}

	var hp *filter.HighPass
	if c.cfg.HighpassCutoff > 0 && stats.Rate > 0 {
		hp, err = filter.NewHighPass(filter.DefaultOrder, c.cfg.HighpassCutoff, stats.Rate, stats.ChannelCount)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("erro ao criar filtro para %s: %w", id, err)
		}
	}

	ad := stream.NewAdapter(src, buf, hp)
	if c.frozen {
		ad.SetMonitorMode(true)
	}
	src.RegisterStateHandler(c.onSourceState)

	c.sources = append(c.sources, src)
	c.adapters[id] = ad
	c.rebuildLocked()

	st := models.StreamStatus{
		SourceID:  id,
		Status:    "connected",
		Timestamp: time.Now(),
	}
	c.status[id] = st
	c.mu.Unlock()

	logger.Infof("Fonte %s adicionada (%d canais, taxa %.1f)", id, stats.ChannelCount, stats.Rate)
	c.notifyStatus(st)
	return nil
}

// RemoveSource retira uma fonte do ciclo e a encerra
func (c *Coordinator) RemoveSource(id string) error {
	c.mu.Lock()

	ad, ok := c.adapters[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("fonte %s não registrada", id)
	}
	delete(c.adapters, id)
	delete(c.status, id)
	for i, src := range c.sources {
		if src.ID() == id {
			c.sources = append(c.sources[:i], c.sources[i+1:]...)
			break
		}
	}
	c.rebuildLocked()
	c.mu.Unlock()

	if err := ad.Source().Close(); err != nil {
		logger.Warnf("Erro ao encerrar fonte %s: %v", id, err)
	}

	logger.Infof("Fonte %s removida", id)
	c.notifyStatus(models.StreamStatus{
		SourceID:  id,
		Status:    "removed",
		Timestamp: time.Now(),
	})
	return nil
}

// rebuildLocked refaz o estado de canais e os buffers após qualquer
// mudança no conjunto de fontes. Deve ser chamado com o lock preso.
func (c *Coordinator) rebuildLocked() {
	descs := make([]channels.Descriptor, len(c.sources))
	for i, src := range c.sources {
		descs[i] = src
	}
	c.selector.Rebuild(descs)
	c.resetBuffersLocked()
}

// resetBuffersLocked realinha buffers, mesclagem e display com o
// estado de visibilidade atual. Deve ser chamado com o lock preso.
func (c *Coordinator) resetBuffersLocked() {
	for id, ad := range c.adapters {
		ad.Buffer().Reset(c.selector.VisibleCountForSource(id))
	}
	c.merge.Reset(c.selector.VisibleCount())
	c.display.ResetView(c.selector.States())
}

// Start inicia o ciclo de coleta e exibição
func (c *Coordinator) Start() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("coordenador já em execução")
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop()

	logger.Infof("Coordenador iniciado: modo %s, janela %.1fs, intervalo %v",
		c.mode, c.cfg.Duration, c.cfg.UpdateInterval)
	return nil
}

// Stop encerra o ciclo e todas as fontes
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()

	c.mu.Lock()
	srcs := append([]source.Source(nil), c.sources...)
	c.mu.Unlock()
	for _, src := range srcs {
		if err := src.Close(); err != nil {
			logger.Warnf("Erro ao encerrar fonte %s: %v", src.ID(), err)
		}
	}

	logger.Info("Coordenador encerrado")
}

// loop executa o ciclo periódico de coleta
func (c *Coordinator) loop() {
	defer c.wg.Done()

	interval := c.cfg.UpdateInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick executa um ciclo completo de coleta, mesclagem e publicação
func (c *Coordinator) Tick() {
	c.mu.Lock()

	var frames []models.Frame
	var statuses []models.StreamStatus

	for _, src := range c.sources {
		id := src.ID()
		ad := c.adapters[id]
		if ad.Disconnected() {
			continue
		}

		chunk, err := ad.Cycle(c.selector.ForSource(id))
		if err != nil {
			st := c.status[id]
			st.Status = "disconnected"
			st.LastError = err.Error()
			st.ErrorCount++
			st.Timestamp = time.Now()
			c.status[id] = st
			statuses = append(statuses, st)
			continue
		}

		if !chunk.Empty() && len(chunk.Labels) == 0 {
			if err := c.merge.Update(chunk.Data, chunk.Timestamps, c.selector.States(), id); err != nil {
				logger.Warnf("Mesclagem do fluxo %s: %v", id, err)
			}
		}

		frames = append(frames, ad.Frame(c.scaleMode))
	}

	values, ts, ok := c.merge.Contents()
	frameHandlers := append([]FrameHandler(nil), c.frameHandlers...)
	snapHandlers := append([]SnapshotHandler(nil), c.snapshotHandlers...)
	c.mu.Unlock()

	for _, frame := range frames {
		c.display.Draw(frame)
		for _, h := range frameHandlers {
			h(frame)
		}
	}
	if ok {
		snap := models.Snapshot{Values: values, Timestamp: ts}
		for _, h := range snapHandlers {
			h(snap)
		}
	}
	for _, st := range statuses {
		c.notifyStatus(st)
	}
}

// Freeze congela a exibição. As fontes continuam sendo drenadas em
// modo de monitoramento para que a estimativa de taxa siga válida.
func (c *Coordinator) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.frozen {
		return
	}
	c.frozen = true
	for _, ad := range c.adapters {
		ad.SetMonitorMode(true)
	}
	logger.Info("Exibição congelada")
}

// Unfreeze retoma a exibição: descarta o acúmulo pendente de cada
// fonte e refaz os buffers para começar limpo.
func (c *Coordinator) Unfreeze() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.frozen {
		return
	}
	for _, ad := range c.adapters {
		ad.SetMonitorMode(false)
		dropped := ad.Source().Flush()
		if dropped > 0 {
			logger.Debugf("Fonte %s: %d amostras descartadas ao descongelar", ad.Source().ID(), dropped)
		}
	}
	c.resetBuffersLocked()
	c.frozen = false
	logger.Info("Exibição retomada")
}

// Frozen indica se a exibição está congelada
func (c *Coordinator) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// SetChannelVisible altera a visibilidade de um canal pelo nome e
// refaz os buffers. Retorna false se o canal não existe.
func (c *Coordinator) SetChannelVisible(name string, visible bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.selector.SetVisible(name, visible) {
		return false
	}
	c.resetBuffersLocked()
	logger.Infof("Canal %s: visível=%v", name, visible)
	return true
}

// ChannelStates retorna o estado atual de todos os canais
func (c *Coordinator) ChannelStates() []models.ChannelState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selector.States()
}

// Frame retorna o quadro atual de um fluxo
func (c *Coordinator) Frame(id string) (models.Frame, bool) {
	c.mu.RLock()
	ad, ok := c.adapters[id]
	c.mu.RUnlock()

	if !ok {
		return models.Frame{}, false
	}
	return ad.Frame(c.scaleMode), true
}

// Status retorna o estado de todas as fontes
func (c *Coordinator) Status() []models.StreamStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.StreamStatus, 0, len(c.sources))
	for _, src := range c.sources {
		out = append(out, c.status[src.ID()])
	}
	return out
}

// XferRates retorna a taxa de transferência estimada por fonte
func (c *Coordinator) XferRates() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(c.adapters))
	for id, ad := range c.adapters {
		out[id] = ad.XferRate()
	}
	return out
}

// RegisterFrameHandler registra um consumidor de quadros
func (c *Coordinator) RegisterFrameHandler(h FrameHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frameHandlers = append(c.frameHandlers, h)
}

// RegisterSnapshotHandler registra um consumidor de instantâneos
func (c *Coordinator) RegisterSnapshotHandler(h SnapshotHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshotHandlers = append(c.snapshotHandlers, h)
}

// RegisterStatusHandler registra um consumidor de estados de fonte
func (c *Coordinator) RegisterStatusHandler(h StatusHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusHandlers = append(c.statusHandlers, h)
}

// notifyStatus entrega uma mudança de estado aos consumidores
func (c *Coordinator) notifyStatus(st models.StreamStatus) {
	c.mu.RLock()
	handlers := append([]StatusHandler(nil), c.statusHandlers...)
	c.mu.RUnlock()

	for _, h := range handlers {
		h(st)
	}
}

// onSourceState é chamado pelas próprias fontes em mudança de estado
func (c *Coordinator) onSourceState(src source.Source) {
	c.notifyStatus(models.StreamStatus{
		SourceID:  src.ID(),
		Status:    "disconnected",
		Timestamp: time.Now(),
	})
}
