package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"streamview_go/internal/config"
	"streamview_go/internal/models"
	"streamview_go/pkg/logger"
	"streamview_go/pkg/utils"
)

// maxHistorySize limita o número de pontos persistidos por canal
const maxHistorySize = 1000

// Service gerencia a conexão e operações com o Redis. Em caso de falha
// a escrita é silenciosamente suspensa até a conexão voltar; a
// visualização nunca depende do Redis.
type Service struct {
	client    *redis.Client
	ctx       context.Context
	cancel    context.CancelFunc
	prefix    string
	config    config.RedisConfig
	connected bool
	mutex     sync.RWMutex
}

// NewService cria um novo serviço Redis
func NewService(cfg config.RedisConfig) (*Service, error) {
	if !cfg.Enabled {
		logger.Info("Serviço Redis desabilitado por configuração")
		return &Service{
			config:    cfg,
			connected: false,
		}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	service := &Service{
		client: client,
		ctx:    ctx,
		cancel: cancel,
		prefix: cfg.Prefix,
		config: cfg,
	}

	// Testar conexão
	if err := service.TestConnection(); err != nil {
		logger.Warnf("Aviso: %v. O Redis será utilizado em modo offline.", err)
		service.connected = false
		return service, nil
	}

	service.connected = true
	return service, nil
}

// TestConnection testa a conexão com o Redis
func (s *Service) TestConnection() error {
	if !s.config.Enabled {
		return fmt.Errorf("serviço Redis desabilitado")
	}

	result, err := s.client.Ping(s.ctx).Result()
	if err != nil {
		return fmt.Errorf("erro ao conectar ao Redis: %w", err)
	}

	logger.Infof("Conexão com o Redis estabelecida. Resposta: %s", result)
	s.connected = true
	return nil
}

// IsConnected verifica se o serviço está conectado
func (s *Service) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.connected && s.config.Enabled
}

// WriteSnapshot persiste o instantâneo mesclado: valor atual e
// histórico limitado por canal visível
func (s *Service) WriteSnapshot(snap models.Snapshot, states []models.ChannelState) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()
	timestamp := int64(snap.Timestamp * 1000)

	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", s.prefix), timestamp, 0)

	// O vetor do instantâneo é paralelo aos canais visíveis
	idx := 0
	for _, st := range states {
		if !st.Visible {
			continue
		}
		if idx >= len(snap.Values) {
			break
		}
		value := snap.Values[idx]
		idx++

		key := fmt.Sprintf("%s:canal:%s", s.prefix, st.Name)
		pipe.Set(s.ctx, key, value, 0)

		// Histórico com timestamp, mantendo os últimos pontos
		histKey := fmt.Sprintf("%s:history", key)
		pipe.ZAdd(s.ctx, histKey, &redis.Z{
			Score:  float64(timestamp),
			Member: value,
		})
		pipe.ZRemRangeByRank(s.ctx, histKey, 0, -(maxHistorySize + 1))
	}

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever instantâneo no Redis: %w", err)
	}

	return nil
}

// WriteMarkers persiste eventos textuais de uma fonte
func (s *Service) WriteMarkers(sourceID string, markers []models.Marker) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled || len(markers) == 0 {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()

	markersKey := fmt.Sprintf("%s:fonte:%s:markers", s.prefix, sourceID)
	for _, m := range markers {
		payload, err := json.Marshal(m)
		if err != nil {
			continue
		}
		pipe.ZAdd(s.ctx, markersKey, &redis.Z{
			Score:  m.Timestamp * 1000,
			Member: string(payload),
		})
	}
	pipe.ZRemRangeByRank(s.ctx, markersKey, 0, -(maxHistorySize + 1))

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever marcadores no Redis: %w", err)
	}

	logger.Debugf("Registrados %d marcadores da fonte %s no Redis", len(markers), sourceID)
	return nil
}

// WriteStatus escreve o estado de uma fonte no Redis
func (s *Service) WriteStatus(status models.StreamStatus) error {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil
	}
	s.mutex.RUnlock()

	pipe := s.client.Pipeline()

	base := fmt.Sprintf("%s:fonte:%s", s.prefix, status.SourceID)
	pipe.Set(s.ctx, fmt.Sprintf("%s:status", base), status.Status, 0)
	pipe.Set(s.ctx, fmt.Sprintf("%s:timestamp", base),
		int64(utils.TimeToSeconds(status.Timestamp)*1000), 0)

	if status.LastError != "" {
		pipe.Set(s.ctx, fmt.Sprintf("%s:ultimo_erro", base), status.LastError, 0)
	}

	if status.ErrorCount > 0 {
		pipe.Set(s.ctx, fmt.Sprintf("%s:erros_consecutivos", base), status.ErrorCount, 0)
	}

	_, err := pipe.Exec(s.ctx)
	if err != nil {
		s.mutex.Lock()
		s.connected = false
		s.mutex.Unlock()
		return fmt.Errorf("erro ao escrever status no Redis: %w", err)
	}

	return nil
}

// GetStatus obtém o estado persistido de uma fonte
func (s *Service) GetStatus(sourceID string) (*models.StreamStatus, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	base := fmt.Sprintf("%s:fonte:%s", s.prefix, sourceID)

	statusCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:status", base))
	if statusCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter status: %w", statusCmd.Err())
	}

	timestampCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:timestamp", base))
	if timestampCmd.Err() != nil && timestampCmd.Err() != redis.Nil {
		return nil, fmt.Errorf("erro ao obter timestamp: %w", timestampCmd.Err())
	}

	lastErrorCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:ultimo_erro", base))
	errorCountCmd := s.client.Get(s.ctx, fmt.Sprintf("%s:erros_consecutivos", base))

	status := &models.StreamStatus{
		SourceID:  sourceID,
		Status:    statusCmd.Val(),
		Timestamp: time.Now(), // Valor padrão
	}

	if timestampCmd.Err() == nil {
		ts, err := timestampCmd.Int64()
		if err == nil {
			status.Timestamp = utils.SecondsToTime(float64(ts) / 1000)
		}
	}

	if lastErrorCmd.Err() == nil {
		status.LastError = lastErrorCmd.Val()
	}

	if errorCountCmd.Err() == nil {
		count, err := errorCountCmd.Int()
		if err == nil {
			status.ErrorCount = count
		}
	}

	return status, nil
}

// GetCurrentValue obtém o valor mais recente persistido de um canal
func (s *Service) GetCurrentValue(channelName string) (float64, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return 0, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	cmd := s.client.Get(s.ctx, fmt.Sprintf("%s:canal:%s", s.prefix, channelName))
	if cmd.Err() != nil {
		return 0, fmt.Errorf("erro ao obter valor do canal %s: %w", channelName, cmd.Err())
	}
	return cmd.Float64()
}

// GetChannelHistory obtém o histórico persistido de um canal
func (s *Service) GetChannelHistory(channelName string) ([]models.HistoryPoint, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	historyKey := fmt.Sprintf("%s:canal:%s:history", s.prefix, channelName)
	dataCmd := s.client.ZRangeWithScores(s.ctx, historyKey, 0, -1)
	if dataCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter histórico do canal: %w", dataCmd.Err())
	}

	results := dataCmd.Val()
	history := make([]models.HistoryPoint, 0, len(results))

	for _, item := range results {
		value, ok := item.Member.(string)
		if !ok {
			continue
		}

		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}

		// A pontuação do ZSET guarda o timestamp em milissegundos
		history = append(history, models.HistoryPoint{
			Value:     val,
			Timestamp: utils.SecondsToTime(item.Score / 1000),
		})
	}

	return history, nil
}

// GetMarkers obtém os marcadores persistidos de uma fonte
func (s *Service) GetMarkers(sourceID string) ([]models.Marker, error) {
	s.mutex.RLock()
	if !s.connected || !s.config.Enabled {
		s.mutex.RUnlock()
		return nil, fmt.Errorf("Redis não conectado ou desabilitado")
	}
	s.mutex.RUnlock()

	markersKey := fmt.Sprintf("%s:fonte:%s:markers", s.prefix, sourceID)
	dataCmd := s.client.ZRange(s.ctx, markersKey, 0, -1)
	if dataCmd.Err() != nil {
		return nil, fmt.Errorf("erro ao obter marcadores: %w", dataCmd.Err())
	}

	raw := dataCmd.Val()
	markers := make([]models.Marker, 0, len(raw))
	for _, item := range raw {
		var m models.Marker
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		markers = append(markers, m)
	}

	return markers, nil
}

// Shutdown encerra graciosamente o serviço Redis
func (s *Service) Shutdown() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Errorf("Erro ao fechar conexão com Redis: %v", err)
		} else {
			logger.Info("Conexão com o Redis fechada")
		}
	}

	s.connected = false
}
