package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"streamview_go/internal/config"
	"streamview_go/internal/discovery"
	"streamview_go/internal/models"
	"streamview_go/internal/redis"
	"streamview_go/internal/renderer"
	"streamview_go/internal/source"
	"streamview_go/internal/websocket"
	"streamview_go/pkg/logger"
)

// Server encapsula o servidor HTTP com todos os componentes
type Server struct {
	config           *config.Config
	httpServer       *http.Server
	router           *http.ServeMux
	handler          http.Handler
	coordinator      *renderer.Coordinator
	redisService     *redis.Service
	wsHub            *websocket.Hub
	discoveryService *discovery.DiscoveryService
	serverInfo       ServerInfo
}

// ServerInfo contém informações sobre o servidor
type ServerInfo struct {
	IP           string
	Port         int
	StartTime    time.Time
	Connections  int
	Version      string
	WebSocketURL string
	APIURL       string
}

// NewServer cria uma nova instância do servidor
func NewServer(cfg *config.Config) (*Server, error) {
	// Criar instância do servidor
	server := &Server{
		config: cfg,
		router: http.NewServeMux(),
		serverInfo: ServerInfo{
			StartTime: time.Now(),
			Version:   "1.0.0",
			Port:      cfg.Server.Port,
		},
	}

	// Determinar IP do servidor
	ip, err := server.getLocalIP()
	if err != nil {
		return nil, fmt.Errorf("erro ao obter IP local: %w", err)
	}
	server.serverInfo.IP = ip

	// Configurar URLs
	server.serverInfo.WebSocketURL = fmt.Sprintf("ws://%s:%d/ws", ip, cfg.Server.Port)
	server.serverInfo.APIURL = fmt.Sprintf("http://%s:%d/api", ip, cfg.Server.Port)

	// Inicializar componentes
	if err := server.initComponents(); err != nil {
		return nil, err
	}

	// Configurar rotas
	server.setupRoutes()

	// Configurar servidor HTTP
	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return server, nil
}

// initComponents inicializa todos os componentes do servidor
func (s *Server) initComponents() error {
	// Inicializar hub WebSocket
	s.wsHub = websocket.NewHub()
	go s.wsHub.Run()

	// Inicializar serviço Redis
	redisService, err := redis.NewService(s.config.Redis)
	if err != nil {
		return fmt.Errorf("erro ao inicializar serviço Redis: %w", err)
	}
	s.redisService = redisService

	// Criar o display configurado, publicando no hub
	display, err := renderer.NewDisplay(s.config.Viewer.Display, s.wsHub)
	if err != nil {
		return fmt.Errorf("erro ao criar display: %w", err)
	}

	// Inicializar o coordenador de exibição
	coordinator, err := renderer.NewCoordinator(s.config.Viewer, display)
	if err != nil {
		return fmt.Errorf("erro ao inicializar coordenador: %w", err)
	}
	s.coordinator = coordinator

	// Ligações coordenador -> hub/redis
	s.coordinator.RegisterSnapshotHandler(func(snap models.Snapshot) {
		go func() {
			if err := s.redisService.WriteSnapshot(snap, s.coordinator.ChannelStates()); err != nil {
				logger.Debugf("Persistência de instantâneo: %v", err)
			}
		}()
	})
	s.coordinator.RegisterStatusHandler(func(st models.StreamStatus) {
		s.wsHub.BroadcastStatus(st)
		go func() {
			if err := s.redisService.WriteStatus(st); err != nil {
				logger.Debugf("Persistência de status: %v", err)
			}
		}()
	})
	s.coordinator.RegisterFrameHandler(func(frame models.Frame) {
		if len(frame.Markers) == 0 {
			return
		}
		markers := make([]models.Marker, len(frame.Markers))
		for i, label := range frame.Markers {
			markers[i] = models.Marker{Label: label, Timestamp: frame.MarkerTimestamps[i]}
		}
		s.wsHub.BroadcastMarkers(frame.SourceID, markers)
		go func() {
			if err := s.redisService.WriteMarkers(frame.SourceID, markers); err != nil {
				logger.Debugf("Persistência de marcadores: %v", err)
			}
		}()
	})

	// Comandos vindos dos clientes WebSocket
	s.wsHub.SetCommandHandler(s.handleClientCommand)

	// Registrar fontes configuradas
	if err := s.registerSources(); err != nil {
		return err
	}

	// Inicializar serviço de descoberta
	s.discoveryService = discovery.NewDiscoveryService(s.config.Server.Port)

	return nil
}

// registerSources cria as fontes habilitadas na configuração
func (s *Server) registerSources() error {
	if s.config.Sim.Enabled {
		sig, err := source.NewSignalSource(source.SignalConfig{
			ID:         "sim-sinais",
			SampleRate: s.config.Sim.SampleRate,
			Channels:   s.config.Sim.Channels,
			Frequency:  s.config.Sim.Frequency,
			Amplitude:  s.config.Sim.Amplitude,
			Noise:      s.config.Sim.Noise,
		})
		if err != nil {
			return fmt.Errorf("erro ao criar fonte simulada: %w", err)
		}
		if err := s.coordinator.AddSource(sig); err != nil {
			return err
		}

		if s.config.Sim.MarkerInterval > 0 {
			mk, err := source.NewMarkerSource(source.MarkerConfig{
				ID:       "sim-eventos",
				Channel:  "eventos",
				Interval: s.config.Sim.MarkerInterval,
				Labels:   s.config.Sim.MarkerLabels,
			})
			if err != nil {
				return fmt.Errorf("erro ao criar fonte de eventos: %w", err)
			}
			if err := s.coordinator.AddSource(mk); err != nil {
				return err
			}
		}
	}

	if s.config.PLC.Enabled {
		plc, err := source.NewPLCSource(s.config.PLC)
		if err != nil {
			return fmt.Errorf("erro ao criar fonte PLC: %w", err)
		}
		if err := s.coordinator.AddSource(plc); err != nil {
			return err
		}
	}

	return nil
}

// handleClientCommand aplica comandos de controle vindos do WebSocket
func (s *Server) handleClientCommand(cmd models.ClientCommand) {
	switch cmd.Command {
	case "freeze":
		s.coordinator.Freeze()
	case "unfreeze":
		s.coordinator.Unfreeze()
	case "set_visible":
		params, ok := cmd.Params.(map[string]interface{})
		if !ok {
			logger.Warnf("Comando set_visible sem parâmetros do cliente %s", cmd.ClientID)
			return
		}
		name, _ := params["name"].(string)
		visible, _ := params["visible"].(bool)
		if name == "" {
			logger.Warnf("Comando set_visible sem nome de canal do cliente %s", cmd.ClientID)
			return
		}
		if !s.coordinator.SetChannelVisible(name, visible) {
			logger.Warnf("Comando set_visible para canal desconhecido: %s", name)
		}
	default:
		logger.Warnf("Comando desconhecido: %s", cmd.Command)
	}
}

// Start inicia o servidor e todos os serviços
func (s *Server) Start() error {
	// Iniciar serviço de descoberta
	if err := s.discoveryService.Start(); err != nil {
		logger.Warnf("Erro ao iniciar serviço de descoberta: %v", err)
		// Não abortar operação se falhar
	}

	// Iniciar o ciclo de coleta e exibição
	if err := s.coordinator.Start(); err != nil {
		return fmt.Errorf("erro ao iniciar coordenador: %w", err)
	}

	// Mostrar informações do servidor
	s.logServerInfo()

	// Iniciar servidor HTTP
	logger.Infof("Iniciando servidor HTTP na porta %d", s.config.Server.Port)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("erro ao iniciar servidor HTTP: %w", err)
	}

	return nil
}

// Shutdown encerra graciosamente o servidor e todos os serviços
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Iniciando shutdown do servidor")

	// Encerrar o servidor HTTP
	if err := s.httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("Erro ao encerrar servidor HTTP: %v", err)
	}

	// Encerrar serviço de descoberta
	if s.discoveryService != nil {
		s.discoveryService.Stop()
	}

	// Encerrar o ciclo de exibição e as fontes
	if s.coordinator != nil {
		s.coordinator.Stop()
	}

	if s.wsHub != nil {
		s.wsHub.Shutdown()
	}

	if s.redisService != nil {
		s.redisService.Shutdown()
	}

	logger.Info("Shutdown completo")
	return nil
}

// getLocalIP obtém o endereço IP local
func (s *Server) getLocalIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}

	for _, addr := range addrs {
		// Verificar se é um endereço IP
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}

	return "localhost", nil
}

// GetServerInfo retorna informações sobre o servidor
func (s *Server) GetServerInfo() ServerInfo {
	info := s.serverInfo
	info.Connections = s.wsHub.ClientCount()
	return info
}

// logServerInfo exibe informações do servidor no log
func (s *Server) logServerInfo() {
	logger.Info("===============================================")
	logger.Info("            StreamView Monitor Server          ")
	logger.Info("===============================================")
	logger.Infof("Versão: %s", s.serverInfo.Version)
	logger.Infof("Endereço IP: %s", s.serverInfo.IP)
	logger.Infof("Porta HTTP: %d", s.serverInfo.Port)
	logger.Infof("WebSocket URL: %s", s.serverInfo.WebSocketURL)
	logger.Infof("API URL: %s", s.serverInfo.APIURL)
	logger.Infof("mDNS: %s.%s.%s",
		s.discoveryService.GetInstanceName(),
		discovery.ServiceType,
		discovery.ServiceDomain)
	logger.Info("===============================================")
	logger.Info("Servidor pronto para conexões!")
}
