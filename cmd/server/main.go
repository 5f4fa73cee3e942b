package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"streamview_go/internal/config"
	"streamview_go/internal/server"
	"streamview_go/pkg/logger"
)

func main() {
	// Configurar diretório de logs
	logDir := filepath.Join(".", "logs")
	os.MkdirAll(logDir, 0755)

	// Inicializar logger
	logger.Init()
	logger.SetLevel(logger.INFO)
	logger.EnableFileLogging(logDir, "streamview")
	defer logger.Sync()

	// Exibir banner de inicialização
	displayBanner()

	logger.Info("Iniciando StreamView Monitor")

	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Erro ao carregar configurações", err)
	}

	// Intervalo de coleta muito longo degrada a exibição
	if cfg.Viewer.UpdateInterval > 200*time.Millisecond {
		logger.Warn("Intervalo de atualização muito longo. Definindo para 200ms")
		cfg.Viewer.UpdateInterval = 200 * time.Millisecond
	}

	logger.Infof("Configuração carregada: modo %s, janela %.1fs, Redis em %s:%d",
		cfg.Viewer.Mode, cfg.Viewer.Duration, cfg.Redis.Host, cfg.Redis.Port)
	logger.Infof("Intervalo de atualização: %v", cfg.Viewer.UpdateInterval)

	// Criar e iniciar o servidor
	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Fatal("Erro ao criar servidor", err)
	}

	// Iniciar o servidor em uma goroutine separada
	go func() {
		logger.Infof("Servidor iniciado na porta %d", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			logger.Fatal("Erro ao iniciar o servidor", err)
		}
	}()

	// Configurar captura de sinais para shutdown gracioso
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Desligando servidor...")

	// Criar contexto com timeout para o shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Desligar o servidor
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Erro durante o shutdown do servidor", err)
	}

	logger.Info("Servidor encerrado com sucesso")
}

// displayBanner exibe um banner de inicialização
func displayBanner() {
	banner := `
 _______ _______  ______ _______ _______ _______ _    _ _____ _______ _  _  _
 |______    |    |_____/ |______ |_____| |  |  |  \  /    |   |______ |  |  |
 ______|    |    |    \_ |______ |     | |  |  |   \/   __|__ |______ |__|__|

 _______  _____  __   _ _____ _______  _____   ______
 |  |  | |     | | \  |   |      |    |     | |_____/
 |  |  | |_____| |  \_| __|__    |    |_____| |    \_  v1.0
 `
	fmt.Println(banner)
	fmt.Printf("Iniciando em %s\n\n", time.Now().Format("2006-01-02 15:04:05"))
}
