package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config representa a configuração completa da aplicação
type Config struct {
	Server ServerConfig `json:"server"`
	Viewer ViewerConfig `json:"viewer"`
	Redis  RedisConfig  `json:"redis"`
	PLC    PLCConfig    `json:"plc"`
	Sim    SimConfig    `json:"sim"`
}

// ServerConfig contém configurações do servidor HTTP/WebSocket
type ServerConfig struct {
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"readTimeout"`
	WriteTimeout    time.Duration `json:"writeTimeout"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout"`
}

// ViewerConfig contém configurações da visualização de fluxos
type ViewerConfig struct {
	Duration       float64       `json:"duration"`       // janela visível em segundos
	Mode           string        `json:"mode"`           // "scroll" ou "sweep"
	UpdateInterval time.Duration `json:"updateInterval"` // período do ciclo de coleta
	HighpassCutoff float64       `json:"highpassCutoff"` // Hz; 0 desliga o filtro
	AutoScale      string        `json:"autoScale"`      // "none", "by-channel" ou "by-stream"
	Display        string        `json:"display"`        // nome do display registrado
	IndicateWrite  bool          `json:"indicateWrite"`  // apaga amostras à frente do cursor
}

// RedisConfig contém configurações do Redis
type RedisConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
	Enabled  bool   `json:"enabled"`
}

// PLCConfig contém configurações para comunicação com o PLC S71500
type PLCConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Rack         int           `json:"rack"`
	Slot         int           `json:"slot"`
	DBNumber     int           `json:"dbNumber"`
	StartOffset  int           `json:"startOffset"`
	ChannelCount int           `json:"channelCount"`
	SampleRate   float64       `json:"sampleRate"` // amostras por segundo
	ReadTimeout  time.Duration `json:"readTimeout"`
	MaxErrors    int           `json:"maxErrors"`
}

// SimConfig contém configurações das fontes simuladas
type SimConfig struct {
	Enabled        bool     `json:"enabled"`
	SampleRate     float64  `json:"sampleRate"`
	Channels       []string `json:"channels"`
	Frequency      float64  `json:"frequency"`
	Amplitude      float64  `json:"amplitude"`
	Noise          float64  `json:"noise"`
	MarkerInterval float64  `json:"markerInterval"` // segundos; 0 desliga os eventos
	MarkerLabels   []string `json:"markerLabels"`
}

// Load carrega a configuração do arquivo ou usa valores padrão
func Load() (*Config, error) {
	// Carregar .env se existir, antes de ler as variáveis
	_ = godotenv.Load()

	config := getDefaultConfig()

	// Verificar se existe um arquivo de configuração
	if _, err := os.Stat("config.json"); err == nil {
		file, err := os.Open("config.json")
		if err != nil {
			return nil, err
		}
		defer file.Close()

		decoder := json.NewDecoder(file)
		if err := decoder.Decode(&config); err != nil {
			return nil, err
		}
	}

	// Sobrescrever com variáveis de ambiente, se existirem
	applyEnvironmentOverrides(&config)

	return &config, nil
}

// applyEnvironmentOverrides sobrescreve configurações com variáveis de ambiente
func applyEnvironmentOverrides(config *Config) {
	if v, ok := envInt("SERVER_PORT"); ok {
		config.Server.Port = v
	}
	if v, ok := envString("VIEWER_MODE"); ok {
		config.Viewer.Mode = v
	}
	if v, ok := envFloat("VIEWER_DURATION"); ok {
		config.Viewer.Duration = v
	}
	if v, ok := envString("VIEWER_DISPLAY"); ok {
		config.Viewer.Display = v
	}
	if v, ok := envString("VIEWER_AUTOSCALE"); ok {
		config.Viewer.AutoScale = v
	}
	if v, ok := envString("REDIS_HOST"); ok {
		config.Redis.Host = v
	}
	if v, ok := envInt("REDIS_PORT"); ok {
		config.Redis.Port = v
	}
	if v, ok := envString("REDIS_PASSWORD"); ok {
		config.Redis.Password = v
	}
	if v, ok := envBool("REDIS_ENABLED"); ok {
		config.Redis.Enabled = v
	}
	if v, ok := envString("PLC_HOST"); ok {
		config.PLC.Host = v
	}
	if v, ok := envBool("PLC_ENABLED"); ok {
		config.PLC.Enabled = v
	}
	if v, ok := envBool("SIM_ENABLED"); ok {
		config.Sim.Enabled = v
	}
}

func envString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}
