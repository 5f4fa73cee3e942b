package config

import "time"

// getDefaultConfig retorna uma configuração padrão
func getDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Viewer: ViewerConfig{
			Duration:       10.0,
			Mode:           "scroll",
			UpdateInterval: 50 * time.Millisecond,
			HighpassCutoff: 0,
			AutoScale:      "none",
			Display:        "line",
			IndicateWrite:  true,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     6379,
			Password: "",
			DB:       0,
			Prefix:   "streamview",
			Enabled:  true,
		},
		PLC: PLCConfig{
			Enabled:      false,
			Host:         "192.168.1.100",
			Rack:         0,
			Slot:         1,
			DBNumber:     1,
			StartOffset:  0,
			ChannelCount: 4,
			SampleRate:   2.0,
			ReadTimeout:  5 * time.Second,
			MaxErrors:    5,
		},
		Sim: SimConfig{
			Enabled:        true,
			SampleRate:     250.0,
			Channels:       []string{"seno_0", "seno_1", "seno_2"},
			Frequency:      1.5,
			Amplitude:      1.0,
			Noise:          0.05,
			MarkerInterval: 5.0,
			MarkerLabels:   []string{"inicio", "ciclo", "fim"},
		},
	}
}
