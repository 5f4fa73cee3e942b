package utils

import (
	"fmt"
	"time"
)

// NowSeconds retorna o relógio local em segundos, a unidade usada pelos
// timestamps de amostra em todo o sistema.
func NowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// TimeToSeconds converte um time.Time para segundos
func TimeToSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// SecondsToTime converte segundos para time.Time
func SecondsToTime(s float64) time.Time {
	return time.Unix(0, int64(s*1e9))
}

// FormatDuration formata uma duração para exibição amigável
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour

	m := d / time.Minute
	d -= m * time.Minute

	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	} else if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatDateTimeMs formata um time.Time para exibição com milissegundos
func FormatDateTimeMs(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000")
}
