package source

import "streamview_go/internal/models"

// StateHandler é chamada quando os descritores de canal de uma fonte mudam
type StateHandler func(src Source)

// Source é a abstração de uma fonte de telemetria. Todas as operações de
// leitura são não bloqueantes: Fetch retorna o que estiver imediatamente
// disponível, possivelmente nada. Uma fonte travada simplesmente rende zero
// amostras por ciclo.
type Source interface {
	// ID retorna o identificador estável da fonte
	ID() string

	// Fetch retorna as amostras acumuladas desde a última chamada.
	// Um erro indica desconexão dura; o chamador deve parar de buscar.
	Fetch() (models.SampleChunk, error)

	// Flush descarta o que estiver enfileirado e retorna o número de
	// amostras descartadas. Usado no modo monitor para não acumular
	// backlog no remoto.
	Flush() int

	// Stats retorna taxa nominal e descritores de canal atuais
	Stats() models.SourceStats

	// RegisterStateHandler registra uma função para ser notificada quando
	// os descritores mudarem (fonte resolvida, canais alterados).
	RegisterStateHandler(handler StateHandler)

	// Close libera os recursos da fonte
	Close() error
}
