package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"streamview_go/pkg/utils"
)

// Level representa o nível de log
type Level int

const (
	// DEBUG nível para mensagens detalhadas de depuração
	DEBUG Level = iota
	// INFO nível para informações gerais
	INFO
	// WARN nível para avisos
	WARN
	// ERROR nível para erros
	ERROR
	// FATAL nível para erros fatais (encerra o programa)
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO ",
	WARN:  "WARN ",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var (
	mu          sync.Mutex
	logLevel    = INFO
	includeFile = true

	stdLogger *log.Logger
	errLogger *log.Logger

	fileOut    io.WriteCloser
	fileErrOut io.WriteCloser

	initialized = false
)

// Init inicializa o logger com saída para o terminal
func Init() {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return
	}
	stdLogger = log.New(os.Stdout, "", 0)
	errLogger = log.New(os.Stderr, "", 0)
	initialized = true
}

// SetLevel define o nível mínimo de log
func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	logLevel = level
}

// GetLevel retorna o nível atual de log
func GetLevel() Level {
	mu.Lock()
	defer mu.Unlock()
	return logLevel
}

// IsDebugEnabled verifica se o nível de debug está habilitado
func IsDebugEnabled() bool {
	return GetLevel() <= DEBUG
}

// SetOutput define a saída para todos os logs
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	stdLogger = log.New(w, "", 0)
	errLogger = log.New(w, "", 0)
}

// EnableFileLogging habilita o log simultâneo para arquivo
func EnableFileLogging(logDir, prefix string) error {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("erro ao criar diretório de log: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	if prefix != "" {
		prefix = prefix + "_"
	}

	logFile, err := os.OpenFile(
		filepath.Join(logDir, fmt.Sprintf("%s%s.log", prefix, timestamp)),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("erro ao criar arquivo de log: %w", err)
	}

	errFile, err := os.OpenFile(
		filepath.Join(logDir, fmt.Sprintf("%s%s_error.log", prefix, timestamp)),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		logFile.Close()
		return fmt.Errorf("erro ao criar arquivo de log de erro: %w", err)
	}

	mu.Lock()
	// Fechar arquivos anteriores, se existirem
	if fileOut != nil {
		fileOut.Close()
	}
	if fileErrOut != nil {
		fileErrOut.Close()
	}
	fileOut = logFile
	fileErrOut = errFile

	stdLogger = log.New(io.MultiWriter(os.Stdout, logFile), "", 0)
	errLogger = log.New(io.MultiWriter(os.Stderr, errFile), "", 0)
	mu.Unlock()

	Info("Logging em arquivo iniciado")
	return nil
}

// Sync fecha os arquivos de log abertos
func Sync() {
	mu.Lock()
	defer mu.Unlock()

	if fileOut != nil {
		fileOut.Close()
		fileOut = nil
	}
	if fileErrOut != nil {
		fileErrOut.Close()
		fileErrOut = nil
	}
}

// logMessage escreve uma mensagem de log com o nível especificado
func logMessage(level Level, format string, args ...interface{}) {
	if level < GetLevel() {
		return
	}

	var source string
	if includeFile {
		if _, file, line, ok := runtime.Caller(2); ok {
			source = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	line := fmt.Sprintf("[%s] %s%s: %s",
		utils.FormatDateTimeMs(time.Now()), levelNames[level], source, msg)

	mu.Lock()
	target := stdLogger
	if level >= ERROR {
		target = errLogger
	}
	mu.Unlock()

	if target == nil {
		fmt.Fprintln(os.Stderr, line)
	} else {
		target.Print(line)
	}

	if level == FATAL {
		Sync()
		os.Exit(1)
	}
}

// Debug escreve mensagem de log com nível DEBUG
func Debug(msg string) {
	logMessage(DEBUG, "%s", msg)
}

// Debugf escreve mensagem de log formatada com nível DEBUG
func Debugf(format string, args ...interface{}) {
	logMessage(DEBUG, format, args...)
}

// Info escreve mensagem de log com nível INFO
func Info(msg string) {
	logMessage(INFO, "%s", msg)
}

// Infof escreve mensagem de log formatada com nível INFO
func Infof(format string, args ...interface{}) {
	logMessage(INFO, format, args...)
}

// Warn escreve mensagem de log com nível WARN
func Warn(msg string) {
	logMessage(WARN, "%s", msg)
}

// Warnf escreve mensagem de log formatada com nível WARN
func Warnf(format string, args ...interface{}) {
	logMessage(WARN, format, args...)
}

// Error escreve mensagem de log com nível ERROR
func Error(msg string, err error) {
	if err != nil {
		logMessage(ERROR, "%s: %v", msg, err)
	} else {
		logMessage(ERROR, "%s", msg)
	}
}

// Errorf escreve mensagem de log formatada com nível ERROR
func Errorf(format string, args ...interface{}) {
	logMessage(ERROR, format, args...)
}

// Fatal escreve mensagem de log com nível FATAL e encerra o programa
func Fatal(msg string, err error) {
	if err != nil {
		logMessage(FATAL, "%s: %v", msg, err)
	} else {
		logMessage(FATAL, "%s", msg)
	}
}

// Fatalf escreve mensagem de log formatada com nível FATAL e encerra o programa
func Fatalf(format string, args ...interface{}) {
	logMessage(FATAL, format, args...)
}
