package buffer

import (
	"fmt"
	"math"

	"streamview_go/internal/models"
)

// TimeSeriesBuffer guarda os dados de um gráfico de série temporal inteiro de
// uma vez: uma matriz (canais, amostras) com capacidade fixa igual à taxa
// efetiva vezes a duração plotada, mais um vetor de tempo que mapeia índice de
// buffer para instante de relógio. NaN é a sentinela de "sem amostra ainda".
//
// Em ModeScroll as amostras antigas são deslocadas para fora pela esquerda.
// Em ModeSweep o cursor de escrita avança e dá a volta; o vetor de tempo
// cobre exatamente uma varredura ancorada em baldes de parede de tamanho
// igual à duração, para que buffers de fontes diferentes fiquem visualmente
// sincronizados.
//
// O buffer não é seguro para uso concorrente: cada instância pertence
// exclusivamente à goroutine do coordenador que a atualiza.
type TimeSeriesBuffer struct {
	mode          Mode
	rate          float64 // taxa nominal em Hz; 0 = fonte irregular
	duration      float64 // duração plotada em segundos
	indicateWrite bool
	ignoreOld     bool

	capacity int
	data     [][]float64
	tvec     []float64
	writeIdx int

	markers  []string
	markerTs []float64
}

// New cria um buffer de alinhamento. A taxa nominal 0 indica fonte irregular
// (a linha do tempo será sintetizada em IrregRateOverride Hz). Duração não
// positiva ou taxa negativa são erros de configuração fatais para o buffer.
func New(mode Mode, rate float64, duration float64, indicateWrite bool) (*TimeSeriesBuffer, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duração deve ser positiva (recebido %g)", ErrConfiguracao, duration)
	}
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: taxa nominal inválida (recebido %g)", ErrConfiguracao, rate)
	}
	return &TimeSeriesBuffer{
		mode:          mode,
		rate:          rate,
		duration:      duration,
		indicateWrite: indicateWrite,
		ignoreOld:     true,
	}, nil
}

// effRate retorna a taxa efetiva usada para dimensionar o buffer
func (b *TimeSeriesBuffer) effRate() float64 {
	if b.rate == 0 {
		return IrregRateOverride
	}
	return b.rate
}

// Capacity retorna o número de amostras por canal
func (b *TimeSeriesBuffer) Capacity() int { return b.capacity }

// WriteIndex retorna a posição atual do cursor de escrita (modo Sweep)
func (b *TimeSeriesBuffer) WriteIndex() int { return b.writeIdx }

// Mode retorna a disciplina de escrita do buffer
func (b *TimeSeriesBuffer) Mode() Mode { return b.mode }

// Rate retorna a taxa nominal configurada
func (b *TimeSeriesBuffer) Rate() float64 { return b.rate }

// Duration retorna a duração plotada em segundos
func (b *TimeSeriesBuffer) Duration() float64 { return b.duration }

// SetIgnoreOld controla o descarte de amostras mais antigas que a última
// escrita (proteção contra timestamps não monotônicos). Padrão: habilitado.
func (b *TimeSeriesBuffer) SetIgnoreOld(v bool) { b.ignoreOld = v }

// Reset realoca o buffer para nChans canais, preenchido com NaN. O vetor de
// tempo fica vazio até a primeira atualização definir a âncora.
func (b *TimeSeriesBuffer) Reset(nChans int) {
	b.alloc(nChans)
	b.tvec = nil
	b.writeIdx = 0
}

// ResetAnchored realoca o buffer e reconstrói o vetor de tempo ancorado no
// timestamp t0.
func (b *TimeSeriesBuffer) ResetAnchored(nChans int, t0 float64) {
	b.alloc(nChans)
	b.resetTvec(t0)
}

func (b *TimeSeriesBuffer) alloc(nChans int) {
	b.capacity = int(math.Ceil(b.effRate() * b.duration))
	b.data = make([][]float64, nChans)
	for c := range b.data {
		row := make([]float64, b.capacity)
		for i := range row {
			row[i] = math.NaN()
		}
		b.data[c] = row
	}
}

// resetTvec reconstrói o vetor de tempo a partir da âncora t0 e recalcula o
// cursor de escrita de forma derivável do relógio: o maior índice cujo valor
// em tvec é <= t0 (empates resolvem para o slot anterior), módulo capacidade.
func (b *TimeSeriesBuffer) resetTvec(t0 float64) {
	n := b.capacity
	b.tvec = make([]float64, n)
	if n == 0 {
		b.writeIdx = 0
		return
	}
	srate := b.effRate()
	tNow := t0
	if b.mode == ModeSweep {
		// A varredura é ancorada ao início do balde de parede de tamanho
		// `duration` que contém t0, não a um início arbitrário. Assim,
		// redimensionar ou reiniciar o buffer não introduz salto de fase
		// em relação aos demais buffers exibidos.
		t0 -= math.Mod(t0, b.duration)
		for i := 0; i < n; i++ {
			b.tvec[i] = t0 + float64(i)/srate
		}
	} else {
		// Scroll: o vetor sempre termina em t0, o instante mais
		// recentemente plotado.
		for i := 0; i < n; i++ {
			b.tvec[i] = t0 - float64(n-1-i)/srate
		}
	}
	idx := searchRight(b.tvec, tNow) - 1
	if idx < 0 {
		// Âncora anterior ao início do balde (primeiro timestamp dentro de
		// um período da borda): começar na primeira posição.
		idx = 0
	}
	b.writeIdx = idx
}

// Contents retorna o retrato do buffer para o renderizador: dados, vetor de
// tempo, marcadores e seus timestamps. O chamador não deve mutar as fatias.
func (b *TimeSeriesBuffer) Contents() (data [][]float64, tvec []float64, markers []string, markerTs []float64) {
	return b.data, b.tvec, b.markers, b.markerTs
}

// Update incorpora um bloco de amostras no buffer. Os estados de canal devem
// corresponder aos canais da fonte (linhas de chunk.Data); canais ocultos são
// descartados. Condições recuperáveis (timestamps velhos, estouro de
// capacidade) são tratadas internamente; apenas erros de dimensão propagam.
func (b *TimeSeriesBuffer) Update(chunk models.SampleChunk, states []models.ChannelState) error {
	if chunk.Empty() {
		return nil
	}
	if err := b.validate(chunk, states); err != nil {
		return err
	}

	srate := b.effRate()
	data, nVis := visibleRows(chunk.Data, states)
	if len(b.data) != nVis {
		return fmt.Errorf("%w: buffer tem %d canais, estados visíveis somam %d",
			ErrDimensoes, len(b.data), nVis)
	}
	if b.capacity == 0 {
		return nil
	}

	data, timestamps, labels := sortChunk(data, chunk.Timestamps, chunk.Labels)

	// Primeira amostra vista: ancorar o vetor de tempo exatamente um
	// período antes do primeiro timestamp recebido.
	if len(b.tvec) == 0 {
		b.resetTvec(timestamps[0] - 1/srate)
	}

	var lastWrite float64
	if b.mode == ModeSweep {
		lastWrite = b.tvec[b.writeIdx] - 1/srate
	} else {
		lastWrite = b.tvec[len(b.tvec)-1]
	}

	// Descartar amostras anteriores à última já escrita. Acontece com
	// fontes de timestamps não monotônicos entre entregas.
	if b.ignoreOld {
		data, timestamps, labels = dropOld(data, timestamps, labels, lastWrite)
		if len(timestamps) == 0 {
			return nil
		}
	}

	var newMarkers []string
	var newMarkerTs []float64

	// Fonte irregular: sintetizar uma série densa na taxa de substituição
	// para que eventos esparsos rendam um traço contínuo.
	if b.rate == 0 {
		data, timestamps, newMarkers, newMarkerTs = b.synthesize(data, timestamps, labels, lastWrite)
	}

	// Estouro: chegou mais de um buffer inteiro de dados (ex.: retomada
	// após travamento). Perder o mais antigo e recomeçar na janela final.
	if len(timestamps) > b.capacity {
		keep := len(timestamps) - b.capacity
		for c := range data {
			data[c] = data[c][keep:]
		}
		timestamps = timestamps[keep:]
		b.ResetAnchored(nVis, timestamps[0])
	}

	if b.mode != ModeSweep {
		b.writeScroll(data, timestamps)
	} else {
		b.writeSweep(data, timestamps, srate)
		b.blankWriteCursor()
		b.pruneMarkers(newMarkers, newMarkerTs)
	}
	return nil
}

func (b *TimeSeriesBuffer) validate(chunk models.SampleChunk, states []models.ChannelState) error {
	n := len(chunk.Timestamps)
	if chunk.Data == nil && chunk.Labels == nil {
		return fmt.Errorf("%w: bloco sem dados nem etiquetas", ErrDimensoes)
	}
	if chunk.Labels != nil && len(chunk.Labels) != n {
		return fmt.Errorf("%w: %d etiquetas para %d timestamps", ErrDimensoes, len(chunk.Labels), n)
	}
	if chunk.Data != nil {
		if len(chunk.Data) != len(states) {
			return fmt.Errorf("%w: %d linhas de dados para %d estados de canal",
				ErrDimensoes, len(chunk.Data), len(states))
		}
		for c, row := range chunk.Data {
			if len(row) != n {
				return fmt.Errorf("%w: canal %d tem %d amostras para %d timestamps",
					ErrDimensoes, c, len(row), n)
			}
		}
	}
	return nil
}

// dropOld filtra amostras com timestamp <= limit
func dropOld(data [][]float64, timestamps []float64, labels []string, limit float64) ([][]float64, []float64, []string) {
	first := searchRight(timestamps, limit)
	if first == 0 {
		return data, timestamps, labels
	}
	for c := range data {
		data[c] = data[c][first:]
	}
	if labels != nil {
		labels = labels[first:]
	}
	return data, timestamps[first:], labels
}

// synthesize converte um bloco irregular em uma série densa na taxa de
// substituição, de lastWrite até o último timestamp recebido. Cargas
// numéricas recebem retenção de ordem zero (o valor anterior é repetido até
// chegar um novo); cargas textuais marcam presença com 1.0 no slot coberto e
// retornam os pares (etiqueta, timestamp) originais como marcadores.
func (b *TimeSeriesBuffer) synthesize(data [][]float64, timestamps []float64, labels []string,
	lastWrite float64) ([][]float64, []float64, []string, []float64) {

	srate := IrregRateOverride
	last := timestamps[len(timestamps)-1]
	nFill := int(math.Ceil((last - lastWrite) * srate))
	if nFill < 1 {
		nFill = 1
	}
	if nFill > b.capacity {
		// Mais preenchimento do que o buffer comporta; recuar a base e
		// descartar eventos fora da janela, como na recuperação de estouro.
		lastWrite = last - float64(b.capacity)/srate
		nFill = b.capacity
		data, timestamps, labels = dropOld(data, timestamps, labels, lastWrite)
	}

	fillTvec := make([]float64, nFill)
	for i := range fillTvec {
		fillTvec[i] = lastWrite + float64(i+1)/srate
	}
	idx := make([]int, len(timestamps))
	for j, t := range timestamps {
		k := searchLeft(fillTvec, t)
		if k >= nFill {
			k = nFill - 1
		}
		idx[j] = k
	}

	nChans := len(b.data)
	fillData := make([][]float64, nChans)
	for c := range fillData {
		fillData[c] = make([]float64, nFill)
	}

	if labels == nil {
		for c := range fillData {
			for j := range idx {
				fillData[c][idx[j]] = data[c][j]
			}
		}
		// Retenção de ordem zero: cada slot herda o último valor escrito.
		prev := make([]int, nFill)
		for _, k := range idx {
			prev[k] = k
		}
		if len(idx) > 0 && idx[0] > 0 {
			// Semear o início do preenchimento com o último valor já
			// presente no buffer. Em Sweep o cursor aponta para o próximo
			// slot; em Scroll o valor mais recente vive na cauda.
			seed := b.capacity - 1
			if b.mode == ModeSweep {
				seed = b.writeIdx - 1
			}
			if seed < 0 {
				seed = 0
			}
			for c := range fillData {
				fillData[c][0] = b.data[c][seed]
			}
		}
		running := 0
		for i := range prev {
			if prev[i] > running {
				running = prev[i]
			}
			prev[i] = running
		}
		for c := range fillData {
			row := fillData[c]
			for i := range row {
				row[i] = row[prev[i]]
			}
		}
		return fillData, fillTvec, nil, nil
	}

	// Carga textual: sentinela de presença mais a lista de marcadores.
	for c := range fillData {
		for j := range idx {
			fillData[c][idx[j]] = 1.0
		}
	}
	markers := make([]string, len(labels))
	copy(markers, labels)
	markerTs := make([]float64, len(timestamps))
	copy(markerTs, timestamps)
	return fillData, fillTvec, markers, markerTs
}

// writeScroll desloca o conteúdo n amostras para a esquerda e escreve os
// novos dados na cauda. O(capacidade) por atualização; sem alinhamento entre
// fontes além da duração compartilhada.
func (b *TimeSeriesBuffer) writeScroll(data [][]float64, timestamps []float64) {
	n := len(timestamps)
	for c := range b.data {
		row := b.data[c]
		copy(row[:b.capacity-n], row[n:])
		copy(row[b.capacity-n:], data[c])
	}
	copy(b.tvec[:b.capacity-n], b.tvec[n:])
	copy(b.tvec[b.capacity-n:], timestamps)
}

// writeSweep particiona as amostras entre a varredura corrente e as que já
// pertencem à próxima. Amostras da próxima varredura reancoram o vetor de
// tempo na fase do seu próprio timestamp antes de serem escritas.
func (b *TimeSeriesBuffer) writeSweep(data [][]float64, timestamps []float64, srate float64) {
	limit := b.tvec[b.capacity-1] + 1/srate
	nCur := searchRight(timestamps, limit)

	if nCur > 0 {
		cur := make([][]float64, len(data))
		for c := range data {
			cur[c] = data[c][:nCur]
		}
		b.insertSweep(cur, timestamps[:nCur])
	}
	if nCur < len(timestamps) {
		wrapped := make([][]float64, len(data))
		for c := range data {
			wrapped[c] = data[c][nCur:]
		}
		wrappedTs := timestamps[nCur:]
		b.resetTvec(wrappedTs[0])
		b.insertSweep(wrapped, wrappedTs)
	}
}

// insertSweep escreve amostras da varredura corrente no slot esperado mais
// próximo anterior ao seu timestamp, preenche slots pulados (jitter entre a
// taxa nominal e a efetiva) com o valor precedente e interpola linearmente a
// primeira lacuna entre o cursor anterior e a primeira escrita desta rodada.
func (b *TimeSeriesBuffer) insertSweep(data [][]float64, timestamps []float64) {
	n := len(timestamps)
	if n == 0 {
		return
	}
	writeInds := make([]int, n)
	written := make(map[int]bool, n)
	for j, t := range timestamps {
		wi := searchRight(b.tvec, t) - 1
		if wi < 0 {
			wi = 0
		}
		writeInds[j] = wi
		written[wi] = true
		for c := range b.data {
			b.data[c][wi] = data[c][j]
		}
	}

	// Slots esperados dentro do intervalo escrito que não receberam amostra
	// exata: copiar o valor da amostra recebida mais próxima.
	first, last := writeInds[0], writeInds[n-1]
	for s := first; s <= last; s++ {
		if written[s] {
			continue
		}
		ri := searchLeft(timestamps, b.tvec[s])
		if ri >= n {
			ri = n - 1
		}
		for c := range b.data {
			b.data[c][s] = data[c][ri]
		}
	}

	// Lacuna entre o cursor anterior e a primeira escrita desta rodada:
	// interpolação linear entre o último valor confirmado e o primeiro
	// valor escrito. Apenas a primeira lacuna detectada é preenchida.
	if b.writeIdx < first {
		nInterp := first - b.writeIdx
		prevIdx := b.writeIdx - 1
		if prevIdx < 0 {
			prevIdx += b.capacity
		}
		for c := range b.data {
			bef := b.data[c][prevIdx]
			aft := b.data[c][first]
			for k := 0; k < nInterp; k++ {
				frac := float64(k+1) / float64(nInterp+1)
				b.data[c][b.writeIdx+k] = bef + (aft-bef)*frac
			}
		}
	}

	newWriteIdx := last + 1
	if b.rate != 0 && newWriteIdx >= b.capacity {
		b.resetTvec(b.tvec[b.capacity-1] + 1/b.rate)
	} else {
		b.writeIdx = newWriteIdx % b.capacity
	}
}

// blankWriteCursor apaga (NaN) uma pequena região à frente do cursor para que
// a camada de desenho possa marcar a borda de avanço da varredura.
func (b *TimeSeriesBuffer) blankWriteCursor() {
	if !b.indicateWrite {
		return
	}
	nAhead := 1
	if b.capacity <= 2 {
		return
	}
	if b.rate > 0 && b.capacity/100 > 1 {
		nAhead = b.capacity / 100
	}
	for k := 0; k < nAhead; k++ {
		lead := (b.writeIdx + k) % b.capacity
		for c := range b.data {
			b.data[c][lead] = math.NaN()
		}
	}
}

// pruneMarkers descarta marcadores mais velhos que a duração plotada em
// relação ao marcador ativo mais antigo desta atualização, e anexa os novos.
func (b *TimeSeriesBuffer) pruneMarkers(newMarkers []string, newMarkerTs []float64) {
	if len(newMarkerTs) == 0 {
		return
	}
	oldest := newMarkerTs[0]
	keptM := b.markers[:0]
	keptT := b.markerTs[:0]
	for i, ts := range b.markerTs {
		if oldest-ts <= b.duration {
			keptM = append(keptM, b.markers[i])
			keptT = append(keptT, ts)
		}
	}
	b.markers = append(keptM, newMarkers...)
	b.markerTs = append(keptT, newMarkerTs...)
}
