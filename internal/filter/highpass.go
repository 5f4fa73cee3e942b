package filter

import (
	"fmt"
	"math"
)

// Ordem padrão do filtro passa-alta aplicado a montante dos buffers
const DefaultOrder = 8

// biquad é uma seção de segunda ordem em forma direta II transposta
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// HighPass é um passa-alta IIR Butterworth de ordem par, implementado como
// cascata de biquads com estado por canal. O estado persiste entre blocos
// para que o filtro seja contínuo sobre o fluxo; deve ser reiniciado quando a
// taxa de amostragem muda.
type HighPass struct {
	sections []biquad
	// estado [canal][seção][2]
	z [][][2]float64
}

// NewHighPass cria um filtro para nChans canais. cutoffHz deve ser positivo e
// menor que a metade da taxa de amostragem; order deve ser par.
func NewHighPass(order int, cutoffHz, sampleRate float64, nChans int) (*HighPass, error) {
	if order < 2 || order%2 != 0 {
		return nil, fmt.Errorf("ordem do filtro deve ser par e >= 2 (recebido %d)", order)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("taxa de amostragem inválida para o filtro: %g", sampleRate)
	}
	if cutoffHz <= 0 || cutoffHz >= sampleRate/2 {
		return nil, fmt.Errorf("frequência de corte %g Hz incompatível com a taxa %g Hz",
			cutoffHz, sampleRate)
	}

	nSec := order / 2
	w0 := 2 * math.Pi * cutoffHz / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)

	sections := make([]biquad, nSec)
	for k := 0; k < nSec; k++ {
		// Fator de qualidade dos pares de polos Butterworth
		q := 1 / (2 * math.Sin(float64(2*k+1)*math.Pi/float64(2*order)))
		alpha := sinW0 / (2 * q)
		a0 := 1 + alpha
		sections[k] = biquad{
			b0: (1 + cosW0) / 2 / a0,
			b1: -(1 + cosW0) / a0,
			b2: (1 + cosW0) / 2 / a0,
			a1: -2 * cosW0 / a0,
			a2: (1 - alpha) / a0,
		}
	}

	z := make([][][2]float64, nChans)
	for c := range z {
		z[c] = make([][2]float64, nSec)
	}
	return &HighPass{sections: sections, z: z}, nil
}

// Apply filtra os dados no lugar. As linhas além do número de canais
// configurado são ignoradas.
func (f *HighPass) Apply(data [][]float64) {
	for c := range data {
		if c >= len(f.z) {
			return
		}
		row := data[c]
		for i, x := range row {
			for s := range f.sections {
				sec := f.sections[s]
				st := &f.z[c][s]
				y := sec.b0*x + st[0]
				st[0] = sec.b1*x - sec.a1*y + st[1]
				st[1] = sec.b2*x - sec.a2*y
				x = y
			}
			row[i] = x
		}
	}
}

// ResetState zera o estado interno de todos os canais
func (f *HighPass) ResetState() {
	for c := range f.z {
		for s := range f.z[c] {
			f.z[c][s] = [2]float64{}
		}
	}
}
