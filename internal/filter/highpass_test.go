package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHighPassValidacao(t *testing.T) {
	_, err := NewHighPass(3, 1, 100, 1)
	assert.Error(t, err, "ordem ímpar deve ser rejeitada")

	_, err = NewHighPass(0, 1, 100, 1)
	assert.Error(t, err)

	_, err = NewHighPass(2, 1, 0, 1)
	assert.Error(t, err, "taxa de amostragem nula deve ser rejeitada")

	_, err = NewHighPass(2, 60, 100, 1)
	assert.Error(t, err, "corte acima de Nyquist deve ser rejeitado")

	_, err = NewHighPass(2, 0, 100, 1)
	assert.Error(t, err)

	f, err := NewHighPass(DefaultOrder, 1, 100, 2)
	require.NoError(t, err)
	require.NotNil(t, f)
}

func TestHighPassRemoveComponenteDC(t *testing.T) {
	f, err := NewHighPass(2, 1, 1000, 1)
	require.NoError(t, err)

	// Entrada constante: depois do transitório a saída tende a zero.
	data := [][]float64{make([]float64, 5000)}
	for i := range data[0] {
		data[0][i] = 10.0
	}
	f.Apply(data)

	for i := 4900; i < 5000; i++ {
		assert.Less(t, math.Abs(data[0][i]), 0.01,
			"componente DC deveria ser atenuada na amostra %d", i)
	}
}

func TestHighPassPreservaBandaPassante(t *testing.T) {
	f, err := NewHighPass(2, 1, 1000, 1)
	require.NoError(t, err)

	// Senoide de 50 Hz, bem acima do corte de 1 Hz: amplitude preservada.
	n := 5000
	data := [][]float64{make([]float64, n)}
	for i := range data[0] {
		data[0][i] = math.Sin(2 * math.Pi * 50 * float64(i) / 1000)
	}
	f.Apply(data)

	pico := 0.0
	for i := n - 1000; i < n; i++ {
		if v := math.Abs(data[0][i]); v > pico {
			pico = v
		}
	}
	assert.InDelta(t, 1.0, pico, 0.05)
}

func TestHighPassEstadoContinuoEntreBlocos(t *testing.T) {
	entrada := make([]float64, 2000)
	for i := range entrada {
		entrada[i] = math.Sin(2*math.Pi*5*float64(i)/1000) + 3.0
	}

	// Filtrar tudo de uma vez.
	inteiro, err := NewHighPass(4, 1, 1000, 1)
	require.NoError(t, err)
	umBloco := [][]float64{append([]float64(nil), entrada...)}
	inteiro.Apply(umBloco)

	// Filtrar em dois blocos com o mesmo filtro: o estado persiste.
	particionado, err := NewHighPass(4, 1, 1000, 1)
	require.NoError(t, err)
	primeira := append([]float64(nil), entrada[:1000]...)
	segunda := append([]float64(nil), entrada[1000:]...)
	particionado.Apply([][]float64{primeira})
	particionado.Apply([][]float64{segunda})

	for i := 0; i < 1000; i++ {
		assert.InDelta(t, umBloco[0][i], primeira[i], 1e-12)
		assert.InDelta(t, umBloco[0][1000+i], segunda[i], 1e-12)
	}
}

func TestHighPassResetState(t *testing.T) {
	f, err := NewHighPass(2, 1, 1000, 1)
	require.NoError(t, err)

	a := [][]float64{{1, 2, 3, 4}}
	f.Apply(a)
	f.ResetState()

	// Depois do reset o filtro responde como se nunca tivesse visto dados.
	b := [][]float64{{1, 2, 3, 4}}
	f.Apply(b)

	limpo, err := NewHighPass(2, 1, 1000, 1)
	require.NoError(t, err)
	c := [][]float64{{1, 2, 3, 4}}
	limpo.Apply(c)

	assert.Equal(t, c[0], b[0])
}

func TestHighPassIgnoraLinhasExcedentes(t *testing.T) {
	f, err := NewHighPass(2, 1, 1000, 1)
	require.NoError(t, err)

	// Segunda linha além dos canais configurados fica intacta.
	data := [][]float64{{1, 1, 1}, {5, 5, 5}}
	f.Apply(data)
	assert.Equal(t, []float64{5, 5, 5}, data[1])
}
