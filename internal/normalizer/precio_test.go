package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizarPrecio(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"entero", "450", "450"},
		{"con simbolo", "$450", "450"},
		{"simbolo y espacios", "$ 1 849.96", "1849.96"},
		{"decimal con punto", "1250.50", "1250.5"},
		{"decimal con coma", "1250,50", "1250.5"},
		{"miles con punto, decimal con coma", "1.250,50", "1250.5"},
		{"miles multiples", "1.250.300,75", "1250300.75"},
		{"coma decimal con simbolo", "$402,49", "402.49"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizarPrecio(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestNormalizarPrecioRechazaAmbiguos(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"agrupacion con coma antes de punto decimal", "1,250.50"},
		{"puntos multiples sin coma", "1.250.50"},
		{"vacio", ""},
		{"solo simbolo", "$ "},
		{"texto", "gratis"},
		{"comas multiples", "1,2,3"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizarPrecio(tc.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPrecioInvalido)
		})
	}
}
