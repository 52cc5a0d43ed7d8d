package service

import (
	"context"
	"testing"

	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nuevoProceso(ia ColaboradorIA, ocr LectorDocumentos) (ProcesoService, repository.CatalogoRepository) {
	repo := repository.NewMemCatalogo(proveedoresDePrueba(), stockDePrueba())
	resolver := NewProveedorResolver(repo)
	extractor := NewExtractorService(ia)
	matcher := NewMatcherService(ia)
	stock := NewStockService(repo, nil, nil)
	svc := NewProcesoService(repo, resolver, extractor, matcher, stock, ia, ocr, decimal.NewFromFloat(21))
	return svc, repo
}

func TestProcesarTextoSinColaborador(t *testing.T) {
	svc, _ := nuevoProceso(nil, nil)

	resp, err := svc.ProcesarTexto(context.Background(), "llegaron 2 coca cola de femsa")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, MetodoFallback, resp.Metodo)
	require.Len(t, resp.Productos, 1)
	assert.Equal(t, "Coca-Cola 2L", resp.Productos[0].Nombre)
	require.NotNil(t, resp.Proveedor)
	assert.Equal(t, "Coca-Cola FEMSA", resp.Proveedor.Nombre)
	require.NotNil(t, resp.Resumen)
}

func TestProcesarTextoDemasiadoCorto(t *testing.T) {
	svc, _ := nuevoProceso(nil, nil)

	_, err := svc.ProcesarTexto(context.Background(), "  a ")

	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestProcesarFacturaMimeInvalido(t *testing.T) {
	svc, _ := nuevoProceso(nil, nil)

	_, err := svc.ProcesarFactura(context.Background(), []byte("datos"), "text/plain")

	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestProcesarFacturaSinOCRUsaSimulada(t *testing.T) {
	svc, _ := nuevoProceso(nil, nil)

	resp, err := svc.ProcesarFactura(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.TextoCompleto, "FACTURA SIMULADA")
	assert.Contains(t, resp.TextoCompleto, "datos simulados")
	// La factura simulada trae coca, pan y leche.
	assert.Len(t, resp.Productos, 3)
}

func TestProcesarFacturaConOCR(t *testing.T) {
	ocr := &ocrStub{lineas: []string{"FACTURA A-0001", "Pan Lactal x 2 - $280"}}
	svc, _ := nuevoProceso(nil, ocr)

	resp, err := svc.ProcesarFactura(context.Background(), []byte("no-es-una-imagen"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, "FACTURA A-0001\nPan Lactal x 2 - $280", resp.TextoCompleto)
	require.Len(t, resp.Productos, 1)
	assert.Equal(t, "Pan Lactal", resp.Productos[0].Nombre)
}

func TestProcesarFacturaOCRCaidoDegrada(t *testing.T) {
	ocr := &ocrStub{err: errStubCaido}
	svc, _ := nuevoProceso(nil, ocr)

	resp, err := svc.ProcesarFactura(context.Background(), []byte("x"), "application/pdf")

	require.NoError(t, err)
	assert.Contains(t, resp.TextoCompleto, "FACTURA SIMULADA")
}

func TestValidarTranscripcion(t *testing.T) {
	cases := []struct {
		name    string
		texto   string
		invalda bool
	}{
		{"vacia", "", true},
		{"muy corta", "hola", true},
		{"una sola palabra", "inventario", true},
		{"corta sin contexto", "hola que tal", true},
		{"corta con contexto", "llegaron diez cocas", false},
		{"larga sin contexto", "esta frase larga no habla del tema para nada", false},
		{"con palabra clave", "entraron 5 cajas", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidarTranscripcion(tc.texto)
			if tc.invalda {
				assert.ErrorIs(t, err, ErrEntradaInvalida)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcesarAudioMimeInvalido(t *testing.T) {
	svc, _ := nuevoProceso(&iaStub{}, nil)

	_, err := svc.ProcesarAudio(context.Background(), []byte("x"), "video/mp4", "nota.mp4")

	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestProcesarAudioSinColaborador(t *testing.T) {
	svc, _ := nuevoProceso(nil, nil)

	_, err := svc.ProcesarAudio(context.Background(), []byte("x"), "audio/mpeg", "nota.mp3")

	assert.ErrorIs(t, err, ErrTranscripcionNoDisponible)
}

func TestProcesarAudioConAnalisis(t *testing.T) {
	id := 1
	ia := &iaStub{
		transcribir: func([]byte) (string, error) {
			return "llegaron 3 coca cola de femsa", nil
		},
		analizar: func(string) (*model.AnalisisInventario, error) {
			return &model.AnalisisInventario{
				Productos: []model.ProductoDetectado{
					{Nombre: "Coca-Cola 2L", Cantidad: 3, Accion: "entrada", Confianza: 92, ProductoID: &id},
				},
				ProveedorDetectado: "Coca-Cola FEMSA",
				Analisis:           "entrada de 3 unidades",
			}, nil
		},
	}
	svc, _ := nuevoProceso(ia, nil)

	resp, err := svc.ProcesarAudio(context.Background(), []byte("bytes-de-audio"), "audio/webm", "nota.webm")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, MetodoIA, resp.Metodo)
	assert.Equal(t, "llegaron 3 coca cola de femsa", resp.Transcripcion)
	assert.Equal(t, "Coca-Cola FEMSA", resp.ProveedorDetectado)
	require.Len(t, resp.Productos, 1)
	require.NotNil(t, resp.Productos[0].ProductoID)
	assert.Equal(t, 1, *resp.Productos[0].ProductoID)
}

func TestProcesarAudioAnalisisCaidoDegrada(t *testing.T) {
	ia := &iaStub{
		transcribir: func([]byte) (string, error) {
			return "llegaron 2 coca y 1 pan", nil
		},
	}
	svc, _ := nuevoProceso(ia, nil)

	resp, err := svc.ProcesarAudio(context.Background(), []byte("bytes"), "audio/mpeg", "nota.mp3")

	require.NoError(t, err)
	assert.Equal(t, MetodoFallback, resp.Metodo)
	// El diccionario procesa una linea por vez: primera clave gana.
	require.Len(t, resp.Productos, 1)
	// El matcher deterministico ya flaggeo el candidato contra el catalogo.
	require.NotNil(t, resp.Productos[0].ProductoID)
	assert.Equal(t, 1, *resp.Productos[0].ProductoID)
}

func TestProcesarAudioTranscripcionInvalida(t *testing.T) {
	ia := &iaStub{transcribir: func([]byte) (string, error) { return "eh si", nil }}
	svc, _ := nuevoProceso(ia, nil)

	_, err := svc.ProcesarAudio(context.Background(), []byte("bytes"), "audio/mpeg", "nota.mp3")

	assert.ErrorIs(t, err, ErrEntradaInvalida)
}

func TestActualizarStockConFlags(t *testing.T) {
	id := 1
	svc, repo := nuevoProceso(nil, nil)

	resultado, err := svc.ActualizarStock(context.Background(), []model.ProductoDetectado{
		{Nombre: "Coca-Cola 2L", Cantidad: 5, Accion: "entrada", ProductoID: &id},
		{Nombre: "Fernet 750ML", Cantidad: 2, Accion: "entrada", EsNuevo: true},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resultado.Actualizados)
	assert.Equal(t, 1, resultado.Nuevos)
	assert.Equal(t, 0, resultado.Errores)

	stock, _ := repo.CargarStock(context.Background())
	assert.Equal(t, 15, stock[0].Stock)
	require.Len(t, stock, 4)
	assert.Equal(t, "AUTO004", stock[3].Codigo)
}

func TestActualizarStockSinFlagsPasaPorMatcher(t *testing.T) {
	svc, repo := nuevoProceso(nil, nil)

	resultado, err := svc.ActualizarStock(context.Background(), []model.ProductoDetectado{
		{Nombre: "Pan Lactal", Cantidad: 2},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, resultado.Actualizados)

	stock, _ := repo.CargarStock(context.Background())
	assert.Equal(t, 6, stock[2].Stock)
}
