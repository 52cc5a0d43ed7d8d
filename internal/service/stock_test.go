package service

import (
	"context"
	"testing"
	"time"

	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type alertasSpy struct {
	llamadas int
	criticos []model.ProductoStock
}

func (a *alertasSpy) EncolarAlerta(_ context.Context, criticos []model.ProductoStock) error {
	a.llamadas++
	a.criticos = criticos
	return nil
}

func TestAplicarEntradaYSalida(t *testing.T) {
	repo := repository.NewMemCatalogo(nil, stockDePrueba())
	svc := NewStockService(repo, nil, nil)

	resultado, err := svc.Aplicar(context.Background(), &model.Particion{
		Actualizaciones: []model.Actualizacion{
			{ProductoDetectado: "Coca-Cola 2L", StockID: 1, Cantidad: 5, Accion: model.AccionEntrada},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resultado.Actualizados)

	stock, err := svc.Listar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, stock[0].Stock)
	assert.WithinDuration(t, time.Now(), stock[0].UltimaActualizacion, time.Minute)

	_, err = svc.Aplicar(context.Background(), &model.Particion{
		Actualizaciones: []model.Actualizacion{
			{ProductoDetectado: "Coca-Cola 2L", StockID: 1, Cantidad: 3, Accion: model.AccionSalida},
		},
	})
	require.NoError(t, err)

	stock, _ = svc.Listar(context.Background())
	assert.Equal(t, 12, stock[0].Stock)
}

func TestAplicarCreaNuevoConDefaults(t *testing.T) {
	// Max id existente 12 → el nuevo registro recibe id 13 y codigo AUTO013.
	repo := repository.NewMemCatalogo(nil, []model.ProductoStock{
		{ID: 12, Nombre: "Existente", Stock: 1, StockMinimo: 1},
	})
	svc := NewStockService(repo, nil, nil)

	resultado, err := svc.Aplicar(context.Background(), &model.Particion{
		Nuevos: []model.ProductoNuevo{
			{Nombre: "Producto X", Cantidad: 7, Accion: model.AccionEntrada},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resultado.Nuevos)

	stock, _ := svc.Listar(context.Background())
	require.Len(t, stock, 2)
	nuevo := stock[1]
	assert.Equal(t, 13, nuevo.ID)
	assert.Equal(t, "AUTO013", nuevo.Codigo)
	assert.Equal(t, 7, nuevo.Stock)
	assert.Equal(t, 5, nuevo.StockMinimo)
	assert.Equal(t, "Nuevo", nuevo.Categoria)
	assert.Equal(t, 1, nuevo.ProveedorID)
}

func TestAplicarNuevoSalidaArrancaEnCero(t *testing.T) {
	repo := repository.NewMemCatalogo(nil, nil)
	svc := NewStockService(repo, nil, nil)

	_, err := svc.Aplicar(context.Background(), &model.Particion{
		Nuevos: []model.ProductoNuevo{
			{Nombre: "Salida directa", Cantidad: 4, Accion: model.AccionSalida},
		},
	})
	require.NoError(t, err)

	stock, _ := svc.Listar(context.Background())
	require.Len(t, stock, 1)
	assert.Equal(t, 0, stock[0].Stock)
}

func TestAplicarContieneFallasPorEntrada(t *testing.T) {
	// Un id inexistente cuenta exactamente un error y no bloquea al resto.
	repo := repository.NewMemCatalogo(nil, stockDePrueba())
	svc := NewStockService(repo, nil, nil)

	resultado, err := svc.Aplicar(context.Background(), &model.Particion{
		Actualizaciones: []model.Actualizacion{
			{ProductoDetectado: "Coca-Cola 2L", StockID: 1, Cantidad: 2, Accion: model.AccionEntrada},
			{ProductoDetectado: "Fantasma", StockID: 999, Cantidad: 1, Accion: model.AccionEntrada},
			{ProductoDetectado: "Pan Lactal", StockID: 3, Cantidad: 1, Accion: model.AccionEntrada},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resultado.Actualizados)
	assert.Equal(t, 1, resultado.Errores)

	stock, _ := svc.Listar(context.Background())
	assert.Equal(t, 12, stock[0].Stock)
	assert.Equal(t, 5, stock[2].Stock)
}

func TestAplicarPermiteStockNegativo(t *testing.T) {
	repo := repository.NewMemCatalogo(nil, stockDePrueba())
	svc := NewStockService(repo, nil, nil)

	_, err := svc.Aplicar(context.Background(), &model.Particion{
		Actualizaciones: []model.Actualizacion{
			{ProductoDetectado: "Pan Lactal", StockID: 3, Cantidad: 10, Accion: model.AccionSalida},
		},
	})
	require.NoError(t, err)

	stock, _ := svc.Listar(context.Background())
	assert.Equal(t, -6, stock[2].Stock)
}

func TestAplicarEncolaAlertaDeCriticos(t *testing.T) {
	repo := repository.NewMemCatalogo(nil, stockDePrueba())
	alertas := &alertasSpy{}
	svc := NewStockService(repo, nil, alertas)

	// Pan Lactal (stock 4, minimo 5) ya esta critico; la salida de Twistos
	// lo deja igual de critico.
	_, err := svc.Aplicar(context.Background(), &model.Particion{
		Actualizaciones: []model.Actualizacion{
			{ProductoDetectado: "Twistos Minit Jamon 95G", StockID: 2, Cantidad: 6, Accion: model.AccionSalida},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, alertas.llamadas)
	require.NotEmpty(t, alertas.criticos)
	nombres := make([]string, 0, len(alertas.criticos))
	for _, c := range alertas.criticos {
		nombres = append(nombres, c.Nombre)
	}
	assert.Contains(t, nombres, "Pan Lactal")
	assert.Contains(t, nombres, "Twistos Minit Jamon 95G")
}

func TestAplicarMensaje(t *testing.T) {
	r := &ResultadoAplicacion{Actualizados: 2, Nuevos: 1, Errores: 1}
	assert.Equal(t, "Stock actualizado: 2 productos actualizados, 1 productos nuevos, 1 errores", r.Mensaje())
}
