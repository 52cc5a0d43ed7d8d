package service

// stock.go — the stock ledger applier. Applies a matching partition to the
// catalog as signed deltas plus new-record creation, then persists the full
// snapshot. Per-entry failures are counted and never abort their siblings;
// only a persistence failure is fatal to the call.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/repository"

	"github.com/bsm/redislock"
	"github.com/rs/zerolog/log"
)

// Defaults stamped on records the applier materializes itself.
const (
	stockMinimoNuevo    = 5
	categoriaNueva      = "Nuevo"
	proveedorPorDefecto = 1
)

// AlertaDispatcher enqueues a critical-stock notification after an apply.
// Best-effort: a nil dispatcher or an enqueue error never fails the apply.
type AlertaDispatcher interface {
	EncolarAlerta(ctx context.Context, criticos []model.ProductoStock) error
}

// ResultadoAplicacion reports the three apply counters plus the records that
// ended the cycle at or below their minimum-stock threshold.
type ResultadoAplicacion struct {
	Actualizados int
	Nuevos       int
	Errores      int
	Criticos     []model.ProductoStock
}

func (r *ResultadoAplicacion) Mensaje() string {
	return fmt.Sprintf("Stock actualizado: %d productos actualizados, %d productos nuevos, %d errores",
		r.Actualizados, r.Nuevos, r.Errores)
}

type StockService interface {
	// Aplicar runs the load-mutate-save cycle for one partition.
	Aplicar(ctx context.Context, particion *model.Particion) (*ResultadoAplicacion, error)
	// Listar returns the current catalog snapshot.
	Listar(ctx context.Context) ([]model.ProductoStock, error)
}

type stockService struct {
	repo     repository.CatalogoRepository
	locker   *redislock.Client // nil when redis is not configured
	alertas  AlertaDispatcher  // nil when no worker queue is configured
	aplicaMu sync.Mutex
}

func NewStockService(repo repository.CatalogoRepository, locker *redislock.Client, alertas AlertaDispatcher) StockService {
	return &stockService{repo: repo, locker: locker, alertas: alertas}
}

func (s *stockService) Listar(ctx context.Context) ([]model.ProductoStock, error) {
	return s.repo.CargarStock(ctx)
}

const claveLockAplicar = "stockai:stock:aplicar"

func (s *stockService) Aplicar(ctx context.Context, particion *model.Particion) (*ResultadoAplicacion, error) {
	// The in-process mutex serializes applies within this instance; the redis
	// lock extends the guard across instances sharing the same store.
	s.aplicaMu.Lock()
	defer s.aplicaMu.Unlock()

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, claveLockAplicar, 30*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 50),
		})
		if err != nil {
			return nil, fmt.Errorf("stock: obtener lock de aplicacion: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				log.Warn().Err(err).Msg("stock: liberar lock de aplicacion")
			}
		}()
	}

	stock, err := s.repo.CargarStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("stock: cargar catalogo: %w", err)
	}

	resultado := &ResultadoAplicacion{}
	ahora := time.Now()

	indice := make(map[int]int, len(stock)) // id → slice position
	maxID := 0
	for i, p := range stock {
		indice[p.ID] = i
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	for _, act := range particion.Actualizaciones {
		pos, ok := indice[act.StockID]
		if !ok || act.Cantidad <= 0 {
			log.Warn().Int("stock_id", act.StockID).Str("producto", act.ProductoDetectado).
				Msg("stock: actualizacion invalida, se omite")
			resultado.Errores++
			continue
		}
		if act.Accion == model.AccionSalida {
			stock[pos].Stock -= act.Cantidad
		} else {
			stock[pos].Stock += act.Cantidad
		}
		stock[pos].UltimaActualizacion = ahora
		resultado.Actualizados++
	}

	for _, nuevo := range particion.Nuevos {
		if nuevo.Nombre == "" || nuevo.Cantidad <= 0 {
			resultado.Errores++
			continue
		}
		maxID++
		registro := model.ProductoStock{
			ID:                  maxID,
			Nombre:              nuevo.Nombre,
			StockMinimo:         stockMinimoNuevo,
			Categoria:           categoriaNueva,
			Codigo:              fmt.Sprintf("AUTO%03d", maxID),
			ProveedorID:         proveedorPorDefecto,
			UltimaActualizacion: ahora,
		}
		if nuevo.Accion != model.AccionSalida {
			registro.Stock = nuevo.Cantidad
		}
		if nuevo.PrecioSinImpuestos != nil {
			registro.PrecioBase = *nuevo.PrecioSinImpuestos
		}
		stock = append(stock, registro)
		indice[registro.ID] = len(stock) - 1
		resultado.Nuevos++
	}

	if err := s.repo.GuardarStock(ctx, stock); err != nil {
		return nil, fmt.Errorf("stock: persistir catalogo: %w", err)
	}

	for _, p := range stock {
		if p.EsCritico() {
			resultado.Criticos = append(resultado.Criticos, p)
		}
	}
	if s.alertas != nil && len(resultado.Criticos) > 0 {
		if err := s.alertas.EncolarAlerta(ctx, resultado.Criticos); err != nil {
			log.Warn().Err(err).Msg("stock: encolar alerta de stock critico")
		}
	}

	log.Info().
		Int("actualizados", resultado.Actualizados).
		Int("nuevos", resultado.Nuevos).
		Int("errores", resultado.Errores).
		Int("criticos", len(resultado.Criticos)).
		Msg("stock: particion aplicada")
	return resultado, nil
}
