//go:build integration

package e2e

// End-to-end integration tests for StockAI using real Postgres + Redis via
// testcontainers. Run with: go test -tags integration ./tests/e2e/... -v
//
// These tests:
//   - Free-text processing + confirmed apply against the Postgres catalog
//   - Critical-stock salida enqueues an alert job in Redis
//   - A salida bigger than the current stock is recorded as negative stock

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/giulianopoliti/stockai/internal/config"
	"github.com/giulianopoliti/stockai/internal/infra"
	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/repository"
	"github.com/giulianopoliti/stockai/internal/router"
	"github.com/giulianopoliti/stockai/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	repo   repository.CatalogoRepository
	rdb    *redis.Client
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	// Start Postgres container
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("stockai_test"),
		tcPostgres.WithUsername("stockai"),
		tcPostgres.WithPassword("stockai"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start Redis container
	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:           8000,
		Env:            "test",
		StorageDriver:  "postgres",
		DatabaseURL:    pgURL,
		RedisURL:       rdURL,
		WorkerPoolSize: 1,
		DefaultTaxRate: 21.0,
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	repo := repository.NewGormCatalogo(db)
	require.NoError(t, repo.GuardarProveedores(ctx, []model.Proveedor{
		{ID: 1, Nombre: "HIF HIH Distribuciones", Impuesto: decimal.NewFromInt(25),
			CUIT: "20123456789", Aliases: []string{"h&h", "hih", "hif", "distribuciones"}},
		{ID: 2, Nombre: "SMALL TASTES", Impuesto: decimal.NewFromInt(21),
			CUIT: "20987654321", Aliases: []string{"small", "tastes", "golosinas"}},
		{ID: 3, Nombre: "Coca-Cola FEMSA", Impuesto: decimal.NewFromInt(21),
			CUIT: "20555123456", Aliases: []string{"coca", "cola", "coca-cola", "femsa"}},
	}))
	require.NoError(t, repo.GuardarStock(ctx, []model.ProductoStock{
		{ID: 1, Nombre: "TWISTOS MINIT JAMON 95G", Stock: 25, StockMinimo: 10,
			PrecioBase: decimal.NewFromInt(150), Categoria: "Snacks", Codigo: "TWI001",
			ProveedorID: 1, UltimaActualizacion: time.Now()},
		{ID: 2, Nombre: "SMIRNOFF ICE MANZANA 275ML", Stock: 12, StockMinimo: 5,
			PrecioBase: decimal.NewFromInt(280), Categoria: "Bebidas", Codigo: "SMI001",
			ProveedorID: 2, UltimaActualizacion: time.Now()},
		{ID: 3, Nombre: "COCA-COLA 500ML", Stock: 30, StockMinimo: 15,
			PrecioBase: decimal.NewFromInt(200), Categoria: "Bebidas", Codigo: "COC001",
			ProveedorID: 3, UltimaActualizacion: time.Now()},
	}))

	r := router.New(cfg, repo, db, rdb)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, repo: repo, rdb: rdb}
}

// ── Tests ────────────────────────────────────────────────────────────────────

// Free-text processing followed by a confirmed apply: the detected candidate
// does not match any catalog record strictly, so the apply materializes it as
// a new record in Postgres.
func TestE2E_TextoYAplicacion(t *testing.T) {
	env := setupTestEnv(t)

	procResp := do(t, env.server, "POST", "/process-text",
		jsonBody(t, map[string]string{"texto": "llegaron 2 coca para la heladera"}))
	require.Equal(t, http.StatusOK, procResp.StatusCode)

	var proc struct {
		Success   bool                      `json:"success"`
		Productos []model.ProductoDetectado `json:"productos"`
		Proveedor *struct {
			Nombre string `json:"nombre"`
		} `json:"proveedor"`
		Metodo string `json:"metodo"`
	}
	decodeJSON(t, procResp, &proc)
	assert.True(t, proc.Success)
	assert.Equal(t, "fallback", proc.Metodo)
	require.Len(t, proc.Productos, 1)
	require.NotNil(t, proc.Proveedor)
	assert.Equal(t, "Coca-Cola FEMSA", proc.Proveedor.Nombre)

	// Confirm the candidates as-is. "Coca-Cola 2L" differs from the catalog's
	// "COCA-COLA 500ML" in its size token, so the matcher partitions it as new.
	applyResp := do(t, env.server, "PUT", "/api/stock",
		jsonBody(t, map[string]any{"productos": proc.Productos}))
	require.Equal(t, http.StatusOK, applyResp.StatusCode)

	var apply struct {
		Actualizados int `json:"actualizados"`
		Nuevos       int `json:"nuevos"`
		Errores      int `json:"errores"`
	}
	decodeJSON(t, applyResp, &apply)
	assert.Equal(t, 0, apply.Actualizados)
	assert.Equal(t, 1, apply.Nuevos)
	assert.Equal(t, 0, apply.Errores)

	stock, err := env.repo.CargarStock(context.Background())
	require.NoError(t, err)
	require.Len(t, stock, 4)
	assert.Equal(t, "AUTO004", stock[3].Codigo)
	assert.Equal(t, 2, stock[3].Stock)
}

// A confirmed salida that leaves a record at or below its minimum must
// enqueue an alert job for the worker pool.
func TestE2E_SalidaCriticaEncolaAlerta(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	productoID := 2 // SMIRNOFF, stock 12, minimo 5
	applyResp := do(t, env.server, "PUT", "/api/stock",
		jsonBody(t, map[string]any{
			"productos": []map[string]any{
				{"nombre": "SMIRNOFF ICE MANZANA 275ML", "cantidad": 10, "confianza": 95.0,
					"producto_id": productoID, "accion": "salida"},
			},
		}))
	require.Equal(t, http.StatusOK, applyResp.StatusCode)

	var apply struct {
		Actualizados int `json:"actualizados"`
	}
	decodeJSON(t, applyResp, &apply)
	assert.Equal(t, 1, apply.Actualizados)

	stock, err := env.repo.CargarStock(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stock[1].Stock)

	pendientes, err := env.rdb.LLen(ctx, worker.QueueAlertas).Result()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pendientes, int64(1))
}

// Negative stock is recorded as-is, never clamped.
func TestE2E_StockNegativo(t *testing.T) {
	env := setupTestEnv(t)

	productoID := 3 // COCA-COLA 500ML, stock 30
	applyResp := do(t, env.server, "PUT", "/api/stock",
		jsonBody(t, map[string]any{
			"productos": []map[string]any{
				{"nombre": "COCA-COLA 500ML", "cantidad": 50, "confianza": 95.0,
					"producto_id": productoID, "accion": "salida"},
			},
		}))
	require.Equal(t, http.StatusOK, applyResp.StatusCode)

	stock, err := env.repo.CargarStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, -20, stock[2].Stock)
}
