package main

// seeddata writes the initial catalog: the four known suppliers with their
// alias keyword sets and a handful of starting products. With -fake N it
// additionally generates N synthetic product rows for load testing the
// matcher and the stock endpoints.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/giulianopoliti/stockai/internal/config"
	"github.com/giulianopoliti/stockai/internal/infra"
	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	fake := flag.Int("fake", 0, "number of additional synthetic products to generate")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var repo repository.CatalogoRepository
	switch cfg.StorageDriver {
	case "postgres":
		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		repo = repository.NewGormCatalogo(db)
	default:
		repo = repository.NewJSONCatalogo(cfg.DataDir)
	}

	ctx := context.Background()
	if err := repo.GuardarProveedores(ctx, proveedoresIniciales()); err != nil {
		log.Fatal().Err(err).Msg("failed to seed suppliers")
	}

	stock := stockInicial()
	stock = append(stock, productosFalsos(len(stock), *fake)...)
	if err := repo.GuardarStock(ctx, stock); err != nil {
		log.Fatal().Err(err).Msg("failed to seed stock")
	}

	log.Info().
		Int("proveedores", 4).
		Int("productos", len(stock)).
		Str("driver", cfg.StorageDriver).
		Msg("catalog seeded")
}

func proveedoresIniciales() []model.Proveedor {
	return []model.Proveedor{
		{
			ID: 1, Nombre: "HIF HIH Distribuciones", Impuesto: decimal.NewFromInt(25),
			Telefono: "123456789", CUIT: "20123456789",
			Email: "contacto@hih.com", Direccion: "Av. Principal 123",
			Aliases: []string{"h&h", "hih", "hif", "h & h", "distribuciones", "hih distribuciones"},
		},
		{
			ID: 2, Nombre: "SMALL TASTES", Impuesto: decimal.NewFromInt(21),
			Telefono: "987654321", CUIT: "20987654321",
			Email: "ventas@smalltastes.com", Direccion: "Calle Comercio 456",
			Aliases: []string{"small", "tastes", "small tastes", "golosinas", "dulces"},
		},
		{
			ID: 3, Nombre: "Coca-Cola FEMSA", Impuesto: decimal.NewFromInt(21),
			Telefono: "555123456", CUIT: "20555123456",
			Email: "distribuidores@cocacola.com", Direccion: "Zona Industrial 789",
			Aliases: []string{"coca", "cola", "coca-cola", "femsa", "bebidas"},
		},
		{
			ID: 4, Nombre: "Distribuidora Central", Impuesto: decimal.NewFromInt(21),
			Telefono: "444987654", CUIT: "20444987654",
			Email: "info@distcentral.com", Direccion: "Centro Logistico 321",
			Aliases: []string{"central", "distribuidora", "dist central", "mayorista"},
		},
	}
}

func stockInicial() []model.ProductoStock {
	ahora := time.Now()
	return []model.ProductoStock{
		{ID: 1, Nombre: "TWISTOS MINIT JAMON 95G", Stock: 25, StockMinimo: 10,
			PrecioBase: decimal.NewFromInt(150), Categoria: "Snacks", Codigo: "TWI001",
			ProveedorID: 1, UltimaActualizacion: ahora},
		{ID: 2, Nombre: "SMIRNOFF ICE MANZANA 275ML", Stock: 12, StockMinimo: 5,
			PrecioBase: decimal.NewFromInt(280), Categoria: "Bebidas", Codigo: "SMI001",
			ProveedorID: 2, UltimaActualizacion: ahora},
		{ID: 3, Nombre: "COCA-COLA 500ML", Stock: 30, StockMinimo: 15,
			PrecioBase: decimal.NewFromInt(200), Categoria: "Bebidas", Codigo: "COC001",
			ProveedorID: 3, UltimaActualizacion: ahora},
	}
}

func productosFalsos(desde, n int) []model.ProductoStock {
	if n <= 0 {
		return nil
	}
	gofakeit.Seed(0)
	categorias := []string{"Snacks", "Bebidas", "Almacen", "Golosinas", "Lacteos"}

	productos := make([]model.ProductoStock, 0, n)
	for i := 0; i < n; i++ {
		id := desde + i + 1
		productos = append(productos, model.ProductoStock{
			ID:                  id,
			Nombre:              fmt.Sprintf("%s %dG", gofakeit.ProductName(), gofakeit.Number(50, 500)),
			Stock:               gofakeit.Number(0, 60),
			StockMinimo:         gofakeit.Number(3, 15),
			PrecioBase:          decimal.NewFromInt(int64(gofakeit.Number(100, 2000))),
			Categoria:           categorias[gofakeit.Number(0, len(categorias)-1)],
			Codigo:              fmt.Sprintf("AUTO%03d", id),
			ProveedorID:         gofakeit.Number(1, 4),
			UltimaActualizacion: time.Now(),
		})
	}
	return productos
}
