package service

// extractor.go — candidate line-item extraction. The intelligent path asks
// the IA collaborator for a structured parse of the text; any failure on that
// path (unreachable, open circuit, malformed JSON) degrades the whole call to
// the dictionary extractor. Extraction never hard-fails a request.

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/giulianopoliti/stockai/internal/model"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Extraction methods reported in responses and logs.
const (
	MetodoIA       = "ia"
	MetodoFallback = "fallback"
)

type ExtractorService interface {
	// Extraer produces candidate line-items from normalized text. conocidos
	// are catalog product names passed to the collaborator as mapping hints.
	// The second return value reports which path produced the result.
	Extraer(ctx context.Context, texto string, conocidos []string) ([]model.ProductoDetectado, string)
}

type extractorService struct {
	ia ColaboradorIA // nil when no collaborator is configured
}

func NewExtractorService(ia ColaboradorIA) ExtractorService {
	return &extractorService{ia: ia}
}

func (s *extractorService) Extraer(ctx context.Context, texto string, conocidos []string) ([]model.ProductoDetectado, string) {
	if s.ia != nil {
		productos, err := s.ia.ExtraerProductos(ctx, texto, conocidos)
		if err == nil {
			log.Debug().Int("productos", len(productos)).Msg("extractor: extraccion IA")
			return productos, MetodoIA
		}
		log.Warn().Err(err).Msg("extractor: IA fallo, se usa el extractor de respaldo")
	}
	return ExtraerFallback(texto), MetodoFallback
}

// ── Dictionary fallback ──────────────────────────────────────────────────────

// entradaDiccionario maps a short trigger keyword to a canonical product and
// its reference tax-exclusive price.
type entradaDiccionario struct {
	clave  string
	nombre string
	precio int64
}

// diccionarioFallback is scanned in order; the slice keeps lookup
// deterministic (first keyword hit per line wins).
var diccionarioFallback = []entradaDiccionario{
	{"coca", "Coca-Cola 2L", 450},
	{"pan", "Pan Lactal", 280},
	{"leche", "Leche Entera 1L", 320},
	{"agua", "Agua Mineral 500ml", 120},
	{"yogur", "Yogur Ser", 150},
	{"fideos", "Fideos Matarazzo", 200},
}

const confianzaFallback = 85.0

var reDigitos = regexp.MustCompile(`\d+`)

// ExtraerFallback scans the text line by line against a fixed keyword
// dictionary. Crude on purpose: it is the safety net when the collaborator is
// unreachable, and it is fully deterministic.
func ExtraerFallback(texto string) []model.ProductoDetectado {
	var productos []model.ProductoDetectado
	for _, linea := range strings.Split(texto, "\n") {
		bajo := strings.ToLower(linea)
		for _, entrada := range diccionarioFallback {
			if !strings.Contains(bajo, entrada.clave) {
				continue
			}
			cantidad := 1
			if m := reDigitos.FindString(linea); m != "" {
				if n, err := strconv.Atoi(m); err == nil && n > 0 {
					cantidad = n
				}
			}
			precio := decimal.NewFromInt(entrada.precio)
			productos = append(productos, model.ProductoDetectado{
				Nombre:             entrada.nombre,
				Cantidad:           cantidad,
				PrecioSinImpuestos: &precio,
				Confianza:          confianzaFallback,
			})
			break // first keyword hit wins for this line
		}
	}
	return productos
}
