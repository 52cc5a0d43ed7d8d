package service

// proceso.go — the pipeline orchestrator behind the three processing
// endpoints. Invoice and free text run: resolve supplier + extract →
// taxes. Voice notes run the matching-variant analysis so the client gets
// candidates already flagged against the catalog. None of these apply the
// ledger: the client confirms and calls ActualizarStock.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giulianopoliti/stockai/internal/dto"
	"github.com/giulianopoliti/stockai/internal/infra"
	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ErrEntradaInvalida marks a request rejected before the pipeline ran:
// unsupported file type, oversized audio, unusable transcript. Handlers map
// it to 400 with the wrapped detail.
var ErrEntradaInvalida = errors.New("entrada invalida")

// ErrTranscripcionNoDisponible is returned for audio input when no
// transcription collaborator is configured.
var ErrTranscripcionNoDisponible = errors.New("transcripcion no disponible")

// audioMaxBytes caps uploaded voice notes at 25MB, the transcription
// endpoint's own limit.
const audioMaxBytes = 25 << 20

// textoFacturaSimulada stands in for OCR output when no sidecar is
// configured or the sidecar fails: the pipeline still produces a best-effort
// response instead of a hard error.
const textoFacturaSimulada = "FACTURA SIMULADA\n" +
	"Coca-Cola 2L - 2 unidades - $450 c/u\n" +
	"Pan Lactal - 1 unidad - $280\n" +
	"Leche Entera 1L - 3 unidades - $320 c/u\n" +
	"TOTAL: $1890"

const notaSimulada = "\n\n[NOTA: Usando datos simulados - configure el sidecar OCR para procesamiento real]"

type ProcesoService interface {
	ProcesarFactura(ctx context.Context, documento []byte, mimeType string) (*dto.ProcesoResponse, error)
	ProcesarTexto(ctx context.Context, texto string) (*dto.ProcesoResponse, error)
	ProcesarAudio(ctx context.Context, audio []byte, mimeType, nombreArchivo string) (*dto.AudioResponse, error)
	ActualizarStock(ctx context.Context, productos []model.ProductoDetectado) (*ResultadoAplicacion, error)
}

type procesoService struct {
	repo      repository.CatalogoRepository
	resolver  ProveedorResolver
	extractor ExtractorService
	matcher   MatcherService
	stock     StockService
	ia        ColaboradorIA    // nil when not configured
	ocr       LectorDocumentos // nil when not configured
	tasaBase  decimal.Decimal
}

func NewProcesoService(
	repo repository.CatalogoRepository,
	resolver ProveedorResolver,
	extractor ExtractorService,
	matcher MatcherService,
	stock StockService,
	ia ColaboradorIA,
	ocr LectorDocumentos,
	tasaBase decimal.Decimal,
) ProcesoService {
	return &procesoService{
		repo:      repo,
		resolver:  resolver,
		extractor: extractor,
		matcher:   matcher,
		stock:     stock,
		ia:        ia,
		ocr:       ocr,
		tasaBase:  tasaBase,
	}
}

// ── Invoice ──────────────────────────────────────────────────────────────────

func (s *procesoService) ProcesarFactura(ctx context.Context, documento []byte, mimeType string) (*dto.ProcesoResponse, error) {
	if !strings.HasPrefix(mimeType, "image/") && mimeType != "application/pdf" {
		return nil, fmt.Errorf("%w: tipo de archivo no soportado: %s", ErrEntradaInvalida, mimeType)
	}

	texto := s.textoDeDocumento(ctx, documento, mimeType)
	return s.procesarTextoNormalizado(ctx, texto)
}

// textoDeDocumento runs OCR over the (preprocessed) document. Any failure —
// no sidecar, preprocessing error, sidecar down — degrades to the canned
// simulated invoice so the run still answers.
func (s *procesoService) textoDeDocumento(ctx context.Context, documento []byte, mimeType string) string {
	if s.ocr == nil {
		return textoFacturaSimulada + notaSimulada
	}

	preparado, mimePreparado, err := infra.PrepararImagen(documento)
	if err != nil {
		log.Warn().Err(err).Msg("proceso: preprocesar imagen")
		preparado, mimePreparado = documento, mimeType
	}
	if mimePreparado == "" {
		mimePreparado = mimeType
	}

	lineas, err := s.ocr.ExtraerTexto(ctx, preparado, mimePreparado)
	if err != nil {
		log.Warn().Err(err).Msg("proceso: OCR fallo, se usa factura simulada")
		return textoFacturaSimulada + notaSimulada
	}
	return strings.Join(lineas, "\n")
}

// ── Free text ────────────────────────────────────────────────────────────────

func (s *procesoService) ProcesarTexto(ctx context.Context, texto string) (*dto.ProcesoResponse, error) {
	if len(strings.TrimSpace(texto)) < 3 {
		return nil, fmt.Errorf("%w: el texto es demasiado corto", ErrEntradaInvalida)
	}
	return s.procesarTextoNormalizado(ctx, texto)
}

// procesarTextoNormalizado is the shared tail: supplier resolution, candidate
// extraction and tax computation over normalized text.
func (s *procesoService) procesarTextoNormalizado(ctx context.Context, texto string) (*dto.ProcesoResponse, error) {
	proveedor, err := s.resolver.Resolver(ctx, texto)
	if err != nil {
		log.Warn().Err(err).Msg("proceso: resolver proveedor")
	}

	productos, metodo := s.extractor.Extraer(ctx, texto, s.nombresConocidos(ctx))

	tasa := TasaEfectiva(proveedor, s.tasaBase)
	resumen := CalcularImpuestos(productos, tasa)

	return &dto.ProcesoResponse{
		Success:       true,
		Productos:     productos,
		Proveedor:     resumenProveedor(proveedor),
		Resumen:       resumen,
		TextoCompleto: texto,
		Metodo:        metodo,
	}, nil
}

func (s *procesoService) nombresConocidos(ctx context.Context) []string {
	stock, err := s.repo.CargarStock(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("proceso: cargar stock para hints")
		return nil
	}
	nombres := make([]string, 0, len(stock))
	for _, p := range stock {
		nombres = append(nombres, p.Nombre)
	}
	return nombres
}

func resumenProveedor(p *model.Proveedor) *dto.ProveedorResumen {
	if p == nil {
		return nil
	}
	return &dto.ProveedorResumen{ID: p.ID, Nombre: p.Nombre, Impuesto: p.Impuesto}
}

// ── Audio ────────────────────────────────────────────────────────────────────

var mimesAudio = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/m4a":   true,
	"audio/mp4":   true,
	"audio/webm":  true,
	"audio/flac":  true,
}

// palabrasInventario gates transcripts: short ones must mention at least one
// of these to be treated as an inventory instruction.
var palabrasInventario = []string{
	"producto", "productos", "llegaron", "llego", "llegó", "entraron", "entro", "entró",
	"salieron", "salio", "salió", "stock", "inventario", "mercaderia", "mercadería",
	"cantidad", "unidades", "cajas", "latas", "botellas", "paquetes",
	"twistos", "smirnoff", "coca", "sprite", "yogur", "leche", "pan",
}

// ValidarTranscripcion rejects transcripts that cannot plausibly describe an
// inventory movement: empty/too short, a single word, or — for transcripts
// under four words — no inventory-domain keyword at all.
func ValidarTranscripcion(texto string) error {
	limpio := strings.TrimSpace(texto)
	if len(limpio) < 5 {
		return fmt.Errorf("%w: la transcripcion es demasiado corta o el audio esta en silencio", ErrEntradaInvalida)
	}
	palabras := strings.Fields(limpio)
	if len(palabras) < 2 {
		return fmt.Errorf("%w: la transcripcion no contiene suficiente informacion", ErrEntradaInvalida)
	}

	bajo := strings.ToLower(limpio)
	for _, palabra := range palabrasInventario {
		if strings.Contains(bajo, palabra) {
			return nil
		}
	}
	if len(palabras) >= 4 {
		return nil
	}
	return fmt.Errorf("%w: el audio no parece contener informacion sobre productos o inventario. Texto detectado: %q",
		ErrEntradaInvalida, limpio)
}

func (s *procesoService) ProcesarAudio(ctx context.Context, audio []byte, mimeType, nombreArchivo string) (*dto.AudioResponse, error) {
	if !mimesAudio[mimeType] {
		return nil, fmt.Errorf("%w: formato de audio no soportado: %s", ErrEntradaInvalida, mimeType)
	}
	if len(audio) > audioMaxBytes {
		return nil, fmt.Errorf("%w: el audio supera el limite de 25MB", ErrEntradaInvalida)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: el archivo de audio esta vacio", ErrEntradaInvalida)
	}
	if s.ia == nil {
		return nil, ErrTranscripcionNoDisponible
	}

	transcripcion, err := s.ia.Transcribir(ctx, audio, nombreArchivo)
	if err != nil {
		return nil, fmt.Errorf("transcribir audio: %w", err)
	}
	if err := ValidarTranscripcion(transcripcion); err != nil {
		return nil, err
	}

	stock, err := s.repo.CargarStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar stock: %w", err)
	}
	proveedores, err := s.repo.CargarProveedores(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar proveedores: %w", err)
	}

	resp := &dto.AudioResponse{Success: true, Transcripcion: transcripcion}

	analisis, err := s.ia.AnalizarEntradaInventario(ctx, transcripcion, stock, proveedores)
	if err == nil {
		resp.Productos = analisis.Productos
		resp.ProveedorDetectado = analisis.ProveedorDetectado
		resp.Analisis = analisis.Analisis
		resp.Metodo = MetodoIA
	} else {
		// Degrade to the deterministic tail: dictionary extraction plus the
		// keyword matcher, flags derived from the resulting partition.
		log.Warn().Err(err).Msg("proceso: analisis IA fallo, se usa el camino deterministico")
		detectados := ExtraerFallback(transcripcion)
		particion, _ := s.matcher.Match(ctx, detectados, stock)
		resp.Productos = productosDesdeParticion(particion)
		resp.Metodo = MetodoFallback
	}

	proveedor, err := s.resolver.Resolver(ctx, transcripcion)
	if err != nil {
		log.Warn().Err(err).Msg("proceso: resolver proveedor de audio")
	}
	if resp.ProveedorDetectado == "" && proveedor != nil {
		resp.ProveedorDetectado = proveedor.Nombre
	}
	resp.Proveedor = resumenProveedor(proveedor)
	resp.Resumen = CalcularImpuestos(resp.Productos, TasaEfectiva(proveedor, s.tasaBase))

	return resp, nil
}

// productosDesdeParticion flattens a partition back into flagged candidates,
// the shape the audio response promises.
func productosDesdeParticion(p *model.Particion) []model.ProductoDetectado {
	productos := make([]model.ProductoDetectado, 0, p.Total())
	for _, a := range p.Actualizaciones {
		id := a.StockID
		productos = append(productos, model.ProductoDetectado{
			Nombre:     a.StockNombre,
			Cantidad:   a.Cantidad,
			Accion:     a.Accion,
			Confianza:  confianzaFallback,
			ProductoID: &id,
		})
	}
	for _, n := range p.Nuevos {
		productos = append(productos, model.ProductoDetectado{
			Nombre:             n.Nombre,
			Cantidad:           n.Cantidad,
			Accion:             n.Accion,
			Confianza:          confianzaFallback,
			EsNuevo:            true,
			PrecioSinImpuestos: n.PrecioSinImpuestos,
		})
	}
	return productos
}

// ── Ledger apply ─────────────────────────────────────────────────────────────

// ActualizarStock matches (when needed) and applies confirmed detections.
// Entries carrying match flags skip the matcher: the client already reviewed
// them.
func (s *procesoService) ActualizarStock(ctx context.Context, productos []model.ProductoDetectado) (*ResultadoAplicacion, error) {
	stock, err := s.repo.CargarStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargar stock: %w", err)
	}

	var particion *model.Particion
	if tienenFlags(productos) {
		particion = ParticionDesdeAnalisis(productos, stock)
	} else {
		particion, _ = s.matcher.Match(ctx, productos, stock)
	}

	return s.stock.Aplicar(ctx, particion)
}

func tienenFlags(productos []model.ProductoDetectado) bool {
	for i := range productos {
		if productos[i].EsNuevo || productos[i].ProductoID != nil {
			return true
		}
	}
	return false
}
