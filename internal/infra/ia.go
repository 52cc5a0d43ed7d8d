package infra

// ia.go — HTTP client for the external natural-language collaborator
// (OpenAI-compatible API). It covers the three structured operations the
// pipeline delegates: line-item extraction from invoice/free text, strict
// matching against the catalog snapshot, and the inventory analysis of voice
// transcripts. Every response is untrusted input: decorative code fences are
// stripped and the JSON is validated before anything reaches the services.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/normalizer"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	// ErrIANoDisponible marks the collaborator as unreachable (network error,
	// non-2xx, open circuit). Callers fall back to the deterministic path.
	ErrIANoDisponible = errors.New("colaborador IA no disponible")
	// ErrRespuestaIAInvalida marks output that is not structurally parseable.
	// Treated the same as unavailability: fallback, never a hard failure.
	ErrRespuestaIAInvalida = errors.New("respuesta IA no estructurada")
)

// IAClient talks to an OpenAI-compatible API.
type IAClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	cb         *CircuitBreaker
}

func NewIAClient(baseURL, apiKey, modelo string) *IAClient {
	return &IAClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      modelo,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		cb:         NewCircuitBreaker(DefaultCBConfig()),
	}
}

// ── Wire types ───────────────────────────────────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// productoIA mirrors one item of the collaborator's JSON. Prices may arrive
// as numbers or as strings in any of several money formats, so they are kept
// raw and pushed through the normalizer.
type productoIA struct {
	Nombre         string          `json:"nombre"`
	Cantidad       int             `json:"cantidad"`
	Precio         json.RawMessage `json:"precio_sin_impuestos"`
	PrecioAlt      json.RawMessage `json:"precio"` // legacy field name, kept for compatibility
	Confianza      float64         `json:"confianza"`
	EsBonificacion bool            `json:"es_bonificacion"`
	Accion         string          `json:"accion"`
	EsNuevo        bool            `json:"es_nuevo"`
	ProductoID     *int            `json:"producto_id"`
}

// ── Chat plumbing ────────────────────────────────────────────────────────────

func (c *IAClient) chat(ctx context.Context, system, user string, maxTokens int) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.1,
		MaxTokens:   maxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("ia: marshal payload: %w", err)
	}

	var content string
	cbErr := c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		var parsed chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		if len(parsed.Choices) == 0 {
			return errors.New("respuesta sin choices")
		}
		content = parsed.Choices[0].Message.Content
		return nil
	})
	if cbErr != nil {
		if errors.Is(cbErr, ErrCircuitOpen) {
			return "", ErrIANoDisponible
		}
		return "", fmt.Errorf("%w: %v", ErrIANoDisponible, cbErr)
	}
	return content, nil
}

// LimpiarRespuestaJSON strips a leading/trailing decorative code fence
// (``` or ```json) from collaborator output. Collaborators are instructed to
// answer with bare JSON but routinely wrap it anyway.
func LimpiarRespuestaJSON(contenido string) string {
	s := strings.TrimSpace(contenido)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 && strings.EqualFold(strings.TrimSpace(s[:idx]), "json") {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// precioDetectado normalizes the raw price field of one collaborator item.
// A price that cannot be interpreted degrades to nil: the single field is
// dropped, never the whole item.
func precioDetectado(item productoIA) *decimal.Decimal {
	raw := item.Precio
	if len(raw) == 0 || string(raw) == "null" {
		raw = item.PrecioAlt
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	token := strings.Trim(string(raw), `"`)
	d, err := normalizer.NormalizarPrecio(token)
	if err != nil {
		log.Debug().Str("precio", token).Msg("ia: precio no interpretable, se descarta el campo")
		return nil
	}
	if d.IsZero() {
		return nil
	}
	return &d
}

// ── Extraction ───────────────────────────────────────────────────────────────

const sistemaExtractor = "Sos un experto en procesamiento de facturas de distribuidoras argentinas. " +
	"Extraes TODOS los productos con especificaciones completas (gramaje, volumen, sabor, presentacion) " +
	"y precios unitarios sin impuestos. Respondes unicamente con JSON valido."

const promptExtraccion = `Analiza el texto de la factura y extrae todos los productos vendidos.

TEXTO DE LA FACTURA:
%s

PRODUCTOS CONOCIDOS EN NUESTRO INVENTARIO:
%s

REGLAS:
- Incluye SIEMPRE gramajes (95G, 40G) y volumenes (500ML, 2L) en el nombre.
- Cada especificacion diferente es un producto diferente.
- El precio es unitario y SIN impuestos; si hay precio total, dividilo por la cantidad.
- Formatos de precio posibles: "$1,250.50", "1250,50", "1.250,50".
- Una linea bonificada (importe $0, leyenda BONIF/BONIFICACION) lleva
  "es_bonificacion": true; conserva su precio unitario de lista si figura.

FORMATO DE RESPUESTA (JSON):
{"productos": [{"nombre": "MARCA PRODUCTO ESPECIFICACION", "cantidad": 1, "precio_sin_impuestos": 0.0, "es_bonificacion": false, "confianza": 95}]}

Responde SOLO con el JSON valido, sin explicaciones adicionales.`

// ExtraerProductos asks the collaborator for candidate line-items from
// invoice or free text. conocidos is the list of catalog product names given
// as mapping hints.
func (c *IAClient) ExtraerProductos(ctx context.Context, texto string, conocidos []string) ([]model.ProductoDetectado, error) {
	user := fmt.Sprintf(promptExtraccion, texto, strings.Join(conocidos, ", "))
	content, err := c.chat(ctx, sistemaExtractor, user, 4000)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Productos []productoIA `json:"productos"`
	}
	if err := json.Unmarshal([]byte(LimpiarRespuestaJSON(content)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespuestaIAInvalida, err)
	}

	productos := make([]model.ProductoDetectado, 0, len(parsed.Productos))
	for _, item := range parsed.Productos {
		if item.Nombre == "" || item.Cantidad <= 0 {
			continue
		}
		p := model.ProductoDetectado{
			Nombre:         item.Nombre,
			Cantidad:       item.Cantidad,
			Confianza:      item.Confianza,
			EsBonificacion: item.EsBonificacion,
		}
		p.PrecioSinImpuestos = precioDetectado(item)
		productos = append(productos, p)
	}
	return productos, nil
}

// ── Matching ─────────────────────────────────────────────────────────────────

const sistemaMatcher = "Sos un experto en matching de productos para inventarios. " +
	"Sos muy preciso y conservador: ante la duda un producto es NUEVO. Respondes unicamente con JSON valido."

const promptMatching = `Hace MATCHING EXACTO entre los productos detectados y el stock existente.

PRODUCTOS DETECTADOS:
%s

PRODUCTOS EN STOCK:
%s

CRITERIOS DE COINCIDENCIA EXACTA — deben coincidir los cuatro:
marca, tipo de producto, sabor/variante Y tamano (95G, 500ML, 2L...).
"TWISTOS MINIT JAMON 95G" NO es "TWISTOS MINIT QUESO 95G".
"COCA COLA 500ML" NO es "COCA COLA 2L".
Conserva SIEMPRE los precios originales de los productos detectados.

FORMATO DE RESPUESTA (JSON):
{"actualizaciones": [{"producto_detectado": "nombre", "stock_id": 1, "stock_nombre": "nombre en stock", "cantidad": 1, "accion": "entrada"}],
 "nuevos": [{"nombre": "nombre", "cantidad": 1, "accion": "entrada", "precio_sin_impuestos": null}]}

Responde SOLO con el JSON valido.`

// MatchearInventario asks the collaborator to partition detected candidates
// into updates of existing records and new products. The caller re-validates
// the partition — this output is advisory, not trusted.
func (c *IAClient) MatchearInventario(ctx context.Context, detectados []model.ProductoDetectado, stock []model.ProductoStock) (*model.Particion, error) {
	var det strings.Builder
	for _, p := range detectados {
		precio := "N/A"
		if p.PrecioSinImpuestos != nil {
			precio = p.PrecioSinImpuestos.String()
		}
		fmt.Fprintf(&det, "- %s (cantidad: %d, accion: %s, precio: %s)\n", p.Nombre, p.Cantidad, p.AccionONormal(), precio)
	}
	inventario := "NO HAY PRODUCTOS EN STOCK"
	if len(stock) > 0 {
		var inv strings.Builder
		for _, s := range stock {
			fmt.Fprintf(&inv, "- ID:%d %s (stock actual: %d)\n", s.ID, s.Nombre, s.Stock)
		}
		inventario = inv.String()
	}

	content, err := c.chat(ctx, sistemaMatcher, fmt.Sprintf(promptMatching, det.String(), inventario), 2000)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Actualizaciones []struct {
			ProductoDetectado string `json:"producto_detectado"`
			StockID           int    `json:"stock_id"`
			StockNombre       string `json:"stock_nombre"`
			Cantidad          int    `json:"cantidad"`
			Accion            string `json:"accion"`
		} `json:"actualizaciones"`
		Nuevos []productoIA `json:"nuevos"`
	}
	if err := json.Unmarshal([]byte(LimpiarRespuestaJSON(content)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespuestaIAInvalida, err)
	}

	particion := &model.Particion{
		Actualizaciones: make([]model.Actualizacion, 0, len(parsed.Actualizaciones)),
		Nuevos:          make([]model.ProductoNuevo, 0, len(parsed.Nuevos)),
	}
	for _, a := range parsed.Actualizaciones {
		particion.Actualizaciones = append(particion.Actualizaciones, model.Actualizacion{
			ProductoDetectado: a.ProductoDetectado,
			StockID:           a.StockID,
			StockNombre:       a.StockNombre,
			Cantidad:          a.Cantidad,
			Accion:            a.Accion,
		})
	}
	for _, n := range parsed.Nuevos {
		nuevo := model.ProductoNuevo{Nombre: n.Nombre, Cantidad: n.Cantidad, Accion: n.Accion}
		nuevo.PrecioSinImpuestos = precioDetectado(n)
		particion.Nuevos = append(particion.Nuevos, nuevo)
	}
	return particion, nil
}

// ── Voice-note analysis ──────────────────────────────────────────────────────

const sistemaAnalisis = "Sos un asistente experto en gestion de inventarios. Analizas texto de entrada/salida " +
	"de mercaderia y haces matching con los productos existentes. Solo procesas texto que claramente mencione " +
	"productos o inventario y no inventas productos no mencionados. Respondes unicamente con JSON valido."

const promptAnalisis = `TEXTO DE ENTRADA:
%s

INVENTARIO ACTUAL:
%s

PROVEEDORES REGISTRADOS:
%s

Identifica que productos llegaron o salieron, cantidades exactas, la accion
("entrada" o "salida") y la distribuidora mencionada. Si un producto coincide
con uno existente usa su ID exacto; si no, marcalo con "es_nuevo": true.

FORMATO DE RESPUESTA (JSON):
{"productos": [{"nombre": "...", "cantidad": 1, "accion": "entrada", "confianza": 90, "es_nuevo": false, "producto_id": 1}],
 "proveedor_detectado": "nombre o vacio",
 "analisis_ia": "explicacion breve"}

Responde SOLO con el JSON valido.`

// AnalizarEntradaInventario runs the matching-variant extraction over a voice
// transcript: candidates come back already flagged entrada/salida and
// matched/new against the provided catalog snapshot.
func (c *IAClient) AnalizarEntradaInventario(ctx context.Context, texto string, stock []model.ProductoStock, proveedores []model.Proveedor) (*model.AnalisisInventario, error) {
	var inv strings.Builder
	for i, s := range stock {
		if i >= 50 { // keep the prompt bounded on large catalogs
			break
		}
		fmt.Fprintf(&inv, "ID: %d - %s - $%s - Stock: %d\n", s.ID, s.Nombre, s.PrecioBase.String(), s.Stock)
	}
	var prov strings.Builder
	for _, p := range proveedores {
		fmt.Fprintf(&prov, "- %s\n", p.Nombre)
	}

	content, err := c.chat(ctx, sistemaAnalisis, fmt.Sprintf(promptAnalisis, texto, inv.String(), prov.String()), 2000)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Productos          []productoIA `json:"productos"`
		ProveedorDetectado string       `json:"proveedor_detectado"`
		AnalisisIA         string       `json:"analisis_ia"`
	}
	if err := json.Unmarshal([]byte(LimpiarRespuestaJSON(content)), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRespuestaIAInvalida, err)
	}

	resultado := &model.AnalisisInventario{
		ProveedorDetectado: parsed.ProveedorDetectado,
		Analisis:           parsed.AnalisisIA,
	}
	for _, item := range parsed.Productos {
		if item.Nombre == "" || item.Cantidad <= 0 {
			continue
		}
		p := model.ProductoDetectado{
			Nombre:         item.Nombre,
			Cantidad:       item.Cantidad,
			Confianza:      item.Confianza,
			EsBonificacion: item.EsBonificacion,
			Accion:         item.Accion,
			EsNuevo:        item.EsNuevo,
			ProductoID:     item.ProductoID,
		}
		p.PrecioSinImpuestos = precioDetectado(item)
		resultado.Productos = append(resultado.Productos, p)
	}
	return resultado, nil
}

// ── Transcription ────────────────────────────────────────────────────────────

// Transcribir sends audio bytes to the transcription endpoint with the
// Spanish language hint and a domain vocabulary prompt for better accuracy on
// product names.
func (c *IAClient) Transcribir(ctx context.Context, audio []byte, nombreArchivo string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", nombreArchivo)
	if err != nil {
		return "", fmt.Errorf("ia: multipart: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("ia: multipart: %w", err)
	}
	_ = w.WriteField("model", "whisper-1")
	_ = w.WriteField("language", "es")
	_ = w.WriteField("prompt", "Productos, inventario, stock, mercaderia, llegaron, entraron, salieron")
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("ia: multipart: %w", err)
	}

	var texto string
	cbErr := c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		var parsed struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return err
		}
		texto = parsed.Text
		return nil
	})
	if cbErr != nil {
		if errors.Is(cbErr, ErrCircuitOpen) {
			return "", ErrIANoDisponible
		}
		return "", fmt.Errorf("%w: %v", ErrIANoDisponible, cbErr)
	}
	return strings.TrimSpace(texto), nil
}
