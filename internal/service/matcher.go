package service

// matcher.go — reconciliation of candidate line-items against the catalog.
// Matching is strict by design: brand, product type, variant AND size must
// all agree, and any doubt resolves to "nuevo". The collaborator path is
// advisory only — its partition is re-validated entry by entry, and the
// completeness invariant (every candidate lands in exactly one list) is
// restored here, never assumed.

import (
	"context"
	"strings"
	"unicode"

	"github.com/giulianopoliti/stockai/internal/model"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog/log"
)

type MatcherService interface {
	// Match partitions the candidates into catalog updates and new products.
	// The second return value reports which path produced the partition.
	Match(ctx context.Context, detectados []model.ProductoDetectado, stock []model.ProductoStock) (*model.Particion, string)
}

type matcherService struct {
	ia ColaboradorIA // nil when no collaborator is configured
}

func NewMatcherService(ia ColaboradorIA) MatcherService {
	return &matcherService{ia: ia}
}

func (s *matcherService) Match(ctx context.Context, detectados []model.ProductoDetectado, stock []model.ProductoStock) (*model.Particion, string) {
	if len(detectados) == 0 {
		return &model.Particion{Actualizaciones: []model.Actualizacion{}, Nuevos: []model.ProductoNuevo{}}, MetodoFallback
	}

	if s.ia != nil {
		particion, err := s.ia.MatchearInventario(ctx, detectados, stock)
		if err == nil {
			validada := validarParticion(particion, detectados, stock)
			log.Debug().
				Int("actualizaciones", len(validada.Actualizaciones)).
				Int("nuevos", len(validada.Nuevos)).
				Msg("matcher: particion IA validada")
			return validada, MetodoIA
		}
		log.Warn().Err(err).Msg("matcher: IA fallo, se usa el matcher deterministico")
	}
	return matchDeterministico(detectados, stock), MetodoFallback
}

// ── Collaborator partition validation ────────────────────────────────────────

// validarParticion rebuilds the collaborator's partition from the candidate
// list so completeness holds regardless of what came back: each candidate is
// looked up by name among the collaborator's entries; entries pointing at
// nonexistent catalog ids demote to nuevos; candidates the collaborator
// ignored are appended as nuevos; entries for products never detected are
// dropped.
func validarParticion(p *model.Particion, detectados []model.ProductoDetectado, stock []model.ProductoStock) *model.Particion {
	idsValidos := make(map[int]bool, len(stock))
	for _, s := range stock {
		idsValidos[s.ID] = true
	}

	porNombre := make(map[string]*model.Actualizacion, len(p.Actualizaciones))
	for i := range p.Actualizaciones {
		a := &p.Actualizaciones[i]
		porNombre[strings.ToLower(a.ProductoDetectado)] = a
	}
	nuevosPorNombre := make(map[string]*model.ProductoNuevo, len(p.Nuevos))
	for i := range p.Nuevos {
		n := &p.Nuevos[i]
		nuevosPorNombre[strings.ToLower(n.Nombre)] = n
	}

	out := &model.Particion{
		Actualizaciones: make([]model.Actualizacion, 0, len(detectados)),
		Nuevos:          make([]model.ProductoNuevo, 0),
	}
	for i := range detectados {
		d := &detectados[i]
		clave := strings.ToLower(d.Nombre)

		if a, ok := porNombre[clave]; ok && idsValidos[a.StockID] {
			act := *a
			if act.Cantidad <= 0 {
				act.Cantidad = d.Cantidad
			}
			if act.Accion != model.AccionSalida {
				act.Accion = d.AccionONormal()
			}
			out.Actualizaciones = append(out.Actualizaciones, act)
			continue
		}

		nuevo := model.ProductoNuevo{
			Nombre:             d.Nombre,
			Cantidad:           d.Cantidad,
			Accion:             d.AccionONormal(),
			PrecioSinImpuestos: d.PrecioSinImpuestos,
		}
		if n, ok := nuevosPorNombre[clave]; ok && n.PrecioSinImpuestos != nil {
			nuevo.PrecioSinImpuestos = n.PrecioSinImpuestos
		}
		out.Nuevos = append(out.Nuevos, nuevo)
	}
	return out
}

// ── Deterministic matcher ────────────────────────────────────────────────────

// matchDeterministico is the collaborator-free path: token overlap against
// catalog names with a conservative bar. Doubt means nuevo.
func matchDeterministico(detectados []model.ProductoDetectado, stock []model.ProductoStock) *model.Particion {
	out := &model.Particion{
		Actualizaciones: make([]model.Actualizacion, 0, len(detectados)),
		Nuevos:          make([]model.ProductoNuevo, 0),
	}
	for i := range detectados {
		d := &detectados[i]

		var objetivo *model.ProductoStock
		for j := range stock {
			if nombresCoinciden(d.Nombre, stock[j].Nombre) {
				objetivo = &stock[j]
				break
			}
		}
		if objetivo != nil {
			out.Actualizaciones = append(out.Actualizaciones, model.Actualizacion{
				ProductoDetectado: d.Nombre,
				StockID:           objetivo.ID,
				StockNombre:       objetivo.Nombre,
				Cantidad:          d.Cantidad,
				Accion:            d.AccionONormal(),
			})
			continue
		}
		out.Nuevos = append(out.Nuevos, model.ProductoNuevo{
			Nombre:             d.Nombre,
			Cantidad:           d.Cantidad,
			Accion:             d.AccionONormal(),
			PrecioSinImpuestos: d.PrecioSinImpuestos,
		})
	}
	return out
}

// nombresCoinciden applies the strict matching policy to two product names.
// Specification tokens (anything carrying a digit: 95G, 500ML, 2L) must agree
// as exact sets — a different weight or volume is a different product. The
// remaining word tokens must all be accounted for in the other name, with
// fuzzy containment absorbing accents and minor spelling drift.
func nombresCoinciden(a, b string) bool {
	palabrasA, especA := tokenizarNombre(a)
	palabrasB, especB := tokenizarNombre(b)

	if len(especA) != len(especB) {
		return false
	}
	for tok := range especA {
		if !especB[tok] {
			return false
		}
	}

	for _, tok := range palabrasA {
		if !tokenPresente(tok, palabrasB) {
			return false
		}
	}
	for _, tok := range palabrasB {
		if !tokenPresente(tok, palabrasA) {
			return false
		}
	}
	return true
}

// tokenizarNombre splits a product name into plain word tokens and a set of
// specification tokens (tokens containing at least one digit).
func tokenizarNombre(nombre string) ([]string, map[string]bool) {
	campos := strings.FieldsFunc(strings.ToLower(nombre), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	espec := make(map[string]bool)
	palabras := make([]string, 0, len(campos))
	for _, tok := range campos {
		if strings.ContainsFunc(tok, unicode.IsDigit) {
			espec[tok] = true
		} else {
			palabras = append(palabras, tok)
		}
	}
	return palabras, espec
}

func tokenPresente(tok string, candidatos []string) bool {
	for _, c := range candidatos {
		if fuzzy.MatchNormalizedFold(tok, c) || fuzzy.MatchNormalizedFold(c, tok) {
			return true
		}
	}
	return false
}

// ── Voice-analysis partition ─────────────────────────────────────────────────

// ParticionDesdeAnalisis converts candidates that already carry match flags
// (the voice-note analysis output) into a partition, re-validating every
// claimed target id against the catalog. Invalid or missing targets demote
// to nuevos.
func ParticionDesdeAnalisis(productos []model.ProductoDetectado, stock []model.ProductoStock) *model.Particion {
	nombres := make(map[int]string, len(stock))
	for _, s := range stock {
		nombres[s.ID] = s.Nombre
	}

	out := &model.Particion{
		Actualizaciones: make([]model.Actualizacion, 0, len(productos)),
		Nuevos:          make([]model.ProductoNuevo, 0),
	}
	for i := range productos {
		p := &productos[i]
		if !p.EsNuevo && p.ProductoID != nil {
			if nombre, ok := nombres[*p.ProductoID]; ok {
				out.Actualizaciones = append(out.Actualizaciones, model.Actualizacion{
					ProductoDetectado: p.Nombre,
					StockID:           *p.ProductoID,
					StockNombre:       nombre,
					Cantidad:          p.Cantidad,
					Accion:            p.AccionONormal(),
				})
				continue
			}
		}
		out.Nuevos = append(out.Nuevos, model.ProductoNuevo{
			Nombre:             p.Nombre,
			Cantidad:           p.Cantidad,
			Accion:             p.AccionONormal(),
			PrecioSinImpuestos: p.PrecioSinImpuestos,
		})
	}
	return out
}
