package service

// resolver.go — supplier resolution over the catalog. Three tiers, applied in
// order, each one looser than the last: exact identity, configured aliases,
// word overlap. Supplier resolution is deliberately recall-oriented — billing
// the wrong tax rate once is cheaper than failing the whole run — which is
// why the last resort is "first registered supplier", never nil, as long as
// the catalog has at least one entry.

import (
	"context"
	"strings"

	"github.com/giulianopoliti/stockai/internal/model"
	"github.com/giulianopoliti/stockai/internal/repository"

	"github.com/rs/zerolog/log"
)

type ProveedorResolver interface {
	// Resolver picks the supplier the text most plausibly refers to.
	// Returns nil only when the catalog has no suppliers at all.
	Resolver(ctx context.Context, texto string) (*model.Proveedor, error)
	// Listar returns the full supplier catalog.
	Listar(ctx context.Context) ([]model.Proveedor, error)
}

type proveedorResolver struct {
	repo repository.CatalogoRepository
}

func NewProveedorResolver(repo repository.CatalogoRepository) ProveedorResolver {
	return &proveedorResolver{repo: repo}
}

func (s *proveedorResolver) Listar(ctx context.Context) ([]model.Proveedor, error) {
	return s.repo.CargarProveedores(ctx)
}

func (s *proveedorResolver) Resolver(ctx context.Context, texto string) (*model.Proveedor, error) {
	proveedores, err := s.repo.CargarProveedores(ctx)
	if err != nil {
		return nil, err
	}
	if len(proveedores) == 0 {
		return nil, nil
	}

	bajo := strings.ToLower(texto)

	// Tier 1: supplier name as substring, or CUIT verbatim.
	for i := range proveedores {
		p := &proveedores[i]
		if strings.Contains(bajo, strings.ToLower(p.Nombre)) {
			return p, nil
		}
		if p.CUIT != "" && strings.Contains(texto, p.CUIT) {
			return p, nil
		}
	}

	// Tier 2: alias scoring. Every alias found in the text adds its length to
	// the supplier's score, so longer (more specific) aliases dominate. The
	// strictly highest positive score wins; first registered breaks ties.
	var mejor *model.Proveedor
	mejorPuntaje := 0
	for i := range proveedores {
		p := &proveedores[i]
		puntaje := 0
		for _, alias := range p.Aliases {
			if alias != "" && strings.Contains(bajo, strings.ToLower(alias)) {
				puntaje += len(alias)
			}
		}
		if puntaje > mejorPuntaje {
			mejor = p
			mejorPuntaje = puntaje
		}
	}
	if mejor != nil {
		return mejor, nil
	}

	// Tier 3: loose word overlap between the supplier name and the text.
	palabrasTexto := strings.Fields(bajo)
	for i := range proveedores {
		p := &proveedores[i]
		for _, palabra := range strings.Fields(strings.ToLower(p.Nombre)) {
			if len(palabra) <= 2 {
				continue
			}
			if palabraCoincide(palabra, palabrasTexto) {
				return p, nil
			}
		}
	}

	// Last resort: first registered supplier.
	log.Debug().Msg("resolver: sin coincidencias, se usa el primer proveedor registrado")
	return &proveedores[0], nil
}

// palabraCoincide reports whether a supplier-name word loosely matches any
// word of the text: substring in either direction, or near-equal length.
// Deliberately loose — this tier only runs after name, CUIT and every alias
// already failed, and a wrong guess here is corrected by the fallback tier
// being the first supplier anyway.
func palabraCoincide(palabra string, palabrasTexto []string) bool {
	for _, w := range palabrasTexto {
		if strings.Contains(w, palabra) || strings.Contains(palabra, w) {
			return true
		}
		diff := len(palabra) - len(w)
		if diff < 0 {
			diff = -diff
		}
		if diff <= 2 {
			return true
		}
	}
	return false
}
