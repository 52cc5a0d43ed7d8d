package worker

// alerta_worker.go
// Processes critical-stock alert jobs from QueueAlertas: builds a summary of
// the records at or below their minimum-stock threshold and mails it to the
// configured operator address.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/giulianopoliti/stockai/internal/infra"
	"github.com/giulianopoliti/stockai/internal/model"

	"github.com/rs/zerolog/log"
)

// AlertaPayload is the job envelope sent to QueueAlertas.
type AlertaPayload struct {
	Criticos []model.ProductoStock `json:"criticos"`
}

// AlertaWorker mails critical-stock summaries via SMTP.
type AlertaWorker struct {
	mailer *infra.Mailer
	para   string // operator address
}

func NewAlertaWorker(mailer *infra.Mailer, para string) *AlertaWorker {
	return &AlertaWorker{mailer: mailer, para: para}
}

// Process renders and sends one alert email. Returns an error only for
// failures worth a DLQ entry; a missing recipient just skips.
func (w *AlertaWorker) Process(_ context.Context, raw json.RawMessage) error {
	var payload AlertaPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("alerta_worker: invalid payload")
		return nil
	}
	if w.para == "" {
		log.Warn().Msg("alerta_worker: no operator address configured — skipping")
		return nil
	}
	if len(payload.Criticos) == 0 {
		return nil
	}

	var cuerpo strings.Builder
	cuerpo.WriteString("Productos con stock critico:\n\n")
	for _, p := range payload.Criticos {
		fmt.Fprintf(&cuerpo, "- %s (codigo %s): stock %d, minimo %d\n",
			p.Nombre, p.Codigo, p.Stock, p.StockMinimo)
	}

	asunto := fmt.Sprintf("Alerta de stock: %d productos criticos", len(payload.Criticos))
	if err := w.mailer.SendAlerta(w.para, asunto, cuerpo.String()); err != nil {
		log.Error().Err(err).Str("to", w.para).Msg("alerta_worker: failed to send email")
		return err
	}
	log.Info().Int("criticos", len(payload.Criticos)).Msg("alerta_worker: alerta enviada")
	return nil
}
