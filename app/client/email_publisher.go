package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// EmailEvent es el JSON que se publica para que el servicio de correo lo despache.
type EmailEvent struct {
	Para       string    `json:"to"`
	Asunto     string    `json:"subject"`
	Cuerpo     string    `json:"body"`
	Enlace     string    `json:"link,omitempty"`
	Prioridad  string    `json:"priority"`
	Referencia string    `json:"reference"` // id de la notificación
	EmitidoEn  time.Time `json:"emitted_at"`
}

// EmailPublisher publica eventos de correo en NATS (subject notificaciones.email
// por defecto). Con conexión nil queda deshabilitado y Publish no hace nada.
type EmailPublisher struct {
	nc      *nats.Conn
	subject string
	log     zerolog.Logger
}

// ConnectNATS abre la conexión. url vacío retorna nil sin error (correo deshabilitado).
func ConnectNATS(url string, log zerolog.Logger) (*nats.Conn, error) {
	if url == "" {
		log.Warn().Msg("NATS_URL vacío: el envío de correos queda deshabilitado")
		return nil, nil
	}
	nc, err := nats.Connect(url,
		nats.Name("ppda-seguimiento-backend"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats: desconectado")
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("conexión a nats: %w", err)
	}
	return nc, nil
}

// CerrarNATS drena la conexión al apagar. Con nc nil no hace nada.
func CerrarNATS(nc *nats.Conn, log zerolog.Logger) {
	if nc == nil {
		return
	}
	drenar(nc, log)
}

func drenar(c interface{ Drain() error }, log zerolog.Logger) {
	if err := c.Drain(); err != nil {
		log.Warn().Err(err).Msg("nats: no se pudo drenar la conexión")
	}
}

func NewEmailPublisher(nc *nats.Conn, subject string, log zerolog.Logger) *EmailPublisher {
	return &EmailPublisher{nc: nc, subject: subject, log: log}
}

var errSinConexion = errors.New("nats: sin conexión")

// Publish serializa y publica el evento. No espera confirmación del consumidor.
func (p *EmailPublisher) Publish(ctx context.Context, ev EmailEvent) error {
	if p.nc == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.nc.IsClosed() {
		return errSinConexion
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publicar en %s: %w", p.subject, err)
	}

	p.log.Debug().
		Str("subject", p.subject).
		Str("referencia", ev.Referencia).
		Msg("evento de correo publicado")
	return nil
}
