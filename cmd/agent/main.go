// Agente de impresión: corre junto a la impresora de etiquetas, reclama
// trabajos de la cola vía la API y envía el ZPL crudo por TCP al puerto raw
// de la impresora. Reporta el resultado con un ack (sent o error).
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/subosito/gotenv"

	"github.com/jhoicas/picking-api/internal/application/dto"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/pkg/config"
	"github.com/jhoicas/picking-api/pkg/logger"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.LoadAgent()
	if err != nil {
		panic("cargar configuración del agente: " + err.Error())
	}

	log := logger.New(logger.Config{Env: cfg.Env, Level: "info"})
	log = logger.Component(log, "print-agent")
	log.Info().
		Str("api", cfg.APIURL).
		Str("printer", cfg.PrinterName).
		Str("printer_addr", cfg.PrinterAddr).
		Msg("agente de impresión iniciado")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 15 * time.Second}
	ticker := time.NewTicker(cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("agente detenido")
			return
		case <-ticker.C:
			job, err := leaseNext(client, cfg)
			if err != nil {
				log.Warn().Err(err).Msg("lease fallido")
				continue
			}
			if job == nil {
				continue
			}

			log.Info().Str("job_id", job.ID).Int("copies", job.Copies).Msg("trabajo reclamado")
			if err := sendToPrinter(cfg.PrinterAddr, job.Payload, job.Copies); err != nil {
				log.Error().Err(err).Str("job_id", job.ID).Msg("envío a impresora fallido")
				ackErr := ack(client, cfg, job.ID, entity.PrintStatusError, err.Error())
				if ackErr != nil {
					log.Warn().Err(ackErr).Str("job_id", job.ID).Msg("ack de error fallido")
				}
				continue
			}
			if err := ack(client, cfg, job.ID, entity.PrintStatusSent, ""); err != nil {
				log.Warn().Err(err).Str("job_id", job.ID).Msg("ack de sent fallido")
				continue
			}
			log.Info().Str("job_id", job.ID).Msg("etiqueta impresa")
		}
	}
}

// leaseNext reclama el siguiente trabajo elegible. Devuelve nil cuando la cola
// está vacía (204).
func leaseNext(client *http.Client, cfg *config.AgentConfig) (*dto.PrintJobResponse, error) {
	url := fmt.Sprintf("%s/api/print/jobs/lease?printer=%s", cfg.APIURL, cfg.PrinterName)
	req, err := http.NewRequest(http.MethodPost, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusNoContent:
		return nil, nil
	case http.StatusOK:
		var job dto.PrintJobResponse
		if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
			return nil, fmt.Errorf("decodificar trabajo: %w", err)
		}
		return &job, nil
	default:
		return nil, fmt.Errorf("lease: status %d", resp.StatusCode)
	}
}

// ack reporta el resultado del envío físico.
func ack(client *http.Client, cfg *config.AgentConfig, jobID, status, cause string) error {
	body, err := json.Marshal(dto.PrintAckRequest{Status: status, Error: cause})
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/api/print/jobs/%s/ack", cfg.APIURL, jobID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ack: status %d", resp.StatusCode)
	}
	return nil
}

// sendToPrinter abre una conexión TCP al puerto raw de la impresora y escribe
// el ZPL una vez por copia.
func sendToPrinter(addr, payload string, copies int) error {
	if copies < 1 {
		copies = 1
	}
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return fmt.Errorf("conectar impresora %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	for i := 0; i < copies; i++ {
		if _, err := conn.Write([]byte(payload)); err != nil {
			return fmt.Errorf("escribir ZPL (copia %d): %w", i+1, err)
		}
	}
	return nil
}
