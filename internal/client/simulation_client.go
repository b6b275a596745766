// Package client talks to a running tracking server over HTTP. It backs the
// drive command, which ticks a remote simulation from outside the process.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"er-patient-tracking/internal/models"
	"er-patient-tracking/internal/service"
	"er-patient-tracking/internal/simulation"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrDeclined is returned when the server accepted a command but had nothing
// to do, such as a tick on a stopped simulation
var ErrDeclined = errors.New("request declined")

// envelope is the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Reason  string          `json:"reason"`
}

// SimulationClient calls the /api/simulation endpoints of a tracking server
type SimulationClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewSimulationClient creates a client for the server at baseURL
func NewSimulationClient(baseURL string, logger *zap.Logger) *SimulationClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SimulationClient{
		httpClient: client,
		logger:     logger,
	}
}

// Config fetches the simulation configuration document
func (c *SimulationClient) Config(ctx context.Context) (*models.Config, error) {
	var result envelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&result).
		Get("/api/simulation")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch simulation config: %w", err)
	}
	if err := checkEnvelope(resp, &result); err != nil {
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(result.Data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode simulation config: %w", err)
	}
	return &cfg, nil
}

// Execute posts a simulation command
func (c *SimulationClient) Execute(ctx context.Context, req service.ActionRequest) (*service.ActionResult, error) {
	var result envelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		SetError(&result).
		Post("/api/simulation")
	if err != nil {
		c.logger.Error("simulation API call failed",
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to call simulation API: %w", err)
	}
	if err := checkEnvelope(resp, &result); err != nil {
		return nil, err
	}

	var out service.ActionResult
	if err := json.Unmarshal(result.Data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", req.Action, err)
	}
	return &out, nil
}

// Tick runs one simulation step on the server
func (c *SimulationClient) Tick(ctx context.Context) (*simulation.TickResults, error) {
	out, err := c.Execute(ctx, service.ActionRequest{Action: service.ActionTick})
	if err != nil {
		return nil, err
	}
	if out.Results == nil {
		return &simulation.TickResults{}, nil
	}
	return out.Results, nil
}

// Drive ticks the remote simulation at its configured pace until ctx is
// cancelled. fallback is used while the configuration cannot be fetched.
func (c *SimulationClient) Drive(ctx context.Context, fallback time.Duration) error {
	c.logger.Info("driving remote simulation", zap.String("base_url", c.httpClient.BaseURL))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		wait := fallback
		cfg, err := c.Config(ctx)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn("failed to fetch simulation config", zap.Error(err))
		case cfg.Simulation.Running:
			wait = cfg.Simulation.TickInterval()
			results, err := c.Tick(ctx)
			switch {
			case errors.Is(err, ErrDeclined):
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.logger.Warn("remote tick failed", zap.Error(err))
			case len(results.Events) > 0:
				c.logger.Info("remote tick",
					zap.Int("admissions", results.Admissions),
					zap.Int("discharges", results.Discharges),
					zap.Int("study_progressions", results.StudyProgressions),
				)
			}
		default:
			wait = cfg.Simulation.TickInterval()
		}

		timer.Reset(wait)
	}
}

func checkEnvelope(resp *resty.Response, result *envelope) error {
	if resp.IsError() {
		msg := result.Error
		if msg == "" {
			msg = resp.Status()
		}
		return fmt.Errorf("simulation API error: %s (status: %d)", msg, resp.StatusCode())
	}
	if !result.Success {
		return fmt.Errorf("%w: %s", ErrDeclined, result.Reason)
	}
	return nil
}
