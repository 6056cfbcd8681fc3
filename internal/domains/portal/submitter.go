package portal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/filippo-ma/SolanaPortalFin/internal/domains/contracts"
	"github.com/filippo-ma/SolanaPortalFin/internal/platform/telemetry"
	"github.com/filippo-ma/SolanaPortalFin/pkg/models"
)

// Submitter validates gif submissions before they reach the chain: blank
// input is rejected locally and a wallet must be connected. The signer func
// is consulted per call so a connect that happens after construction counts.
type Submitter struct {
	machine *StateMachine
	signer  func() contracts.TransactionSigner
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

func NewSubmitter(machine *StateMachine, signer func() contracts.TransactionSigner, logger *slog.Logger, metrics *telemetry.Metrics) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		machine: machine,
		signer:  signer,
		logger:  logger.With(slog.String("component", "submitter")),
		metrics: metrics,
	}
}

func (s *Submitter) Submit(ctx context.Context, link string) (models.SubmitReceipt, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		s.metrics.RecordSubmission(contracts.KindEmptyInput)
		return models.SubmitReceipt{}, fmt.Errorf("submit: %w", contracts.ErrEmptyInput)
	}
	user := s.signer()
	if user == nil {
		s.metrics.RecordSubmission(contracts.KindNotConnected)
		return models.SubmitReceipt{}, fmt.Errorf("submit: %w", contracts.ErrNotConnected)
	}

	receipt, err := s.machine.Append(ctx, user, link)
	if err != nil {
		s.metrics.RecordSubmission(contracts.Kind(err))
		return models.SubmitReceipt{}, err
	}
	s.metrics.RecordSubmission(telemetry.OutcomeOK)
	s.logger.Info("gif submitted", slog.String("signature", receipt.Signature))
	return receipt, nil
}
