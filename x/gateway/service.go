// Package gateway turns timeline intents into signed ledger documents
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/mjtimeline/client"
	"github.com/totegamma/mjtimeline/core"
)

var tracer = otel.Tracer("gateway")

const fallbackPollInterval = 500 * time.Millisecond

type service struct {
	client client.Client
	wallet core.Wallet
	config core.Config
}

// NewService creates a new ledger gateway
func NewService(client client.Client, wallet core.Wallet, config core.Config) core.GatewayService {
	return &service{
		client,
		wallet,
		config,
	}
}

// Execute signs the intent, commits it and blocks until the ledger settles it
func (s *service) Execute(ctx context.Context, intent core.Intent) (core.Receipt, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Service.Execute")
	defer span.End()

	span.SetAttributes(attribute.String("intent", intent.Kind.String()))

	if !s.wallet.IsConnected() {
		return core.Receipt{}, core.NewErrorNotConnected()
	}
	signer := s.wallet.CurrentAccount()
	if signer == "" {
		return core.Receipt{}, core.NewErrorNotConnected()
	}

	if intent.Kind != core.IntentInitializeTimeline && intent.Timeline == "" {
		return core.Receipt{}, core.NewErrorNoTimeline()
	}

	document, err := BuildDocument(signer, intent, time.Now())
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, core.NewErrorGateway(err)
	}

	signature, err := s.wallet.Sign(ctx, document)
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, core.NewErrorGateway(errors.Wrap(err, "failed to sign document"))
	}

	receipt, err := s.client.Commit(ctx, core.Commit{
		Document:  string(document),
		Signature: signature,
	})
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, core.NewErrorGateway(err)
	}

	receipt, err = s.awaitSettlement(ctx, receipt)
	if err != nil {
		span.RecordError(err)
		return core.Receipt{}, core.NewErrorGateway(err)
	}

	span.SetAttributes(attribute.String("digest", receipt.Digest))

	if receipt.Status == core.ReceiptStatusFailure {
		reason := receipt.Error
		if reason == "" {
			reason = "transaction " + receipt.Digest + " failed"
		}
		err = errors.New(reason)
		span.RecordError(err)
		return core.Receipt{}, core.NewErrorGateway(err)
	}

	slog.InfoContext(
		ctx,
		fmt.Sprintf("%s settled: %s", intent.Kind, receipt.Digest),
		slog.String("module", "gateway"),
	)

	return receipt, nil
}

// GetContainer queries the current state of a timeline container
func (s *service) GetContainer(ctx context.Context, id string) (core.ContainerState, error) {
	ctx, span := tracer.Start(ctx, "Gateway.Service.GetContainer")
	defer span.End()

	state, err := s.client.GetContainer(ctx, id)
	if err != nil {
		span.RecordError(err)
		return core.ContainerState{}, core.NewErrorGateway(err)
	}

	return state, nil
}

func (s *service) awaitSettlement(ctx context.Context, receipt core.Receipt) (core.Receipt, error) {
	if receipt.Final() {
		return receipt, nil
	}
	if receipt.Digest == "" {
		return receipt, errors.New("ledger accepted the document without a digest")
	}

	interval := s.config.PollInterval
	if interval <= 0 {
		interval = fallbackPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !receipt.Final() {
		select {
		case <-ctx.Done():
			return receipt, ctx.Err()
		case <-ticker.C:
		}

		next, err := s.client.GetReceipt(ctx, receipt.Digest)
		if err != nil {
			if ctx.Err() != nil {
				return receipt, ctx.Err()
			}
			// the node may not have indexed the digest yet
			slog.DebugContext(
				ctx,
				fmt.Sprintf("receipt %s not available: %v", receipt.Digest, err),
				slog.String("module", "gateway"),
			)
			continue
		}
		receipt = next
	}

	return receipt, nil
}

// BuildDocument serializes the signed document for the intent
func BuildDocument(signer string, intent core.Intent, signedAt time.Time) ([]byte, error) {
	id := xid.New().String()
	docType := core.DocumentType(intent.Kind)

	switch intent.Kind {
	case core.IntentInitializeTimeline:
		return json.Marshal(core.InitializeDocument{
			DocumentBase: core.DocumentBase[any]{
				ID:       id,
				Signer:   signer,
				Type:     docType,
				SignedAt: signedAt,
			},
		})
	case core.IntentCreatePost:
		return json.Marshal(core.PostDocument{
			DocumentBase: core.DocumentBase[core.PostBody]{
				ID:       id,
				Signer:   signer,
				Type:     docType,
				Timeline: intent.Timeline,
				Body:     core.PostBody{Content: intent.Content},
				SignedAt: signedAt,
			},
		})
	case core.IntentLikePost, core.IntentUnlikePost, core.IntentDeletePost:
		return json.Marshal(core.TargetDocument{
			DocumentBase: core.DocumentBase[any]{
				ID:       id,
				Signer:   signer,
				Type:     docType,
				Timeline: intent.Timeline,
				SignedAt: signedAt,
			},
			Target: intent.PostID,
		})
	case core.IntentAddComment:
		return json.Marshal(core.CommentDocument{
			DocumentBase: core.DocumentBase[core.CommentBody]{
				ID:       id,
				Signer:   signer,
				Type:     docType,
				Timeline: intent.Timeline,
				Body:     core.CommentBody{Content: intent.Content},
				SignedAt: signedAt,
			},
			Target: intent.PostID,
		})
	}

	return nil, fmt.Errorf("unknown intent: %s", intent.Kind)
}
