package client

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

const programDataPrefix = "Program data: "

// ParseEvents decodes the program events in a transaction's log messages. Lines that are not
// program data or carry another program's events are skipped.
func ParseEvents(logs []string) []presalegen.Event {
	var events []presalegen.Event
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, programDataPrefix)
		if !ok {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			continue
		}
		ev, err := presalegen.ParseEvent(data)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events
}

// GetTransactionEvents fetches a confirmed transaction and returns the events it emitted.
func (m *PresaleFactory) GetTransactionEvents(ctx context.Context, signature solana.Signature) ([]presalegen.Event, error) {
	maxVersion := uint64(0)
	out, err := retry(ctx, m, func() (*rpc.GetTransactionResult, error) {
		return m.rpcClient.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
			Commitment:                     m.commitment,
			MaxSupportedTransactionVersion: &maxVersion,
		})
	})
	if err != nil {
		return nil, notFound("transaction", err)
	}
	if out == nil || out.Meta == nil {
		return nil, fmt.Errorf("transaction %s has no metadata", signature)
	}
	return ParseEvents(out.Meta.LogMessages), nil
}

// SubscribeEvents streams the events of successful program transactions to sink until ctx is
// done. Sink errors are logged and do not stop the stream.
func (m *PresaleFactory) SubscribeEvents(ctx context.Context, sink func(context.Context, presalegen.Event) error) error {
	if m.wsClient == nil {
		return errors.New("event subscription needs a websocket client")
	}
	sub, err := m.wsClient.LogsSubscribeMentions(presalegen.ProgramID, m.commitment)
	if err != nil {
		return fmt.Errorf("subscribe program logs: %w", err)
	}
	defer sub.Unsubscribe()

	m.logger.Info("subscribed to program logs", zap.Stringer("program", presalegen.ProgramID))
	for {
		got, err := sub.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive program logs: %w", err)
		}
		if got.Value.Err != nil {
			continue
		}
		for _, ev := range ParseEvents(got.Value.Logs) {
			if err := sink(ctx, ev); err != nil {
				m.logger.Warn("event sink failed",
					zap.String("event", ev.EventName()),
					zap.Stringer("signature", got.Value.Signature),
					zap.Error(err))
			}
		}
	}
}
