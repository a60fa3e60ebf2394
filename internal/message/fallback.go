package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Format selects the response detail level of a message fetch.
type Format string

// Formats consumed by the fallback chain.
const (
	FormatFull     Format = "full"
	FormatMinimal  Format = "minimal"
	FormatMetadata Format = "metadata"
)

// Fetcher retrieves a raw, undecoded message JSON document from the upstream
// API.
type Fetcher interface {
	FetchMessageRaw(ctx context.Context, id string, format Format, metadataHeaders []string) (json.RawMessage, error)
}

// StageRecorder counts which recovery stage produced each message.
type StageRecorder interface {
	RecordNormalization(stage string)
}

// fetchState names the stages of one logical message fetch. Later stages run
// only after earlier ones are confirmed to have failed.
type fetchState int

const (
	stateStandardFetch fetchState = iota
	statePatchRetry
	stateMinimalFetch
	stateMetadataMerge
	statePlaceholder
)

// internalDateField triggers the placeholder fallback: a message whose
// internalDate cannot be repaired is unrecoverable by refetching.
const internalDateField = "internalDate"

// metadataHeaderNames are the envelope headers requested during the metadata
// merge stage.
var metadataHeaderNames = []string{"From", "To", "Cc", "Subject", "Date"}

// Normalizer drives the message fetch fallback chain: standard fetch, patch
// retry, minimal-format refetch, metadata header merge, and as last resort a
// synthesized placeholder.
type Normalizer struct {
	fetcher Fetcher
	log     *zap.Logger
	metrics StageRecorder
}

// NewNormalizer creates a Normalizer fetching through f.
func NewNormalizer(f Fetcher, log *zap.Logger) *Normalizer {
	return &Normalizer{fetcher: f, log: log}
}

// SetMetrics attaches a normalization stage recorder.
func (n *Normalizer) SetMetrics(rec StageRecorder) {
	n.metrics = rec
}

// GetMessage fetches and normalizes one message, degrading through the
// fallback stages until a structurally valid message is produced or the
// failure is surfaced as a FormatError. Transport errors are returned
// immediately; retry policy belongs to the caller.
func (n *Normalizer) GetMessage(ctx context.Context, id string) (*EmailMessage, error) {
	state := stateStandardFetch

	// Carried across state transitions.
	var (
		obj         map[string]any
		originalErr *DecodeError
		patchedErr  *DecodeError
		minimalMsg  *EmailMessage
	)

	for {
		switch state {
		case stateStandardFetch:
			raw, err := n.fetcher.FetchMessageRaw(ctx, id, FormatFull, nil)
			if err != nil {
				return nil, fmt.Errorf("fetch message %s failed: %w", id, err)
			}

			if err := json.Unmarshal(raw, &obj); err != nil {
				n.record("failed")
				return nil, &DecodeError{Kind: KindMalformed, Err: err}
			}

			msg, derr := decodeStrict(obj)
			if derr == nil {
				n.record("ok")
				return EnsureRequiredFields(msg), nil
			}

			originalErr = derr
			state = statePatchRetry

		case statePatchRetry:
			n.log.Debug("message decode failed, patching",
				zap.String("message_id", id),
				zap.String("field", originalErr.Field),
			)

			Patch(obj)

			msg, derr := decodeStrict(obj)
			if derr == nil {
				n.record("patched")
				return EnsureRequiredFields(msg), nil
			}

			patchedErr = derr
			if originalErr.Field == internalDateField || patchedErr.Field == internalDateField {
				state = statePlaceholder
			} else {
				state = stateMinimalFetch
			}

		case stateMinimalFetch:
			n.log.Debug("patched decode failed, refetching in minimal format",
				zap.String("message_id", id),
			)

			msg, err := n.fetchAndRepair(ctx, id, FormatMinimal, nil)
			if err != nil {
				var ferr *FormatError
				if errors.As(err, &ferr) && ferr.FieldAffected(internalDateField) {
					state = statePlaceholder
					continue
				}
				n.record("failed")
				return nil, &FormatError{MessageID: id, OriginalErr: originalErr, PatchedErr: patchedErr}
			}

			if len(msg.Payload.Headers) > 0 {
				n.record("minimal")
				return EnsureRequiredFields(msg), nil
			}

			minimalMsg = msg
			state = stateMetadataMerge

		case stateMetadataMerge:
			meta, err := n.fetchAndRepair(ctx, id, FormatMetadata, metadataHeaderNames)
			if err != nil {
				// A body without headers beats no message at all.
				n.log.Debug("metadata header fetch failed, keeping minimal result",
					zap.String("message_id", id),
					zap.Error(err),
				)
				n.record("minimal")
				return EnsureRequiredFields(minimalMsg), nil
			}

			if meta.Payload != nil && len(meta.Payload.Headers) > 0 {
				minimalMsg.Payload.Headers = meta.Payload.Headers
			}
			n.record("metadata_merge")
			return EnsureRequiredFields(minimalMsg), nil

		case statePlaceholder:
			n.log.Warn("synthesizing placeholder message",
				zap.String("message_id", id),
			)
			n.record("placeholder")
			return EnsureRequiredFields(Placeholder(id)), nil
		}
	}
}

// fetchAndRepair performs one fetch in the given format and runs the parse,
// patch and decode sequence on the result.
func (n *Normalizer) fetchAndRepair(ctx context.Context, id string, format Format, metadataHeaders []string) (*EmailMessage, error) {
	raw, err := n.fetcher.FetchMessageRaw(ctx, id, format, metadataHeaders)
	if err != nil {
		return nil, fmt.Errorf("fetch message %s (%s) failed: %w", id, format, err)
	}

	return DeserializeMessage(raw)
}

func (n *Normalizer) record(stage string) {
	if n.metrics != nil {
		n.metrics.RecordNormalization(stage)
	}
}
