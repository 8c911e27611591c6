// Package record decodes persisted version records. Raw bytes are unmarshalled
// into a generic payload, passed through optional pre-hooks (legacy field
// migration, normalisation), decoded into the target type and then checked by
// post-hooks.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Context identifies the stored record being decoded.
type Context struct {
	Key   string
	Scope string
}

// PreHook rewrites the raw payload before it is decoded.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook validates or adjusts the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder turns stored record bytes into T.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts one stored record into T.
func (d *Decoder[T]) Decode(ctx Context, raw []byte) (T, error) {
	var zero T
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, fmt.Errorf("record: empty payload for key %q", ctx.Key)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return zero, fmt.Errorf("record: parse key %q: %w", ctx.Key, err)
	}
	if payload == nil {
		return zero, fmt.Errorf("record: null payload for key %q", ctx.Key)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, payload)
		if err != nil {
			return zero, fmt.Errorf("record: pre-hook for key %q failed: %w", ctx.Key, err)
		}
		if next != nil {
			payload = next
		}
	}

	buffer, err := json.Marshal(payload)
	if err != nil {
		return zero, fmt.Errorf("record: marshal payload for key %q: %w", ctx.Key, err)
	}
	var result T
	if err := json.Unmarshal(buffer, &result); err != nil {
		return zero, fmt.Errorf("record: decode key %q: %w", ctx.Key, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("record: post-hook for key %q failed: %w", ctx.Key, err)
		}
	}
	return result, nil
}

// DecodeList splits a stored JSON array and decodes every element. Elements
// that fail to decode are reported through skip and left out of the result.
func (d *Decoder[T]) DecodeList(ctx Context, raw []byte, skip func(index int, err error)) ([]T, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, fmt.Errorf("record: parse list %q: %w", ctx.Key, err)
	}
	out := make([]T, 0, len(elements))
	for i, element := range elements {
		value, err := d.Decode(ctx, element)
		if err != nil {
			if skip != nil {
				skip(i, err)
			}
			continue
		}
		out = append(out, value)
	}
	return out, nil
}

// RenameField returns a pre-hook moving a legacy field onto its current name
// when the current name is absent.
func RenameField(legacy, current string) PreHook {
	return func(_ Context, payload map[string]any) (map[string]any, error) {
		value, ok := payload[legacy]
		if !ok {
			return payload, nil
		}
		if _, exists := payload[current]; !exists {
			payload[current] = value
		}
		delete(payload, legacy)
		return payload, nil
	}
}

// RequireField returns a pre-hook rejecting payloads without field. The value
// itself may be empty.
func RequireField(field string) PreHook {
	return func(_ Context, payload map[string]any) (map[string]any, error) {
		if _, ok := payload[field]; !ok {
			return nil, fmt.Errorf("missing field %q", field)
		}
		return payload, nil
	}
}
