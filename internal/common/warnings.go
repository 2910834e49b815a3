package common

import (
	"context"
	"fmt"
	"sync"
)

type warningsKey struct{}

// WarningCollector accumulates degraded-path notices for one search call so
// they can be surfaced verbatim in SearchStats.Warnings (spec §7,
// SPEC_FULL.md §D.3) without requiring a caller to scrape logs.
type WarningCollector struct {
	mu   sync.Mutex
	msgs []string
}

// NewWarningContext attaches a fresh collector to ctx.
func NewWarningContext(ctx context.Context) (context.Context, *WarningCollector) {
	wc := &WarningCollector{}
	return context.WithValue(ctx, warningsKey{}, wc), wc
}

func collectorFrom(ctx context.Context) *WarningCollector {
	if ctx == nil {
		return nil
	}
	wc, _ := ctx.Value(warningsKey{}).(*WarningCollector)
	return wc
}

func (w *WarningCollector) add(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msg)
}

// Messages returns the accumulated warnings in insertion order.
func (w *WarningCollector) Messages() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.msgs))
	copy(out, w.msgs)
	return out
}

// recordWarning appends a human-readable line to ctx's collector, if any.
func recordWarning(ctx context.Context, stage, action string, fields map[string]any) {
	wc := collectorFrom(ctx)
	if wc == nil {
		return
	}
	if msg, ok := fields["warning"]; ok {
		wc.add(fmt.Sprintf("%s: %v", stage, msg))
		return
	}
	wc.add(fmt.Sprintf("%s.%s degraded", stage, action))
}
