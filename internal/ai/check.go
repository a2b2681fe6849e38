// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker is implemented by adapters that can verify their credential with
// one cheap request that generates nothing.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckStatus is the outcome of one live check.
type CheckStatus string

const (
	CheckOK      CheckStatus = "success"
	CheckFailed  CheckStatus = "error"
	CheckWarning CheckStatus = "warning"
)

// CheckResult reports one adapter's live check.
type CheckResult struct {
	Adapter    AdapterID   `json:"adapter"`
	Status     CheckStatus `json:"status"`
	Kind       Kind        `json:"kind,omitempty"`
	Message    string      `json:"message"`
	DurationMS int64       `json:"duration_ms"`
}

// checkOrder lists the adapters that hold a credential or reach a live
// service. Imagen shares the primary key with gemini and is not listed.
var checkOrder = []AdapterID{
	AdapterGemini,
	AdapterGroq,
	AdapterOpenRouter,
	AdapterPollinations,
	AdapterUnsplash,
}

// Check runs every bound adapter's live check concurrently, each under the
// per-call timeout. Adapters without a credential are reported as warnings.
// A failing pollinations check is only a warning because the image chain
// still ends with the placeholder.
func (c *Clients) Check(ctx context.Context) []CheckResult {
	results := make([]CheckResult, len(checkOrder))

	var g errgroup.Group
	for i, id := range checkOrder {
		var adapter any
		if t, ok := c.text[id]; ok {
			adapter = t
		} else if im, ok := c.image[id]; ok {
			adapter = im
		}

		if adapter == nil {
			results[i] = CheckResult{Adapter: id, Status: CheckWarning, Message: "no key configured"}
			continue
		}
		checker, ok := adapter.(Checker)
		if !ok {
			results[i] = CheckResult{Adapter: id, Status: CheckWarning, Message: "live check not supported"}
			continue
		}

		g.Go(func() error {
			results[i] = c.checkOne(ctx, id, checker)
			return nil
		})
	}
	g.Wait()
	return results
}

func (c *Clients) checkOne(ctx context.Context, id AdapterID, checker Checker) CheckResult {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := checker.Check(ctx)
	res := CheckResult{Adapter: id, DurationMS: time.Since(start).Milliseconds()}
	if err == nil {
		res.Status = CheckOK
		res.Message = "connected"
		return res
	}

	e := classify(id, err)
	res.Status = CheckFailed
	res.Kind = e.Kind
	res.Message = e.Error()
	if id == AdapterPollinations {
		res.Status = CheckWarning
		res.Message = "service unavailable, images fall back to the placeholder: " + e.Error()
	}
	return res
}
