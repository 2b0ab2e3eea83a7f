package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/scholarnav/internal/document"
	"github.com/nao1215/scholarnav/internal/fetch"
	"github.com/nao1215/scholarnav/internal/navigator"
	"github.com/nao1215/scholarnav/internal/proxy"
)

// recovery decides how to continue after a failed fetch. resume reports
// whether the work should be attempted again; refresh whether the exit has
// to be replaced first. Only rotating modes recover: with a single exit a
// ban would just be hit again.
func (a *app) recovery(err error) (resume, refresh bool) {
	switch a.provider.Current().Mode {
	case proxy.ModeFreeProxies, proxy.ModeTor:
	default:
		return false, false
	}

	var transportErr *fetch.TransportError
	switch {
	case fetch.IsBlocked(err):
		a.provider.ReportFailure()
		return true, true
	case errors.As(err, &transportErr):
		return true, a.provider.ReportFailure()
	default:
		return false, false
	}
}

// reroute refreshes the exit if needed after cause. It returns cause
// joined with the refresh error when the provider has no exit left.
func (a *app) reroute(ctx context.Context, cause error, refresh bool) error {
	if !refresh {
		a.logger.Info("retrying through the same exit", "error", cause)
		return nil
	}
	a.logger.Warn("exit blocked, switching", "exit", a.provider.Current().Exit, "error", cause)
	if err := a.provider.Refresh(ctx); err != nil {
		return errors.Join(cause, fmt.Errorf("failed to refresh proxy: %w", err))
	}
	return nil
}

// collect drains p, stopping after limit records when limit > 0. When a
// fetch is blocked it refreshes the provider and resumes the traversal
// through the new session, at most cfg.MaxRecoveries times. Records
// gathered before a final failure are returned with the error.
func collect[T any](ctx context.Context, a *app, p *navigator.Paginator[T], limit int) ([]T, error) {
	var (
		out        []T
		recoveries int
	)
	for limit <= 0 || len(out) < limit {
		rec, err := p.Next(ctx)
		switch {
		case errors.Is(err, navigator.Done), errors.Is(err, document.ErrEmptyResultSet):
			return out, nil
		case err != nil:
			resume, refresh := a.recovery(err)
			if !resume || recoveries >= a.cfg.MaxRecoveries || ctx.Err() != nil {
				return out, err
			}
			recoveries++
			if err := a.reroute(ctx, err, refresh); err != nil {
				return out, err
			}
			p = p.Resume(a.provider.Current().Session)
			a.logger.Info("traversal resumed", "traversal", p.ID(), "url", p.URL(), "recovery", recoveries)
			continue
		}
		a.provider.ReportSuccess()
		out = append(out, rec)
	}
	return out, nil
}

// attempt runs op, refreshing the provider and running it again after a
// block, at most cfg.MaxRecoveries times.
func attempt[T any](ctx context.Context, a *app, op func() (T, error)) (T, error) {
	for recoveries := 0; ; recoveries++ {
		v, err := op()
		if err == nil {
			a.provider.ReportSuccess()
			return v, nil
		}
		resume, refresh := a.recovery(err)
		if !resume || recoveries >= a.cfg.MaxRecoveries || ctx.Err() != nil {
			return v, err
		}
		if err := a.reroute(ctx, err, refresh); err != nil {
			return v, err
		}
	}
}
