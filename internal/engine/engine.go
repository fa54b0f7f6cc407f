package engine

import (
	"log/slog"
	"sync/atomic"
	"time"

	"supplywatch/internal/alerts"
	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// Analyzer evaluates one event category against its rule set and returns
// zero or more alerts. Implementations are pure: no I/O, no shared state.
type Analyzer interface {
	Category() model.Category
	Analyze(ev model.Event, rules config.RulesConfig, now time.Time) ([]model.Alert, error)
}

type Engine struct {
	logger    *slog.Logger
	alerts    *alerts.Store
	cfg       atomic.Value
	analyzers map[model.Category]Analyzer
}

func NewEngine(cfg *config.Config, logger *slog.Logger, alertsStore *alerts.Store) *Engine {
	e := &Engine{
		logger:    logger,
		alerts:    alertsStore,
		analyzers: make(map[model.Category]Analyzer),
	}
	e.cfg.Store(cfg)
	for _, a := range []Analyzer{
		InventoryAnalyzer{},
		DemandAnalyzer{},
		SupplierAnalyzer{},
		CostAnalyzer{},
		ProductionAnalyzer{},
	} {
		e.analyzers[a.Category()] = a
	}
	return e
}

func (e *Engine) UpdateConfig(cfg *config.Config) {
	e.cfg.Store(cfg)
}

func (e *Engine) config() *config.Config {
	if v := e.cfg.Load(); v != nil {
		return v.(*config.Config)
	}
	return config.DefaultConfig()
}

// Evaluate dispatches the event to the analyzer matching its category.
// An unmatched category yields no alerts and no error. An analyzer error
// also yields no alerts; the caller counts it as a processing error and
// the event still completes.
func (e *Engine) Evaluate(ev model.Event) ([]model.Alert, error) {
	analyzer, ok := e.analyzers[ev.Category]
	if !ok {
		return nil, nil
	}
	rules := e.config().Rules
	out, err := analyzer.Analyze(ev, rules, time.Now().UTC())
	if err != nil {
		if e.logger != nil {
			e.logger.Error("alert analysis failed", "event_id", ev.EventID, "category", ev.Category, "err", err)
		}
		return nil, err
	}
	for _, alert := range out {
		if e.alerts != nil {
			e.alerts.Add(alert)
		}
		if e.logger != nil {
			e.logger.Warn("alert triggered",
				"alert_id", alert.AlertID,
				"event_id", ev.EventID,
				"type", alert.Type,
				"priority", alert.Priority,
			)
		}
	}
	return out, nil
}

// ratio computes observed/baseline, defining the ratio as zero when the
// baseline is zero so no rule ever divides by zero.
func ratio(observed, baseline float64) float64 {
	if baseline <= 0 {
		return 0
	}
	return observed / baseline
}
