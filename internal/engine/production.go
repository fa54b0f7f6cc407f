package engine

import (
	"time"

	"supplywatch/internal/config"
	"supplywatch/internal/model"
)

// ProductionAnalyzer has no rules yet. It exists so production-schedule
// events dispatch to a real analyzer and keep the empty-result contract;
// callers must not treat the category as unmatched.
type ProductionAnalyzer struct{}

func (ProductionAnalyzer) Category() model.Category {
	return model.CategoryProduction
}

func (ProductionAnalyzer) Analyze(model.Event, config.RulesConfig, time.Time) ([]model.Alert, error) {
	return nil, nil
}
