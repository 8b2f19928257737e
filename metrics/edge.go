package metrics

import (
	"errors"
	"fmt"
)

// EdgeConfig holds the normalisation caps and weights of the edge score.
// A raw value at its cap scores 100; DrawdownCap is the drawdown at which the
// drawdown score reaches 0.
type EdgeConfig struct {
	WinRateCap        float64 `json:"win_rate_cap" yaml:"win_rate_cap"`
	ProfitFactorCap   float64 `json:"profit_factor_cap" yaml:"profit_factor_cap"`
	DrawdownCap       float64 `json:"drawdown_cap" yaml:"drawdown_cap"`
	WinLossRatioCap   float64 `json:"win_loss_ratio_cap" yaml:"win_loss_ratio_cap"`
	ConsistencyCap    float64 `json:"consistency_cap" yaml:"consistency_cap"`
	RecoveryFactorCap float64 `json:"recovery_factor_cap" yaml:"recovery_factor_cap"`

	Weights EdgeWeights `json:"weights" yaml:"weights"`
}

// EdgeWeights are the relative weights of the six components. Only their
// ratios matter.
type EdgeWeights struct {
	WinRate        float64 `json:"win_rate" yaml:"win_rate"`
	ProfitFactor   float64 `json:"profit_factor" yaml:"profit_factor"`
	Drawdown       float64 `json:"drawdown" yaml:"drawdown"`
	WinLossRatio   float64 `json:"win_loss_ratio" yaml:"win_loss_ratio"`
	Consistency    float64 `json:"consistency" yaml:"consistency"`
	RecoveryFactor float64 `json:"recovery_factor" yaml:"recovery_factor"`
}

func DefaultEdgeConfig() EdgeConfig {
	return EdgeConfig{
		WinRateCap:        70,
		ProfitFactorCap:   3,
		DrawdownCap:       50,
		WinLossRatioCap:   3,
		ConsistencyCap:    100,
		RecoveryFactorCap: 5,
		Weights: EdgeWeights{
			WinRate:        1,
			ProfitFactor:   1,
			Drawdown:       1,
			WinLossRatio:   1,
			Consistency:    1,
			RecoveryFactor: 1,
		},
	}
}

func (c EdgeConfig) Validate() error {
	caps := []struct {
		name string
		v    float64
	}{
		{"win_rate_cap", c.WinRateCap},
		{"profit_factor_cap", c.ProfitFactorCap},
		{"drawdown_cap", c.DrawdownCap},
		{"win_loss_ratio_cap", c.WinLossRatioCap},
		{"consistency_cap", c.ConsistencyCap},
		{"recovery_factor_cap", c.RecoveryFactorCap},
	}
	for _, cp := range caps {
		if !(cp.v > 0) || finite(cp.v) != cp.v {
			return fmt.Errorf("edge: %s must be positive, got %v", cp.name, cp.v)
		}
	}

	w := c.Weights
	total := 0.0
	for _, v := range []float64{w.WinRate, w.ProfitFactor, w.Drawdown, w.WinLossRatio, w.Consistency, w.RecoveryFactor} {
		if v < 0 || finite(v) != v {
			return fmt.Errorf("edge: weights must be finite and non-negative, got %v", v)
		}
		total += v
	}
	if total == 0 {
		return errors.New("edge: at least one weight must be positive")
	}
	if finite(total) != total {
		return fmt.Errorf("edge: weights must have a finite total, got %v", total)
	}
	return nil
}

// Component is one normalised sub-metric of the edge score.
type Component struct {
	Name   string  `json:"name"`
	Raw    float64 `json:"raw"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Edge is the overall score with its components.
type Edge struct {
	Score      float64     `json:"score"`
	Components []Component `json:"components"`
	// Weakest names the first component with the lowest score.
	Weakest string `json:"weakest"`
}

// EdgeScore combines six sub-metrics of s into a 0-100 score. An invalid
// cfg falls back to DefaultEdgeConfig. A summary with no trades scores 0
// everywhere.
func EdgeScore(s Summary, cfg EdgeConfig) Edge {
	if cfg.Validate() != nil {
		cfg = DefaultEdgeConfig()
	}
	w := cfg.Weights
	empty := s.TotalTrades == 0

	winLoss := 0.0
	winLossScore := 0.0
	switch {
	case s.AvgLoss > 0:
		winLoss = s.AvgWin / s.AvgLoss
		winLossScore = linear(winLoss, cfg.WinLossRatioCap)
	case s.AvgWin > 0:
		winLossScore = 100
	}

	pfScore := linear(s.ProfitFactor, cfg.ProfitFactorCap)
	if s.ProfitFactorUnbounded {
		pfScore = 100
	}

	recovery := 0.0
	recoveryScore := 0.0
	switch {
	case s.TotalPnL <= 0:
	case s.MaxDrawdownAmount > 0:
		recovery = s.TotalPnL / s.MaxDrawdownAmount
		recoveryScore = linear(recovery, cfg.RecoveryFactorCap)
	default:
		recoveryScore = 100
	}

	ddScore := clamp((1-s.MaxDrawdownPct/cfg.DrawdownCap)*100, 0, 100)

	comps := []Component{
		{Name: "win_rate", Raw: s.WinRate, Score: linear(s.WinRate, cfg.WinRateCap), Weight: w.WinRate},
		{Name: "profit_factor", Raw: s.ProfitFactor, Score: pfScore, Weight: w.ProfitFactor},
		{Name: "drawdown", Raw: s.MaxDrawdownPct, Score: ddScore, Weight: w.Drawdown},
		{Name: "win_loss_ratio", Raw: finite(winLoss), Score: winLossScore, Weight: w.WinLossRatio},
		{Name: "consistency", Raw: s.DayWinRate, Score: linear(s.DayWinRate, cfg.ConsistencyCap), Weight: w.Consistency},
		{Name: "recovery_factor", Raw: finite(recovery), Score: recoveryScore, Weight: w.RecoveryFactor},
	}

	var weights float64
	for _, c := range comps {
		weights += c.Weight
	}

	e := Edge{Components: comps}
	var sum float64
	weakest := 0
	for i := range comps {
		if empty {
			comps[i].Raw, comps[i].Score = 0, 0
		}
		// Normalised first so large weights cannot overflow the sum.
		sum += comps[i].Score * (comps[i].Weight / weights)
		if comps[i].Score < comps[weakest].Score {
			weakest = i
		}
	}
	e.Weakest = comps[weakest].Name
	e.Score = clamp(sum, 0, 100)
	return e
}

func linear(v, limit float64) float64 {
	return clamp(v/limit*100, 0, 100)
}

