package benchmark

import (
	"math"
	"testing"
)

func TestAggregateEmptyRuns(t *testing.T) {
	agg := Aggregate("screenshot", nil)
	if agg.Approach != "screenshot" {
		t.Fatalf("approach = %q", agg.Approach)
	}
	if agg.AvgInputTokens != 0 || agg.AvgOutputTokens != 0 || agg.AvgCostUSD != 0 ||
		agg.AvgDurationMs != 0 || agg.AvgNumTurns != 0 || agg.SuccessRate != 0 {
		t.Fatalf("expected zeroed aggregate, got %+v", agg)
	}
	if agg.TotalToolUsage != nil {
		t.Fatalf("expected nil tool usage, got %v", agg.TotalToolUsage)
	}
}

func TestAggregateIdenticalRuns(t *testing.T) {
	run := AgentResult{
		Success:      true,
		InputTokens:  100,
		OutputTokens: 20,
		ImageTokens:  30,
		TotalCostUSD: 0.5,
		DurationMs:   1000,
		NumTurns:     4,
		ToolUsage:    map[string]int{"browser_click": 2, "browser_navigate": 1},
	}
	runs := []AgentResult{run, run, run}
	agg := Aggregate("semantic", runs)

	if agg.AvgInputTokens != 100 {
		t.Fatalf("AvgInputTokens = %v, want 100", agg.AvgInputTokens)
	}
	if agg.AvgOutputTokens != 20 || agg.AvgImageTokens != 30 {
		t.Fatalf("unexpected averages: %+v", agg)
	}
	if agg.SuccessRate != 1 {
		t.Fatalf("SuccessRate = %v, want 1", agg.SuccessRate)
	}
	if agg.TotalToolUsage["browser_click"] != 6 || agg.TotalToolUsage["browser_navigate"] != 3 {
		t.Fatalf("unexpected tool usage: %v", agg.TotalToolUsage)
	}
}

func TestAggregateMixedSuccess(t *testing.T) {
	runs := []AgentResult{
		{Success: true, InputTokens: 200, ToolUsage: map[string]int{"browser_snapshot": 1}},
		{Success: false},
		{Success: true, InputTokens: 100, ToolUsage: map[string]int{"browser_click": 2}},
		{Success: false},
	}
	agg := Aggregate("a11y", runs)
	if agg.SuccessRate != 0.5 {
		t.Fatalf("SuccessRate = %v, want 0.5", agg.SuccessRate)
	}
	if agg.AvgInputTokens != 75 {
		t.Fatalf("AvgInputTokens = %v, want 75", agg.AvgInputTokens)
	}
	if agg.TotalToolUsage["browser_snapshot"] != 1 || agg.TotalToolUsage["browser_click"] != 2 {
		t.Fatalf("tool usage union broken: %v", agg.TotalToolUsage)
	}
}

func TestCompareZeroBaseline(t *testing.T) {
	a := Aggregate("screenshot", []AgentResult{{Success: true}})
	b := Aggregate("semantic", []AgentResult{{Success: true, InputTokens: 500}})
	rows := Compare(a, b)
	for _, row := range rows {
		for i, pct := range row.PctDeltas {
			if math.IsNaN(pct) || math.IsInf(pct, 0) {
				t.Fatalf("metric %s value %d: pct delta is %v", row.Metric, i, pct)
			}
		}
		if row.Metric == "Input tokens" {
			if row.PctDeltas[1] != 0 {
				t.Fatalf("zero baseline should yield 0%%, got %v", row.PctDeltas[1])
			}
			if row.Deltas[1] != 500 {
				t.Fatalf("absolute delta = %v, want 500", row.Deltas[1])
			}
		}
	}
}

func TestCompareAllPolarity(t *testing.T) {
	screenshot := Aggregate("screenshot", []AgentResult{
		{Success: true, InputTokens: 9000, OutputTokens: 400, ImageTokens: 4000, TotalCostUSD: 0.09, DurationMs: 40000, NumTurns: 12},
	})
	semantic := Aggregate("semantic", []AgentResult{
		{Success: true, InputTokens: 3000, OutputTokens: 300, TotalCostUSD: 0.02, DurationMs: 21000, NumTurns: 9},
	})
	a11y := Aggregate("a11y", []AgentResult{
		{Success: false, InputTokens: 5000, OutputTokens: 350, TotalCostUSD: 0.03, DurationMs: 30000, NumTurns: 10},
	})

	rows := CompareAll([]Aggregated{screenshot, semantic, a11y})
	byName := make(map[string]ComparisonRow, len(rows))
	for _, r := range rows {
		byName[r.Metric] = r
	}

	if got := byName["Input tokens"].BestIndex; got != 1 {
		t.Fatalf("input tokens best = %d, want 1 (semantic)", got)
	}
	if got := byName["Cost (USD)"].BestIndex; got != 1 {
		t.Fatalf("cost best = %d, want 1", got)
	}
	if got := byName["Success rate"].BestIndex; got != 0 {
		t.Fatalf("success rate best = %d, want 0 (ties keep baseline)", got)
	}
	if pct := byName["Input tokens"].PctDeltas[1]; math.Abs(pct-(-66.666)) > 0.01 {
		t.Fatalf("semantic input pct = %v, want about -66.67", pct)
	}
}

func TestCompareAllEmpty(t *testing.T) {
	if rows := CompareAll(nil); rows != nil {
		t.Fatalf("expected nil rows, got %v", rows)
	}
}

func TestProjectCost(t *testing.T) {
	agg := Aggregate("semantic", []AgentResult{{Success: true, TotalCostUSD: 0.02}})
	if got := ProjectCost(agg, 1000); math.Abs(got-20) > 1e-9 {
		t.Fatalf("ProjectCost = %v, want 20", got)
	}
	if got := ProjectCost(Aggregated{}, 100); got != 0 {
		t.Fatalf("zero aggregate projection = %v, want 0", got)
	}
}
