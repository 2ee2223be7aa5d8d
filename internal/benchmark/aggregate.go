package benchmark

// Aggregate reduces the runs of one approach into averaged metrics. An empty
// run list yields a zeroed record rather than dividing by zero.
func Aggregate(approach string, runs []AgentResult) Aggregated {
	agg := Aggregated{Approach: approach, Runs: runs}
	if len(runs) == 0 {
		return agg
	}

	var (
		inputSum, outputSum, imageSum int
		costSum                       float64
		durationSum                   int64
		turnSum                       int
		successes                     int
	)
	toolUsage := make(map[string]int)

	for _, run := range runs {
		inputSum += run.InputTokens
		outputSum += run.OutputTokens
		imageSum += run.ImageTokens
		costSum += run.TotalCostUSD
		durationSum += run.DurationMs
		turnSum += run.NumTurns
		if run.Success {
			successes++
		}
		for tool, count := range run.ToolUsage {
			toolUsage[tool] += count
		}
	}

	n := float64(len(runs))
	agg.AvgInputTokens = float64(inputSum) / n
	agg.AvgOutputTokens = float64(outputSum) / n
	agg.AvgImageTokens = float64(imageSum) / n
	agg.AvgCostUSD = costSum / n
	agg.AvgDurationMs = float64(durationSum) / n
	agg.AvgNumTurns = float64(turnSum) / n
	agg.SuccessRate = float64(successes) / n
	if len(toolUsage) > 0 {
		agg.TotalToolUsage = toolUsage
	}
	return agg
}

// Metric describes one comparable dimension of an aggregated result.
type Metric struct {
	Name          string
	LowerIsBetter bool
	Value         func(Aggregated) float64
}

// Metrics is the ordered set of dimensions rendered in comparison reports.
var Metrics = []Metric{
	{Name: "Input tokens", LowerIsBetter: true, Value: func(a Aggregated) float64 { return a.AvgInputTokens }},
	{Name: "Output tokens", LowerIsBetter: true, Value: func(a Aggregated) float64 { return a.AvgOutputTokens }},
	{Name: "Image tokens", LowerIsBetter: true, Value: func(a Aggregated) float64 { return a.AvgImageTokens }},
	{Name: "Cost (USD)", LowerIsBetter: true, Value: func(a Aggregated) float64 { return a.AvgCostUSD }},
	{Name: "Duration (ms)", LowerIsBetter: true, Value: func(a Aggregated) float64 { return a.AvgDurationMs }},
	{Name: "Turns", LowerIsBetter: true, Value: func(a Aggregated) float64 { return a.AvgNumTurns }},
	{Name: "Success rate", LowerIsBetter: false, Value: func(a Aggregated) float64 { return a.SuccessRate }},
}

// ComparisonRow is one metric compared across the listed approaches. Values
// are ordered like the input; deltas are relative to the first (baseline)
// entry, with a zero baseline degrading to a 0% delta rather than NaN or Inf.
type ComparisonRow struct {
	Metric        string
	LowerIsBetter bool
	Values        []float64
	Deltas        []float64
	PctDeltas     []float64
	BestIndex     int
}

// CompareAll builds the metric-by-metric comparison over an ordered list of
// aggregated results, the first entry serving as the baseline.
func CompareAll(results []Aggregated) []ComparisonRow {
	if len(results) == 0 {
		return nil
	}
	rows := make([]ComparisonRow, 0, len(Metrics))
	for _, metric := range Metrics {
		row := ComparisonRow{
			Metric:        metric.Name,
			LowerIsBetter: metric.LowerIsBetter,
			Values:        make([]float64, len(results)),
			Deltas:        make([]float64, len(results)),
			PctDeltas:     make([]float64, len(results)),
		}
		baseline := metric.Value(results[0])
		for i, agg := range results {
			v := metric.Value(agg)
			row.Values[i] = v
			row.Deltas[i] = v - baseline
			if baseline != 0 {
				row.PctDeltas[i] = (v - baseline) / baseline * 100
			}
			better := v < row.Values[row.BestIndex]
			if !metric.LowerIsBetter {
				better = v > row.Values[row.BestIndex]
			}
			if i > 0 && better {
				row.BestIndex = i
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Compare is the two-way form of CompareAll with a as the baseline.
func Compare(a, b Aggregated) []ComparisonRow {
	return CompareAll([]Aggregated{a, b})
}

// ProjectCost linearly scales the average per-run cost to estimate the cost
// of running the task multiplier times.
func ProjectCost(agg Aggregated, multiplier float64) float64 {
	return agg.AvgCostUSD * multiplier
}
