package risk

// Distribution summarizes the moments of a PnL distribution.
type Distribution struct {
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
	Skew     float64 `json:"skew"`
	Kurtosis float64 `json:"kurtosis"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Tail holds the tail risk measures in dollars.
type Tail struct {
	VaR float64 `json:"var"`
	ES  float64 `json:"es"`
}

// ComponentVaR carries the averaged GBA attribution over the selected
// tail scenarios: approximate per-position and per-factor loss
// contributions. It explains the tail, it is not a second VaR.
type ComponentVaR struct {
	Positions     map[string]float64 `json:"positions"`
	Factors       map[string]float64 `json:"factors"`
	ScenariosUsed int                `json:"scenarios_used"`
}

// Diagnostics is the drill-down bundle attached to every result.
type Diagnostics struct {
	Distribution Distribution           `json:"distribution"`
	Tail         Tail                   `json:"tail"`
	Scenarios    map[string]int         `json:"scenarios"`
	Attribution  *ComponentVaR          `json:"attribution,omitempty"`
	PnL          []float64              `json:"pnls"`
	Model        map[string]interface{} `json:"metadata"`
}

// Result is the standardized output of a VaR calculation. It is
// created once per run and never mutated.
type Result struct {
	PortfolioValue  float64     `json:"portfolio_value"`
	VaRDollar       float64     `json:"var_dollar"`
	VaRPercent      float64     `json:"var_percent"`
	ConfidenceLevel float64     `json:"confidence_level"`
	Diagnostics     Diagnostics `json:"diagnostics"`
}
