package contracts

// ValidationResult is the verdict on one due prediction record
type ValidationResult struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	PredictionDate string  `json:"prediction_date"`
	InitialPrice   float64 `json:"initial_price"`
	TargetDate     string  `json:"target_date"`
	FinalPrice     float64 `json:"final_price"`
	ChangePct      float64 `json:"change_pct"`
	Predicted      Trend   `json:"predicted"`
	Accurate       bool    `json:"accurate"`
}

// ValidationReport aggregates one validator run
type ValidationReport struct {
	Results     []ValidationResult `json:"results"`
	Total       int                `json:"total"`       // records in store
	NotDue      int                `json:"not_due"`     // target date in the future
	Unavailable int                `json:"unavailable"` // no bar reached the target date
	Evaluated   int                `json:"evaluated"`
	Accurate    int                `json:"accurate"`
	Accuracy    float64            `json:"accuracy"` // percent, 0 when nothing evaluated
}

// HasResults reports whether any record was evaluated
func (r *ValidationReport) HasResults() bool {
	return r != nil && r.Evaluated > 0
}

// Add folds one result into the report
func (r *ValidationReport) Add(res ValidationResult) {
	r.Results = append(r.Results, res)
	r.Evaluated++
	if res.Accurate {
		r.Accurate++
	}
	r.Accuracy = 100 * float64(r.Accurate) / float64(r.Evaluated)
}
