package model

// Prediction is one scored transaction in a submission file.
type Prediction struct {
	TransactionID string
	IsFraud       float64 // probability of the positive class
}

// Labeled pairs a validation score with its known outcome.
type Labeled struct {
	TransactionID string
	Label         int // 1 = fraud
	Score         float64
}
