package trainer

import (
	"labelforge/internal/dataset"
	"labelforge/internal/model"
)

// Evaluate runs m in evaluation mode over loader and returns the
// batch-averaged loss and accuracy. Scores are compared against the integer
// labels with crit; with oneHot set, the argmax of the scores is one-hot
// encoded before the criterion is applied. The caller restores training mode.
func Evaluate(m model.Model, crit model.Criterion, loader *dataset.Loader, oneHot bool) (float64, float64) {
	m.Eval()
	crit = crit.WithReduction(model.ReductionMean)
	batches := loader.Batches()
	if len(batches) == 0 {
		return 0, 0
	}
	var loss, acc float64
	for _, batch := range batches {
		scores := m.Forward(batch.Inputs)
		_, classes := scores.Dims()
		acc += model.Accuracy(scores, batch.Labels)

		predictions := scores
		if oneHot {
			predictions = model.OneHot(model.Argmax(scores), classes)
		}
		loss += crit.Loss(predictions, model.OneHot(batch.Labels, classes))[0]
	}
	n := float64(len(batches))
	return loss / n, acc / n
}
