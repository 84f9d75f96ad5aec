package metrics

import (
	"math"
	"time"
)

// Window accumulates per-batch stats across one epoch.
type Window struct {
	samples  int
	data     time.Duration
	compute  time.Duration
	steps    int
	loss     float64
	correct  int
	scored   int
}

// Record adds a new batch measurement to the window. correct and scored are
// the prediction hits and the number of samples that were scored.
func (w *Window) Record(batchSize int, dataTime, computeTime time.Duration, loss float64, correct, scored int) {
	w.samples += batchSize
	w.data += dataTime
	w.compute += computeTime
	w.steps++
	w.loss += loss
	w.correct += correct
	w.scored += scored
}

// Snapshot returns the window metrics and resets it. Accuracy is taken over
// all scored samples; timings and loss are batch averages.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Batches: w.steps}
	total := w.data + w.compute
	if total > 0 {
		snap.SamplesPerSec = float64(w.samples) / total.Seconds()
	}
	if w.steps > 0 {
		snap.AvgDataMS = (w.data.Seconds() * 1000) / float64(w.steps)
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
		snap.Loss = w.loss / float64(w.steps)
	}
	if w.scored > 0 {
		snap.Accuracy = float64(w.correct) / float64(w.scored)
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Batches       int
	SamplesPerSec float64
	AvgDataMS     float64
	AvgComputeMS  float64
	Loss          float64
	Accuracy      float64
}

// History holds one value per epoch for each tracked series.
type History struct {
	TrainLoss []float64
	DevLoss   []float64
	TrainAcc  []float64
	DevAcc    []float64
}

// Append records one epoch.
func (h *History) Append(trainLoss, devLoss, trainAcc, devAcc float64) {
	h.TrainLoss = append(h.TrainLoss, trainLoss)
	h.DevLoss = append(h.DevLoss, devLoss)
	h.TrainAcc = append(h.TrainAcc, trainAcc)
	h.DevAcc = append(h.DevAcc, devAcc)
}

// Len returns the number of recorded epochs.
func (h *History) Len() int { return len(h.TrainLoss) }

// Series returns the four series in plotting order with their labels.
func (h *History) Series() ([]string, [][]float64) {
	return []string{"train loss", "dev loss", "train acc", "dev acc"},
		[][]float64{h.TrainLoss, h.DevLoss, h.TrainAcc, h.DevAcc}
}

// Valid reports whether every recorded value is finite and non-negative.
func (h *History) Valid() bool {
	_, series := h.Series()
	for _, s := range series {
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
				return false
			}
		}
	}
	return true
}
