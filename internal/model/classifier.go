package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Training hyperparameters. Fixed rather than configurable: the
// per-ticker tables are small and a few hundred full-batch epochs
// converge well past the decision threshold.
const (
	fitEpochs       = 300
	fitLearningRate = 0.1
)

// Classifier is a binary logistic-regression classifier over
// standardized features. The struct is its own serialized form; every
// field needed to reproduce inference is exported for JSON round-trips.
type Classifier struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Means   []float64 `json:"means"`
	Stds    []float64 `json:"stds"`
}

// Fit trains a classifier on the given feature matrix and binary
// labels. Features are standardized column-wise before gradient
// descent; the standardization parameters travel with the model.
func Fit(features [][]float64, labels []int) (*Classifier, error) {
	n := len(features)
	if n == 0 {
		return nil, fmt.Errorf("empty training set")
	}
	if n != len(labels) {
		return nil, fmt.Errorf("feature/label length mismatch: %d vs %d", n, len(labels))
	}
	dims := len(features[0])
	if dims == 0 {
		return nil, fmt.Errorf("empty feature vectors")
	}

	means, stds := columnStats(features)

	// Build the standardized design matrix
	x := mat.NewDense(n, dims, nil)
	for i, row := range features {
		if len(row) != dims {
			return nil, fmt.Errorf("ragged feature row %d", i)
		}
		for j, v := range row {
			x.Set(i, j, (v-means[j])/stds[j])
		}
	}

	y := make([]float64, n)
	for i, label := range labels {
		y[i] = float64(label)
	}

	clf := &Classifier{
		Weights: make([]float64, dims),
		Means:   means,
		Stds:    stds,
	}

	// Full-batch gradient descent on the log loss
	w := mat.NewVecDense(dims, clf.Weights)
	scores := mat.NewVecDense(n, nil)
	grad := mat.NewVecDense(dims, nil)

	for epoch := 0; epoch < fitEpochs; epoch++ {
		scores.MulVec(x, w)

		// residual = sigmoid(scores + bias) - y
		residual := make([]float64, n)
		for i := 0; i < n; i++ {
			residual[i] = sigmoid(scores.AtVec(i)+clf.Bias) - y[i]
		}
		resVec := mat.NewVecDense(n, residual)

		grad.MulVec(x.T(), resVec)

		step := fitLearningRate / float64(n)
		for j := 0; j < dims; j++ {
			w.SetVec(j, w.AtVec(j)-step*grad.AtVec(j))
		}

		biasGrad := 0.0
		for i := 0; i < n; i++ {
			biasGrad += residual[i]
		}
		clf.Bias -= step * biasGrad
	}

	return clf, nil
}

// PredictOne returns the binary class (1 = up) for one feature vector
func (c *Classifier) PredictOne(values []float64) (int, error) {
	p, err := c.Probability(values)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// Probability returns the model's up-probability for one feature vector
func (c *Classifier) Probability(values []float64) (float64, error) {
	if len(values) != len(c.Weights) {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(values), len(c.Weights))
	}

	z := c.Bias
	for j, v := range values {
		z += c.Weights[j] * (v - c.Means[j]) / c.Stds[j]
	}
	return sigmoid(z), nil
}

// Accuracy returns the fraction of rows the classifier labels correctly
func (c *Classifier) Accuracy(features [][]float64, labels []int) (float64, error) {
	if len(features) == 0 {
		return 0, fmt.Errorf("empty evaluation set")
	}

	correct := 0
	for i, row := range features {
		pred, err := c.PredictOne(row)
		if err != nil {
			return 0, err
		}
		if pred == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(features)), nil
}

// columnStats computes per-column mean and standard deviation.
// Zero-variance columns get std 1 so standardization never divides
// by zero.
func columnStats(features [][]float64) ([]float64, []float64) {
	n := len(features)
	dims := len(features[0])

	means := make([]float64, dims)
	for _, row := range features {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}

	stds := make([]float64, dims)
	for _, row := range features {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / float64(n))
		if stds[j] == 0 || math.IsNaN(stds[j]) {
			stds[j] = 1
		}
	}

	return means, stds
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
