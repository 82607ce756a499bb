package ml

import (
    "encoding/json"
    "errors"
    "fmt"
)

// RandomForest averages the leaf class distributions of its trees, the same
// soft-voting rule scikit-learn uses for predict_proba.
type RandomForest struct {
    classes []int
    trees   []*DecisionTree
}

type forestPayload struct {
    Classes    []int        `json:"classes"`
    Estimators [][]TreeNode `json:"estimators"`
}

func NewRandomForest(classes []int, estimators [][]TreeNode) (*RandomForest, error) {
    if len(estimators) == 0 {
        return nil, errors.New("forest has no estimators")
    }
    rf := &RandomForest{
        classes: append([]int(nil), classes...),
        trees:   make([]*DecisionTree, 0, len(estimators)),
    }
    for i, nodes := range estimators {
        tree, err := NewDecisionTree(classes, nodes)
        if err != nil {
            return nil, fmt.Errorf("estimator %d: %w", i, err)
        }
        rf.trees = append(rf.trees, tree)
    }
    return rf, nil
}

func (rf *RandomForest) Classes() []int {
    return append([]int(nil), rf.classes...)
}

// NumTrees reports the number of estimators.
func (rf *RandomForest) NumTrees() int {
    return len(rf.trees)
}

func (rf *RandomForest) Predict(features []float64) (int, error) {
    proba, err := rf.PredictProba(features)
    if err != nil {
        return 0, err
    }
    return rf.classes[argmax(proba)], nil
}

func (rf *RandomForest) PredictProba(features []float64) ([]float64, error) {
    if len(rf.trees) == 0 {
        return nil, errors.New("model not trained")
    }
    sum := make([]float64, len(rf.classes))
    for i, tree := range rf.trees {
        proba, err := tree.PredictProba(features)
        if err != nil {
            return nil, fmt.Errorf("estimator %d: %w", i, err)
        }
        for j, p := range proba {
            sum[j] += p
        }
    }
    n := float64(len(rf.trees))
    for j := range sum {
        sum[j] /= n
    }
    return sum, nil
}

func (rf *RandomForest) MarshalJSON() ([]byte, error) {
    payload := forestPayload{Classes: rf.classes, Estimators: make([][]TreeNode, len(rf.trees))}
    for i, tree := range rf.trees {
        payload.Estimators[i] = tree.nodes
    }
    return json.Marshal(payload)
}

func (rf *RandomForest) UnmarshalJSON(data []byte) error {
    var payload forestPayload
    if err := json.Unmarshal(data, &payload); err != nil {
        return err
    }
    built, err := NewRandomForest(payload.Classes, payload.Estimators)
    if err != nil {
        return err
    }
    *rf = *built
    return nil
}
