package ml

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
)

type DecisionTree struct {
    classes []int
    nodes   []TreeNode
}

// TreeNode is one entry of the flattened tree. Value holds the per-class
// sample weights of a leaf, in the order of the tree's classes.
type TreeNode struct {
    FeatureIdx int       `json:"feature_idx"`
    Threshold  float64   `json:"threshold"`
    LeftChild  int       `json:"left_child"`
    RightChild int       `json:"right_child"`
    ClassLabel int       `json:"class_label"`
    IsLeaf     bool      `json:"is_leaf"`
    Value      []float64 `json:"value,omitempty"`
}

type treePayload struct {
    Classes []int      `json:"classes"`
    Nodes   []TreeNode `json:"nodes"`
}

func NewDecisionTree(classes []int, nodes []TreeNode) (*DecisionTree, error) {
    dt := &DecisionTree{
        classes: append([]int(nil), classes...),
        nodes:   append([]TreeNode(nil), nodes...),
    }
    if err := dt.validate(); err != nil {
        return nil, err
    }
    return dt, nil
}

func (dt *DecisionTree) Classes() []int {
    return append([]int(nil), dt.classes...)
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
    proba, err := dt.PredictProba(features)
    if err != nil {
        return 0, err
    }
    return dt.classes[argmax(proba)], nil
}

func (dt *DecisionTree) PredictProba(features []float64) ([]float64, error) {
    leaf, err := dt.leaf(features)
    if err != nil {
        return nil, err
    }
    return dt.leafDistribution(leaf)
}

func (dt *DecisionTree) leaf(features []float64) (TreeNode, error) {
    if len(dt.nodes) == 0 {
        return TreeNode{}, errors.New("model not trained")
    }
    idx := 0
    // a well-formed tree reaches a leaf in at most len(nodes) steps
    for steps := 0; steps <= len(dt.nodes); steps++ {
        node := dt.nodes[idx]
        if node.IsLeaf {
            return node, nil
        }
        if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
            return TreeNode{}, errors.New("feature index out of range")
        }
        if features[node.FeatureIdx] <= node.Threshold {
            idx = node.LeftChild
        } else {
            idx = node.RightChild
        }
        if idx < 0 || idx >= len(dt.nodes) {
            return TreeNode{}, errors.New("invalid tree state")
        }
    }
    return TreeNode{}, errors.New("tree contains a cycle")
}

func (dt *DecisionTree) leafDistribution(node TreeNode) ([]float64, error) {
    proba := make([]float64, len(dt.classes))
    if len(node.Value) == 0 {
        pos := classIndex(dt.classes, node.ClassLabel)
        if pos < 0 {
            return nil, fmt.Errorf("leaf label %d is not a known class", node.ClassLabel)
        }
        proba[pos] = 1
        return proba, nil
    }
    if len(node.Value) != len(dt.classes) {
        return nil, fmt.Errorf("leaf value has %d entries, want %d", len(node.Value), len(dt.classes))
    }
    total := 0.0
    for _, v := range node.Value {
        total += v
    }
    if total <= 0 {
        return nil, errors.New("leaf value sums to zero")
    }
    for i, v := range node.Value {
        proba[i] = v / total
    }
    return proba, nil
}

func (dt *DecisionTree) validate() error {
    if len(dt.classes) == 0 {
        return errors.New("tree has no classes")
    }
    if len(dt.nodes) == 0 {
        return errors.New("tree has no nodes")
    }
    for i, node := range dt.nodes {
        if node.IsLeaf {
            continue
        }
        if node.LeftChild <= 0 || node.LeftChild >= len(dt.nodes) ||
            node.RightChild <= 0 || node.RightChild >= len(dt.nodes) {
            return fmt.Errorf("node %d has invalid children", i)
        }
    }
    return nil
}

func (dt *DecisionTree) MarshalJSON() ([]byte, error) {
    return json.Marshal(treePayload{Classes: dt.classes, Nodes: dt.nodes})
}

func (dt *DecisionTree) UnmarshalJSON(data []byte) error {
    var payload treePayload
    if err := json.Unmarshal(data, &payload); err != nil {
        return err
    }
    dt.classes = payload.Classes
    dt.nodes = payload.Nodes
    return dt.validate()
}

func (dt *DecisionTree) Save(path string) error {
    if len(dt.nodes) == 0 {
        return errors.New("model not trained")
    }
    payload, err := json.Marshal(dt)
    if err != nil {
        return err
    }
    return os.WriteFile(path, payload, 0o600)
}

func (dt *DecisionTree) Load(path string) error {
    payload, err := os.ReadFile(path)
    if err != nil {
        return err
    }
    return json.Unmarshal(payload, dt)
}

func classIndex(classes []int, label int) int {
    for i, c := range classes {
        if c == label {
            return i
        }
    }
    return -1
}

// argmax returns the first index of the largest value, matching numpy's tie rule.
func argmax(values []float64) int {
    best := 0
    for i := 1; i < len(values); i++ {
        if values[i] > values[best] {
            best = i
        }
    }
    return best
}
