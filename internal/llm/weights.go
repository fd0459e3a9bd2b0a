package llm

// Weights are percentages summing to 100; integer math keeps scoring exact.
type Weights struct {
	Performance int
	Cost        int
	Reliability int
}

// TaskWeights holds the selection weights per task type.
var TaskWeights = map[TaskType]Weights{
	TaskModuleGeneration: {Performance: 50, Cost: 20, Reliability: 30},
	TaskSpecification:    {Performance: 40, Cost: 20, Reliability: 40},
	TaskGeneral:          {Performance: 34, Cost: 33, Reliability: 33},
}

// WeightsFor returns the weights for task, falling back to the general triple.
func WeightsFor(task TaskType) Weights {
	if w, ok := TaskWeights[task]; ok {
		return w
	}
	return TaskWeights[TaskGeneral]
}

// Score computes performance*w + (10-cost)*w + reliability*w.
func (s Scores) Score(w Weights) int {
	return s.Performance*w.Performance + (10-s.Cost)*w.Cost + s.Reliability*w.Reliability
}
