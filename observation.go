package experimentutils

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Observation is one measured unit of an experiment: which variant the
// unit was assigned to and the metric value observed for it.
type Observation struct {
	RunID      uuid.UUID `json:"run_id"`
	Experiment string    `json:"experiment"`
	Variant    string    `json:"variant"`
	Unit       string    `json:"unit"`
	Metric     string    `json:"metric"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observed_at"`
}

func (o Observation) MarshalBinary() (data []byte, err error) {
	return json.Marshal(o)
}

func (o *Observation) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, o)
}

func (o *Observation) SQL() string {
	return "INSERT INTO experiments.observations " +
		"(run_id, experiment, variant, unit, metric, value, observed_at) " +
		"VALUES (?, ?, ?, ?, ?, ?, ?)"
}

func (o *Observation) ToExec() []interface{} {
	return []interface{}{
		o.RunID.String(),
		o.Experiment,
		o.Variant,
		o.Unit,
		o.Metric,
		o.Value,
		o.ObservedAt,
	}
}
