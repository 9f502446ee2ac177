package services

import (
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

// State is a step of a forecasting run.
type State string

const (
	StateFetching           State = "FETCHING"
	StatePreparing          State = "PREPARING"
	StateTrainingClassifier State = "TRAINING_CLASSIFIER"
	StateClassifying        State = "CLASSIFYING"
	StateTrainingRegressors State = "TRAINING_REGRESSORS"
	StateProjecting         State = "PROJECTING"
	StateAssembling         State = "ASSEMBLING"
	StatePublishing         State = "PUBLISHING"
	StateDone               State = "DONE"
	StateAborted            State = "ABORTED"
)

// Terminal reports whether no further transition can happen from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// RunReport describes one run: how far it got, why it stopped, and what it
// produced. Warnings collect non-fatal notices; Degraded is set when a
// forecast path or the publish step failed.
type RunReport struct {
	ID          string                 `json:"id"`
	City        string                 `json:"city"`
	State       State                  `json:"state"`
	FailedStage State                  `json:"failed_stage,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Warnings    []string               `json:"warnings,omitempty"`
	Degraded    bool                   `json:"degraded"`
	Transitions []State                `json:"transitions"`
	Result      *models.ForecastResult `json:"result,omitempty"`
	Message     string                 `json:"message,omitempty"`
	StartedAt   time.Time              `json:"started_at"`
	FinishedAt  time.Time              `json:"finished_at"`
}

// Succeeded is true when the run reached DONE.
func (r *RunReport) Succeeded() bool {
	return r != nil && r.State == StateDone
}
