package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-forecaster/internal/config"
	"github.com/bobby-s-dev/weather-forecaster/internal/dataset"
	"github.com/bobby-s-dev/weather-forecaster/internal/features"
	"github.com/bobby-s-dev/weather-forecaster/internal/ml"
	"github.com/bobby-s-dev/weather-forecaster/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const rainYesLabel = "yes"

// ErrRunInProgress is returned when Run is called while another run is active.
var ErrRunInProgress = errors.New("forecast run already in progress")

type ObservationSource interface {
	GetCurrentObservation(ctx context.Context, city string) (*models.Observation, error)
}

type Publisher interface {
	Publish(ctx context.Context, message string) error
}

type Classifier interface {
	Predict(fv dataset.FeatureVector) (int, error)
}

// ClassifierTrainer fits a fresh rain classifier. It is called exactly once per run.
type ClassifierTrainer func(rows []dataset.FeatureVector, labels []int) (Classifier, error)

// RegressorTrainer fits a fresh one-step regressor. It is called once per path per run.
type RegressorTrainer func(x, y []float64) (ml.Stepper, error)

// Deps are the collaborators of a Forecaster. Observations and History are
// required; the rest fall back to defaults built from the config.
type Deps struct {
	Observations    ObservationSource
	History         dataset.Source
	Publisher       Publisher
	TrainClassifier ClassifierTrainer
	TrainRegressor  RegressorTrainer
	Runs            *RunHistory
	Now             func() time.Time
}

type Forecaster struct {
	observations    ObservationSource
	history         dataset.Source
	publisher       Publisher
	trainClassifier ClassifierTrainer
	trainRegressor  RegressorTrainer
	runs            *RunHistory
	now             func() time.Time
	horizon         int
	location        *time.Location
	logger          *zap.Logger

	running sync.Mutex

	mu          sync.RWMutex
	lastRunTime time.Time
	succeeded   int
	aborted     int
	degraded    int
}

func NewForecaster(cfg *config.Config, deps Deps, logger *zap.Logger) (*Forecaster, error) {
	if deps.Observations == nil {
		return nil, fmt.Errorf("observation source is required")
	}
	if deps.History == nil {
		return nil, fmt.Errorf("historical data source is required")
	}

	f := &Forecaster{
		observations:    deps.Observations,
		history:         deps.History,
		publisher:       deps.Publisher,
		trainClassifier: deps.TrainClassifier,
		trainRegressor:  deps.TrainRegressor,
		runs:            deps.Runs,
		now:             deps.Now,
		horizon:         cfg.Forecast.Horizon,
		location:        cfg.Location(),
		logger:          logger,
	}

	if f.publisher == nil {
		f.publisher = NewLogPublisher(logger)
	}
	if f.trainClassifier == nil {
		f.trainClassifier = ForestClassifierTrainer(ml.ClassifierConfig{
			Trees:        cfg.Model.Trees,
			Seed:         cfg.Model.Seed,
			TestFraction: cfg.Model.TestFraction,
		}, logger)
	}
	if f.trainRegressor == nil {
		f.trainRegressor = ForestRegressorTrainer(ml.RegressorConfig{
			Trees: cfg.Model.Trees,
			Seed:  cfg.Model.Seed,
		})
	}
	if f.now == nil {
		f.now = time.Now
	}
	if f.horizon <= 0 {
		f.horizon = ml.DefaultHorizon
	}

	return f, nil
}

// ForestClassifierTrainer trains a RainClassifier and logs its holdout accuracy.
func ForestClassifierTrainer(cfg ml.ClassifierConfig, logger *zap.Logger) ClassifierTrainer {
	return func(rows []dataset.FeatureVector, labels []int) (Classifier, error) {
		model, err := ml.TrainClassifier(rows, labels, cfg)
		if err != nil {
			return nil, err
		}
		accuracy, holdout := model.HoldoutAccuracy()
		logger.Info("Rain classifier trained",
			zap.Int("training_rows", len(labels)-holdout),
			zap.Int("holdout_rows", holdout),
			zap.Float64("holdout_accuracy", accuracy))
		return model, nil
	}
}

func ForestRegressorTrainer(cfg ml.RegressorConfig) RegressorTrainer {
	return func(x, y []float64) (ml.Stepper, error) {
		model, err := ml.TrainRegressor(x, y, cfg)
		if err != nil {
			return nil, err
		}
		return model, nil
	}
}

// Run executes one forecasting run for city. The returned report is never
// nil unless the run was rejected with ErrRunInProgress. A non-nil error
// means the run aborted; report.FailedStage names where.
func (f *Forecaster) Run(ctx context.Context, city string) (*RunReport, error) {
	if !f.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer f.running.Unlock()

	report := &RunReport{
		ID:        uuid.NewString(),
		City:      city,
		StartedAt: f.now(),
	}
	logger := f.logger.With(zap.String("run_id", report.ID), zap.String("city", city))
	logger.Info("Forecast run started")

	err := f.execute(ctx, report, logger)
	if err != nil {
		stage := report.State
		report.FailedStage = stage
		report.Reason = err.Error()
		report.Result = nil
		report.Message = ""
		f.transition(report, logger, StateAborted)

		logger.Error("Forecast run aborted",
			zap.String("stage", string(stage)),
			zap.Error(err))
		err = fmt.Errorf("forecast aborted during %s: %w", stage, err)
	}
	report.FinishedAt = f.now()

	f.record(report)

	if err == nil {
		logger.Info("Forecast run completed",
			zap.Int("warnings", len(report.Warnings)),
			zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))
	}
	return report, err
}

func (f *Forecaster) execute(ctx context.Context, report *RunReport, logger *zap.Logger) error {
	f.transition(report, logger, StateFetching)

	obs, err := f.observations.GetCurrentObservation(ctx, report.City)
	if err != nil {
		return ensureKind(err, models.ErrFetch, func(cause error) error {
			return &models.FetchError{Stage: "observation", Err: cause}
		})
	}
	if obs == nil {
		return models.NewFetchError("observation", "no observation returned for %s", report.City)
	}

	table, err := f.history.Load(ctx)
	if err != nil {
		return ensureKind(err, models.ErrData, func(cause error) error {
			return &models.DataError{Stage: "load", Err: cause}
		})
	}
	table, err = dataset.Clean(table)
	if err != nil {
		return err
	}
	logger.Debug("Historical data cleaned", zap.Int("rows", table.Len()))

	f.transition(report, logger, StatePreparing)

	ds, err := dataset.BuildClassificationDataset(table)
	if err != nil {
		return err
	}

	f.transition(report, logger, StateTrainingClassifier)

	classifier, err := f.trainClassifier(ds.Features, ds.Labels)
	if err != nil {
		return ensureKind(err, models.ErrModel, func(cause error) error {
			return &models.ModelError{Stage: "train classifier", Err: cause}
		})
	}
	if classifier == nil {
		return models.NewModelError("train classifier", "trainer returned no model")
	}

	f.transition(report, logger, StateClassifying)

	rain, err := f.classify(classifier, ds, *obs, report, logger)
	if err != nil {
		return err
	}

	f.transition(report, logger, StateTrainingRegressors)

	tempModel := f.fitRegressor(table, dataset.ColTemp, report, logger)
	humidityModel := f.fitRegressor(table, dataset.ColHumidity, report, logger)

	f.transition(report, logger, StateProjecting)

	tempPath := f.projectPath(tempModel, obs.TempMin, "temperature", report, logger)
	humidityPath := f.projectPath(humidityModel, obs.Humidity, "humidity", report, logger)

	f.transition(report, logger, StateAssembling)

	result := &models.ForecastResult{
		Observation:      *obs,
		RainPrediction:   rain,
		TemperaturePath:  tempPath,
		HumidityPath:     humidityPath,
		FutureTimestamps: LabelFutureHours(f.now(), f.horizon, f.location),
	}
	report.Result = result
	report.Message = RenderMessage(result)

	f.transition(report, logger, StatePublishing)

	if err := f.publisher.Publish(ctx, report.Message); err != nil {
		err = ensureKind(err, models.ErrPublish, func(cause error) error {
			return &models.PublishError{Stage: "publish", Err: cause}
		})
		report.Warnings = append(report.Warnings, err.Error())
		report.Degraded = true
		logger.Warn("Publishing forecast failed", zap.String("stage", string(StatePublishing)), zap.Error(err))
	}

	f.transition(report, logger, StateDone)
	return nil
}

func (f *Forecaster) classify(classifier Classifier, ds *dataset.ClassificationDataset, obs models.Observation, report *RunReport, logger *zap.Logger) (bool, error) {
	bucket, code := features.EncodeWindDirection(ds.WindVocabulary, obs.WindDirectionDegrees)
	if code == features.UnknownCode {
		warning := fmt.Sprintf("wind direction %s was not seen in historical data, encoded as %d", bucket, features.UnknownCode)
		report.Warnings = append(report.Warnings, warning)
		logger.Warn("Unseen wind direction", zap.String("bucket", bucket))
	}

	label, err := classifier.Predict(dataset.ObservationFeatures(obs, code))
	if err != nil {
		return false, ensureKind(err, models.ErrModel, func(cause error) error {
			return &models.ModelError{Stage: "classify", Err: cause}
		})
	}

	decoded, ok := ds.RainVocabulary.Decode(label)
	if !ok {
		return false, models.NewModelError("classify", "predicted label %d is not a known RainTomorrow value", label)
	}

	if !hasLabel(ds.RainVocabulary, rainYesLabel) {
		warning := fmt.Sprintf("RainTomorrow values %v contain no %q label, rain is always reported as No",
			ds.RainVocabulary.Labels(), rainYesLabel)
		report.Warnings = append(report.Warnings, warning)
		logger.Warn("RainTomorrow has no yes label", zap.Strings("labels", ds.RainVocabulary.Labels()))
	}

	rain := strings.EqualFold(decoded, rainYesLabel)
	logger.Debug("Rain predicted",
		zap.String("wind_bucket", bucket),
		zap.Int("label", label),
		zap.String("decoded", decoded))
	return rain, nil
}

// fitRegressor trains the lag model for column. A failure is recorded as a
// warning and yields nil, which projects to an empty path.
func (f *Forecaster) fitRegressor(table *dataset.Table, column string, report *RunReport, logger *zap.Logger) ml.Stepper {
	x, y, err := dataset.BuildLagPairs(table, column)
	if err == nil {
		var model ml.Stepper
		model, err = f.trainRegressor(x, y)
		if err == nil && model != nil {
			return model
		}
		if err == nil {
			err = models.NewModelError("train regressor", "trainer returned no model for %s", column)
		}
	}

	report.Warnings = append(report.Warnings, fmt.Sprintf("%s regressor unavailable: %v", column, err))
	report.Degraded = true
	logger.Warn("Regressor training failed",
		zap.String("stage", string(StateTrainingRegressors)),
		zap.String("column", column),
		zap.Error(err))
	return nil
}

func (f *Forecaster) projectPath(model ml.Stepper, seed float64, name string, report *RunReport, logger *zap.Logger) []float64 {
	if model == nil {
		return []float64{}
	}

	path, err := ml.Project(model, seed, f.horizon)
	if err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s projection failed: %v", name, err))
		report.Degraded = true
		logger.Warn("Projection failed",
			zap.String("stage", string(StateProjecting)),
			zap.String("path", name),
			zap.Error(err))
		return []float64{}
	}
	return path
}

// transition moves report to next. A run that reached DONE or ABORTED stays there.
func (f *Forecaster) transition(report *RunReport, logger *zap.Logger, next State) {
	from := report.State
	if from.Terminal() {
		logger.Warn("Ignoring transition out of terminal state",
			zap.String("from", string(from)),
			zap.String("to", string(next)))
		return
	}
	report.State = next
	report.Transitions = append(report.Transitions, next)
	logger.Debug("Forecast state changed",
		zap.String("from", string(from)),
		zap.String("to", string(next)))
}

func (f *Forecaster) record(report *RunReport) {
	f.mu.Lock()
	f.lastRunTime = report.FinishedAt
	switch {
	case report.State == StateAborted:
		f.aborted++
	case report.Degraded:
		f.succeeded++
		f.degraded++
	default:
		f.succeeded++
	}
	f.mu.Unlock()

	if f.runs != nil {
		f.runs.Add(*report)
	}
}

func (f *Forecaster) GetLastRunTime() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.lastRunTime
}

func (f *Forecaster) GetStats() map[string]interface{} {
	f.mu.RLock()
	defer f.mu.RUnlock()

	stats := map[string]interface{}{
		"last_run_time":  f.lastRunTime,
		"succeeded_runs": f.succeeded,
		"aborted_runs":   f.aborted,
		"degraded_runs":  f.degraded,
		"horizon":        f.horizon,
		"timezone":       f.location.String(),
	}
	if f.runs != nil {
		stats["history"] = f.runs.GetStats()
	}
	return stats
}

func hasLabel(vocab *features.Vocabulary, want string) bool {
	for _, label := range vocab.Labels() {
		if strings.EqualFold(label, want) {
			return true
		}
	}
	return false
}

// ensureKind keeps err as is when it already matches kind and wraps it otherwise.
func ensureKind(err error, kind error, wrap func(error) error) error {
	if errors.Is(err, kind) {
		return err
	}
	return wrap(err)
}
