package dataset

import (
	"math"
	"strconv"

	"github.com/bobby-s-dev/weather-forecaster/internal/features"
	"github.com/bobby-s-dev/weather-forecaster/internal/models"
)

// FeatureCount is the width of a FeatureVector.
const FeatureCount = 7

// FeatureColumns is the classifier schema. The order is shared by training
// and inference and must not change.
var FeatureColumns = [FeatureCount]string{
	ColMinTemp,
	ColMaxTemp,
	ColWindGustDir,
	ColWindGustSpeed,
	ColHumidity,
	ColPressure,
	ColTemp,
}

// FeatureVector holds one row of classifier input in FeatureColumns order.
type FeatureVector [FeatureCount]float64

// NewFeatureVector lays out the fields in schema order.
func NewFeatureVector(minTemp, maxTemp float64, windDirCode int, windGustSpeed, humidity, pressure, temp float64) FeatureVector {
	return FeatureVector{minTemp, maxTemp, float64(windDirCode), windGustSpeed, humidity, pressure, temp}
}

// ObservationFeatures maps a live observation onto the classifier schema.
// The provider's wind speed stands in for the gust speed column.
func ObservationFeatures(obs models.Observation, windDirCode int) FeatureVector {
	return NewFeatureVector(
		obs.TempMin,
		obs.TempMax,
		windDirCode,
		obs.WindSpeed,
		obs.Humidity,
		obs.Pressure,
		obs.CurrentTemp,
	)
}

// ClassificationDataset is the encoded rain-tomorrow training set.
type ClassificationDataset struct {
	Features       []FeatureVector
	Labels         []int
	WindVocabulary *features.Vocabulary
	RainVocabulary *features.Vocabulary
}

// Records parses every row of t into typed historical records.
func Records(t *Table) ([]models.HistoricalRecord, error) {
	if t.Len() == 0 {
		return nil, models.NewDataError("prepare", "historical table has no rows")
	}

	records := make([]models.HistoricalRecord, 0, t.Len())
	for i, row := range t.rows {
		var rec models.HistoricalRecord
		var err error
		parse := func(col string) float64 {
			if err != nil {
				return 0
			}
			var v float64
			v, err = parseNumber(row[t.index[col]], col, i)
			return v
		}

		rec.MinTemp = parse(ColMinTemp)
		rec.MaxTemp = parse(ColMaxTemp)
		rec.WindGustSpeed = parse(ColWindGustSpeed)
		rec.Humidity = parse(ColHumidity)
		rec.Pressure = parse(ColPressure)
		rec.Temp = parse(ColTemp)
		if err != nil {
			return nil, err
		}
		rec.WindGustDir = row[t.index[ColWindGustDir]]
		rec.RainTomorrow = row[t.index[ColRainTomorrow]]
		records = append(records, rec)
	}
	return records, nil
}

// BuildClassificationDataset encodes WindGustDir and RainTomorrow with two
// independent vocabularies and emits one feature vector and label per row.
func BuildClassificationDataset(t *Table) (*ClassificationDataset, error) {
	records, err := Records(t)
	if err != nil {
		return nil, err
	}

	windValues := make([]string, len(records))
	rainValues := make([]string, len(records))
	for i, rec := range records {
		windValues[i] = rec.WindGustDir
		rainValues[i] = rec.RainTomorrow
	}

	ds := &ClassificationDataset{
		Features:       make([]FeatureVector, len(records)),
		Labels:         make([]int, len(records)),
		WindVocabulary: features.BuildVocabulary(windValues),
		RainVocabulary: features.BuildVocabulary(rainValues),
	}

	for i, rec := range records {
		ds.Features[i] = NewFeatureVector(
			rec.MinTemp,
			rec.MaxTemp,
			ds.WindVocabulary.Encode(rec.WindGustDir),
			rec.WindGustSpeed,
			rec.Humidity,
			rec.Pressure,
			rec.Temp,
		)
		ds.Labels[i] = ds.RainVocabulary.Encode(rec.RainTomorrow)
	}

	return ds, nil
}

// BuildLagPairs returns (value[i], value[i+1]) for every consecutive pair of
// rows in the named numeric column.
func BuildLagPairs(t *Table, column string) ([]float64, []float64, error) {
	if t == nil {
		return nil, nil, models.NewDataError("prepare", "no historical table")
	}
	raw, err := t.Column(column)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) < 2 {
		return nil, nil, models.NewDataError("prepare", "column %s needs at least 2 rows, got %d", column, len(raw))
	}

	values := make([]float64, len(raw))
	for i, cell := range raw {
		if values[i], err = parseNumber(cell, column, i); err != nil {
			return nil, nil, err
		}
	}

	x := make([]float64, 0, len(values)-1)
	y := make([]float64, 0, len(values)-1)
	for i := 0; i < len(values)-1; i++ {
		x = append(x, values[i])
		y = append(y, values[i+1])
	}
	return x, y, nil
}

func parseNumber(cell, column string, row int) (float64, error) {
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, models.NewDataError("prepare", "column %s row %d: %q is not numeric", column, row, cell)
	}
	return v, nil
}
