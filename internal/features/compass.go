package features

import "math"

type compassPoint struct {
	name       string
	start, end float64
}

// 16 arcs of 22.5 degrees, except the first which starts at 0.
var compassPoints = []compassPoint{
	{"N", 0, 11.25},
	{"NNE", 11.25, 33.75},
	{"NE", 33.75, 56.25},
	{"ENE", 56.25, 78.75},
	{"E", 78.75, 101.25},
	{"ESE", 101.25, 123.75},
	{"SE", 123.75, 146.25},
	{"SSE", 146.25, 168.75},
	{"S", 168.75, 191.25},
	{"SSW", 191.25, 213.75},
	{"SW", 213.75, 236.25},
	{"WSW", 236.25, 258.75},
	{"W", 258.75, 281.25},
	{"WNW", 281.25, 303.75},
	{"NW", 303.75, 326.25},
	{"NNW", 326.25, 348.75},
}

// CompassBucket converts a wind direction in degrees to its compass label.
// Degrees are normalised into [0, 360). The arc table leaves [348.75, 360)
// uncovered; those headings fall into the last arc, NNW.
func CompassBucket(degrees float64) string {
	deg := math.Mod(degrees, 360)
	if deg < 0 {
		deg += 360
	}

	for _, point := range compassPoints {
		if deg >= point.start && deg < point.end {
			return point.name
		}
	}
	return compassPoints[len(compassPoints)-1].name
}

// CompassLabels returns the 16 bucket names clockwise from N.
func CompassLabels() []string {
	out := make([]string, len(compassPoints))
	for i, point := range compassPoints {
		out[i] = point.name
	}
	return out
}

// EncodeWindDirection buckets degrees and looks the bucket up in vocab.
func EncodeWindDirection(vocab *Vocabulary, degrees float64) (string, int) {
	bucket := CompassBucket(degrees)
	if !vocab.Contains(bucket) {
		return bucket, UnknownCode
	}
	return bucket, vocab.Encode(bucket)
}
