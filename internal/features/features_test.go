package features

import (
	"reflect"
	"testing"
)

func TestBuildVocabularyFirstSeenOrder(t *testing.T) {
	t.Parallel()

	values := []string{"W", "N", "W", "SSE", "N"}
	vocab := BuildVocabulary(values)

	if got, want := vocab.Labels(), []string{"W", "N", "SSE"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected labels: got %v want %v", got, want)
	}

	if !vocab.Contains("SSE") || vocab.Contains("E") || vocab.Contains("") {
		t.Fatalf("Contains should only report seen values")
	}

	again := BuildVocabulary(values)
	for _, v := range values {
		if vocab.Encode(v) != again.Encode(v) {
			t.Fatalf("vocabulary not deterministic for %q", v)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	values := []string{"Yes", "No", "No", "Yes"}
	vocab := BuildVocabulary(values)

	for _, v := range values {
		code := vocab.Encode(v)
		if code < 0 || code > vocab.Len()-1 {
			t.Fatalf("code for %q out of range: %d", v, code)
		}
		label, ok := vocab.Decode(code)
		if !ok || label != v {
			t.Fatalf("decode(%d) = %q, %v; want %q", code, label, ok, v)
		}
	}

	if code := vocab.Encode("Maybe"); code != UnknownCode {
		t.Fatalf("expected unknown code for unseen value, got %d", code)
	}
	if _, ok := vocab.Decode(UnknownCode); ok {
		t.Fatalf("decode of unknown code should fail")
	}
}

func TestNilVocabulary(t *testing.T) {
	t.Parallel()

	var vocab *Vocabulary
	if vocab.Encode("N") != UnknownCode {
		t.Fatalf("nil vocabulary must return unknown code")
	}
	if vocab.Len() != 0 {
		t.Fatalf("nil vocabulary must be empty")
	}
}

func TestCompassBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		degrees float64
		want    string
	}{
		{0, "N"},
		{5, "N"},
		{11.25, "NNE"},
		{90, "E"},
		{200, "SSW"},
		{191.25, "SSW"},
		{213.75, "SW"},
		{330, "NNW"},
		{350, "NNW"},
		{359.9, "NNW"},
		{365, "N"},
		{-10, "NNW"},
		{720 + 45, "NE"},
	}

	for _, tt := range tests {
		if got := CompassBucket(tt.degrees); got != tt.want {
			t.Fatalf("CompassBucket(%v) = %s, want %s", tt.degrees, got, tt.want)
		}
	}
}

func TestEncodeWindDirection(t *testing.T) {
	t.Parallel()

	vocab := BuildVocabulary([]string{"SSW", "N"})

	bucket, code := EncodeWindDirection(vocab, 5)
	if bucket != "N" || code != 1 {
		t.Fatalf("got %s/%d, want N/1", bucket, code)
	}

	bucket, code = EncodeWindDirection(vocab, 90)
	if bucket != "E" || code != UnknownCode {
		t.Fatalf("got %s/%d, want E/-1", bucket, code)
	}

	if len(CompassLabels()) != 16 {
		t.Fatalf("expected 16 compass labels")
	}
}
