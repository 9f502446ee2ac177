package features

// UnknownCode is returned by Encode for values that were not seen when the
// vocabulary was built. Inference keeps going with it instead of failing.
const UnknownCode = -1

// Vocabulary maps categorical labels of a single column to dense integer codes
// in first-seen order.
type Vocabulary struct {
	codes  map[string]int
	labels []string
}

// BuildVocabulary assigns each distinct value a code in the order it first appears.
func BuildVocabulary(values []string) *Vocabulary {
	v := &Vocabulary{codes: make(map[string]int)}
	for _, value := range values {
		if _, exists := v.codes[value]; exists {
			continue
		}
		v.codes[value] = len(v.labels)
		v.labels = append(v.labels, value)
	}
	return v
}

// Encode returns the code for value, or UnknownCode.
func (v *Vocabulary) Encode(value string) int {
	if v == nil {
		return UnknownCode
	}
	if code, ok := v.codes[value]; ok {
		return code
	}
	return UnknownCode
}

// Decode returns the label for code.
func (v *Vocabulary) Decode(code int) (string, bool) {
	if v == nil || code < 0 || code >= len(v.labels) {
		return "", false
	}
	return v.labels[code], true
}

// Contains reports whether value was seen during construction.
func (v *Vocabulary) Contains(value string) bool {
	return v.Encode(value) != UnknownCode
}

// Labels lists the classes in code order.
func (v *Vocabulary) Labels() []string {
	if v == nil {
		return nil
	}
	out := make([]string, len(v.labels))
	copy(out, v.labels)
	return out
}

func (v *Vocabulary) Len() int {
	if v == nil {
		return 0
	}
	return len(v.labels)
}
