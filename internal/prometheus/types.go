package prometheus

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// InstantSample is one series returned by an instant query. The value is kept
// as the raw string Prometheus reports; callers parse it for their own domain.
type InstantSample struct {
	Labels    map[string]string
	Timestamp float64
	Value     string
}

// SamplePair is a single (timestamp, value) point from a range query.
type SamplePair struct {
	Timestamp float64
	Value     float64
}

// Series is one matrix entry from a range query: a label set plus its
// timestamp-ordered samples.
type Series struct {
	Labels map[string]string
	Values []SamplePair
}

// apiEnvelope is the outer Prometheus HTTP API v1 response.
type apiEnvelope struct {
	Status    string  `json:"status"`
	Data      apiData `json:"data"`
	ErrorType string  `json:"errorType"`
	Error     string  `json:"error"`
}

type apiData struct {
	ResultType string          `json:"resultType"`
	Result     json.RawMessage `json:"result"`
}

type vectorEntry struct {
	Metric map[string]string `json:"metric"`
	Value  rawPoint          `json:"value"`
}

type matrixEntry struct {
	Metric map[string]string `json:"metric"`
	Values []rawPoint        `json:"values"`
}

// rawPoint is the wire form of a sample: a two-element array of
// [unix seconds (number), value (string)].
type rawPoint [2]json.RawMessage

func (p rawPoint) decode() (float64, string, error) {
	if p[0] == nil || p[1] == nil {
		return 0, "", fmt.Errorf("sample point is incomplete")
	}

	var ts json.Number
	if err := json.Unmarshal(p[0], &ts); err != nil {
		return 0, "", fmt.Errorf("parse sample timestamp: %w", err)
	}
	seconds, err := ts.Float64()
	if err != nil {
		return 0, "", fmt.Errorf("parse sample timestamp %q: %w", ts.String(), err)
	}

	var value string
	if err := json.Unmarshal(p[1], &value); err != nil {
		return 0, "", fmt.Errorf("parse sample value: %w", err)
	}

	return seconds, value, nil
}

func (p rawPoint) decodeFloat() (float64, float64, error) {
	seconds, raw, err := p.decode()
	if err != nil {
		return 0, 0, err
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse sample value %q: %w", raw, err)
	}
	return seconds, value, nil
}
