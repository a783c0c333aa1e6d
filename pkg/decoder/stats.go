package decoder

import (
	"encoding/json"
	"math"
	"strconv"
)

// Rate is a tokens per second figure. It always renders with two decimals.
type Rate float64

// String formats the rate to two decimal places.
func (r Rate) String() string {
	return strconv.FormatFloat(float64(r), 'f', 2, 64)
}

// MarshalJSON encodes the rate as a JSON number with two decimals.
func (r Rate) MarshalJSON() ([]byte, error) {
	return []byte(r.String()), nil
}

// Stats are the counters reported by the terminal record together with the
// rates derived from them. Pointer fields are nil when the terminal record
// did not carry them.
type Stats struct {
	PromptEvalCount    *int64 `json:"prompt_eval_count,omitempty"`
	PromptEvalDuration *int64 `json:"prompt_eval_duration,omitempty"`
	EvalCount          *int64 `json:"eval_count,omitempty"`
	EvalDuration       *int64 `json:"eval_duration,omitempty"`
	TotalDuration      *int64 `json:"total_duration,omitempty"`
	LoadDuration       *int64 `json:"load_duration,omitempty"`

	PromptRate *Rate `json:"prompt_tokens_per_sec,omitempty"`
	EvalRate   *Rate `json:"eval_tokens_per_sec,omitempty"`
}

// NewStats reads the counters off a terminal record and derives both rates.
// Rates are computed from the raw JSON numbers, so fractional values count.
// Counters are truncated toward zero and left nil when they do not fit an
// int64. It returns nil for a nil record.
func NewStats(rec *Record) *Stats {
	if rec == nil {
		return nil
	}

	promptCount := numField(rec.Fields, "prompt_eval_count")
	promptDuration := numField(rec.Fields, "prompt_eval_duration")
	evalCount := numField(rec.Fields, "eval_count")
	evalDuration := numField(rec.Fields, "eval_duration")

	return &Stats{
		PromptEvalCount:    toInt64(promptCount),
		PromptEvalDuration: toInt64(promptDuration),
		EvalCount:          toInt64(evalCount),
		EvalDuration:       toInt64(evalDuration),
		TotalDuration:      toInt64(numField(rec.Fields, "total_duration")),
		LoadDuration:       toInt64(numField(rec.Fields, "load_duration")),

		PromptRate: rate(promptCount, promptDuration),
		EvalRate:   rate(evalCount, evalDuration),
	}
}

// DerivedRate computes count / (durationNs / 1e9). It returns nil when either
// input is missing or zero.
func DerivedRate(count, durationNs *int64) *Rate {
	if count == nil || durationNs == nil {
		return nil
	}

	c, d := float64(*count), float64(*durationNs)
	return rate(&c, &d)
}

func rate(count, durationNs *float64) *Rate {
	if count == nil || durationNs == nil || *count == 0 || *durationNs == 0 {
		return nil
	}

	r := Rate(*count / (*durationNs / 1e9))
	return &r
}

func numField(fields map[string]any, key string) *float64 {
	var f float64
	switch v := fields[key].(type) {
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil
		}
		f = n
	case float64:
		f = v
	default:
		return nil
	}

	if math.IsInf(f, 0) || math.IsNaN(f) {
		return nil
	}
	return &f
}

// toInt64 truncates f toward zero. Values outside the int64 range yield nil.
func toInt64(f *float64) *int64 {
	if f == nil || *f < math.MinInt64 || *f >= math.MaxInt64 {
		return nil
	}

	n := int64(*f)
	return &n
}
