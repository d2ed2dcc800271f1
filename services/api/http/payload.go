package http

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

// submission is the JSON body accepted by the submit endpoints. Counts stay
// raw so both numbers and numeric strings can be coerced.
type submission struct {
	Village  *string         `json:"village"`
	Diarrhea json.RawMessage `json:"diarrhea"`
	Fever    json.RawMessage `json:"fever"`
	Rainfall *string         `json:"rainfall"`
}

// rejection is input that cannot be coerced; handlers answer 400 with its message.
type rejection struct {
	msg string
}

func (r *rejection) Error() string { return r.msg }

func rejectf(format string, args ...any) error {
	return &rejection{msg: fmt.Sprintf(format, args...)}
}

// toNewObservation coerces a submission. Missing, null or empty counts are
// zero; text that is not a whole number, negative counts, an unknown
// rainfall level or a blank village are rejected.
func (p submission) toNewObservation() (db.NewObservation, error) {
	var in db.NewObservation

	if p.Village == nil || strings.TrimSpace(*p.Village) == "" {
		return in, rejectf("village is required")
	}
	in.Village = strings.TrimSpace(*p.Village)

	var err error
	if in.Diarrhea, err = parseCount("diarrhea", p.Diarrhea); err != nil {
		return in, err
	}
	if in.Fever, err = parseCount("fever", p.Fever); err != nil {
		return in, err
	}

	if p.Rainfall == nil {
		return in, rejectf("rainfall is required")
	}
	if in.Rainfall, err = risk.ParseRainfall(*p.Rainfall); err != nil {
		return in, rejectf("rainfall must be one of Low, Medium, High")
	}

	return in, nil
}

func parseCount(field string, raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}

	var n float64
	if strings.HasPrefix(s, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, rejectf("%s must be a whole number", field)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
		v, err := strconv.Atoi(text)
		if err != nil {
			return 0, rejectf("%s must be a whole number", field)
		}
		n = float64(v)
	} else {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, rejectf("%s must be a whole number", field)
		}
		n = math.Trunc(v)
	}

	switch {
	case n < 0:
		return 0, rejectf("%s must not be negative", field)
	case n > math.MaxInt32:
		return 0, rejectf("%s is too large", field)
	}
	return int(n), nil
}
