package mqtt

import (
	"encoding/json"
	"errors"

	"github.com/sweeney/triac-dimmer/internal/dimmer"
)

// PlanStep is one decoded schedule entry: an absolute Unix-millisecond
// timestamp plus the raw value list for all channels.
type PlanStep struct {
	TimestampMS int64
	Values      []uint8
}

// Plan is a decoded plan message. Replace indicates the existing schedule
// must be cleared before the steps are queued (legacy sequence format
// semantics).
type Plan struct {
	Steps   []PlanStep
	Replace bool
}

var (
	errMissingValues = errors.New("mqtt: payload missing values")
	errUnknownFormat = errors.New("mqtt: unrecognized plan format")
)

// DecodeStatic parses a static message: a JSON object with a "values"
// array of at least one element, each 0-255. Shorter-than-channel-count
// lists are zero-padded downstream.
func DecodeStatic(payload []byte) ([]uint8, error) {
	var doc struct {
		Values []uint8 `json:"values"`
	}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, err
	}
	if len(doc.Values) == 0 {
		return nil, errMissingValues
	}
	return doc.Values, nil
}

// planDoc covers every wire format a plan message can arrive in. Format
// version 2 is authoritative; the commands and sequence shapes are kept
// for backward compatibility with older planners.
type planDoc struct {
	FormatVersion int `json:"format_version"`

	Steps []struct {
		TsMS   *int64  `json:"ts_ms"`
		Values []uint8 `json:"values"`
	} `json:"steps"`

	Commands []struct {
		Timestamp  *int64  `json:"timestamp"`
		DurationMS *int64  `json:"duration_ms"`
		Values     []uint8 `json:"values"`
	} `json:"commands"`
	BaseTimestamp *int64 `json:"base_timestamp"`

	Sequence   [][]uint8 `json:"sequence"`
	Timestamp  *int64    `json:"timestamp"`
	IntervalMS *int64    `json:"interval_ms"`
}

// DecodePlan parses a plan message. Steps with fewer values than the
// channel count or without a usable timestamp are dropped individually;
// the remaining steps are returned. nowMS anchors legacy duration-based
// commands that carry no base timestamp.
func DecodePlan(payload []byte, nowMS int64) (Plan, error) {
	var doc planDoc
	if err := json.Unmarshal(payload, &doc); err != nil {
		return Plan{}, err
	}

	if doc.FormatVersion == 2 {
		if doc.Steps == nil {
			return Plan{}, errUnknownFormat
		}
		var plan Plan
		for _, s := range doc.Steps {
			if s.TsMS == nil || len(s.Values) < dimmer.NumChannels {
				continue
			}
			plan.Steps = append(plan.Steps, PlanStep{TimestampMS: *s.TsMS, Values: s.Values})
		}
		return plan, nil
	}

	if doc.Commands != nil {
		base := nowMS
		if doc.BaseTimestamp != nil {
			base = *doc.BaseTimestamp * 1000
		}
		cursor := base
		var plan Plan
		for _, c := range doc.Commands {
			var execMS int64
			switch {
			case c.Timestamp != nil:
				execMS = *c.Timestamp * 1000
			case c.DurationMS != nil:
				cursor += *c.DurationMS
				execMS = cursor
			default:
				continue
			}
			if len(c.Values) < dimmer.NumChannels {
				continue
			}
			plan.Steps = append(plan.Steps, PlanStep{TimestampMS: execMS, Values: c.Values})
		}
		return plan, nil
	}

	if doc.Sequence != nil {
		if doc.Timestamp == nil || doc.IntervalMS == nil {
			return Plan{}, errUnknownFormat
		}
		cursor := *doc.Timestamp * 1000
		plan := Plan{Replace: true}
		for _, values := range doc.Sequence {
			if len(values) < dimmer.NumChannels {
				continue
			}
			plan.Steps = append(plan.Steps, PlanStep{TimestampMS: cursor, Values: values})
			cursor += *doc.IntervalMS
		}
		return plan, nil
	}

	return Plan{}, errUnknownFormat
}
