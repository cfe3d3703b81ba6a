package mqtt

import (
	"testing"
)

func TestDecodeStatic(t *testing.T) {
	values, err := DecodeStatic([]byte(`{"values":[255,128,0,64]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 4 || values[0] != 255 || values[3] != 64 {
		t.Errorf("unexpected values %v", values)
	}
}

func TestDecodeStaticShortListIsAccepted(t *testing.T) {
	values, err := DecodeStatic([]byte(`{"values":[10]}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(values) != 1 || values[0] != 10 {
		t.Errorf("unexpected values %v", values)
	}
}

func TestDecodeStaticRejectsBadPayloads(t *testing.T) {
	if _, err := DecodeStatic([]byte(`{"values":[]}`)); err == nil {
		t.Error("empty values accepted")
	}
	if _, err := DecodeStatic([]byte(`{}`)); err == nil {
		t.Error("missing values accepted")
	}
	if _, err := DecodeStatic([]byte(`not json`)); err == nil {
		t.Error("malformed JSON accepted")
	}
	if _, err := DecodeStatic([]byte(`{"values":[300]}`)); err == nil {
		t.Error("out-of-range value accepted")
	}
}

func TestDecodePlanFormatVersion2(t *testing.T) {
	payload := []byte(`{
		"format_version": 2,
		"steps": [
			{"ts_ms": 1000, "values": [1,2,3,4]},
			{"ts_ms": 2000, "values": [5,6,7,8]}
		]
	}`)

	plan, err := DecodePlan(payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Replace {
		t.Error("v2 plans must not request replacement")
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].TimestampMS != 1000 || plan.Steps[1].TimestampMS != 2000 {
		t.Errorf("timestamps wrong: %+v", plan.Steps)
	}
	if plan.Steps[1].Values[0] != 5 {
		t.Errorf("values wrong: %+v", plan.Steps[1])
	}
}

func TestDecodePlanV2DropsInvalidStepsIndividually(t *testing.T) {
	payload := []byte(`{
		"format_version": 2,
		"steps": [
			{"ts_ms": 1000, "values": [1,2]},
			{"values": [1,2,3,4]},
			{"ts_ms": 3000, "values": [9,9,9,9]}
		]
	}`)

	plan, err := DecodePlan(payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 1 {
		t.Fatalf("expected 1 surviving step, got %d", len(plan.Steps))
	}
	if plan.Steps[0].TimestampMS != 3000 {
		t.Errorf("wrong step survived: %+v", plan.Steps[0])
	}
}

func TestDecodePlanV2WithoutStepsFails(t *testing.T) {
	if _, err := DecodePlan([]byte(`{"format_version":2}`), 0); err == nil {
		t.Error("v2 without steps accepted")
	}
}

func TestDecodePlanLegacyCommandsAbsoluteTimestamps(t *testing.T) {
	payload := []byte(`{
		"commands": [
			{"timestamp": 100, "values": [1,1,1,1]},
			{"timestamp": 200, "values": [2,2,2,2]}
		]
	}`)

	plan, err := DecodePlan(payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].TimestampMS != 100000 || plan.Steps[1].TimestampMS != 200000 {
		t.Errorf("second timestamps not scaled to ms: %+v", plan.Steps)
	}
}

func TestDecodePlanLegacyCommandsCumulativeDurations(t *testing.T) {
	payload := []byte(`{
		"base_timestamp": 10,
		"commands": [
			{"duration_ms": 500, "values": [1,1,1,1]},
			{"duration_ms": 500, "values": [2,2,2,2]}
		]
	}`)

	plan, err := DecodePlan(payload, 99999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(plan.Steps))
	}
	if plan.Steps[0].TimestampMS != 10500 {
		t.Errorf("first step at %d, want 10500", plan.Steps[0].TimestampMS)
	}
	if plan.Steps[1].TimestampMS != 11000 {
		t.Errorf("second step at %d, want 11000", plan.Steps[1].TimestampMS)
	}
}

func TestDecodePlanLegacyCommandsAnchorOnNow(t *testing.T) {
	payload := []byte(`{
		"commands": [
			{"duration_ms": 250, "values": [1,1,1,1]}
		]
	}`)

	plan, err := DecodePlan(payload, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Steps) != 1 || plan.Steps[0].TimestampMS != 5250 {
		t.Errorf("expected one step at 5250, got %+v", plan.Steps)
	}
}

func TestDecodePlanSequence(t *testing.T) {
	payload := []byte(`{
		"timestamp": 1,
		"interval_ms": 100,
		"sequence": [
			[1,1,1,1],
			[2,2],
			[3,3,3,3]
		]
	}`)

	plan, err := DecodePlan(payload, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Replace {
		t.Error("sequence plans must replace the existing schedule")
	}
	if len(plan.Steps) != 2 {
		t.Fatalf("expected 2 steps (short row dropped), got %d", len(plan.Steps))
	}
	// The cursor advances only for accepted rows.
	if plan.Steps[0].TimestampMS != 1000 || plan.Steps[1].TimestampMS != 1100 {
		t.Errorf("sequence timestamps wrong: %+v", plan.Steps)
	}
}

func TestDecodePlanSequenceMissingFieldsFails(t *testing.T) {
	if _, err := DecodePlan([]byte(`{"sequence":[[1,1,1,1]]}`), 0); err == nil {
		t.Error("sequence without timestamp and interval accepted")
	}
}

func TestDecodePlanUnknownShapeFails(t *testing.T) {
	if _, err := DecodePlan([]byte(`{"something":"else"}`), 0); err == nil {
		t.Error("unknown shape accepted")
	}
	if _, err := DecodePlan([]byte(`garbage`), 0); err == nil {
		t.Error("malformed JSON accepted")
	}
}

func TestFormatHeartbeat(t *testing.T) {
	payload, err := FormatHeartbeat("dimmer-1", "2.3.1", "STATIC", 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"device_id":"dimmer-1","uptime":42,"firmware":"2.3.1","mode":"STATIC"}`
	if string(payload) != want {
		t.Errorf("heartbeat payload\n got %s\nwant %s", payload, want)
	}
}
