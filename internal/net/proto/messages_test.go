package proto

import (
	"encoding/json"
	"testing"
)

func TestEncodeWrapsPayloadInEnvelope(t *testing.T) {
	data, err := Encode(TypePlayerDied, PlayerDied{PlayerID: "p2", KillerID: "p1"})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != TypePlayerDied {
		t.Fatalf("envelope type %q", env.Type)
	}
	var died PlayerDied
	if err := json.Unmarshal(env.Payload, &died); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if died.PlayerID != "p2" || died.KillerID != "p1" {
		t.Fatalf("payload round trip lost fields: %+v", died)
	}
}

func TestPlayerInputDistinguishesAbsentFromZero(t *testing.T) {
	var sparse PlayerInput
	if err := json.Unmarshal([]byte(`{"keys":{"w":true},"timestamp":0}`), &sparse); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sparse.Yaw != nil || sparse.Shoot != nil {
		t.Fatalf("absent optional fields decoded non-nil: %+v", sparse)
	}

	var explicit PlayerInput
	if err := json.Unmarshal([]byte(`{"yaw":0,"shoot":false,"timestamp":0}`), &explicit); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if explicit.Yaw == nil || *explicit.Yaw != 0 {
		t.Fatalf("explicit zero yaw lost: %+v", explicit.Yaw)
	}
	if explicit.Shoot == nil || *explicit.Shoot {
		t.Fatalf("explicit false shoot lost: %+v", explicit.Shoot)
	}
}

func TestPlayerInputRejectsWrongTypes(t *testing.T) {
	var msg PlayerInput
	if err := json.Unmarshal([]byte(`{"yaw":"sideways"}`), &msg); err == nil {
		t.Fatalf("string yaw decoded without error")
	}
	if err := json.Unmarshal([]byte(`{"shoot":1}`), &msg); err == nil {
		t.Fatalf("numeric shoot decoded without error")
	}
}
