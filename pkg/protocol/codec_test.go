package protocol

import (
	"encoding/json"
	"reflect"
	"testing"
)

func intPtr(i int) *int {
	return &i
}

func TestDecodeLog(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"log","log":"mumble connected"}`))
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	wantedMSG := &LogMessage{
		DefaultMessage: DefaultMessage{TypeLog},
		Log:            "mumble connected",
	}
	if !reflect.DeepEqual(wantedMSG, msg) {
		t.Errorf("Wanted %+v, got %+v", wantedMSG, msg)
	}
}

func TestDecodeStatus(t *testing.T) {
	tests := []struct {
		frame      string
		wantedVAD  VoiceActivity
		wantedVol  *int
		volumeNull bool
	}{
		{`{"type":"status","vad":"SPEECH","volume":42}`, "SPEECH", intPtr(42), false},
		{`{"type":"status","vad":"SILENCE","volume":null}`, "SILENCE", nil, true},
		{`{"type":"status","vad":"SILENCE"}`, "SILENCE", nil, true},
		{`{"type":"status","vad":0.7}`, "0.7", nil, true},
	}

	for _, test := range tests {
		msg, err := Decode([]byte(test.frame))
		if err != nil {
			t.Errorf("Decode %s: %s", test.frame, err)
			continue
		}
		status, ok := msg.(*StatusMessage)
		if !ok {
			t.Errorf("Decode %s: wanted *StatusMessage, got %T", test.frame, msg)
			continue
		}
		if status.VAD != test.wantedVAD {
			t.Errorf("Decode %s: wanted vad %q, got %q", test.frame, test.wantedVAD, status.VAD)
		}
		if test.volumeNull != (status.Volume == nil) {
			t.Errorf("Decode %s: wanted nil volume %v, got %v", test.frame, test.volumeNull, status.Volume)
		} else if !test.volumeNull && *status.Volume != *test.wantedVol {
			t.Errorf("Decode %s: wanted volume %d, got %d", test.frame, *test.wantedVol, *status.Volume)
		}
	}
}

func TestDecodeIntegralFloatDeviceID(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"init","data":{"devices":[["USB Mic",2.0]]}}`))
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	devices := msg.(*InitMessage).Data.Devices
	if len(devices) != 1 || devices[0].ID == nil || *devices[0].ID != 2 {
		t.Errorf("Wanted card 2, got %+v", devices)
	}
}

func TestDecodeInit(t *testing.T) {
	frame := `{"type":"init","data":{"devices":[["USB Mic",2],["bcm2835 Headphones","0"]],"speaker":null,"microphone":2,"log":["hello","world"]}}`
	msg, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("Decode: %s", err)
	}
	wantedMSG := &InitMessage{
		DefaultMessage: DefaultMessage{TypeInit},
		Data: Snapshot{
			Devices: []Device{
				{Name: "USB Mic", ID: intPtr(2)},
				{Name: "bcm2835 Headphones", ID: intPtr(0)},
			},
			Microphone: intPtr(2),
			Log:        []string{"hello", "world"},
		},
	}
	if !reflect.DeepEqual(wantedMSG, msg) {
		t.Errorf("Wanted %+v, got %+v", wantedMSG, msg)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"motd","motd":"hi"}`)); err == nil {
		t.Errorf("Unknown type decoded without error")
	} else if unknown, ok := err.(UnknownTypeError); !ok || unknown.Type != "motd" {
		t.Errorf("Wanted UnknownTypeError for motd, got %#v", err)
	}

	for _, frame := range []string{
		`not json`,
		`{"type":"init","data":{"devices":[["only name"]]}}`,
		`{"type":"init","data":{"devices":[["bad id","two"]]}}`,
		`{"type":"init","data":{"devices":[["fractional id",2.7]]}}`,
		`{"type":"init","data":{"devices":[["huge id",1e20]]}}`,
		`{"type":"log","log":5}`,
	} {
		if _, err := Decode([]byte(frame)); err == nil {
			t.Errorf("Decode %s: wanted error", frame)
		}
	}
}

func TestEncodeCommands(t *testing.T) {
	tests := []struct {
		msg    Message
		wanted string
	}{
		{NewCommand(TypeReset), `{"type":"reset"}`},
		{NewCommand(TypeShutdown), `{"type":"shutdown"}`},
		{NewCommand(TypeVolumeUp), `{"type":"volume_up"}`},
		{NewCommand(TypeVolumeDown), `{"type":"volume_down"}`},
		{NewSetMicrophone(intPtr(2)), `{"type":"set_microphone","speaker":2}`},
		{NewSetSpeaker(intPtr(1)), `{"type":"set_speaker","speaker":1}`},
		{NewSetSpeaker(nil), `{"type":"set_speaker","speaker":null}`},
	}

	for _, test := range tests {
		data, err := Encode(test.msg)
		if err != nil {
			t.Errorf("Encode %s: %s", test.msg.Message(), err)
			continue
		}
		if string(data) != test.wanted {
			t.Errorf("Encode %s: wanted %s, got %s", test.msg.Message(), test.wanted, data)
		}
	}
}

func TestDeviceRoundTrip(t *testing.T) {
	dev := Device{Name: "USB Mic", ID: intPtr(2)}
	data, err := json.Marshal(dev)
	if err != nil {
		t.Fatalf("Marshal: %s", err)
	}
	if string(data) != `["USB Mic",2]` {
		t.Errorf("Wanted [\"USB Mic\",2], got %s", data)
	}
	if dev.Label() != "Card 2: USB Mic" {
		t.Errorf("Wanted label %q, got %q", "Card 2: USB Mic", dev.Label())
	}
}

func TestSnapshotHasDevice(t *testing.T) {
	s := Snapshot{Devices: []Device{{Name: "USB Mic", ID: intPtr(2)}}}
	if !s.HasDevice(nil) {
		t.Errorf("nil id should always be present")
	}
	if !s.HasDevice(intPtr(2)) {
		t.Errorf("Card 2 should be present")
	}
	if s.HasDevice(intPtr(3)) {
		t.Errorf("Card 3 should not be present")
	}
	if HasDevice(nil, intPtr(2)) {
		t.Errorf("Card 2 found in an empty device list")
	}
}
