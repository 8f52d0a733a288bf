package utils

import (
	"testing"
)

func TestFlexString_DecodesBothWireShapes(t *testing.T) {
	type record struct {
		Sector FlexString `json:"sector"`
		Owner  FlexString `json:"owned_by"`
		HCode  FlexString `json:"u_h_code"`
	}

	payload := `{
		"sector": "Consumer Banking",
		"owned_by": {"value": "u-77", "display_value": "Dana Whitfield"},
		"u_h_code": {"value": "H-CB-100"}
	}`

	var rec record
	if err := UnmarshalFromJSON([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if rec.Sector.String() != "Consumer Banking" {
		t.Fatalf("plain string decoded as %q", rec.Sector)
	}
	if rec.Owner.String() != "Dana Whitfield" {
		t.Fatalf("reference object should prefer display_value, got %q", rec.Owner)
	}
	if rec.HCode.String() != "H-CB-100" {
		t.Fatalf("reference object without display_value should fall back to value, got %q", rec.HCode)
	}
}

func TestFlexString_NullAndMissing(t *testing.T) {
	type record struct {
		Sector FlexString `json:"sector"`
		Owner  FlexString `json:"owned_by"`
	}

	var rec record
	if err := UnmarshalFromJSON([]byte(`{"sector": null}`), &rec); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if rec.Sector != "" || rec.Owner != "" {
		t.Fatalf("null/missing fields should decode empty, got %q / %q", rec.Sector, rec.Owner)
	}
}

func TestFlexString_RejectsNonStringShapes(t *testing.T) {
	var f FlexString
	if err := f.UnmarshalJSON([]byte(`[1, 2, 3]`)); err == nil {
		t.Fatal("array payload should fail to decode")
	}
}

func TestMarshalToJSON_RoundTrip(t *testing.T) {
	type pk struct {
		DonorAppId    int `json:"donor_app_id"`
		SurvivorAppId int `json:"survivor_app_id"`
	}
	out, err := MarshalToJSON(pk{DonorAppId: 1, SurvivorAppId: 4})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"donor_app_id":1,"survivor_app_id":4}`
	if out != want {
		t.Fatalf("marshal produced %s, want %s", out, want)
	}
}
