package model

import (
	"encoding/json"
	"testing"
)

func TestSizeMBMarshal(t *testing.T) {
	cases := []struct {
		in   SizeMB
		want string
	}{
		{KnownSizeMB(10), "10"},
		{KnownSizeMB(10.456), "10.46"},
		{KnownSizeMB(1.004), "1"},
		{SizeMB{}, `"Unknown"`},
	}

	for _, tc := range cases {
		got, err := json.Marshal(tc.in)
		if err != nil {
			t.Fatalf("marshal %+v: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("marshal %+v = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFpsMarshal(t *testing.T) {
	cases := []struct {
		in   Fps
		want string
	}{
		{Fps{Value: 30, Known: true}, "30"},
		{Fps{}, `"Unknown"`},
		{Fps{AudioOnly: true}, `"N/A"`},
	}

	for _, tc := range cases {
		got, err := json.Marshal(tc.in)
		if err != nil {
			t.Fatalf("marshal %+v: %v", tc.in, err)
		}
		if string(got) != tc.want {
			t.Fatalf("marshal %+v = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestJobTerminal(t *testing.T) {
	for _, status := range []string{StatusStarting, StatusDownloading, StatusProcessing, StatusUnknown} {
		if (Job{Status: status}).Terminal() {
			t.Fatalf("%s must not be terminal", status)
		}
	}
	for _, status := range []string{StatusComplete, StatusError} {
		if !(Job{Status: status}).Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
}
