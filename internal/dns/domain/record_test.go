package domain

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestNewRecord(t *testing.T) {
	tests := []struct {
		name         string
		recordName   string
		data         RData
		expectError  bool
		expectedName string
		expectedType RRType
	}{
		{
			name:         "A record",
			recordName:   "example.com",
			data:         AData{IP: [4]byte{192, 168, 1, 1}},
			expectedName: "example.com",
			expectedType: RRTypeA,
		},
		{
			name:         "name is canonicalized",
			recordName:   "  Example.COM. ",
			data:         NSData{Host: "ns.example.com"},
			expectedName: "example.com",
			expectedType: RRTypeNS,
		},
		{
			name:         "opaque data keeps its code",
			recordName:   "example.com",
			data:         OpaqueData{Code: 16, Text: "hello"},
			expectedName: "example.com",
			expectedType: 16,
		},
		{
			name:        "empty name",
			recordName:  "",
			data:        AData{},
			expectError: true,
		},
		{
			name:        "nil data",
			recordName:  "example.com",
			data:        nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, err := NewRecord(tt.recordName, 300, tt.data, t0)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error, got record %+v", rr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rr.Name != tt.expectedName {
				t.Errorf("Name = %q, want %q", rr.Name, tt.expectedName)
			}
			if rr.Type != tt.expectedType {
				t.Errorf("Type = %v, want %v", rr.Type, tt.expectedType)
			}
			if rr.Class != RRClassIN {
				t.Errorf("Class = %v, want IN", rr.Class)
			}
			if !rr.CreatedAt.Equal(t0) {
				t.Errorf("CreatedAt = %v, want %v", rr.CreatedAt, t0)
			}
		})
	}
}

func TestRecord_Validate_TypeMismatch(t *testing.T) {
	rr := Record{Name: "example.com", Type: RRTypeMX, Class: RRClassIN, Data: AData{}}
	err := rr.Validate()
	if !errors.Is(err, ErrMalformedData) {
		t.Fatalf("expected ErrMalformedData, got %v", err)
	}
}

func TestRecord_RemainingTTL(t *testing.T) {
	rr, err := NewRecord("example.com", 3600, AData{IP: [4]byte{192, 168, 1, 1}}, t0)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	tests := []struct {
		name    string
		elapsed time.Duration
		want    uint32
		expired bool
	}{
		{"at creation", 0, 3600, false},
		{"fractional second elapsed", 500 * time.Millisecond, 3599, false},
		{"one second before expiry", 3599 * time.Second, 1, false},
		{"under a second left", 3599*time.Second + 900*time.Millisecond, 0, true},
		{"at expiry", 3600 * time.Second, 0, true},
		{"long after expiry", 2 * time.Hour, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := t0.Add(tt.elapsed)
			if got := rr.RemainingTTL(now); got != tt.want {
				t.Errorf("RemainingTTL = %d, want %d", got, tt.want)
			}
			if got := rr.IsExpired(now); got != tt.expired {
				t.Errorf("IsExpired = %v, want %v", got, tt.expired)
			}
		})
	}
}

func TestRecord_ZeroTTLIsExpired(t *testing.T) {
	rr, err := NewRecord("example.com", 0, CNAMEData{Target: "www.example.com"}, t0)
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	if !rr.IsExpired(t0) {
		t.Error("a zero TTL record should be expired immediately")
	}
}

func TestRecord_ExpiresAt(t *testing.T) {
	rr := Record{TTL: 90, CreatedAt: t0}
	if want := t0.Add(90 * time.Second); !rr.ExpiresAt().Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", rr.ExpiresAt(), want)
	}
}
