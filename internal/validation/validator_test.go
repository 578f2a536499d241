// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package validation

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type pairRecord struct {
	ItemA int64   `json:"item_a" validate:"gt=0"`
	ItemB int64   `json:"item_b" validate:"gtfield=ItemA"`
	Score float64 `json:"score" validate:"gte=0,lte=1"`
}

type listRequest struct {
	MaxResults int    `json:"max_results" validate:"min=1,max=500"`
	Backend    string `koanf:"backend" validate:"oneof=duckdb postgres"`
}

func TestGetValidator_Singleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("GetValidator() should return the same instance")
	}
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantErr   bool
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid pair",
			input: &pairRecord{ItemA: 1, ItemB: 2, Score: 0.5},
		},
		{
			name:      "non canonical pair",
			input:     &pairRecord{ItemA: 3, ItemB: 2, Score: 0.5},
			wantErr:   true,
			wantField: "item_b",
			wantMsg:   "item_b must be greater than item_a",
		},
		{
			name:      "score out of range",
			input:     &pairRecord{ItemA: 1, ItemB: 2, Score: 1.5},
			wantErr:   true,
			wantField: "score",
			wantMsg:   "score must be less than or equal to 1",
		},
		{
			name:      "max results too small",
			input:     &listRequest{MaxResults: 0, Backend: "duckdb"},
			wantErr:   true,
			wantField: "max_results",
			wantMsg:   "max_results must be at least 1",
		},
		{
			name:      "koanf tag used when json tag missing",
			input:     &listRequest{MaxResults: 10, Backend: "sqlite"},
			wantErr:   true,
			wantField: "backend",
			wantMsg:   "backend must be one of: duckdb postgres",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStruct() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}

			var ve *RequestValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error type = %T, want *RequestValidationError", err)
			}
			if len(ve.Fields) != 1 {
				t.Fatalf("len(Fields) = %d, want 1", len(ve.Fields))
			}
			if ve.Fields[0].Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Fields[0].Field, tt.wantField)
			}
			if ve.Fields[0].Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", ve.Fields[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestRequestValidationError_Error(t *testing.T) {
	err := ValidateStruct(&pairRecord{ItemA: 0, ItemB: 0, Score: -1})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want joined messages", err.Error())
	}
	if !IsValidationError(fmt.Errorf("decode: %w", err)) {
		t.Error("IsValidationError should see through wrapping")
	}
}

func TestToSnake(t *testing.T) {
	tests := map[string]string{
		"ItemA":  "item_a",
		"UserID": "user_id",
		"score":  "score",
	}
	for in, want := range tests {
		if got := toSnake(in); got != want {
			t.Errorf("toSnake(%q) = %q, want %q", in, got, want)
		}
	}
}
