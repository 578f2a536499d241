// EventSim - Event Recommendation and Similarity Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsim

package eventprocessor

import (
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/eventsim/internal/recommend"
)

var ts = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func TestDecodeInteraction(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    recommend.InteractionEvent
		wantErr error
	}{
		{
			name: "valid",
			data: `{"user_id":7,"item_id":3,"action":"LIKE","timestamp":"2026-04-02T09:30:00Z"}`,
			want: recommend.InteractionEvent{UserID: 7, ItemID: 3, Action: recommend.ActionLike, Timestamp: ts},
		},
		{
			name: "lower case action",
			data: `{"user_id":7,"item_id":3,"action":"view","timestamp":"2026-04-02T09:30:00Z"}`,
			want: recommend.InteractionEvent{UserID: 7, ItemID: 3, Action: recommend.ActionView, Timestamp: ts},
		},
		{name: "not json", data: `{{{`, wantErr: ErrMalformedRecord},
		{name: "unknown action", data: `{"user_id":7,"item_id":3,"action":"SHARE","timestamp":"2026-04-02T09:30:00Z"}`, wantErr: ErrMalformedRecord},
		{name: "zero user", data: `{"user_id":0,"item_id":3,"action":"LIKE","timestamp":"2026-04-02T09:30:00Z"}`, wantErr: ErrInvalidRecord},
		{name: "missing timestamp", data: `{"user_id":7,"item_id":3,"action":"LIKE"}`, wantErr: ErrInvalidRecord},
		{name: "missing action", data: `{"user_id":7,"item_id":3,"timestamp":"2026-04-02T09:30:00Z"}`, wantErr: ErrInvalidRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInteraction([]byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DecodeInteraction() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeInteraction() error = %v", err)
			}
			if got.UserID != tt.want.UserID || got.ItemID != tt.want.ItemID ||
				got.Action != tt.want.Action || !got.Timestamp.Equal(tt.want.Timestamp) {
				t.Errorf("DecodeInteraction() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEncodeInteraction_RejectsInvalid(t *testing.T) {
	_, err := EncodeInteraction(recommend.InteractionEvent{UserID: 1, ItemID: 1, Timestamp: ts})
	if err == nil {
		t.Error("EncodeInteraction() without action error = nil, want error")
	}
}

func TestSimilarityCodec(t *testing.T) {
	u := recommend.SimilarityUpdate{ItemA: 1, ItemB: 2, Score: 0.632, Timestamp: ts}
	data, err := EncodeSimilarity(u)
	if err != nil {
		t.Fatalf("EncodeSimilarity() error = %v", err)
	}
	got, err := DecodeSimilarity(data)
	if err != nil {
		t.Fatalf("DecodeSimilarity() error = %v", err)
	}
	if got.ItemA != 1 || got.ItemB != 2 || got.Score != 0.632 || !got.Timestamp.Equal(ts) {
		t.Errorf("round trip = %+v, want %+v", got, u)
	}

	invalid := []string{
		`{"item_a":2,"item_b":1,"score":0.5,"timestamp":"2026-04-02T09:30:00Z"}`,
		`{"item_a":1,"item_b":1,"score":0.5,"timestamp":"2026-04-02T09:30:00Z"}`,
		`{"item_a":1,"item_b":2,"score":1.5,"timestamp":"2026-04-02T09:30:00Z"}`,
		`{"item_a":1,"item_b":2,"score":-0.1,"timestamp":"2026-04-02T09:30:00Z"}`,
	}
	for _, data := range invalid {
		if _, err := DecodeSimilarity([]byte(data)); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("DecodeSimilarity(%s) error = %v, want ErrInvalidRecord", data, err)
		}
	}
	if _, err := DecodeSimilarity([]byte(`[]`)); !errors.Is(err, ErrMalformedRecord) {
		t.Errorf("DecodeSimilarity([]) error = %v, want ErrMalformedRecord", err)
	}
}

func TestSimilarityMessageID(t *testing.T) {
	a := recommend.SimilarityUpdate{ItemA: 1, ItemB: 2, Score: 0.5, Timestamp: ts}
	b := a
	c := a
	c.Score = 0.6

	if SimilarityMessageID(a) != SimilarityMessageID(b) {
		t.Error("identical updates should share a message id")
	}
	if SimilarityMessageID(a) == SimilarityMessageID(c) {
		t.Error("different scores should not share a message id")
	}
}

func TestPartition(t *testing.T) {
	tests := []struct {
		item       int64
		partitions int
		want       int
	}{
		{1, 8, 1},
		{8, 8, 0},
		{17, 8, 1},
		{-3, 8, 5},
		{42, 1, 0},
		{42, 0, 0},
	}
	for _, tt := range tests {
		if got := Partition(tt.item, tt.partitions); got != tt.want {
			t.Errorf("Partition(%d, %d) = %d, want %d", tt.item, tt.partitions, got, tt.want)
		}
	}
	if got := InteractionSubject(17, 8); got != "interactions.1" {
		t.Errorf("InteractionSubject(17, 8) = %q, want interactions.1", got)
	}
}

func TestConsumerConfig_Validate(t *testing.T) {
	valid := ConsumerConfig{
		Stream:      InteractionsStream,
		Durable:     "agg",
		BatchSize:   10,
		PollTimeout: time.Second,
		AckWait:     30 * time.Second,
	}
	tests := []struct {
		name    string
		mutate  func(*ConsumerConfig)
		wantErr bool
	}{
		{"valid", func(c *ConsumerConfig) {}, false},
		{"no stream", func(c *ConsumerConfig) { c.Stream = "" }, true},
		{"no durable", func(c *ConsumerConfig) { c.Durable = "" }, true},
		{"zero batch", func(c *ConsumerConfig) { c.BatchSize = 0 }, true},
		{"ack wait too short", func(c *ConsumerConfig) { c.AckWait = c.PollTimeout }, true},
		{"max ack pending below batch", func(c *ConsumerConfig) { c.MaxAckPending = 5 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
