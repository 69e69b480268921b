package therapy_test

import (
	"errors"
	"strings"
	"testing"

	"practice/internal/domain/therapy"
)

func validTherapy() therapy.Therapy {
	return therapy.Therapy{ID: "t1", Title: "Play therapy", Summary: "For ages 3-10", DurationMin: 50, PriceCents: 9500, Active: true}
}

// TestTherapy_Validate tests validation of Therapy.
func TestTherapy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*therapy.Therapy)
		wantErr error
	}{
		{"valid", func(*therapy.Therapy) {}, nil},
		{"empty title", func(th *therapy.Therapy) { th.Title = " " }, therapy.ErrEmptyTitle},
		{"long title", func(th *therapy.Therapy) { th.Title = strings.Repeat("x", 121) }, therapy.ErrTitleTooLong},
		{"long summary", func(th *therapy.Therapy) { th.Summary = strings.Repeat("x", 301) }, therapy.ErrSummaryTooLong},
		{"zero duration", func(th *therapy.Therapy) { th.DurationMin = 0 }, therapy.ErrInvalidDuration},
		{"too long session", func(th *therapy.Therapy) { th.DurationMin = 241 }, therapy.ErrInvalidDuration},
		{"negative price", func(th *therapy.Therapy) { th.PriceCents = -1 }, therapy.ErrNegativePrice},
		{"free", func(th *therapy.Therapy) { th.PriceCents = 0 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := validTherapy()
			tt.mutate(&th)
			if err := th.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestTherapy_Labels tests price and duration formatting.
func TestTherapy_Labels(t *testing.T) {
	tests := []struct {
		price, minutes     int
		wantPrice, wantDur string
	}{
		{9500, 50, "$95.00", "50 min"},
		{12050, 90, "$120.50", "1 h 30 min"},
		{0, 60, "Free", "1 h"},
	}
	for _, tt := range tests {
		th := therapy.Therapy{PriceCents: tt.price, DurationMin: tt.minutes}
		if got := th.PriceLabel(); got != tt.wantPrice {
			t.Errorf("PriceLabel(%d) = %q, want %q", tt.price, got, tt.wantPrice)
		}
		if got := th.DurationLabel(); got != tt.wantDur {
			t.Errorf("DurationLabel(%d) = %q, want %q", tt.minutes, got, tt.wantDur)
		}
	}
}
