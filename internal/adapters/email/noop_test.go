package email

import (
	"context"
	"errors"
	"testing"
)

func TestNoopSender_RecordsSends(t *testing.T) {
	s := NewNoopSender()
	ctx := context.Background()

	res, err := s.Send(ctx, SendRequest{To: []string{"a@b.c"}, Subject: "Hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.MessageID != "noop-1" || res.SentAt.IsZero() {
		t.Errorf("result = %+v", res)
	}
	if _, err := s.Send(ctx, SendRequest{Subject: "nobody"}); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("empty To = %v, want ErrNoRecipients", err)
	}
	if sent := s.Sent(); len(sent) != 1 || sent[0].Subject != "Hi" {
		t.Errorf("Sent() = %+v", sent)
	}
}

func TestNewSender_SelectsProvider(t *testing.T) {
	if _, ok := NewSender("", "from@x").(*NoopSender); !ok {
		t.Error("empty key should select NoopSender")
	}
	if _, ok := NewSender("re_test", "from@x").(*ResendSender); !ok {
		t.Error("api key should select ResendSender")
	}
}
