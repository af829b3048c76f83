package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v84"

	"github.com/praytees/storefront/pkg/config"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
)

func TestNewClientValidation(t *testing.T) {
	cases := map[string]config.StripeConfig{
		"missing key":      {Secret: "whsec_1"},
		"missing secret":   {APIKey: "sk_test_1"},
		"bad env":          {APIKey: "sk_test_1", Secret: "whsec_1", Env: "staging"},
		"live key in test": {APIKey: "sk_live_1", Secret: "whsec_1", Env: "test"},
		"test key in live": {APIKey: "sk_test_1", Secret: "whsec_1", Env: "live"},
	}
	for name, cfg := range cases {
		if _, err := NewClient(context.Background(), cfg, nil); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	client, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_1", Secret: "whsec_1"}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.Environment() != "test" || client.Currency() != "usd" || client.SigningSecret() != "whsec_1" {
		t.Fatalf("unexpected client %+v", client)
	}
}

func TestCreateCheckoutSessionWrapsErrors(t *testing.T) {
	var captured *stripe.CheckoutSessionParams
	client := &Client{newSession: func(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		captured = p
		return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
	}}

	ctx := context.Background()
	sess, err := client.CreateCheckoutSession(ctx, &stripe.CheckoutSessionParams{Mode: stripe.String("payment")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sess.ID != "cs_test_1" || captured.Context != ctx {
		t.Fatalf("expected context propagated and session returned")
	}

	client.newSession = func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
		return nil, errors.New("card_declined")
	}
	_, err = client.CreateCheckoutSession(ctx, &stripe.CheckoutSessionParams{})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestConstructEventVerifiesSignature(t *testing.T) {
	client := &Client{signingSecret: "whsec_test"}
	payload, err := json.Marshal(stripe.Event{ID: "evt_1", Object: "event", Type: stripe.EventTypeCheckoutSessionCompleted, APIVersion: stripe.APIVersion})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	header := fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))

	event, err := client.ConstructEvent(payload, header)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if event.ID != "evt_1" {
		t.Fatalf("unexpected event %+v", event)
	}
	if _, err := client.ConstructEvent(payload, fmt.Sprintf("t=%d,v1=deadbeef", ts)); err == nil {
		t.Fatalf("expected signature failure")
	}
}
