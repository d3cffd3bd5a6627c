package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ledgerworld/internal/domain/ledger"
)

func TestGetResourcesMissingAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no balance record", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	res, err := c.GetResources(context.Background(), "0xabc")
	if err != nil {
		t.Fatalf("expected nil error for missing account, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected nil resources, got %+v", res)
	}
}

func TestGetOwnedGenerators(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/0xfeed/generators" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"items": []ledger.Generator{
				{ObjectID: "g1", MatchID: "m1", Kind: ledger.ResourceWood, Owner: "0xfeed", Rate: 2, MaxCap: 50},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	gens, err := c.GetOwnedGenerators(context.Background(), "0xfeed")
	if err != nil {
		t.Fatalf("GetOwnedGenerators err: %v", err)
	}
	if len(gens) != 1 || gens[0].ObjectID != "g1" {
		t.Fatalf("unexpected generators: %+v", gens)
	}
}

func TestClaimGeneratorGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "generator already claimed", http.StatusConflict)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.ClaimGenerator(context.Background(), "key", "g1")
	if err == nil {
		t.Fatal("expected error from gateway conflict")
	}
}

func TestProposeTradeReturnsObjectID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["target"] != "0xbeef" {
			t.Errorf("unexpected target %v", body["target"])
		}
		json.NewEncoder(w).Encode(map[string]string{"object_id": "trade-7"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	id, err := c.ProposeTrade(context.Background(), "key", "m1", "0xbeef",
		ledger.ResourceSet{Wood: 3}, ledger.ResourceSet{Stone: 1})
	if err != nil {
		t.Fatalf("ProposeTrade err: %v", err)
	}
	if id != "trade-7" {
		t.Fatalf("expected trade-7, got %s", id)
	}
}
