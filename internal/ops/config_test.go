package ops

import "testing"

func TestResolveRequiresAPI(t *testing.T) {
	_, err := resolve(FileConfig{AccountID: "acct1", PubSubAddress: "localhost:6379"})
	if err == nil {
		t.Fatal("expected missing api to fail")
	}
}

func TestResolveRequiresAccountID(t *testing.T) {
	_, err := resolve(FileConfig{API: "virtual", PubSubAddress: "localhost:6379"})
	if err == nil {
		t.Fatal("expected missing account_id to fail")
	}
}

func TestResolveRequiresPubSubAddressWhenRingKeyIsZero(t *testing.T) {
	_, err := resolve(FileConfig{API: "virtual", AccountID: "acct1"})
	if err == nil {
		t.Fatal("expected a zero key_of_cmd_queue without pubsub_address to fail")
	}
}

func TestResolveRingModeNeedsNoPubSubAddress(t *testing.T) {
	loaded, err := resolve(FileConfig{API: "virtual", AccountID: "acct1", KeyOfCmdQueue: 42})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if loaded.UsesPubSub() {
		t.Fatal("expected a non-zero key_of_cmd_queue to select the ring transport")
	}
}

func TestResolvePassesGatewayBlobThrough(t *testing.T) {
	loaded, err := resolve(FileConfig{
		API:           "btcc",
		AccountID:     "acct1",
		PubSubAddress: "localhost:6379",
		Gateway:       []byte(`{"accessId":"x"}`),
	})
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if string(loaded.Gateway) != `{"accessId":"x"}` {
		t.Fatalf("expected gateway blob to pass through untouched, got %s", loaded.Gateway)
	}
}
