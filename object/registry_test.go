package object

import (
	"context"
	"errors"
	"testing"

	"waylink/schema"
	"waylink/wire"
)

var pointer = schema.Interface{
	Name:    "pointer",
	Version: 1,
	Requests: []schema.Op{
		{Name: "set_cursor", Signature: "uoii"},
	},
	Events: []schema.Op{
		{Name: "motion", Signature: "uff"},
		{Name: "button", Signature: "uuuu"},
	},
}

func TestAllocationRanges(t *testing.T) {
	client := NewRegistry(ClientSide)
	id, err := client.New(pointer, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if id != 1 {
		t.Errorf("first client id: got %d, want 1", id)
	}

	server := NewRegistry(ServerSide)
	id, err = server.New(pointer, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if id != 0xff000000 {
		t.Errorf("first server id: got %#x, want 0xff000000", id)
	}
}

func TestAddRejectsDuplicate(t *testing.T) {
	r := NewRegistry(ServerSide)
	if err := r.Add(7, pointer, nil); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(7, pointer, nil); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	r.Delete(7)
	if err := r.Add(7, pointer, nil); err != nil {
		t.Errorf("Add after Delete failed: %v", err)
	}
}

func TestNewSkipsBoundIDs(t *testing.T) {
	r := NewRegistry(ClientSide)
	if err := r.Add(1, pointer, nil); err != nil {
		t.Fatal(err)
	}
	id, err := r.New(pointer, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if id != 2 {
		t.Errorf("New over a bound id 1: got %d, want 2", id)
	}
}

func TestDispatch(t *testing.T) {
	r := NewRegistry(ServerSide)

	var got *wire.Message
	handler := HandlerFunc(func(_ context.Context, msg *wire.Message) error {
		got = msg
		return nil
	})
	if err := r.Add(3, pointer, handler); err != nil {
		t.Fatal(err)
	}

	msg := &wire.Message{Object: 3, Opcode: 0}
	if err := r.Dispatch(context.Background(), msg); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if got != msg {
		t.Error("handler did not receive the dispatched message")
	}
}

func TestDispatchUnknownObject(t *testing.T) {
	r := NewRegistry(ServerSide)
	err := r.Dispatch(context.Background(), &wire.Message{Object: 99})
	if !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("expected ErrUnknownObject, got %v", err)
	}
}

func TestDispatchOpcodeDirection(t *testing.T) {
	handler := HandlerFunc(func(context.Context, *wire.Message) error { return nil })

	// Opcode 1 names an event, not a request: a server must reject it,
	// a client must accept it.
	server := NewRegistry(ServerSide)
	if err := server.Add(3, pointer, handler); err != nil {
		t.Fatal(err)
	}
	err := server.Dispatch(context.Background(), &wire.Message{Object: 3, Opcode: 1})
	if !errors.Is(err, ErrUnknownOpcode) {
		t.Fatalf("server side: expected ErrUnknownOpcode, got %v", err)
	}

	client := NewRegistry(ClientSide)
	if err := client.Add(3, pointer, handler); err != nil {
		t.Fatal(err)
	}
	if err := client.Dispatch(context.Background(), &wire.Message{Object: 3, Opcode: 1}); err != nil {
		t.Fatalf("client side: Dispatch failed: %v", err)
	}
}
