package atomq

import (
	"context"
	"testing"
	"time"
)

func TestChannelSource_ForwardsValues(t *testing.T) {
	source := make(chan []byte, 3)
	source <- []byte("one")
	source <- []byte("two")
	source <- []byte("three")

	src := NewChannelSource(source)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	expected := []string{"one", "two", "three"}
	for i, exp := range expected {
		select {
		case v := <-out:
			if string(v) != exp {
				t.Errorf("expected %s, got %s", exp, string(v))
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("timeout waiting for value %d", i)
		}
	}
}

func TestChannelSource_ClosesOnSourceClose(t *testing.T) {
	source := make(chan []byte, 1)
	source <- []byte("value")
	close(source)

	src := NewChannelSource(source)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	out, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	<-out

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for channel close")
	}
}

func TestChannelSource_ClosesOnContextCancel(t *testing.T) {
	source := make(chan []byte) // unbuffered, will block

	src := NewChannelSource(source)

	ctx, cancel := context.WithCancel(context.Background())

	out, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("timeout waiting for channel close")
	}
}

func TestSyncChannelSource_ReturnsSourceDirectly(t *testing.T) {
	source := make(chan []byte, 1)
	source <- []byte("value")

	src := NewSyncChannelSource(source)

	out, err := src.Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	select {
	case v := <-out:
		if string(v) != "value" {
			t.Errorf("expected value, got %s", string(v))
		}
	default:
		t.Error("expected buffered value available synchronously")
	}
}
