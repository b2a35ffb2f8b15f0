package channel

import (
	"reflect"
	"testing"

	"github.com/devenv-sh/devenv/config"
	"github.com/devenv-sh/devenv/devenverr"
)

func newPair(t *testing.T) (*Endpoint, *Endpoint) {
	t.Helper()

	host, container, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(func() {
		host.Close()
		container.Close()
	})

	return host, container
}

func TestTaskRoundTrip(t *testing.T) {
	tasks := []Task{
		Command{Name: "echo", Params: []string{"echo", "hi"}, ReusePID: false},
		Command{Name: "/sbin/init", Params: []string{"/sbin/init"}, ReusePID: true},
		ResolveDependencies{Dependencies: []config.Dependency{
			{PURL: "pkg:apt/curl@7.68"},
			{Provider: "apt", Package: "git", Version: "2.43"},
		}},
		Exit{},
	}

	host, container := newPair(t)

	for _, want := range tasks {
		if err := host.Send(want); err != nil {
			t.Fatalf("Send(%#v): %v", want, err)
		}

		got, err := container.Receive()
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}

		if !reflect.DeepEqual(got, want) {
			t.Fatalf("round trip mismatch: got %#v, want %#v", got, want)
		}
	}
}

func TestFIFOOrdering(t *testing.T) {
	host, container := newPair(t)

	for i := 0; i < 5; i++ {
		task := Command{Name: "task", Params: []string{"task", string(rune('a' + i))}}
		if err := host.Send(task); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		got, err := container.Receive()
		if err != nil {
			t.Fatalf("Receive: %v", err)
		}

		c, ok := got.(Command)
		if !ok {
			t.Fatalf("expected a Command, got %#v", got)
		}

		if want := string(rune('a' + i)); c.Params[1] != want {
			t.Fatalf("out of order: got %q, want %q", c.Params[1], want)
		}
	}
}

func TestBidirectional(t *testing.T) {
	host, container := newPair(t)

	if err := container.Send(Exit{}); err != nil {
		t.Fatalf("Send from container end: %v", err)
	}

	got, err := host.Receive()
	if err != nil {
		t.Fatalf("Receive on host end: %v", err)
	}

	if _, ok := got.(Exit); !ok {
		t.Fatalf("expected Exit, got %#v", got)
	}
}

func TestReceiveAfterPeerClose(t *testing.T) {
	host, container := newPair(t)

	if err := host.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := container.Receive(); err == nil {
		t.Fatalf("expected an error receiving from a closed peer")
	} else if !devenverr.Is(err, devenverr.KindChannel) {
		t.Fatalf("expected a channel error, got %v", err)
	}
}
