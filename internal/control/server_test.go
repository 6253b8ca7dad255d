package control

import (
	"bufio"
	"context"
	"path/filepath"
	"testing"
	"time"

	"main/pkg/uds"
)

type fakeKillSwitch struct{ engaged bool }

func (f *fakeKillSwitch) Engage()      { f.engaged = true }
func (f *fakeKillSwitch) Disengage()   { f.engaged = false }
func (f *fakeKillSwitch) Engaged() bool { return f.engaged }

func startTestServer(t *testing.T, ks KillSwitch) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "control.sock")
	srv, err := New(socketPath, ks)
	if err != nil {
		t.Fatalf("New failed: %+v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the listener a moment to bind before the first dial.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		client, err := uds.NewClient(socketPath)
		if err == nil {
			if conn, dialErr := client.Dial(); dialErr == nil {
				conn.Close()
				break
			}
		}
		time.Sleep(time.Millisecond)
	}
	return socketPath
}

func sendCommand(t *testing.T, socketPath, cmd string) string {
	t.Helper()
	client, err := uds.NewClient(socketPath)
	if err != nil {
		t.Fatalf("NewClient failed: %+v", err)
	}
	conn, err := client.Dial()
	if err != nil {
		t.Fatalf("Dial failed: %+v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(cmd + "\n")); err != nil {
		t.Fatalf("write failed: %+v", err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %+v", err)
	}
	return reply
}

func TestServerKillEngagesAndResumeReleases(t *testing.T) {
	ks := &fakeKillSwitch{}
	socketPath := startTestServer(t, ks)

	if reply := sendCommand(t, socketPath, "kill"); reply != "OK engaged\n" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !ks.Engaged() {
		t.Fatal("expected kill switch to be engaged")
	}

	if reply := sendCommand(t, socketPath, "status"); reply != "engaged\n" {
		t.Fatalf("unexpected status reply: %q", reply)
	}

	if reply := sendCommand(t, socketPath, "resume"); reply != "OK disengaged\n" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if ks.Engaged() {
		t.Fatal("expected kill switch to be disengaged")
	}
}

func TestServerRejectsUnknownCommand(t *testing.T) {
	ks := &fakeKillSwitch{}
	socketPath := startTestServer(t, ks)

	reply := sendCommand(t, socketPath, "bogus")
	if reply != "ERR unknown command\n" {
		t.Fatalf("unexpected reply: %q", reply)
	}
}
