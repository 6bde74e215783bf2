package ot

import (
	"net"
	"testing"

	"github.com/ciphermed/mpccompare/wire"
)

func TestSendReceiveSingleInstance(t *testing.T) {
	senderConn, receiverConn := net.Pipe()
	defer senderConn.Close()
	defer receiverConn.Close()

	const msgLen = 16
	m0 := []byte("0000000000000000")[:msgLen]
	m1 := []byte("1111111111111111")[:msgLen]

	sender := NewSender(wire.New(senderConn), msgLen)
	receiver := NewReceiver(wire.New(receiverConn), msgLen)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sender.Send([][2][]byte{{m0, m1}})
	}()

	got, err := receiver.Receive([]bool{true})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(got[0]) != string(m1) {
		t.Fatalf("got %q, want %q (choice bit true selects m1)", got[0], m1)
	}
}

func TestReceiveChoosesZero(t *testing.T) {
	senderConn, receiverConn := net.Pipe()
	defer senderConn.Close()
	defer receiverConn.Close()

	const msgLen = 8
	m0 := []byte("AAAAAAAA")
	m1 := []byte("BBBBBBBB")

	sender := NewSender(wire.New(senderConn), msgLen)
	receiver := NewReceiver(wire.New(receiverConn), msgLen)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sender.Send([][2][]byte{{m0, m1}})
	}()

	got, err := receiver.Receive([]bool{false})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Send: %v", err)
	}
	if string(got[0]) != string(m0) {
		t.Fatalf("got %q, want %q (choice bit false selects m0)", got[0], m0)
	}
}

func TestBatchedInstances(t *testing.T) {
	senderConn, receiverConn := net.Pipe()
	defer senderConn.Close()
	defer receiverConn.Close()

	const msgLen = 4
	n := 12
	pairs := make([][2][]byte, n)
	choices := make([]bool, n)
	want := make([][]byte, n)
	for i := 0; i < n; i++ {
		m0 := []byte{byte(i), 0, 0, 0}
		m1 := []byte{0, byte(i), 0, 0}
		pairs[i] = [2][]byte{m0, m1}
		choices[i] = i%2 == 0
		if choices[i] {
			want[i] = m1
		} else {
			want[i] = m0
		}
	}

	sender := NewSender(wire.New(senderConn), msgLen)
	receiver := NewReceiver(wire.New(receiverConn), msgLen)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sender.Send(pairs)
	}()

	got, err := receiver.Receive(choices)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Send: %v", err)
	}
	for i := range want {
		if string(got[i]) != string(want[i]) {
			t.Fatalf("instance %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestSendRejectsWrongMessageLength(t *testing.T) {
	senderConn, receiverConn := net.Pipe()
	defer senderConn.Close()
	defer receiverConn.Close()

	sender := NewSender(wire.New(senderConn), 4)
	_ = receiverConn
	err := sender.Send([][2][]byte{{[]byte("ab"), []byte("cd")}})
	if err == nil {
		t.Fatal("expected error for wrong message length")
	}
}
