package mqtt

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	fx "github.com/robotalks/zolink/pkg/framework"
	"github.com/robotalks/zolink/pkg/l0/comm"
	"github.com/robotalks/zolink/pkg/l1/msgs"
)

// Topic suffixes under the node prefix.
const (
	TopicRx  = "rx"
	TopicTx  = "tx"
	TopicErr = "err"
)

// PacketSender sends a packet over the link.
type PacketSender interface {
	Send(*comm.Packet) error
}

// Bridge relays a serial link to MQTT:
//
//	<node>/rx  packets received from the link (msgs.Packet)
//	<node>/tx  packets to send over the link (msgs.Packet)
//	<node>/err link errors as text
type Bridge struct {
	Queue  *Queue
	Sender PacketSender
	Node   string
	Clock  fx.TimeSource
}

// NewBridge creates a Bridge.
func NewBridge(q *Queue, sender PacketSender, node string) *Bridge {
	return &Bridge{Queue: q, Sender: sender, Node: node, Clock: fx.SystemTime}
}

// NodeName formats the default node topic name from the node ID.
func NodeName(nodeID byte) string {
	return fmt.Sprintf("node-%02x", nodeID)
}

// Topic returns the full topic (without Queue prefix) for a suffix.
func (b *Bridge) Topic(suffix string) string {
	return b.Node + "/" + suffix
}

// Name implements Named.
func (b *Bridge) Name() string {
	return "mqtt:" + b.Node
}

// HandlePacket implements comm.PacketHandler.
func (b *Bridge) HandlePacket(ctx context.Context, pkt *comm.Packet) {
	m := msgs.FromPacket(pkt)
	if b.Clock != nil {
		m.Stamp(b.Clock.Time())
	}
	payload, err := m.Encode()
	if err != nil {
		glog.Errorf("encode packet error: %v", err)
		return
	}
	glog.V(4).Infof("RX %s", pkt)
	b.Queue.Pub(b.Topic(TopicRx), payload)
}

// ReportError implements comm.ErrorReporter.
func (b *Bridge) ReportError(err error) {
	glog.Warningf("%s: %v", b.Node, err)
	b.Queue.Pub(b.Topic(TopicErr), []byte(err.Error()))
}

// Run implements Runnable.
func (b *Bridge) Run(ctx context.Context) error {
	token := b.Queue.Connect()
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer b.Queue.Close()
	sub := b.Queue.Sub(b.Topic(TopicTx), b.handleTx)
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (b *Bridge) handleTx(_ string, payload []byte) {
	m, err := msgs.DecodePacket(payload)
	if err != nil {
		b.ReportError(fmt.Errorf("bad tx message: %v", err))
		return
	}
	pkt, err := m.ToPacket()
	if err != nil {
		b.ReportError(fmt.Errorf("bad tx packet: %v", err))
		return
	}
	glog.V(4).Infof("TX %s", pkt)
	if err = b.Sender.Send(pkt); err != nil {
		b.ReportError(fmt.Errorf("send error: %v", err))
	}
}
