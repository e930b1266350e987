// Package mqtt publishes counter state changes to a broker. With no broker
// configured every message is dropped, so the counter core never depends
// on the broker being reachable.
package mqtt

import (
	"time"

	mqttlib "github.com/eclipse/paho.mqtt.golang"
	"github.com/womat/debug"
)

// quiesce is the number of milliseconds to wait on disconnect for
// in-flight work to complete.
const quiesce = 250

// Handler owns the broker connection and the outgoing message stream.
type Handler struct {
	client mqttlib.Client
	// C takes messages to publish; sending never blocks the caller side
	// longer than the channel handoff.
	C chan Message
}

// Message is one publication.
type Message struct {
	Topic    string
	Payload  []byte
	Qos      byte
	Retained bool
}

// New returns a handler without a connection; messages are dropped until
// Connect succeeds with a non-empty broker.
func New() *Handler {
	return &Handler{C: make(chan Message)}
}

// Connect dials the broker. An empty broker string disables publishing
// without error.
func (m *Handler) Connect(broker string) error {
	if broker == "" {
		debug.InfoLog.Print("no mqtt broker configured, publishing disabled")
		return nil
	}

	opts := mqttlib.NewClientOptions().AddBroker(broker)
	opts.SetConnectTimeout(5 * time.Second)
	m.client = mqttlib.NewClient(opts)
	return m.reconnect()
}

func (m *Handler) reconnect() error {
	t := m.client.Connect()
	<-t.Done()
	return t.Error()
}

// Disconnect ends the broker connection, if one exists.
func (m *Handler) Disconnect() error {
	if m.client == nil {
		return nil
	}

	m.client.Disconnect(quiesce)
	return nil
}

// Service consumes channel C and publishes each message. Designed to run
// in its own goroutine; it returns when C is closed. Messages without a
// connection or topic are ignored.
func (m *Handler) Service() {
	for msg := range m.C {
		if m.client == nil || msg.Topic == "" {
			continue
		}
		m.publish(msg)
	}
}

func (m *Handler) publish(msg Message) {
	if !m.client.IsConnected() {
		debug.DebugLog.Print("mqtt broker not connected, reconnecting")
		if err := m.reconnect(); err != nil {
			debug.ErrorLog.Printf("reconnecting to mqtt broker: %v", err)
			return
		}
	}

	debug.DebugLog.Printf("publishing %d bytes to topic %v", len(msg.Payload), msg.Topic)
	t := m.client.Publish(msg.Topic, msg.Qos, msg.Retained, msg.Payload)

	// completion is asynchronous, collect the error in the background
	go func() {
		<-t.Done()
		if err := t.Error(); err != nil {
			debug.ErrorLog.Printf("publishing topic %v: %v", msg.Topic, err)
		}
	}()
}
