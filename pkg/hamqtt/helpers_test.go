package hamqtt

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool {
	return true
}

func (t *fakeToken) WaitTimeout(time.Duration) bool {
	return true
}

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (t *fakeToken) Error() error {
	return t.err
}

type publishRecord struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakePublisher struct {
	records []publishRecord
	err     error
}

func (p *fakePublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	p.records = append(p.records, publishRecord{topic, qos, retained, payload.(string)})
	return &fakeToken{err: p.err}
}

func (p *fakePublisher) last() publishRecord {
	return p.records[len(p.records)-1]
}

func (p *fakePublisher) lastOn(topic string) (publishRecord, bool) {
	for i := len(p.records) - 1; i >= 0; i-- {
		if p.records[i].topic == topic {
			return p.records[i], true
		}
	}
	return publishRecord{}, false
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool {
	return false
}

func (m *fakeMessage) Qos() byte {
	return 1
}

func (m *fakeMessage) Retained() bool {
	return false
}

func (m *fakeMessage) Topic() string {
	return m.topic
}

func (m *fakeMessage) MessageID() uint16 {
	return 0
}

func (m *fakeMessage) Payload() []byte {
	return m.payload
}

func (m *fakeMessage) Ack() {
}

func testSettings() Settings {
	return Settings{MQTT: MQTTSettings{Host: "localhost"}}
}
