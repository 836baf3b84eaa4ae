// Package hamqtt exposes application entities (sensors, switches, lights,
// media players, ...) to Home Assistant over MQTT using the MQTT discovery
// convention: each entity publishes a retained config message describing its
// topics, then exchanges state and command messages on those topics.
//
// Entities own a paho MQTT client built from Settings, or reuse a client
// supplied by the caller. Command callbacks run on the paho network
// goroutine and must not block; hand slow work off to your own goroutine.
package hamqtt
