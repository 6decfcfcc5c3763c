// Package msgs provides the L1 message schemas.
package msgs

// L1 messages carry L0 packets between the serial gateway and the rest of
// the system (e.g. over MQTT). They're protobuf encoded.
//
// Producer: serial gateway (received packets)
// Consumer: anything commanding nodes (packets to send)
