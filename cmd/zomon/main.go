package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/zolink/pkg/l1/comm/mqtt"
	"github.com/robotalks/zolink/pkg/l1/msgs"
)

var (
	mqttURL = "mqtt://localhost:1883/zolink/"
)

func init() {
	if val := os.Getenv("ZOLINK_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		if strings.HasSuffix(topic, "/"+mqtt.TopicErr) {
			log.Printf("%s: %s", topic, string(payload))
			return
		}
		msg, err := msgs.DecodePacket(payload)
		if err != nil {
			log.Printf("%s: bad message: %v", topic, err)
			return
		}
		pkt, err := msg.ToPacket()
		if err != nil {
			log.Printf("%s: %v (%s)", topic, err, msg.String())
			return
		}
		log.Printf("%s: %s", topic, pkt.String())
	}))
	<-(chan struct{})(nil)
}
