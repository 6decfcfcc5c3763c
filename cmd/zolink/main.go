package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/zolink/pkg/framework"
	"github.com/robotalks/zolink/pkg/l1/comm/mqtt"
	"github.com/robotalks/zolink/pkg/l1/env"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.Default()
	link, port := conf.MustOpen()
	q, err := mqtt.NewQueueFromURL(conf.MQTTBrokerURL)
	if err != nil {
		glog.Fatalf("mqtt: %v", err)
	}
	bridge := mqtt.NewBridge(q, link, mqtt.NodeName(link.Identity().NodeID()))
	link.Handler, link.Reporter = bridge, bridge

	glog.Infof("%s node=0x%02x bridged to %s", port.Name(), link.Identity().NodeID(), conf.MQTTBrokerURL)
	err = framework.NewRunner().
		HandleSignals().
		Go(port, framework.NamedRun("link", link), bridge).
		Wait()
	if err != nil {
		glog.Fatal(err)
	}
}
