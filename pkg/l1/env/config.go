// Package env sets up a serial link and its surroundings from environment
// variables and command line flags.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/robotalks/zolink/pkg/l0/comm"
	"github.com/robotalks/zolink/pkg/l0/serial"
)

// Config provides common options to setup a link.
type Config struct {
	Port      string
	Bitrate   uint
	HW        string
	NodeID    uint
	LAM       uint
	VerifyLRC bool

	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
}

var defaultConfig = Config{
	Port:          "/dev/ttyUSB0",
	Bitrate:       serial.DefaultBitrate,
	HW:            comm.HWUart.String(),
	LAM:           uint(comm.DefaultLAM),
	MQTTBrokerURL: "mqtt://localhost:1883/zolink/",
}

func init() {
	defaultConfig.NodeID = uint(DefaultNodeID())
	loadEnv(&defaultConfig, os.Getenv)
}

func loadEnv(c *Config, getenv func(string) string) {
	if val := getenv("ZOLINK_PORT"); val != "" {
		c.Port = val
	}
	if val := getenv("ZOLINK_HW"); val != "" {
		c.HW = val
	}
	if val := getenv("ZOLINK_MQTT_URL"); val != "" {
		c.MQTTBrokerURL = val
	}
	if n, err := strconv.ParseUint(getenv("ZOLINK_BITRATE"), 0, 32); err == nil {
		c.Bitrate = uint(n)
	}
	if n, err := strconv.ParseUint(getenv("ZOLINK_NODE_ID"), 0, 8); err == nil {
		c.NodeID = uint(n)
	}
	if n, err := strconv.ParseUint(getenv("ZOLINK_LAM"), 0, 8); err == nil {
		c.LAM = uint(n)
	}
	if v, err := strconv.ParseBool(getenv("ZOLINK_VERIFY_LRC")); err == nil {
		c.VerifyLRC = v
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial port device.")
	flag.UintVar(&defaultConfig.Bitrate, "bitrate", defaultConfig.Bitrate, "Serial bitrate.")
	flag.StringVar(&defaultConfig.HW, "hw", defaultConfig.HW, "Hardware type: uart or rs485.")
	flag.UintVar(&defaultConfig.NodeID, "node-id", defaultConfig.NodeID, "Own node ID.")
	flag.UintVar(&defaultConfig.LAM, "lam", defaultConfig.LAM, "Local acceptance mask.")
	flag.BoolVar(&defaultConfig.VerifyLRC, "verify-lrc", defaultConfig.VerifyLRC, "Drop packets with bad LRC.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.NodeID > 0xff {
		return fmt.Errorf("node ID out of range: %d", c.NodeID)
	}
	if c.LAM > 0xff {
		return fmt.Errorf("LAM out of range: %d", c.LAM)
	}
	if c.Bitrate == 0 || c.Bitrate > 0xffffffff {
		return fmt.Errorf("invalid bitrate: %d", c.Bitrate)
	}
	_, err := comm.ParseHWType(c.HW)
	return err
}

// NewLink initializes a link over the driver.
func (c *Config) NewLink(drv comm.Driver) (*comm.Link, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	hw, _ := comm.ParseHWType(c.HW)
	link := comm.NewLink(drv)
	link.VerifyLRC = c.VerifyLRC
	if err := link.Init(hw, byte(c.NodeID), uint32(c.Bitrate)); err != nil {
		return nil, err
	}
	link.SetLAM(byte(c.LAM))
	return link, nil
}

// Open opens the serial port and initializes a link over it.
func (c *Config) Open() (*comm.Link, *serial.Port, error) {
	port := serial.New(c.Port)
	link, err := c.NewLink(port)
	if err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("open %s: %v", c.Port, err)
	}
	return link, port, nil
}

// MustOpen opens the link and fails on error.
func (c *Config) MustOpen() (*comm.Link, *serial.Port) {
	link, port, err := c.Open()
	if err != nil {
		log.Fatalln(err)
	}
	return link, port
}
