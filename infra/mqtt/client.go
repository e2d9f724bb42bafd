// Package mqtt carries remote calls over an MQTT broker. Each robot owns
// a pair of topics below "<prefix><NN>/": the robot listens on one and the
// PC on the other, so both sides can call methods on each other.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/ev3remote/core/remote"
	"github.com/kilianp07/ev3remote/infra/logger"
)

// Topic suffixes used by the robot and the PC.
const (
	SuffixEV3 = "msg4ev3"
	SuffixPC  = "msg4pc"
)

// ErrNotConnected is returned by SendMessage before Connect succeeds.
var ErrNotConnected = errors.New("mqtt client not connected")

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	LegoNumber  int    `json:"lego_number"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	AuthMethod  string `json:"auth_method"`
	LWTTopic    string `json:"lwt_topic"`
	LWTPayload  string `json:"lwt_payload"`
	LWTQoS      byte   `json:"lwt_qos"`
	LWTRetain   bool   `json:"lwt_retain"`
	MaxRetries  int    `json:"max_retries"`
	BackoffMS   int    `json:"backoff_ms"`
	// ConnectTimeoutMS bounds the time spent retrying the first connection.
	ConnectTimeoutMS int         `json:"connect_timeout_ms"`
	TLSConfig        *tls.Config `json:"-"`
}

// SetDefaults points at the classroom broker.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "tcp://mosquitto.csse.rose-hulman.edu:1883"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "lego"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
	if c.ConnectTimeoutMS <= 0 {
		c.ConnectTimeoutMS = 10000
	}
}

func (c Config) Validate() error {
	if c.LegoNumber < 0 || c.LegoNumber > 99 {
		return fmt.Errorf("lego_number must be within 0..99")
	}
	if c.QoS > 2 || c.LWTQoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2")
	}
	return nil
}

// Topic returns the topic for suffix, e.g. "lego07/msg4ev3".
func (c Config) Topic(suffix string) string {
	return fmt.Sprintf("%s%02d/%s", c.TopicPrefix, c.LegoNumber, suffix)
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Client sends and receives remote calls. Incoming calls go to the
// receiver; a nil receiver makes a send-only client.
type Client struct {
	cfg      Config
	receiver remote.Receiver
	logger   logger.Logger

	mu        sync.Mutex
	cli       pahoClient
	subTopic  string
	pubTopic  string
	connected bool
}

// NewClient prepares a client. Nothing is sent until Connect.
func NewClient(cfg Config, receiver remote.Receiver) *Client {
	cfg.SetDefaults()
	if cfg.ClientID == "" {
		cfg.ClientID = "ev3remote-" + uuid.NewString()
	}
	return &Client{cfg: cfg, receiver: receiver, logger: logger.New("mqtt_client")}
}

// ConnectToEV3 is used on the robot: it listens for calls from the PC.
func (c *Client) ConnectToEV3() error { return c.Connect(SuffixEV3, SuffixPC) }

// ConnectToPC is used on the PC: it listens for calls from the robot.
func (c *Client) ConnectToPC() error { return c.Connect(SuffixPC, SuffixEV3) }

// Connect connects to the broker, subscribing to the topic for subSuffix
// and sending to the one for pubSuffix. The subscription is renewed on
// every reconnect.
func (c *Client) Connect(subSuffix, pubSuffix string) error {
	opts, err := NewClientOptions(c.cfg)
	if err != nil {
		return err
	}
	sub, pub := c.cfg.Topic(subSuffix), c.cfg.Topic(pubSuffix)

	opts.OnConnect = func(pc paho.Client) {
		c.logger.Infof("MQTT connected to %s", c.cfg.Broker)
		if c.receiver == nil {
			return
		}
		if token := pc.Subscribe(sub, c.cfg.QoS, c.onMessage); token.Wait() && token.Error() != nil {
			c.logger.Errorf("subscribe error: %v", token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		c.logger.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		c.logger.Warnf("reconnecting to MQTT broker")
	}

	cli := newMQTTClient(opts)
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(c.cfg.BackoffMS) * time.Millisecond
	bo.MaxElapsedTime = time.Duration(c.cfg.ConnectTimeoutMS) * time.Millisecond
	connect := func() error {
		token := cli.Connect()
		token.Wait()
		return token.Error()
	}
	notify := func(err error, next time.Duration) {
		c.logger.Warnf("connect to %s failed, retrying in %v: %v", c.cfg.Broker, next, err)
	}
	if err := backoff.RetryNotify(connect, bo, notify); err != nil {
		return fmt.Errorf("connect %s: %w", c.cfg.Broker, err)
	}

	c.mu.Lock()
	c.cli, c.subTopic, c.pubTopic, c.connected = cli, sub, pub, true
	c.mu.Unlock()
	c.logger.Infof("subscribed to %s, publishing to %s", sub, pub)
	return nil
}

// Topics returns the subscribe and publish topics in use.
func (c *Client) Topics() (sub, pub string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subTopic, c.pubTopic
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	m, err := remote.Decode(msg.Payload())
	if err != nil {
		c.logger.Warnf("dropping message on %s: %v", msg.Topic(), err)
		return
	}
	if err := c.receiver.Deliver(m); err != nil {
		c.logger.Warnf("deliver %s: %v", m.Type, err)
	}
}

// SendMessage calls method on the peer with the given arguments.
func (c *Client) SendMessage(method string, args ...any) error {
	msg, err := remote.NewMessage(method, args...)
	if err != nil {
		return err
	}
	payload, err := msg.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	cli, topic, ok := c.cli, c.pubTopic, c.connected
	c.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}

	delay := time.Duration(c.cfg.BackoffMS) * time.Millisecond
	var publishErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		token := cli.Publish(topic, c.cfg.QoS, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			c.logger.Debugf("sent %s to %s", method, topic)
			return nil
		}
		c.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < c.cfg.MaxRetries {
			time.Sleep(delay * time.Duration(1<<attempt))
		}
	}
	return fmt.Errorf("send %s: %w", method, publishErr)
}

// Close gracefully closes the MQTT connection.
func (c *Client) Close() {
	c.mu.Lock()
	cli := c.cli
	c.connected = false
	c.mu.Unlock()
	if cli != nil && cli.IsConnected() {
		cli.Disconnect(250)
	}
}
