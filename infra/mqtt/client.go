package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/letstalk-code/routecare/core/model"
	coremqtt "github.com/letstalk-code/routecare/core/mqtt"
	"github.com/letstalk-code/routecare/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker        string          `json:"broker"`
	ClientID      string          `json:"client_id"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	AckTopic      string          `json:"ack_topic"`
	LocationTopic string          `json:"location_topic"`
	UseTLS        bool            `json:"use_tls"`
	ClientCert    string          `json:"client_cert"`
	ClientKey     string          `json:"client_key"`
	CABundle      string          `json:"ca_bundle"`
	AuthMethod    string          `json:"auth_method"`
	QoS           map[string]byte `json:"qos"`
	LWTTopic      string          `json:"lwt_topic"`
	LWTPayload    string          `json:"lwt_payload"`
	LWTQoS        byte            `json:"lwt_qos"`
	LWTRetain     bool            `json:"lwt_retain"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	TLSConfig     *tls.Config     `json:"-"`
}

// SetDefaults fills the topic defaults used by driver devices.
func (c *Config) SetDefaults() {
	if c.AckTopic == "" {
		c.AckTopic = "routecare/dispatch/ack"
	}
	if c.LocationTopic == "" {
		c.LocationTopic = "routecare/drivers/+/location"
	}
}

// PingHandler receives validated GPS pings from driver devices.
type PingHandler func(model.GPSPing)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the core mqtt.Client interface using Eclipse Paho.
type PahoClient struct {
	cli           pahoClient
	ackTopic      string
	locationTopic string
	qos           map[string]byte

	mu         sync.Mutex
	ackChans   map[string]chan struct{}
	onPing     PingHandler
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the ACK and
// driver location topics. The ping handler may be nil when location ingestion
// is handled elsewhere.
func NewPahoClient(cfg Config, onPing PingHandler) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		ackTopic:      cfg.AckTopic,
		locationTopic: cfg.LocationTopic,
		ackChans:      make(map[string]chan struct{}),
		onPing:        onPing,
		logger:        log,
		qos:           cfg.QoS,
		maxRetries:    cfg.MaxRetries,
		backoff:       time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(pc.ackTopic, pc.qosFor("ack"), pc.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("ack subscribe error: %v", token.Error())
		}
		if pc.onPing != nil {
			if token := c.Subscribe(pc.locationTopic, pc.qosFor("location"), pc.onLocation); token.Wait() && token.Error() != nil {
				log.Errorf("location subscribe error: %v", token.Error())
			}
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
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
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.ackChans[m.MessageID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Infof("received ack %s", m.MessageID)
	}
	p.mu.Unlock()
}

func (p *PahoClient) onLocation(_ paho.Client, msg paho.Message) {
	var ping model.GPSPing
	if err := json.Unmarshal(msg.Payload(), &ping); err != nil {
		p.logger.Errorf("failed to decode ping: %v", err)
		return
	}
	if ping.DriverID == "" {
		ping.DriverID = driverFromTopic(msg.Topic())
	}
	if ping.Timestamp.IsZero() {
		ping.Timestamp = time.Now()
	}
	if err := ping.Validate(); err != nil {
		p.logger.Warnf("invalid ping on %s: %v", msg.Topic(), err)
		return
	}
	if p.onPing != nil {
		p.onPing(ping)
	}
}

// driverFromTopic extracts the driver segment of routecare/drivers/<id>/location.
func driverFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i, part := range parts {
		if part == "drivers" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// NotifyAssignment publishes an assignment order to the driver specific topic
// and returns the message identifier used for acknowledgment tracking.
func (p *PahoClient) NotifyAssignment(driverID string, order coremqtt.AssignmentOrder) (string, error) {
	msgID := uuid.NewString()
	payload, err := json.Marshal(struct {
		MessageID string `json:"message_id"`
		DriverID  string `json:"driver_id"`
		coremqtt.AssignmentOrder
		Timestamp int64 `json:"timestamp"`
	}{
		MessageID:       msgID,
		DriverID:        driverID,
		AssignmentOrder: order,
		Timestamp:       time.Now().UnixMilli(),
	})
	if err != nil {
		return "", err
	}

	topic := fmt.Sprintf("routecare/drivers/%s/orders", driverID)
	qos := p.qosFor("order")
	if p.maxRetries <= 0 {
		p.maxRetries = 3
	}
	if p.backoff <= 0 {
		p.backoff = 100 * time.Millisecond
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, qos, false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("sent order %s to %s", msgID, topic)
			break
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		time.Sleep(p.backoff * time.Duration(1<<attempt))
	}
	if publishErr != nil {
		return "", publishErr
	}

	p.mu.Lock()
	p.ackChans[msgID] = make(chan struct{}, 1)
	p.mu.Unlock()

	return msgID, nil
}

// WaitForAck blocks until an ACK for the given message ID is received or timeout.
func (p *PahoClient) WaitForAck(messageID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[messageID]
	p.mu.Unlock()
	if ch == nil {
		return false, fmt.Errorf("unknown message")
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		p.mu.Lock()
		delete(p.ackChans, messageID)
		p.mu.Unlock()
		return true, nil
	case <-timer.C:
		p.mu.Lock()
		delete(p.ackChans, messageID)
		p.mu.Unlock()
		return false, fmt.Errorf("%w", coremqtt.ErrAckTimeout)
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
