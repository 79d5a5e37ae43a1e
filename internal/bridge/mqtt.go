package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/attendkit/presence/internal/config"
	"github.com/attendkit/presence/internal/location"
	"github.com/attendkit/presence/internal/tag"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectQuiesce = 250 // milliseconds, passed to paho's Disconnect
)

// Ingest subscribes to the device-agent topics and feeds scanned tags and
// position fixes into the capture bridges. It is an optional transport; the
// HTTP push endpoints remain available whether or not a broker is configured.
type Ingest struct {
	cfg    config.MQTTConfig
	tags   *tag.Bridge
	fixes  *location.Bridge
	log    *zap.Logger
	client mqtt.Client
}

func NewIngest(cfg config.Config, tags *tag.Bridge, fixes *location.Bridge, log *zap.Logger) *Ingest {
	return &Ingest{
		cfg:   cfg.MQTT,
		tags:  tags,
		fixes: fixes,
		log:   log.Named("bridge.mqtt"),
	}
}

// Start connects to the broker and subscribes to both topics. Subscriptions
// are re-established on every reconnect.
func (i *Ingest) Start() error {
	clientID := i.cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("presenced-%d", time.Now().UnixNano())
	}

	opts := mqtt.NewClientOptions().
		AddBroker(i.cfg.BrokerURL).
		SetClientID(clientID).
		SetOrderMatters(false).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(i.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			i.log.Warn("broker connection lost", zap.Error(err))
		})

	i.client = mqtt.NewClient(opts)
	token := i.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker %s: %w", i.cfg.BrokerURL, err)
	}
	i.log.Info("connected to broker",
		zap.String("broker", i.cfg.BrokerURL),
		zap.String("client_id", clientID),
	)
	return nil
}

// Stop disconnects from the broker, allowing in-flight messages to drain.
func (i *Ingest) Stop() {
	if i.client != nil && i.client.IsConnected() {
		i.client.Disconnect(disconnectQuiesce)
	}
}

func (i *Ingest) onConnect(client mqtt.Client) {
	if token := client.Subscribe(i.cfg.TagTopic, 0, i.handleTag); token.Wait() && token.Error() != nil {
		i.log.Error("subscribe failed", zap.String("topic", i.cfg.TagTopic), zap.Error(token.Error()))
	}
	if token := client.Subscribe(i.cfg.FixTopic, 0, i.handleFix); token.Wait() && token.Error() != nil {
		i.log.Error("subscribe failed", zap.String("topic", i.cfg.FixTopic), zap.Error(token.Error()))
	}
	i.log.Info("subscribed",
		zap.String("tag_topic", i.cfg.TagTopic),
		zap.String("fix_topic", i.cfg.FixTopic),
	)
}

// handleTag forwards the raw record as-is. Validation happens in the decode
// step of the capture flow, not at the transport.
func (i *Ingest) handleTag(_ mqtt.Client, msg mqtt.Message) {
	i.log.Debug("tag scan received", zap.String("topic", msg.Topic()), zap.Int("bytes", len(msg.Payload())))
	i.tags.Push(msg.Payload())
}

func (i *Ingest) handleFix(_ mqtt.Client, msg mqtt.Message) {
	var fix location.Fix
	if err := json.Unmarshal(msg.Payload(), &fix); err != nil {
		i.log.Warn("discarding malformed fix", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	if err := i.fixes.Push(fix); err != nil {
		i.log.Warn("discarding out-of-range fix", zap.Error(err))
	}
}
