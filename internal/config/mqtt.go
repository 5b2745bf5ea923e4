package config

import "time"

// MQTTConfig configures the bridge to the irrigation controller.  The
// bridge is disabled when Broker is empty.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	TopicPrefix    string
	QoS            int
	ConnectTimeout time.Duration
}

// LoadMQTTConfig reads the MQTT_* variables.
func LoadMQTTConfig() MQTTConfig {
	qos := envInt("MQTT_QOS", 1)
	if qos < 0 || qos > 2 {
		qos = 1
	}
	return MQTTConfig{
		Broker:         envStr("MQTT_BROKER", ""),
		ClientID:       envStr("MQTT_CLIENT_ID", "horta-api"),
		Username:       envStr("MQTT_USERNAME", ""),
		Password:       envStr("MQTT_PASSWORD", ""),
		TopicPrefix:    envStr("MQTT_TOPIC_PREFIX", "horta"),
		QoS:            qos,
		ConnectTimeout: envDur("MQTT_CONNECT_TIMEOUT", 10*time.Second),
	}
}

// Enabled reports whether a broker address has been configured.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }
