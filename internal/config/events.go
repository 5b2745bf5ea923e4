package config

import "os"

// EventsConfig configures the RabbitMQ event bus.  An empty URL disables
// publishing; ConsumerEnabled additionally starts the audit-log consumer.
type EventsConfig struct {
	URL             string
	Exchange        string
	ConsumerEnabled bool
	LogDir          string
}

// LoadEventsConfig reads RABBITMQ_URL (or the AMQP_URL alias) together with
// the consumer switches.
func LoadEventsConfig() EventsConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return EventsConfig{
		URL:             url,
		Exchange:        envStr("EVENTS_EXCHANGE", "horta.events"),
		ConsumerEnabled: envBool("EVENTS_CONSUMER_ENABLED", false),
		LogDir:          envStr("EVENTS_LOG_DIR", "logs"),
	}
}

// Enabled reports whether a broker URL has been configured.
func (e EventsConfig) Enabled() bool { return e.URL != "" }
