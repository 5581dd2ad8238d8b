package definition

import (
	"fmt"

	"github.com/kbukum/pipelinedef/config"
	"github.com/kbukum/pipelinedef/kafka"
)

// ServiceConfig is the top-level configuration for the definition service
// binary: the admin control-plane bind address plus the toggles for its
// two optional accelerators, Kafka catalog notifications and the Redis
// metadata cache.
type ServiceConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	AdminAddr string `yaml:"admin_addr" mapstructure:"admin_addr"`

	Kafka kafka.Config `yaml:"kafka" mapstructure:"kafka"`

	Redis RedisCacheConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisCacheConfig toggles and addresses the optional metadata cache.
type RedisCacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
	DB      int    `yaml:"db" mapstructure:"db"`
}

// ApplyDefaults fills in defaults for fields the loader left empty,
// mirroring config.ServiceConfig.ApplyDefaults's pattern of delegating to
// the embedded config first.
func (c *ServiceConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.AdminAddr == "" {
		c.AdminAddr = ":8090"
	}
	c.Kafka.ApplyDefaults()
}

// Validate validates the service configuration, delegating shared fields
// to the embedded config and only checking fields this service owns.
func (c *ServiceConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if c.Kafka.Enabled {
		if err := c.Kafka.Validate(); err != nil {
			return fmt.Errorf("config.kafka: %w", err)
		}
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config.redis.addr is required when redis is enabled")
	}
	return nil
}
