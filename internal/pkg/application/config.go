package application

import (
	"io"

	yaml "gopkg.in/yaml.v2"

	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/integrations"
	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/notifications"
)

type Config struct {
	Integrations  []integrations.Definition    `yaml:"integrations"`
	Notifications []notifications.Notification `yaml:"notifications"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := yaml.Unmarshal(buf, &cfg); err == nil {
		return &cfg, nil
	} else {
		return nil, err
	}
}
