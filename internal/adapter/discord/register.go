package discord

import "github.com/Strob0t/PlanForge/internal/port/notifier"

func init() {
	notifier.Register(providerName, func(config map[string]string) (notifier.Notifier, error) {
		if config["webhookUrl"] == "" {
			return nil, notifier.ErrNotConfigured
		}
		return NewNotifier(config["webhookUrl"], config["username"]), nil
	})
}
