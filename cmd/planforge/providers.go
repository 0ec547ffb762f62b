package main

// Notifier blank imports. Each import registers an integration delivery
// adapter with the notifier registry.

import (
	_ "github.com/Strob0t/PlanForge/internal/adapter/discord"
	_ "github.com/Strob0t/PlanForge/internal/adapter/slack"
)
