package di

import (
	"weddinghub/internal/config"
	"weddinghub/internal/hub"
)

func provideBroadcaster(cfg *config.Config) *hub.Broadcaster {
	return hub.NewBroadcaster(cfg.Stream.SubscriberSlack)
}
