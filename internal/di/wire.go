//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"weddinghub/internal/config"
	"weddinghub/internal/dbmysql"
	"weddinghub/internal/hub"
)

// This is just a declaration - wire generates the real body in wire_gen.go
func InitializeHub(cfg *config.Config) (*hub.Server, error) {
	wire.Build(
		dbmysql.NewMySQL,
		dbmysql.NewNotificationRepository,
		provideBroadcaster,
		hub.NewServer,
	)
	return nil, nil
}
