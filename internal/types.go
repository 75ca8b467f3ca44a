package internal

import (
	"droqsdb/overseasreporter/internal/host"
	"droqsdb/overseasreporter/services/cooldown"
	"droqsdb/overseasreporter/services/publisher"
	"droqsdb/overseasreporter/services/status"
	"droqsdb/overseasreporter/services/uploader"

	"github.com/redis/go-redis/v9"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	Host      host.Host
	Cooldown  cooldown.Store
	Uploader  uploader.Uploader
	Status    status.Presenter
	Publisher publisher.Publisher // nil when mirroring is off
	Redis     *redis.Client       // shared by cooldown and publisher, nil when unused
}

// Cleanup releases everything that holds a connection or a browser
func (d *Dependencies) Cleanup() {
	if d.Status != nil {
		d.Status.Hide()
	}
	if d.Publisher != nil {
		d.Publisher.Close()
	} else if d.Redis != nil {
		d.Redis.Close()
	}
	if d.Host != nil {
		d.Host.Close()
	}
}
