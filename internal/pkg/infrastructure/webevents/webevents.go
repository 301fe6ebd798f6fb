package webevents

import (
	"context"
	"encoding/json"
	"net/http"

	gosse "github.com/alexandrevicenzi/go-sse"

	"github.com/spoolsync/spool-mgmt/internal/pkg/infrastructure/logging"
)

// WebEvents pushes application events to browsers over server sent events.
type WebEvents interface {
	Handler() http.Handler
	Publish(ctx context.Context, name string, payload any)
	Shutdown()
}

type webEvents struct {
	s *gosse.Server
}

func New() WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{
			Headers: map[string]string{
				"Cache-Control": "no-cache",
			},
		}),
	}
}

func (we *webEvents) Handler() http.Handler {
	return we.s
}

func (we *webEvents) Shutdown() {
	we.s.Shutdown()
}

func (we *webEvents) Publish(ctx context.Context, name string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		log := logging.GetLoggerFromContext(ctx)
		log.Error().Err(err).Str("event", name).Msg("could not marshal web event")
		return
	}

	we.s.SendMessage("", gosse.NewMessage("", string(b), name))
}
