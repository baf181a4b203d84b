package notification

import (
	"context"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/pcrdb/internal/errors"
	"github.com/tphakala/pcrdb/internal/logger"
)

// Message is one reminder addressed to one user
type Message struct {
	To      string // recipient address, used by services that address people
	Subject string
	Body    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type route struct {
	scheme string
	router *router.ServiceRouter
}

// ShoutrrrSender delivers messages to every configured shoutrrr service URL.
// Email services get the recipient through the toaddresses parameter; chat
// services receive every reminder.
type ShoutrrrSender struct {
	routes []route
}

// NewShoutrrrSender validates the URLs and builds one router per URL.
func NewShoutrrrSender(urls []string, timeout time.Duration) (*ShoutrrrSender, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one notification URL is required").
			Component(component).
			Category(errors.CategoryConfiguration).
			Build()
	}

	s := &ShoutrrrSender{}
	for _, raw := range urls {
		r, err := shoutrrr.CreateSender(raw)
		if err != nil {
			return nil, errors.Newf("invalid notification URL: %s", logger.RedactSensitiveData(err.Error())).
				Component(component).
				Category(errors.CategoryConfiguration).
				Build()
		}
		if timeout > 0 {
			r.Timeout = timeout
		}
		r.SetLogger(log.New(io.Discard, "", 0))

		scheme := ""
		if u, err := url.Parse(raw); err == nil {
			scheme = strings.ToLower(u.Scheme)
		}
		s.routes = append(s.routes, route{scheme: scheme, router: r})
	}
	return s, nil
}

// Send delivers msg to all services and joins their failures.
func (s *ShoutrrrSender) Send(ctx context.Context, msg Message) error {
	var failures []error
	for _, rt := range s.routes {
		if err := ctx.Err(); err != nil {
			return err
		}
		params := types.Params{}
		params.SetTitle(msg.Subject)
		if rt.scheme == "smtp" && msg.To != "" {
			params["toaddresses"] = msg.To
		}
		for _, err := range rt.router.Send(msg.Body, &params) {
			if err != nil {
				failures = append(failures, errors.NewStd(logger.RedactSensitiveData(err.Error())))
			}
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return errors.New(errors.Join(failures...)).
		Component(component).
		Category(errors.CategoryNotification).
		Context("failures", len(failures)).
		Build()
}
