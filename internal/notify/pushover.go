package notify

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"availwatch/internal/domain"
)

const pushoverAPI = "https://api.pushover.net/1/messages.json"

// Pushover delivers to the Pushover mobile push service.
type Pushover struct {
	Token  string
	User   string
	APIURL string
	Client *http.Client
}

func NewPushover(token, user string) *Pushover {
	if token == "" || user == "" {
		return nil
	}
	return &Pushover{
		Token:  token,
		User:   user,
		APIURL: pushoverAPI,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *Pushover) Name() string { return "pushover" }

func (p *Pushover) Deliver(ctx context.Context, ev domain.AlertEvent) error {
	if p == nil || p.Token == "" || p.User == "" {
		return errors.New("pushover disabled")
	}
	form := url.Values{
		"token":   {p.Token},
		"user":    {p.User},
		"title":   {Title(ev)},
		"message": {ev.Message},
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, p.APIURL, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("pushover non-2xx")
	}
	return nil
}
