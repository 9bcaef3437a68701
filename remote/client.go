package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nicksrusso/generals-bots/game"
)

// defaultTimeout bounds one round trip to the served agent.
const defaultTimeout = 30 * time.Second

type ClientOption func(c *Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.http.Timeout = timeout
		}
	}
}

// Client plays a served agent. It satisfies the same contract as a local
// bot, so the engine wires it in like any other player. Any transport or
// decoding failure degrades to a pass for that tick.
type Client struct {
	name string
	url  string
	http *http.Client
}

func NewClient(name, url string, options ...ClientOption) *Client {
	c := &Client{
		name: name,
		url:  url,
		http: &http.Client{Timeout: defaultTimeout},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) Act(observation game.Observation) game.Action {
	action, err := c.act(observation)
	if err != nil {
		log.Warn().Msgf("%s falls back to a pass: %v", c.name, err)
		return game.Action{Pass: true}
	}
	return action
}

func (c *Client) act(observation game.Observation) (game.Action, error) {
	body, err := json.Marshal(observation)
	if err != nil {
		return game.Action{}, fmt.Errorf("failed to encode observation: %w", err)
	}

	resp, err := c.http.Post(c.url+"/act", "application/json", bytes.NewReader(body))
	if err != nil {
		return game.Action{}, fmt.Errorf("failed to reach agent: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return game.Action{}, fmt.Errorf("agent returned status %d", resp.StatusCode)
	}

	var action game.Action
	if err := json.NewDecoder(resp.Body).Decode(&action); err != nil {
		return game.Action{}, fmt.Errorf("failed to decode action: %w", err)
	}
	return action, nil
}

// Reset clears the served agent's per-session state. Failures are logged
// and otherwise ignored; a fresh game proceeds either way.
func (c *Client) Reset() {
	resp, err := c.http.Post(c.url+"/reset", "application/json", nil)
	if err != nil {
		log.Warn().Msgf("%s reset failed: %v", c.name, err)
		return
	}
	resp.Body.Close()
}

// Healthy reports whether the served agent answers its health check.
func (c *Client) Healthy() bool {
	resp, err := c.http.Get(c.url + "/healthz")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
