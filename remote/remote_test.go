package remote

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nicksrusso/generals-bots/agents"
	"github.com/nicksrusso/generals-bots/game"
)

/**
Tests the HTTP bridge:
- observation/action round trip matches the served agent's local answer
- reset propagation and the health check
- transport failures and bad requests degrade to a pass
*/

type countingAgent struct {
	agents.Agent
	resets int
}

func (a *countingAgent) Reset() {
	a.resets++
}

func testObservation(t *testing.T) game.Observation {
	t.Helper()
	g, err := game.New("A..\n...\n..B", []string{"alice", "bob"})
	require.NoError(t, err)
	g.Step(nil)
	g.Step(nil)
	return g.Observations()["alice"]
}

func TestBridgeRoundTrip(t *testing.T) {
	expander := agents.NewExpander("expander")
	server := httptest.NewServer(NewServer(expander))
	defer server.Close()
	client := NewClient("expander", server.URL)
	observation := testObservation(t)

	action := client.Act(observation)

	require.Equal(t, expander.Act(observation), action,
		"The bridge must answer exactly like the local agent")
	require.False(t, action.Pass, "Production has unlocked a neutral capture")
}

func TestBridgeReset(t *testing.T) {
	agent := &countingAgent{Agent: agents.NewRandom("random", 1)}
	server := httptest.NewServer(NewServer(agent))
	defer server.Close()
	client := NewClient("random", server.URL)

	client.Reset()
	client.Reset()

	require.Equal(t, 2, agent.resets)
}

func TestBridgeHealth(t *testing.T) {
	server := httptest.NewServer(NewServer(agents.NewRandom("random", 1)))
	client := NewClient("random", server.URL)

	require.True(t, client.Healthy())

	server.Close()
	require.False(t, client.Healthy())
}

func TestBridgeFailures(t *testing.T) {
	t.Run("a dead server degrades to a pass", func(t *testing.T) {
		server := httptest.NewServer(NewServer(agents.NewRandom("random", 1)))
		server.Close()
		client := NewClient("random", server.URL)

		require.True(t, client.Act(testObservation(t)).Pass)
	})

	t.Run("act rejects non-POST requests", func(t *testing.T) {
		server := httptest.NewServer(NewServer(agents.NewRandom("random", 1)))
		defer server.Close()

		resp, err := http.Get(server.URL + "/act")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})

	t.Run("act rejects malformed bodies", func(t *testing.T) {
		server := httptest.NewServer(NewServer(agents.NewRandom("random", 1)))
		defer server.Close()

		resp, err := http.Post(server.URL+"/act", "application/json",
			http.NoBody)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
