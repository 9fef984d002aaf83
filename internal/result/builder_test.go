package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	p := Payload{
		TournamentID: "tourney-7",
		Podium:       []string{"0xAAA", "0xBBB", "Bot_1"},
		EngineKind:   "chess",
		SessionID:    "sess-123",
	}

	raw := Pack(p)
	got, err := Unpack(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPackFixedFieldOrder(t *testing.T) {
	a := Pack(Payload{TournamentID: "t", Podium: []string{"x"}, EngineKind: "chess", SessionID: "s"})
	b := Pack(Payload{TournamentID: "t", Podium: []string{"x"}, EngineKind: "chess", SessionID: "s"})
	assert.Equal(t, a, b)

	want := []byte{
		0, 0, 0, 1, 't',
		0, 0, 0, 1, 0, 0, 0, 1, 'x',
		0, 0, 0, 5, 'c', 'h', 'e', 's', 's',
		0, 0, 0, 1, 's',
	}
	assert.Equal(t, want, a)
}

func TestPackEmptyPodium(t *testing.T) {
	p := Payload{TournamentID: "t", Podium: nil, EngineKind: "arena", SessionID: "s"}
	raw := Pack(p)
	got, err := Unpack(raw)
	require.NoError(t, err)
	assert.Empty(t, got.Podium)
}
