// Package result packs a session's final podium into the canonical byte
// form the external signer expects, and drives the signer/relay round trip.
// Byte packing via encoding/binary is the one part of this backend that is
// necessarily stdlib: no serialization/canonicalization library appears
// anywhere in the reference pack for this concern.
package result

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Payload is the canonical, fixed-field-order byte form described in
// spec.md §4.7: (tournament_id, podium, engine_kind, session_id).
type Payload struct {
	TournamentID string
	Podium       []string
	EngineKind   string
	SessionID    string
}

// Pack serialises p in a fixed field order: each string field is written as
// a uint32 length prefix followed by its raw bytes, podium entries in the
// order given (the engine's ranking, best first). Field order and prefix width never change once frozen, so the
// signer and any verifier agree on the byte layout without a schema.
func Pack(p Payload) []byte {
	var buf bytes.Buffer
	writeString(&buf, p.TournamentID)
	binary.Write(&buf, binary.BigEndian, uint32(len(p.Podium)))
	for _, addr := range p.Podium {
		writeString(&buf, addr)
	}
	writeString(&buf, p.EngineKind)
	writeString(&buf, p.SessionID)
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

// Unpack reverses Pack, used by tests to assert the round trip holds.
func Unpack(raw []byte) (Payload, error) {
	r := bytes.NewReader(raw)

	tournamentID, err := readString(r)
	if err != nil {
		return Payload{}, fmt.Errorf("tournament id: %w", err)
	}

	var podiumLen uint32
	if err := binary.Read(r, binary.BigEndian, &podiumLen); err != nil {
		return Payload{}, fmt.Errorf("podium length: %w", err)
	}
	podium := make([]string, podiumLen)
	for i := range podium {
		addr, err := readString(r)
		if err != nil {
			return Payload{}, fmt.Errorf("podium[%d]: %w", i, err)
		}
		podium[i] = addr
	}

	engineKind, err := readString(r)
	if err != nil {
		return Payload{}, fmt.Errorf("engine kind: %w", err)
	}
	sessionID, err := readString(r)
	if err != nil {
		return Payload{}, fmt.Errorf("session id: %w", err)
	}

	return Payload{
		TournamentID: tournamentID,
		Podium:       podium,
		EngineKind:   engineKind,
		SessionID:    sessionID,
	}, nil
}

func readString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil && n > 0 {
		return "", err
	}
	return string(b), nil
}
