package rng

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strconv"
	"sync"
)

// ErrSeedMismatch is returned by Replay when the server seed does not hash
// to the one recorded in the round.
var ErrSeedMismatch = errors.New("rng: server seed does not match round")

const blockSize = sha256.Size

// Round identifies where a game's draws started. A stream rebuilt from the
// same server seed, client seed and nonce yields every draw of that game
// again, in order.
type Round struct {
	ServerSeedHash string `json:"server_seed_hash"`
	ClientSeed     string `json:"client_seed"`
	Nonce          uint64 `json:"nonce"`
}

// Rounder is a Source that can begin a fresh replayable round.
type Rounder interface {
	Source
	BeginRound() Round
}

// BeginRound starts a new round on src and returns it, or nil when src has
// no notion of rounds.
func BeginRound(src Source) *Round {
	r, ok := src.(Rounder)
	if !ok {
		return nil
	}
	round := r.BeginRound()
	return &round
}

// HashServerSeed is the public commitment to a server seed.
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// Stream is a deterministic Source. Block i of a round is
// HMAC-SHA256(serverSeed, "clientSeed:nonce:i"), and each float consumes 4
// bytes of the concatenated blocks.
type Stream struct {
	mu         sync.Mutex
	serverSeed string
	seedHash   string
	clientSeed string
	nonce      uint64
	block      uint64
	pos        int
	buf        [blockSize]byte
}

// NewStream creates a stream for nonce positioned at cursor (in bytes).
func NewStream(serverSeed, clientSeed string, nonce uint64, cursor uint64) *Stream {
	s := &Stream{
		serverSeed: serverSeed,
		seedHash:   HashServerSeed(serverSeed),
		clientSeed: clientSeed,
	}
	s.seek(nonce, cursor)
	return s
}

// Replay rebuilds the stream a recorded round drew from.
func Replay(serverSeed string, r Round) (*Stream, error) {
	if HashServerSeed(serverSeed) != r.ServerSeedHash {
		return nil, ErrSeedMismatch
	}
	return NewStream(serverSeed, r.ClientSeed, r.Nonce, 0), nil
}

// BeginRound moves to the next nonce at cursor 0.
func (s *Stream) BeginRound() Round {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seek(s.nonce+1, 0)
	return Round{ServerSeedHash: s.seedHash, ClientSeed: s.clientSeed, Nonce: s.nonce}
}

// Nonce returns the current round's nonce.
func (s *Stream) Nonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce
}

// Float64 returns the next float in [0, 1): 4 stream bytes read as a
// big-endian fraction of 2^32.
func (s *Stream) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b [4]byte
	for i := range b {
		b[i] = s.nextByte()
	}
	return bytesToFloat(b)
}

// IntN maps the next float onto [0, n).
func (s *Stream) IntN(n int) int {
	return scale(s.Float64(), n)
}

func (s *Stream) seek(nonce, cursor uint64) {
	s.nonce = nonce
	s.block = cursor / blockSize
	s.pos = int(cursor % blockSize)
	s.fill()
}

func (s *Stream) nextByte() byte {
	if s.pos == blockSize {
		s.block++
		s.pos = 0
		s.fill()
	}
	b := s.buf[s.pos]
	s.pos++
	return b
}

func (s *Stream) fill() {
	mac := hmac.New(sha256.New, []byte(s.serverSeed))
	msg := make([]byte, 0, len(s.clientSeed)+42)
	msg = append(msg, s.clientSeed...)
	msg = append(msg, ':')
	msg = strconv.AppendUint(msg, s.nonce, 10)
	msg = append(msg, ':')
	msg = strconv.AppendUint(msg, s.block, 10)
	mac.Write(msg)
	mac.Sum(s.buf[:0])
}

func bytesToFloat(b [4]byte) float64 {
	return float64(binary.BigEndian.Uint32(b[:])) / (1 << 32)
}
