// Package commentary generates football match commentary sentences for
// demo publishers. Output is deterministic for a given seed, making
// publisher runs reproducible.
package commentary

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"strconv"
)

// EnvSeed names the environment variable InitSeed reads. New consults
// it only when given a zero seed.
const EnvSeed = "HERALD_SEED"

// template writes one sentence kind using the generator's source of
// randomness.
type template func(rng *rand.Rand) string

// Generator produces one random commentary sentence per call.
type Generator struct {
	rng       *rand.Rand
	templates []template
}

// InitSeed returns the seed from the environment, or a random one.
func InitSeed() uint32 {
	if env := os.Getenv(EnvSeed); env != "" {
		if v, err := strconv.ParseUint(env, 10, 32); err == nil {
			return uint32(v)
		}
	}

	var b [4]byte
	if _, err := crand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint32(b[:])
	}
	return 1
}

// New returns a generator for the given seed. A seed of zero selects
// one via InitSeed.
func New(seed uint32) *Generator {
	if seed == 0 {
		seed = InitSeed()
	}

	return &Generator{
		rng:       rand.New(rand.NewSource(int64(seed))),
		templates: sentenceTemplates(),
	}
}

// Generate writes one sentence into buf, truncated to the buffer's
// capacity, and returns the number of bytes written.
func (g *Generator) Generate(buf []byte) int {
	if len(g.templates) == 0 || len(buf) == 0 {
		return 0
	}

	s := g.templates[g.rng.Intn(len(g.templates))](g.rng)
	return copy(buf, s)
}

func pickTeam(rng *rand.Rand) string {
	return teams[rng.Intn(len(teams))]
}

func pickPlayer(rng *rand.Rand) string {
	return players[rng.Intn(len(players))]
}

func pickMinute(rng *rand.Rand) int {
	return 1 + rng.Intn(90)
}

// sentenceTemplates returns the twelve commentary variants: goals,
// substitutions, cards, added time, injuries, penalties, corners,
// saves, halftime and full time.
func sentenceTemplates() []template {
	return []template{
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Gol de %s al minuto %d", pickTeam(rng), pickMinute(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Cambio entra %s", pickPlayer(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Tarjeta amarilla 🟨 para %s al minuto %d", pickPlayer(rng), pickMinute(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Tarjeta roja 🟥 para %s al minuto %d", pickPlayer(rng), pickMinute(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Cambio sale %s", pickPlayer(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Se agregan 3 minutos al partido en %s", pickTeam(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("%s está lesionado y pide atención médica", pickPlayer(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Penalti para %s al minuto %d", pickTeam(rng), pickMinute(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Saque de esquina para %s", pickTeam(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Gran atajada del portero %s", pickPlayer(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Comienza el segundo tiempo en %s", pickTeam(rng))
		},
		func(rng *rand.Rand) string {
			return fmt.Sprintf("Finaliza el partido en %s", pickTeam(rng))
		},
	}
}
