package tokenizer

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// syntheticNames, syntheticDomains, and syntheticWords are small fixed
// pools so a SYNTHETIC surrogate always looks plausible for its entity
// type without depending on a fake-data library the retrieved stack does
// not carry.
var syntheticNames = []string{
	"Alex Morgan", "Jordan Lee", "Taylor Reed", "Casey Quinn",
	"Morgan Ellis", "Riley Shaw", "Sam Parker", "Jamie Cole",
}

var syntheticDomains = []string{
	"example.com", "mailbox.test", "corp.example", "inbox.test",
}

var syntheticWords = []string{
	"widget", "signal", "beacon", "harbor", "lattice", "meridian",
}

const geneBases = "ATCG"
const alnum = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// surrogateSource derives a deterministic rand.Source from
// SHA-256(sessionID || entityType || normalizedSurface), per spec §4.D.
func surrogateSource(sessionID, entityType, normalizedSurface string) *rand.Rand {
	h := sha256.Sum256([]byte(sessionID + "\x00" + entityType + "\x00" + normalizedSurface))
	seed1 := binary.BigEndian.Uint64(h[0:8])
	seed2 := binary.BigEndian.Uint64(h[8:16])
	return rand.New(rand.NewPCG(seed1, seed2))
}

// Synthesize produces a deterministic, plausible surrogate value of the
// same entity type as surface, seeded so repeated calls within a session
// yield the same surrogate (spec §4.D's SYNTHETIC determinism rule).
func Synthesize(sessionID, entityType, normalizedSurface, surface string) string {
	r := surrogateSource(sessionID, entityType, normalizedSurface)

	switch entityType {
	case "PERSON":
		return pick(r, syntheticNames)
	case "EMAIL_ADDRESS":
		return fmt.Sprintf("user%d@%s", r.IntN(100000), pick(r, syntheticDomains))
	case "PHONE_NUMBER":
		return fmt.Sprintf("(%03d) %03d-%04d", 200+r.IntN(800), r.IntN(1000), r.IntN(10000))
	case "IP_ADDRESS":
		return fmt.Sprintf("%d.%d.%d.%d", 10+r.IntN(240), r.IntN(256), r.IntN(256), r.IntN(256))
	case "DATE_TIME":
		return fmt.Sprintf("%04d-%02d-%02d", 2018+r.IntN(7), 1+r.IntN(12), 1+r.IntN(28))
	case "MRN":
		return fmt.Sprintf("%08d", r.IntN(100000000))
	case "PROTOCOL_ID":
		return fmt.Sprintf("%s-%03d", randomLetters(r, 3), r.IntN(1000))
	case "LOT_NUMBER":
		return fmt.Sprintf("LOT-%s%02d", randomLetters(r, 2), r.IntN(100))
	case "GENE_SEQUENCE":
		length := len(surface)
		if length < 10 {
			length = 10
		}
		return randomBases(r, length)
	case "CHEMICAL_CAS":
		return fmt.Sprintf("%05d-%02d-%d", r.IntN(100000), r.IntN(100), r.IntN(10))
	case "SECRET_KEY":
		return "sk-" + randomAlnum(r, 24)
	default:
		return pick(r, syntheticWords)
	}
}

func pick(r *rand.Rand, pool []string) string {
	return pool[r.IntN(len(pool))]
}

func randomLetters(r *rand.Rand, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('A' + r.IntN(26))
	}
	return string(buf)
}

func randomBases(r *rand.Rand, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = geneBases[r.IntN(len(geneBases))]
	}
	return string(buf)
}

func randomAlnum(r *rand.Rand, n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alnum[r.IntN(len(alnum))]
	}
	return string(buf)
}
