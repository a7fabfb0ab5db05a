package recognizer

import (
	"regexp"

	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

// Custom entity type labels, spec §4.A required set. Rule-based, so
// spec requires confidence >= 0.9 for every one of these.
const (
	EntityMRN          = "MRN"
	EntityProtocolID   = "PROTOCOL_ID"
	EntityLotNumber    = "LOT_NUMBER"
	EntityGeneSequence = "GENE_SEQUENCE"
	EntityChemicalCAS  = "CHEMICAL_CAS"
	EntitySecretKey    = "SECRET_KEY"
)

const customRecognizerConfidence = 0.9

var (
	mrnPattern      = regexp.MustCompile(`\b\d{6,10}\b`)
	protocolPattern = regexp.MustCompile(`\b[A-Z]{3}-\d{3}\b`)
	lotPattern      = regexp.MustCompile(`\bLOT-[A-Z0-9]+\b`)
	genePattern     = regexp.MustCompile(`\b[ATCG]{10,}\b`)
	casPattern      = regexp.MustCompile(`\b\d{2,7}-\d{2}-\d\b`)

	// secretKeyPatterns covers the shapes spec §4.A names explicitly:
	// sk- style API keys, JWTs, and AWS access keys.
	secretKeyPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bsk-[A-Za-z0-9\-]{20,}\b`),
		regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.eyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`),
		regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	}
)

// MRNRecognizer detects medical record numbers: 6-10 consecutive digits.
type MRNRecognizer struct{}

func (MRNRecognizer) Name() string          { return "custom.mrn" }
func (MRNRecognizer) EntityTypes() []string { return []string{EntityMRN} }
func (r MRNRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, mrnPattern, EntityMRN, r.Name(), customRecognizerConfidence)
}

// ProtocolIDRecognizer detects clinical protocol IDs like ABC-123.
type ProtocolIDRecognizer struct{}

func (ProtocolIDRecognizer) Name() string          { return "custom.protocol_id" }
func (ProtocolIDRecognizer) EntityTypes() []string { return []string{EntityProtocolID} }
func (r ProtocolIDRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, protocolPattern, EntityProtocolID, r.Name(), customRecognizerConfidence)
}

// LotNumberRecognizer detects manufacturing lot numbers like LOT-AB12.
type LotNumberRecognizer struct{}

func (LotNumberRecognizer) Name() string          { return "custom.lot_number" }
func (LotNumberRecognizer) EntityTypes() []string { return []string{EntityLotNumber} }
func (r LotNumberRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, lotPattern, EntityLotNumber, r.Name(), customRecognizerConfidence)
}

// GeneSequenceRecognizer detects runs of nucleotide bases of length >= 10.
type GeneSequenceRecognizer struct{}

func (GeneSequenceRecognizer) Name() string          { return "custom.gene_sequence" }
func (GeneSequenceRecognizer) EntityTypes() []string { return []string{EntityGeneSequence} }
func (r GeneSequenceRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, genePattern, EntityGeneSequence, r.Name(), customRecognizerConfidence)
}

// ChemicalCASRecognizer detects CAS registry numbers like 50-00-0.
type ChemicalCASRecognizer struct{}

func (ChemicalCASRecognizer) Name() string          { return "custom.chemical_cas" }
func (ChemicalCASRecognizer) EntityTypes() []string { return []string{EntityChemicalCAS} }
func (r ChemicalCASRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, casPattern, EntityChemicalCAS, r.Name(), customRecognizerConfidence)
}

// SecretKeyRecognizer detects API keys, JWTs, and AWS access keys.
type SecretKeyRecognizer struct{}

func (SecretKeyRecognizer) Name() string          { return "custom.secret_key" }
func (SecretKeyRecognizer) EntityTypes() []string { return []string{EntitySecretKey} }
func (r SecretKeyRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	var spans []aegistype.Span
	for _, p := range secretKeyPatterns {
		spans = append(spans, matchSpans(text, p, EntitySecretKey, r.Name(), 0.95)...)
	}
	return spans
}

// CustomRecognizers returns the pharma/security-specific recognizer set
// spec §4.A requires in addition to the built-ins.
func CustomRecognizers() []Recognizer {
	return []Recognizer{
		MRNRecognizer{},
		ProtocolIDRecognizer{},
		LotNumberRecognizer{},
		GeneSequenceRecognizer{},
		ChemicalCASRecognizer{},
		SecretKeyRecognizer{},
	}
}
