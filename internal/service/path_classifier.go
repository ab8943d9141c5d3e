package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// ClassifiedRequest bundles an evidence type with the ancestors found on the
// edited path and the caller supplied values the resolver needs.
type ClassifiedRequest struct {
	Type           domain.EvidenceType
	Gene           *domain.Gene
	Mutation       *domain.Mutation
	Tumor          *domain.Tumor
	TI             *domain.TI
	Treatment      *domain.Treatment
	TreatmentIndex int
	UpdateTime     int64
	DrugLookup     domain.DrugLookup
	EntrezGeneID   int
}

type classificationRule struct {
	pattern      *regexp.Regexp
	evidenceType domain.EvidenceType
}

// Rules are evaluated in order; the first match wins.
var classificationRules = []classificationRule{
	{regexp.MustCompile(`^summary$`), domain.GENE_SUMMARY},
	{regexp.MustCompile(`^background$`), domain.GENE_BACKGROUND},
	{regexp.MustCompile(`^mutations/\d+/mutation_effect/(effect|description)`), domain.MUTATION_EFFECT},
	{regexp.MustCompile(`^mutations/\d+/mutation_effect/oncogenic`), domain.ONCOGENIC},
	{regexp.MustCompile(`^mutations/\d+/tumors/\d+/summary`), domain.TUMOR_TYPE_SUMMARY},
	{regexp.MustCompile(`^mutations/\d+/tumors/\d+/prognosticSummary`), domain.PROGNOSTIC_SUMMARY},
	{regexp.MustCompile(`^mutations/\d+/tumors/\d+/diagnosticSummary`), domain.DIAGNOSTIC_SUMMARY},
	{regexp.MustCompile(`^mutations/\d+/tumors/\d+/prognostic/level`), domain.PROGNOSTIC_IMPLICATION},
	{regexp.MustCompile(`^mutations/\d+/tumors/\d+/diagnostic/level`), domain.DIAGNOSTIC_IMPLICATION},
}

var therapeuticPathPattern = regexp.MustCompile(`^mutations/\d+/tumors/\d+/TIs/\d+/treatments/(\d+)`)

// Edits to these treatment fields never produce evidence.
var therapeuticExcludedSuffixes = []string{"/short", "/indication", "/name_review"}

// Classify walks path over gene and decides which evidence type the edit
// produces. A nil request with a nil error means the edit has nothing to
// submit and should be skipped.
func Classify(gene *domain.Gene, path string, updateTime int64, drugLookup domain.DrugLookup, entrezGeneID int) (*ClassifiedRequest, error) {
	if gene == nil {
		return nil, domain.NewValidationError("gene", "gene tree is required", nil)
	}
	anc, err := walkPath(gene, path)
	if err != nil {
		return nil, err
	}

	normalized := strings.Trim(path, "/")
	evidenceType, ok := classifyPath(normalized, anc)
	if !ok {
		return nil, nil
	}

	return &ClassifiedRequest{
		Type:           evidenceType,
		Gene:           gene,
		Mutation:       anc.mutation,
		Tumor:          anc.tumor,
		TI:             anc.ti,
		Treatment:      anc.treatment,
		TreatmentIndex: anc.treatmentIndex,
		UpdateTime:     updateTime,
		DrugLookup:     drugLookup,
		EntrezGeneID:   entrezGeneID,
	}, nil
}

func classifyPath(path string, anc *ancestors) (domain.EvidenceType, bool) {
	for _, rule := range classificationRules {
		if rule.pattern.MatchString(path) {
			return rule.evidenceType, true
		}
	}

	match := therapeuticPathPattern.FindStringSubmatch(path)
	if match == nil {
		return "", false
	}
	for _, suffix := range therapeuticExcludedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return "", false
		}
	}

	// The walk already validated the index against this TI.
	i, err := strconv.Atoi(match[1])
	if err != nil || anc.ti == nil || i >= len(anc.ti.Treatments) {
		return "", false
	}
	return domain.TherapeuticTypeForLevel(anc.ti.Treatments[i].Level)
}
