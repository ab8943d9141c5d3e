package service

import (
	"strconv"
	"strings"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// ResolvedEvidence is the evidence built for one edit together with the uuid
// of the reviewable field it was derived from.
type ResolvedEvidence struct {
	Evidence *domain.Evidence
	DataUUID string
}

// evidenceResolver fills a prepared skeleton for one evidence type and
// returns the data uuid and the review time of the source field.
type evidenceResolver func(req *ClassifiedRequest, evidence *domain.Evidence) (string, *domain.Review, error)

var evidenceResolvers = map[domain.EvidenceType]evidenceResolver{
	domain.GENE_SUMMARY:           resolveGeneSummary,
	domain.GENE_BACKGROUND:        resolveGeneBackground,
	domain.MUTATION_EFFECT:        resolveMutationEffect,
	domain.ONCOGENIC:              resolveOncogenic,
	domain.TUMOR_TYPE_SUMMARY:     resolveTumorSummary,
	domain.PROGNOSTIC_SUMMARY:     resolvePrognosticSummary,
	domain.DIAGNOSTIC_SUMMARY:     resolveDiagnosticSummary,
	domain.PROGNOSTIC_IMPLICATION: resolvePrognosticImplication,
	domain.DIAGNOSTIC_IMPLICATION: resolveDiagnosticImplication,

	domain.STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY:    resolveTherapeutic,
	domain.STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE:     resolveTherapeutic,
	domain.INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY: resolveTherapeutic,
	domain.INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE:  resolveTherapeutic,
}

// Resolve builds the Evidence for a classified request. It never returns a
// partial evidence: any error aborts the whole call.
func Resolve(req *ClassifiedRequest) (*ResolvedEvidence, error) {
	if req == nil {
		return nil, domain.NewValidationError("request", "classified request is required", nil)
	}
	resolver, ok := evidenceResolvers[req.Type]
	if !ok {
		return nil, &domain.UnhandledEvidenceTypeError{Type: req.Type}
	}
	if req.Gene == nil {
		return nil, domain.NewValidationError("gene", "gene tree is required", nil)
	}

	evidence := newEvidenceSkeleton(req)
	dataUUID, review, err := resolver(req, evidence)
	if err != nil {
		return nil, err
	}
	evidence.LastEdit = lastEdit(review, req.UpdateTime)

	return &ResolvedEvidence{Evidence: evidence, DataUUID: dataUUID}, nil
}

func newEvidenceSkeleton(req *ClassifiedRequest) *domain.Evidence {
	evidence := domain.NewEvidence(req.Type, req.Gene.Name, req.EntrezGeneID)
	if req.Mutation != nil {
		evidence.Alterations = mutationAlterations(req.Mutation)
	}
	if req.Tumor != nil {
		evidence.CancerTypes = append(evidence.CancerTypes, req.Tumor.CancerTypes...)
		evidence.ExcludedCancerTypes = append(evidence.ExcludedCancerTypes, req.Tumor.ExcludedCancerTypes...)
	}
	return evidence
}

// mutationAlterations falls back to the comma separated mutation name when no
// alterations were curated.
func mutationAlterations(m *domain.Mutation) []domain.Alteration {
	if len(m.Alterations) > 0 {
		return append([]domain.Alteration{}, m.Alterations...)
	}
	alterations := []domain.Alteration{}
	for _, name := range strings.Split(m.Name, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			alterations = append(alterations, domain.Alteration{Alteration: name, Name: name})
		}
	}
	return alterations
}

// lastEdit prefers the field's review time over the caller supplied one.
func lastEdit(review *domain.Review, updateTime int64) string {
	t := domain.UpdateTimeOf(review)
	if t == 0 {
		t = updateTime
	}
	if t == 0 {
		return ""
	}
	return strconv.FormatInt(t, 10)
}

func missingAncestor(field string, t domain.EvidenceType) error {
	return domain.NewValidationError(field, "required for "+t.String()+" evidence", nil)
}

func resolveGeneSummary(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	e.Description = req.Gene.Summary
	return req.Gene.SummaryUUID, req.Gene.SummaryReview, nil
}

func resolveGeneBackground(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	e.Description = req.Gene.Background
	return req.Gene.BackgroundUUID, req.Gene.BackgroundReview, nil
}

// resolveMutationEffect takes the uuid and time of whichever of effect and
// description was reviewed last. A missing review is older than any review;
// ties go to effect.
func resolveMutationEffect(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Mutation == nil {
		return "", nil, missingAncestor("mutation", req.Type)
	}
	me := req.Mutation.MutationEffect
	e.KnownEffect = me.Effect
	e.Description = me.Description

	if descriptionIsNewer(me.EffectReview, me.DescriptionReview) {
		return me.DescriptionUUID, me.DescriptionReview, nil
	}
	return me.EffectUUID, me.EffectReview, nil
}

func descriptionIsNewer(effect, description *domain.Review) bool {
	if description == nil {
		return false
	}
	if effect == nil {
		return true
	}
	return description.UpdateTime > effect.UpdateTime
}

func resolveOncogenic(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Mutation == nil {
		return "", nil, missingAncestor("mutation", req.Type)
	}
	me := req.Mutation.MutationEffect
	e.KnownEffect = me.Oncogenic
	return me.OncogenicUUID, me.OncogenicReview, nil
}

func resolveTumorSummary(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Tumor == nil {
		return "", nil, missingAncestor("tumor", req.Type)
	}
	e.Description = req.Tumor.Summary
	return req.Tumor.SummaryUUID, req.Tumor.SummaryReview, nil
}

func resolvePrognosticSummary(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Tumor == nil {
		return "", nil, missingAncestor("tumor", req.Type)
	}
	e.Description = req.Tumor.PrognosticSummary
	return req.Tumor.PrognosticSummaryUUID, req.Tumor.PrognosticSummaryReview, nil
}

func resolveDiagnosticSummary(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Tumor == nil {
		return "", nil, missingAncestor("tumor", req.Type)
	}
	e.Description = req.Tumor.DiagnosticSummary
	return req.Tumor.DiagnosticSummaryUUID, req.Tumor.DiagnosticSummaryReview, nil
}

// Implications carry no review sidecar, so their time is the caller's.
func resolvePrognosticImplication(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Tumor == nil {
		return "", nil, missingAncestor("tumor", req.Type)
	}
	e.Description = req.Tumor.Prognostic.Description
	e.LevelOfEvidence = domain.MapLevelOfEvidence(req.Tumor.Prognostic.Level)
	return req.Tumor.PrognosticUUID, nil, nil
}

func resolveDiagnosticImplication(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Tumor == nil {
		return "", nil, missingAncestor("tumor", req.Type)
	}
	e.Description = req.Tumor.Diagnostic.Description
	e.LevelOfEvidence = domain.MapLevelOfEvidence(req.Tumor.Diagnostic.Level)
	return req.Tumor.DiagnosticUUID, nil, nil
}

func resolveTherapeutic(req *ClassifiedRequest, e *domain.Evidence) (string, *domain.Review, error) {
	if req.Treatment == nil {
		return "", nil, missingAncestor("treatment", req.Type)
	}
	t := req.Treatment
	e.KnownEffect = req.Type.TherapeuticKnownEffect()
	e.LevelOfEvidence = domain.MapLevelOfEvidence(t.Level)
	e.FdaLevel = domain.MapFdaLevel(t.FdaLevel)
	e.SolidPropagationLevel = domain.MapPropagationLevel(t.Propagation)
	e.LiquidPropagationLevel = domain.MapPropagationLevel(t.PropagationLiquid)
	e.Description = t.Description

	treatments, err := buildTreatments(req)
	if err != nil {
		return "", nil, err
	}
	e.Treatments = treatments
	return t.NameUUID, nil, nil
}
