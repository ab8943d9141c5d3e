package domain

// Review is the review sidecar paired with a reviewable field
// (for example `summary_review`).
type Review struct {
	UpdateTime   int64  `json:"updateTime,omitempty"`
	UpdatedBy    string `json:"updatedBy,omitempty"`
	LastReviewed string `json:"lastReviewed,omitempty"`
	Added        bool   `json:"added,omitempty"`
}

// Gene is the root of one gene's curation tree.
type Gene struct {
	Name             string     `json:"name"`
	Summary          string     `json:"summary"`
	SummaryUUID      string     `json:"summary_uuid"`
	SummaryReview    *Review    `json:"summary_review,omitempty"`
	Background       string     `json:"background"`
	BackgroundUUID   string     `json:"background_uuid"`
	BackgroundReview *Review    `json:"background_review,omitempty"`
	Mutations        []Mutation `json:"mutations"`
}

// Alteration is one curated alteration grouped under a mutation.
type Alteration struct {
	Alteration    string `json:"alteration"`
	Name          string `json:"name,omitempty"`
	ProteinChange string `json:"proteinChange,omitempty"`
}

// Mutation groups one or more alterations with their curated effect and the
// tumor types they were curated in.
type Mutation struct {
	Name           string         `json:"name"`
	NameUUID       string         `json:"name_uuid"`
	NameReview     *Review        `json:"name_review,omitempty"`
	Alterations    []Alteration   `json:"alterations,omitempty"`
	MutationEffect MutationEffect `json:"mutation_effect"`
	Tumors         []Tumor        `json:"tumors"`
}

// MutationEffect holds a mutation's oncogenicity and functional effect.
type MutationEffect struct {
	Oncogenic         string  `json:"oncogenic"`
	OncogenicUUID     string  `json:"oncogenic_uuid"`
	OncogenicReview   *Review `json:"oncogenic_review,omitempty"`
	Effect            string  `json:"effect"`
	EffectUUID        string  `json:"effect_uuid"`
	EffectReview      *Review `json:"effect_review,omitempty"`
	Description       string  `json:"description"`
	DescriptionUUID   string  `json:"description_uuid"`
	DescriptionReview *Review `json:"description_review,omitempty"`
}

// CancerType identifies a tumor type by OncoTree code or main type.
type CancerType struct {
	Code     string `json:"code,omitempty"`
	MainType string `json:"mainType,omitempty"`
	Subtype  string `json:"subtype,omitempty"`
}

// Implication is a prognostic or diagnostic implication of a tumor.
type Implication struct {
	Level       string `json:"level"`
	Description string `json:"description"`
}

// Tumor associates a mutation with cancer types and their implications.
type Tumor struct {
	CancerTypes             []CancerType `json:"cancerTypes"`
	ExcludedCancerTypes     []CancerType `json:"excludedCancerTypes,omitempty"`
	Summary                 string       `json:"summary"`
	SummaryUUID             string       `json:"summary_uuid"`
	SummaryReview           *Review      `json:"summary_review,omitempty"`
	PrognosticSummary       string       `json:"prognosticSummary"`
	PrognosticSummaryUUID   string       `json:"prognosticSummary_uuid"`
	PrognosticSummaryReview *Review      `json:"prognosticSummary_review,omitempty"`
	DiagnosticSummary       string       `json:"diagnosticSummary"`
	DiagnosticSummaryUUID   string       `json:"diagnosticSummary_uuid"`
	DiagnosticSummaryReview *Review      `json:"diagnosticSummary_review,omitempty"`
	Prognostic              Implication  `json:"prognostic"`
	PrognosticUUID          string       `json:"prognostic_uuid"`
	Diagnostic              Implication  `json:"diagnostic"`
	DiagnosticUUID          string       `json:"diagnostic_uuid"`
	TIs                     []TI         `json:"TIs"`
}

// TI groups the treatments of one therapeutic implication context.
type TI struct {
	Name       string      `json:"name,omitempty"`
	Type       string      `json:"type,omitempty"`
	Treatments []Treatment `json:"treatments"`
}

// Treatment is a curated therapy entry. Name lists regimens separated by
// commas; drugs within a regimen are separated by plus signs.
type Treatment struct {
	Name              string  `json:"name"`
	NameUUID          string  `json:"name_uuid"`
	NameReview        *Review `json:"name_review,omitempty"`
	Level             string  `json:"level"`
	FdaLevel          string  `json:"fdaLevel"`
	Propagation       string  `json:"propagation"`
	PropagationLiquid string  `json:"propagationLiquid"`
	Indication        string  `json:"indication"`
	Description       string  `json:"description"`
	Short             string  `json:"short,omitempty"`
}

// UpdateTimeOf returns the review's update time, or 0 when the review is absent.
func UpdateTimeOf(r *Review) int64 {
	if r == nil {
		return 0
	}
	return r.UpdateTime
}
