package domain

import (
	"strings"
	"time"
)

// EvidenceGene references the gene an evidence belongs to.
type EvidenceGene struct {
	HugoSymbol   string `json:"hugoSymbol"`
	EntrezGeneID int    `json:"entrezGeneId"`
}

// Article is a literature reference attached to an evidence.
type Article struct {
	Pmid     string `json:"pmid,omitempty"`
	Abstract string `json:"abstract,omitempty"`
	Link     string `json:"link,omitempty"`
}

// EvidenceDrug is a resolved drug inside one regimen. Priority is its
// 1-based position within the regimen.
type EvidenceDrug struct {
	UUID     string `json:"uuid,omitempty"`
	DrugName string `json:"drugName"`
	NcitCode string `json:"ncitCode,omitempty"`
	Priority int    `json:"priority"`
}

// EvidenceTreatment is one regimen alternative of a therapeutic evidence.
type EvidenceTreatment struct {
	Drugs               []EvidenceDrug `json:"drugs"`
	Priority            int            `json:"priority"`
	ApprovedIndications []string       `json:"approvedIndications"`
}

// Evidence is the normalized record submitted to the knowledge base.
type Evidence struct {
	EvidenceType           EvidenceType        `json:"evidenceType"`
	Gene                   EvidenceGene        `json:"gene"`
	Alterations            []Alteration        `json:"alterations"`
	CancerTypes            []CancerType        `json:"cancerTypes"`
	ExcludedCancerTypes    []CancerType        `json:"excludedCancerTypes"`
	Articles               []Article           `json:"articles"`
	Treatments             []EvidenceTreatment `json:"treatments"`
	Description            string              `json:"description"`
	KnownEffect            string              `json:"knownEffect"`
	LevelOfEvidence        *LevelOfEvidence    `json:"levelOfEvidence"`
	FdaLevel               *LevelOfEvidence    `json:"fdaLevel"`
	SolidPropagationLevel  *LevelOfEvidence    `json:"solidPropagationLevel"`
	LiquidPropagationLevel *LevelOfEvidence    `json:"liquidPropagationLevel"`
	LastEdit               string              `json:"lastEdit"`
}

// NewEvidence returns the common skeleton every handler starts from: the gene
// reference plus empty (non-nil) lists, so they serialize as [] not null.
func NewEvidence(evidenceType EvidenceType, hugoSymbol string, entrezGeneID int) *Evidence {
	return &Evidence{
		EvidenceType:        evidenceType,
		Gene:                EvidenceGene{HugoSymbol: hugoSymbol, EntrezGeneID: entrezGeneID},
		Alterations:         []Alteration{},
		CancerTypes:         []CancerType{},
		ExcludedCancerTypes: []CancerType{},
		Articles:            []Article{},
		Treatments:          []EvidenceTreatment{},
	}
}

// Drug is a registry entry used to resolve treatment names.
type Drug struct {
	UUID      string    `json:"uuid"`
	DrugName  string    `json:"drugName"`
	NcitCode  string    `json:"ncitCode,omitempty"`
	Synonyms  []string  `json:"synonyms,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DrugLookup maps a drug display name (trimmed, case-sensitive) to its record.
type DrugLookup map[string]Drug

// Find returns the drug registered under the trimmed name.
func (l DrugLookup) Find(name string) (Drug, bool) {
	drug, ok := l[strings.TrimSpace(name)]
	return drug, ok
}

// NewDrugLookup indexes drugs by display name and by every synonym. A display
// name always wins over another drug's synonym.
func NewDrugLookup(drugs []*Drug) DrugLookup {
	lookup := make(DrugLookup, len(drugs))
	for _, d := range drugs {
		for _, syn := range d.Synonyms {
			syn = strings.TrimSpace(syn)
			if syn == "" {
				continue
			}
			if _, exists := lookup[syn]; !exists {
				lookup[syn] = *d
			}
		}
	}
	for _, d := range drugs {
		lookup[strings.TrimSpace(d.DrugName)] = *d
	}
	return lookup
}
