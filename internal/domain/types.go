// Package domain contains the core curation entities: the per-gene curation
// tree edited by curators, the normalized Evidence record submitted to the
// knowledge base, and the fixed vocabularies (evidence types, levels of
// evidence) that connect the two.
package domain

import (
	"errors"
)

// EvidenceType classifies what kind of knowledge an Evidence record carries.
type EvidenceType string

const (
	GENE_SUMMARY                                              EvidenceType = "GENE_SUMMARY"
	GENE_BACKGROUND                                           EvidenceType = "GENE_BACKGROUND"
	MUTATION_EFFECT                                           EvidenceType = "MUTATION_EFFECT"
	ONCOGENIC                                                 EvidenceType = "ONCOGENIC"
	TUMOR_TYPE_SUMMARY                                        EvidenceType = "TUMOR_TYPE_SUMMARY"
	PROGNOSTIC_SUMMARY                                        EvidenceType = "PROGNOSTIC_SUMMARY"
	DIAGNOSTIC_SUMMARY                                        EvidenceType = "DIAGNOSTIC_SUMMARY"
	PROGNOSTIC_IMPLICATION                                    EvidenceType = "PROGNOSTIC_IMPLICATION"
	DIAGNOSTIC_IMPLICATION                                    EvidenceType = "DIAGNOSTIC_IMPLICATION"
	STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY    EvidenceType = "STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY"
	STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE     EvidenceType = "STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE"
	INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY EvidenceType = "INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY"
	INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE  EvidenceType = "INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE"
)

// Known effects assigned to therapeutic implications.
const (
	KnownEffectSensitive = "Sensitive"
	KnownEffectResistant = "Resistant"
)

// AllEvidenceTypes lists every evidence type the resolver can emit.
var AllEvidenceTypes = []EvidenceType{
	GENE_SUMMARY,
	GENE_BACKGROUND,
	MUTATION_EFFECT,
	ONCOGENIC,
	TUMOR_TYPE_SUMMARY,
	PROGNOSTIC_SUMMARY,
	DIAGNOSTIC_SUMMARY,
	PROGNOSTIC_IMPLICATION,
	DIAGNOSTIC_IMPLICATION,
	STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY,
	STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE,
	INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY,
	INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE,
}

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidEvidenceType = errors.New("invalid evidence type")
)

// IsValid reports whether t is one of the known evidence types.
func (t EvidenceType) IsValid() bool {
	for _, known := range AllEvidenceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the string representation of the evidence type.
func (t EvidenceType) String() string {
	return string(t)
}

// IsTherapeutic reports whether t is one of the four therapeutic implication types.
func (t EvidenceType) IsTherapeutic() bool {
	switch t {
	case STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY,
		STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE,
		INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY,
		INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE:
		return true
	default:
		return false
	}
}

// TherapeuticKnownEffect returns the fixed known effect label of a therapeutic
// implication type, or "" for any other type.
func (t EvidenceType) TherapeuticKnownEffect() string {
	switch t {
	case STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY,
		INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY:
		return KnownEffectSensitive
	case STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE,
		INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE:
		return KnownEffectResistant
	default:
		return ""
	}
}

// TherapeuticTypeForLevel maps a treatment's raw level code to the therapeutic
// evidence type it belongs to. The second result is false for levels that do
// not classify (the edit is skipped).
func TherapeuticTypeForLevel(level string) (EvidenceType, bool) {
	switch level {
	case "1", "2":
		return STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY, true
	case "3A", "3B", "4":
		return INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY, true
	case "R1":
		return STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_RESISTANCE, true
	case "R2":
		return INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE, true
	default:
		return "", false
	}
}

// LevelOfEvidence is the knowledge base's normalized level code.
type LevelOfEvidence string

const (
	LEVEL_1    LevelOfEvidence = "LEVEL_1"
	LEVEL_2    LevelOfEvidence = "LEVEL_2"
	LEVEL_3A   LevelOfEvidence = "LEVEL_3A"
	LEVEL_3B   LevelOfEvidence = "LEVEL_3B"
	LEVEL_4    LevelOfEvidence = "LEVEL_4"
	LEVEL_R1   LevelOfEvidence = "LEVEL_R1"
	LEVEL_R2   LevelOfEvidence = "LEVEL_R2"
	LEVEL_Px1  LevelOfEvidence = "LEVEL_Px1"
	LEVEL_Px2  LevelOfEvidence = "LEVEL_Px2"
	LEVEL_Px3  LevelOfEvidence = "LEVEL_Px3"
	LEVEL_Dx1  LevelOfEvidence = "LEVEL_Dx1"
	LEVEL_Dx2  LevelOfEvidence = "LEVEL_Dx2"
	LEVEL_Dx3  LevelOfEvidence = "LEVEL_Dx3"
	LEVEL_Fda1 LevelOfEvidence = "LEVEL_Fda1"
	LEVEL_Fda2 LevelOfEvidence = "LEVEL_Fda2"
	LEVEL_Fda3 LevelOfEvidence = "LEVEL_Fda3"
	LEVEL_NO   LevelOfEvidence = "NO"
)

// String returns the string representation of the level.
func (l LevelOfEvidence) String() string {
	return string(l)
}

// Curated level codes as stored in the curation tree, mapped to the
// knowledge base levels. These tables are read-only.
var (
	levelOfEvidenceMapping = map[string]LevelOfEvidence{
		"1":   LEVEL_1,
		"2":   LEVEL_2,
		"3A":  LEVEL_3A,
		"3B":  LEVEL_3B,
		"4":   LEVEL_4,
		"R1":  LEVEL_R1,
		"R2":  LEVEL_R2,
		"Px1": LEVEL_Px1,
		"Px2": LEVEL_Px2,
		"Px3": LEVEL_Px3,
		"Dx1": LEVEL_Dx1,
		"Dx2": LEVEL_Dx2,
		"Dx3": LEVEL_Dx3,
	}

	fdaLevelMapping = map[string]LevelOfEvidence{
		"Fda1": LEVEL_Fda1,
		"Fda2": LEVEL_Fda2,
		"Fda3": LEVEL_Fda3,
	}

	propagationLevelMapping = map[string]LevelOfEvidence{
		"1":  LEVEL_1,
		"2":  LEVEL_2,
		"3A": LEVEL_3A,
		"3B": LEVEL_3B,
		"4":  LEVEL_4,
		"R1": LEVEL_R1,
		"R2": LEVEL_R2,
		"no": LEVEL_NO,
	}
)

func lookupLevel(table map[string]LevelOfEvidence, code string) *LevelOfEvidence {
	level, ok := table[code]
	if !ok {
		return nil
	}
	return &level
}

// MapLevelOfEvidence maps a curated level code. Unmapped codes return nil.
func MapLevelOfEvidence(code string) *LevelOfEvidence {
	return lookupLevel(levelOfEvidenceMapping, code)
}

// MapFdaLevel maps a curated FDA level code. Unmapped codes return nil.
func MapFdaLevel(code string) *LevelOfEvidence {
	return lookupLevel(fdaLevelMapping, code)
}

// MapPropagationLevel maps a curated solid or liquid propagation code.
// Unmapped codes return nil.
func MapPropagationLevel(code string) *LevelOfEvidence {
	return lookupLevel(propagationLevelMapping, code)
}
