package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

func TestClassify_EvidenceTypes(t *testing.T) {
	gene := loadBRAF(t)
	lookup := testDrugLookup()

	tests := []struct {
		name     string
		path     string
		expected domain.EvidenceType
	}{
		{"gene summary", "summary", domain.GENE_SUMMARY},
		{"gene background", "background", domain.GENE_BACKGROUND},
		{"mutation effect", "mutations/0/mutation_effect/effect", domain.MUTATION_EFFECT},
		{"mutation effect description", "mutations/0/mutation_effect/description", domain.MUTATION_EFFECT},
		{"mutation effect review field", "mutations/0/mutation_effect/effect_review/updateTime", domain.MUTATION_EFFECT},
		{"unset review field", "mutations/0/mutation_effect/effect_review/lastReviewed", domain.MUTATION_EFFECT},
		{"oncogenic", "mutations/0/mutation_effect/oncogenic", domain.ONCOGENIC},
		{"tumor summary", "mutations/0/tumors/0/summary", domain.TUMOR_TYPE_SUMMARY},
		{"tumor summary review unset author", "mutations/0/tumors/0/summary_review/updatedBy", domain.TUMOR_TYPE_SUMMARY},
		{"prognostic summary", "mutations/0/tumors/0/prognosticSummary", domain.PROGNOSTIC_SUMMARY},
		{"diagnostic summary", "mutations/0/tumors/0/diagnosticSummary", domain.DIAGNOSTIC_SUMMARY},
		{"prognostic implication", "mutations/0/tumors/0/prognostic/level", domain.PROGNOSTIC_IMPLICATION},
		{"diagnostic implication", "mutations/0/tumors/0/diagnostic/level", domain.DIAGNOSTIC_IMPLICATION},
		{"standard sensitivity", "mutations/0/tumors/0/TIs/0/treatments/0/level", domain.STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY},
		{"treatment itself", "mutations/0/tumors/0/TIs/0/treatments/0", domain.STANDARD_THERAPEUTIC_IMPLICATIONS_FOR_DRUG_SENSITIVITY},
		{"investigational resistance", "mutations/0/tumors/0/TIs/0/treatments/1/description", domain.INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_RESISTANCE},
		{"investigational sensitivity", "mutations/0/tumors/0/TIs/0/treatments/3/name", domain.INVESTIGATIONAL_THERAPEUTIC_IMPLICATIONS_DRUG_SENSITIVITY},
		{"leading slash", "/summary", domain.GENE_SUMMARY},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Classify(gene, tt.path, 42, lookup, testEntrezGeneID)
			require.NoError(t, err)
			require.NotNil(t, req)
			assert.Equal(t, tt.expected, req.Type)
			assert.Equal(t, int64(42), req.UpdateTime)
			assert.Equal(t, testEntrezGeneID, req.EntrezGeneID)
			assert.Same(t, gene, req.Gene)

			_, err = Resolve(req)
			assert.NoError(t, err)
		})
	}
}

func TestClassify_Skips(t *testing.T) {
	gene := loadBRAF(t)

	tests := []struct {
		name string
		path string
	}{
		{"excluded indication", "mutations/0/tumors/0/TIs/0/treatments/0/indication"},
		{"excluded short", "mutations/0/tumors/0/TIs/0/treatments/0/short"},
		{"excluded name review", "mutations/0/tumors/0/TIs/0/treatments/0/name_review"},
		{"unmapped therapeutic level", "mutations/0/tumors/0/TIs/0/treatments/2/level"},
		{"mutation name", "mutations/0/name"},
		{"gene summary uuid", "summary_uuid"},
		{"cancer types", "mutations/0/tumors/0/cancerTypes/0/code"},
		{"TI name", "mutations/0/tumors/0/TIs/0/name"},
		{"mutations list", "mutations"},
		{"empty path", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Classify(gene, tt.path, 0, nil, testEntrezGeneID)
			require.NoError(t, err)
			assert.Nil(t, req)
		})
	}
}

func TestClassify_PathResolutionErrors(t *testing.T) {
	gene := loadBRAF(t)

	tests := []struct {
		name    string
		path    string
		segment string
	}{
		{"mutation index out of range", "mutations/99/mutation_effect/oncogenic", "99"},
		{"negative index", "mutations/-1/name", "-1"},
		{"non numeric index", "mutations/first/name", "first"},
		{"signed index", "mutations/+0/name", "+0"},
		{"signed leaf index", "mutations/0/tumors/0/cancerTypes/+0", "+0"},
		{"unknown review key", "summary_review/updatedAt", "updatedAt"},
		{"unknown gene key", "synopsis", "synopsis"},
		{"unknown mutation key", "mutations/0/mutation_effects/oncogenic", "mutation_effects"},
		{"unknown nested key", "mutations/0/mutation_effect/pathogenic", "pathogenic"},
		{"tumor index out of range", "mutations/1/tumors/0/summary", "0"},
		{"treatment index out of range", "mutations/0/tumors/0/TIs/0/treatments/4/level", "4"},
		{"descend into scalar", "summary/text", "text"},
		{"missing review", "background_review/updateTime", "updateTime"},
		{"cancer type index", "mutations/0/tumors/0/cancerTypes/3", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Classify(gene, tt.path, 0, nil, testEntrezGeneID)
			require.Error(t, err)
			assert.Nil(t, req)

			var pathErr *domain.PathResolutionError
			require.True(t, errors.As(err, &pathErr))
			assert.Equal(t, tt.segment, pathErr.Segment)
			assert.Equal(t, tt.path, pathErr.Path)
			assert.Contains(t, err.Error(), tt.segment)
		})
	}
}

func TestClassify_CollectsAncestors(t *testing.T) {
	gene := loadBRAF(t)

	req, err := Classify(gene, "mutations/0/tumors/0/TIs/0/treatments/1/level", 0, nil, testEntrezGeneID)
	require.NoError(t, err)
	require.NotNil(t, req)

	assert.Same(t, &gene.Mutations[0], req.Mutation)
	assert.Same(t, &gene.Mutations[0].Tumors[0], req.Tumor)
	assert.Same(t, &gene.Mutations[0].Tumors[0].TIs[0], req.TI)
	assert.Same(t, &gene.Mutations[0].Tumors[0].TIs[0].Treatments[1], req.Treatment)
	assert.Equal(t, 1, req.TreatmentIndex)

	req, err = Classify(gene, "summary", 0, nil, testEntrezGeneID)
	require.NoError(t, err)
	assert.Nil(t, req.Mutation)
	assert.Nil(t, req.Tumor)
	assert.Nil(t, req.Treatment)
}

func TestClassify_TherapeuticKnownEffect(t *testing.T) {
	levels := map[string]string{
		"1": "Sensitive", "2": "Sensitive", "3A": "Sensitive", "3B": "Sensitive", "4": "Sensitive",
		"R1": "Resistant", "R2": "Resistant",
		"Px1": "", "Dx3": "", "": "", "5": "",
	}

	for level, effect := range levels {
		t.Run("level_"+level, func(t *testing.T) {
			gene := loadBRAF(t)
			gene.Mutations[0].Tumors[0].TIs[0].Treatments[1].Level = level

			req, err := Classify(gene, "mutations/0/tumors/0/TIs/0/treatments/1/level", 100, testDrugLookup(), testEntrezGeneID)
			require.NoError(t, err)
			if effect == "" {
				assert.Nil(t, req)
				return
			}
			require.NotNil(t, req)

			resolved, err := Resolve(req)
			require.NoError(t, err)
			assert.Equal(t, effect, resolved.Evidence.KnownEffect)
		})
	}
}

func TestClassify_NilGene(t *testing.T) {
	req, err := Classify(nil, "summary", 0, nil, 0)
	assert.Nil(t, req)

	var validationErr *domain.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "gene", validationErr.Field)
}
