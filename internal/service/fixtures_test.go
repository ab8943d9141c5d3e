package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

const brafGeneJSON = `{
  "name": "BRAF",
  "summary": "BRAF is a serine/threonine kinase.",
  "summary_uuid": "gene-summary-uuid",
  "summary_review": {"updateTime": 1000, "updatedBy": "curator"},
  "background": "BRAF background text.",
  "background_uuid": "gene-background-uuid",
  "mutations": [
    {
      "name": "V600E",
      "name_uuid": "m0-name-uuid",
      "alterations": [{"alteration": "V600E", "name": "V600E", "proteinChange": "V600E"}],
      "mutation_effect": {
        "oncogenic": "Likely Oncogenic",
        "oncogenic_uuid": "m0-oncogenic-uuid",
        "oncogenic_review": {"updateTime": 2000},
        "effect": "Gain-of-function",
        "effect_uuid": "m0-effect-uuid",
        "effect_review": {"updateTime": 3000},
        "description": "V600E activates the kinase.",
        "description_uuid": "m0-description-uuid",
        "description_review": {"updateTime": 4000}
      },
      "tumors": [
        {
          "cancerTypes": [{"code": "MEL", "mainType": "Melanoma", "subtype": "Melanoma"}],
          "excludedCancerTypes": [{"code": "UM", "mainType": "Melanoma", "subtype": "Uveal Melanoma"}],
          "summary": "Melanoma summary.",
          "summary_uuid": "t0-summary-uuid",
          "summary_review": {"updateTime": 1500},
          "prognosticSummary": "Prognostic summary.",
          "prognosticSummary_uuid": "t0-prognostic-summary-uuid",
          "diagnosticSummary": "Diagnostic summary.",
          "diagnosticSummary_uuid": "t0-diagnostic-summary-uuid",
          "diagnosticSummary_review": {"updateTime": 1700},
          "prognostic": {"level": "Px1", "description": "Poor prognosis."},
          "prognostic_uuid": "t0-prognostic-uuid",
          "diagnostic": {"level": "Dx2", "description": "Supports diagnosis."},
          "diagnostic_uuid": "t0-diagnostic-uuid",
          "TIs": [
            {
              "name": "Standard implications for sensitivity to therapy",
              "type": "SS",
              "treatments": [
                {
                  "name": "Dabrafenib+Trametinib, Vemurafenib",
                  "name_uuid": "tx0-name-uuid",
                  "name_review": {"updateTime": 9000},
                  "level": "1",
                  "fdaLevel": "Fda2",
                  "propagation": "3B",
                  "propagationLiquid": "no",
                  "indication": "FDA-approved for BRAF V600E melanoma",
                  "description": "Combination improves survival.",
                  "short": "D+T"
                },
                {
                  "name": "Encorafenib+Binimetinib",
                  "name_uuid": "tx1-name-uuid",
                  "level": "R2",
                  "fdaLevel": "",
                  "propagation": "",
                  "propagationLiquid": "",
                  "indication": "",
                  "description": "Resistance observed."
                },
                {
                  "name": "Vemurafenib",
                  "name_uuid": "tx2-name-uuid",
                  "level": "Px1",
                  "indication": "",
                  "description": ""
                },
                {
                  "name": "Binimetinib",
                  "name_uuid": "tx3-name-uuid",
                  "level": "4",
                  "indication": "",
                  "description": ""
                }
              ]
            }
          ]
        }
      ]
    },
    {
      "name": "V600K, V600D",
      "name_uuid": "m1-name-uuid",
      "mutation_effect": {
        "effect": "Likely Gain-of-function",
        "effect_uuid": "m1-effect-uuid",
        "effect_review": {"updateTime": 5000},
        "description": "Description without review.",
        "description_uuid": "m1-description-uuid"
      },
      "tumors": []
    },
    {
      "name": "Fusions",
      "name_uuid": "m2-name-uuid",
      "mutation_effect": {
        "effect": "Gain-of-function",
        "effect_uuid": "m2-effect-uuid",
        "effect_review": {"updateTime": 6000},
        "description": "Fusions description.",
        "description_uuid": "m2-description-uuid",
        "description_review": {"updateTime": 6000}
      },
      "tumors": []
    }
  ]
}`

func loadBRAF(t *testing.T) *domain.Gene {
	t.Helper()
	var gene domain.Gene
	require.NoError(t, json.Unmarshal([]byte(brafGeneJSON), &gene))
	return &gene
}

func testDrugLookup() domain.DrugLookup {
	return domain.NewDrugLookup([]*domain.Drug{
		{UUID: "drug-dabrafenib", DrugName: "Dabrafenib", NcitCode: "C82386"},
		{UUID: "drug-trametinib", DrugName: "Trametinib", NcitCode: "C77908"},
		{UUID: "drug-vemurafenib", DrugName: "Vemurafenib", NcitCode: "C64768", Synonyms: []string{"Zelboraf"}},
		{UUID: "drug-encorafenib", DrugName: "Encorafenib", NcitCode: "C98283"},
		{UUID: "drug-binimetinib", DrugName: "Binimetinib", NcitCode: "C84865"},
	})
}

const testEntrezGeneID = 673
