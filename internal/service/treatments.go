package service

import (
	"sort"
	"strings"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// splitRegimens splits a treatment name into regimens (comma separated) of
// trimmed drug names (plus separated). Empty tokens are dropped.
func splitRegimens(name string) [][]string {
	var regimens [][]string
	for _, alternative := range strings.Split(name, ",") {
		var drugs []string
		for _, token := range strings.Split(alternative, "+") {
			token = strings.TrimSpace(token)
			if token != "" {
				drugs = append(drugs, token)
			}
		}
		if len(drugs) > 0 {
			regimens = append(regimens, drugs)
		}
	}
	return regimens
}

// regimenKey identifies a regimen by its drug set, ignoring order.
func regimenKey(drugs []string) string {
	sorted := append([]string(nil), drugs...)
	sort.Strings(sorted)
	return strings.Join(sorted, "+")
}

// newPriorities ranks the regimens of the treatment at index current. Regimens
// of the TI's other treatments keep ranks 1..k in order of first appearance; a
// regimen of the current treatment reuses the rank of an existing regimen with
// the same drug set and is otherwise appended after every ranked regimen.
func newPriorities(ti *domain.TI, current int, regimens [][]string) []int {
	ranks := make(map[string]int)
	next := 1

	if ti != nil {
		for i, t := range ti.Treatments {
			if i == current {
				continue
			}
			for _, drugs := range splitRegimens(t.Name) {
				key := regimenKey(drugs)
				if _, seen := ranks[key]; !seen {
					ranks[key] = next
					next++
				}
			}
		}
	}

	priorities := make([]int, len(regimens))
	for i, drugs := range regimens {
		key := regimenKey(drugs)
		rank, seen := ranks[key]
		if !seen {
			rank = next
			ranks[key] = rank
			next++
		}
		priorities[i] = rank
	}
	return priorities
}

// buildTreatments resolves every drug of every regimen against lookup. Any
// unresolved token, or a name listing no drug at all, fails the whole call.
func buildTreatments(req *ClassifiedRequest) ([]domain.EvidenceTreatment, error) {
	treatment := req.Treatment
	regimens := splitRegimens(treatment.Name)
	if len(regimens) == 0 {
		return nil, domain.NewValidationError("name", "treatment name lists no drugs", treatment.Name)
	}
	priorities := newPriorities(req.TI, req.TreatmentIndex, regimens)

	var approved []string
	if strings.TrimSpace(treatment.Indication) != "" {
		approved = []string{treatment.Indication}
	} else {
		approved = []string{}
	}

	result := make([]domain.EvidenceTreatment, 0, len(regimens))
	for i, names := range regimens {
		drugs := make([]domain.EvidenceDrug, 0, len(names))
		for pos, name := range names {
			drug, ok := req.DrugLookup.Find(name)
			if !ok {
				return nil, &domain.UnresolvedDrugError{DrugName: name}
			}
			drugs = append(drugs, domain.EvidenceDrug{
				UUID:     drug.UUID,
				DrugName: drug.DrugName,
				NcitCode: drug.NcitCode,
				Priority: pos + 1,
			})
		}
		result = append(result, domain.EvidenceTreatment{
			Drugs:               drugs,
			Priority:            priorities[i],
			ApprovedIndications: approved,
		})
	}
	return result, nil
}
