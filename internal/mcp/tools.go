package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/oncokb/oncokb-transcript-sub003/internal/domain"
)

// ResolveEvidenceInput is the argument of resolve_evidence
type ResolveEvidenceInput struct {
	Gene         map[string]any `json:"gene" jsonschema:"the gene curation tree as stored by the curation platform"`
	Path         string         `json:"path" jsonschema:"slash separated path of the edited field, e.g. mutations/0/tumors/1/summary"`
	UpdateTime   int64          `json:"updateTime,omitempty" jsonschema:"edit time in epoch millis, used when the field has no review time"`
	EntrezGeneID int            `json:"entrezGeneId,omitempty" jsonschema:"Entrez id of the gene"`
	Submit       bool           `json:"submit,omitempty" jsonschema:"forward the evidence to the ingestion API"`
}

// ResolveEvidenceOutput is the structured result of resolve_evidence
type ResolveEvidenceOutput struct {
	Path         string           `json:"path"`
	Skipped      bool             `json:"skipped"`
	EvidenceType string           `json:"evidenceType,omitempty"`
	DataUUID     string           `json:"dataUuid,omitempty"`
	Evidence     *domain.Evidence `json:"evidence,omitempty"`
	SubmissionID string           `json:"submissionId,omitempty"`
	Status       string           `json:"status,omitempty"`
}

// LookupDrugInput is the argument of lookup_drug
type LookupDrugInput struct {
	Name string `json:"name" jsonschema:"drug name or synonym"`
}

// DrugInfo describes one registry drug
type DrugInfo struct {
	UUID     string   `json:"uuid"`
	DrugName string   `json:"drugName"`
	NcitCode string   `json:"ncitCode,omitempty"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// LookupDrugOutput is the structured result of lookup_drug
type LookupDrugOutput struct {
	Found bool      `json:"found"`
	Drug  *DrugInfo `json:"drug,omitempty"`
}

// SubmissionHistoryInput is the argument of submission_history
type SubmissionHistoryInput struct {
	DataUUID string `json:"dataUuid" jsonschema:"uuid of the curated field"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of entries, default 20"`
}

// SubmissionInfo summarizes one recorded submission
type SubmissionInfo struct {
	ID           string `json:"id"`
	EvidenceType string `json:"evidenceType"`
	Status       string `json:"status"`
	Fingerprint  string `json:"fingerprint"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"createdAt"`
}

// SubmissionHistoryOutput is the structured result of submission_history
type SubmissionHistoryOutput struct {
	DataUUID    string           `json:"dataUuid"`
	Count       int              `json:"count"`
	Submissions []SubmissionInfo `json:"submissions"`
}

type coder interface {
	Code() string
}

// toolError reports err to the client as a failed tool call
func toolError(err error) *mcp.CallToolResult {
	text := err.Error()
	var c coder
	if errors.As(err, &c) {
		text = c.Code() + ": " + text
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func (s *Server) handleResolveEvidence(ctx context.Context, req *mcp.CallToolRequest, in ResolveEvidenceInput) (*mcp.CallToolResult, ResolveEvidenceOutput, error) {
	log := s.logger.WithFields(logrus.Fields{"tool": "resolve_evidence", "path": in.Path, "submit": in.Submit})
	log.Debug("Tool invoked")

	resolveReq, err := toResolveRequest(in)
	if err != nil {
		return toolError(err), ResolveEvidenceOutput{}, nil
	}

	if !in.Submit {
		result, err := s.service.Resolve(ctx, resolveReq)
		if err != nil {
			log.WithError(err).Info("Resolve failed")
			return toolError(err), ResolveEvidenceOutput{}, nil
		}
		return nil, resolveOutput(result), nil
	}

	result, err := s.service.Submit(ctx, resolveReq)
	if err != nil {
		log.WithError(err).Warn("Submit failed")
		return toolError(err), ResolveEvidenceOutput{}, nil
	}
	out := resolveOutput(&result.ResolveResult)
	out.SubmissionID = result.SubmissionID
	out.Status = string(result.Status)
	return nil, out, nil
}

func toResolveRequest(in ResolveEvidenceInput) (*domain.ResolveRequest, error) {
	if in.Gene == nil {
		return nil, domain.NewValidationError("gene", "gene tree is required", nil)
	}
	raw, err := json.Marshal(in.Gene)
	if err != nil {
		return nil, domain.NewValidationError("gene", "gene tree is not valid JSON", err.Error())
	}
	var gene domain.Gene
	if err := json.Unmarshal(raw, &gene); err != nil {
		return nil, domain.NewValidationError("gene", "gene tree does not match the curation model", err.Error())
	}
	return &domain.ResolveRequest{
		Gene:         gene,
		Path:         in.Path,
		UpdateTime:   in.UpdateTime,
		EntrezGeneID: in.EntrezGeneID,
	}, nil
}

func resolveOutput(result *domain.ResolveResult) ResolveEvidenceOutput {
	return ResolveEvidenceOutput{
		Path:         result.Path,
		Skipped:      result.Skipped,
		EvidenceType: string(result.EvidenceType),
		DataUUID:     result.DataUUID,
		Evidence:     result.Evidence,
	}
}

func (s *Server) handleLookupDrug(ctx context.Context, req *mcp.CallToolRequest, in LookupDrugInput) (*mcp.CallToolResult, LookupDrugOutput, error) {
	if strings.TrimSpace(in.Name) == "" {
		return toolError(domain.NewValidationError("name", "must not be empty", in.Name)), LookupDrugOutput{}, nil
	}
	if s.drugs == nil {
		return nil, LookupDrugOutput{}, nil
	}

	lookup, err := s.drugs.Lookup(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to load drug lookup")
		return toolError(err), LookupDrugOutput{}, nil
	}
	drug, ok := lookup.Find(in.Name)
	if !ok {
		return nil, LookupDrugOutput{}, nil
	}
	return nil, LookupDrugOutput{
		Found: true,
		Drug: &DrugInfo{
			UUID:     drug.UUID,
			DrugName: drug.DrugName,
			NcitCode: drug.NcitCode,
			Synonyms: drug.Synonyms,
		},
	}, nil
}

func (s *Server) handleSubmissionHistory(ctx context.Context, req *mcp.CallToolRequest, in SubmissionHistoryInput) (*mcp.CallToolResult, SubmissionHistoryOutput, error) {
	if strings.TrimSpace(in.DataUUID) == "" {
		return toolError(domain.NewValidationError("dataUuid", "must not be empty", in.DataUUID)), SubmissionHistoryOutput{}, nil
	}

	history, err := s.service.History(ctx, in.DataUUID, in.Limit)
	if err != nil {
		return toolError(err), SubmissionHistoryOutput{}, nil
	}

	out := SubmissionHistoryOutput{
		DataUUID:    in.DataUUID,
		Count:       len(history),
		Submissions: make([]SubmissionInfo, 0, len(history)),
	}
	for _, sub := range history {
		out.Submissions = append(out.Submissions, SubmissionInfo{
			ID:           sub.ID,
			EvidenceType: string(sub.EvidenceType),
			Status:       string(sub.Status),
			Fingerprint:  sub.Fingerprint,
			Error:        sub.Error,
			CreatedAt:    sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return nil, out, nil
}
