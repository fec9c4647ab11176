package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

const (
	INTAKE_SECTION_BUSINESS_PROFILE = "business-profile"
	INTAKE_SECTION_STRUCTURE        = "structure"
	INTAKE_SECTION_TAXONOMY         = "taxonomy"

	INTAKE_STATUS_DRAFT    = "draft"
	INTAKE_STATUS_APPROVED = "approved"
)

// intakeDataKeys maps an intake section to the field carrying its payload.
var intakeDataKeys = map[string]string{
	INTAKE_SECTION_BUSINESS_PROFILE: "profile_data",
	INTAKE_SECTION_STRUCTURE:        "structure_data",
	INTAKE_SECTION_TAXONOMY:         "taxonomy_data",
}

type IntakeSection struct {
	Section     string
	Status      string
	Data        json.RawMessage
	ForceNew    bool
	Name        string
	Description string
}

func (s IntakeSection) body() (map[string]any, error) {
	key, ok := intakeDataKeys[s.Section]
	if !ok {
		return nil, fmt.Errorf("%w: unknown intake section %q", ErrInvalidInput, s.Section)
	}
	if s.Status != INTAKE_STATUS_DRAFT && s.Status != INTAKE_STATUS_APPROVED {
		return nil, fmt.Errorf("%w: unknown intake status %q", ErrInvalidInput, s.Status)
	}
	if len(s.Data) > 0 && !json.Valid(s.Data) {
		return nil, fmt.Errorf("%w: %s is not valid json", ErrInvalidInput, key)
	}

	body := map[string]any{
		"status":    s.Status,
		"force_new": s.ForceNew,
	}
	if len(s.Data) > 0 {
		body[key] = s.Data
	}
	if s.Section == INTAKE_SECTION_BUSINESS_PROFILE {
		if s.Name != "" {
			body["name"] = s.Name
		}
		if s.Description != "" {
			body["description"] = s.Description
		}
	}
	return body, nil
}

func (u Usecase) GetIntakeState(ctx context.Context) (json.RawMessage, error) {
	return u.site.FetchDocument(ctx, "/api/v1/site/intake/state", nil)
}

func (u Usecase) GetIntakeSection(ctx context.Context, section string) (json.RawMessage, error) {
	if _, ok := intakeDataKeys[section]; !ok {
		return nil, fmt.Errorf("%w: unknown intake section %q", ErrInvalidInput, section)
	}
	return u.site.FetchDocument(ctx, "/api/v1/site/"+section, nil)
}

func (u Usecase) SaveIntakeSection(ctx context.Context, s IntakeSection) (json.RawMessage, error) {
	body, err := s.body()
	if err != nil {
		return nil, err
	}
	return u.site.SubmitDocument(ctx, "/api/v1/site/"+s.Section, body)
}

func (u Usecase) CreateIntakeProposal(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	return u.submitOpaque(ctx, "/api/v1/site/intake/proposal", req)
}

func (u Usecase) ApproveIntake(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	return u.submitOpaque(ctx, "/api/v1/site/intake/approve", req)
}

func (u Usecase) ListGuardrails(ctx context.Context, limit int) (json.RawMessage, error) {
	return u.site.FetchDocument(ctx, "/api/v1/guardrails", limitQuery(limit))
}

func (u Usecase) CreateGuardrail(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	return u.submitOpaque(ctx, "/api/v1/guardrails", req)
}

func (u Usecase) EvaluateGuardrails(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	return u.submitOpaque(ctx, "/api/v1/guardrails/evaluate", req)
}

func (u Usecase) ListPrompts(ctx context.Context, limit int) (json.RawMessage, error) {
	return u.site.FetchDocument(ctx, "/api/v1/prompts", limitQuery(limit))
}

func (u Usecase) CreatePrompt(ctx context.Context, req json.RawMessage) (json.RawMessage, error) {
	return u.submitOpaque(ctx, "/api/v1/prompts", req)
}

func (u Usecase) submitOpaque(ctx context.Context, path string, req json.RawMessage) (json.RawMessage, error) {
	if len(req) == 0 {
		req = json.RawMessage("{}")
	}
	if !json.Valid(req) {
		return nil, fmt.Errorf("%w: request body is not valid json", ErrInvalidInput)
	}
	return u.site.SubmitDocument(ctx, path, req)
}

func limitQuery(limit int) url.Values {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}
