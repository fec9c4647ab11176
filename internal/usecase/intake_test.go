package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveIntakeSection(t *testing.T) {
	site := newFakeSite()
	u, _, _ := newTestUsecase(site)
	ctx := context.Background()

	_, err := u.SaveIntakeSection(ctx, IntakeSection{
		Section:     INTAKE_SECTION_BUSINESS_PROFILE,
		Status:      INTAKE_STATUS_DRAFT,
		Data:        json.RawMessage(`{"tone":"warm"}`),
		Name:        "Studio",
		Description: "Wedding photos",
	})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(site.submitted["/api/v1/site/business-profile"], &body))
	assert.Equal(t, "draft", body["status"])
	assert.Equal(t, false, body["force_new"])
	assert.Equal(t, map[string]any{"tone": "warm"}, body["profile_data"])
	assert.Equal(t, "Studio", body["name"])

	_, err = u.SaveIntakeSection(ctx, IntakeSection{
		Section:  INTAKE_SECTION_TAXONOMY,
		Status:   INTAKE_STATUS_APPROVED,
		Data:     json.RawMessage(`["a"]`),
		ForceNew: true,
		Name:     "ignored",
	})
	require.NoError(t, err)
	var tax map[string]any
	require.NoError(t, json.Unmarshal(site.submitted["/api/v1/site/taxonomy"], &tax))
	assert.Equal(t, true, tax["force_new"])
	assert.Equal(t, []any{"a"}, tax["taxonomy_data"])
	assert.NotContains(t, tax, "name")
}

func TestSaveIntakeSection_Invalid(t *testing.T) {
	u, _, _ := newTestUsecase(newFakeSite())
	ctx := context.Background()

	tests := []IntakeSection{
		{Section: "pricing", Status: INTAKE_STATUS_DRAFT},
		{Section: INTAKE_SECTION_STRUCTURE, Status: "published"},
		{Section: INTAKE_SECTION_STRUCTURE, Status: INTAKE_STATUS_DRAFT, Data: json.RawMessage(`{`)},
	}
	for _, s := range tests {
		_, err := u.SaveIntakeSection(ctx, s)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}

	_, err := u.GetIntakeSection(ctx, "pricing")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOpaqueDocuments(t *testing.T) {
	site := newFakeSite()
	u, _, _ := newTestUsecase(site)
	ctx := context.Background()

	_, err := u.CreateGuardrail(ctx, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(site.submitted["/api/v1/guardrails"]))

	_, err = u.EvaluateGuardrails(ctx, json.RawMessage(`not json`))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = u.ListPrompts(ctx, 0)
	require.NoError(t, err)
	_, err = u.ListGuardrails(ctx, 10)
	require.NoError(t, err)
	_, err = u.GetIntakeState(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/api/v1/prompts?limit=50",
		"/api/v1/guardrails?limit=10",
		"/api/v1/site/intake/state",
	}, site.fetched)
}
