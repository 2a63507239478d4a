package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/hrops/registry/internal/core/rules"
)

// GeminiConfig holds the Gemini provider settings.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini asks the Gemini API for a classification decision. Every call is
// bounded by the configured timeout; transport and parse failures surface as
// ErrUnavailable so the retrying wrapper can re-attempt them.
type Gemini struct {
	client     *genai.Client
	model      string
	timeout    time.Duration
	thresholds rules.Thresholds
}

// NewGemini creates a Gemini-backed classifier.
func NewGemini(ctx context.Context, cfg GeminiConfig, thresholds rules.Thresholds) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Gemini{
		client:     client,
		model:      model,
		timeout:    timeout,
		thresholds: thresholds,
	}, nil
}

func (g *Gemini) Classify(ctx context.Context, rec Context) (*Decision, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt, err := g.buildPrompt(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(callCtx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	decision, err := parseDecision(resp.Text())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decision, nil
}

func (g *Gemini) buildPrompt(rec Context) (string, error) {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}

	dsg := g.thresholds.Designation
	band := g.thresholds.SalaryBand

	var b strings.Builder
	b.WriteString("You are an HR classification agent.\n\n")
	b.WriteString("CRITICAL RULES:\n")
	b.WriteString("- You MUST provide values for ALL three fields: department, designation and salary_band\n")
	b.WriteString("- Use only allowed values. Do not use empty strings or leave fields blank.\n")
	b.WriteString("- Do not invent values outside the allowed lists.\n\n")
	fmt.Fprintf(&b, "Designation rules (based on experience_years):\n")
	fmt.Fprintf(&b, "- Less than %g years: Intern\n", dsg.InternMaxYears)
	fmt.Fprintf(&b, "- %g-%g years: Junior\n", dsg.InternMaxYears, dsg.JuniorMaxYears)
	fmt.Fprintf(&b, "- %g-%g years: Senior\n", dsg.JuniorMaxYears+1, dsg.SeniorMaxYears)
	fmt.Fprintf(&b, "- %g+ years: Lead\n\n", dsg.LeadMinYears)
	b.WriteString("Department selection:\n")
	b.WriteString("- Look at the employee's role, the existing department if present, or infer from context\n")
	b.WriteString("- If unclear, choose the most appropriate from: Web, AI, HR, Finance, Operations\n\n")
	b.WriteString("Salary band selection:\n")
	fmt.Fprintf(&b, "- L1: entry level (Intern, Junior with <%g years)\n", band.L1MaxYears)
	fmt.Fprintf(&b, "- L2: mid level (Junior with %g-%g years, Senior)\n", band.L1MaxYears, band.L2MaxYears)
	fmt.Fprintf(&b, "- L3: senior level (Lead, Senior with %g+ years)\n\n", band.L3MinYears)
	b.WriteString("Allowed values:\n")
	b.WriteString("- department: Web, AI, HR, Finance, Operations\n")
	b.WriteString("- designation: Intern, Junior, Senior, Lead\n")
	b.WriteString("- salary_band: L1, L2, L3\n\n")

	if rec.BaselineDesignation != "" {
		fmt.Fprintf(&b,
			"Your previous answer deviated strongly from the experience-based rules. The rule-derived baseline for this employee is designation %s with salary band %s. Reconsider, and only deviate from the baseline when the role clearly justifies it.\n\n",
			rec.BaselineDesignation, rec.BaselineSalaryBand)
	}

	fmt.Fprintf(&b, "Employee data:\n%s\n\n", payload)
	b.WriteString("Return STRICT JSON (all fields must have valid values, no empty strings):\n")
	b.WriteString(`{"department": "Web", "designation": "Junior", "salary_band": "L1", "reason": "explanation of your decisions", "confidence": 0.95}`)
	return b.String(), nil
}

// parseDecision unmarshals the model output, tolerating markdown code fences.
func parseDecision(text string) (*Decision, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var d Decision
	if err := json.Unmarshal([]byte(cleaned), &d); err != nil {
		return nil, fmt.Errorf("unparsable decision %q: %w", cleaned, err)
	}
	return &d, nil
}
