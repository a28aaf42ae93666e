package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"credit-advisor/domain"
)

type promptField struct {
	key    string
	label  string
	format func(any) string
}

var promptFields = []promptField{
	{domain.FieldNetMonthlyIncome, "Monthly Income", prefixed("₹")},
	{domain.FieldAge, "Age", plain},
	{domain.FieldTimeWithEmployer, "Time with Current Employer", suffixed(" months")},
	{domain.FieldCCUtilization, "Credit Card Utilization", suffixed("%")},
	{domain.FieldPLUtilization, "Personal Loan Utilization", suffixed("%")},
	{domain.FieldEnquiriesLast6m, "Recent Credit Inquiries (6 months)", plain},
	{domain.FieldTotalEnquiries, "Total Credit Inquiries (12 months)", plain},
	{domain.FieldDelinquencies12m, "Delinquencies (last 12 months)", plain},
	{domain.FieldMaxDelinquencyLevel, "Max Delinquency Level", plain},
	{domain.FieldStandardLoans, "Number of Standard Loans", plain},
	{domain.FieldCCFlag, "Credit Card Active", yesNo},
	{domain.FieldPLFlag, "Personal Loan Active", yesNo},
	{domain.FieldMaritalStatus, "Marital Status", plain},
	{domain.FieldEducation, "Education", plain},
	{domain.FieldGender, "Gender", plain},
	{domain.FieldCreditScore, "Credit Score", plain},
}

var knownPromptFields = func() map[string]bool {
	m := make(map[string]bool, len(promptFields))
	for _, f := range promptFields {
		m[f.key] = true
	}
	return m
}()

// BuildPrompt renders the generation prompt for a label and profile. The output
// only depends on its inputs.
func BuildPrompt(label domain.RiskClass, profile domain.Profile) string {
	var b strings.Builder

	b.WriteString("Based on the following financial profile and predicted credit class, ")
	b.WriteString("provide actionable recommendations to improve the user's credit score and financial health.\n\n")

	fmt.Fprintf(&b, "Predicted Credit Class: %s", label)
	if desc := label.Description(); desc != "" {
		fmt.Fprintf(&b, " (%s)", desc)
	}
	b.WriteString("\n\nUser Inputs:\n")

	for _, f := range promptFields {
		v, ok := profile[f.key]
		text := missingFieldText
		if ok && v != nil {
			text = f.format(v)
		}
		fmt.Fprintf(&b, "- %s: %s\n", f.label, text)
	}

	extra := make([]string, 0, len(profile))
	for k := range profile {
		if !knownPromptFields[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		fmt.Fprintf(&b, "- %s: %s\n", k, formatValue(profile[k]))
	}

	b.WriteString(`
Provide recommendations to:
1. Improve the user's credit score.
2. Enhance the user's financial health.

Structure the answer as follows:
- Start each section with a heading line wrapped in double asterisks, for example **Reduce Credit Utilization**.
- Use numbered lines ("1. ...") for ordered steps and lines starting with "- " for other points.
- Leave a blank line between sections.

Avoid jargon and make every recommendation actionable and easy to understand.
Be specific and give examples that use the numbers above where possible.
Tailor the advice to this profile and credit class, and avoid generic advice.
`)
	return b.String()
}

func plain(v any) string { return formatValue(v) }

func prefixed(p string) func(any) string {
	return func(v any) string { return p + formatValue(v) }
}

func suffixed(s string) func(any) string {
	return func(v any) string { return formatValue(v) + s }
}

func yesNo(v any) string {
	if flagSet(v) {
		return "Yes"
	}
	return "No"
}

func flagSet(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t) == "1"
	case json.Number:
		return t.String() == "1"
	case float64:
		return t == 1
	case int:
		return t == 1
	case bool:
		return t
	}
	return false
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return missingFieldText
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case float64, int, int64, bool:
		return fmt.Sprint(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
