// Package scenario loads clinical case definitions from YAML files and
// serves them read-only for the lifetime of the process.
package scenario

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Scenario is a clinical case definition.  The persona prompt and listing
// fields are typed; every other top-level key (vital signs, history,
// medication, ...) is kept verbatim in Extra and handed to the model as
// context.
type Scenario struct {
	// ID is the resolved identifier: CaseID when set, otherwise the file stem.
	ID       string         `yaml:"-"`
	CaseID   string         `yaml:"case_id,omitempty"`
	Title    string         `yaml:"title,omitempty"`
	AIPrompt string         `yaml:"ai_prompt,omitempty"`
	Extra    map[string]any `yaml:",inline"`
}

// DisplayTitle returns the explicit title, or one derived from the id.
func (s *Scenario) DisplayTitle() string {
	if strings.TrimSpace(s.Title) != "" {
		return s.Title
	}
	return TitleFromID(s.ID)
}

// YAML serializes the scenario as it was authored, keys sorted, for
// embedding in prompts.
func (s *Scenario) YAML() (string, error) {
	doc := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		doc[k] = v
	}
	if s.CaseID != "" {
		doc["case_id"] = s.CaseID
	}
	if s.Title != "" {
		doc["title"] = s.Title
	}
	if s.AIPrompt != "" {
		doc["ai_prompt"] = s.AIPrompt
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", errors.Wrapf(err, "marshal scenario %s", s.ID)
	}
	return string(out), nil
}

// TitleFromID turns "blunt_trauma_case" into "Blunt Trauma Case".  Every
// run of letters is cased on its own, so "o'neil_fall" becomes
// "O'Neil Fall" and "2nd_visit" becomes "2Nd Visit".
func TitleFromID(id string) string {
	caser := cases.Title(language.Und)
	s := strings.ReplaceAll(id, "_", " ")

	var b strings.Builder
	start := -1
	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}
	return b.String()
}

// Parse decodes one scenario document.  fallbackID is used when the
// document has no case_id.
func Parse(data []byte, fallbackID string) (*Scenario, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if len(root.Content) == 0 {
		return nil, errors.New("empty scenario document")
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, errors.Errorf("scenario document must be a mapping, line %d", doc.Line)
	}

	sc := &Scenario{}
	if err := doc.Decode(sc); err != nil {
		return nil, errors.Wrap(err, "decode scenario fields")
	}
	sc.ID = strings.TrimSpace(sc.CaseID)
	if sc.ID == "" {
		sc.ID = fallbackID
	}
	return sc, nil
}
