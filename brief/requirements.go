package brief

import "strings"

// Requirement categories, shared by the bundle and the completion flags
const (
	CategoryMissions    = "missions"
	CategoryHardSkills  = "hardSkills"
	CategorySoftSkills  = "softSkills"
	CategoryContext     = "context"
	CategoryLocation    = "location"
	CategoryConstraints = "constraints"
)

// Categories lists the summary sections in display order
var Categories = []string{
	CategoryMissions,
	CategoryHardSkills,
	CategorySoftSkills,
	CategoryContext,
	CategoryLocation,
	CategoryConstraints,
}

var categoryLabels = map[string]string{
	CategoryMissions:    "Missions principales",
	CategoryHardSkills:  "Hard skills requis",
	CategorySoftSkills:  "Soft skills attendus",
	CategoryContext:     "Contexte projet",
	CategoryLocation:    "Localisation",
	CategoryConstraints: "Contraintes",
}

// CategoryLabel returns the display label of a category
func CategoryLabel(category string) string {
	if label, ok := categoryLabels[category]; ok {
		return label
	}
	return category
}

// Requirements is the draft job profile gathered during a conversation.
// It is a convenience pre-fill and is never validated against the messages.
type Requirements struct {
	Missions    []string `json:"missions"`
	HardSkills  []string `json:"hardSkills"`
	SoftSkills  []string `json:"softSkills"`
	Context     string   `json:"context"`
	Location    string   `json:"location"`
	Constraints []string `json:"constraints"`
}

// Items returns the content of a category as a list
func (r Requirements) Items(category string) []string {
	switch category {
	case CategoryMissions:
		return append([]string(nil), r.Missions...)
	case CategoryHardSkills:
		return append([]string(nil), r.HardSkills...)
	case CategorySoftSkills:
		return append([]string(nil), r.SoftSkills...)
	case CategoryConstraints:
		return append([]string(nil), r.Constraints...)
	case CategoryContext:
		return single(r.Context)
	case CategoryLocation:
		return single(r.Location)
	}
	return nil
}

// SetItems replaces the content of a category. Blank items are dropped and
// single-value categories join the remaining items with a space.
func (r *Requirements) SetItems(category string, items []string) {
	kept := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			kept = append(kept, item)
		}
	}

	switch category {
	case CategoryMissions:
		r.Missions = kept
	case CategoryHardSkills:
		r.HardSkills = kept
	case CategorySoftSkills:
		r.SoftSkills = kept
	case CategoryConstraints:
		r.Constraints = kept
	case CategoryContext:
		r.Context = strings.Join(kept, " ")
	case CategoryLocation:
		r.Location = strings.Join(kept, " ")
	}
}

// Clone returns a deep copy
func (r Requirements) Clone() Requirements {
	return Requirements{
		Missions:    cloneList(r.Missions),
		HardSkills:  cloneList(r.HardSkills),
		SoftSkills:  cloneList(r.SoftSkills),
		Context:     r.Context,
		Location:    r.Location,
		Constraints: cloneList(r.Constraints),
	}
}

func single(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

// cloneList never returns nil so encoded bundles always carry lists
func cloneList(in []string) []string {
	return append([]string{}, in...)
}
