package providers

import "sort"

// Sentinel labels used when no routing rule matches a call.
const (
	UnknownProvider = "Unknown Provider"
	UnknownNiche    = "Unknown Niche"
)

// Labels used when a call was escalated to 911 based on its transcript.
const (
	EscalatedProvider = "Escalated to Emergency"
	EmergencyNiche    = "Emergency"
)

// Entry is the routing label pair for a transfer destination.
type Entry struct {
	ProviderName string `json:"provider_name"`
	Niche        string `json:"niche"`
}

// routingTable maps transfer phone numbers to provider labels. Loaded once at
// process start; read-only afterwards.
var routingTable = map[string]Entry{
	"+19889882222": {"988 Suicide & Crisis Lifeline", "Mental Health / Suicide / Emotional Distress"},
	"+18556627474": {"988 Suicide & Crisis Lifeline", "Mental Health / Suicide / Emotional Distress"},
	"+15052773013": {"NM Crisis and Access Line (NMCAL)", "Mental Health / Suicide / Emotional Distress"},
	"+15052560288": {"AGORA Crisis Center (UNM)", "Mental Health / Suicide / Emotional Distress"},
	"+15052722800": {"NM Crisis and Access Line (NMCAL)", "Mental Health / Suicide / Emotional Distress"},
	"+15058418978": {"Bernalillo County CARE Campus Detox (MATS)", "Substance Use / Alcohol / Addiction"},
	"+15054681555": {"Turquoise Lodge Hospital", "Substance Use / Alcohol / Addiction"},
	"+15052661900": {"Alcoholics Anonymous (AA) – Albuquerque Central", "Substance Use / Alcohol / Addiction"},
	"+15059078311": {"Alcoholics Anonymous (AA) – Albuquerque Central", "Substance Use / Alcohol / Addiction"},
	"+15052474219": {"S.A.F.E. House (DV Hotline & Shelter)", "Domestic Violence / Abuse / Unsafe Relationship"},
	"+18007733645": {"National Domestic Violence Hotline", "Domestic Violence / Abuse / Unsafe Relationship"},
	"+15052483165": {"Domestic Violence Resource Center (DVRC)", "Domestic Violence / Abuse / Unsafe Relationship"},
	"+18007997233": {"National Domestic Violence Hotline", "Domestic Violence / Abuse / Unsafe Relationship"},
	"+15058439123": {"S.A.F.E. House (DV Hotline & Shelter)", "Domestic Violence / Abuse / Unsafe Relationship"},
	"+15052468972": {"Domestic Violence Resource Center (DVRC)", "Domestic Violence / Abuse / Unsafe Relationship"},
	"+15052609912": {"New Day Youth Shelter", "Youth Crisis / Runaway / Family Issues"},
	"+18553337233": {"New Day Youth Shelter", "Youth Crisis / Runaway / Family Issues"},
	"+15055919444": {"New Day Youth Shelter", "Youth Crisis / Runaway / Family Issues"},
	"+18664887386": {"Transgender Resource Center of NM (TGRCNM)", "LGBTQ+ Identity / Distress"},
	"+15052009086": {"Transgender Resource Center of NM (TGRCNM)", "LGBTQ+ Identity / Distress"},
	"+18666543219": {"Aging & Disability Resource Center (ADRC)", "Elder Concern / Isolation / Neglect"},
	"+15058086325": {"Aging & Disability Resource Center (ADRC)", "Elder Concern / Isolation / Neglect"},
	"+15053495340": {"Roadrunner Food Bank", "Food / Housing / Money / Basic Needs"},
	"+15058426491": {"Storehouse New Mexico", "Food / Housing / Money / Basic Needs"},
	"+15057244604": {"The Rock at Noonday", "Food / Housing / Money / Basic Needs"},
	"+15053498861": {"Storehouse New Mexico", "Food / Housing / Money / Basic Needs"},
	"+18335454357": {"Gambling Addiction Help", "Gambling / Financial Ruin"},
}

// categoryKeywords expands the coarse dashboard category keys into the keyword
// groups matched against provider names and niches.
var categoryKeywords = map[string][]string{
	"mental":    {"mental", "psychiatric", "crisis", "suicide"},
	"domestic":  {"domestic", "violence", "abuse", "safe"},
	"substance": {"substance", "alcohol", "addiction", "detox"},
	"homeless":  {"homeless", "housing", "shelter", "rescue", "mission", "food", "money", "basic needs"},
	"youth":     {"youth", "teen", "child", "adolescent", "runaway"},
	"lgbtq":     {"lgbtq", "identity", "transgender"},
	"elder":     {"elder", "senior", "aging", "disability"},
	"gambling":  {"gambling", "financial"},
	"emergency": {"emergency", "escalated", "911"},
}

// Lookup returns the routing entry for a transfer phone number.
func Lookup(phoneNumber string) (Entry, bool) {
	entry, ok := routingTable[phoneNumber]
	return entry, ok
}

// CategoryKeywords returns the keyword group for a coarse category key. An
// unrecognized key is treated as a literal single-keyword group, matching the
// dashboard's behavior of passing the raw value through.
func CategoryKeywords(key string) []string {
	if terms, ok := categoryKeywords[key]; ok {
		return terms
	}
	return []string{key}
}

// Provider is a directory listing entry: one named organization and the
// numbers calls are transferred to.
type Provider struct {
	Name         string   `json:"name"`
	Niche        string   `json:"niche"`
	PhoneNumbers []string `json:"phone_numbers"`
}

// Group is a set of providers sharing a niche.
type Group struct {
	Niche     string     `json:"niche"`
	Providers []Provider `json:"providers"`
}

// Directory returns the full provider directory grouped by niche, sorted by
// niche and provider name for stable output.
func Directory() []Group {
	byProvider := make(map[Entry][]string)
	for number, entry := range routingTable {
		byProvider[entry] = append(byProvider[entry], number)
	}

	byNiche := make(map[string][]Provider)
	for entry, numbers := range byProvider {
		sort.Strings(numbers)
		byNiche[entry.Niche] = append(byNiche[entry.Niche], Provider{
			Name:         entry.ProviderName,
			Niche:        entry.Niche,
			PhoneNumbers: numbers,
		})
	}

	groups := make([]Group, 0, len(byNiche))
	for niche, provs := range byNiche {
		sort.Slice(provs, func(i, j int) bool { return provs[i].Name < provs[j].Name })
		groups = append(groups, Group{Niche: niche, Providers: provs})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Niche < groups[j].Niche })

	return groups
}
