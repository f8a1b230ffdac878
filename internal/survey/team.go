package survey

import "slices"

// TeamMember is a surveyor and the jobs they did on a trip.
type TeamMember struct {
	Name string
	Jobs []string
}

// Team is the ordered list of surveyors on a trip.
type Team struct {
	Members []TeamMember
}

// AddMember appends m, or merges its jobs into an existing member with the
// same name (case-insensitive). Blank names are ignored.
func (t *Team) AddMember(m TeamMember) {
	if m.Name == "" {
		return
	}
	for i := range t.Members {
		if SameName(t.Members[i].Name, m.Name) {
			t.Members[i].Merge(m)
			return
		}
	}
	t.Members = append(t.Members, TeamMember{Name: m.Name, Jobs: slices.Clone(m.Jobs)})
}

// Merge adds jobs from other that m does not already have.
func (m *TeamMember) Merge(other TeamMember) {
	for _, job := range other.Jobs {
		if !slices.ContainsFunc(m.Jobs, func(j string) bool { return SameName(j, job) }) {
			m.Jobs = append(m.Jobs, job)
		}
	}
}

// Clone returns a deep copy.
func (t Team) Clone() Team {
	out := Team{Members: make([]TeamMember, 0, len(t.Members))}
	for _, m := range t.Members {
		out.Members = append(out.Members, TeamMember{Name: m.Name, Jobs: slices.Clone(m.Jobs)})
	}
	if len(out.Members) == 0 {
		out.Members = nil
	}
	return out
}

// Names returns member names in order.
func (t Team) Names() []string {
	names := make([]string, 0, len(t.Members))
	for _, m := range t.Members {
		names = append(names, m.Name)
	}
	return names
}
