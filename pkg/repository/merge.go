package repository

// Origin tells which merge phase accepted a repository.
type Origin string

const (
	// OriginScoped marks repositories scoped to the build step (phase 1).
	OriginScoped Origin = "build-step"
	// OriginDeclared marks repositories declared by the project (phase 2).
	OriginDeclared Origin = "project"
)

// Merge combines the build-step scoped repositories and the project-declared
// repositories into one ordered list.
//
// Phase 1 copies scoped in order. Phase 2 normalizes each declared entry and
// appends it. Nothing is deduplicated and Merge never fails. If report is
// non-nil it is called once per accepted repository, in output order.
func Merge(scoped []Descriptor, declared []Raw, report func(Descriptor, Origin)) []Descriptor {
	if report == nil {
		report = func(Descriptor, Origin) {}
	}

	merged := make([]Descriptor, 0, len(scoped)+len(declared))

	for _, d := range scoped {
		merged = append(merged, d)
		report(d, OriginScoped)
	}

	for _, r := range declared {
		d := Normalize(r)
		merged = append(merged, d)
		report(d, OriginDeclared)
	}

	return merged
}
