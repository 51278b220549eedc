package livestock

// DepletionType classifies a permanent removal of animals from a
// livestock group.
type DepletionType string

const (
	DepletionTypeMortality DepletionType = "mortality"
	DepletionTypeCulling   DepletionType = "culling"
	DepletionTypeSales     DepletionType = "sales"
	DepletionTypeMutation  DepletionType = "mutation"
	DepletionTypeOther     DepletionType = "other"
)

// IsValid checks if the depletion type is valid
func (t DepletionType) IsValid() bool {
	switch t {
	case DepletionTypeMortality, DepletionTypeCulling, DepletionTypeSales, DepletionTypeMutation, DepletionTypeOther:
		return true
	}
	return false
}

// String returns the string representation
func (t DepletionType) String() string {
	return string(t)
}

// AllDepletionTypes returns all valid depletion types
func AllDepletionTypes() []DepletionType {
	return []DepletionType{
		DepletionTypeMortality,
		DepletionTypeCulling,
		DepletionTypeSales,
		DepletionTypeMutation,
		DepletionTypeOther,
	}
}

// CounterKind identifies which running counter a depletion type feeds
type CounterKind int

const (
	CounterDepletion CounterKind = iota
	CounterSales
	CounterMutation
)

// Counter maps the depletion type to the batch/livestock counter it
// increments. Mortality, culling and other removals feed the depletion
// counter; sales and mutations have dedicated counters.
func (t DepletionType) Counter() CounterKind {
	switch t {
	case DepletionTypeSales:
		return CounterSales
	case DepletionTypeMutation:
		return CounterMutation
	default:
		return CounterDepletion
	}
}
