package ml

// FieldKind describes how a column is typed in a FeatureRecord.
type FieldKind string

const (
	KindInteger     FieldKind = "integer"
	KindFloat       FieldKind = "float"
	KindCategorical FieldKind = "categorical"
)

// Column names as fixed at preprocessor fit time.
const (
	ColAge           = "Age"
	ColGender        = "Gender"
	ColMaritalStatus = "Marital Status"
	ColOccupation    = "Occupation"
	ColMonthlyIncome = "Monthly Income"
	ColEducation     = "Educational Qualifications"
	ColFamilySize    = "Family size"
	ColLatitude      = "latitude"
	ColLongitude     = "longitude"
	ColPinCode       = "Pin code"
	ColOutput        = "Output"
)

// FieldSpec describes one input column, its domain and its form default.
type FieldSpec struct {
	Name    string
	Kind    FieldKind
	Min     float64
	Max     float64
	Bounded bool
	Step    string
	Default string
	Choices []string
}

// Schema is the ordered column set every record is reindexed onto.
var Schema = []FieldSpec{
	{Name: ColAge, Kind: KindInteger, Min: 18, Max: 100, Bounded: true, Step: "1", Default: "25"},
	{Name: ColGender, Kind: KindCategorical, Choices: []string{"Female", "Male"}},
	{Name: ColMaritalStatus, Kind: KindCategorical, Choices: []string{"Single", "Married", "Prefer not to say"}},
	{Name: ColOccupation, Kind: KindCategorical, Choices: []string{"Student", "Employee", "Self Employed", "House wife"}},
	{Name: ColMonthlyIncome, Kind: KindCategorical, Choices: []string{"No Income", "Below Rs.10000", "10001 to 25000", "25001 to 50000", "More than 50000"}},
	{Name: ColEducation, Kind: KindCategorical, Choices: []string{"Post Graduate", "Graduate", "Ph.D", "School", "Uneducated"}},
	{Name: ColFamilySize, Kind: KindInteger, Min: 1, Max: 10, Bounded: true, Step: "1", Default: "3"},
	{Name: ColLatitude, Kind: KindFloat, Step: "0.0001", Default: "12.9770"},
	{Name: ColLongitude, Kind: KindFloat, Step: "0.0001", Default: "77.5773"},
	{Name: ColPinCode, Kind: KindInteger, Min: 100000, Max: 999999, Bounded: true, Step: "1", Default: "560001"},
	{Name: ColOutput, Kind: KindCategorical, Choices: []string{"Yes", "No"}},
}

// ExpectedColumns returns the fit-time column order.
func ExpectedColumns() []string {
	names := make([]string, len(Schema))
	for i, spec := range Schema {
		names[i] = spec.Name
	}
	return names
}

// LookupField returns the spec for a column name.
func LookupField(name string) (FieldSpec, bool) {
	for _, spec := range Schema {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// HasChoice reports whether value is one of the spec's literal choices.
func (f FieldSpec) HasChoice(value string) bool {
	for _, choice := range f.Choices {
		if choice == value {
			return true
		}
	}
	return false
}
