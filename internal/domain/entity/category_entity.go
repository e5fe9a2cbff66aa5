package entity

// Category is one value of the closed set of event categories.
type Category string

const (
	CategoryTechnology Category = "Technology"
	CategoryMusic      Category = "Music"
	CategoryBusiness   Category = "Business"
	CategorySports     Category = "Sports"
	CategoryArts       Category = "Arts"
	CategoryFood       Category = "Food"
	CategoryEducation  Category = "Education"
	CategoryHealth     Category = "Health"
)

var categories = []Category{
	CategoryTechnology,
	CategoryMusic,
	CategoryBusiness,
	CategorySports,
	CategoryArts,
	CategoryFood,
	CategoryEducation,
	CategoryHealth,
}

// Categories returns the fixed category list in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryNames returns the category list as plain strings, for validators.
func CategoryNames() []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

func (c Category) Valid() bool {
	for _, k := range categories {
		if k == c {
			return true
		}
	}
	return false
}

func (c Category) String() string { return string(c) }
