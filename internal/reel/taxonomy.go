package reel

// Gender labels.
const (
	GenderFemale = "female"
	GenderMale   = "male"
	GenderMixed  = "mixed"
)

// AgeBuckets is the closed set of age labels, youngest first.
var AgeBuckets = []string{"13-17", "18-24", "25-34", "35-44", "45+"}

// DefaultTargetAge is the age filter for clients without saved settings. It
// is a target range, not a label, so it spans two buckets.
const DefaultTargetAge = "18-34"

// Interests is the closed set of interest labels.
var Interests = []string{
	"beauty",
	"business",
	"entertainment",
	"fashion",
	"finance",
	"fitness",
	"food",
	"gaming",
	"lifestyle",
	"study",
	"tech",
	"travel",
}

// DefaultInterest is used when no comment carries interest evidence.
const DefaultInterest = "lifestyle"

// IsKnownInterest reports whether v belongs to the interest taxonomy.
func IsKnownInterest(v string) bool {
	for _, interest := range Interests {
		if interest == v {
			return true
		}
	}
	return false
}
