package codes

// CodeSet is a union of inclusive code ranges.
type CodeSet struct {
	name   string
	ranges [][2]int
}

func (s CodeSet) Name() string {
	return s.name
}

// Contains reports whether code falls in any range of the set.
func (s CodeSet) Contains(code int) bool {
	for _, r := range s.ranges {
		if code >= r[0] && code <= r[1] {
			return true
		}
	}
	return false
}

var (
	TwoWheelers      = CodeSet{name: "implique_2roues", ranges: [][2]int{{1, 3}, {30, 36}, {80, 80}}}
	HeavyGoods       = CodeSet{name: "implique_pl", ranges: [][2]int{{13, 17}}}
	PublicTransit    = CodeSet{name: "implique_tc", ranges: [][2]int{{37, 38}}}
	PersonalMobility = CodeSet{name: "implique_edp", ranges: [][2]int{{50, 50}, {60, 60}}}
)
